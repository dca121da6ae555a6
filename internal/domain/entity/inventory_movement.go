package entity

import (
	"fmt"
	"strings"
	"time"
)

// Tipos de ubicación del modelo de movimientos.
const (
	LocationWarehouse   = "WAREHOUSE"   // bodega propia del sello (única)
	LocationDistributor = "DISTRIBUTOR" // distribuidor concreto, requiere ID
	LocationExternal    = "EXTERNAL"    // fuera del sistema (vendido al público)
)

// Tipos de movimiento de inventario.
const (
	MovementTypeAllocation = "ALLOCATION" // bodega -> distribuidor
	MovementTypeSale       = "SALE"       // distribuidor -> externo
	MovementTypeReturn     = "RETURN"     // distribuidor -> bodega
)

// Location identifica un extremo de un movimiento. ID solo aplica a DISTRIBUTOR.
type Location struct {
	Type string
	ID   string
}

// Warehouse devuelve la ubicación de la bodega.
func Warehouse() Location { return Location{Type: LocationWarehouse} }

// DistributorLocation devuelve la ubicación de un distribuidor.
func DistributorLocation(id string) Location { return Location{Type: LocationDistributor, ID: id} }

// External devuelve el sumidero de unidades vendidas.
func External() Location { return Location{Type: LocationExternal} }

// Valid verifica el tipo y que solo DISTRIBUTOR lleve ID.
func (l Location) Valid() bool {
	switch l.Type {
	case LocationWarehouse, LocationExternal:
		return l.ID == ""
	case LocationDistributor:
		return l.ID != ""
	}
	return false
}

// IDPtr devuelve el ID como puntero (nil para bodega/externo), para columnas NULL.
func (l Location) IDPtr() *string {
	if l.ID == "" {
		return nil
	}
	id := l.ID
	return &id
}

func (l Location) String() string {
	if l.Type == LocationDistributor {
		return fmt.Sprintf("%s(%s)", l.Type, l.ID)
	}
	return l.Type
}

// ParseLocation interpreta "warehouse", "external" o "distributor:<id>".
func ParseLocation(s string) (Location, bool) {
	switch s {
	case "warehouse", LocationWarehouse:
		return Warehouse(), true
	case "external", LocationExternal:
		return External(), true
	}
	if id, ok := strings.CutPrefix(s, "distributor:"); ok && id != "" {
		return DistributorLocation(id), true
	}
	return Location{}, false
}

// Movement es una entrada del libro de movimientos: traslado de unidades de una tirada
// entre dos ubicaciones. Cantidad siempre positiva; la dirección la dan From y To.
type Movement struct {
	ID              string
	ProductionRunID string
	From            Location
	To              Location
	Quantity        int
	Type            string
	OccurredAt      time.Time
	ReferenceID     string // asignación, venta o devolución que lo originó
}

// ValidMovementType indica si t es un tipo de movimiento conocido.
func ValidMovementType(t string) bool {
	switch t {
	case MovementTypeAllocation, MovementTypeSale, MovementTypeReturn:
		return true
	}
	return false
}
