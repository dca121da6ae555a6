package entity

import "time"

// Formatos físicos de un lanzamiento.
const (
	FormatVinyl    = "VINYL"
	FormatCD       = "CD"
	FormatCassette = "CASSETTE"
	FormatDigital  = "DIGITAL"
)

// ValidFormat indica si f es un formato conocido.
func ValidFormat(f string) bool {
	switch f {
	case FormatVinyl, FormatCD, FormatCassette, FormatDigital:
		return true
	}
	return false
}

// ProductionRun es una tirada fabricada de un lanzamiento en un formato. Quantity es el techo
// de todas las asignaciones y no se modifica después de creada.
type ProductionRun struct {
	ID                string
	ReleaseID         string
	Format            string
	Description       string
	Manufacturer      string
	ManufacturingDate time.Time
	Quantity          int
	CreatedAt         time.Time
}

// AvailableForAllocation devuelve lo que aún no se ha asignado a distribuidores.
func (p *ProductionRun) AvailableForAllocation(allocated int) int {
	return p.Quantity - allocated
}

// CanAllocate indica si requested cabe dentro de lo no asignado.
func (p *ProductionRun) CanAllocate(requested, allocated int) bool {
	return requested <= p.AvailableForAllocation(allocated)
}
