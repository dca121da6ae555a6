package dto

import (
	"time"

	"github.com/omt-labs/labelledger/internal/application/inventory"
	"github.com/omt-labs/labelledger/internal/domain/entity"
)

// CreateProductionRunRequest body para POST /api/production-runs.
type CreateProductionRunRequest struct {
	ReleaseID         string     `json:"release_id" validate:"required"`
	Format            string     `json:"format" validate:"required,oneof=VINYL CD CASSETTE DIGITAL"`
	Description       string     `json:"description" validate:"max=255"`
	Manufacturer      string     `json:"manufacturer" validate:"max=255"`
	ManufacturingDate *time.Time `json:"manufacturing_date"`
	Quantity          int        `json:"quantity" validate:"required,gt=0"`
}

// ProductionRunResponse tirada de producción.
type ProductionRunResponse struct {
	ID                string    `json:"id"`
	ReleaseID         string    `json:"release_id"`
	Format            string    `json:"format"`
	Description       string    `json:"description"`
	Manufacturer      string    `json:"manufacturer"`
	ManufacturingDate time.Time `json:"manufacturing_date"`
	Quantity          int       `json:"quantity"`
	CreatedAt         time.Time `json:"created_at"`
}

// CreateAllocationRequest body para POST /api/production-runs/:id/allocations.
type CreateAllocationRequest struct {
	DistributorID string `json:"distributor_id" validate:"required"`
	Quantity      int    `json:"quantity" validate:"required,gt=0"`
}

// AllocationResponse asignación.
type AllocationResponse struct {
	ID              string    `json:"id"`
	ProductionRunID string    `json:"production_run_id"`
	DistributorID   string    `json:"distributor_id"`
	Quantity        int       `json:"quantity"`
	UnitsSold       int       `json:"units_sold"`
	AllocatedAt     time.Time `json:"allocated_at"`
}

// AllocationListResponse asignaciones con totales.
type AllocationListResponse struct {
	ListResponse[AllocationResponse]
	TotalAllocated int `json:"total_allocated"`
	Unallocated    int `json:"unallocated"`
}

// MovementResponse forma persistida de un movimiento.
type MovementResponse struct {
	ID               string    `json:"id"`
	ProductionRunID  string    `json:"production_run_id"`
	FromLocationType string    `json:"from_location_type"`
	FromLocationID   *string   `json:"from_location_id,omitempty"`
	ToLocationType   string    `json:"to_location_type"`
	ToLocationID     *string   `json:"to_location_id,omitempty"`
	Quantity         int       `json:"quantity"`
	MovementType     string    `json:"movement_type"`
	OccurredAt       time.Time `json:"occurred_at"`
	ReferenceID      string    `json:"reference_id"`
}

// InventoryResponse cantidad en una ubicación.
type InventoryResponse struct {
	ProductionRunID string `json:"production_run_id"`
	Location        string `json:"location"`
	Quantity        int    `json:"quantity"`
}

// DistributorHoldingResponse estado de un distribuidor en el resumen.
type DistributorHoldingResponse struct {
	DistributorID string `json:"distributor_id"`
	Name          string `json:"name,omitempty"`
	Allocated     int    `json:"allocated"`
	Sold          int    `json:"sold"`
	Returned      int    `json:"returned"`
	OnHand        int    `json:"on_hand"`
}

// SummaryResponse resumen de la tirada.
type SummaryResponse struct {
	ProductionRun   ProductionRunResponse        `json:"production_run"`
	Manufactured    int                          `json:"manufactured"`
	Allocated       int                          `json:"allocated"`
	Unallocated     int                          `json:"unallocated"`
	WarehouseOnHand int                          `json:"warehouse_on_hand"`
	SoldExternally  int                          `json:"sold_externally"`
	Returned        int                          `json:"returned"`
	Distributors    []DistributorHoldingResponse `json:"distributors"`
}

// ToProductionRunResponse mapea la entidad.
func ToProductionRunResponse(p *entity.ProductionRun) ProductionRunResponse {
	return ProductionRunResponse{
		ID:                p.ID,
		ReleaseID:         p.ReleaseID,
		Format:            p.Format,
		Description:       p.Description,
		Manufacturer:      p.Manufacturer,
		ManufacturingDate: p.ManufacturingDate,
		Quantity:          p.Quantity,
		CreatedAt:         p.CreatedAt,
	}
}

// ToAllocationResponse mapea la entidad.
func ToAllocationResponse(a *entity.Allocation) AllocationResponse {
	return AllocationResponse{
		ID:              a.ID,
		ProductionRunID: a.ProductionRunID,
		DistributorID:   a.DistributorID,
		Quantity:        a.Quantity,
		UnitsSold:       a.UnitsSold,
		AllocatedAt:     a.AllocatedAt,
	}
}

// ToMovementResponse mapea la entidad a su forma persistida.
func ToMovementResponse(m *entity.Movement) MovementResponse {
	return MovementResponse{
		ID:               m.ID,
		ProductionRunID:  m.ProductionRunID,
		FromLocationType: m.From.Type,
		FromLocationID:   m.From.IDPtr(),
		ToLocationType:   m.To.Type,
		ToLocationID:     m.To.IDPtr(),
		Quantity:         m.Quantity,
		MovementType:     m.Type,
		OccurredAt:       m.OccurredAt,
		ReferenceID:      m.ReferenceID,
	}
}

// ToSummaryResponse mapea el resumen del caso de uso.
func ToSummaryResponse(s *inventory.Summary) SummaryResponse {
	out := SummaryResponse{
		ProductionRun:   ToProductionRunResponse(s.ProductionRun),
		Manufactured:    s.Manufactured,
		Allocated:       s.Allocated,
		Unallocated:     s.Unallocated,
		WarehouseOnHand: s.WarehouseOnHand,
		SoldExternally:  s.SoldExternally,
		Returned:        s.Returned,
		Distributors:    make([]DistributorHoldingResponse, 0, len(s.Distributors)),
	}
	for _, d := range s.Distributors {
		out.Distributors = append(out.Distributors, DistributorHoldingResponse(d))
	}
	return out
}

// MapSlice aplica f a cada elemento.
func MapSlice[T, R any](in []T, f func(T) R) []R {
	out := make([]R, 0, len(in))
	for _, v := range in {
		out = append(out, f(v))
	}
	return out
}
