package repository

import (
	"context"

	"github.com/omt-labs/labelledger/internal/domain/entity"
)

// AllocationRepository define el puerto del registro de asignaciones.
// Los listados van de la más antigua a la más reciente.
type AllocationRepository interface {
	Create(ctx context.Context, allocation *entity.Allocation) error
	ListByProductionRun(ctx context.Context, productionRunID string) ([]*entity.Allocation, error)
	SumQuantityByProductionRun(ctx context.Context, productionRunID string) (int, error)
	ExistsFor(ctx context.Context, productionRunID, distributorID string) (bool, error)
	ListByProductionRunAndDistributor(ctx context.Context, productionRunID, distributorID string) ([]*entity.Allocation, error)
	UpdateUnitsSold(ctx context.Context, id string, unitsSold int) error
	// ListProductionRunIDs tiradas que tienen al menos una asignación.
	ListProductionRunIDs(ctx context.Context) ([]string, error)
}
