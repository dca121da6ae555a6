package postgres

import (
	"context"
	"fmt"

	"github.com/omt-labs/labelledger/internal/domain"
	"github.com/omt-labs/labelledger/internal/domain/entity"
	"github.com/omt-labs/labelledger/internal/domain/repository"
)

var _ repository.AllocationRepository = (*AllocationRepo)(nil)

// AllocationRepo registro de asignaciones sobre PostgreSQL (usable con pool o tx).
type AllocationRepo struct {
	q Querier
}

// NewAllocationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAllocationRepository(q Querier) *AllocationRepo {
	return &AllocationRepo{q: q}
}

const allocationColumns = `id, production_run_id, distributor_id, quantity, units_sold, allocated_at`

// Create persiste una asignación.
func (r *AllocationRepo) Create(ctx context.Context, a *entity.Allocation) error {
	query := `INSERT INTO allocations (` + allocationColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query, a.ID, a.ProductionRunID, a.DistributorID, a.Quantity, a.UnitsSold, a.AllocatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create allocation: %w", domain.ErrConflict)
		}
		return fmt.Errorf("create allocation: %w", err)
	}
	return nil
}

// ListByProductionRun asignaciones de la tirada, más antigua primero.
func (r *AllocationRepo) ListByProductionRun(ctx context.Context, productionRunID string) ([]*entity.Allocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM allocations WHERE production_run_id = $1 ORDER BY allocated_at, id`
	return r.list(ctx, query, productionRunID)
}

// SumQuantityByProductionRun total asignado de la tirada.
func (r *AllocationRepo) SumQuantityByProductionRun(ctx context.Context, productionRunID string) (int, error) {
	var total int
	err := r.q.QueryRow(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM allocations WHERE production_run_id = $1`,
		productionRunID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum allocations: %w", err)
	}
	return total, nil
}

// ExistsFor indica si hay al menos una asignación de la tirada al distribuidor.
func (r *AllocationRepo) ExistsFor(ctx context.Context, productionRunID, distributorID string) (bool, error) {
	var ok bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM allocations WHERE production_run_id = $1 AND distributor_id = $2)`,
		productionRunID, distributorID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("allocation exists: %w", err)
	}
	return ok, nil
}

// ListByProductionRunAndDistributor asignaciones de la pareja, más antigua primero.
func (r *AllocationRepo) ListByProductionRunAndDistributor(ctx context.Context, productionRunID, distributorID string) ([]*entity.Allocation, error) {
	query := `
		SELECT ` + allocationColumns + ` FROM allocations
		WHERE production_run_id = $1 AND distributor_id = $2
		ORDER BY allocated_at, id`
	return r.list(ctx, query, productionRunID, distributorID)
}

// UpdateUnitsSold fija el contador de unidades vendidas.
func (r *AllocationRepo) UpdateUnitsSold(ctx context.Context, id string, unitsSold int) error {
	tag, err := r.q.Exec(ctx, `UPDATE allocations SET units_sold = $2 WHERE id = $1`, id, unitsSold)
	if err != nil {
		return fmt.Errorf("update units sold: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundf("asignación %s", id)
	}
	return nil
}

// ListProductionRunIDs tiradas con asignaciones.
func (r *AllocationRepo) ListProductionRunIDs(ctx context.Context) ([]string, error) {
	rows, err := r.q.Query(ctx, `SELECT DISTINCT production_run_id FROM allocations ORDER BY production_run_id`)
	if err != nil {
		return nil, fmt.Errorf("list allocated runs: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *AllocationRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Allocation, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	defer rows.Close()
	var list []*entity.Allocation
	for rows.Next() {
		var a entity.Allocation
		if err := rows.Scan(&a.ID, &a.ProductionRunID, &a.DistributorID, &a.Quantity, &a.UnitsSold, &a.AllocatedAt); err != nil {
			return nil, fmt.Errorf("scan allocation: %w", err)
		}
		list = append(list, &a)
	}
	return list, rows.Err()
}
