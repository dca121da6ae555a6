package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/omt-labs/labelledger/internal/domain/entity"
	"github.com/omt-labs/labelledger/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo libro de movimientos sobre PostgreSQL (usable con pool o tx).
// Las columnas *_location_id son NULL para bodega y externo; se comparan con IS NOT DISTINCT FROM.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

const movementColumns = `id, production_run_id, from_location_type, from_location_id, to_location_type, to_location_id,
	quantity, movement_type, occurred_at, reference_id`

// Append persiste un movimiento.
func (r *MovementRepo) Append(ctx context.Context, m *entity.Movement) error {
	query := `
		INSERT INTO inventory_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.ProductionRunID, m.From.Type, m.From.IDPtr(), m.To.Type, m.To.IDPtr(),
		m.Quantity, m.Type, m.OccurredAt, m.ReferenceID,
	)
	if err != nil {
		return fmt.Errorf("append movement: %w", err)
	}
	return nil
}

// SumByProductionRunAndLocation totales entrante y saliente de loc en una sola pasada.
func (r *MovementRepo) SumByProductionRunAndLocation(ctx context.Context, productionRunID string, loc entity.Location) (int, int, error) {
	query := `
		SELECT
			COALESCE(SUM(quantity) FILTER (WHERE to_location_type = $2 AND to_location_id IS NOT DISTINCT FROM $3::text), 0),
			COALESCE(SUM(quantity) FILTER (WHERE from_location_type = $2 AND from_location_id IS NOT DISTINCT FROM $3::text), 0)
		FROM inventory_movements
		WHERE production_run_id = $1`
	var in, out int
	if err := r.q.QueryRow(ctx, query, productionRunID, loc.Type, loc.IDPtr()).Scan(&in, &out); err != nil {
		return 0, 0, fmt.Errorf("sum movements by location: %w", err)
	}
	return in, out, nil
}

// ListByProductionRun historial de la tirada, más reciente primero.
func (r *MovementRepo) ListByProductionRun(ctx context.Context, productionRunID string) ([]*entity.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM inventory_movements WHERE production_run_id = $1
		ORDER BY occurred_at DESC, id DESC`
	return r.list(ctx, "list movements by production run", query, productionRunID)
}

// ListByReference movimientos de un tipo generados por una asignación, venta o devolución.
func (r *MovementRepo) ListByReference(ctx context.Context, movementType, referenceID string) ([]*entity.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM inventory_movements WHERE movement_type = $1 AND reference_id = $2
		ORDER BY occurred_at, id`
	return r.list(ctx, "list movements by reference", query, movementType, referenceID)
}

// DeleteByReference elimina en bloque los movimientos de una referencia; devuelve cuántos borró.
func (r *MovementRepo) DeleteByReference(ctx context.Context, movementType, referenceID string) (int, error) {
	tag, err := r.q.Exec(ctx,
		`DELETE FROM inventory_movements WHERE movement_type = $1 AND reference_id = $2`,
		movementType, referenceID)
	if err != nil {
		return 0, fmt.Errorf("delete movements by reference: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// SumByTypeFrom suma de movimientos de un tipo que salen de from.
func (r *MovementRepo) SumByTypeFrom(ctx context.Context, productionRunID, movementType string, from entity.Location) (int, error) {
	query := `
		SELECT COALESCE(SUM(quantity), 0)
		FROM inventory_movements
		WHERE production_run_id = $1 AND movement_type = $2
		  AND from_location_type = $3 AND from_location_id IS NOT DISTINCT FROM $4::text`
	var total int
	if err := r.q.QueryRow(ctx, query, productionRunID, movementType, from.Type, from.IDPtr()).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum movements by type: %w", err)
	}
	return total, nil
}

// NetByDistributor saldo neto de cada distribuidor con movimientos en la tirada.
func (r *MovementRepo) NetByDistributor(ctx context.Context, productionRunID string) (map[string]int, error) {
	query := `
		SELECT location_id, SUM(delta) FROM (
			SELECT to_location_id AS location_id, quantity AS delta
			FROM inventory_movements
			WHERE production_run_id = $1 AND to_location_type = 'DISTRIBUTOR'
			UNION ALL
			SELECT from_location_id, -quantity
			FROM inventory_movements
			WHERE production_run_id = $1 AND from_location_type = 'DISTRIBUTOR'
		) t
		GROUP BY location_id`
	rows, err := r.q.Query(ctx, query, productionRunID)
	if err != nil {
		return nil, fmt.Errorf("net by distributor: %w", err)
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var id string
		var qty int
		if err := rows.Scan(&id, &qty); err != nil {
			return nil, fmt.Errorf("scan distributor net: %w", err)
		}
		out[id] = qty
	}
	return out, rows.Err()
}

func (r *MovementRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.Movement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	var list []*entity.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var m entity.Movement
	var fromID, toID *string
	err := row.Scan(&m.ID, &m.ProductionRunID, &m.From.Type, &fromID, &m.To.Type, &toID,
		&m.Quantity, &m.Type, &m.OccurredAt, &m.ReferenceID)
	if err != nil {
		return nil, err
	}
	m.From.ID = deref(fromID)
	m.To.ID = deref(toID)
	return &m, nil
}
