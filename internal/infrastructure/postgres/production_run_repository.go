package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/omt-labs/labelledger/internal/domain"
	"github.com/omt-labs/labelledger/internal/domain/entity"
	"github.com/omt-labs/labelledger/internal/domain/repository"
)

var _ repository.ProductionRunRepository = (*ProductionRunRepo)(nil)

// ProductionRunRepo implementación de ProductionRunRepository sobre PostgreSQL (usable con pool o tx).
type ProductionRunRepo struct {
	q Querier
}

// NewProductionRunRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProductionRunRepository(q Querier) *ProductionRunRepo {
	return &ProductionRunRepo{q: q}
}

const productionRunColumns = `id, release_id, format, description, manufacturer, manufacturing_date, quantity, created_at`

// Create persiste una tirada.
func (r *ProductionRunRepo) Create(ctx context.Context, run *entity.ProductionRun) error {
	query := `
		INSERT INTO production_runs (` + productionRunColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		run.ID, run.ReleaseID, run.Format, run.Description, run.Manufacturer,
		run.ManufacturingDate, run.Quantity, run.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create production run: %w", domain.ErrConflict)
		}
		return fmt.Errorf("create production run: %w", err)
	}
	return nil
}

// GetByID obtiene una tirada por ID.
func (r *ProductionRunRepo) GetByID(ctx context.Context, id string) (*entity.ProductionRun, error) {
	query := `SELECT ` + productionRunColumns + ` FROM production_runs WHERE id = $1`
	return r.getOne(ctx, "get production run", query, id)
}

// GetForUpdate obtiene la tirada y bloquea la fila (SELECT FOR UPDATE) hasta el fin de la tx.
func (r *ProductionRunRepo) GetForUpdate(ctx context.Context, id string) (*entity.ProductionRun, error) {
	query := `SELECT ` + productionRunColumns + ` FROM production_runs WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, "get production run for update", query, id)
}

// ListByRelease tiradas de un lanzamiento, más reciente primero.
func (r *ProductionRunRepo) ListByRelease(ctx context.Context, releaseID string) ([]*entity.ProductionRun, error) {
	query := `
		SELECT ` + productionRunColumns + `
		FROM production_runs WHERE release_id = $1
		ORDER BY manufacturing_date DESC, created_at DESC, id DESC`
	rows, err := r.q.Query(ctx, query, releaseID)
	if err != nil {
		return nil, fmt.Errorf("list production runs: %w", err)
	}
	defer rows.Close()
	var list []*entity.ProductionRun
	for rows.Next() {
		run, err := scanProductionRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan production run: %w", err)
		}
		list = append(list, run)
	}
	return list, rows.Err()
}

// FindMostRecent tirada más reciente para (lanzamiento, formato); (nil, nil) si no hay.
func (r *ProductionRunRepo) FindMostRecent(ctx context.Context, releaseID, format string) (*entity.ProductionRun, error) {
	query := `
		SELECT ` + productionRunColumns + `
		FROM production_runs WHERE release_id = $1 AND format = $2
		ORDER BY manufacturing_date DESC, created_at DESC, id DESC
		LIMIT 1`
	return r.getOne(ctx, "find most recent production run", query, releaseID, format)
}

// Delete elimina la tirada. Si aún la referencian asignaciones o movimientos devuelve ErrPreconditionFailed.
func (r *ProductionRunRepo) Delete(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM production_runs WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Preconditionf("la tirada %s aún tiene asignaciones o movimientos", id)
		}
		return fmt.Errorf("delete production run: %w", err)
	}
	return nil
}

func (r *ProductionRunRepo) getOne(ctx context.Context, op, query string, args ...any) (*entity.ProductionRun, error) {
	run, err := scanProductionRun(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		if isLockNotAvailable(err) {
			return nil, fmt.Errorf("%s: %w", op, domain.ErrConflict)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return run, nil
}

func scanProductionRun(row pgx.Row) (*entity.ProductionRun, error) {
	var p entity.ProductionRun
	err := row.Scan(&p.ID, &p.ReleaseID, &p.Format, &p.Description, &p.Manufacturer,
		&p.ManufacturingDate, &p.Quantity, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
