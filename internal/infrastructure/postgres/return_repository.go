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

var _ repository.ReturnRepository = (*ReturnRepo)(nil)

// ReturnRepo devoluciones y sus líneas sobre PostgreSQL (usable con pool o tx).
type ReturnRepo struct {
	q Querier
}

// NewReturnRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReturnRepository(q Querier) *ReturnRepo {
	return &ReturnRepo{q: q}
}

const returnColumns = `id, label_id, distributor_id, return_date, notes, created_at, updated_at`

func (r *ReturnRepo) Create(ctx context.Context, ret *entity.DistributorReturn) error {
	query := `INSERT INTO distributor_returns (` + returnColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query,
		ret.ID, ret.LabelID, ret.DistributorID, ret.ReturnDate, ret.Notes, ret.CreatedAt, ret.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create return: %w", domain.ErrConflict)
		}
		return fmt.Errorf("create return: %w", err)
	}
	return r.insertLines(ctx, ret)
}

func (r *ReturnRepo) GetByID(ctx context.Context, id string) (*entity.DistributorReturn, error) {
	query := `SELECT ` + returnColumns + ` FROM distributor_returns WHERE id = $1`
	return r.getOne(ctx, "get return", query, id)
}

// GetForUpdate bloquea la fila de la devolución hasta el fin de la transacción.
func (r *ReturnRepo) GetForUpdate(ctx context.Context, id string) (*entity.DistributorReturn, error) {
	query := `SELECT ` + returnColumns + ` FROM distributor_returns WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, "get return for update", query, id)
}

func (r *ReturnRepo) getOne(ctx context.Context, op, query, id string) (*entity.DistributorReturn, error) {
	ret, err := scanReturn(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		if isLockNotAvailable(err) {
			return nil, fmt.Errorf("%s: %w", op, domain.ErrConflict)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := r.loadLines(ctx, []*entity.DistributorReturn{ret}); err != nil {
		return nil, err
	}
	return ret, nil
}

func (r *ReturnRepo) Update(ctx context.Context, ret *entity.DistributorReturn) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE distributor_returns SET return_date = $2, notes = $3, updated_at = $4 WHERE id = $1`,
		ret.ID, ret.ReturnDate, ret.Notes, ret.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update return: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundf("devolución %s", ret.ID)
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM return_line_items WHERE return_id = $1`, ret.ID); err != nil {
		return fmt.Errorf("delete return lines: %w", err)
	}
	return r.insertLines(ctx, ret)
}

func (r *ReturnRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM distributor_returns WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete return: %w", err)
	}
	return nil
}

func (r *ReturnRepo) ListByLabel(ctx context.Context, labelID string) ([]*entity.DistributorReturn, error) {
	return r.list(ctx, `SELECT `+returnColumns+` FROM distributor_returns
		WHERE label_id = $1 ORDER BY return_date DESC, created_at DESC`, labelID)
}

func (r *ReturnRepo) ListByDistributor(ctx context.Context, distributorID string) ([]*entity.DistributorReturn, error) {
	return r.list(ctx, `SELECT `+returnColumns+` FROM distributor_returns
		WHERE distributor_id = $1 ORDER BY return_date DESC, created_at DESC`, distributorID)
}

func (r *ReturnRepo) list(ctx context.Context, query string, args ...any) ([]*entity.DistributorReturn, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list returns: %w", err)
	}
	var list []*entity.DistributorReturn
	for rows.Next() {
		ret, err := scanReturn(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan return: %w", err)
		}
		list = append(list, ret)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list returns: %w", err)
	}
	if err := r.loadLines(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *ReturnRepo) insertLines(ctx context.Context, ret *entity.DistributorReturn) error {
	for i, li := range ret.LineItems {
		_, err := r.q.Exec(ctx, `
			INSERT INTO return_line_items (id, return_id, position, release_id, format, quantity)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			li.ID, ret.ID, i, li.ReleaseID, li.Format, li.Quantity)
		if err != nil {
			return fmt.Errorf("insert return line: %w", err)
		}
	}
	return nil
}

func (r *ReturnRepo) loadLines(ctx context.Context, returns []*entity.DistributorReturn) error {
	if len(returns) == 0 {
		return nil
	}
	ids := make([]string, len(returns))
	byID := make(map[string]*entity.DistributorReturn, len(returns))
	for i, ret := range returns {
		ids[i] = ret.ID
		byID[ret.ID] = ret
	}
	rows, err := r.q.Query(ctx, `
		SELECT return_id, id, release_id, format, quantity
		FROM return_line_items WHERE return_id = ANY($1)
		ORDER BY return_id, position`, ids)
	if err != nil {
		return fmt.Errorf("load return lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var returnID string
		var li entity.ReturnLineItem
		if err := rows.Scan(&returnID, &li.ID, &li.ReleaseID, &li.Format, &li.Quantity); err != nil {
			return fmt.Errorf("scan return line: %w", err)
		}
		if ret, ok := byID[returnID]; ok {
			ret.LineItems = append(ret.LineItems, li)
		}
	}
	return rows.Err()
}

func scanReturn(row pgx.Row) (*entity.DistributorReturn, error) {
	var ret entity.DistributorReturn
	err := row.Scan(&ret.ID, &ret.LabelID, &ret.DistributorID, &ret.ReturnDate, &ret.Notes, &ret.CreatedAt, &ret.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &ret, nil
}
