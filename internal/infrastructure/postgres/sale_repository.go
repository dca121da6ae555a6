package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/omt-labs/labelledger/internal/domain"
	"github.com/omt-labs/labelledger/internal/domain/entity"
	"github.com/omt-labs/labelledger/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo ventas y sus líneas sobre PostgreSQL (usable con pool o tx).
// Create/Update escriben varias tablas: llamarlos dentro de una tx.
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

const saleColumns = `id, label_id, distributor_id, sale_date, channel, notes, currency, total_amount, created_at, updated_at`

// Create persiste la venta con todas sus líneas.
func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	query := `INSERT INTO sales (` + saleColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.LabelID, s.DistributorID, s.SaleDate, s.Channel, s.Notes, s.Currency,
		s.TotalAmount, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create sale: %w", domain.ErrConflict)
		}
		return fmt.Errorf("create sale: %w", err)
	}
	return r.insertLines(ctx, s)
}

// GetByID venta con líneas; (nil, nil) si no existe.
func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE id = $1`
	return r.getOne(ctx, "get sale", query, id)
}

// GetForUpdate como GetByID, con la fila de la venta bloqueada (SELECT FOR UPDATE).
func (r *SaleRepo) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, "get sale for update", query, id)
}

func (r *SaleRepo) getOne(ctx context.Context, op, query, id string) (*entity.Sale, error) {
	s, err := scanSale(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		if isLockNotAvailable(err) {
			return nil, fmt.Errorf("%s: %w", op, domain.ErrConflict)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := r.loadLines(ctx, []*entity.Sale{s}); err != nil {
		return nil, err
	}
	return s, nil
}

// Update reemplaza cabecera editable y todas las líneas.
func (r *SaleRepo) Update(ctx context.Context, s *entity.Sale) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE sales SET sale_date = $2, notes = $3, currency = $4, total_amount = $5, updated_at = $6
		WHERE id = $1`,
		s.ID, s.SaleDate, s.Notes, s.Currency, s.TotalAmount, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update sale: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundf("venta %s", s.ID)
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM sale_line_items WHERE sale_id = $1`, s.ID); err != nil {
		return fmt.Errorf("delete sale lines: %w", err)
	}
	return r.insertLines(ctx, s)
}

// Delete elimina la venta; las líneas caen por ON DELETE CASCADE.
func (r *SaleRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM sales WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete sale: %w", err)
	}
	return nil
}

// ListByLabel ventas del sello, más reciente primero.
func (r *SaleRepo) ListByLabel(ctx context.Context, labelID string) ([]*entity.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE label_id = $1 ORDER BY sale_date DESC, created_at DESC`
	rows, err := r.q.Query(ctx, query, labelID)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	var list []*entity.Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		list = append(list, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	if err := r.loadLines(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// TotalRevenueByLabel ingresos del sello agrupados por moneda.
func (r *SaleRepo) TotalRevenueByLabel(ctx context.Context, labelID string) (map[string]decimal.Decimal, error) {
	rows, err := r.q.Query(ctx,
		`SELECT currency, COALESCE(SUM(total_amount), 0) FROM sales WHERE label_id = $1 GROUP BY currency`,
		labelID)
	if err != nil {
		return nil, fmt.Errorf("total revenue: %w", err)
	}
	defer rows.Close()
	out := make(map[string]decimal.Decimal)
	for rows.Next() {
		var currency string
		var total decimal.Decimal
		if err := rows.Scan(&currency, &total); err != nil {
			return nil, fmt.Errorf("scan revenue: %w", err)
		}
		out[currency] = total
	}
	return out, rows.Err()
}

func (r *SaleRepo) insertLines(ctx context.Context, s *entity.Sale) error {
	for i, li := range s.LineItems {
		_, err := r.q.Exec(ctx, `
			INSERT INTO sale_line_items (id, sale_id, position, release_id, format, quantity, unit_price, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			li.ID, s.ID, i, li.ReleaseID, li.Format, li.Quantity, li.UnitPrice, li.LineTotal)
		if err != nil {
			return fmt.Errorf("insert sale line: %w", err)
		}
	}
	return nil
}

// loadLines carga las líneas de todas las ventas en una sola consulta.
func (r *SaleRepo) loadLines(ctx context.Context, sales []*entity.Sale) error {
	if len(sales) == 0 {
		return nil
	}
	ids := make([]string, len(sales))
	byID := make(map[string]*entity.Sale, len(sales))
	for i, s := range sales {
		ids[i] = s.ID
		byID[s.ID] = s
	}
	rows, err := r.q.Query(ctx, `
		SELECT sale_id, id, release_id, format, quantity, unit_price, line_total
		FROM sale_line_items WHERE sale_id = ANY($1)
		ORDER BY sale_id, position`, ids)
	if err != nil {
		return fmt.Errorf("load sale lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var saleID string
		var li entity.SaleLineItem
		if err := rows.Scan(&saleID, &li.ID, &li.ReleaseID, &li.Format, &li.Quantity, &li.UnitPrice, &li.LineTotal); err != nil {
			return fmt.Errorf("scan sale line: %w", err)
		}
		if s, ok := byID[saleID]; ok {
			s.LineItems = append(s.LineItems, li)
		}
	}
	return rows.Err()
}

func scanSale(row pgx.Row) (*entity.Sale, error) {
	var s entity.Sale
	err := row.Scan(&s.ID, &s.LabelID, &s.DistributorID, &s.SaleDate, &s.Channel, &s.Notes,
		&s.Currency, &s.TotalAmount, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
