package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/omt-labs/labelledger/internal/domain/entity"
)

// SaleRepository define el puerto de persistencia para ventas (con sus líneas).
type SaleRepository interface {
	Create(ctx context.Context, sale *entity.Sale) error
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	// GetForUpdate lee la venta y bloquea su fila hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Sale, error)
	// Update reemplaza fecha, notas, totales y todas las líneas.
	Update(ctx context.Context, sale *entity.Sale) error
	Delete(ctx context.Context, id string) error
	// ListByLabel ordena por fecha de venta descendente.
	ListByLabel(ctx context.Context, labelID string) ([]*entity.Sale, error)
	// TotalRevenueByLabel suma los totales agrupados por moneda.
	TotalRevenueByLabel(ctx context.Context, labelID string) (map[string]decimal.Decimal, error)
}
