package repository

import (
	"context"

	"github.com/omt-labs/labelledger/internal/domain/entity"
)

// ReturnRepository define el puerto de persistencia para devoluciones de distribuidores.
type ReturnRepository interface {
	Create(ctx context.Context, ret *entity.DistributorReturn) error
	GetByID(ctx context.Context, id string) (*entity.DistributorReturn, error)
	GetForUpdate(ctx context.Context, id string) (*entity.DistributorReturn, error)
	Update(ctx context.Context, ret *entity.DistributorReturn) error
	Delete(ctx context.Context, id string) error
	ListByLabel(ctx context.Context, labelID string) ([]*entity.DistributorReturn, error)
	ListByDistributor(ctx context.Context, distributorID string) ([]*entity.DistributorReturn, error)
}
