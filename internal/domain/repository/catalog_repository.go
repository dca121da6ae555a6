package repository

import (
	"context"

	"github.com/omt-labs/labelledger/internal/domain/entity"
)

// CatalogRepository puerto de solo lectura hacia el catálogo (sellos, lanzamientos, distribuidores).
// Devuelve (nil, nil) cuando el registro no existe.
type CatalogRepository interface {
	GetLabel(ctx context.Context, id string) (*entity.Label, error)
	GetRelease(ctx context.Context, id string) (*entity.Release, error)
	GetDistributor(ctx context.Context, id string) (*entity.Distributor, error)
	FindDistributorByChannel(ctx context.Context, labelID, channel string) (*entity.Distributor, error)
}
