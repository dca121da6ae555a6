package repository

import (
	"context"

	"github.com/omt-labs/labelledger/internal/domain/entity"
)

// ProductionRunRepository define el puerto para tiradas de producción.
type ProductionRunRepository interface {
	Create(ctx context.Context, run *entity.ProductionRun) error
	GetByID(ctx context.Context, id string) (*entity.ProductionRun, error)
	// GetForUpdate bloquea la fila de la tirada (SELECT FOR UPDATE). Es el punto de
	// serialización de todas las operaciones que mueven unidades de esa tirada.
	GetForUpdate(ctx context.Context, id string) (*entity.ProductionRun, error)
	ListByRelease(ctx context.Context, releaseID string) ([]*entity.ProductionRun, error)
	// FindMostRecent devuelve la tirada más reciente por fecha de fabricación (y luego creación).
	FindMostRecent(ctx context.Context, releaseID, format string) (*entity.ProductionRun, error)
	Delete(ctx context.Context, id string) error
}
