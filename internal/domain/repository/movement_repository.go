package repository

import (
	"context"

	"github.com/omt-labs/labelledger/internal/domain/entity"
)

// MovementRepository define el puerto del libro de movimientos (append-only).
// Los movimientos nunca se modifican: se crean o se eliminan en bloque por referencia.
type MovementRepository interface {
	Append(ctx context.Context, movement *entity.Movement) error
	// SumByProductionRunAndLocation devuelve el total entrante (to == loc) y saliente (from == loc).
	SumByProductionRunAndLocation(ctx context.Context, productionRunID string, loc entity.Location) (inbound, outbound int, err error)
	// ListByProductionRun ordena del más reciente al más antiguo.
	ListByProductionRun(ctx context.Context, productionRunID string) ([]*entity.Movement, error)
	ListByReference(ctx context.Context, movementType, referenceID string) ([]*entity.Movement, error)
	DeleteByReference(ctx context.Context, movementType, referenceID string) (int, error)
	// SumByTypeFrom suma los movimientos de un tipo que salen de loc para la tirada.
	SumByTypeFrom(ctx context.Context, productionRunID, movementType string, from entity.Location) (int, error)
	// NetByDistributor saldo neto por distribuidor para la tirada (incluye ceros y negativos).
	NetByDistributor(ctx context.Context, productionRunID string) (map[string]int, error)
}
