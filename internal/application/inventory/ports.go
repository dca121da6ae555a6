package inventory

import (
	"context"

	"github.com/omt-labs/labelledger/internal/domain/repository"
)

// Repositories agrupa los repositorios atados a una misma transacción.
type Repositories struct {
	ProductionRuns repository.ProductionRunRepository
	Movements      repository.MovementRepository
	Allocations    repository.AllocationRepository
	Sales          repository.SaleRepository
	Returns        repository.ReturnRepository
	Catalog        repository.CatalogRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback y no queda ningún efecto; si no, Commit.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos Repositories) error) error
}

// StatementRenderer genera el documento imprimible del estado de una tirada.
type StatementRenderer interface {
	RenderStatement(st *Statement) ([]byte, error)
}
