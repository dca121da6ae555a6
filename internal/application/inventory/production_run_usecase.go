package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/omt-labs/labelledger/internal/domain"
	"github.com/omt-labs/labelledger/internal/domain/entity"
)

// ProductionRunUseCase registro de tiradas de producción.
type ProductionRunUseCase struct {
	txRunner TxRunner
	log      zerolog.Logger
}

// NewProductionRunUseCase construye el caso de uso.
func NewProductionRunUseCase(txRunner TxRunner, log zerolog.Logger) *ProductionRunUseCase {
	return &ProductionRunUseCase{txRunner: txRunner, log: log}
}

// CreateProductionRunInput entrada para registrar una tirada.
// ManufacturingDate en cero equivale a la fecha actual.
type CreateProductionRunInput struct {
	ReleaseID         string
	Format            string
	Description       string
	Manufacturer      string
	ManufacturingDate time.Time
	Quantity          int
}

// Create registra una tirada. La cantidad queda fija desde este momento.
func (uc *ProductionRunUseCase) Create(ctx context.Context, in CreateProductionRunInput) (*entity.ProductionRun, error) {
	if in.ReleaseID == "" {
		return nil, domain.InvalidInputf("release_id es obligatorio")
	}
	if !entity.ValidFormat(in.Format) {
		return nil, domain.InvalidInputf("formato desconocido: %q", in.Format)
	}
	if in.Quantity <= 0 {
		return nil, domain.InvalidInputf("la cantidad fabricada debe ser positiva: %d", in.Quantity)
	}
	now := time.Now().UTC()
	run := &entity.ProductionRun{
		ID:                uuid.New().String(),
		ReleaseID:         in.ReleaseID,
		Format:            in.Format,
		Description:       in.Description,
		Manufacturer:      in.Manufacturer,
		ManufacturingDate: in.ManufacturingDate,
		Quantity:          in.Quantity,
		CreatedAt:         now,
	}
	if run.ManufacturingDate.IsZero() {
		run.ManufacturingDate = now
	}

	err := uc.txRunner.Run(ctx, func(repos Repositories) error {
		release, err := repos.Catalog.GetRelease(ctx, in.ReleaseID)
		if err != nil {
			return err
		}
		if release == nil {
			return domain.NotFoundf("lanzamiento %s", in.ReleaseID)
		}
		return repos.ProductionRuns.Create(ctx, run)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("production_run_id", run.ID).
		Str("release_id", run.ReleaseID).
		Str("format", run.Format).
		Int("quantity", run.Quantity).
		Msg("tirada de producción registrada")
	return run, nil
}

// Get devuelve la tirada o ErrNotFound.
func (uc *ProductionRunUseCase) Get(ctx context.Context, id string) (*entity.ProductionRun, error) {
	var run *entity.ProductionRun
	err := uc.txRunner.Run(ctx, func(repos Repositories) error {
		var err error
		run, err = getProductionRun(ctx, repos, id)
		return err
	})
	return run, err
}

// ListByRelease tiradas de un lanzamiento, más reciente primero.
func (uc *ProductionRunUseCase) ListByRelease(ctx context.Context, releaseID string) ([]*entity.ProductionRun, error) {
	var runs []*entity.ProductionRun
	err := uc.txRunner.Run(ctx, func(repos Repositories) error {
		var err error
		runs, err = repos.ProductionRuns.ListByRelease(ctx, releaseID)
		return err
	})
	return runs, err
}

// FindMostRecent tirada vigente para (lanzamiento, formato); ErrPreconditionFailed si no hay ninguna.
func (uc *ProductionRunUseCase) FindMostRecent(ctx context.Context, releaseID, format string) (*entity.ProductionRun, error) {
	var run *entity.ProductionRun
	err := uc.txRunner.Run(ctx, func(repos Repositories) error {
		var err error
		run, err = repos.ProductionRuns.FindMostRecent(ctx, releaseID, format)
		if err != nil {
			return err
		}
		if run == nil {
			return domain.Preconditionf("no hay tirada de producción para el lanzamiento %s en formato %s", releaseID, format)
		}
		return nil
	})
	return run, err
}

// Delete elimina la tirada. Se rechaza mientras existan asignaciones: no hay borrado en cascada
// de movimientos.
func (uc *ProductionRunUseCase) Delete(ctx context.Context, id string) error {
	err := uc.txRunner.Run(ctx, func(repos Repositories) error {
		if _, err := LockProductionRuns(ctx, repos.ProductionRuns, id); err != nil {
			return err
		}
		allocs, err := repos.Allocations.ListByProductionRun(ctx, id)
		if err != nil {
			return err
		}
		if len(allocs) > 0 {
			return domain.Preconditionf("la tirada %s tiene %d asignaciones; no se puede eliminar", id, len(allocs))
		}
		return repos.ProductionRuns.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	uc.log.Info().Str("production_run_id", id).Msg("tirada de producción eliminada")
	return nil
}

func getProductionRun(ctx context.Context, repos Repositories, id string) (*entity.ProductionRun, error) {
	run, err := repos.ProductionRuns.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, domain.NotFoundf("tirada de producción %s", id)
	}
	return run, nil
}
