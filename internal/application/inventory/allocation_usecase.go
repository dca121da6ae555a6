package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/omt-labs/labelledger/internal/domain"
	"github.com/omt-labs/labelledger/internal/domain/entity"
)

// AllocationUseCase asigna unidades de la bodega a distribuidores y consulta el registro.
type AllocationUseCase struct {
	txRunner TxRunner
	log      zerolog.Logger
}

// NewAllocationUseCase construye el caso de uso.
func NewAllocationUseCase(txRunner TxRunner, log zerolog.Logger) *AllocationUseCase {
	return &AllocationUseCase{txRunner: txRunner, log: log}
}

// CreateAllocationInput entrada de CreateAllocation.
type CreateAllocationInput struct {
	ProductionRunID string
	DistributorID   string
	Quantity        int
}

// CreateAllocation bloquea la tirada, verifica el techo (fabricado − asignado) y, en la misma
// transacción, persiste la asignación y el movimiento bodega -> distribuidor.
func (uc *AllocationUseCase) CreateAllocation(ctx context.Context, in CreateAllocationInput) (*entity.Allocation, error) {
	if in.ProductionRunID == "" || in.DistributorID == "" {
		return nil, domain.InvalidInputf("production_run_id y distributor_id son obligatorios")
	}
	if in.Quantity <= 0 {
		return nil, domain.InvalidInputf("la cantidad a asignar debe ser positiva: %d", in.Quantity)
	}

	var allocation *entity.Allocation
	err := uc.txRunner.Run(ctx, func(repos Repositories) error {
		locked, err := LockProductionRuns(ctx, repos.ProductionRuns, in.ProductionRunID)
		if err != nil {
			return err
		}
		run := locked[in.ProductionRunID]

		if err := checkDistributorOwnsRun(ctx, repos, run, in.DistributorID); err != nil {
			return err
		}

		allocated, err := repos.Allocations.SumQuantityByProductionRun(ctx, run.ID)
		if err != nil {
			return err
		}
		if !run.CanAllocate(in.Quantity, allocated) {
			return &domain.InsufficientInventoryError{
				Requested: in.Quantity,
				Available: run.AvailableForAllocation(allocated),
			}
		}

		allocation = &entity.Allocation{
			ID:              uuid.New().String(),
			ProductionRunID: run.ID,
			DistributorID:   in.DistributorID,
			Quantity:        in.Quantity,
			AllocatedAt:     time.Now().UTC(),
		}
		if err := repos.Allocations.Create(ctx, allocation); err != nil {
			return err
		}
		_, err = NewLedger(repos.Movements).Transfer(ctx, run.ID,
			entity.Warehouse(), entity.DistributorLocation(in.DistributorID),
			in.Quantity, entity.MovementTypeAllocation, allocation.ID)
		return err
	})
	if err != nil {
		uc.log.Debug().Err(err).
			Str("production_run_id", in.ProductionRunID).
			Str("distributor_id", in.DistributorID).
			Int("quantity", in.Quantity).
			Msg("asignación rechazada")
		return nil, err
	}
	uc.log.Info().
		Str("allocation_id", allocation.ID).
		Str("production_run_id", allocation.ProductionRunID).
		Str("distributor_id", allocation.DistributorID).
		Int("quantity", allocation.Quantity).
		Msg("asignación registrada")
	return allocation, nil
}

// GetAllocationsForProductionRun asignaciones de la tirada, más antigua primero.
func (uc *AllocationUseCase) GetAllocationsForProductionRun(ctx context.Context, productionRunID string) ([]*entity.Allocation, error) {
	var list []*entity.Allocation
	err := uc.txRunner.Run(ctx, func(repos Repositories) error {
		if _, err := getProductionRun(ctx, repos, productionRunID); err != nil {
			return err
		}
		var err error
		list, err = repos.Allocations.ListByProductionRun(ctx, productionRunID)
		return err
	})
	return list, err
}

// GetTotalAllocated suma de cantidades asignadas de la tirada.
func (uc *AllocationUseCase) GetTotalAllocated(ctx context.Context, productionRunID string) (int, error) {
	var total int
	err := uc.txRunner.Run(ctx, func(repos Repositories) error {
		if _, err := getProductionRun(ctx, repos, productionRunID); err != nil {
			return err
		}
		var err error
		total, err = repos.Allocations.SumQuantityByProductionRun(ctx, productionRunID)
		return err
	})
	return total, err
}

// GetUnallocatedQuantity fabricado − asignado.
func (uc *AllocationUseCase) GetUnallocatedQuantity(ctx context.Context, productionRunID string) (int, error) {
	var available int
	err := uc.txRunner.Run(ctx, func(repos Repositories) error {
		run, err := getProductionRun(ctx, repos, productionRunID)
		if err != nil {
			return err
		}
		allocated, err := repos.Allocations.SumQuantityByProductionRun(ctx, productionRunID)
		if err != nil {
			return err
		}
		available = run.AvailableForAllocation(allocated)
		return nil
	})
	return available, err
}

// checkDistributorOwnsRun exige que el distribuidor exista y pertenezca al sello dueño del lanzamiento.
func checkDistributorOwnsRun(ctx context.Context, repos Repositories, run *entity.ProductionRun, distributorID string) error {
	dist, err := repos.Catalog.GetDistributor(ctx, distributorID)
	if err != nil {
		return err
	}
	if dist == nil {
		return domain.NotFoundf("distribuidor %s", distributorID)
	}
	release, err := repos.Catalog.GetRelease(ctx, run.ReleaseID)
	if err != nil {
		return err
	}
	if release == nil {
		return domain.NotFoundf("lanzamiento %s", run.ReleaseID)
	}
	if release.LabelID != dist.LabelID {
		return domain.NotFoundf("distribuidor %s en el sello %s", distributorID, release.LabelID)
	}
	return nil
}
