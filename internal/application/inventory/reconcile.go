package inventory

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/omt-labs/labelledger/internal/domain/entity"
)

// reconcileWorkers tiradas reconciliadas en paralelo por ReconcileAll.
const reconcileWorkers = 4

// ReconcileUnitsSold recalcula el contador de unidades vendidas de las asignaciones de
// (tirada, distribuidor) a partir de los movimientos SALE del libro, repartido FIFO.
// Debe llamarse dentro de la transacción que modificó los movimientos.
// Devuelve cuántas asignaciones cambiaron.
func ReconcileUnitsSold(ctx context.Context, repos Repositories, productionRunID, distributorID string) (int, error) {
	sold, err := repos.Movements.SumByTypeFrom(ctx, productionRunID, entity.MovementTypeSale, entity.DistributorLocation(distributorID))
	if err != nil {
		return 0, err
	}
	allocs, err := repos.Allocations.ListByProductionRunAndDistributor(ctx, productionRunID, distributorID)
	if err != nil {
		return 0, err
	}
	changed := 0
	for i, units := range entity.DistributeUnitsSold(allocs, sold) {
		if allocs[i].UnitsSold == units {
			continue
		}
		if err := repos.Allocations.UpdateUnitsSold(ctx, allocs[i].ID, units); err != nil {
			return changed, err
		}
		allocs[i].UnitsSold = units
		changed++
	}
	return changed, nil
}

// ReconcileResult resultado de reconciliar una tirada.
type ReconcileResult struct {
	ProductionRunID string
	Updated         int
}

// ReconcileUseCase reconcilia contadores ya almacenados (operación de mantenimiento).
type ReconcileUseCase struct {
	txRunner TxRunner
	log      zerolog.Logger
}

// NewReconcileUseCase construye el caso de uso.
func NewReconcileUseCase(txRunner TxRunner, log zerolog.Logger) *ReconcileUseCase {
	return &ReconcileUseCase{txRunner: txRunner, log: log}
}

// Reconcile bloquea la tirada y reconcilia todas sus parejas (tirada, distribuidor).
func (uc *ReconcileUseCase) Reconcile(ctx context.Context, productionRunID string) (ReconcileResult, error) {
	res := ReconcileResult{ProductionRunID: productionRunID}
	err := uc.txRunner.Run(ctx, func(repos Repositories) error {
		if _, err := LockProductionRuns(ctx, repos.ProductionRuns, productionRunID); err != nil {
			return err
		}
		allocs, err := repos.Allocations.ListByProductionRun(ctx, productionRunID)
		if err != nil {
			return err
		}
		seen := make(map[string]struct{})
		for _, a := range allocs {
			if _, ok := seen[a.DistributorID]; ok {
				continue
			}
			seen[a.DistributorID] = struct{}{}
			n, err := ReconcileUnitsSold(ctx, repos, productionRunID, a.DistributorID)
			if err != nil {
				return err
			}
			res.Updated += n
		}
		return nil
	})
	if err != nil {
		return res, err
	}
	uc.log.Info().Str("production_run_id", productionRunID).Int("updated", res.Updated).Msg("contadores reconciliados")
	return res, nil
}

// ReconcileAll reconcilia cada tirada con asignaciones, una transacción por tirada.
func (uc *ReconcileUseCase) ReconcileAll(ctx context.Context) ([]ReconcileResult, error) {
	var ids []string
	err := uc.txRunner.Run(ctx, func(repos Repositories) error {
		var err error
		ids, err = repos.Allocations.ListProductionRunIDs(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	results := make([]ReconcileResult, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reconcileWorkers)
	for i, id := range ids {
		g.Go(func() error {
			res, err := uc.Reconcile(gctx, id)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
