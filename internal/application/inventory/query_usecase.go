package inventory

import (
	"context"
	"sort"

	"github.com/omt-labs/labelledger/internal/domain"
	"github.com/omt-labs/labelledger/internal/domain/entity"
)

// QueryUseCase consultas de inventario derivadas del libro. Solo lectura.
type QueryUseCase struct {
	txRunner TxRunner
}

// NewQueryUseCase construye el caso de uso de consultas.
func NewQueryUseCase(txRunner TxRunner) *QueryUseCase {
	return &QueryUseCase{txRunner: txRunner}
}

// DistributorHolding estado de un distribuidor dentro de una tirada.
type DistributorHolding struct {
	DistributorID string
	Name          string
	Allocated     int
	Sold          int
	Returned      int
	OnHand        int
}

// Summary resumen del estado de una tirada.
type Summary struct {
	ProductionRun   *entity.ProductionRun
	Manufactured    int
	Allocated       int
	Unallocated     int
	WarehouseOnHand int
	SoldExternally  int
	Returned        int
	Distributors    []DistributorHolding
}

// CurrentInventory cantidad en loc para la tirada. Sin movimientos devuelve 0.
func (uc *QueryUseCase) CurrentInventory(ctx context.Context, productionRunID string, loc entity.Location) (int, error) {
	if !loc.Valid() {
		return 0, domain.InvalidInputf("ubicación inválida: %s", loc)
	}
	var qty int
	err := uc.txRunner.Run(ctx, func(repos Repositories) error {
		var err error
		qty, err = NewLedger(repos.Movements).CurrentInventory(ctx, productionRunID, loc)
		return err
	})
	return qty, err
}

// WarehouseInventory saldo neto de bodega en el libro.
func (uc *QueryUseCase) WarehouseInventory(ctx context.Context, productionRunID string) (int, error) {
	return uc.CurrentInventory(ctx, productionRunID, entity.Warehouse())
}

// WarehouseOnHand unidades físicas en bodega: fabricado + saldo neto del libro.
func (uc *QueryUseCase) WarehouseOnHand(ctx context.Context, productionRunID string) (int, error) {
	var qty int
	err := uc.txRunner.Run(ctx, func(repos Repositories) error {
		run, err := getProductionRun(ctx, repos, productionRunID)
		if err != nil {
			return err
		}
		net, err := NewLedger(repos.Movements).WarehouseInventory(ctx, productionRunID)
		if err != nil {
			return err
		}
		qty = run.Quantity + net
		return nil
	})
	return qty, err
}

// MovementsForProductionRun historial más reciente primero.
func (uc *QueryUseCase) MovementsForProductionRun(ctx context.Context, productionRunID string) ([]*entity.Movement, error) {
	var list []*entity.Movement
	err := uc.txRunner.Run(ctx, func(repos Repositories) error {
		var err error
		list, err = NewLedger(repos.Movements).Movements(ctx, productionRunID)
		return err
	})
	return list, err
}

// InventoryByDistributor existencias positivas por distribuidor.
func (uc *QueryUseCase) InventoryByDistributor(ctx context.Context, productionRunID string) (map[string]int, error) {
	var out map[string]int
	err := uc.txRunner.Run(ctx, func(repos Repositories) error {
		var err error
		out, err = NewLedger(repos.Movements).HoldingsByDistributor(ctx, productionRunID)
		return err
	})
	return out, err
}

// Summary arma el resumen de la tirada. ErrNotFound si no existe.
func (uc *QueryUseCase) Summary(ctx context.Context, productionRunID string) (*Summary, error) {
	var s *Summary
	err := uc.txRunner.Run(ctx, func(repos Repositories) error {
		var err error
		s, err = buildSummary(ctx, repos, productionRunID)
		return err
	})
	return s, err
}

func buildSummary(ctx context.Context, repos Repositories, productionRunID string) (*Summary, error) {
	run, err := getProductionRun(ctx, repos, productionRunID)
	if err != nil {
		return nil, err
	}
	ledger := NewLedger(repos.Movements)

	allocs, err := repos.Allocations.ListByProductionRun(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	warehouseNet, err := ledger.WarehouseInventory(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	sold, err := ledger.CurrentInventory(ctx, run.ID, entity.External())
	if err != nil {
		return nil, err
	}
	net, err := repos.Movements.NetByDistributor(ctx, run.ID)
	if err != nil {
		return nil, err
	}

	byDist := make(map[string]*DistributorHolding)
	holding := func(id string) *DistributorHolding {
		h, ok := byDist[id]
		if !ok {
			h = &DistributorHolding{DistributorID: id}
			byDist[id] = h
		}
		return h
	}
	allocated := 0
	for _, a := range allocs {
		allocated += a.Quantity
		holding(a.DistributorID).Allocated += a.Quantity
	}
	for id, qty := range net {
		holding(id).OnHand = qty
	}

	s := &Summary{
		ProductionRun:   run,
		Manufactured:    run.Quantity,
		Allocated:       allocated,
		Unallocated:     run.AvailableForAllocation(allocated),
		WarehouseOnHand: run.Quantity + warehouseNet,
		SoldExternally:  sold,
	}
	for id, h := range byDist {
		from := entity.DistributorLocation(id)
		if h.Sold, err = repos.Movements.SumByTypeFrom(ctx, run.ID, entity.MovementTypeSale, from); err != nil {
			return nil, err
		}
		if h.Returned, err = repos.Movements.SumByTypeFrom(ctx, run.ID, entity.MovementTypeReturn, from); err != nil {
			return nil, err
		}
		dist, err := repos.Catalog.GetDistributor(ctx, id)
		if err != nil {
			return nil, err
		}
		if dist != nil {
			h.Name = dist.Name
		}
		s.Returned += h.Returned
		s.Distributors = append(s.Distributors, *h)
	}
	sort.Slice(s.Distributors, func(i, j int) bool {
		if s.Distributors[i].Name != s.Distributors[j].Name {
			return s.Distributors[i].Name < s.Distributors[j].Name
		}
		return s.Distributors[i].DistributorID < s.Distributors[j].DistributorID
	})
	return s, nil
}
