package memory

import (
	"context"
	"sort"

	"github.com/omt-labs/labelledger/internal/domain"
	"github.com/omt-labs/labelledger/internal/domain/entity"
	"github.com/omt-labs/labelledger/internal/domain/repository"
)

var _ repository.AllocationRepository = (*AllocationRepo)(nil)

// AllocationRepo asignaciones en memoria, en orden de inserción.
type AllocationRepo struct {
	st *state
}

func (r *AllocationRepo) Create(_ context.Context, a *entity.Allocation) error {
	r.st.allocations = append(r.st.allocations, *a)
	return nil
}

func (r *AllocationRepo) ListByProductionRun(_ context.Context, productionRunID string) ([]*entity.Allocation, error) {
	return r.filter(func(a entity.Allocation) bool { return a.ProductionRunID == productionRunID }), nil
}

func (r *AllocationRepo) SumQuantityByProductionRun(_ context.Context, productionRunID string) (int, error) {
	total := 0
	for _, a := range r.st.allocations {
		if a.ProductionRunID == productionRunID {
			total += a.Quantity
		}
	}
	return total, nil
}

func (r *AllocationRepo) ExistsFor(_ context.Context, productionRunID, distributorID string) (bool, error) {
	for _, a := range r.st.allocations {
		if a.ProductionRunID == productionRunID && a.DistributorID == distributorID {
			return true, nil
		}
	}
	return false, nil
}

func (r *AllocationRepo) ListByProductionRunAndDistributor(_ context.Context, productionRunID, distributorID string) ([]*entity.Allocation, error) {
	return r.filter(func(a entity.Allocation) bool {
		return a.ProductionRunID == productionRunID && a.DistributorID == distributorID
	}), nil
}

func (r *AllocationRepo) UpdateUnitsSold(_ context.Context, id string, unitsSold int) error {
	for i := range r.st.allocations {
		if r.st.allocations[i].ID == id {
			r.st.allocations[i].UnitsSold = unitsSold
			return nil
		}
	}
	return domain.NotFoundf("asignación %s", id)
}

func (r *AllocationRepo) ListProductionRunIDs(_ context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	var ids []string
	for _, a := range r.st.allocations {
		if _, ok := seen[a.ProductionRunID]; ok {
			continue
		}
		seen[a.ProductionRunID] = struct{}{}
		ids = append(ids, a.ProductionRunID)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *AllocationRepo) filter(keep func(entity.Allocation) bool) []*entity.Allocation {
	var list []*entity.Allocation
	for _, a := range r.st.allocations {
		if keep(a) {
			list = append(list, &a)
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].AllocatedAt.Before(list[j].AllocatedAt)
	})
	return list
}
