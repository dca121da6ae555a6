package memory

import (
	"context"
	"sort"

	"github.com/omt-labs/labelledger/internal/domain/entity"
	"github.com/omt-labs/labelledger/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo libro de movimientos en memoria.
type MovementRepo struct {
	st *state
}

func (r *MovementRepo) Append(_ context.Context, m *entity.Movement) error {
	r.st.movements = append(r.st.movements, *m)
	return nil
}

func (r *MovementRepo) SumByProductionRunAndLocation(_ context.Context, productionRunID string, loc entity.Location) (int, int, error) {
	in, out := 0, 0
	for _, m := range r.st.movements {
		if m.ProductionRunID != productionRunID {
			continue
		}
		if m.To == loc {
			in += m.Quantity
		}
		if m.From == loc {
			out += m.Quantity
		}
	}
	return in, out, nil
}

func (r *MovementRepo) ListByProductionRun(_ context.Context, productionRunID string) ([]*entity.Movement, error) {
	var list []*entity.Movement
	for i := len(r.st.movements) - 1; i >= 0; i-- {
		m := r.st.movements[i]
		if m.ProductionRunID == productionRunID {
			list = append(list, &m)
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].OccurredAt.After(list[j].OccurredAt)
	})
	return list, nil
}

func (r *MovementRepo) ListByReference(_ context.Context, movementType, referenceID string) ([]*entity.Movement, error) {
	var list []*entity.Movement
	for _, m := range r.st.movements {
		if m.Type == movementType && m.ReferenceID == referenceID {
			list = append(list, &m)
		}
	}
	return list, nil
}

func (r *MovementRepo) DeleteByReference(_ context.Context, movementType, referenceID string) (int, error) {
	kept := r.st.movements[:0:0]
	deleted := 0
	for _, m := range r.st.movements {
		if m.Type == movementType && m.ReferenceID == referenceID {
			deleted++
			continue
		}
		kept = append(kept, m)
	}
	r.st.movements = kept
	return deleted, nil
}

func (r *MovementRepo) SumByTypeFrom(_ context.Context, productionRunID, movementType string, from entity.Location) (int, error) {
	total := 0
	for _, m := range r.st.movements {
		if m.ProductionRunID == productionRunID && m.Type == movementType && m.From == from {
			total += m.Quantity
		}
	}
	return total, nil
}

func (r *MovementRepo) NetByDistributor(_ context.Context, productionRunID string) (map[string]int, error) {
	net := make(map[string]int)
	for _, m := range r.st.movements {
		if m.ProductionRunID != productionRunID {
			continue
		}
		if m.To.Type == entity.LocationDistributor {
			net[m.To.ID] += m.Quantity
		}
		if m.From.Type == entity.LocationDistributor {
			net[m.From.ID] -= m.Quantity
		}
	}
	return net, nil
}
