package memory

import (
	"context"
	"sort"

	"github.com/omt-labs/labelledger/internal/domain"
	"github.com/omt-labs/labelledger/internal/domain/entity"
	"github.com/omt-labs/labelledger/internal/domain/repository"
)

var _ repository.ProductionRunRepository = (*ProductionRunRepo)(nil)

// ProductionRunRepo tiradas en memoria.
type ProductionRunRepo struct {
	st *state
}

func (r *ProductionRunRepo) Create(_ context.Context, run *entity.ProductionRun) error {
	if _, ok := r.st.runs[run.ID]; ok {
		return domain.ErrConflict
	}
	r.st.runs[run.ID] = *run
	return nil
}

func (r *ProductionRunRepo) GetByID(_ context.Context, id string) (*entity.ProductionRun, error) {
	run, ok := r.st.runs[id]
	if !ok {
		return nil, nil
	}
	return &run, nil
}

// GetForUpdate la transacción ya tiene el mutex del Store; equivale a GetByID.
func (r *ProductionRunRepo) GetForUpdate(ctx context.Context, id string) (*entity.ProductionRun, error) {
	return r.GetByID(ctx, id)
}

func (r *ProductionRunRepo) ListByRelease(_ context.Context, releaseID string) ([]*entity.ProductionRun, error) {
	var list []*entity.ProductionRun
	for _, run := range r.st.runs {
		if run.ReleaseID == releaseID {
			list = append(list, &run)
		}
	}
	sortRunsNewestFirst(list)
	return list, nil
}

func (r *ProductionRunRepo) FindMostRecent(ctx context.Context, releaseID, format string) (*entity.ProductionRun, error) {
	list, _ := r.ListByRelease(ctx, releaseID)
	for _, run := range list {
		if run.Format == format {
			return run, nil
		}
	}
	return nil, nil
}

func (r *ProductionRunRepo) Delete(_ context.Context, id string) error {
	delete(r.st.runs, id)
	return nil
}

func sortRunsNewestFirst(list []*entity.ProductionRun) {
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if !a.ManufacturingDate.Equal(b.ManufacturingDate) {
			return a.ManufacturingDate.After(b.ManufacturingDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}
