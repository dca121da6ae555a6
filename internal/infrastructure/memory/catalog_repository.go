package memory

import (
	"context"
	"sort"

	"github.com/omt-labs/labelledger/internal/domain/entity"
	"github.com/omt-labs/labelledger/internal/domain/repository"
)

var _ repository.CatalogRepository = (*CatalogRepo)(nil)

// CatalogRepo vista de solo lectura del catálogo cargado en el Store.
type CatalogRepo struct {
	st *state
}

func (r *CatalogRepo) GetLabel(_ context.Context, id string) (*entity.Label, error) {
	l, ok := r.st.labels[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (r *CatalogRepo) GetRelease(_ context.Context, id string) (*entity.Release, error) {
	rel, ok := r.st.releases[id]
	if !ok {
		return nil, nil
	}
	return &rel, nil
}

func (r *CatalogRepo) GetDistributor(_ context.Context, id string) (*entity.Distributor, error) {
	d, ok := r.st.distributors[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

// FindDistributorByChannel con varios candidatos elige el de menor ID, igual que el adaptador SQL.
func (r *CatalogRepo) FindDistributorByChannel(_ context.Context, labelID, channel string) (*entity.Distributor, error) {
	var found []entity.Distributor
	for _, d := range r.st.distributors {
		if d.LabelID == labelID && d.ChannelType == channel {
			found = append(found, d)
		}
	}
	if len(found) == 0 {
		return nil, nil
	}
	sort.Slice(found, func(i, j int) bool { return found[i].ID < found[j].ID })
	return &found[0], nil
}
