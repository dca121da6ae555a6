package memory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/omt-labs/labelledger/internal/domain"
	"github.com/omt-labs/labelledger/internal/domain/entity"
	"github.com/omt-labs/labelledger/internal/domain/repository"
)

var (
	_ repository.SaleRepository   = (*SaleRepo)(nil)
	_ repository.ReturnRepository = (*ReturnRepo)(nil)
)

// SaleRepo ventas en memoria.
type SaleRepo struct {
	st *state
}

func (r *SaleRepo) Create(_ context.Context, s *entity.Sale) error {
	if _, ok := r.st.sales[s.ID]; ok {
		return domain.ErrConflict
	}
	r.st.sales[s.ID] = copySale(*s)
	return nil
}

func (r *SaleRepo) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	s, ok := r.st.sales[id]
	if !ok {
		return nil, nil
	}
	s = copySale(s)
	return &s, nil
}

// GetForUpdate el mutex del Store ya serializa la transacción.
func (r *SaleRepo) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	return r.GetByID(ctx, id)
}

func (r *SaleRepo) Update(_ context.Context, s *entity.Sale) error {
	if _, ok := r.st.sales[s.ID]; !ok {
		return domain.NotFoundf("venta %s", s.ID)
	}
	r.st.sales[s.ID] = copySale(*s)
	return nil
}

func (r *SaleRepo) Delete(_ context.Context, id string) error {
	delete(r.st.sales, id)
	return nil
}

func (r *SaleRepo) ListByLabel(_ context.Context, labelID string) ([]*entity.Sale, error) {
	var list []*entity.Sale
	for _, s := range r.st.sales {
		if s.LabelID == labelID {
			s = copySale(s)
			list = append(list, &s)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].SaleDate.Equal(list[j].SaleDate) {
			return list[i].SaleDate.After(list[j].SaleDate)
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

func (r *SaleRepo) TotalRevenueByLabel(_ context.Context, labelID string) (map[string]decimal.Decimal, error) {
	totals := make(map[string]decimal.Decimal)
	for _, s := range r.st.sales {
		if s.LabelID != labelID {
			continue
		}
		cur, ok := totals[s.Currency]
		if !ok {
			cur = decimal.Zero
		}
		totals[s.Currency] = cur.Add(s.TotalAmount)
	}
	return totals, nil
}

func copySale(s entity.Sale) entity.Sale {
	s.LineItems = append([]entity.SaleLineItem(nil), s.LineItems...)
	return s
}

// ReturnRepo devoluciones en memoria.
type ReturnRepo struct {
	st *state
}

func (r *ReturnRepo) Create(_ context.Context, ret *entity.DistributorReturn) error {
	if _, ok := r.st.returns[ret.ID]; ok {
		return domain.ErrConflict
	}
	r.st.returns[ret.ID] = copyReturn(*ret)
	return nil
}

func (r *ReturnRepo) GetByID(_ context.Context, id string) (*entity.DistributorReturn, error) {
	ret, ok := r.st.returns[id]
	if !ok {
		return nil, nil
	}
	ret = copyReturn(ret)
	return &ret, nil
}

func (r *ReturnRepo) GetForUpdate(ctx context.Context, id string) (*entity.DistributorReturn, error) {
	return r.GetByID(ctx, id)
}

func (r *ReturnRepo) Update(_ context.Context, ret *entity.DistributorReturn) error {
	if _, ok := r.st.returns[ret.ID]; !ok {
		return domain.NotFoundf("devolución %s", ret.ID)
	}
	r.st.returns[ret.ID] = copyReturn(*ret)
	return nil
}

func (r *ReturnRepo) Delete(_ context.Context, id string) error {
	delete(r.st.returns, id)
	return nil
}

func (r *ReturnRepo) ListByLabel(_ context.Context, labelID string) ([]*entity.DistributorReturn, error) {
	return r.filter(func(ret entity.DistributorReturn) bool { return ret.LabelID == labelID }), nil
}

func (r *ReturnRepo) ListByDistributor(_ context.Context, distributorID string) ([]*entity.DistributorReturn, error) {
	return r.filter(func(ret entity.DistributorReturn) bool { return ret.DistributorID == distributorID }), nil
}

func (r *ReturnRepo) filter(keep func(entity.DistributorReturn) bool) []*entity.DistributorReturn {
	var list []*entity.DistributorReturn
	for _, ret := range r.st.returns {
		if keep(ret) {
			ret = copyReturn(ret)
			list = append(list, &ret)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].ReturnDate.Equal(list[j].ReturnDate) {
			return list[i].ReturnDate.After(list[j].ReturnDate)
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list
}

func copyReturn(ret entity.DistributorReturn) entity.DistributorReturn {
	ret.LineItems = append([]entity.ReturnLineItem(nil), ret.LineItems...)
	return ret
}
