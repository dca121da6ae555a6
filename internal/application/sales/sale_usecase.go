package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/omt-labs/labelledger/internal/application/inventory"
	"github.com/omt-labs/labelledger/internal/domain"
	"github.com/omt-labs/labelledger/internal/domain/entity"
)

// SaleUseCase registra, edita y elimina ventas manteniendo el libro de movimientos y los
// contadores de unidades vendidas en la misma transacción.
type SaleUseCase struct {
	txRunner inventory.TxRunner
	log      zerolog.Logger
}

// NewSaleUseCase construye el caso de uso.
func NewSaleUseCase(txRunner inventory.TxRunner, log zerolog.Logger) *SaleUseCase {
	return &SaleUseCase{txRunner: txRunner, log: log}
}

// SaleLineInput línea de venta.
type SaleLineInput struct {
	ReleaseID string
	Format    string
	Quantity  int
	UnitPrice decimal.Decimal
	Currency  string
}

// RegisterSaleInput entrada de RegisterSale. DistributorID vacío usa el distribuidor del
// sello para el canal.
type RegisterSaleInput struct {
	LabelID       string
	DistributorID string
	SaleDate      time.Time
	Channel       string
	Notes         string
	LineItems     []SaleLineInput
}

// UpdateSaleInput entrada de UpdateSale. Distribuidor y canal no se pueden cambiar.
type UpdateSaleInput struct {
	SaleDate  time.Time
	Notes     string
	LineItems []SaleLineInput
}

// RegisterSale valida todas las líneas y, si todas pasan, persiste la venta y un movimiento
// distribuidor -> externo por línea. Si una falla no se persiste nada.
func (uc *SaleUseCase) RegisterSale(ctx context.Context, in RegisterSaleInput) (*entity.Sale, error) {
	if in.LabelID == "" {
		return nil, domain.InvalidInputf("label_id es obligatorio")
	}
	if !entity.ValidChannel(in.Channel) {
		return nil, domain.InvalidInputf("canal desconocido: %q", in.Channel)
	}
	currency, err := validateSaleLines(in.LineItems)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sale := &entity.Sale{
		ID:        uuid.New().String(),
		LabelID:   in.LabelID,
		SaleDate:  dateOrNow(in.SaleDate, now),
		Channel:   in.Channel,
		Notes:     in.Notes,
		Currency:  currency,
		LineItems: toSaleLineItems(in.LineItems),
		CreatedAt: now,
		UpdatedAt: now,
	}
	sale.RecalculateTotals()

	err = uc.txRunner.Run(ctx, func(repos inventory.Repositories) error {
		label, err := repos.Catalog.GetLabel(ctx, in.LabelID)
		if err != nil {
			return err
		}
		if label == nil {
			return domain.NotFoundf("sello %s", in.LabelID)
		}
		dist, err := resolveSaleDistributor(ctx, repos, in.LabelID, in.DistributorID, in.Channel)
		if err != nil {
			return err
		}
		sale.DistributorID = dist.ID

		lines, err := resolveLines(ctx, repos, sale.LabelID, saleLineRefs(sale.LineItems))
		if err != nil {
			return err
		}
		if _, err := inventory.LockProductionRuns(ctx, repos.ProductionRuns, runIDs(lines, nil)...); err != nil {
			return err
		}
		if err := claimLines(ctx, repos, lines, sale.DistributorID, true); err != nil {
			return err
		}
		if err := repos.Sales.Create(ctx, sale); err != nil {
			return err
		}
		return uc.applySale(ctx, repos, sale, lines, nil)
	})
	if err != nil {
		uc.log.Debug().Err(err).Str("label_id", in.LabelID).Msg("venta rechazada")
		return nil, err
	}
	uc.log.Info().
		Str("sale_id", sale.ID).
		Str("label_id", sale.LabelID).
		Str("distributor_id", sale.DistributorID).
		Int("line_items", len(sale.LineItems)).
		Str("total", sale.TotalAmount.StringFixed(2)).
		Msg("venta registrada")
	return sale, nil
}

// UpdateSale revierte los movimientos de la venta, reemplaza las líneas y vuelve a validar
// contra el inventario ya restaurado. Una edición puede subir la cantidad por encima de lo que
// el distribuidor muestra antes de revertir.
func (uc *SaleUseCase) UpdateSale(ctx context.Context, saleID string, in UpdateSaleInput) (*entity.Sale, error) {
	currency, err := validateSaleLines(in.LineItems)
	if err != nil {
		return nil, err
	}

	var sale *entity.Sale
	err = uc.txRunner.Run(ctx, func(repos inventory.Repositories) error {
		var err error
		sale, err = repos.Sales.GetForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return domain.NotFoundf("venta %s", saleID)
		}
		if sale.Currency != "" && sale.Currency != currency {
			return domain.InvalidInputf("la venta está en %s; no se puede cambiar a %s", sale.Currency, currency)
		}
		previous, err := repos.Movements.ListByReference(ctx, entity.MovementTypeSale, sale.ID)
		if err != nil {
			return err
		}
		items := toSaleLineItems(in.LineItems)
		lines, err := resolveLines(ctx, repos, sale.LabelID, saleLineRefs(items))
		if err != nil {
			return err
		}
		if _, err := inventory.LockProductionRuns(ctx, repos.ProductionRuns, runIDs(lines, previous)...); err != nil {
			return err
		}
		if _, err := repos.Movements.DeleteByReference(ctx, entity.MovementTypeSale, sale.ID); err != nil {
			return err
		}
		if err := claimLines(ctx, repos, lines, sale.DistributorID, true); err != nil {
			return err
		}

		sale.SaleDate = dateOrNow(in.SaleDate, sale.SaleDate)
		sale.Notes = in.Notes
		sale.Currency = currency
		sale.LineItems = items
		sale.UpdatedAt = time.Now().UTC()
		sale.RecalculateTotals()
		if err := repos.Sales.Update(ctx, sale); err != nil {
			return err
		}
		return uc.applySale(ctx, repos, sale, lines, previous)
	})
	if err != nil {
		uc.log.Debug().Err(err).Str("sale_id", saleID).Msg("edición de venta rechazada")
		return nil, err
	}
	uc.log.Info().Str("sale_id", sale.ID).Int("line_items", len(sale.LineItems)).Msg("venta actualizada")
	return sale, nil
}

// DeleteSale revierte los movimientos y elimina la venta. ErrNotFound si no existe.
func (uc *SaleUseCase) DeleteSale(ctx context.Context, saleID string) error {
	err := uc.txRunner.Run(ctx, func(repos inventory.Repositories) error {
		sale, err := repos.Sales.GetForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return domain.NotFoundf("venta %s", saleID)
		}
		previous, err := repos.Movements.ListByReference(ctx, entity.MovementTypeSale, sale.ID)
		if err != nil {
			return err
		}
		if _, err := inventory.LockProductionRuns(ctx, repos.ProductionRuns, runIDs(nil, previous)...); err != nil {
			return err
		}
		if _, err := repos.Movements.DeleteByReference(ctx, entity.MovementTypeSale, sale.ID); err != nil {
			return err
		}
		if err := repos.Sales.Delete(ctx, sale.ID); err != nil {
			return err
		}
		return reconcileRuns(ctx, repos, sale.DistributorID, runIDs(nil, previous))
	})
	if err != nil {
		return err
	}
	uc.log.Info().Str("sale_id", saleID).Msg("venta eliminada")
	return nil
}

// GetSale devuelve la venta o ErrNotFound.
func (uc *SaleUseCase) GetSale(ctx context.Context, saleID string) (*entity.Sale, error) {
	var sale *entity.Sale
	err := uc.txRunner.Run(ctx, func(repos inventory.Repositories) error {
		var err error
		sale, err = repos.Sales.GetByID(ctx, saleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return domain.NotFoundf("venta %s", saleID)
		}
		return nil
	})
	return sale, err
}

// SalesForLabel ventas del sello, más reciente primero.
func (uc *SaleUseCase) SalesForLabel(ctx context.Context, labelID string) ([]*entity.Sale, error) {
	var list []*entity.Sale
	err := uc.txRunner.Run(ctx, func(repos inventory.Repositories) error {
		var err error
		list, err = repos.Sales.ListByLabel(ctx, labelID)
		return err
	})
	return list, err
}

// TotalRevenueForLabel ingresos del sello por moneda.
func (uc *SaleUseCase) TotalRevenueForLabel(ctx context.Context, labelID string) (map[string]decimal.Decimal, error) {
	var totals map[string]decimal.Decimal
	err := uc.txRunner.Run(ctx, func(repos inventory.Repositories) error {
		var err error
		totals, err = repos.Sales.TotalRevenueByLabel(ctx, labelID)
		return err
	})
	return totals, err
}

// applySale escribe un movimiento SALE por línea y reconcilia los contadores de las tiradas
// afectadas (las nuevas y las que tenían movimientos revertidos).
func (uc *SaleUseCase) applySale(ctx context.Context, repos inventory.Repositories, sale *entity.Sale, lines []resolvedLine, previous []*entity.Movement) error {
	ledger := inventory.NewLedger(repos.Movements)
	for _, l := range lines {
		if _, err := ledger.Transfer(ctx, l.RunID,
			entity.DistributorLocation(sale.DistributorID), entity.External(),
			l.Quantity, entity.MovementTypeSale, sale.ID); err != nil {
			return err
		}
		uc.log.Debug().
			Str("sale_id", sale.ID).
			Str("production_run_id", l.RunID).
			Int("quantity", l.Quantity).
			Msg("movimiento de venta")
	}
	return reconcileRuns(ctx, repos, sale.DistributorID, runIDs(lines, previous))
}

func reconcileRuns(ctx context.Context, repos inventory.Repositories, distributorID string, ids []string) error {
	done := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := done[id]; ok {
			continue
		}
		done[id] = struct{}{}
		if _, err := inventory.ReconcileUnitsSold(ctx, repos, id, distributorID); err != nil {
			return err
		}
	}
	return nil
}

// resolveSaleDistributor aplica las reglas de distribuidor y canal de una venta nueva.
func resolveSaleDistributor(ctx context.Context, repos inventory.Repositories, labelID, distributorID, channel string) (*entity.Distributor, error) {
	if distributorID == "" {
		dist, err := repos.Catalog.FindDistributorByChannel(ctx, labelID, channel)
		if err != nil {
			return nil, err
		}
		if dist == nil {
			return nil, domain.NotFoundf("distribuidor del sello %s para el canal %s", labelID, channel)
		}
		return dist, nil
	}
	dist, err := repos.Catalog.GetDistributor(ctx, distributorID)
	if err != nil {
		return nil, err
	}
	if dist == nil || dist.LabelID != labelID {
		return nil, domain.NotFoundf("distribuidor %s en el sello %s", distributorID, labelID)
	}
	if dist.ChannelType != channel {
		return nil, domain.InvalidInputf("el distribuidor %s es del canal %s, no %s", dist.ID, dist.ChannelType, channel)
	}
	return dist, nil
}

// validateSaleLines valida estructura y moneda única; devuelve la moneda común.
func validateSaleLines(items []SaleLineInput) (string, error) {
	refs := make([]lineRef, len(items))
	for i, it := range items {
		refs[i] = lineRef{ReleaseID: it.ReleaseID, Format: it.Format, Quantity: it.Quantity}
	}
	if err := validateLineRefs(refs); err != nil {
		return "", err
	}
	currency := items[0].Currency
	for i, it := range items {
		if it.UnitPrice.IsNegative() {
			return "", domain.InvalidInputf("línea %d: el precio unitario no puede ser negativo", i+1)
		}
		if it.Currency != currency {
			return "", domain.InvalidInputf("todas las líneas deben usar la misma moneda (%s != %s)", it.Currency, currency)
		}
	}
	return currency, nil
}

func toSaleLineItems(items []SaleLineInput) []entity.SaleLineItem {
	out := make([]entity.SaleLineItem, len(items))
	for i, it := range items {
		out[i] = entity.SaleLineItem{
			ID:        uuid.New().String(),
			ReleaseID: it.ReleaseID,
			Format:    it.Format,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		}
	}
	return out
}

func saleLineRefs(items []entity.SaleLineItem) []lineRef {
	out := make([]lineRef, len(items))
	for i, it := range items {
		out[i] = lineRef{ReleaseID: it.ReleaseID, Format: it.Format, Quantity: it.Quantity}
	}
	return out
}

func dateOrNow(t, fallback time.Time) time.Time {
	if t.IsZero() {
		return fallback
	}
	return t
}
