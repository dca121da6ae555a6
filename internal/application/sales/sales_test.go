package sales_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omt-labs/labelledger/internal/application/inventory"
	"github.com/omt-labs/labelledger/internal/application/sales"
	"github.com/omt-labs/labelledger/internal/domain"
	"github.com/omt-labs/labelledger/internal/domain/entity"
	"github.com/omt-labs/labelledger/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fixture
// ──────────────────────────────────────────────────────────────────────────────

type fixture struct {
	store       *memory.Store
	runs        *inventory.ProductionRunUseCase
	allocations *inventory.AllocationUseCase
	queries     *inventory.QueryUseCase
	sales       *sales.SaleUseCase
	returns     *sales.ReturnUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.AddLabel(entity.Label{ID: "L1", Name: "Sello"})
	store.AddLabel(entity.Label{ID: "L2", Name: "Otro"})
	store.AddRelease(entity.Release{ID: "R", LabelID: "L1", Name: "LP"})
	store.AddRelease(entity.Release{ID: "R2", LabelID: "L1", Name: "EP"})
	store.AddRelease(entity.Release{ID: "RX", LabelID: "L2", Name: "Ajeno"})
	store.AddDistributor(entity.Distributor{ID: "D", LabelID: "L1", Name: "Distri", ChannelType: entity.ChannelDistributor})
	store.AddDistributor(entity.Distributor{ID: "S", LabelID: "L1", Name: "Tienda", ChannelType: entity.ChannelRecordStore})
	store.AddDistributor(entity.Distributor{ID: "DX", LabelID: "L2", Name: "Ajeno", ChannelType: entity.ChannelDistributor})

	log := zerolog.Nop()
	return &fixture{
		store:       store,
		runs:        inventory.NewProductionRunUseCase(store, log),
		allocations: inventory.NewAllocationUseCase(store, log),
		queries:     inventory.NewQueryUseCase(store),
		sales:       sales.NewSaleUseCase(store, log),
		returns:     sales.NewReturnUseCase(store, log),
	}
}

// setupRun tirada de R en vinilo con una asignación a D.
func (f *fixture) setupRun(t *testing.T, manufactured, allocated int) *entity.ProductionRun {
	t.Helper()
	ctx := context.Background()
	run, err := f.runs.Create(ctx, inventory.CreateProductionRunInput{ReleaseID: "R", Format: entity.FormatVinyl, Quantity: manufactured})
	require.NoError(t, err)
	if allocated > 0 {
		_, err = f.allocations.CreateAllocation(ctx, inventory.CreateAllocationInput{
			ProductionRunID: run.ID, DistributorID: "D", Quantity: allocated,
		})
		require.NoError(t, err)
	}
	return run
}

func vinylLine(qty int) sales.SaleLineInput {
	return sales.SaleLineInput{
		ReleaseID: "R", Format: entity.FormatVinyl, Quantity: qty,
		UnitPrice: decimal.RequireFromString("25.00"), Currency: "EUR",
	}
}

func (f *fixture) sell(lines ...sales.SaleLineInput) (*entity.Sale, error) {
	return f.sales.RegisterSale(context.Background(), sales.RegisterSaleInput{
		LabelID: "L1", Channel: entity.ChannelDistributor, LineItems: lines,
	})
}

func (f *fixture) onHand(t *testing.T, runID, distID string) int {
	t.Helper()
	qty, err := f.queries.CurrentInventory(context.Background(), runID, entity.DistributorLocation(distID))
	require.NoError(t, err)
	return qty
}

// assertConservation la suma de saldos netos de todas las ubicaciones es cero.
func (f *fixture) assertConservation(t *testing.T, runID string) {
	t.Helper()
	ctx := context.Background()
	wh, err := f.queries.WarehouseInventory(ctx, runID)
	require.NoError(t, err)
	ext, err := f.queries.CurrentInventory(ctx, runID, entity.External())
	require.NoError(t, err)
	total := wh + ext
	for _, id := range []string{"D", "S"} {
		total += f.onHand(t, runID, id)
	}
	assert.Zero(t, total, "conservación de unidades")
}

func (f *fixture) unitsSold(t *testing.T, runID string) int {
	t.Helper()
	list, err := f.allocations.GetAllocationsForProductionRun(context.Background(), runID)
	require.NoError(t, err)
	sold := 0
	for _, a := range list {
		sold += a.UnitsSold
	}
	return sold
}

// ──────────────────────────────────────────────────────────────────────────────
// Ventas
// ──────────────────────────────────────────────────────────────────────────────

func TestRegisterSale_SinAsignacionFallaConPrecondicion(t *testing.T) {
	f := newFixture(t)
	f.setupRun(t, 100, 0)

	_, err := f.sell(vinylLine(5))
	var pre *domain.PreconditionError
	require.True(t, errors.As(err, &pre))
	assert.Contains(t, pre.Message, "R")
	assert.Contains(t, pre.Message, entity.FormatVinyl)
	assert.Contains(t, pre.Message, "D")
}

func TestRegisterSale_SinTiradaFallaConPrecondicion(t *testing.T) {
	f := newFixture(t)
	_, err := f.sell(vinylLine(1))
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)
}

func TestRegisterSale_DescuentaDelDistribuidorYReconcilia(t *testing.T) {
	f := newFixture(t)
	run := f.setupRun(t, 500, 100)

	sale, err := f.sell(vinylLine(30))
	require.NoError(t, err)
	assert.Equal(t, "D", sale.DistributorID)
	assert.Equal(t, "EUR", sale.Currency)
	assert.True(t, decimal.RequireFromString("750").Equal(sale.TotalAmount))

	assert.Equal(t, 70, f.onHand(t, run.ID, "D"))
	assert.Equal(t, 30, f.unitsSold(t, run.ID))
	f.assertConservation(t, run.ID)

	got, err := f.sales.GetSale(context.Background(), sale.ID)
	require.NoError(t, err)
	assert.Len(t, got.LineItems, 1)
}

func TestRegisterSale_SuperaExistenciasDelDistribuidor(t *testing.T) {
	f := newFixture(t)
	run := f.setupRun(t, 500, 20)

	_, err := f.sell(vinylLine(21))
	var insufficient *domain.InsufficientInventoryError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 21, insufficient.Requested)
	assert.Equal(t, 20, insufficient.Available)
	assert.Equal(t, 20, f.onHand(t, run.ID, "D"))
}

func TestRegisterSale_LineasDeLaMismaTiradaSeAcumulan(t *testing.T) {
	f := newFixture(t)
	run := f.setupRun(t, 100, 10)

	_, err := f.sell(vinylLine(6), vinylLine(6))
	var insufficient *domain.InsufficientInventoryError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 4, insufficient.Available)
	assert.Equal(t, 10, f.onHand(t, run.ID, "D"))
}

func TestRegisterSale_FalloEnUnaLineaNoPersisteNada(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	run := f.setupRun(t, 100, 50)

	bad := vinylLine(1)
	bad.ReleaseID = "R2" // sin tirada
	_, err := f.sell(vinylLine(10), bad)
	require.ErrorIs(t, err, domain.ErrPreconditionFailed)

	assert.Equal(t, 50, f.onHand(t, run.ID, "D"))
	list, err := f.sales.SalesForLabel(ctx, "L1")
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Zero(t, f.unitsSold(t, run.ID))
}

func TestRegisterSale_ReglasDeDistribuidorYCanal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.setupRun(t, 100, 50)

	_, err := f.sales.RegisterSale(ctx, sales.RegisterSaleInput{
		LabelID: "L1", DistributorID: "DX", Channel: entity.ChannelDistributor, LineItems: []sales.SaleLineInput{vinylLine(1)},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound, "distribuidor de otro sello")

	_, err = f.sales.RegisterSale(ctx, sales.RegisterSaleInput{
		LabelID: "L1", DistributorID: "D", Channel: entity.ChannelRetail, LineItems: []sales.SaleLineInput{vinylLine(1)},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "canal distinto al del distribuidor")

	_, err = f.sales.RegisterSale(ctx, sales.RegisterSaleInput{
		LabelID: "L1", Channel: entity.ChannelEvent, LineItems: []sales.SaleLineInput{vinylLine(1)},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound, "sin distribuidor para el canal")

	foreign := vinylLine(1)
	foreign.ReleaseID = "RX"
	_, err = f.sell(foreign)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "lanzamiento de otro sello")
}

func TestRegisterSale_MonedaUnica(t *testing.T) {
	f := newFixture(t)
	f.setupRun(t, 100, 50)
	usd := vinylLine(1)
	usd.Currency = "USD"

	_, err := f.sell(vinylLine(1), usd)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpdateSale_LiberaAntesDeValidar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	run := f.setupRun(t, 500, 80)

	sale, err := f.sell(vinylLine(10))
	require.NoError(t, err)
	assert.Equal(t, 70, f.onHand(t, run.ID, "D"))

	// 75 > 70 en mano, pero las 10 de la propia venta vuelven antes de validar.
	updated, err := f.sales.UpdateSale(ctx, sale.ID, sales.UpdateSaleInput{LineItems: []sales.SaleLineInput{vinylLine(75)}})
	require.NoError(t, err)
	assert.Equal(t, 75, updated.LineItems[0].Quantity)
	assert.Equal(t, 5, f.onHand(t, run.ID, "D"))
	assert.Equal(t, 75, f.unitsSold(t, run.ID))
	f.assertConservation(t, run.ID)

	_, err = f.sales.UpdateSale(ctx, sale.ID, sales.UpdateSaleInput{LineItems: []sales.SaleLineInput{vinylLine(81)}})
	assert.ErrorIs(t, err, domain.ErrInsufficientInventory)
	assert.Equal(t, 5, f.onHand(t, run.ID, "D"), "la edición fallida no deja rastro")
}

func TestUpdateSale_MismaEntradaEsIdempotente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	run := f.setupRun(t, 100, 40)

	sale, err := f.sell(vinylLine(15))
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = f.sales.UpdateSale(ctx, sale.ID, sales.UpdateSaleInput{LineItems: []sales.SaleLineInput{vinylLine(15)}})
		require.NoError(t, err)
	}
	assert.Equal(t, 25, f.onHand(t, run.ID, "D"))

	moves, err := f.queries.MovementsForProductionRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Len(t, moves, 2, "una asignación y una venta")
}

func TestUpdateSale_NoCambiaLaMoneda(t *testing.T) {
	f := newFixture(t)
	f.setupRun(t, 100, 40)
	sale, err := f.sell(vinylLine(1))
	require.NoError(t, err)

	usd := vinylLine(1)
	usd.Currency = "USD"
	_, err = f.sales.UpdateSale(context.Background(), sale.ID, sales.UpdateSaleInput{LineItems: []sales.SaleLineInput{usd}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// La edición resuelve de nuevo la tirada vigente de cada línea: si después de la venta se
// fabricó otra tirada del mismo formato, la venta editada pasa a descontar de esa.
func TestUpdateSale_ResuelveLaTiradaVigente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	old, err := f.runs.Create(ctx, inventory.CreateProductionRunInput{
		ReleaseID: "R", Format: entity.FormatVinyl, Quantity: 100,
		ManufacturingDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	_, err = f.allocations.CreateAllocation(ctx, inventory.CreateAllocationInput{
		ProductionRunID: old.ID, DistributorID: "D", Quantity: 40,
	})
	require.NoError(t, err)
	sale, err := f.sell(vinylLine(10))
	require.NoError(t, err)

	newer, err := f.runs.Create(ctx, inventory.CreateProductionRunInput{
		ReleaseID: "R", Format: entity.FormatVinyl, Quantity: 100,
		ManufacturingDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	_, err = f.sales.UpdateSale(ctx, sale.ID, sales.UpdateSaleInput{LineItems: []sales.SaleLineInput{vinylLine(10)}})
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)
	assert.Equal(t, 30, f.onHand(t, old.ID, "D"), "la edición rechazada no toca la tirada anterior")
	assert.Equal(t, 10, f.unitsSold(t, old.ID))

	_, err = f.allocations.CreateAllocation(ctx, inventory.CreateAllocationInput{
		ProductionRunID: newer.ID, DistributorID: "D", Quantity: 20,
	})
	require.NoError(t, err)
	_, err = f.sales.UpdateSale(ctx, sale.ID, sales.UpdateSaleInput{LineItems: []sales.SaleLineInput{vinylLine(10)}})
	require.NoError(t, err)
	assert.Equal(t, 40, f.onHand(t, old.ID, "D"))
	assert.Equal(t, 10, f.onHand(t, newer.ID, "D"))
	assert.Zero(t, f.unitsSold(t, old.ID))
	assert.Equal(t, 10, f.unitsSold(t, newer.ID))
	f.assertConservation(t, old.ID)
	f.assertConservation(t, newer.ID)
}

func TestUpdateSale_CambioDeFormatoReconciliaAmbasTiradas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	vinyl := f.setupRun(t, 100, 50)
	cd, err := f.runs.Create(ctx, inventory.CreateProductionRunInput{ReleaseID: "R", Format: entity.FormatCD, Quantity: 100})
	require.NoError(t, err)
	_, err = f.allocations.CreateAllocation(ctx, inventory.CreateAllocationInput{
		ProductionRunID: cd.ID, DistributorID: "D", Quantity: 50,
	})
	require.NoError(t, err)

	sale, err := f.sell(vinylLine(10))
	require.NoError(t, err)

	cdLine := vinylLine(10)
	cdLine.Format = entity.FormatCD
	_, err = f.sales.UpdateSale(ctx, sale.ID, sales.UpdateSaleInput{LineItems: []sales.SaleLineInput{cdLine}})
	require.NoError(t, err)

	assert.Equal(t, 50, f.onHand(t, vinyl.ID, "D"))
	assert.Zero(t, f.unitsSold(t, vinyl.ID))
	assert.Equal(t, 40, f.onHand(t, cd.ID, "D"))
	assert.Equal(t, 10, f.unitsSold(t, cd.ID))
}

func TestDeleteSale_RestauraExistenciasYContador(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	run := f.setupRun(t, 100, 40)
	sale, err := f.sell(vinylLine(12))
	require.NoError(t, err)

	require.NoError(t, f.sales.DeleteSale(ctx, sale.ID))
	assert.Equal(t, 40, f.onHand(t, run.ID, "D"))
	assert.Zero(t, f.unitsSold(t, run.ID))
	f.assertConservation(t, run.ID)

	assert.ErrorIs(t, f.sales.DeleteSale(ctx, sale.ID), domain.ErrNotFound)
	_, err = f.sales.GetSale(ctx, sale.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTotalRevenue_PorMoneda(t *testing.T) {
	f := newFixture(t)
	f.setupRun(t, 100, 40)
	_, err := f.sell(vinylLine(2))
	require.NoError(t, err)
	_, err = f.sell(vinylLine(1))
	require.NoError(t, err)

	totals, err := f.sales.TotalRevenueForLabel(context.Background(), "L1")
	require.NoError(t, err)
	require.Contains(t, totals, "EUR")
	assert.True(t, decimal.RequireFromString("75").Equal(totals["EUR"]))
}

// ──────────────────────────────────────────────────────────────────────────────
// Devoluciones
// ──────────────────────────────────────────────────────────────────────────────

func returnLine(qty int) sales.ReturnLineInput {
	return sales.ReturnLineInput{ReleaseID: "R", Format: entity.FormatVinyl, Quantity: qty}
}

func (f *fixture) giveBack(qty int) (*entity.DistributorReturn, error) {
	return f.returns.RegisterReturn(context.Background(), sales.RegisterReturnInput{
		LabelID: "L1", DistributorID: "D", LineItems: []sales.ReturnLineInput{returnLine(qty)},
	})
}

func TestRegisterReturn_LimitadoPorExistencias(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	run := f.setupRun(t, 500, 50)

	_, err := f.giveBack(60)
	var insufficient *domain.InsufficientInventoryError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 60, insufficient.Requested)
	assert.Equal(t, 50, insufficient.Available)

	ret, err := f.giveBack(20)
	require.NoError(t, err)
	assert.Equal(t, 30, f.onHand(t, run.ID, "D"))
	f.assertConservation(t, run.ID)

	physical, err := f.queries.WarehouseOnHand(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 470, physical)

	s, err := f.queries.Summary(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, s.Returned)
	assert.Equal(t, 50, s.Allocated, "la devolución no reduce lo asignado")

	require.NoError(t, f.returns.DeleteReturn(ctx, ret.ID))
	assert.Equal(t, 50, f.onHand(t, run.ID, "D"))
}

func TestRegisterReturn_DistribuidorDebeSerDelSello(t *testing.T) {
	f := newFixture(t)
	f.setupRun(t, 100, 10)
	_, err := f.returns.RegisterReturn(context.Background(), sales.RegisterReturnInput{
		LabelID: "L1", DistributorID: "DX", LineItems: []sales.ReturnLineInput{returnLine(1)},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateReturn_RevalidaContraExistenciasRestauradas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	run := f.setupRun(t, 100, 30)
	ret, err := f.giveBack(10)
	require.NoError(t, err)

	require.NoError(t, f.returns.UpdateReturn(ctx, ret.ID, sales.UpdateReturnInput{LineItems: []sales.ReturnLineInput{returnLine(30)}}))
	assert.Zero(t, f.onHand(t, run.ID, "D"))

	err = f.returns.UpdateReturn(ctx, ret.ID, sales.UpdateReturnInput{LineItems: []sales.ReturnLineInput{returnLine(31)}})
	assert.ErrorIs(t, err, domain.ErrInsufficientInventory)
	assert.Zero(t, f.onHand(t, run.ID, "D"))

	list, err := f.returns.ReturnsForDistributor(ctx, "D")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 30, list[0].LineItems[0].Quantity)
}

func TestSaleAndReturn_SecuenciaMixtaConservaUnidades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	run := f.setupRun(t, 200, 60)
	_, err := f.allocations.CreateAllocation(ctx, inventory.CreateAllocationInput{ProductionRunID: run.ID, DistributorID: "S", Quantity: 40})
	require.NoError(t, err)

	_, err = f.sell(vinylLine(25))
	require.NoError(t, err)
	_, err = f.sales.RegisterSale(ctx, sales.RegisterSaleInput{
		LabelID: "L1", Channel: entity.ChannelRecordStore, LineItems: []sales.SaleLineInput{vinylLine(15)},
	})
	require.NoError(t, err)
	_, err = f.giveBack(10)
	require.NoError(t, err)

	assert.Equal(t, 25, f.onHand(t, run.ID, "D"))
	assert.Equal(t, 25, f.onHand(t, run.ID, "S"))
	f.assertConservation(t, run.ID)

	s, err := f.queries.Summary(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, s.SoldExternally)
	assert.Equal(t, 110, s.WarehouseOnHand)
}
