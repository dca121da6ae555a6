//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"golang.org/x/sync/errgroup"

	"github.com/omt-labs/labelledger/internal/application/inventory"
	"github.com/omt-labs/labelledger/internal/application/sales"
	"github.com/omt-labs/labelledger/internal/domain"
	"github.com/omt-labs/labelledger/internal/domain/entity"
	"github.com/omt-labs/labelledger/internal/infrastructure/postgres"
	"github.com/omt-labs/labelledger/pkg/config"
)

func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		tcPostgres.WithDatabase("labelledger_test"),
		tcPostgres.WithUsername("ledger"),
		tcPostgres.WithPassword("ledger"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	url, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: url, MaxConns: 10, Migrate: true, LockTimeout: 30 * time.Second})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	var lockTimeout, appName string
	require.NoError(t, pool.QueryRow(ctx, `SHOW lock_timeout`).Scan(&lockTimeout))
	require.NoError(t, pool.QueryRow(ctx, `SHOW application_name`).Scan(&appName))
	require.Equal(t, "30s", lockTimeout)
	require.Equal(t, "labelledger", appName)

	// Migrate es idempotente.
	require.NoError(t, postgres.Migrate(ctx, pool))

	require.NoError(t, postgres.SeedCatalog(ctx, pool,
		[]entity.Label{{ID: "L1", Name: "Sello"}},
		[]entity.Release{{ID: "R1", LabelID: "L1", Name: "LP"}},
		[]entity.Distributor{
			{ID: "D1", LabelID: "L1", Name: "Distri", ChannelType: entity.ChannelDistributor},
			{ID: "D2", LabelID: "L1", Name: "Tienda", ChannelType: entity.ChannelRetail},
		},
	))
	return pool
}

func TestPostgres_FlujoCompleto(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	tx := postgres.NewTxRunner(pool)
	log := zerolog.Nop()

	runs := inventory.NewProductionRunUseCase(tx, log)
	allocations := inventory.NewAllocationUseCase(tx, log)
	queries := inventory.NewQueryUseCase(tx)
	saleUC := sales.NewSaleUseCase(tx, log)
	returnUC := sales.NewReturnUseCase(tx, log)

	run, err := runs.Create(ctx, inventory.CreateProductionRunInput{ReleaseID: "R1", Format: entity.FormatVinyl, Quantity: 500})
	require.NoError(t, err)

	_, err = allocations.CreateAllocation(ctx, inventory.CreateAllocationInput{ProductionRunID: run.ID, DistributorID: "D1", Quantity: 400})
	require.NoError(t, err)
	_, err = allocations.CreateAllocation(ctx, inventory.CreateAllocationInput{ProductionRunID: run.ID, DistributorID: "D2", Quantity: 200})
	var insufficient *domain.InsufficientInventoryError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 100, insufficient.Available)

	sale, err := saleUC.RegisterSale(ctx, sales.RegisterSaleInput{
		LabelID: "L1", Channel: entity.ChannelDistributor,
		LineItems: []sales.SaleLineInput{{
			ReleaseID: "R1", Format: entity.FormatVinyl, Quantity: 80,
			UnitPrice: decimal.RequireFromString("19.50"), Currency: "USD",
		}},
	})
	require.NoError(t, err)

	got, err := saleUC.GetSale(ctx, sale.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1560").Equal(got.TotalAmount))
	require.Len(t, got.LineItems, 1)

	_, err = returnUC.RegisterReturn(ctx, sales.RegisterReturnInput{
		LabelID: "L1", DistributorID: "D1",
		LineItems: []sales.ReturnLineInput{{ReleaseID: "R1", Format: entity.FormatVinyl, Quantity: 20}},
	})
	require.NoError(t, err)

	onHand, err := queries.CurrentInventory(ctx, run.ID, entity.DistributorLocation("D1"))
	require.NoError(t, err)
	assert.Equal(t, 300, onHand)

	s, err := queries.Summary(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 120, s.WarehouseOnHand)
	assert.Equal(t, 80, s.SoldExternally)
	assert.Equal(t, 20, s.Returned)

	list, err := allocations.GetAllocationsForProductionRun(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 80, list[0].UnitsSold)

	totals, err := saleUC.TotalRevenueForLabel(ctx, "L1")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1560").Equal(totals["USD"]))

	require.NoError(t, saleUC.DeleteSale(ctx, sale.ID))
	list, err = allocations.GetAllocationsForProductionRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Zero(t, list[0].UnitsSold)

	err = runs.Delete(ctx, run.ID)
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)
}

func TestPostgres_AsignacionesConcurrentesRespetanElTecho(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	tx := postgres.NewTxRunner(pool)
	log := zerolog.Nop()

	run, err := inventory.NewProductionRunUseCase(tx, log).Create(ctx,
		inventory.CreateProductionRunInput{ReleaseID: "R1", Format: entity.FormatCD, Quantity: 100})
	require.NoError(t, err)
	allocations := inventory.NewAllocationUseCase(tx, log)

	var ok atomic.Int32
	var g errgroup.Group
	for i := 0; i < 20; i++ {
		g.Go(func() error {
			_, err := allocations.CreateAllocation(ctx, inventory.CreateAllocationInput{
				ProductionRunID: run.ID, DistributorID: "D1", Quantity: 10,
			})
			if err == nil {
				ok.Add(1)
				return nil
			}
			if errors.Is(err, domain.ErrInsufficientInventory) {
				return nil
			}
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.EqualValues(t, 10, ok.Load())
	total, err := allocations.GetTotalAllocated(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, total)

	wh, err := inventory.NewQueryUseCase(tx).WarehouseInventory(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, -100, wh)
}

func TestPostgres_EdicionesConcurrentesDeUnaVentaMantienenContadores(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	tx := postgres.NewTxRunner(pool)
	log := zerolog.Nop()

	runs := inventory.NewProductionRunUseCase(tx, log)
	allocations := inventory.NewAllocationUseCase(tx, log)
	queries := inventory.NewQueryUseCase(tx)
	saleUC := sales.NewSaleUseCase(tx, log)

	byFormat := map[string]string{}
	for _, format := range []string{entity.FormatVinyl, entity.FormatCD} {
		run, err := runs.Create(ctx, inventory.CreateProductionRunInput{ReleaseID: "R1", Format: format, Quantity: 100})
		require.NoError(t, err)
		_, err = allocations.CreateAllocation(ctx, inventory.CreateAllocationInput{ProductionRunID: run.ID, DistributorID: "D1", Quantity: 50})
		require.NoError(t, err)
		byFormat[format] = run.ID
	}

	line := func(format string) sales.SaleLineInput {
		return sales.SaleLineInput{
			ReleaseID: "R1", Format: format, Quantity: 10,
			UnitPrice: decimal.RequireFromString("10"), Currency: "USD",
		}
	}
	sale, err := saleUC.RegisterSale(ctx, sales.RegisterSaleInput{
		LabelID: "L1", Channel: entity.ChannelDistributor, LineItems: []sales.SaleLineInput{line(entity.FormatVinyl)},
	})
	require.NoError(t, err)

	// Cada edición mueve la venta de una tirada a la otra.
	var g errgroup.Group
	for i := 0; i < 16; i++ {
		format := entity.FormatVinyl
		if i%2 == 0 {
			format = entity.FormatCD
		}
		g.Go(func() error {
			_, err := saleUC.UpdateSale(ctx, sale.ID, sales.UpdateSaleInput{LineItems: []sales.SaleLineInput{line(format)}})
			return err
		})
	}
	require.NoError(t, g.Wait())

	totalSold := 0
	for _, runID := range byFormat {
		s, err := queries.Summary(ctx, runID)
		require.NoError(t, err)
		list, err := allocations.GetAllocationsForProductionRun(ctx, runID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, s.SoldExternally, list[0].UnitsSold, "contador de la tirada %s", runID)

		onHand, err := queries.CurrentInventory(ctx, runID, entity.DistributorLocation("D1"))
		require.NoError(t, err)
		assert.Equal(t, 50, onHand+s.SoldExternally)
		totalSold += s.SoldExternally
	}
	assert.Equal(t, 10, totalSold, "la venta vive en una sola tirada")
}

func TestPostgres_TiradaBloqueadaDevuelveConflicto(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	log := zerolog.Nop()

	run, err := inventory.NewProductionRunUseCase(postgres.NewTxRunner(pool), log).Create(ctx,
		inventory.CreateProductionRunInput{ReleaseID: "R1", Format: entity.FormatCassette, Quantity: 10})
	require.NoError(t, err)

	impatient, err := postgres.NewPool(ctx, config.DBConfig{
		DatabaseURL: pool.Config().ConnConfig.ConnString(), MaxConns: 2, LockTimeout: 100 * time.Millisecond,
	})
	require.NoError(t, err)
	t.Cleanup(impatient.Close)

	holder, err := pool.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = holder.Rollback(ctx) }()
	_, err = holder.Exec(ctx, `SELECT id FROM production_runs WHERE id = $1 FOR UPDATE`, run.ID)
	require.NoError(t, err)

	_, err = inventory.NewAllocationUseCase(postgres.NewTxRunner(impatient), log).CreateAllocation(ctx,
		inventory.CreateAllocationInput{ProductionRunID: run.ID, DistributorID: "D1", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrConflict)
}
