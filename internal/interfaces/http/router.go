package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/omt-labs/labelledger/internal/application/inventory"
	"github.com/omt-labs/labelledger/internal/application/sales"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ProductionRuns *inventory.ProductionRunUseCase
	Allocations    *inventory.AllocationUseCase
	Queries        *inventory.QueryUseCase
	Statements     *inventory.StatementUseCase
	Sales          *sales.SaleUseCase
	Returns        *sales.ReturnUseCase
	Log            zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	ledger := NewLedgerHandler(deps.ProductionRuns, deps.Allocations, deps.Queries, deps.Statements, deps.Log)
	salesHandler := NewSalesHandler(deps.Sales, deps.Returns, deps.Log)

	// Tiradas de producción
	runs := api.Group("/production-runs")
	runs.Post("/", ledger.CreateProductionRun)
	runs.Get("/:id", ledger.GetProductionRun)
	runs.Delete("/:id", ledger.DeleteProductionRun)
	runs.Get("/:id/allocations", ledger.ListAllocations)
	runs.Post("/:id/allocations", ledger.CreateAllocation)
	runs.Get("/:id/inventory", ledger.GetInventory)
	runs.Get("/:id/movements", ledger.ListMovements)
	runs.Get("/:id/summary", ledger.GetSummary)
	runs.Get("/:id/statement.pdf", ledger.GetStatementPDF)

	api.Get("/releases/:id/production-runs", ledger.ListProductionRunsByRelease)
	api.Get("/releases/:id/production-runs/latest", ledger.LatestProductionRun)

	// Ventas
	salesGroup := api.Group("/sales")
	salesGroup.Post("/", salesHandler.RegisterSale)
	salesGroup.Get("/:id", salesHandler.GetSale)
	salesGroup.Put("/:id", salesHandler.UpdateSale)
	salesGroup.Delete("/:id", salesHandler.DeleteSale)

	// Devoluciones
	returns := api.Group("/returns")
	returns.Post("/", salesHandler.RegisterReturn)
	returns.Get("/:id", salesHandler.GetReturn)
	returns.Put("/:id", salesHandler.UpdateReturn)
	returns.Delete("/:id", salesHandler.DeleteReturn)

	labels := api.Group("/labels")
	labels.Get("/:id/sales", salesHandler.ListSalesByLabel)
	labels.Get("/:id/revenue", salesHandler.GetRevenue)
	labels.Get("/:id/returns", salesHandler.ListReturnsByLabel)

	api.Get("/distributors/:id/returns", salesHandler.ListReturnsByDistributor)
}
