package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"golang.org/x/text/language"

	"github.com/omt-labs/labelledger/internal/application/inventory"
	"github.com/omt-labs/labelledger/internal/application/sales"
	"github.com/omt-labs/labelledger/internal/bootstrap"
	infrapdf "github.com/omt-labs/labelledger/internal/infrastructure/pdf"
	httpRouter "github.com/omt-labs/labelledger/internal/interfaces/http"
	"github.com/omt-labs/labelledger/pkg/config"
	"github.com/omt-labs/labelledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Ledger.Store).
		Msg("iniciando aplicación")

	ctx := context.Background()
	store, err := bootstrap.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacén")
	}
	defer store.Close()

	txRunner := store.TxRunner
	productionRunUC := inventory.NewProductionRunUseCase(txRunner, log.Component("production_runs"))
	allocationUC := inventory.NewAllocationUseCase(txRunner, log.Component("allocations"))
	queryUC := inventory.NewQueryUseCase(txRunner)
	saleUC := sales.NewSaleUseCase(txRunner, log.Component("sales"))
	returnUC := sales.NewReturnUseCase(txRunner, log.Component("returns"))

	// PDF: estado imprimible de la tirada
	pdfGenerator := infrapdf.NewMarotoStatementGenerator(language.Spanish)
	statementUC := inventory.NewStatementUseCase(txRunner, pdfGenerator, log.Component("statements"))

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		ProductionRuns: productionRunUC,
		Allocations:    allocationUC,
		Queries:        queryUC,
		Statements:     statementUC,
		Sales:          saleUC,
		Returns:        returnUC,
		Log:            log.Component("http"),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
