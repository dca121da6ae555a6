package main

import (
	"context"
	"os"
	"sync"

	"golang.org/x/text/language"

	"github.com/omt-labs/labelledger/internal/application/inventory"
	"github.com/omt-labs/labelledger/internal/bootstrap"
	infrapdf "github.com/omt-labs/labelledger/internal/infrastructure/pdf"
	"github.com/omt-labs/labelledger/pkg/config"
	"github.com/omt-labs/labelledger/pkg/logger"
)

// services casos de uso que usan los comandos.
type services struct {
	runs        *inventory.ProductionRunUseCase
	allocations *inventory.AllocationUseCase
	queries     *inventory.QueryUseCase
	reconcile   *inventory.ReconcileUseCase
	statements  *inventory.StatementUseCase
	store       *bootstrap.Store
}

type commandContext struct {
	jsonOutput bool

	once sync.Once
	svc  *services
	err  error
	// open se reemplaza en pruebas.
	open func(ctx context.Context) (*services, error)
}

func newCommandContext() *commandContext {
	c := &commandContext{}
	c.open = c.openFromConfig
	return c
}

// ensureServices abre el almacén una sola vez por invocación.
func (c *commandContext) ensureServices(ctx context.Context) (*services, error) {
	c.once.Do(func() {
		c.svc, c.err = c.open(ctx)
	})
	return c.svc, c.err
}

func (c *commandContext) close() {
	if c.svc != nil && c.svc.store != nil {
		c.svc.store.Close()
	}
}

func (c *commandContext) openFromConfig(ctx context.Context) (*services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	// La salida estándar queda para tablas y JSON.
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Output: os.Stderr})
	store, err := bootstrap.Open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	svc := newServices(store.TxRunner, log)
	svc.store = store
	return svc, nil
}

func newServices(txRunner inventory.TxRunner, log *logger.Logger) *services {
	return &services{
		runs:        inventory.NewProductionRunUseCase(txRunner, log.Component("production_runs")),
		allocations: inventory.NewAllocationUseCase(txRunner, log.Component("allocations")),
		queries:     inventory.NewQueryUseCase(txRunner),
		reconcile:   inventory.NewReconcileUseCase(txRunner, log.Component("reconcile")),
		statements: inventory.NewStatementUseCase(txRunner,
			infrapdf.NewMarotoStatementGenerator(language.Spanish), log.Component("statements")),
	}
}
