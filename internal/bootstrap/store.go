// Package bootstrap abre el almacén configurado (PostgreSQL o memoria) y siembra el catálogo.
// Lo comparten la API y ledgerctl.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/omt-labs/labelledger/internal/application/inventory"
	"github.com/omt-labs/labelledger/internal/domain/entity"
	"github.com/omt-labs/labelledger/internal/infrastructure/memory"
	"github.com/omt-labs/labelledger/internal/infrastructure/postgres"
	"github.com/omt-labs/labelledger/pkg/config"
	"github.com/omt-labs/labelledger/pkg/logger"
)

// Store almacén abierto.
type Store struct {
	TxRunner inventory.TxRunner
	pool     *pgxpool.Pool
	mem      *memory.Store
}

// Memory envuelve un almacén en memoria ya creado.
func Memory(mem *memory.Store) *Store {
	return &Store{TxRunner: mem, mem: mem}
}

// Close libera el pool (si lo hay).
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Open abre el almacén según LEDGER_STORE y, si CATALOG_FILE está definido, siembra el catálogo.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Store, error) {
	var s *Store
	switch cfg.Ledger.Store {
	case config.StoreMemory:
		s = Memory(memory.NewStore())
		log.Warn().Msg("almacén en memoria: los datos se pierden al reiniciar")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		s = &Store{TxRunner: postgres.NewTxRunner(pool), pool: pool}
	}

	if cfg.Ledger.CatalogFile == "" {
		return s, nil
	}
	cat, err := config.LoadCatalog(cfg.Ledger.CatalogFile)
	if err != nil {
		s.Close()
		return nil, err
	}
	if err := s.Seed(ctx, cat); err != nil {
		s.Close()
		return nil, err
	}
	log.Info().
		Str("file", cfg.Ledger.CatalogFile).
		Int("labels", len(cat.Labels)).
		Int("releases", len(cat.Releases)).
		Int("distributors", len(cat.Distributors)).
		Msg("catálogo sembrado")
	return s, nil
}

// Seed carga el catálogo en el almacén. En PostgreSQL es un upsert dentro de una transacción.
func (s *Store) Seed(ctx context.Context, cat *config.Catalog) error {
	labels, releases, distributors := catalogEntities(cat)
	if s.mem != nil {
		for _, l := range labels {
			s.mem.AddLabel(l)
		}
		for _, r := range releases {
			s.mem.AddRelease(r)
		}
		for _, d := range distributors {
			s.mem.AddDistributor(d)
		}
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := postgres.SeedCatalog(ctx, tx, labels, releases, distributors); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func catalogEntities(cat *config.Catalog) ([]entity.Label, []entity.Release, []entity.Distributor) {
	labels := make([]entity.Label, 0, len(cat.Labels))
	for _, l := range cat.Labels {
		labels = append(labels, entity.Label{ID: l.ID, Name: l.Name})
	}
	releases := make([]entity.Release, 0, len(cat.Releases))
	for _, r := range cat.Releases {
		releases = append(releases, entity.Release{ID: r.ID, LabelID: r.LabelID, Name: r.Name})
	}
	distributors := make([]entity.Distributor, 0, len(cat.Distributors))
	for _, d := range cat.Distributors {
		distributors = append(distributors, entity.Distributor{
			ID: d.ID, LabelID: d.LabelID, Name: d.Name, ChannelType: d.ChannelType,
		})
	}
	return labels, releases, distributors
}
