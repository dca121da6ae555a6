package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/omt-labs/labelledger/internal/domain/entity"
	"github.com/omt-labs/labelledger/internal/domain/repository"
)

var _ repository.CatalogRepository = (*CatalogRepo)(nil)

// CatalogRepo lectura de sellos, lanzamientos y distribuidores.
type CatalogRepo struct {
	q Querier
}

// NewCatalogRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCatalogRepository(q Querier) *CatalogRepo {
	return &CatalogRepo{q: q}
}

func (r *CatalogRepo) GetLabel(ctx context.Context, id string) (*entity.Label, error) {
	var l entity.Label
	err := r.q.QueryRow(ctx, `SELECT id, name FROM labels WHERE id = $1`, id).Scan(&l.ID, &l.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get label: %w", err)
	}
	return &l, nil
}

func (r *CatalogRepo) GetRelease(ctx context.Context, id string) (*entity.Release, error) {
	var rel entity.Release
	err := r.q.QueryRow(ctx, `SELECT id, label_id, name FROM releases WHERE id = $1`, id).
		Scan(&rel.ID, &rel.LabelID, &rel.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get release: %w", err)
	}
	return &rel, nil
}

func (r *CatalogRepo) GetDistributor(ctx context.Context, id string) (*entity.Distributor, error) {
	return r.getDistributor(ctx, `SELECT id, label_id, name, channel_type FROM distributors WHERE id = $1`, id)
}

// FindDistributorByChannel con varios candidatos elige el de menor ID.
func (r *CatalogRepo) FindDistributorByChannel(ctx context.Context, labelID, channel string) (*entity.Distributor, error) {
	return r.getDistributor(ctx, `
		SELECT id, label_id, name, channel_type FROM distributors
		WHERE label_id = $1 AND channel_type = $2
		ORDER BY id LIMIT 1`, labelID, channel)
}

func (r *CatalogRepo) getDistributor(ctx context.Context, query string, args ...any) (*entity.Distributor, error) {
	var d entity.Distributor
	err := r.q.QueryRow(ctx, query, args...).Scan(&d.ID, &d.LabelID, &d.Name, &d.ChannelType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get distributor: %w", err)
	}
	return &d, nil
}

// SeedCatalog inserta o actualiza registros del catálogo (arranque demo y pruebas de integración).
func SeedCatalog(ctx context.Context, q Querier, labels []entity.Label, releases []entity.Release, distributors []entity.Distributor) error {
	for _, l := range labels {
		if _, err := q.Exec(ctx, `
			INSERT INTO labels (id, name) VALUES ($1, $2)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`, l.ID, l.Name); err != nil {
			return fmt.Errorf("seed label %s: %w", l.ID, err)
		}
	}
	for _, rel := range releases {
		if _, err := q.Exec(ctx, `
			INSERT INTO releases (id, label_id, name) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET label_id = EXCLUDED.label_id, name = EXCLUDED.name`,
			rel.ID, rel.LabelID, rel.Name); err != nil {
			return fmt.Errorf("seed release %s: %w", rel.ID, err)
		}
	}
	for _, d := range distributors {
		if _, err := q.Exec(ctx, `
			INSERT INTO distributors (id, label_id, name, channel_type) VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE SET label_id = EXCLUDED.label_id, name = EXCLUDED.name, channel_type = EXCLUDED.channel_type`,
			d.ID, d.LabelID, d.Name, d.ChannelType); err != nil {
			return fmt.Errorf("seed distributor %s: %w", d.ID, err)
		}
	}
	return nil
}
