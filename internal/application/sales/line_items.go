package sales

import (
	"context"

	"github.com/omt-labs/labelledger/internal/application/inventory"
	"github.com/omt-labs/labelledger/internal/domain"
	"github.com/omt-labs/labelledger/internal/domain/entity"
)

// lineRef datos de una línea necesarios para tocar el libro.
type lineRef struct {
	ReleaseID string
	Format    string
	Quantity  int
}

// resolvedLine línea con su tirada vigente ya resuelta.
type resolvedLine struct {
	lineRef
	RunID string
}

// resolveLines valida que cada lanzamiento exista y sea del sello, y busca la tirada más
// reciente para (lanzamiento, formato). No bloquea nada.
func resolveLines(ctx context.Context, repos inventory.Repositories, labelID string, lines []lineRef) ([]resolvedLine, error) {
	out := make([]resolvedLine, 0, len(lines))
	for _, l := range lines {
		release, err := repos.Catalog.GetRelease(ctx, l.ReleaseID)
		if err != nil {
			return nil, err
		}
		if release == nil {
			return nil, domain.NotFoundf("lanzamiento %s", l.ReleaseID)
		}
		if release.LabelID != labelID {
			return nil, domain.InvalidInputf("el lanzamiento %s no pertenece al sello %s", l.ReleaseID, labelID)
		}
		run, err := repos.ProductionRuns.FindMostRecent(ctx, l.ReleaseID, l.Format)
		if err != nil {
			return nil, err
		}
		if run == nil {
			return nil, domain.Preconditionf("no hay tirada de producción para el lanzamiento %s en formato %s", l.ReleaseID, l.Format)
		}
		out = append(out, resolvedLine{lineRef: l, RunID: run.ID})
	}
	return out, nil
}

// claimLines valida cada línea contra lo que tiene el distribuidor, descontando lo que ya
// reclamaron las líneas anteriores de la misma operación para la misma tirada.
// Las tiradas deben estar bloqueadas.
func claimLines(ctx context.Context, repos inventory.Repositories, lines []resolvedLine, distributorID string, requireAllocation bool) error {
	ledger := inventory.NewLedger(repos.Movements)
	pending := make(map[string]int)
	for _, l := range lines {
		if requireAllocation {
			ok, err := repos.Allocations.ExistsFor(ctx, l.RunID, distributorID)
			if err != nil {
				return err
			}
			if !ok {
				return domain.Preconditionf(
					"no hay asignación del lanzamiento %s en formato %s al distribuidor %s; asigne unidades antes de vender",
					l.ReleaseID, l.Format, distributorID)
			}
		}
		onHand, err := ledger.CurrentInventory(ctx, l.RunID, entity.DistributorLocation(distributorID))
		if err != nil {
			return err
		}
		available := onHand - pending[l.RunID]
		if l.Quantity > available {
			return &domain.InsufficientInventoryError{Requested: l.Quantity, Available: available}
		}
		pending[l.RunID] += l.Quantity
	}
	return nil
}

// runIDs tiradas de las líneas más las de movimientos previos de la misma referencia.
func runIDs(lines []resolvedLine, previous []*entity.Movement) []string {
	ids := make([]string, 0, len(lines)+len(previous))
	for _, l := range lines {
		ids = append(ids, l.RunID)
	}
	for _, m := range previous {
		ids = append(ids, m.ProductionRunID)
	}
	return ids
}

func validateLineRefs(lines []lineRef) error {
	if len(lines) == 0 {
		return domain.InvalidInputf("se requiere al menos una línea")
	}
	for i, l := range lines {
		if l.ReleaseID == "" {
			return domain.InvalidInputf("línea %d: release_id es obligatorio", i+1)
		}
		if !entity.ValidFormat(l.Format) {
			return domain.InvalidInputf("línea %d: formato desconocido %q", i+1, l.Format)
		}
		if l.Quantity <= 0 {
			return domain.InvalidInputf("línea %d: la cantidad debe ser positiva", i+1)
		}
	}
	return nil
}
