package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/omt-labs/labelledger/internal/domain"
	"github.com/omt-labs/labelledger/internal/domain/entity"
	"github.com/omt-labs/labelledger/internal/domain/repository"
)

// Ledger deriva cantidades por ubicación a partir del libro de movimientos.
// Siempre agrega en el momento; no hay caché. Se construye con repos atados a la tx en curso.
type Ledger struct {
	movements repository.MovementRepository
}

// NewLedger construye el motor sobre el repositorio de movimientos.
func NewLedger(movements repository.MovementRepository) *Ledger {
	return &Ledger{movements: movements}
}

// CurrentInventory = Σ(to == loc) − Σ(from == loc). Sin movimientos devuelve 0.
func (l *Ledger) CurrentInventory(ctx context.Context, productionRunID string, loc entity.Location) (int, error) {
	in, out, err := l.movements.SumByProductionRunAndLocation(ctx, productionRunID, loc)
	if err != nil {
		return 0, err
	}
	return in - out, nil
}

// WarehouseInventory saldo neto de la bodega en el libro (devoluciones − asignaciones).
func (l *Ledger) WarehouseInventory(ctx context.Context, productionRunID string) (int, error) {
	return l.CurrentInventory(ctx, productionRunID, entity.Warehouse())
}

// Movements historial de la tirada, más reciente primero.
func (l *Ledger) Movements(ctx context.Context, productionRunID string) ([]*entity.Movement, error) {
	return l.movements.ListByProductionRun(ctx, productionRunID)
}

// HoldingsByDistributor unidades en poder de cada distribuidor; solo saldos positivos.
func (l *Ledger) HoldingsByDistributor(ctx context.Context, productionRunID string) (map[string]int, error) {
	net, err := l.movements.NetByDistributor(ctx, productionRunID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(net))
	for id, qty := range net {
		if qty > 0 {
			out[id] = qty
		}
	}
	return out, nil
}

// Transfer agrega un movimiento al libro. No valida disponibilidad: eso es responsabilidad
// de quien orquesta la operación, con la tirada ya bloqueada.
func (l *Ledger) Transfer(ctx context.Context, productionRunID string, from, to entity.Location, quantity int, movementType, referenceID string) (*entity.Movement, error) {
	if quantity <= 0 {
		return nil, domain.InvalidInputf("la cantidad del movimiento debe ser positiva: %d", quantity)
	}
	if !from.Valid() || !to.Valid() || from == to {
		return nil, domain.InvalidInputf("ubicaciones inválidas %s -> %s", from, to)
	}
	if !entity.ValidMovementType(movementType) {
		return nil, domain.InvalidInputf("tipo de movimiento desconocido: %s", movementType)
	}
	m := &entity.Movement{
		ID:              uuid.New().String(),
		ProductionRunID: productionRunID,
		From:            from,
		To:              to,
		Quantity:        quantity,
		Type:            movementType,
		OccurredAt:      time.Now().UTC(),
		ReferenceID:     referenceID,
	}
	if err := l.movements.Append(ctx, m); err != nil {
		return nil, fmt.Errorf("append movement: %w", err)
	}
	return m, nil
}

// LockProductionRuns bloquea (SELECT FOR UPDATE) las tiradas indicadas en orden ascendente de ID,
// sin duplicados, para que dos transacciones nunca se esperen mutuamente.
// Devuelve ErrNotFound si alguna no existe.
func LockProductionRuns(ctx context.Context, runs repository.ProductionRunRepository, ids ...string) (map[string]*entity.ProductionRun, error) {
	uniq := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		uniq = append(uniq, id)
	}
	sort.Strings(uniq)

	locked := make(map[string]*entity.ProductionRun, len(uniq))
	for _, id := range uniq {
		run, err := runs.GetForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		if run == nil {
			return nil, domain.NotFoundf("tirada de producción %s", id)
		}
		locked[id] = run
	}
	return locked, nil
}
