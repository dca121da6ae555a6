package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/omt-labs/labelledger/internal/application/inventory"
	"github.com/omt-labs/labelledger/internal/domain"
	"github.com/omt-labs/labelledger/internal/domain/entity"
)

// ReturnUseCase devoluciones de distribuidores a la bodega.
type ReturnUseCase struct {
	txRunner inventory.TxRunner
	log      zerolog.Logger
}

// NewReturnUseCase construye el caso de uso.
func NewReturnUseCase(txRunner inventory.TxRunner, log zerolog.Logger) *ReturnUseCase {
	return &ReturnUseCase{txRunner: txRunner, log: log}
}

// ReturnLineInput línea de devolución.
type ReturnLineInput struct {
	ReleaseID string
	Format    string
	Quantity  int
}

// RegisterReturnInput entrada de RegisterReturn.
type RegisterReturnInput struct {
	LabelID       string
	DistributorID string
	ReturnDate    time.Time
	Notes         string
	LineItems     []ReturnLineInput
}

// UpdateReturnInput entrada de UpdateReturn. El distribuidor no se puede cambiar.
type UpdateReturnInput struct {
	ReturnDate time.Time
	Notes      string
	LineItems  []ReturnLineInput
}

// RegisterReturn valida que el distribuidor y los lanzamientos sean del sello y que ninguna
// línea devuelva más de lo que el distribuidor tiene; luego persiste la devolución y un
// movimiento distribuidor -> bodega por línea.
func (uc *ReturnUseCase) RegisterReturn(ctx context.Context, in RegisterReturnInput) (*entity.DistributorReturn, error) {
	if in.LabelID == "" || in.DistributorID == "" {
		return nil, domain.InvalidInputf("label_id y distributor_id son obligatorios")
	}
	refs := returnLineRefs(in.LineItems)
	if err := validateLineRefs(refs); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	ret := &entity.DistributorReturn{
		ID:            uuid.New().String(),
		LabelID:       in.LabelID,
		DistributorID: in.DistributorID,
		ReturnDate:    dateOrNow(in.ReturnDate, now),
		Notes:         in.Notes,
		LineItems:     toReturnLineItems(in.LineItems),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := uc.txRunner.Run(ctx, func(repos inventory.Repositories) error {
		label, err := repos.Catalog.GetLabel(ctx, in.LabelID)
		if err != nil {
			return err
		}
		if label == nil {
			return domain.NotFoundf("sello %s", in.LabelID)
		}
		dist, err := repos.Catalog.GetDistributor(ctx, in.DistributorID)
		if err != nil {
			return err
		}
		if dist == nil || dist.LabelID != in.LabelID {
			return domain.NotFoundf("distribuidor %s en el sello %s", in.DistributorID, in.LabelID)
		}

		lines, err := resolveLines(ctx, repos, ret.LabelID, refs)
		if err != nil {
			return err
		}
		if _, err := inventory.LockProductionRuns(ctx, repos.ProductionRuns, runIDs(lines, nil)...); err != nil {
			return err
		}
		if err := claimLines(ctx, repos, lines, ret.DistributorID, false); err != nil {
			return err
		}
		if err := repos.Returns.Create(ctx, ret); err != nil {
			return err
		}
		return uc.applyReturn(ctx, repos, ret, lines)
	})
	if err != nil {
		uc.log.Debug().Err(err).Str("label_id", in.LabelID).Str("distributor_id", in.DistributorID).Msg("devolución rechazada")
		return nil, err
	}
	uc.log.Info().
		Str("return_id", ret.ID).
		Str("distributor_id", ret.DistributorID).
		Int("line_items", len(ret.LineItems)).
		Msg("devolución registrada")
	return ret, nil
}

// UpdateReturn revierte, reemplaza líneas, revalida y reaplica en una sola transacción.
func (uc *ReturnUseCase) UpdateReturn(ctx context.Context, returnID string, in UpdateReturnInput) error {
	refs := returnLineRefs(in.LineItems)
	if err := validateLineRefs(refs); err != nil {
		return err
	}
	err := uc.txRunner.Run(ctx, func(repos inventory.Repositories) error {
		ret, err := repos.Returns.GetForUpdate(ctx, returnID)
		if err != nil {
			return err
		}
		if ret == nil {
			return domain.NotFoundf("devolución %s", returnID)
		}
		previous, err := repos.Movements.ListByReference(ctx, entity.MovementTypeReturn, ret.ID)
		if err != nil {
			return err
		}
		lines, err := resolveLines(ctx, repos, ret.LabelID, refs)
		if err != nil {
			return err
		}
		if _, err := inventory.LockProductionRuns(ctx, repos.ProductionRuns, runIDs(lines, previous)...); err != nil {
			return err
		}
		if _, err := repos.Movements.DeleteByReference(ctx, entity.MovementTypeReturn, ret.ID); err != nil {
			return err
		}
		if err := claimLines(ctx, repos, lines, ret.DistributorID, false); err != nil {
			return err
		}

		ret.ReturnDate = dateOrNow(in.ReturnDate, ret.ReturnDate)
		ret.Notes = in.Notes
		ret.LineItems = toReturnLineItems(in.LineItems)
		ret.UpdatedAt = time.Now().UTC()
		if err := repos.Returns.Update(ctx, ret); err != nil {
			return err
		}
		return uc.applyReturn(ctx, repos, ret, lines)
	})
	if err != nil {
		uc.log.Debug().Err(err).Str("return_id", returnID).Msg("edición de devolución rechazada")
		return err
	}
	uc.log.Info().Str("return_id", returnID).Msg("devolución actualizada")
	return nil
}

// DeleteReturn revierte los movimientos y elimina la devolución. ErrNotFound si no existe.
// Revertir una devolución devuelve las unidades al distribuidor, así que nunca deja saldos negativos
// en el distribuidor.
func (uc *ReturnUseCase) DeleteReturn(ctx context.Context, returnID string) error {
	err := uc.txRunner.Run(ctx, func(repos inventory.Repositories) error {
		ret, err := repos.Returns.GetForUpdate(ctx, returnID)
		if err != nil {
			return err
		}
		if ret == nil {
			return domain.NotFoundf("devolución %s", returnID)
		}
		previous, err := repos.Movements.ListByReference(ctx, entity.MovementTypeReturn, ret.ID)
		if err != nil {
			return err
		}
		if _, err := inventory.LockProductionRuns(ctx, repos.ProductionRuns, runIDs(nil, previous)...); err != nil {
			return err
		}
		if _, err := repos.Movements.DeleteByReference(ctx, entity.MovementTypeReturn, ret.ID); err != nil {
			return err
		}
		return repos.Returns.Delete(ctx, ret.ID)
	})
	if err != nil {
		return err
	}
	uc.log.Info().Str("return_id", returnID).Msg("devolución eliminada")
	return nil
}

// GetReturn devuelve la devolución o ErrNotFound.
func (uc *ReturnUseCase) GetReturn(ctx context.Context, returnID string) (*entity.DistributorReturn, error) {
	var ret *entity.DistributorReturn
	err := uc.txRunner.Run(ctx, func(repos inventory.Repositories) error {
		var err error
		ret, err = repos.Returns.GetByID(ctx, returnID)
		if err != nil {
			return err
		}
		if ret == nil {
			return domain.NotFoundf("devolución %s", returnID)
		}
		return nil
	})
	return ret, err
}

// ReturnsForLabel devoluciones del sello, más reciente primero.
func (uc *ReturnUseCase) ReturnsForLabel(ctx context.Context, labelID string) ([]*entity.DistributorReturn, error) {
	var list []*entity.DistributorReturn
	err := uc.txRunner.Run(ctx, func(repos inventory.Repositories) error {
		var err error
		list, err = repos.Returns.ListByLabel(ctx, labelID)
		return err
	})
	return list, err
}

// ReturnsForDistributor devoluciones del distribuidor, más reciente primero.
func (uc *ReturnUseCase) ReturnsForDistributor(ctx context.Context, distributorID string) ([]*entity.DistributorReturn, error) {
	var list []*entity.DistributorReturn
	err := uc.txRunner.Run(ctx, func(repos inventory.Repositories) error {
		var err error
		list, err = repos.Returns.ListByDistributor(ctx, distributorID)
		return err
	})
	return list, err
}

func (uc *ReturnUseCase) applyReturn(ctx context.Context, repos inventory.Repositories, ret *entity.DistributorReturn, lines []resolvedLine) error {
	ledger := inventory.NewLedger(repos.Movements)
	for _, l := range lines {
		if _, err := ledger.Transfer(ctx, l.RunID,
			entity.DistributorLocation(ret.DistributorID), entity.Warehouse(),
			l.Quantity, entity.MovementTypeReturn, ret.ID); err != nil {
			return err
		}
	}
	return nil
}

func returnLineRefs(items []ReturnLineInput) []lineRef {
	out := make([]lineRef, len(items))
	for i, it := range items {
		out[i] = lineRef{ReleaseID: it.ReleaseID, Format: it.Format, Quantity: it.Quantity}
	}
	return out
}

func toReturnLineItems(items []ReturnLineInput) []entity.ReturnLineItem {
	out := make([]entity.ReturnLineItem, len(items))
	for i, it := range items {
		out[i] = entity.ReturnLineItem{
			ID:        uuid.New().String(),
			ReleaseID: it.ReleaseID,
			Format:    it.Format,
			Quantity:  it.Quantity,
		}
	}
	return out
}
