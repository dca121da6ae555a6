package inventory

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/omt-labs/labelledger/internal/domain/entity"
)

// Statement estado imprimible de una tirada: resumen, asignaciones e historial.
type Statement struct {
	Summary     *Summary
	Allocations []*entity.Allocation
	Movements   []*entity.Movement
	GeneratedAt time.Time
}

// StatementUseCase arma el estado de una tirada y lo renderiza.
type StatementUseCase struct {
	txRunner TxRunner
	renderer StatementRenderer
	log      zerolog.Logger
}

// NewStatementUseCase construye el caso de uso. renderer puede ser nil si solo se usa Statement.
func NewStatementUseCase(txRunner TxRunner, renderer StatementRenderer, log zerolog.Logger) *StatementUseCase {
	return &StatementUseCase{txRunner: txRunner, renderer: renderer, log: log}
}

// Statement lee todo en una misma transacción para que resumen e historial sean coherentes.
func (uc *StatementUseCase) Statement(ctx context.Context, productionRunID string) (*Statement, error) {
	st := &Statement{GeneratedAt: time.Now().UTC()}
	err := uc.txRunner.Run(ctx, func(repos Repositories) error {
		var err error
		if st.Summary, err = buildSummary(ctx, repos, productionRunID); err != nil {
			return err
		}
		if st.Allocations, err = repos.Allocations.ListByProductionRun(ctx, productionRunID); err != nil {
			return err
		}
		st.Movements, err = NewLedger(repos.Movements).Movements(ctx, productionRunID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// RenderPDF genera el PDF del estado de la tirada.
func (uc *StatementUseCase) RenderPDF(ctx context.Context, productionRunID string) ([]byte, error) {
	st, err := uc.Statement(ctx, productionRunID)
	if err != nil {
		return nil, err
	}
	b, err := uc.renderer.RenderStatement(st)
	if err != nil {
		uc.log.Error().Err(err).Str("production_run_id", productionRunID).Msg("error generando PDF")
		return nil, err
	}
	return b, nil
}
