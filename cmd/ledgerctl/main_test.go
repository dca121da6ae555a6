package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omt-labs/labelledger/internal/application/dto"
	"github.com/omt-labs/labelledger/internal/application/inventory"
	"github.com/omt-labs/labelledger/internal/bootstrap"
	"github.com/omt-labs/labelledger/internal/domain/entity"
	"github.com/omt-labs/labelledger/internal/infrastructure/memory"
	"github.com/omt-labs/labelledger/pkg/logger"
)

type cliTestEnv struct {
	svc   *services
	runID string
}

// setupCLITestEnv tirada de 100 vinilos con 40 asignados a D1.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	mem := memory.NewStore()
	mem.AddLabel(entity.Label{ID: "L1", Name: "Sello"})
	mem.AddRelease(entity.Release{ID: "R1", LabelID: "L1", Name: "LP"})
	mem.AddDistributor(entity.Distributor{ID: "D1", LabelID: "L1", Name: "Distri", ChannelType: entity.ChannelDistributor})

	store := bootstrap.Memory(mem)
	svc := newServices(store.TxRunner, logger.Nop())
	svc.store = store

	ctx := context.Background()
	run, err := svc.runs.Create(ctx, inventory.CreateProductionRunInput{ReleaseID: "R1", Format: entity.FormatVinyl, Quantity: 100})
	require.NoError(t, err)
	_, err = svc.allocations.CreateAllocation(ctx, inventory.CreateAllocationInput{ProductionRunID: run.ID, DistributorID: "D1", Quantity: 40})
	require.NoError(t, err)
	return &cliTestEnv{svc: svc, runID: run.ID}
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cc := newCommandContext()
	cc.open = func(context.Context) (*services, error) { return e.svc, nil }
	cmd := newRootCommand(cc)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestInventoryCommand_MuestraUbicaciones(t *testing.T) {
	env := setupCLITestEnv(t)
	out, err := env.run(t, "inventory", env.runID)
	require.NoError(t, err)
	assert.Contains(t, out, "WAREHOUSE")
	assert.Contains(t, out, "DISTRIBUTOR(D1)")
	assert.Contains(t, out, "40")
	assert.Contains(t, out, "-40")
}

func TestInventoryCommand_UbicacionInvalida(t *testing.T) {
	env := setupCLITestEnv(t)
	_, err := env.run(t, "inventory", env.runID, "--location", "garage")
	assert.Error(t, err)
}

func TestSummaryCommand_JSON(t *testing.T) {
	env := setupCLITestEnv(t)
	out, err := env.run(t, "--json", "summary", env.runID)
	require.NoError(t, err)

	var s dto.SummaryResponse
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, 100, s.Manufactured)
	assert.Equal(t, 40, s.Allocated)
	assert.Equal(t, 60, s.WarehouseOnHand)
}

func TestMovementsAndAllocationsCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	out, err := env.run(t, "movements", env.runID)
	require.NoError(t, err)
	assert.Contains(t, out, entity.MovementTypeAllocation)

	out, err = env.run(t, "allocations", env.runID)
	require.NoError(t, err)
	assert.Contains(t, out, "D1")
	assert.Contains(t, out, "Sin asignar: 60")
}

func TestReconcileCommand_RequiereTiradaOAll(t *testing.T) {
	env := setupCLITestEnv(t)
	_, err := env.run(t, "reconcile")
	assert.Error(t, err)
	_, err = env.run(t, "reconcile", env.runID, "--all")
	assert.Error(t, err)

	out, err := env.run(t, "--json", "reconcile", "--all")
	require.NoError(t, err)
	var results []inventory.ReconcileResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, env.runID, results[0].ProductionRunID)
	assert.Equal(t, 0, results[0].Updated)
}

func TestStatementCommand_EscribePDF(t *testing.T) {
	env := setupCLITestEnv(t)
	path := filepath.Join(t.TempDir(), "estado.pdf")
	_, err := env.run(t, "statement", env.runID, "-o", path)
	require.NoError(t, err)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("%PDF")))
}

func TestSeedCommand_CargaCatalogo(t *testing.T) {
	env := setupCLITestEnv(t)
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"labels": [{"id": "L2", "name": "Otro"}],
		"releases": [{"id": "R2", "label_id": "L2", "name": "EP"}],
		"distributors": []
	}`), 0o600))

	out, err := env.run(t, "seed", path)
	require.NoError(t, err)
	assert.Contains(t, out, "1 sellos")

	_, err = env.svc.runs.Create(context.Background(), inventory.CreateProductionRunInput{ReleaseID: "R2", Format: entity.FormatCD, Quantity: 10})
	assert.NoError(t, err)
}
