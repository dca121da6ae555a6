package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/omt-labs/labelledger/internal/application/dto"
	"github.com/omt-labs/labelledger/internal/application/inventory"
	"github.com/omt-labs/labelledger/internal/application/sales"
	"github.com/omt-labs/labelledger/internal/domain/entity"
	"github.com/omt-labs/labelledger/internal/infrastructure/memory"
	infrapdf "github.com/omt-labs/labelledger/internal/infrastructure/pdf"
	apphttp "github.com/omt-labs/labelledger/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testLabel     = "label-1"
	testRelease   = "release-1"
	testDist      = "dist-1"
	testRetail    = "dist-retail"
	otherLabel    = "label-2"
	otherRelease  = "release-2"
	otherLabelDst = "dist-other"
)

// buildTestApp arma la API completa sobre el almacén en memoria con un catálogo mínimo.
func buildTestApp(t *testing.T) *fiber.App {
	t.Helper()
	store := memory.NewStore()
	store.AddLabel(entity.Label{ID: testLabel, Name: "Sello Uno"})
	store.AddLabel(entity.Label{ID: otherLabel, Name: "Sello Dos"})
	store.AddRelease(entity.Release{ID: testRelease, LabelID: testLabel, Name: "Primer LP"})
	store.AddRelease(entity.Release{ID: otherRelease, LabelID: otherLabel, Name: "Otro LP"})
	store.AddDistributor(entity.Distributor{ID: testDist, LabelID: testLabel, Name: "Distri", ChannelType: entity.ChannelDistributor})
	store.AddDistributor(entity.Distributor{ID: testRetail, LabelID: testLabel, Name: "Tienda", ChannelType: entity.ChannelRetail})
	store.AddDistributor(entity.Distributor{ID: otherLabelDst, LabelID: otherLabel, Name: "Ajeno", ChannelType: entity.ChannelDistributor})

	log := zerolog.Nop()
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		ProductionRuns: inventory.NewProductionRunUseCase(store, log),
		Allocations:    inventory.NewAllocationUseCase(store, log),
		Queries:        inventory.NewQueryUseCase(store),
		Statements:     inventory.NewStatementUseCase(store, infrapdf.NewMarotoStatementGenerator(language.Spanish), log),
		Sales:          sales.NewSaleUseCase(store, log),
		Returns:        sales.NewReturnUseCase(store, log),
		Log:            log,
	})
	return app
}

// doJSON ejecuta la petición y decodifica el cuerpo en out (si no es nil).
func doJSON(t *testing.T, app *fiber.App, method, path string, body any, out any) int {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, out), "cuerpo: %s", raw)
	}
	return resp.StatusCode
}

func createRun(t *testing.T, app *fiber.App, qty int) dto.ProductionRunResponse {
	t.Helper()
	var run dto.ProductionRunResponse
	status := doJSON(t, app, http.MethodPost, "/api/production-runs", map[string]any{
		"release_id": testRelease, "format": "VINYL", "quantity": qty,
	}, &run)
	require.Equal(t, http.StatusCreated, status)
	return run
}

func allocate(t *testing.T, app *fiber.App, runID, distID string, qty int) int {
	t.Helper()
	return doJSON(t, app, http.MethodPost, "/api/production-runs/"+runID+"/allocations",
		map[string]any{"distributor_id": distID, "quantity": qty}, nil)
}

func saleBody(qty int) map[string]any {
	return map[string]any{
		"label_id": testLabel,
		"channel":  "DISTRIBUTOR",
		"line_items": []map[string]any{
			{"release_id": testRelease, "format": "VINYL", "quantity": qty, "unit_price": "20.00", "currency": "USD"},
		},
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Tiradas y asignaciones
// ──────────────────────────────────────────────────────────────────────────────

func TestCrearTirada_ValidacionDevuelve400ConCampos(t *testing.T) {
	app := buildTestApp(t)
	var errResp dto.ErrorResponse
	status := doJSON(t, app, http.MethodPost, "/api/production-runs", map[string]any{
		"release_id": testRelease, "format": "LASERDISC", "quantity": 0,
	}, &errResp)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", errResp.Code)
	assert.Contains(t, errResp.Fields, "format")
	assert.Contains(t, errResp.Fields, "quantity")
}

func TestCrearTirada_LanzamientoInexistenteDevuelve404(t *testing.T) {
	app := buildTestApp(t)
	status := doJSON(t, app, http.MethodPost, "/api/production-runs", map[string]any{
		"release_id": "no-existe", "format": "CD", "quantity": 10,
	}, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAsignacion_SuperaTechoDevuelve409ConCantidades(t *testing.T) {
	app := buildTestApp(t)
	run := createRun(t, app, 500)
	require.Equal(t, http.StatusCreated, allocate(t, app, run.ID, testDist, 400))

	var errResp dto.ErrorResponse
	status := doJSON(t, app, http.MethodPost, "/api/production-runs/"+run.ID+"/allocations",
		map[string]any{"distributor_id": testRetail, "quantity": 200}, &errResp)

	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INSUFFICIENT_INVENTORY", errResp.Code)
	require.NotNil(t, errResp.Requested)
	require.NotNil(t, errResp.Available)
	assert.Equal(t, 200, *errResp.Requested)
	assert.Equal(t, 100, *errResp.Available)

	var list dto.AllocationListResponse
	require.Equal(t, http.StatusOK, doJSON(t, app, http.MethodGet, "/api/production-runs/"+run.ID+"/allocations", nil, &list))
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, 400, list.TotalAllocated)
	assert.Equal(t, 100, list.Unallocated)
}

func TestAsignacion_DistribuidorDeOtroSelloDevuelve404(t *testing.T) {
	app := buildTestApp(t)
	run := createRun(t, app, 50)
	assert.Equal(t, http.StatusNotFound, allocate(t, app, run.ID, otherLabelDst, 10))
}

func TestEliminarTirada_ConAsignacionesDevuelve422(t *testing.T) {
	app := buildTestApp(t)
	run := createRun(t, app, 50)
	require.Equal(t, http.StatusCreated, allocate(t, app, run.ID, testDist, 10))

	status := doJSON(t, app, http.MethodDelete, "/api/production-runs/"+run.ID, nil, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, http.StatusOK, doJSON(t, app, http.MethodGet, "/api/production-runs/"+run.ID, nil, nil))
}

func TestEliminarTirada_SinAsignacionesDevuelve204(t *testing.T) {
	app := buildTestApp(t)
	run := createRun(t, app, 50)

	assert.Equal(t, http.StatusNoContent, doJSON(t, app, http.MethodDelete, "/api/production-runs/"+run.ID, nil, nil))
	assert.Equal(t, http.StatusNotFound, doJSON(t, app, http.MethodGet, "/api/production-runs/"+run.ID, nil, nil))
}

func TestTiradaMasReciente_SinTiradaDevuelve422(t *testing.T) {
	app := buildTestApp(t)
	status := doJSON(t, app, http.MethodGet, "/api/releases/"+testRelease+"/production-runs/latest?format=CD", nil, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

// ──────────────────────────────────────────────────────────────────────────────
// Consultas
// ──────────────────────────────────────────────────────────────────────────────

func TestInventario_UbicacionInvalidaDevuelve400(t *testing.T) {
	app := buildTestApp(t)
	run := createRun(t, app, 10)
	status := doJSON(t, app, http.MethodGet, "/api/production-runs/"+run.ID+"/inventory?location=garage", nil, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestInventario_TiradaDesconocidaDevuelveCero(t *testing.T) {
	app := buildTestApp(t)
	var inv dto.InventoryResponse
	status := doJSON(t, app, http.MethodGet, "/api/production-runs/no-existe/inventory?location=warehouse", nil, &inv)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0, inv.Quantity)
}

// ──────────────────────────────────────────────────────────────────────────────
// Ventas y devoluciones
// ──────────────────────────────────────────────────────────────────────────────

func TestVenta_SinAsignacionDevuelve422(t *testing.T) {
	app := buildTestApp(t)
	createRun(t, app, 100)

	var errResp dto.ErrorResponse
	status := doJSON(t, app, http.MethodPost, "/api/sales", saleBody(5), &errResp)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "PRECONDITION_FAILED", errResp.Code)
	assert.Contains(t, errResp.Message, testRelease)
	assert.Contains(t, errResp.Message, "VINYL")
	assert.Contains(t, errResp.Message, testDist)
}

func TestVenta_FlujoCompletoActualizaInventarioYResumen(t *testing.T) {
	app := buildTestApp(t)
	run := createRun(t, app, 500)
	require.Equal(t, http.StatusCreated, allocate(t, app, run.ID, testDist, 100))

	var sale dto.SaleResponse
	require.Equal(t, http.StatusCreated, doJSON(t, app, http.MethodPost, "/api/sales", saleBody(30), &sale))
	assert.Equal(t, testDist, sale.DistributorID)
	assert.Equal(t, "USD", sale.Currency)
	assert.Equal(t, "600", sale.TotalAmount.String())

	var inv dto.InventoryResponse
	require.Equal(t, http.StatusOK, doJSON(t, app, http.MethodGet,
		fmt.Sprintf("/api/production-runs/%s/inventory?location=distributor:%s", run.ID, testDist), nil, &inv))
	assert.Equal(t, 70, inv.Quantity)

	var summary dto.SummaryResponse
	require.Equal(t, http.StatusOK, doJSON(t, app, http.MethodGet, "/api/production-runs/"+run.ID+"/summary", nil, &summary))
	assert.Equal(t, 500, summary.Manufactured)
	assert.Equal(t, 100, summary.Allocated)
	assert.Equal(t, 400, summary.WarehouseOnHand)
	assert.Equal(t, 30, summary.SoldExternally)
	require.Len(t, summary.Distributors, 1)
	assert.Equal(t, 70, summary.Distributors[0].OnHand)

	var movements dto.ListResponse[dto.MovementResponse]
	require.Equal(t, http.StatusOK, doJSON(t, app, http.MethodGet, "/api/production-runs/"+run.ID+"/movements", nil, &movements))
	assert.Equal(t, 2, movements.Total)

	var revenue dto.RevenueResponse
	require.Equal(t, http.StatusOK, doJSON(t, app, http.MethodGet, "/api/labels/"+testLabel+"/revenue", nil, &revenue))
	assert.Equal(t, "600", revenue.Totals["USD"].String())
}

func TestVenta_ActualizarYEliminar(t *testing.T) {
	app := buildTestApp(t)
	run := createRun(t, app, 500)
	require.Equal(t, http.StatusCreated, allocate(t, app, run.ID, testDist, 100))

	var sale dto.SaleResponse
	require.Equal(t, http.StatusCreated, doJSON(t, app, http.MethodPost, "/api/sales", saleBody(80), &sale))

	update := map[string]any{"line_items": saleBody(95)["line_items"]}
	var updated dto.SaleResponse
	require.Equal(t, http.StatusOK, doJSON(t, app, http.MethodPut, "/api/sales/"+sale.ID, update, &updated))
	assert.Equal(t, 95, updated.LineItems[0].Quantity)

	require.Equal(t, http.StatusNoContent, doJSON(t, app, http.MethodDelete, "/api/sales/"+sale.ID, nil, nil))
	assert.Equal(t, http.StatusNotFound, doJSON(t, app, http.MethodGet, "/api/sales/"+sale.ID, nil, nil))

	var inv dto.InventoryResponse
	require.Equal(t, http.StatusOK, doJSON(t, app, http.MethodGet,
		fmt.Sprintf("/api/production-runs/%s/inventory?location=distributor:%s", run.ID, testDist), nil, &inv))
	assert.Equal(t, 100, inv.Quantity)
}

func TestDevolucion_SuperaLoQueTieneDevuelve409(t *testing.T) {
	app := buildTestApp(t)
	run := createRun(t, app, 500)
	require.Equal(t, http.StatusCreated, allocate(t, app, run.ID, testDist, 50))

	body := map[string]any{
		"label_id":       testLabel,
		"distributor_id": testDist,
		"line_items":     []map[string]any{{"release_id": testRelease, "format": "VINYL", "quantity": 60}},
	}
	var errResp dto.ErrorResponse
	assert.Equal(t, http.StatusConflict, doJSON(t, app, http.MethodPost, "/api/returns", body, &errResp))
	require.NotNil(t, errResp.Available)
	assert.Equal(t, 50, *errResp.Available)

	body["line_items"] = []map[string]any{{"release_id": testRelease, "format": "VINYL", "quantity": 20}}
	var ret dto.ReturnResponse
	require.Equal(t, http.StatusCreated, doJSON(t, app, http.MethodPost, "/api/returns", body, &ret))

	var byDist dto.ListResponse[dto.ReturnResponse]
	require.Equal(t, http.StatusOK, doJSON(t, app, http.MethodGet, "/api/distributors/"+testDist+"/returns", nil, &byDist))
	assert.Equal(t, 1, byDist.Total)

	var wh dto.InventoryResponse
	require.Equal(t, http.StatusOK, doJSON(t, app, http.MethodGet,
		"/api/production-runs/"+run.ID+"/inventory?location=warehouse", nil, &wh))
	assert.Equal(t, -30, wh.Quantity)
}

func TestVenta_LineasVaciasDevuelve400(t *testing.T) {
	app := buildTestApp(t)
	body := saleBody(1)
	body["line_items"] = []map[string]any{}
	var errResp dto.ErrorResponse
	assert.Equal(t, http.StatusBadRequest, doJSON(t, app, http.MethodPost, "/api/sales", body, &errResp))
	assert.Contains(t, errResp.Fields, "line_items")
}

func TestEstadoPDF_DevuelveDocumento(t *testing.T) {
	app := buildTestApp(t)
	run := createRun(t, app, 20)
	require.Equal(t, http.StatusCreated, allocate(t, app, run.ID, testDist, 5))

	req := httptest.NewRequest(http.MethodGet, "/api/production-runs/"+run.ID+"/statement.pdf", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("%PDF")))
}
