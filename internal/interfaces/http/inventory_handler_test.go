package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	apphttp "github.com/jhoicas/stock-ledger-api/internal/interfaces/http"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Stubs de servicios
// ──────────────────────────────────────────────────────────────────────────────

const (
	testWarehouseID = "11111111-1111-1111-1111-111111111111"
	testProductID   = "22222222-2222-2222-2222-222222222222"
	testMovementID  = "33333333-3333-3333-3333-333333333333"
)

type stubLedger struct {
	recordErr  error
	amendErr   error
	removeErr  error
	gotUserID  string
	gotRecord  dto.RecordMovementRequest
	gotFilter  repository.MovementFilter
	movement   *dto.MovementResponse
	removedIDs []string
}

func (s *stubLedger) RecordMovement(_ context.Context, userID string, in dto.RecordMovementRequest) (*dto.MovementResponse, error) {
	s.gotUserID, s.gotRecord = userID, in
	if s.recordErr != nil {
		return nil, s.recordErr
	}
	stock := in.Quantity
	return &dto.MovementResponse{
		ID: testMovementID, WarehouseID: in.WarehouseID, ProductID: in.ProductID,
		Quantity: in.Quantity, TransactionType: in.TransactionType, CreatedBy: userID, StockAfter: &stock,
	}, nil
}

func (s *stubLedger) AmendMovement(_ context.Context, id string, in dto.AmendMovementRequest) (*dto.MovementResponse, error) {
	if s.amendErr != nil {
		return nil, s.amendErr
	}
	return &dto.MovementResponse{ID: id, Quantity: *in.Quantity}, nil
}

func (s *stubLedger) RemoveMovement(_ context.Context, id string) error {
	s.removedIDs = append(s.removedIDs, id)
	return s.removeErr
}

func (s *stubLedger) GetMovement(_ context.Context, _ string) (*dto.MovementResponse, error) {
	return s.movement, nil
}

func (s *stubLedger) ListMovements(_ context.Context, filter repository.MovementFilter) (*dto.MovementListResponse, error) {
	s.gotFilter = filter
	return &dto.MovementListResponse{Items: []dto.MovementResponse{}, Page: dto.PageResponse{Limit: filter.Limit, Offset: filter.Offset}}, nil
}

type stubStock struct {
	gotFilter repository.InventoryFilter
	audit     *dto.AuditResponse
}

func (s *stubStock) GetStock(_ context.Context, warehouseID, productID string) (*dto.StockResponse, error) {
	return &dto.StockResponse{WarehouseID: warehouseID, ProductID: productID, Stock: 7}, nil
}

func (s *stubStock) ListStock(_ context.Context, filter repository.InventoryFilter) (*dto.StockListResponse, error) {
	s.gotFilter = filter
	return &dto.StockListResponse{Items: []dto.StockResponse{}}, nil
}

func (s *stubStock) AuditProjection(_ context.Context, _, _ string) (*dto.AuditResponse, error) {
	if s.audit == nil {
		return nil, fmt.Errorf("auditoría: %w", domain.ErrProjectionDrift)
	}
	return s.audit, nil
}

func buildInventoryApp(ledger *stubLedger, stock *stubStock) *fiber.App {
	app := fiber.New()
	app.Use(apphttp.RequestLogger(logger.Nop()))
	inv := app.Group("/api/inventory", apphttp.AuthMiddleware(testJWTSecret))
	apphttp.RegisterInventoryRoutes(inv, apphttp.NewInventoryHandler(ledger, stock),
		apphttp.RequireRole("admin", "bodeguero"), apphttp.RequireRole("admin"))
	return app
}

func call(t *testing.T, app *fiber.App, method, path, role, body string) (*http.Response, string) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", tokenForRole(t, role))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, string(raw)
}

func movementBody(qty int64, typ string) string {
	return fmt.Sprintf(`{"warehouse_id":%q,"product_id":%q,"quantity":%d,"transaction_type":%q}`,
		testWarehouseID, testProductID, qty, typ)
}

// ──────────────────────────────────────────────────────────────────────────────
// Movimientos
// ──────────────────────────────────────────────────────────────────────────────

func TestRecordMovement_Created(t *testing.T) {
	ledger := &stubLedger{}
	app := buildInventoryApp(ledger, &stubStock{})

	resp, body := call(t, app, http.MethodPost, "/api/inventory/movements", "bodeguero", movementBody(10, "IN"))
	assert.Equal(t, http.StatusCreated, resp.StatusCode, body)

	var out dto.MovementResponse
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	assert.Equal(t, testMovementID, out.ID)
	require.NotNil(t, out.StockAfter)
	assert.Equal(t, int64(10), *out.StockAfter)
	assert.Equal(t, testUserID, ledger.gotUserID, "el usuario del token queda como autor")
}

func TestRecordMovement_ValidacionDelCuerpo(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		code  string
		field string
	}{
		{"json roto", `{"quantity":`, "INVALID_BODY", ""},
		{"cantidad cero", movementBody(0, "IN"), "VALIDATION", "quantity"},
		{"cantidad negativa", movementBody(-3, "OUT"), "VALIDATION", "quantity"},
		{"tipo desconocido", movementBody(5, "ADJUST"), "VALIDATION", "transaction_type"},
		{"bodega no uuid", `{"warehouse_id":"x","product_id":"` + testProductID + `","quantity":1,"transaction_type":"IN"}`, "VALIDATION", "warehouse_id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ledger := &stubLedger{}
			app := buildInventoryApp(ledger, &stubStock{})

			resp, body := call(t, app, http.MethodPost, "/api/inventory/movements", "admin", tc.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Contains(t, body, tc.code)
			if tc.field != "" {
				assert.Contains(t, body, tc.field)
			}
			assert.Empty(t, ledger.gotUserID, "el servicio no debe invocarse")
		})
	}
}

func TestRecordMovement_MapeoDeErrores(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"stock insuficiente", &domain.InsufficientStockError{WarehouseID: testWarehouseID, ProductID: testProductID, Current: 2, Delta: -5}, http.StatusConflict, "INSUFFICIENT_STOCK"},
		{"bodega inexistente", domain.NewValidationError("warehouse_id", testWarehouseID, "la bodega no existe"), http.StatusBadRequest, "VALIDATION"},
		{"conflicto de concurrencia", fmt.Errorf("%w: serialization failure", domain.ErrConcurrencyConflict), http.StatusServiceUnavailable, "CONCURRENCY_CONFLICT"},
		{"error inesperado", fmt.Errorf("conexión perdida"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := buildInventoryApp(&stubLedger{recordErr: tc.err}, &stubStock{})

			resp, body := call(t, app, http.MethodPost, "/api/inventory/movements", "admin", movementBody(5, "OUT"))
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Contains(t, body, tc.code)
			assert.NotContains(t, body, "conexión perdida", "los 5xx no exponen el detalle interno")
		})
	}
}

func TestRecordMovement_VendedorNoEscribe(t *testing.T) {
	ledger := &stubLedger{}
	app := buildInventoryApp(ledger, &stubStock{})

	resp, body := call(t, app, http.MethodPost, "/api/inventory/movements", "vendedor", movementBody(1, "IN"))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, body, "FORBIDDEN")

	resp, _ = call(t, app, http.MethodGet, "/api/inventory/movements", "vendedor", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode, "la lectura sí está permitida")
}

func TestAmendMovement(t *testing.T) {
	app := buildInventoryApp(&stubLedger{}, &stubStock{})
	resp, body := call(t, app, http.MethodPatch, "/api/inventory/movements/"+testMovementID, "admin", `{"quantity":3}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Contains(t, body, `"quantity":3`)

	app = buildInventoryApp(&stubLedger{amendErr: domain.ErrNotFound}, &stubStock{})
	resp, body = call(t, app, http.MethodPatch, "/api/inventory/movements/"+testMovementID, "admin", `{"quantity":3}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "NOT_FOUND")

	resp, _ = call(t, app, http.MethodPatch, "/api/inventory/movements/"+testMovementID, "admin", `{"transaction_type":"in"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRemoveMovement(t *testing.T) {
	ledger := &stubLedger{}
	app := buildInventoryApp(ledger, &stubStock{})
	resp, _ := call(t, app, http.MethodDelete, "/api/inventory/movements/"+testMovementID, "bodeguero", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, []string{testMovementID}, ledger.removedIDs)

	ledger.removeErr = &domain.InsufficientStockError{Current: 3, Delta: -10}
	resp, body := call(t, app, http.MethodDelete, "/api/inventory/movements/"+testMovementID, "bodeguero", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, body, "INSUFFICIENT_STOCK")
}

func TestGetMovement_NoEncontrado(t *testing.T) {
	app := buildInventoryApp(&stubLedger{}, &stubStock{})
	resp, body := call(t, app, http.MethodGet, "/api/inventory/movements/"+testMovementID, "vendedor", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "NOT_FOUND")
}

func TestListMovements_FiltrosYPaginacion(t *testing.T) {
	ledger := &stubLedger{}
	app := buildInventoryApp(ledger, &stubStock{})

	path := "/api/inventory/movements?warehouse_id=" + testWarehouseID + "&transaction_type=out&limit=500&offset=-4"
	resp, _ := call(t, app, http.MethodGet, path, "vendedor", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, testWarehouseID, ledger.gotFilter.WarehouseID)
	assert.Equal(t, "OUT", ledger.gotFilter.TransactionType)
	assert.Equal(t, 100, ledger.gotFilter.Limit, "el límite se acota a 100")
	assert.Equal(t, 0, ledger.gotFilter.Offset)
}

// ──────────────────────────────────────────────────────────────────────────────
// Stock y auditoría
// ──────────────────────────────────────────────────────────────────────────────

func TestGetStock(t *testing.T) {
	app := buildInventoryApp(&stubLedger{}, &stubStock{})
	resp, body := call(t, app, http.MethodGet, "/api/inventory/stock/"+testWarehouseID+"/"+testProductID, "vendedor", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out dto.StockResponse
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	assert.Equal(t, testWarehouseID, out.WarehouseID)
	assert.Equal(t, testProductID, out.ProductID)
	assert.Equal(t, int64(7), out.Stock)
}

func TestListStock_SoloPositivos(t *testing.T) {
	stock := &stubStock{}
	app := buildInventoryApp(&stubLedger{}, stock)
	resp, _ := call(t, app, http.MethodGet, "/api/inventory/stock?product_id="+testProductID+"&only_positive=true", "vendedor", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, stock.gotFilter.OnlyPositive)
	assert.Equal(t, testProductID, stock.gotFilter.ProductID)
	assert.Equal(t, 20, stock.gotFilter.Limit)
}

func TestAudit_SoloAdmin(t *testing.T) {
	stock := &stubStock{audit: &dto.AuditResponse{Consistent: true, Discrepancies: []dto.DiscrepancyDTO{}}}
	app := buildInventoryApp(&stubLedger{}, stock)

	resp, _ := call(t, app, http.MethodGet, "/api/inventory/audit", "bodeguero", "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := call(t, app, http.MethodGet, "/api/inventory/audit", "admin", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"consistent":true`)

	stock.audit = nil
	resp, body = call(t, app, http.MethodGet, "/api/inventory/audit", "admin", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body, "PROJECTION_DRIFT")
}
