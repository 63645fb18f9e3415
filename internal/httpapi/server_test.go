package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"

	"github.com/roach88/tiffin/internal/logging"
	"github.com/roach88/tiffin/internal/pos"
	"github.com/roach88/tiffin/internal/store"
	"github.com/roach88/tiffin/internal/testutil"
)

var testEpoch = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*Server, *pos.App) {
	t.Helper()
	app, err := pos.Open(context.Background(), store.NewMemory(), pos.Options{
		Clock:      testutil.NewStepClock(testEpoch, time.Minute),
		IDs:        testutil.NewSequenceGenerator("id"),
		PaymentRef: "images/QRpay.jpg",
		Payee:      "HOTEL BISMI",
	})
	require.NoError(t, err)
	return New(app, Options{Business: "HOTEL BISMI", Location: time.UTC}, logging.Discard()), app
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeBody(t, rec)
	return body["error"].(map[string]any)["code"].(string)
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s.Router(), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMenu_ListAndSearch(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Router()

	rec := do(t, h, http.MethodGet, "/api/v1/menu", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["items"], 10)

	rec = do(t, h, http.MethodGet, "/api/v1/menu?q=DOS", "")
	items := decodeBody(t, rec)["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "Dosa", items[0].(map[string]any)["name"])
}

func TestMenu_CreateUpdateDelete(t *testing.T) {
	s, app := newTestServer(t)
	h := s.Router()

	rec := do(t, h, http.MethodPost, "/api/v1/menu", `{"name":"Kesari","price":"15.50","image":"kesari.jpg"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody(t, rec)
	assert.Equal(t, "id-0011", created["id"])
	assert.Equal(t, "15.5", created["price"])

	rec = do(t, h, http.MethodPut, "/api/v1/menu/id-0011", `{"name":"Rava Kesari","price":18}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	item, ok := app.Catalog.Get("id-0011")
	require.True(t, ok)
	assert.Equal(t, "Rava Kesari", item.Name)
	assert.Equal(t, "18", item.Price.String())

	rec = do(t, h, http.MethodDelete, "/api/v1/menu/id-0011", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 10, app.Catalog.Len())

	// Deleting again is a no-op.
	rec = do(t, h, http.MethodDelete, "/api/v1/menu/id-0011", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestMenu_Errors(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Router()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"missing price", http.MethodPost, "/api/v1/menu", `{"name":"Kesari"}`, http.StatusBadRequest, CodeValidation},
		{"negative price", http.MethodPost, "/api/v1/menu", `{"name":"Kesari","price":-1}`, http.StatusBadRequest, CodeValidation},
		{"blank name", http.MethodPost, "/api/v1/menu", `{"name":"  ","price":1}`, http.StatusBadRequest, CodeValidation},
		{"unknown field", http.MethodPost, "/api/v1/menu", `{"name":"Kesari","price":1,"qty":2}`, http.StatusBadRequest, CodeBadRequest},
		{"malformed", http.MethodPost, "/api/v1/menu", `{`, http.StatusBadRequest, CodeBadRequest},
		{"update missing", http.MethodPut, "/api/v1/menu/ghost", `{"name":"Ghost","price":1}`, http.StatusNotFound, CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, errorCode(t, rec))
		})
	}
}

func TestCart_Flow(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Router()

	rec := do(t, h, http.MethodGet, "/api/v1/cart", "")
	assert.JSONEq(t, `{"lines":[],"summary":{"subtotal":"0","tax":"0","total":"0"}}`, rec.Body.String())

	do(t, h, http.MethodPost, "/api/v1/cart/items", `{"id":"id-0006"}`)
	rec = do(t, h, http.MethodPost, "/api/v1/cart/items", `{"id":"id-0006"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "24", body["summary"].(map[string]any)["total"])

	rec = do(t, h, http.MethodPatch, "/api/v1/cart/items/id-0006", `{"delta":-1}`)
	lines := decodeBody(t, rec)["lines"].([]any)
	require.Len(t, lines, 1)
	assert.EqualValues(t, 1, lines[0].(map[string]any)["qty"])

	rec = do(t, h, http.MethodDelete, "/api/v1/cart/items/id-0006", "")
	assert.Empty(t, decodeBody(t, rec)["lines"])

	do(t, h, http.MethodPost, "/api/v1/cart/items", `{"id":"id-0007"}`)
	rec = do(t, h, http.MethodDelete, "/api/v1/cart", "")
	assert.Empty(t, decodeBody(t, rec)["lines"])
}

func TestCart_QuantityOverflowIsRejected(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Router()
	do(t, h, http.MethodPost, "/api/v1/cart/items", `{"id":"id-0006"}`)

	rec := do(t, h, http.MethodPatch, "/api/v1/cart/items/id-0006", `{"delta":9223372036854775807}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeValidation, errorCode(t, rec))

	rec = do(t, h, http.MethodGet, "/api/v1/cart", "")
	lines := decodeBody(t, rec)["lines"].([]any)
	require.Len(t, lines, 1)
	assert.EqualValues(t, 1, lines[0].(map[string]any)["qty"])
}

func TestCheckout_EmptyDraftHasLinesArray(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s.Router(), http.MethodGet, "/api/v1/checkout", "")
	require.Equal(t, http.StatusOK, rec.Code)

	draft := decodeBody(t, rec)["draft"].(map[string]any)
	lines, ok := draft["lines"].([]any)
	require.True(t, ok, "lines should be a JSON array, got %v", draft["lines"])
	assert.Empty(t, lines)
}

func TestCart_AddRequiresID(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s.Router(), http.MethodPost, "/api/v1/cart/items", `{"id":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeValidation, errorCode(t, rec))
}

func TestCheckout_PressCycle(t *testing.T) {
	s, app := newTestServer(t)
	h := s.Router()

	rec := do(t, h, http.MethodPost, "/api/v1/checkout/press", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, CodeEmptyCart, errorCode(t, rec))

	do(t, h, http.MethodPost, "/api/v1/cart/items", `{"id":"id-0006"}`)
	rec = do(t, h, http.MethodPut, "/api/v1/checkout/customer", `{"name":"Anu"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Anu", decodeBody(t, rec)["customer"])

	rec = do(t, h, http.MethodPost, "/api/v1/checkout/press", "")
	require.Equal(t, http.StatusOK, rec.Code)
	tr := decodeBody(t, rec)
	assert.Equal(t, "idle", tr["from"])
	assert.Equal(t, "awaiting_payment", tr["to"])
	assert.Equal(t, "images/QRpay.jpg", tr["payment_ref"])
	assert.Equal(t, "upi://pay?pn=HOTEL%20BISMI&am=12.00&tn=HOTEL%20BISMI%20%7C%20Total%2012.00", tr["payment_uri"])
	assert.Nil(t, tr["sale"])

	rec = do(t, h, http.MethodGet, "/api/v1/checkout", "")
	assert.Equal(t, "awaiting_payment", decodeBody(t, rec)["state"])

	rec = do(t, h, http.MethodPost, "/api/v1/checkout/press", "")
	require.Equal(t, http.StatusOK, rec.Code)
	sale := decodeBody(t, rec)["sale"].(map[string]any)
	assert.Equal(t, "Anu", sale["customer"])
	assert.Equal(t, "12", sale["total"])

	assert.Equal(t, 1, app.Ledger.Len())
	assert.True(t, app.Cart.IsEmpty())
}

func TestCheckout_Cancel(t *testing.T) {
	s, app := newTestServer(t)
	h := s.Router()
	do(t, h, http.MethodPost, "/api/v1/cart/items", `{"id":"id-0002"}`)
	do(t, h, http.MethodPost, "/api/v1/checkout/press", "")

	rec := do(t, h, http.MethodPost, "/api/v1/checkout/cancel", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "idle", decodeBody(t, rec)["state"])
	assert.Equal(t, 0, app.Ledger.Len())
	assert.False(t, app.Cart.IsEmpty())
}

func recordSale(t *testing.T, h http.Handler, itemID string) {
	t.Helper()
	do(t, h, http.MethodPost, "/api/v1/cart/items", `{"id":"`+itemID+`"}`)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/v1/checkout/press", "").Code)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/v1/checkout/press", "").Code)
}

func TestSales_ListAndFilter(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Router()
	recordSale(t, h, "id-0006")
	recordSale(t, h, "id-0002")

	rec := do(t, h, http.MethodGet, "/api/v1/sales", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.EqualValues(t, 2, body["count"])
	assert.Equal(t, "42", body["total"])

	rec = do(t, h, http.MethodGet, "/api/v1/sales?month=2024-04", "")
	body = decodeBody(t, rec)
	assert.EqualValues(t, 0, body["count"])
	assert.Equal(t, []any{}, body["sales"])

	rec = do(t, h, http.MethodGet, "/api/v1/sales?month=May", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeValidation, errorCode(t, rec))

	rec = do(t, h, http.MethodGet, "/api/v1/sales/months", "")
	months := decodeBody(t, rec)["months"].([]any)
	require.Len(t, months, 1)
}

func TestSales_ExportCSV(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Router()
	recordSale(t, h, "id-0006")

	rec := do(t, h, http.MethodGet, "/api/v1/sales/export.csv?month=2024-05", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="hotel-bismi-sales-2024-05.csv"`, rec.Header().Get("Content-Disposition"))

	rows := strings.Split(rec.Body.String(), "\n")
	require.Len(t, rows, 2)
	assert.Equal(t, `"Date/Time","Customer","Items","Subtotal","Tax","Total"`, rows[0])
	assert.Contains(t, rows[1], `"Walk-in","Tea x1","12.00","0.00","12.00"`)
}

func TestSales_ExportXLSX(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Router()
	recordSale(t, h, "id-0006")

	rec := do(t, h, http.MethodGet, "/api/v1/sales/export.xlsx", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="hotel-bismi-sales.xlsx"`, rec.Header().Get("Content-Disposition"))

	data := rec.Body.Bytes()
	file, err := xlsx.OpenReaderAt(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, file.Sheets, 1)
	assert.Len(t, file.Sheets[0].Rows, 3)
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.Router()

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodDelete, "/api/v1/sales", http.StatusMethodNotAllowed},
		{http.MethodPost, "/api/v1/sales/months", http.StatusMethodNotAllowed},
		{http.MethodPut, "/api/v1/cart", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/v1/checkout/press", http.StatusMethodNotAllowed},
		{http.MethodPatch, "/api/v1/menu", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/v1/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := do(t, router, tt.method, tt.path, "")
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	s, _ := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
