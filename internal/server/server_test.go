package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"inventory-backend/internal/config"
	"inventory-backend/internal/database"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(t *testing.T) *fiber.App {
	t.Helper()
	l, _ := test.NewNullLogger()
	cfg := &config.Config{DatabaseDriver: config.DriverSQLite, DatabaseDSN: ":memory:", CORSOrigins: "*"}
	db, err := database.Open(cfg, l)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, l, "Default Store"))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return New(cfg, l, db, prometheus.NewRegistry())
}

func call(t *testing.T, app *fiber.App, method, path string, body any) (int, []byte) {
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
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, b []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(b, &v), string(b))
	return v
}

type item struct {
	ID           uint   `json:"id"`
	StoreID      uint   `json:"store_id"`
	Brand        string `json:"brand"`
	Item         string `json:"item"`
	Location     string `json:"location"`
	CurrentCount int    `json:"currentCount"`
	TargetAmount int    `json:"targetAmount"`
	Extra        int    `json:"extra"`
	Active       bool   `json:"active"`
	Status       string `json:"status"`
	Needed       int    `json:"needed"`
}

type storeResp struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func TestShoppingScenario(t *testing.T) {
	app := newApp(t)

	status, body := call(t, app, "POST", "/api/inventory", fiber.Map{
		"brand": "Acme", "item": "Soap", "location": "Bath", "currentCount": 1, "targetAmount": 3,
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	soap := decode[item](t, body)
	assert.Equal(t, uint(1), soap.StoreID)
	assert.Equal(t, "Low Stock", soap.Status)

	status, body = call(t, app, "GET", "/api/shopping-list?store_id=1", nil)
	require.Equal(t, http.StatusOK, status)
	list := decode[[]item](t, body)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].Needed)

	status, _ = call(t, app, "PATCH", fmt.Sprintf("/api/inventory/%d/quantity", soap.ID), fiber.Map{"currentCount": 3, "targetAmount": 3})
	require.Equal(t, http.StatusOK, status)
	status, body = call(t, app, "PATCH", fmt.Sprintf("/api/inventory/%d/extra", soap.ID), fiber.Map{"extra": 1})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "In Stock", decode[item](t, body).Status)

	_, body = call(t, app, "GET", "/api/shopping-list", nil)
	list = decode[[]item](t, body)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].Needed)
	assert.Equal(t, "In Stock", list[0].Status)
}

func TestPurchaseEndpoint(t *testing.T) {
	app := newApp(t)

	status, body := call(t, app, "POST", "/api/inventory", fiber.Map{
		"brand": "Acme", "item": "Rice", "location": "Pantry", "currentCount": 0, "targetAmount": 2,
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	rice := decode[item](t, body)

	status, body = call(t, app, "PATCH", fmt.Sprintf("/api/inventory/%d/purchase", rice.ID), fiber.Map{"amount": 2})
	require.Equal(t, http.StatusOK, status, string(body))
	got := decode[item](t, body)
	assert.Equal(t, 2, got.CurrentCount)
	assert.Equal(t, "In Stock", got.Status)

	_, body = call(t, app, "GET", "/api/shopping-list", nil)
	assert.Empty(t, decode[[]item](t, body))

	status, _ = call(t, app, "PATCH", fmt.Sprintf("/api/inventory/%d/purchase", rice.ID), fiber.Map{"amount": 0})
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = call(t, app, "PATCH", fmt.Sprintf("/api/inventory/%d/purchase", rice.ID), fiber.Map{})
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = call(t, app, "PATCH", "/api/inventory/999/purchase", fiber.Map{"amount": 1})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestItemValidationAndErrors(t *testing.T) {
	app := newApp(t)

	status, body := call(t, app, "POST", "/api/inventory", fiber.Map{"brand": "", "item": "Soap", "location": "Bath"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "brand is required", decode[map[string]string](t, body)["error"])

	status, _ = call(t, app, "PUT", "/api/inventory/99", fiber.Map{"brand": "a", "item": "b", "location": "c", "currentCount": 0, "targetAmount": 0})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = call(t, app, "PATCH", "/api/inventory/abc/extra", fiber.Map{"extra": 1})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = call(t, app, "GET", "/api/inventory?store_id=x", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = call(t, app, "POST", "/api/inventory", fiber.Map{"store_id": 7, "brand": "a", "item": "b", "location": "c"})
	assert.Equal(t, http.StatusNotFound, status)

	_, body = call(t, app, "GET", "/api/inventory", nil)
	assert.Empty(t, decode[[]item](t, body))
}

func TestActiveToggleAndInactiveList(t *testing.T) {
	app := newApp(t)

	_, body := call(t, app, "POST", "/api/inventory", fiber.Map{"brand": "Acme", "item": "Soap", "location": "Bath"})
	soap := decode[item](t, body)

	status, _ := call(t, app, "PATCH", fmt.Sprintf("/api/inventory/%d/active", soap.ID), fiber.Map{})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = call(t, app, "PATCH", fmt.Sprintf("/api/inventory/%d/active", soap.ID), fiber.Map{"active": false})
	require.Equal(t, http.StatusOK, status)

	_, body = call(t, app, "GET", "/api/inventory", nil)
	assert.Empty(t, decode[[]item](t, body))
	_, body = call(t, app, "GET", "/api/inventory/inactive", nil)
	assert.Len(t, decode[[]item](t, body), 1)

	_, body = call(t, app, "GET", "/api/locations", nil)
	assert.Equal(t, []string{"Bath"}, decode[[]string](t, body))

	status, _ = call(t, app, "DELETE", fmt.Sprintf("/api/inventory/%d", soap.ID), nil)
	assert.Equal(t, http.StatusNoContent, status)
}

func TestStoreLifecycle(t *testing.T) {
	app := newApp(t)

	_, body := call(t, app, "GET", "/api/stores", nil)
	stores := decode[[]storeResp](t, body)
	require.Len(t, stores, 1)
	assert.Equal(t, "Default Store", stores[0].Name)

	call(t, app, "POST", "/api/inventory", fiber.Map{"brand": "Acme", "item": "Soap", "location": "Bath", "currentCount": 2, "targetAmount": 4})

	status, body := call(t, app, "POST", "/api/stores", fiber.Map{"name": "Cabin", "copyFromStoreId": 1})
	require.Equal(t, http.StatusCreated, status, string(body))
	cabin := decode[storeResp](t, body)

	_, body = call(t, app, "GET", fmt.Sprintf("/api/inventory?store_id=%d", cabin.ID), nil)
	copied := decode[[]item](t, body)
	require.Len(t, copied, 1)
	assert.Zero(t, copied[0].CurrentCount)
	assert.Zero(t, copied[0].TargetAmount)

	status, body = call(t, app, "POST", "/api/stores", fiber.Map{"name": "Cabin"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, decode[map[string]string](t, body)["error"], "already exists")

	status, body = call(t, app, "PUT", fmt.Sprintf("/api/stores/%d", cabin.ID), fiber.Map{"name": "Lake House"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Lake House", decode[storeResp](t, body).Name)

	status, _ = call(t, app, "DELETE", fmt.Sprintf("/api/stores/%d", cabin.ID), nil)
	require.Equal(t, http.StatusNoContent, status)

	_, body = call(t, app, "GET", fmt.Sprintf("/api/inventory?store_id=%d", cabin.ID), nil)
	assert.Empty(t, decode[[]item](t, body))

	status, body = call(t, app, "DELETE", "/api/stores/1", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "cannot delete the last remaining store", decode[map[string]string](t, body)["error"])
}

func TestLocationEndpoints(t *testing.T) {
	app := newApp(t)

	call(t, app, "POST", "/api/inventory", fiber.Map{"brand": "Acme", "item": "Rice", "location": "Dry Goods"})
	call(t, app, "POST", "/api/inventory", fiber.Map{"brand": "Acme", "item": "Beans", "location": "Dry Goods"})
	call(t, app, "POST", "/api/inventory", fiber.Map{"brand": "Acme", "item": "Soap", "location": "Bath"})

	_, body := call(t, app, "GET", "/api/inventory/location/Dry%20Goods", nil)
	assert.Len(t, decode[[]item](t, body), 2)

	status, body := call(t, app, "PUT", "/api/locations/Dry%20Goods?store_id=1", fiber.Map{"name": "Cellar"})
	require.Equal(t, http.StatusOK, status, string(body))
	res := decode[map[string]any](t, body)
	assert.Equal(t, float64(2), res["matched"])
	assert.Equal(t, float64(2), res["affected"])

	_, body = call(t, app, "GET", "/api/locations?store_id=1", nil)
	assert.Equal(t, []string{"Bath", "Cellar"}, decode[[]string](t, body))

	status, _ = call(t, app, "DELETE", "/api/locations/Nowhere", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = call(t, app, "DELETE", "/api/locations/Cellar", nil)
	require.Equal(t, http.StatusOK, status)
	_, body = call(t, app, "GET", "/api/locations", nil)
	assert.Equal(t, []string{"Bath"}, decode[[]string](t, body))
}

func TestAuditUndoEndpoint(t *testing.T) {
	app := newApp(t)

	_, body := call(t, app, "POST", "/api/inventory", fiber.Map{"brand": "Acme", "item": "Soap", "location": "Bath"})
	soap := decode[item](t, body)
	call(t, app, "DELETE", fmt.Sprintf("/api/inventory/%d", soap.ID), nil)

	_, body = call(t, app, "GET", "/api/audit-logs?entity_type=item", nil)
	logs := decode[[]struct {
		ID        uint   `json:"id"`
		Action    string `json:"action"`
		RequestID string `json:"request_id"`
	}](t, body)
	require.Len(t, logs, 2)
	assert.Equal(t, "delete", logs[0].Action)
	assert.NotEmpty(t, logs[0].RequestID)

	status, body := call(t, app, "POST", fmt.Sprintf("/api/audit-logs/%d/undo", logs[0].ID), nil)
	require.Equal(t, http.StatusOK, status, string(body))

	_, body = call(t, app, "GET", "/api/inventory", nil)
	restored := decode[[]item](t, body)
	require.Len(t, restored, 1)
	assert.Equal(t, "Soap", restored[0].Item)

	status, _ = call(t, app, "POST", fmt.Sprintf("/api/audit-logs/%d/undo", logs[0].ID), nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestImportAndExport(t *testing.T) {
	app := newApp(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "stock.csv")
	require.NoError(t, err)
	_, err = io.WriteString(fw, "brand,item,location,target,needed\nAcme,Soap,Bath,3,2\n,Nothing,Bath,1,1\n")
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/inventory/import?store_id=1", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(out))
	res := decode[map[string]any](t, out)
	assert.Equal(t, float64(1), res["imported"])
	assert.Equal(t, float64(1), res["skipped"])

	resp2, err := app.Test(httptest.NewRequest("GET", "/api/shopping-list/export", nil), -1)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
	assert.True(t, strings.Contains(resp2.Header.Get("Content-Disposition"), "shopping-list-store-1.xlsx"))
}

func TestMetricsEndpoint(t *testing.T) {
	app := newApp(t)
	call(t, app, "GET", "/api/stores", nil)

	status, body := call(t, app, "GET", "/metrics", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `inventory_http_requests_total{method="GET",route="/api/stores",status="200"} 1`)
}
