package lab

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"aligner-lab-backend/internal/catalog"
	"aligner-lab-backend/internal/production"
	"aligner-lab-backend/internal/store/memstore"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp() *fiber.App {
	svc := production.NewService(memstore.New(), catalog.Static{"alinhador": true},
		production.WithClock(func() time.Time { return time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC) }))

	app := fiber.New()
	app.Post("/cases", CreateCaseHandler(svc))
	app.Get("/cases", ListCasesHandler(svc))
	app.Get("/cases/:id", GetCaseHandler(svc))
	app.Put("/cases/:id/installation", RecordInstallationHandler(svc))
	app.Post("/cases/:id/patient-deliveries", RecordPatientDeliveryHandler(svc))
	app.Post("/cases/:id/actual-changes", RecordActualChangeHandler(svc))
	app.Post("/cases/:id/delivery-lots", RegisterDeliveryLotHandler(svc))
	app.Post("/cases/:id/rework", ReworkTrayHandler(svc))
	app.Post("/cases/:id/bank/seed", SeedBankHandler(svc))
	app.Get("/cases/:id/bank", BankSummaryHandler(svc))
	app.Get("/cases/:id/replenishment", ReplenishmentHandler(svc))
	app.Post("/work-items", CreateWorkItemHandler(svc))
	app.Get("/work-items", ListWorkItemsHandler(svc))
	app.Get("/work-items/:id", GetWorkItemHandler(svc))
	app.Post("/work-items/:id/transition", TransitionWorkItemHandler(svc))
	app.Post("/work-items/:id/sync", SyncWorkItemHandler(svc))
	app.Delete("/work-items/:id", DeleteWorkItemHandler(svc))
	return app
}

func call(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func TestWorkItemFlowOverHTTP(t *testing.T) {
	app := newTestApp()

	code, body := call(t, app, "POST", "/cases", `{"code":"ALN-100","patient_name":"Bruno Lima","total_trays_upper":4,"total_trays_lower":2}`)
	require.Equal(t, fiber.StatusCreated, code)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, float64(1), body["id"])

	code, body = call(t, app, "POST", "/work-items", `{"case_id":1,"arch":"ambos","tray_number":1,"qty_upper":2,"qty_lower":2}`)
	require.Equal(t, fiber.StatusCreated, code)
	itemID := body["id"]
	path := "/work-items/" + jsonNumber(itemID)

	code, body = call(t, app, "POST", path+"/transition", `{"status":"em_producao"}`)
	assert.Equal(t, fiber.StatusConflict, code)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, "cancelled", body["kind"])

	code, body = call(t, app, "POST", path+"/transition", `{"status":"em_producao","confirm":true}`)
	require.Equal(t, fiber.StatusOK, code, body)
	assert.Equal(t, true, body["ok"])

	code, body = call(t, app, "GET", "/cases/1/bank", "")
	require.Equal(t, fiber.StatusOK, code)
	total := body["total"].(map[string]any)
	assert.Equal(t, float64(2), total["available"])
	assert.Equal(t, float64(4), total["in_production_or_delivered"])

	code, body = call(t, app, "POST", path+"/transition", `{"status":"prontas"}`)
	assert.Equal(t, fiber.StatusConflict, code)
	assert.Equal(t, "invalid_transition", body["kind"])

	code, _ = call(t, app, "POST", path+"/sync", "")
	assert.Equal(t, fiber.StatusOK, code)

	code, _ = call(t, app, "DELETE", path, "")
	assert.Equal(t, fiber.StatusOK, code)
	code, body = call(t, app, "GET", path, "")
	assert.Equal(t, fiber.StatusNotFound, code)
	assert.Equal(t, "not_found", body["kind"])
}

func TestInsufficientBalanceReportsArch(t *testing.T) {
	app := newTestApp()
	call(t, app, "POST", "/cases", `{"code":"ALN-200","patient_name":"Carla","total_trays_upper":2,"total_trays_lower":2}`)
	_, body := call(t, app, "POST", "/work-items", `{"case_id":1,"arch":"superior","tray_number":1,"qty_upper":3}`)

	code, body := call(t, app, "POST", "/work-items/"+jsonNumber(body["id"])+"/transition", `{"status":"em_producao","confirm":true}`)
	assert.Equal(t, fiber.StatusConflict, code)
	assert.Equal(t, "insufficient_balance", body["kind"])
	assert.Equal(t, "superior", body["arch"])
	assert.Equal(t, float64(2), body["available"])
	assert.Equal(t, float64(3), body["requested"])
}

func TestDeliveryReworkAndReplenishment(t *testing.T) {
	app := newTestApp()
	call(t, app, "POST", "/cases", `{"code":"ALN-300","patient_name":"Davi","total_trays_upper":6,"total_trays_lower":6}`)

	code, _ := call(t, app, "PUT", "/cases/1/installation", `{"installed_at":"2024-01-01"}`)
	require.Equal(t, fiber.StatusOK, code)

	code, _ = call(t, app, "POST", "/cases/1/delivery-lots", `{"arch":"ambos","from_tray":1,"to_tray":2,"date":"2024-01-01"}`)
	require.Equal(t, fiber.StatusCreated, code)

	code, body := call(t, app, "POST", "/cases/1/rework", `{"tray_number":2,"arch":"ambos"}`)
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, float64(2), body["defective"])
	assert.Len(t, body["work_items"], 2)

	code, _ = call(t, app, "POST", "/cases/1/patient-deliveries", `{"arch":"ambos","from_tray":1,"to_tray":1,"date":"2024-01-01"}`)
	require.Equal(t, fiber.StatusOK, code)
	code, _ = call(t, app, "POST", "/cases/1/actual-changes", `{"tray_number":2,"changed_at":"2024-01-05"}`)
	require.Equal(t, fiber.StatusOK, code)

	code, body = call(t, app, "GET", "/cases/1/replenishment", "")
	require.Equal(t, fiber.StatusOK, code)
	next := body["next_due"].(map[string]any)
	assert.Equal(t, float64(2), next["tray_number"])
	alerts := body["alerts"].([]any)
	require.Len(t, alerts, 1)
	assert.Equal(t, "elevado", alerts[0].(map[string]any)["level"])

	code, body = call(t, app, "POST", "/cases/1/bank/seed", "")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, float64(0), body["created"])

	code, body = call(t, app, "GET", "/cases/1", "")
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "em_entrega", body["status"])
}

func TestRequestErrors(t *testing.T) {
	app := newTestApp()

	code, _ := call(t, app, "GET", "/cases/abc", "")
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, body := call(t, app, "GET", "/cases/9", "")
	assert.Equal(t, fiber.StatusNotFound, code)
	assert.Equal(t, "Caso 9 não encontrado", body["message"])

	code, _ = call(t, app, "POST", "/cases", `{"code":`)
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, body = call(t, app, "POST", "/cases", `{"code":"X","patient_name":"Y"}`)
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, "validation", body["kind"])

	code, _ = call(t, app, "PUT", "/cases/1/installation", `{"installed_at":"01/02/2024"}`)
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, _ = call(t, app, "GET", "/work-items?case_id=x", "")
	assert.Equal(t, fiber.StatusBadRequest, code)
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("date", "2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC), d)

	_, err = parseDate("date", "2024-03-05T10:00:00-03:00")
	assert.NoError(t, err)

	_, err = parseDate("date", "")
	assert.Error(t, err)
}

func jsonNumber(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}
