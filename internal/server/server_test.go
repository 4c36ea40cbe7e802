package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"istasyon-backend/internal/auth"
	"istasyon-backend/internal/models"
	"istasyon-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type client struct {
	t   *testing.T
	app *fiber.App
}

func newClient(t *testing.T) (*client, *testutil.Fixture) {
	t.Helper()
	f := testutil.Seed(t)
	app := New(Options{DB: f.DB, JWTSecret: testSecret, TokenTTL: time.Hour, CORSOrigins: "http://localhost:5173"})
	return &client{t: t, app: app}, f
}

func (c *client) token(u models.User) string {
	c.t.Helper()
	tok, err := auth.GenerateToken(testSecret, time.Hour, &u)
	require.NoError(c.t, err)
	return tok
}

// do, isteği gönderir ve gövdeyi out'a çözer (out nil olabilir).
func (c *client) do(u *models.User, method, path string, body any, out any) *http.Response {
	c.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if u != nil {
		req.Header.Set("Authorization", "Bearer "+c.token(*u))
	}

	resp, err := c.app.Test(req, -1)
	require.NoError(c.t, err)
	if out != nil {
		defer resp.Body.Close()
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

type errorBody struct {
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details"`
}

func TestHealthAndAuthRequired(t *testing.T) {
	c, _ := newClient(t)

	resp := c.do(nil, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))

	var eb errorBody
	resp = c.do(nil, http.MethodGet, "/api/shifts", nil, &eb)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", eb.Code)
}

func TestShiftLifecycleOverHTTP(t *testing.T) {
	c, f := newClient(t)

	var sh models.Shift
	resp := c.do(&f.Attendant, http.MethodPost, "/api/shifts", map[string]any{
		"type":       "morning",
		"nozzle_ids": []uint{f.NozzleA.ID, f.NozzleB.ID},
	}, &sh)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Len(t, sh.Readings, 2)

	// ikinci pompacı aynı tabancayı alamaz
	var eb errorBody
	resp = c.do(&f.Attendant2, http.MethodPost, "/api/shifts", map[string]any{
		"type":       "morning",
		"nozzle_ids": []uint{f.NozzleA.ID},
	}, &eb)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "NOZZLE_UNAVAILABLE", eb.Code)
	assert.EqualValues(t, f.NozzleA.ID, eb.Details["nozzle_id"])

	var active struct {
		Shift models.Shift `json:"shift"`
	}
	resp = c.do(&f.Attendant, http.MethodGet, "/api/shifts/active", nil, &active)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, sh.ID, active.Shift.ID)

	resp = c.do(&f.Attendant, http.MethodPost, fmt.Sprintf("/api/shifts/%d/payments", sh.ID), map[string]any{
		"payment_method_id": f.Cash.ID,
		"amount":            "2000",
		"denominations": []map[string]any{
			{"denomination_id": f.Note200.ID, "count": 10},
		},
	}, nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var detail struct {
		Shift   models.Shift `json:"shift"`
		Summary struct {
			TotalFuelSales string `json:"total_fuel_sales"`
			TotalCollected string `json:"total_collected"`
			Shortage       string `json:"shortage"`
			Balance        string `json:"balance"`
		} `json:"summary"`
	}
	resp = c.do(&f.Attendant, http.MethodPost, fmt.Sprintf("/api/shifts/%d/complete", sh.ID), map[string]any{
		"notes": "sorunsuz",
		"readings": []map[string]any{
			{"nozzle_id": f.NozzleA.ID, "closing_reading": "1050", "test_qty": "2"},
			{"nozzle_id": f.NozzleB.ID, "closing_reading": "520"},
		},
	}, &detail)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, models.ShiftStatusPendingVerification, detail.Shift.Status)
	assert.Equal(t, "sorunsuz", detail.Shift.Notes)
	assert.Equal(t, "6600", detail.Summary.TotalFuelSales)
	assert.Equal(t, "-4600", detail.Summary.Shortage)
	assert.Equal(t, "shortage", detail.Summary.Balance)

	// pompacı doğrulayamaz
	resp = c.do(&f.Attendant, http.MethodPost, fmt.Sprintf("/api/shifts/%d/verify", sh.ID), map[string]any{"approved": true}, &eb)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	var pending []map[string]any
	resp = c.do(&f.Admin, http.MethodGet, "/api/shifts/pending", nil, &pending)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, pending, 1)

	var verified models.Shift
	resp = c.do(&f.Admin, http.MethodPost, fmt.Sprintf("/api/shifts/%d/verify", sh.ID), map[string]any{"approved": true}, &verified)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, models.ShiftStatusVerified, verified.Status)

	resp = c.do(&f.Admin, http.MethodPost, fmt.Sprintf("/api/shifts/%d/payments", sh.ID), map[string]any{
		"payment_method_id": f.Card.ID,
		"amount":            "10",
	}, &eb)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "SHIFT_LOCKED", eb.Code)

	// düzenleme talebi → sahip onayı → yeniden doğrulama
	var req models.EditRequest
	resp = c.do(&f.Admin, http.MethodPost, fmt.Sprintf("/api/shifts/%d/edit-requests", sh.ID), map[string]any{"reason": "kart slipi eksik"}, &req)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = c.do(&f.Manager, http.MethodPost, fmt.Sprintf("/api/shifts/%d/edit-requests", sh.ID), map[string]any{"reason": "tekrar"}, &eb)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "REQUEST_ALREADY_PENDING", eb.Code)

	var queue []models.EditRequest
	resp = c.do(&f.Attendant, http.MethodGet, "/api/edit-requests?status=pending", nil, &queue)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Len(t, queue, 1)

	resp = c.do(&f.Attendant, http.MethodPost, fmt.Sprintf("/api/edit-requests/%d/approve", req.ID), nil, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var reopened struct {
		Shift models.Shift `json:"shift"`
	}
	resp = c.do(&f.Admin, http.MethodGet, fmt.Sprintf("/api/shifts/%d", sh.ID), nil, &reopened)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, models.ShiftStatusPendingVerification, reopened.Shift.Status)

	var logs []map[string]any
	resp = c.do(&f.Admin, http.MethodGet, fmt.Sprintf("/api/audit-logs?entity_type=shift&entity_id=%d", sh.ID), nil, &logs)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, logs)
	assert.NotEmpty(t, logs[0]["request_id"])
}

func TestCrossTenantLooksLikeNotFound(t *testing.T) {
	c, f := newClient(t)

	var sh models.Shift
	resp := c.do(&f.Attendant, http.MethodPost, "/api/shifts", map[string]any{
		"type":       "night",
		"nozzle_ids": []uint{f.NozzleC.ID},
	}, &sh)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var eb errorBody
	resp = c.do(&f.Outsider, http.MethodGet, fmt.Sprintf("/api/shifts/%d", sh.ID), nil, &eb)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "SHIFT_NOT_FOUND", eb.Code)

	resp = c.do(&f.Attendant2, http.MethodDelete, fmt.Sprintf("/api/shifts/%d/nozzles/%d", sh.ID, f.NozzleC.ID), nil, &eb)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = c.do(&f.Attendant, http.MethodDelete, fmt.Sprintf("/api/shifts/%d/nozzles/%d", sh.ID, f.NozzleC.ID), nil, &eb)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "LAST_NOZZLE", eb.Code)
}

func TestCatalogEndpoints(t *testing.T) {
	c, f := newClient(t)

	var nozzles []models.Nozzle
	resp := c.do(&f.Attendant, http.MethodGet, "/api/nozzles?available=true", nil, &nozzles)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, nozzles, 3)

	var methods []models.PaymentMethod
	resp = c.do(&f.Attendant, http.MethodGet, "/api/payment-methods", nil, &methods)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, methods, 2)

	var denoms []models.Denomination
	resp = c.do(&f.Outsider, http.MethodGet, "/api/denominations", nil, &denoms)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, denoms)
}

func TestBadInput(t *testing.T) {
	c, f := newClient(t)

	var eb errorBody
	resp := c.do(&f.Attendant, http.MethodGet, "/api/shifts/abc", nil, &eb)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_INPUT", eb.Code)

	resp = c.do(&f.Attendant, http.MethodGet, "/api/shifts?from=01-02-2025", nil, &eb)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = c.do(&f.Attendant, http.MethodPost, "/api/shifts", map[string]any{"type": "morning"}, &eb)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAdminUsersRequireAdministrator(t *testing.T) {
	c, f := newClient(t)

	var eb errorBody
	resp := c.do(&f.Attendant, http.MethodGet, "/api/admin/users", nil, &eb)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", eb.Code)

	var u models.User
	resp = c.do(&f.Admin, http.MethodPost, "/api/admin/users", map[string]any{
		"name": "Can Pompacı", "email": "can@istasyon.test", "password": "12345678", "role": "attendant",
	}, &u)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, f.Station.ID, u.StationID)

	var login struct {
		Token string `json:"token"`
	}
	resp = c.do(nil, http.MethodPost, "/api/auth/login", map[string]any{"email": "can@istasyon.test", "password": "12345678"}, &login)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, login.Token)
}

func TestShiftExport(t *testing.T) {
	c, f := newClient(t)

	var sh models.Shift
	resp := c.do(&f.Attendant, http.MethodPost, "/api/shifts", map[string]any{
		"type":       "evening",
		"nozzle_ids": []uint{f.NozzleA.ID},
	}, &sh)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = c.do(&f.Attendant, http.MethodGet, fmt.Sprintf("/api/shifts/%d/export", sh.ID), nil, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), fmt.Sprintf("vardiya-%d.xlsx", sh.ID))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("PK")), "xlsx bir zip arşividir")

	resp = c.do(&f.Attendant2, http.MethodGet, fmt.Sprintf("/api/shifts/%d/export", sh.ID), nil, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
