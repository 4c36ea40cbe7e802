package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"istasyon-backend/internal/apperror"
	"istasyon-backend/internal/models"
	"istasyon-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestApp(h *Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: apperror.FiberErrorHandler})
	app.Post("/api/auth/login", h.Login)
	protected := app.Group("/api", JWTMiddleware(testSecret))
	protected.Get("/auth/me", h.Me)
	protected.Get("/admin-only", RequireAdmin(), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestToken_RoundTrip(t *testing.T) {
	user := &models.User{ID: 9, StationID: 4, Name: "Ali", Email: "ali@x", Role: models.RoleAttendant}

	token, err := GenerateToken(testSecret, time.Hour, user)
	require.NoError(t, err)

	claims, err := ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, uint(9), claims.UserID)
	assert.Equal(t, uint(4), claims.StationID)
	assert.Equal(t, models.RoleAttendant, claims.Role)

	_, err = ParseToken("another-secret-another-secret-xx", token)
	assert.Error(t, err)
}

func TestToken_Expired(t *testing.T) {
	user := &models.User{ID: 1, StationID: 1, Role: models.RoleAdmin}
	token, err := GenerateToken(testSecret, -time.Minute, user)
	require.NoError(t, err)

	_, err = ParseToken(testSecret, token)
	assert.Error(t, err)
}

func TestLoginAndMe(t *testing.T) {
	f := testutil.Seed(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("gizli-sifre"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, f.DB.Model(&f.Attendant).Update("password_hash", string(hash)).Error)

	app := newTestApp(NewHandler(f.DB, testSecret, time.Hour))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"  ALI@istasyon.test ","password":"gizli-sifre"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
	require.NotEmpty(t, login.Token)

	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var me map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&me))
	assert.Equal(t, "Ali Pompacı", me["name"])
	assert.Equal(t, false, me["is_admin"])
	assert.Equal(t, float64(f.Station.ID), me["station_id"])
}

func TestLogin_WrongPassword(t *testing.T) {
	f := testutil.Seed(t)
	app := newTestApp(NewHandler(f.DB, testSecret, time.Hour))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"ali@istasyon.test","password":"yanlis"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMiddleware_RejectsMissingAndMalformed(t *testing.T) {
	f := testutil.Seed(t)
	app := newTestApp(NewHandler(f.DB, testSecret, time.Hour))

	for _, header := range []string{"", "Token abc", "Bearer not-a-jwt"} {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, header)
	}
}

func TestRequireAdmin(t *testing.T) {
	f := testutil.Seed(t)
	app := newTestApp(NewHandler(f.DB, testSecret, time.Hour))

	cases := []struct {
		user *models.User
		want int
	}{
		{&f.Admin, http.StatusOK},
		{&f.Manager, http.StatusOK},
		{&f.Attendant, http.StatusForbidden},
	}
	for _, tc := range cases {
		token, err := GenerateToken(testSecret, time.Hour, tc.user)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/admin-only", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, tc.want, resp.StatusCode, string(tc.user.Role))
	}
}
