package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"comedor-backend/internal/config"
	"comedor-backend/internal/database"
	"comedor-backend/internal/models"
	"comedor-backend/internal/session"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open("sqlite", filepath.Join(t.TempDir(), "auth.sqlite"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func testConfig() *config.Config {
	return &config.Config{JWTSecret: strings.Repeat("k", 32)}
}

func jsonBody(t *testing.T, v any) *bytes.Reader {
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(raw)
}

func TestTokenRoundTripCarriesOperator(t *testing.T) {
	company := uint(3)
	user := &models.User{ID: 9, Username: "caja1", Role: models.RoleOperator, CompanyID: &company}

	token, err := GenerateToken("secret", user, time.Now())
	require.NoError(t, err)

	claims, err := ParseToken("secret", token)
	require.NoError(t, err)
	op := claims.Operator()
	assert.Equal(t, uint(9), op.ID)
	assert.Equal(t, "caja1", op.Username)
	assert.Equal(t, models.RoleOperator, op.Role)
	assert.Equal(t, &company, op.CompanyID)

	_, err = ParseToken("other-secret", token)
	assert.Error(t, err)

	expired, err := GenerateToken("secret", user, time.Now().Add(-25*time.Hour))
	require.NoError(t, err)
	_, err = ParseToken("secret", expired)
	assert.Error(t, err)
}

func TestVerify(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	_, err := CreateUser(ctx, db, "Caja Uno", " Caja1 ", "s3cret-pass", models.RoleOperator, nil)
	require.NoError(t, err)

	user, err := Verify(ctx, db, "CAJA1", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, "caja1", user.Username)

	_, err = Verify(ctx, db, "caja1", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = Verify(ctx, db, "nobody", "s3cret-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCreateFirstAdminOnlyOnce(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	_, err := CreateFirstAdmin(ctx, db, "Admin", "admin", "password1")
	require.NoError(t, err)
	_, err = CreateFirstAdmin(ctx, db, "Admin 2", "admin2", "password2")
	assert.ErrorIs(t, err, ErrAdminExists)
}

func TestLoginMiddlewareAndMe(t *testing.T) {
	db := testDB(t)
	cfg := testConfig()

	app := fiber.New()
	app.Post("/auth/register-admin", RegisterAdminHandler(db))
	app.Post("/auth/login", LoginHandler(cfg, db))

	protected := app.Group("", JWTMiddleware(cfg))
	protected.Get("/auth/me", MeHandler(db))
	protected.Get("/whoami", func(c *fiber.Ctx) error {
		op, ok := session.FromContext(c.UserContext())
		if !ok {
			return fiber.ErrUnauthorized
		}
		return c.JSON(fiber.Map{"id": op.ID, "username": op.Username})
	})
	protected.Get("/admin-only", RequireRole(models.RoleAdmin), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })
	protected.Get("/operators-only", RequireRole(models.RoleOperator), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	req := httptest.NewRequest("POST", "/auth/register-admin", jsonBody(t, RegisterAdminRequest{Name: "Admin", Username: "Admin", Password: "password1"}))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	req = httptest.NewRequest("POST", "/auth/register-admin", jsonBody(t, RegisterAdminRequest{Name: "X", Username: "x", Password: "password1"}))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	login := func(password string) (int, string) {
		req := httptest.NewRequest("POST", "/auth/login", jsonBody(t, LoginRequest{Username: "admin", Password: password}))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		var body struct {
			Token string `json:"token"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return resp.StatusCode, body.Token
	}

	status, _ := login("nope")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	status, token := login("password1")
	require.Equal(t, fiber.StatusOK, status)
	require.NotEmpty(t, token)

	get := func(path, token string) int {
		req := httptest.NewRequest("GET", path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusUnauthorized, get("/auth/me", ""))
	assert.Equal(t, fiber.StatusUnauthorized, get("/auth/me", "garbage"))
	assert.Equal(t, fiber.StatusOK, get("/auth/me", token))
	assert.Equal(t, fiber.StatusOK, get("/whoami", token))
	assert.Equal(t, fiber.StatusNoContent, get("/admin-only", token))
	assert.Equal(t, fiber.StatusForbidden, get("/operators-only", token))
}
