package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comedor-backend/internal/catalog"
	"comedor-backend/internal/database"
	"comedor-backend/internal/models"
	"comedor-backend/internal/store"
)

func newService(t *testing.T) (*Service, models.Company) {
	t.Helper()
	db, err := database.Open("sqlite", filepath.Join(t.TempDir(), "worker.sqlite"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	st := store.NewGorm(db, time.Second)
	company := models.Company{Name: "Minera Sur"}
	require.NoError(t, st.CreateCompany(context.Background(), &company))

	return NewService(st, catalog.New(st, 0)), company
}

func intPtr(v int) *int { return &v }

func TestRegisterAppliesDefaults(t *testing.T) {
	svc, company := newService(t)

	w, err := svc.Register(context.Background(), RegisterInput{
		CompanyID: company.ID, Code: " 12345678 ", FirstName: " Ana ", LastName: "Quispe",
	})
	require.NoError(t, err)
	assert.NotZero(t, w.ID)
	assert.Equal(t, "12345678", w.Code)
	assert.Equal(t, "Ana Quispe", w.FullName())
	assert.Equal(t, "worker", w.Role)
	assert.Equal(t, models.DefaultDailyQuota, w.DailyQuota)
	assert.Equal(t, models.WorkerActive, w.Status)
	require.NotNil(t, w.Company)
	assert.Equal(t, "Minera Sur", w.Company.Name)

	got, err := svc.Get(context.Background(), "12345678")
	require.NoError(t, err)
	assert.Equal(t, w.ID, got.ID)
}

func TestRegisterValidation(t *testing.T) {
	svc, company := newService(t)
	valid := func() RegisterInput {
		return RegisterInput{CompanyID: company.ID, Code: "87654321", FirstName: "Luis", LastName: "Rojas"}
	}

	cases := map[string]struct {
		mutate func(*RegisterInput)
		field  string
	}{
		"no company":      {func(in *RegisterInput) { in.CompanyID = 0 }, "company_id"},
		"short code":      {func(in *RegisterInput) { in.Code = "1234567" }, "code"},
		"letters in code": {func(in *RegisterInput) { in.Code = "1234567a" }, "code"},
		"blank names":     {func(in *RegisterInput) { in.FirstName = "  " }, "first_name"},
		"blank surname":   {func(in *RegisterInput) { in.LastName = "" }, "last_name"},
		"zero quota":      {func(in *RegisterInput) { in.DailyQuota = intPtr(0) }, "daily_quota"},
		"unknown status":  {func(in *RegisterInput) { in.Status = "suspended" }, "status"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			in := valid()
			tc.mutate(&in)
			_, err := svc.Register(context.Background(), in)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestRegisterAcceptsSpanishStatus(t *testing.T) {
	svc, company := newService(t)
	w, err := svc.Register(context.Background(), RegisterInput{
		CompanyID: company.ID, Code: "11223344", FirstName: "Rosa", LastName: "Mamani",
		Status: "Inactivo", DailyQuota: intPtr(2),
	})
	require.NoError(t, err)
	assert.Equal(t, models.WorkerInactive, w.Status)
	assert.Equal(t, 2, w.DailyQuota)
}

func TestRegisterRejectsDuplicateAndUnknownCompany(t *testing.T) {
	svc, company := newService(t)
	in := RegisterInput{CompanyID: company.ID, Code: "55556666", FirstName: "Jose", LastName: "Huaman"}

	_, err := svc.Register(context.Background(), in)
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), in)
	assert.ErrorIs(t, err, ErrDuplicateWorkerCode)

	in.Code = "55556667"
	in.CompanyID = 99
	_, err = svc.Register(context.Background(), in)
	assert.ErrorIs(t, err, ErrUnknownCompany)
}

func TestHandlers(t *testing.T) {
	svc, company := newService(t)
	app := fiber.New()
	app.Post("/workers", RegisterHandler(svc))
	app.Get("/workers/:code", GetHandler(svc))

	post := func(in RegisterInput) int {
		body, err := json.Marshal(in)
		require.NoError(t, err)
		req := httptest.NewRequest("POST", "/workers", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	in := RegisterInput{CompanyID: company.ID, Code: "99887766", FirstName: "Carla", LastName: "Ccori"}
	assert.Equal(t, fiber.StatusCreated, post(in))
	assert.Equal(t, fiber.StatusConflict, post(in))
	assert.Equal(t, fiber.StatusBadRequest, post(RegisterInput{CompanyID: company.ID, Code: "1"}))

	resp, err := app.Test(httptest.NewRequest("GET", "/workers/99887766", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var got WorkerResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "Carla Ccori", got.FullName)
	assert.Equal(t, "Minera Sur", got.CompanyName)

	resp, err = app.Test(httptest.NewRequest("GET", "/workers/00000000", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
