package checkin_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comedor-backend/internal/checkin"
	"comedor-backend/internal/database"
	"comedor-backend/internal/models"
	"comedor-backend/internal/session"
	"comedor-backend/internal/shift"
	"comedor-backend/internal/store"
)

func openStore(t *testing.T) *store.Gorm {
	t.Helper()

	db, err := database.Open("sqlite", filepath.Join(t.TempDir(), "comedor.sqlite"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.SeedShifts(db))
	return store.NewGorm(db, time.Second)
}

func TestEndToEndScenarios(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)
	lima := time.FixedZone("PET", -5*3600)
	now := time.Date(2025, 6, 18, 12, 10, 0, 0, lima)

	company := models.Company{Name: "Minera Sur"}
	require.NoError(t, st.CreateCompany(ctx, &company))
	worker := models.Worker{
		CompanyID: company.ID, Code: "12345678", FirstName: "Rosa", LastName: "Mamani",
		Role: "worker", DailyQuota: 3, Status: models.WorkerActive,
	}
	require.NoError(t, st.CreateWorker(ctx, &worker))

	shifts, err := st.ListShifts(ctx)
	require.NoError(t, err)
	lunch, ok := shift.FindByName(shifts, models.ShiftLunch)
	require.True(t, ok)
	dinner, ok := shift.FindByName(shifts, models.ShiftDinner)
	require.True(t, ok)

	reg := checkin.NewRegistrar(st, checkin.WithLocation(lima))

	t.Run("A: active worker gets a lunch record", func(t *testing.T) {
		rec, err := reg.RegisterIndividual(ctx, checkin.IndividualRequest{
			WorkerID: worker.ID, ShiftID: lunch.ID, OperatorID: 1, Now: now,
		})
		require.NoError(t, err)
		assert.Equal(t, lunch.ID, rec.ShiftID)

		count, err := st.CountMealRecords(ctx, worker.ID, "2025-06-18")
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("B: unknown code ends in WorkerNotFound", func(t *testing.T) {
		_, err := reg.Eligibility().LookupWorker(ctx, "99999999")
		require.ErrorIs(t, err, checkin.ErrWorkerNotFound)

		wf := checkin.NewWorkflow(reg, st, session.Static{ID: 1}, checkin.WorkflowConfig{})
		snap, err := wf.Scan(ctx, "99999999", now)
		require.ErrorIs(t, err, checkin.ErrWorkerNotFound)
		assert.Equal(t, checkin.StateWorkerNotFound, snap.State)
	})

	t.Run("C: bulk registration is unique per company, shift and date", func(t *testing.T) {
		rec, err := reg.RegisterBulk(ctx, checkin.BulkRequest{
			CompanyID: company.ID, ShiftID: dinner.ID, Quantity: 40, OperatorID: 1, Date: "2025-06-18", Now: now,
		})
		require.NoError(t, err)
		assert.Equal(t, 40, rec.Quantity)

		_, err = reg.RegisterBulk(ctx, checkin.BulkRequest{
			CompanyID: company.ID, ShiftID: dinner.ID, Quantity: 10, OperatorID: 1, Date: "2025-06-18", Now: now,
		})
		assert.ErrorIs(t, err, checkin.ErrDuplicateBulkRegistration)
	})

	t.Run("every registration has an audit entry", func(t *testing.T) {
		var entries []models.AuditEntry
		require.NoError(t, st.DB().Order("id asc").Find(&entries).Error)
		require.Len(t, entries, 2)
		assert.Equal(t, models.AuditKindIndividual, entries[0].Kind)
		assert.Equal(t, models.AuditKindBulk, entries[1].Kind)
	})

	t.Run("workflow drives a full check-in", func(t *testing.T) {
		wf := checkin.NewWorkflow(reg, st, session.Static{ID: 2}, checkin.WorkflowConfig{})
		snap, err := wf.Scan(ctx, " 12345678 ", now.Add(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, "Rosa Mamani", snap.Worker.FullName)
		assert.Equal(t, models.ShiftLunch, snap.Shift.Name)

		snap, err = wf.Confirm(ctx, now.Add(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, checkin.StateSuccess, snap.State)

		count, err := st.CountMealRecords(ctx, worker.ID, "2025-06-18")
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})
}
