package checkin

import (
	"context"

	"comedor-backend/internal/models"
)

// Store is the shared, network-reachable store every station registers
// against. Lookups return store.ErrNotFound (wrapped) when nothing matches.
type Store interface {
	FindWorkerByCode(ctx context.Context, code string) (*models.Worker, error)
	FindWorkerByID(ctx context.Context, id uint) (*models.Worker, error)
	CountMealRecords(ctx context.Context, workerID uint, date string) (int64, error)
	InsertMealRecord(ctx context.Context, rec *models.MealRecord) error
	FindBulkRecord(ctx context.Context, companyID, shiftID uint, date string) (*models.BulkMealRecord, error)
	InsertBulkRecord(ctx context.Context, rec *models.BulkMealRecord) error
	InsertAuditEntry(ctx context.Context, e *models.AuditEntry) error
	ListCompanies(ctx context.Context) ([]models.Company, error)
	ListShifts(ctx context.Context) ([]models.Shift, error)
}

// ShiftLister lists the configured meal services, ordered by start.
type ShiftLister interface {
	ListShifts(ctx context.Context) ([]models.Shift, error)
}

// AuditQueue takes audit entries whose synchronous write failed.
type AuditQueue interface {
	Enqueue(entry models.AuditEntry)
}

// Observer receives check-in events for metrics.
type Observer interface {
	ObserveScan(result string)
	ObserveRegistration(kind models.AuditKind, outcome string)
	ObserveAuditFailure()
}

type noopObserver struct{}

func (noopObserver) ObserveScan(string)                           {}
func (noopObserver) ObserveRegistration(models.AuditKind, string) {}
func (noopObserver) ObserveAuditFailure()                         {}
