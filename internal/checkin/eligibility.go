package checkin

import (
	"context"
	"errors"
	"time"

	"comedor-backend/internal/models"
	"comedor-backend/internal/store"
)

// WorkerInfo is what the station shows after a successful lookup.
type WorkerInfo struct {
	ID          uint   `json:"id"`
	Code        string `json:"code"`
	FullName    string `json:"full_name"`
	CompanyID   uint   `json:"company_id"`
	CompanyName string `json:"company_name"`
}

// Decision is the outcome of a quota check. Reason is KindUnknown when
// Allowed.
type Decision struct {
	Allowed bool
	Reason  Kind
	Count   int64
	Quota   int
}

type Eligibility struct {
	store Store
}

func NewEligibility(s Store) *Eligibility {
	return &Eligibility{store: s}
}

func (e *Eligibility) LookupWorker(ctx context.Context, code string) (WorkerInfo, error) {
	const op = "lookup worker"

	w, err := e.store.FindWorkerByCode(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return WorkerInfo{}, newError(KindWorkerNotFound, op, nil)
	}
	if err != nil {
		return WorkerInfo{}, storeError(op, err)
	}

	info := WorkerInfo{
		ID:          w.ID,
		Code:        w.Code,
		FullName:    w.FullName(),
		CompanyID:   w.CompanyID,
		CompanyName: "Empresa desconocida",
	}
	if w.Company != nil && w.Company.Name != "" {
		info.CompanyName = w.Company.Name
	}
	return info, nil
}

// CheckQuota applies, in order: the worker must exist and be active, and
// must have fewer meal records on date than its daily quota. It is not
// atomic with any later insert.
func (e *Eligibility) CheckQuota(ctx context.Context, workerID uint, date string) (Decision, error) {
	const op = "check quota"

	w, err := e.store.FindWorkerByID(ctx, workerID)
	if errors.Is(err, store.ErrNotFound) {
		return Decision{Reason: KindInactiveOrMissing}, nil
	}
	if err != nil {
		return Decision{}, storeError(op, err)
	}
	if !w.IsActive() {
		return Decision{Reason: KindInactiveOrMissing, Quota: w.DailyQuota}, nil
	}

	count, err := e.store.CountMealRecords(ctx, workerID, date)
	if err != nil {
		return Decision{}, storeError(op, err)
	}
	if count >= int64(w.DailyQuota) {
		return Decision{Reason: KindDailyLimitReached, Count: count, Quota: w.DailyQuota}, nil
	}
	return Decision{Allowed: true, Count: count, Quota: w.DailyQuota}, nil
}

// Err converts a denial into an error of its kind; nil when allowed.
func (d Decision) Err(op string) error {
	if d.Allowed {
		return nil
	}
	return newError(d.Reason, op, nil)
}

// DateOf is the calendar date of t in loc, formatted for Date columns.
func DateOf(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(models.DateLayout)
}
