package checkin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"comedor-backend/internal/logging"
	"comedor-backend/internal/models"
	"comedor-backend/internal/store"
)

type IndividualRequest struct {
	WorkerID   uint
	ShiftID    uint
	OperatorID uint
	Now        time.Time
}

type BulkRequest struct {
	CompanyID  uint
	ShiftID    uint
	Quantity   int
	OperatorID uint
	// Date defaults to the calendar date of Now.
	Date string
	Now  time.Time
}

// Registrar creates meal records and their audit entries.
//
// By default the quota check and the insert are separate store calls, so two
// stations scanning the same worker at the quota boundary can both pass the
// check. WithStrictQuota serializes check+insert per worker inside this
// process, which covers every station served by one instance.
type Registrar struct {
	store       Store
	eligibility *Eligibility
	audit       AuditQueue
	observer    Observer
	loc         *time.Location
	strict      bool
	locks       *keyedMutex
}

type RegistrarOption func(*Registrar)

func WithAuditQueue(q AuditQueue) RegistrarOption {
	return func(r *Registrar) { r.audit = q }
}

func WithObserver(o Observer) RegistrarOption {
	return func(r *Registrar) {
		if o != nil {
			r.observer = o
		}
	}
}

func WithLocation(loc *time.Location) RegistrarOption {
	return func(r *Registrar) {
		if loc != nil {
			r.loc = loc
		}
	}
}

func WithStrictQuota(strict bool) RegistrarOption {
	return func(r *Registrar) { r.strict = strict }
}

func NewRegistrar(s Store, opts ...RegistrarOption) *Registrar {
	r := &Registrar{
		store:       s,
		eligibility: NewEligibility(s),
		observer:    noopObserver{},
		loc:         time.Local,
		locks:       newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registrar) Location() *time.Location { return r.loc }

func (r *Registrar) Eligibility() *Eligibility { return r.eligibility }

// RegisterIndividual re-checks eligibility, inserts the meal record and then
// its audit entry. A failed audit write is logged and queued for retry; the
// meal record stands.
func (r *Registrar) RegisterIndividual(ctx context.Context, req IndividualRequest) (*models.MealRecord, error) {
	const op = "register individual"

	rec, err := r.registerIndividual(ctx, req)
	r.observer.ObserveRegistration(models.AuditKindIndividual, outcomeLabel(err))
	if err != nil {
		return nil, err
	}

	r.writeAudit(ctx, models.AuditEntry{
		OperatorID:   req.OperatorID,
		Kind:         models.AuditKindIndividual,
		MealRecordID: &rec.ID,
		Description:  fmt.Sprintf("comida worker=%d shift=%d date=%s", rec.WorkerID, rec.ShiftID, rec.Date),
	}, op)
	return rec, nil
}

func (r *Registrar) registerIndividual(ctx context.Context, req IndividualRequest) (*models.MealRecord, error) {
	const op = "register individual"

	if req.OperatorID == 0 {
		return nil, newError(KindUnauthenticated, op, nil)
	}
	if req.ShiftID == 0 {
		return nil, newError(KindInvalidShift, op, nil)
	}
	date := DateOf(req.Now, r.loc)

	if r.strict {
		unlock := r.locks.Lock(req.WorkerID)
		defer unlock()
	}

	decision, err := r.eligibility.CheckQuota(ctx, req.WorkerID, date)
	if err != nil {
		return nil, err
	}
	if err := decision.Err(op); err != nil {
		return nil, err
	}

	rec := &models.MealRecord{
		WorkerID:     req.WorkerID,
		ShiftID:      req.ShiftID,
		Date:         date,
		RegisteredAt: req.Now,
		OperatorID:   req.OperatorID,
		Status:       models.MealRegistered,
		Validated:    true,
	}
	if err := r.store.InsertMealRecord(ctx, rec); err != nil {
		return nil, storeError(op, err)
	}
	return rec, nil
}

// RegisterBulk inserts one record for quantity meals of a company in a
// shift. A second registration for the same (company, shift, date) fails
// with KindDuplicateBulkRegistration whatever its quantity.
func (r *Registrar) RegisterBulk(ctx context.Context, req BulkRequest) (*models.BulkMealRecord, error) {
	const op = "register bulk"

	rec, err := r.registerBulk(ctx, req)
	r.observer.ObserveRegistration(models.AuditKindBulk, outcomeLabel(err))
	if err != nil {
		return nil, err
	}

	r.writeAudit(ctx, models.AuditEntry{
		OperatorID:       req.OperatorID,
		Kind:             models.AuditKindBulk,
		BulkMealRecordID: &rec.ID,
		Description:      fmt.Sprintf("masivo company=%d shift=%d qty=%d date=%s", rec.CompanyID, rec.ShiftID, rec.Quantity, rec.Date),
	}, op)
	return rec, nil
}

func (r *Registrar) registerBulk(ctx context.Context, req BulkRequest) (*models.BulkMealRecord, error) {
	const op = "register bulk"

	if req.Quantity <= 0 {
		return nil, newError(KindInvalidQuantity, op, nil)
	}
	if req.OperatorID == 0 {
		return nil, newError(KindUnauthenticated, op, nil)
	}
	if req.ShiftID == 0 {
		return nil, newError(KindInvalidShift, op, nil)
	}
	date := req.Date
	if date == "" {
		date = DateOf(req.Now, r.loc)
	} else if _, err := time.Parse(models.DateLayout, date); err != nil {
		return nil, fmt.Errorf("%s: invalid date %q: %w", op, date, err)
	}

	existing, err := r.store.FindBulkRecord(ctx, req.CompanyID, req.ShiftID, date)
	switch {
	case err == nil && existing != nil:
		return nil, newError(KindDuplicateBulkRegistration, op, nil)
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return nil, storeError(op, err)
	}

	rec := &models.BulkMealRecord{
		CompanyID:    req.CompanyID,
		ShiftID:      req.ShiftID,
		Date:         date,
		Quantity:     req.Quantity,
		RegisteredAt: req.Now,
		OperatorID:   req.OperatorID,
	}
	if err := r.store.InsertBulkRecord(ctx, rec); err != nil {
		// Another station won the race between the check and the insert.
		if errors.Is(err, store.ErrDuplicate) {
			return nil, newError(KindDuplicateBulkRegistration, op, err)
		}
		return nil, storeError(op, err)
	}
	return rec, nil
}

func (r *Registrar) writeAudit(ctx context.Context, entry models.AuditEntry, op string) {
	entry.Key = uuid.NewString()

	err := r.store.InsertAuditEntry(ctx, &entry)
	if err == nil {
		return
	}

	r.observer.ObserveAuditFailure()
	logging.Warn(ctx, "audit write failed",
		slog.String("op", op),
		slog.String("kind", KindAuditWriteFailed.String()),
		slog.String("audit_key", entry.Key),
		slog.Uint64("record_id", uint64(entry.RecordID())),
		logging.Err(err),
	)
	if r.audit != nil {
		entry.ID = 0
		r.audit.Enqueue(entry)
	}
}

// ParseQuantity accepts a positive integer typed by the operator.
func ParseQuantity(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, newError(KindInvalidQuantity, "parse quantity", err)
	}
	if n <= 0 {
		return 0, newError(KindInvalidQuantity, "parse quantity", nil)
	}
	return n, nil
}

func outcomeLabel(err error) string {
	if err == nil {
		return "success"
	}
	return KindOf(err).String()
}

// keyedMutex hands out one mutex per worker id.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uint]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[uint]*refMutex)}
}

func (k *keyedMutex) Lock(key uint) (unlock func()) {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
