package checkin

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"comedor-backend/internal/logging"
	"comedor-backend/internal/models"
	"comedor-backend/internal/scan"
	"comedor-backend/internal/session"
	"comedor-backend/internal/shift"
)

type State int

const (
	StateIdle State = iota
	StateScanning
	StateAwaitingShiftConfirmation
	StateRegistering
	StateSuccess
	StateLimitReached
	StateDenied
	StateWorkerNotFound
	StateFailed
)

var stateNames = [...]string{
	StateIdle:                      "idle",
	StateScanning:                  "scanning",
	StateAwaitingShiftConfirmation: "awaiting_shift_confirmation",
	StateRegistering:               "registering",
	StateSuccess:                   "success",
	StateLimitReached:              "limit_reached",
	StateDenied:                    "denied",
	StateWorkerNotFound:            "worker_not_found",
	StateFailed:                    "failed",
}

func (s State) String() string {
	if int(s) >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal states wait for Acknowledge before the next scan.
func (s State) Terminal() bool {
	switch s {
	case StateSuccess, StateLimitReached, StateDenied, StateWorkerNotFound, StateFailed:
		return true
	}
	return false
}

// Outcome describes how the last attempt ended.
type Outcome struct {
	State  State              `json:"state"`
	Kind   Kind               `json:"kind"`
	Code   string             `json:"code"`
	Worker *WorkerInfo        `json:"worker,omitempty"`
	Record *models.MealRecord `json:"record,omitempty"`
	At     time.Time          `json:"at"`
}

// Snapshot is the view of a workflow handed to the station UI.
type Snapshot struct {
	State       State         `json:"state"`
	Code        string        `json:"code,omitempty"`
	Worker      *WorkerInfo   `json:"worker,omitempty"`
	Shift       *models.Shift `json:"shift,omitempty"`
	LastOutcome *Outcome      `json:"last_outcome,omitempty"`
}

type WorkflowConfig struct {
	DebounceWindow time.Duration
	// ConflateStoreErrors reports unexpected store failures as LimitReached,
	// the way the first station app did.
	ConflateStoreErrors bool
}

// Workflow sequences scan, worker lookup, shift confirmation and
// registration for one station. One operator drives it, one scan at a time.
type Workflow struct {
	registrar *Registrar
	shifts    ShiftLister
	session   session.Context
	debouncer *scan.Debouncer
	observer  Observer
	conflate  bool

	mu     sync.Mutex
	state  State
	code   string
	worker *WorkerInfo
	shift  *models.Shift
	last   *Outcome
}

func NewWorkflow(reg *Registrar, shifts ShiftLister, sess session.Context, cfg WorkflowConfig) *Workflow {
	return &Workflow{
		registrar: reg,
		shifts:    shifts,
		session:   sess,
		debouncer: scan.NewDebouncer(cfg.DebounceWindow),
		observer:  reg.observer,
		conflate:  cfg.ConflateStoreErrors,
	}
}

func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

// Scan handles a code from the scanner. Malformed or debounced codes are
// rejected without a state change. A known worker moves the workflow to
// AwaitingShiftConfirmation with the shift resolved from now preselected;
// an unknown one ends in WorkerNotFound.
func (w *Workflow) Scan(ctx context.Context, raw string, now time.Time) (Snapshot, error) {
	const op = "scan"

	code, err := scan.ValidateCode(raw)
	if err != nil {
		w.observer.ObserveScan(KindInvalidScanFormat.String())
		return w.Snapshot(), newError(KindInvalidScanFormat, op, err)
	}

	w.mu.Lock()
	if w.state != StateIdle {
		snap := w.snapshotLocked()
		w.mu.Unlock()
		return snap, newError(KindInvalidState, op, nil)
	}
	if !w.debouncer.Accept(code, now) {
		snap := w.snapshotLocked()
		w.mu.Unlock()
		w.observer.ObserveScan(KindDuplicateScan.String())
		return snap, newError(KindDuplicateScan, op, nil)
	}
	w.state = StateScanning
	w.code = code
	w.mu.Unlock()

	ctx = logging.WithAttrs(ctx, slog.String("component", "checkin.workflow"), slog.String("code", code))

	info, err := w.registrar.Eligibility().LookupWorker(ctx, code)
	if err == nil {
		var proposed models.Shift
		proposed, err = w.proposeShift(ctx, now)
		if err == nil {
			w.mu.Lock()
			defer w.mu.Unlock()
			if w.state != StateScanning || w.code != code {
				// Cancelled while the lookup was in flight.
				return w.snapshotLocked(), newError(KindInvalidState, op, nil)
			}
			w.worker = &info
			w.shift = &proposed
			w.state = StateAwaitingShiftConfirmation
			w.observer.ObserveScan("accepted")
			return w.snapshotLocked(), nil
		}
	}

	w.observer.ObserveScan(KindOf(err).String())
	state := StateFailed
	switch {
	case errors.Is(err, ErrWorkerNotFound):
		state = StateWorkerNotFound
	case w.conflate:
		// The first station app treated any lookup failure as an unknown worker.
		state = StateWorkerNotFound
	}
	logging.Info(ctx, "scan ended without confirmation", slog.String("state", state.String()), logging.Err(err))

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateScanning || w.code != code {
		return w.snapshotLocked(), newError(KindInvalidState, op, err)
	}
	return w.finishLocked(code, state, err, nil, now), err
}

// SelectShift overrides the preselected shift before confirming.
func (w *Workflow) SelectShift(ctx context.Context, shiftID uint) (Snapshot, error) {
	const op = "select shift"

	shifts, err := w.shifts.ListShifts(ctx)
	if err != nil {
		return w.Snapshot(), storeError(op, err)
	}
	var chosen *models.Shift
	for i := range shifts {
		if shifts[i].ID == shiftID {
			chosen = &shifts[i]
			break
		}
	}
	if chosen == nil {
		return w.Snapshot(), newError(KindInvalidShift, op, nil)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateAwaitingShiftConfirmation {
		return w.snapshotLocked(), newError(KindInvalidState, op, nil)
	}
	w.shift = chosen
	return w.snapshotLocked(), nil
}

// Confirm registers the meal for the pending worker and shift. Once started
// it cannot be cancelled.
func (w *Workflow) Confirm(ctx context.Context, now time.Time) (Snapshot, error) {
	const op = "confirm"

	w.mu.Lock()
	if w.state != StateAwaitingShiftConfirmation {
		snap := w.snapshotLocked()
		w.mu.Unlock()
		return snap, newError(KindInvalidState, op, nil)
	}
	code, worker, chosen := w.code, *w.worker, *w.shift
	w.state = StateRegistering
	w.mu.Unlock()

	ctx = logging.WithAttrs(ctx,
		slog.String("component", "checkin.workflow"),
		slog.String("code", code),
		slog.Uint64("worker_id", uint64(worker.ID)),
		slog.String("shift", string(chosen.Name)),
	)

	operatorID, ok := session.Resolve(ctx, w.session)
	if !ok {
		err := newError(KindUnauthenticated, op, nil)
		return w.finish(code, w.stateFor(err), err, &worker, now), err
	}

	rec, err := w.registrar.RegisterIndividual(ctx, IndividualRequest{
		WorkerID:   worker.ID,
		ShiftID:    chosen.ID,
		OperatorID: operatorID,
		Now:        now,
	})
	if err != nil {
		logging.Info(ctx, "registration rejected", slog.String("kind", KindOf(err).String()), logging.Err(err))
		return w.finish(code, w.stateFor(err), err, &worker, now), err
	}

	logging.Info(ctx, "meal registered", slog.Uint64("meal_record_id", uint64(rec.ID)))
	w.mu.Lock()
	defer w.mu.Unlock()
	w.last = &Outcome{State: StateSuccess, Code: code, Worker: &worker, Record: rec, At: now}
	w.state = StateSuccess
	return w.snapshotLocked(), nil
}

// Cancel discards the in-flight scan. It is refused while registering.
func (w *Workflow) Cancel() (Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateRegistering {
		return w.snapshotLocked(), newError(KindInvalidState, "cancel", nil)
	}
	w.resetLocked()
	return w.snapshotLocked(), nil
}

// Acknowledge dismisses a terminal outcome and returns to Idle.
func (w *Workflow) Acknowledge() (Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateIdle {
		return w.snapshotLocked(), nil
	}
	if !w.state.Terminal() {
		return w.snapshotLocked(), newError(KindInvalidState, "acknowledge", nil)
	}
	w.resetLocked()
	return w.snapshotLocked(), nil
}

func (w *Workflow) stateFor(err error) State {
	switch KindOf(err) {
	case KindDailyLimitReached:
		return StateLimitReached
	case KindInactiveOrMissing:
		return StateDenied
	}
	if w.conflate {
		return StateLimitReached
	}
	return StateFailed
}

func (w *Workflow) proposeShift(ctx context.Context, now time.Time) (models.Shift, error) {
	shifts, err := w.shifts.ListShifts(ctx)
	if err != nil {
		return models.Shift{}, storeError("propose shift", err)
	}
	local := now.In(w.registrar.Location())
	if s, ok := shift.FindByName(shifts, shift.ResolveAt(local)); ok {
		return s, nil
	}
	if s, ok := shift.ResolveFromTable(shifts, shift.MinuteOfDay(local)); ok {
		return s, nil
	}
	return models.Shift{}, newError(KindInvalidShift, "propose shift", nil)
}

func (w *Workflow) finish(code string, state State, err error, worker *WorkerInfo, now time.Time) Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.finishLocked(code, state, err, worker, now)
}

func (w *Workflow) finishLocked(code string, state State, err error, worker *WorkerInfo, now time.Time) Snapshot {
	w.last = &Outcome{State: state, Kind: KindOf(err), Code: code, Worker: worker, At: now}
	w.state = state
	return w.snapshotLocked()
}

func (w *Workflow) resetLocked() {
	w.state = StateIdle
	w.code = ""
	w.worker = nil
	w.shift = nil
}

func (w *Workflow) snapshotLocked() Snapshot {
	snap := Snapshot{State: w.state, Code: w.code}
	if w.worker != nil {
		info := *w.worker
		snap.Worker = &info
	}
	if w.shift != nil {
		s := *w.shift
		snap.Shift = &s
	}
	if w.last != nil {
		out := *w.last
		snap.LastOutcome = &out
	}
	return snap
}
