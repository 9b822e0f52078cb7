package audit

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"comedor-backend/internal/logging"
	"comedor-backend/internal/models"
	"comedor-backend/internal/store"
)

const (
	DefaultRetryInterval = 10 * time.Second
	DefaultMaxAttempts   = 5
	maxPending           = 10000
)

// Writer persists one audit entry.
type Writer interface {
	InsertAuditEntry(ctx context.Context, e *models.AuditEntry) error
}

// Outbox holds audit entries whose write failed during a registration and
// retries them in the background. Entries carry a unique Key, so a retry of
// a write that actually landed is treated as success.
type Outbox struct {
	writer      Writer
	interval    time.Duration
	maxAttempts int

	mu      sync.Mutex
	pending []pendingEntry
}

type pendingEntry struct {
	entry    models.AuditEntry
	attempts int
}

func NewOutbox(w Writer, interval time.Duration, maxAttempts int) *Outbox {
	if interval <= 0 {
		interval = DefaultRetryInterval
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Outbox{writer: w, interval: interval, maxAttempts: maxAttempts}
}

func (o *Outbox) Enqueue(e models.AuditEntry) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.pending = append(o.pending, pendingEntry{entry: e})
	o.trimLocked(context.Background())
}

// trimLocked drops the oldest entries beyond maxPending. Callers hold o.mu.
func (o *Outbox) trimLocked(ctx context.Context) int {
	over := len(o.pending) - maxPending
	if over <= 0 {
		return 0
	}
	logging.Error(ctx, "audit outbox full, dropping oldest entries",
		slog.Int("dropped", over),
		slog.String("first_audit_key", o.pending[0].entry.Key))
	o.pending = append([]pendingEntry(nil), o.pending[over:]...)
	return over
}

func (o *Outbox) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.pending)
}

// Flush tries every pending entry once.
func (o *Outbox) Flush(ctx context.Context) (written, dropped int) {
	o.mu.Lock()
	batch := o.pending
	o.pending = nil
	o.mu.Unlock()

	var retry []pendingEntry
	for _, p := range batch {
		if ctx.Err() != nil {
			retry = append(retry, p)
			continue
		}

		entry := p.entry
		err := o.writer.InsertAuditEntry(ctx, &entry)
		if err == nil || errors.Is(err, store.ErrDuplicate) {
			written++
			continue
		}

		p.attempts++
		if p.attempts >= o.maxAttempts {
			dropped++
			logging.Error(ctx, "audit entry dropped after retries",
				slog.String("audit_key", p.entry.Key),
				slog.Int("attempts", p.attempts),
				slog.Uint64("record_id", uint64(p.entry.RecordID())),
				logging.Err(err))
			continue
		}
		retry = append(retry, p)
	}

	if len(retry) > 0 {
		o.mu.Lock()
		o.pending = append(retry, o.pending...)
		dropped += o.trimLocked(ctx)
		o.mu.Unlock()
	}
	return written, dropped
}

// Run flushes on every tick until ctx is done.
func (o *Outbox) Run(ctx context.Context) error {
	ctx = logging.WithAttrs(ctx, slog.String("component", "audit.outbox"))
	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if n := o.Pending(); n > 0 {
				logging.Warn(ctx, "audit outbox stopped with pending entries", slog.Int("pending", n))
			}
			return nil
		case <-ticker.C:
			if o.Pending() == 0 {
				continue
			}
			written, dropped := o.Flush(ctx)
			logging.Info(ctx, "audit outbox flushed",
				slog.Int("written", written),
				slog.Int("dropped", dropped),
				slog.Int("pending", o.Pending()))
		}
	}
}
