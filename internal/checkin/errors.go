package checkin

import (
	"errors"
	"fmt"

	"comedor-backend/internal/scan"
)

// Kind classifies why a check-in step did not succeed. Presentation is left
// to the caller.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidScanFormat
	KindDuplicateScan
	KindWorkerNotFound
	KindInactiveOrMissing
	KindDailyLimitReached
	KindDuplicateBulkRegistration
	KindInvalidQuantity
	KindInvalidShift
	KindStoreUnavailable
	KindAuditWriteFailed
	KindUnauthenticated
	KindInvalidState
)

var kindNames = map[Kind]string{
	KindUnknown:                   "unknown",
	KindInvalidScanFormat:         "invalid_scan_format",
	KindDuplicateScan:             "duplicate_scan",
	KindWorkerNotFound:            "worker_not_found",
	KindInactiveOrMissing:         "inactive_or_missing",
	KindDailyLimitReached:         "daily_limit_reached",
	KindDuplicateBulkRegistration: "duplicate_bulk_registration",
	KindInvalidQuantity:           "invalid_quantity",
	KindInvalidShift:              "invalid_shift",
	KindStoreUnavailable:          "store_unavailable",
	KindAuditWriteFailed:          "audit_write_failed",
	KindUnauthenticated:           "unauthenticated",
	KindInvalidState:              "invalid_state",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Error is the single error type returned by the check-in core.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinels by kind, so errors.Is(err, ErrDailyLimitReached)
// holds for any error of that kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

var (
	ErrInvalidScanFormat         = &Error{Kind: KindInvalidScanFormat}
	ErrDuplicateScan             = &Error{Kind: KindDuplicateScan}
	ErrWorkerNotFound            = &Error{Kind: KindWorkerNotFound}
	ErrInactiveOrMissing         = &Error{Kind: KindInactiveOrMissing}
	ErrDailyLimitReached         = &Error{Kind: KindDailyLimitReached}
	ErrDuplicateBulkRegistration = &Error{Kind: KindDuplicateBulkRegistration}
	ErrInvalidQuantity           = &Error{Kind: KindInvalidQuantity}
	ErrInvalidShift              = &Error{Kind: KindInvalidShift}
	ErrStoreUnavailable          = &Error{Kind: KindStoreUnavailable}
	ErrUnauthenticated           = &Error{Kind: KindUnauthenticated}
	ErrInvalidState              = &Error{Kind: KindInvalidState}
)

// KindOf extracts the kind of err, KindUnknown when it did not come from
// this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, scan.ErrInvalidScanFormat) {
		return KindInvalidScanFormat
	}
	return KindUnknown
}

func newError(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func storeError(op string, err error) error {
	return newError(KindStoreUnavailable, op, err)
}
