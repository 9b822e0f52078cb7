// Package scan validates scanned worker codes and suppresses accidental
// re-triggers of the same code.
package scan

import (
	"errors"
	"strings"
	"sync"
	"time"
)

const (
	CodeLength    = 8
	DefaultWindow = 3 * time.Second
)

var ErrInvalidScanFormat = errors.New("scanned code must be exactly 8 digits")

// ValidateCode trims the raw payload and checks it is an 8-digit code.
func ValidateCode(raw string) (string, error) {
	code := strings.TrimSpace(raw)
	if len(code) != CodeLength {
		return "", ErrInvalidScanFormat
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return "", ErrInvalidScanFormat
		}
	}
	return code, nil
}

// Debouncer remembers the last accepted code. One instance per station.
type Debouncer struct {
	window time.Duration

	mu         sync.Mutex
	lastCode   string
	acceptedAt time.Time
}

func NewDebouncer(window time.Duration) *Debouncer {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Debouncer{window: window}
}

// Accept reports whether code should be processed as a new scan. Invalid
// codes are rejected without touching the remembered pair.
func (d *Debouncer) Accept(code string, now time.Time) bool {
	code, err := ValidateCode(code)
	if err != nil {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if code == d.lastCode && now.Sub(d.acceptedAt) < d.window {
		return false
	}
	d.lastCode = code
	d.acceptedAt = now
	return true
}
