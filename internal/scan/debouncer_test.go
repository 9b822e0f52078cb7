package scan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 18, 12, 0, 0, 0, time.UTC)

func TestValidateCode(t *testing.T) {
	code, err := ValidateCode("  12345678\n")
	require.NoError(t, err)
	assert.Equal(t, "12345678", code)

	for _, raw := range []string{"", "1234567", "123456789", "1234567a", "１２３４５６７８", "1234 678"} {
		_, err := ValidateCode(raw)
		assert.ErrorIs(t, err, ErrInvalidScanFormat, "raw %q", raw)
	}
}

func TestDebouncerWindow(t *testing.T) {
	t.Run("same code inside window is rejected", func(t *testing.T) {
		d := NewDebouncer(DefaultWindow)
		require.True(t, d.Accept("12345678", t0))
		assert.False(t, d.Accept("12345678", t0.Add(2999*time.Millisecond)))
	})

	t.Run("same code after window is accepted", func(t *testing.T) {
		d := NewDebouncer(DefaultWindow)
		require.True(t, d.Accept("12345678", t0))
		assert.True(t, d.Accept("12345678", t0.Add(3001*time.Millisecond)))
	})

	t.Run("different code is accepted immediately", func(t *testing.T) {
		d := NewDebouncer(DefaultWindow)
		require.True(t, d.Accept("12345678", t0))
		assert.True(t, d.Accept("87654321", t0.Add(time.Millisecond)))
		assert.True(t, d.Accept("12345678", t0.Add(2*time.Millisecond)))
	})

	t.Run("rejected repeat does not extend the window", func(t *testing.T) {
		d := NewDebouncer(DefaultWindow)
		require.True(t, d.Accept("12345678", t0))
		require.False(t, d.Accept("12345678", t0.Add(2*time.Second)))
		assert.True(t, d.Accept("12345678", t0.Add(3*time.Second)))
	})
}

func TestDebouncerIgnoresInvalidInput(t *testing.T) {
	d := NewDebouncer(DefaultWindow)
	require.True(t, d.Accept("12345678", t0))

	assert.False(t, d.Accept("abc", t0.Add(time.Millisecond)))
	// State unchanged: the valid code is still remembered.
	assert.False(t, d.Accept("12345678", t0.Add(time.Second)))
}
