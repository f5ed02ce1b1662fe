package orders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewInvoice(t *testing.T) {
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	inv := NewInvoice(now)
	require.Regexp(t, `^INV/20260901/[0-9A-F]{8}$`, inv)

	// dua invoice di hari yang sama tetap beda
	require.NotEqual(t, inv, NewInvoice(now))
}
