package suite

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kafkaload/internal/record"
)

func TestDefault(t *testing.T) {
	cases := Default()

	require.Len(t, cases, 6)
	assert.Equal(t, 1, Duplicates(cases))
	assert.Equal(t, cases[0], cases[3])
	assert.Equal(t, record.ShipmentCreated, cases[5].Category)
}

func TestDecode(t *testing.T) {
	in := `
interval: 250ms
cases:
  - id: a
    category: order_created
  - id: b
    category: " refund_issued "
  - id: a
    category: ORDER_CREATED
`
	cases, interval, err := Decode(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, interval)
	require.Len(t, cases, 3)
	assert.Equal(t, record.OrderCreated, cases[0].Category)
	assert.Equal(t, record.Category("REFUND_ISSUED"), cases[1].Category)
	assert.Equal(t, 1, Duplicates(cases))
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "no cases", in: "interval: 1s\n"},
		{name: "missing id", in: "cases:\n  - category: ORDER_CREATED\n"},
		{name: "missing category", in: "cases:\n  - id: a\n"},
		{name: "bad interval", in: "interval: soon\ncases:\n  - id: a\n    category: X\n"},
		{name: "unknown field", in: "cases:\n  - id: a\n    category: X\n    key: b\n"},
		{name: "not yaml", in: "[[["},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode(strings.NewReader(tt.in))
			assert.ErrorIs(t, err, ErrInvalidCases)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cases:\n  - id: x\n    category: payment_received\n"), 0o600))

	cases, interval, err := Load(path)
	require.NoError(t, err)

	assert.Zero(t, interval)
	require.Len(t, cases, 1)
	assert.Equal(t, record.PaymentReceived, cases[0].Category)

	_, _, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
