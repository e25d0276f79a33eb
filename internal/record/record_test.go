package record

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kafkaload/internal/clock"
)

func newTestGenerator(seed uint64) (*Generator, *clock.Fake) {
	clk := clock.NewFake(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	return NewGenerator(rand.New(rand.NewPCG(seed, seed)), clk), clk
}

func TestGenerateCorrelationIDDependsOnlyOnID(t *testing.T) {
	g, clk := newTestGenerator(1)

	a := g.Generate("msg-00000001", OrderCreated)
	clk.Advance(time.Second)
	b := g.Generate("msg-00000001", OrderCreated)

	assert.Equal(t, a.CorrelationID, b.CorrelationID)
	assert.Equal(t, "corr-msg-00000001", a.CorrelationID)
	assert.NotEqual(t, a.EmittedAt, b.EmittedAt)
}

func TestGenerateEnvelope(t *testing.T) {
	g, clk := newTestGenerator(2)

	r := g.Generate("x1", PaymentReceived)

	assert.Equal(t, "x1", r.ID)
	assert.Equal(t, PaymentReceived, r.Category)
	assert.Equal(t, Origin, r.Origin)
	assert.Equal(t, clk.Now(), r.EmittedAt)
}

func TestGeneratePayloadRanges(t *testing.T) {
	g, _ := newTestGenerator(3)

	for i := 0; i < 200; i++ {
		r := g.Generate("id", OrderCreated)
		var p orderCreated
		require.NoError(t, json.Unmarshal([]byte(r.Payload), &p))
		assert.Equal(t, "ORD-id", p.OrderID)
		assert.GreaterOrEqual(t, p.Amount, 10.0)
		assert.LessOrEqual(t, p.Amount, 1000.0)
		assert.GreaterOrEqual(t, p.Items, 1)
		assert.LessOrEqual(t, p.Items, 10)

		r = g.Generate("id", InventoryUpdate)
		var inv inventoryUpdate
		require.NoError(t, json.Unmarshal([]byte(r.Payload), &inv))
		assert.GreaterOrEqual(t, inv.Quantity, -50)
		assert.LessOrEqual(t, inv.Quantity, 100)
		assert.Contains(t, warehouses, inv.Warehouse)

		r = g.Generate("id", PaymentReceived)
		var pay paymentReceived
		require.NoError(t, json.Unmarshal([]byte(r.Payload), &pay))
		assert.Equal(t, "PAY-id", pay.PaymentID)
		assert.Contains(t, paymentMethods, pay.Method)
	}
}

func TestGenerateGenericPayload(t *testing.T) {
	g, _ := newTestGenerator(4)

	for _, c := range []Category{OrderCancelled, ShipmentCreated, "SOMETHING_ELSE"} {
		r := g.Generate("msg-test-004", c)
		var p generic
		require.NoError(t, json.Unmarshal([]byte(r.Payload), &p))
		assert.Equal(t, "msg-test-004", p.ID)
		assert.Equal(t, "Sample data for "+string(c), p.Data)
	}
}

func TestGenerateRandomCategory(t *testing.T) {
	g, _ := newTestGenerator(5)

	seen := map[Category]bool{}
	for i := 0; i < 500; i++ {
		r := g.Generate("id", "")
		assert.Contains(t, Categories, r.Category)
		seen[r.Category] = true
	}
	assert.Len(t, seen, len(Categories))
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory(" order_created ")
	require.NoError(t, err)
	assert.Equal(t, OrderCreated, c)

	_, err = ParseCategory("  ")
	assert.Error(t, err)
}
