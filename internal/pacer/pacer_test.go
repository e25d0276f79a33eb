package pacer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kafkaload/internal/clock"
)

var epoch = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func TestNewValidates(t *testing.T) {
	_, err := New(StrategyCatchUp, 0, nil)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = New("bogus", 10, nil)
	assert.ErrorIs(t, err, ErrInvalid)

	p, err := New("", 10, nil)
	require.NoError(t, err)
	assert.IsType(t, &CatchUp{}, p)

	p, err = New("SMOOTH", 10, nil)
	require.NoError(t, err)
	assert.IsType(t, &Smooth{}, p)
}

func TestCatchUpDelay(t *testing.T) {
	p := &CatchUp{rate: 100}

	tests := []struct {
		name    string
		sent    uint64
		elapsed time.Duration
		want    time.Duration
	}{
		{"first send", 1, 0, 10 * time.Millisecond},
		{"ahead", 5, 20 * time.Millisecond, 30 * time.Millisecond},
		{"on schedule", 2, 20 * time.Millisecond, 0},
		{"behind", 1, time.Second, 0},
		{"nothing sent", 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Delay(tt.sent, tt.elapsed))
		})
	}
}

func TestCatchUpConverges(t *testing.T) {
	clk := clock.NewFake(epoch)
	p, err := New(StrategyCatchUp, 100, clk)
	require.NoError(t, err)
	p.Begin(clk.Now())

	for sent := uint64(1); sent <= 1000; sent++ {
		clk.Advance(time.Millisecond)
		require.NoError(t, p.Wait(context.Background(), sent))
	}

	elapsed := clk.Now().Sub(epoch)
	assert.InDelta(t, 10*time.Second, elapsed, float64(100*time.Millisecond))
}

func TestCatchUpNeverSleepsWhenBehind(t *testing.T) {
	clk := clock.NewFake(epoch)
	p, err := New(StrategyCatchUp, 10, clk)
	require.NoError(t, err)
	p.Begin(clk.Now())

	clk.Advance(5 * time.Second)
	for sent := uint64(1); sent <= 40; sent++ {
		require.NoError(t, p.Wait(context.Background(), sent))
	}
	assert.Zero(t, clk.Slept())
}

func TestCatchUpCancelled(t *testing.T) {
	clk := clock.NewFake(epoch)
	p, err := New(StrategyCatchUp, 1, clk)
	require.NoError(t, err)
	p.Begin(clk.Now())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Wait(ctx, 3), context.Canceled)
}

func TestSmoothSpacesSends(t *testing.T) {
	clk := clock.NewFake(epoch)
	p, err := New(StrategySmooth, 10, clk)
	require.NoError(t, err)
	p.Begin(clk.Now())

	for sent := uint64(1); sent <= 11; sent++ {
		require.NoError(t, p.Wait(context.Background(), sent))
	}
	assert.InDelta(t, time.Second, clk.Slept(), float64(time.Millisecond))

	// a failed attempt leaves sent unchanged and costs no token
	before := clk.Slept()
	require.NoError(t, p.Wait(context.Background(), 11))
	assert.Equal(t, before, clk.Slept())
}
