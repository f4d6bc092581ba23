package batch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacerInterval(t *testing.T) {
	assert.Equal(t, 6*time.Second, NewPacer(10).Interval())
	assert.Equal(t, time.Second, NewPacer(60).Interval())
	// Zero and negative budgets clamp to one call per minute.
	assert.Equal(t, time.Minute, NewPacer(0).Interval())
}

func TestPacerSpacing(t *testing.T) {
	// 6000 calls/minute = 10ms spacing.
	p := NewPacer(6000)
	const n = 5

	start := time.Now()
	for i := 0; i < n-1; i++ {
		require.NoError(t, p.Pace(context.Background()))
	}
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, time.Duration(n-1)*p.Interval())
}

func TestPacerCancellation(t *testing.T) {
	p := NewPacer(1) // one minute interval

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Pace(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
