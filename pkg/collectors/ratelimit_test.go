package collectors

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeClock(start time.Time) (*time.Time, func() time.Time) {
	t := start
	return &t, func() time.Time { return t }
}

func TestLimiterBurstWindow(t *testing.T) {
	now, clock := fakeClock(time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC))
	l := NewLimiter(60, 3)
	l.now = clock

	for i := 0; i < 3; i++ {
		assert.Equal(t, time.Duration(0), l.reserve())
	}
	// fourth request inside the 10s burst window has to wait
	wait := l.reserve()
	assert.Equal(t, 10*time.Second, wait)

	*now = now.Add(10*time.Second + time.Millisecond)
	assert.Equal(t, time.Duration(0), l.reserve())
}

func TestLimiterMinuteWindow(t *testing.T) {
	now, clock := fakeClock(time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC))
	l := NewLimiter(5, 100)
	l.now = clock

	for i := 0; i < 5; i++ {
		require.Equal(t, time.Duration(0), l.reserve())
		*now = now.Add(time.Second)
	}
	wait := l.reserve()
	assert.Equal(t, 55*time.Second, wait)

	// the oldest stamp ages out and frees a slot
	*now = now.Add(56 * time.Second)
	assert.Equal(t, time.Duration(0), l.reserve())
}

func TestAdmitRespectsContext(t *testing.T) {
	l := NewLimiter(1, 1)
	require.NoError(t, l.Admit(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := l.Admit(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
