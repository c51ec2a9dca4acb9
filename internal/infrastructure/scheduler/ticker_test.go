package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestTickerSchedulerRunsImmediatelyAndStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	var runs atomic.Int32
	fired := make(chan struct{}, 8)
	s := NewTickerScheduler(10 * time.Millisecond)

	require.NoError(t, s.Start(context.Background(), func(time.Time) {
		runs.Add(1)
		select {
		case fired <- struct{}{}:
		default:
		}
	}))
	// A second start must not spawn another loop.
	require.NoError(t, s.Start(context.Background(), func(time.Time) { t.Error("second loop started") }))

	for i := 0; i < 2; i++ {
		select {
		case <-fired:
		case <-time.After(2 * time.Second):
			t.Fatal("job did not fire")
		}
	}

	require.NoError(t, s.Stop(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
	require.GreaterOrEqual(t, runs.Load(), int32(2))
}

func TestTickerSchedulerDisabled(t *testing.T) {
	t.Parallel()

	s := NewTickerScheduler(0)
	require.NoError(t, s.Start(context.Background(), func(time.Time) { t.Error("disabled scheduler ran") }))
	require.NoError(t, s.Stop(context.Background()))
}
