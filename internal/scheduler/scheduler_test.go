package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/searchsync-go/pkg/logger"
)

// jobRecorder collects handler invocations across goroutines.
type jobRecorder struct {
	mu    sync.Mutex
	calls [][]interface{}
	done  chan struct{}
}

func newJobRecorder(expected int) *jobRecorder {
	return &jobRecorder{done: make(chan struct{}, expected)}
}

func (r *jobRecorder) handler(ctx context.Context, args ...interface{}) {
	r.mu.Lock()
	r.calls = append(r.calls, args)
	r.mu.Unlock()
	r.done <- struct{}{}
}

func (r *jobRecorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for job to run")
	}
}

func (r *jobRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func TestTimerScheduler_ScheduleOnce(t *testing.T) {
	t.Run("RunsRegisteredHandlerWithArgs", func(t *testing.T) {
		s := NewTimerScheduler(logger.NewNop())
		defer s.Close()

		rec := newJobRecorder(1)
		s.RegisterHook("rebuild.batch", rec.handler)

		require.NoError(t, s.ScheduleOnce(time.Now(), "rebuild.batch", "searchsync", 3))
		rec.wait(t)

		require.Equal(t, 1, rec.count())
		assert.Equal(t, []interface{}{3}, rec.calls[0])
	})

	t.Run("PastDueRunsImmediately", func(t *testing.T) {
		s := NewTimerScheduler(logger.NewNop())
		defer s.Close()

		rec := newJobRecorder(1)
		s.RegisterHook("hook", rec.handler)

		require.NoError(t, s.ScheduleOnce(time.Now().Add(-time.Hour), "hook", "group"))
		rec.wait(t)
	})

	t.Run("UnknownHookIsRejected", func(t *testing.T) {
		s := NewTimerScheduler(logger.NewNop())
		defer s.Close()

		err := s.ScheduleOnce(time.Now(), "unregistered", "group")

		assert.Error(t, err)
	})
}

func TestTimerScheduler_UnscheduleAll(t *testing.T) {
	s := NewTimerScheduler(logger.NewNop())
	defer s.Close()

	rec := newJobRecorder(2)
	s.RegisterHook("hook", rec.handler)

	require.NoError(t, s.ScheduleOnce(time.Now().Add(time.Hour), "hook", "group", 1))
	require.NoError(t, s.ScheduleOnce(time.Now().Add(time.Hour), "hook", "group", 2))

	require.NoError(t, s.UnscheduleAll("hook", "group"))

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, rec.count())
}

func TestTimerScheduler_Close(t *testing.T) {
	s := NewTimerScheduler(logger.NewNop())

	rec := newJobRecorder(1)
	s.RegisterHook("hook", rec.handler)
	require.NoError(t, s.ScheduleOnce(time.Now().Add(time.Hour), "hook", "group"))

	assert.True(t, s.Available())
	s.Close()
	assert.False(t, s.Available())

	err := s.ScheduleOnce(time.Now(), "hook", "group")
	assert.Error(t, err)
}
