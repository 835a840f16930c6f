package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/searchsync-go/pkg/logger"
)

// Handler executes one deferred unit of work.
type Handler func(ctx context.Context, args ...interface{})

// Scheduler is the boundary to the deferred-work system. Jobs are
// one-shot, identified by a hook name, and grouped so a whole family
// of pending jobs can be unscheduled together.
type Scheduler interface {
	ScheduleOnce(at time.Time, hook, group string, args ...interface{}) error
	UnscheduleAll(hook, group string) error
	Available() bool
}

// TimerScheduler runs scheduled jobs in-process with time.AfterFunc.
// Handlers must be registered for a hook before jobs naming it are
// scheduled.
type TimerScheduler struct {
	mu       sync.Mutex
	handlers map[string]Handler
	pending  map[string]map[string]*time.Timer // group/hook -> job id -> timer
	logger   logger.Logger
	closed   bool
}

func NewTimerScheduler(log logger.Logger) *TimerScheduler {
	return &TimerScheduler{
		handlers: make(map[string]Handler),
		pending:  make(map[string]map[string]*time.Timer),
		logger:   log,
	}
}

// RegisterHook binds a handler to a hook name.
func (s *TimerScheduler) RegisterHook(hook string, fn Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[hook] = fn
}

func (s *TimerScheduler) ScheduleOnce(at time.Time, hook, group string, args ...interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("scheduler is closed")
	}
	handler, ok := s.handlers[hook]
	if !ok {
		return fmt.Errorf("no handler registered for hook %q", hook)
	}

	key := group + "/" + hook
	jobID := uuid.New().String()
	delay := time.Until(at)
	if delay < 0 {
		delay = 0
	}

	timer := time.AfterFunc(delay, func() {
		s.mu.Lock()
		if jobs, ok := s.pending[key]; ok {
			delete(jobs, jobID)
		}
		s.mu.Unlock()
		handler(context.Background(), args...)
	})

	if s.pending[key] == nil {
		s.pending[key] = make(map[string]*time.Timer)
	}
	s.pending[key][jobID] = timer

	s.logger.Debug("scheduled job", "hook", hook, "group", group, "at", at)
	return nil
}

func (s *TimerScheduler) UnscheduleAll(hook, group string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := group + "/" + hook
	for id, timer := range s.pending[key] {
		timer.Stop()
		delete(s.pending[key], id)
	}
	delete(s.pending, key)
	return nil
}

func (s *TimerScheduler) Available() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

// Close stops every pending job.
func (s *TimerScheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for key, jobs := range s.pending {
		for id, timer := range jobs {
			timer.Stop()
			delete(jobs, id)
		}
		delete(s.pending, key)
	}
}
