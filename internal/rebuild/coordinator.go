package rebuild

import (
	"context"
	"math"
	"time"

	"github.com/searchsync-go/internal/domain/content"
	"github.com/searchsync-go/internal/indexer"
	"github.com/searchsync-go/internal/scheduler"
	"github.com/searchsync-go/pkg/logger"
	"github.com/searchsync-go/pkg/metrics"
)

const (
	// BatchHook names the deferred job that processes one rebuild page.
	BatchHook = "rebuild.batch"

	// JobGroup groups every job this coordinator schedules, so Cancel
	// can unschedule them all at once.
	JobGroup = "searchsync"
)

// Coordinator drives a full rebuild as a sequence of scheduled batch
// jobs with persisted progress. Batches execute strictly in increasing
// page order, one at a time: each batch schedules the next, and the
// final-page decision depends on the descriptor the previous batch
// wrote. Batches write to the live index directly; use the sync
// engine's atomic rebuild when the corpus must never serve partial
// results.
type Coordinator struct {
	engine *indexer.Engine
	store  content.Store
	state  ProgressStore
	sched  scheduler.Scheduler
	types  []string
	logger logger.Logger
	now    func() time.Time
}

func NewCoordinator(
	engine *indexer.Engine,
	store content.Store,
	state ProgressStore,
	sched scheduler.Scheduler,
	types []string,
	log logger.Logger,
) *Coordinator {
	return &Coordinator{
		engine: engine,
		store:  store,
		state:  state,
		sched:  sched,
		types:  types,
		logger: log,
		now:    time.Now,
	}
}

// Register binds the coordinator's batch handler to the scheduler.
func (c *Coordinator) Register(s *scheduler.TimerScheduler) {
	s.RegisterHook(BatchHook, func(ctx context.Context, args ...interface{}) {
		if len(args) != 1 {
			c.logger.Error("batch job invoked with unexpected args", "args", args)
			return
		}
		page, ok := args[0].(int)
		if !ok {
			c.logger.Error("batch job invoked with non-integer page", "args", args)
			return
		}
		c.ProcessBatch(ctx, page)
	})
}

// Start begins a background rebuild. If one is already in progress its
// descriptor is returned unchanged; duplicate rebuilds are never
// started. A zero-item corpus completes immediately without scheduling
// anything.
func (c *Coordinator) Start(ctx context.Context) (*Progress, error) {
	current, err := c.state.Get(ctx)
	if err != nil {
		return nil, err
	}
	if current != nil && current.Status == StatusInProgress {
		c.logger.Info("rebuild already in progress", "processed", current.Processed, "total", current.Total)
		return current, nil
	}

	total, err := c.store.CountEligible(ctx, c.types)
	if err != nil {
		return nil, err
	}

	progress := &Progress{
		Status:      StatusInProgress,
		Total:       int(total),
		Processed:   0,
		CurrentPage: 1,
		TotalPages:  int(math.Ceil(float64(total) / float64(indexer.BatchSize))),
		Mode:        ModeScheduled,
		StartedAt:   c.now(),
	}

	if total == 0 {
		progress.Complete(c.now())
		if err := c.state.Put(ctx, progress); err != nil {
			return nil, err
		}
		c.logger.Info("rebuild complete, no eligible items")
		return progress, nil
	}

	if err := c.state.Put(ctx, progress); err != nil {
		return nil, err
	}
	if err := c.sched.ScheduleOnce(c.now(), BatchHook, JobGroup, 1); err != nil {
		return nil, err
	}

	c.logger.Info("rebuild started", "total", progress.Total, "pages", progress.TotalPages)
	return progress, nil
}

// ProcessBatch fetches, builds and saves one page, then schedules the
// next page or completes the rebuild. It never returns an error to its
// scheduler caller: a failure is recorded on the descriptor, which
// halts the rebuild, and the scheduler sees a normal return so its own
// retry policies cannot compound the failure. Invocations with no
// in-progress descriptor are stale and do nothing.
func (c *Coordinator) ProcessBatch(ctx context.Context, page int) *Progress {
	progress, err := c.state.Get(ctx)
	if err != nil {
		c.logger.Error("failed to load rebuild progress", "error", err)
		return nil
	}
	if progress == nil || progress.Status != StatusInProgress {
		c.logger.Debug("ignoring stale batch job", "page", page)
		return progress
	}

	items, err := c.store.FetchEligiblePage(ctx, c.types, indexer.BatchSize, page)
	if err != nil {
		return c.fail(ctx, progress, err)
	}

	if len(items) > 0 {
		if _, err := c.engine.SaveBatch(ctx, items); err != nil {
			return c.fail(ctx, progress, err)
		}
	}

	progress.Processed += len(items)
	progress.BatchesDone++
	progress.CurrentPage = page

	metrics.RebuildBatches.WithLabelValues(ModeScheduled, "ok").Inc()

	if page >= progress.TotalPages || len(items) < indexer.BatchSize {
		// Settings are written once at the end of the run, not per
		// batch.
		if err := c.engine.ApplySettings(ctx, c.engine.IndexName()); err != nil {
			return c.fail(ctx, progress, err)
		}
		progress.Complete(c.now())
		if err := c.state.Put(ctx, progress); err != nil {
			c.logger.Error("failed to persist rebuild completion", "error", err)
			return progress
		}
		c.logger.Info("rebuild complete",
			"processed", progress.Processed,
			"batches", progress.BatchesDone,
		)
		return progress
	}

	progress.CurrentPage = page + 1
	if err := c.state.Put(ctx, progress); err != nil {
		c.logger.Error("failed to persist rebuild progress", "error", err)
		return progress
	}
	if err := c.sched.ScheduleOnce(c.now(), BatchHook, JobGroup, page+1); err != nil {
		return c.fail(ctx, progress, err)
	}

	c.logger.Debug("batch processed",
		"page", page,
		"items", len(items),
		"processed", progress.Processed,
	)
	return progress
}

// Progress returns the current descriptor, or nil when none exists.
func (c *Coordinator) Progress(ctx context.Context) (*Progress, error) {
	return c.state.Get(ctx)
}

// Cancel stops an in-progress rebuild. Pending batch jobs are
// unscheduled and the descriptor moves to cancelled; a batch already
// executing runs to completion first. Returns false when there is
// nothing to cancel.
func (c *Coordinator) Cancel(ctx context.Context) (bool, error) {
	progress, err := c.state.Get(ctx)
	if err != nil {
		return false, err
	}
	if progress == nil || progress.Status.Terminal() {
		return false, nil
	}

	if err := c.sched.UnscheduleAll(BatchHook, JobGroup); err != nil {
		return false, err
	}

	progress.Status = StatusCancelled
	now := c.now()
	progress.CompletedAt = &now
	if err := c.state.Put(ctx, progress); err != nil {
		return false, err
	}

	c.logger.Info("rebuild cancelled", "processed", progress.Processed, "total", progress.Total)
	return true, nil
}

func (c *Coordinator) fail(ctx context.Context, progress *Progress, cause error) *Progress {
	progress.Fail(cause, c.now())
	metrics.RebuildBatches.WithLabelValues(ModeScheduled, "failed").Inc()
	if err := c.state.Put(ctx, progress); err != nil {
		c.logger.Error("failed to persist rebuild failure", "error", err)
	}
	c.logger.Error("rebuild batch failed", "page", progress.CurrentPage, "error", cause)
	return progress
}
