package hooks

import (
	"context"

	"github.com/searchsync-go/internal/domain/content"
	"github.com/searchsync-go/internal/indexer"
	"github.com/searchsync-go/pkg/events"
	"github.com/searchsync-go/pkg/logger"
	"github.com/searchsync-go/pkg/metrics"
)

// Adapter maps content lifecycle events onto sync engine operations.
// It is a hard error boundary: a search engine outage must never block
// an author from saving content, so handlers log failures and swallow
// them. When credentials are absent every handler is a no-op.
type Adapter struct {
	engine  *indexer.Engine
	enabled bool
	logger  logger.Logger
}

// Binding pairs one event name with its handler, keeping the mapping
// enumerable and testable without a live bus.
type Binding struct {
	Event   string
	Handler events.EventHandler
}

func NewAdapter(engine *indexer.Engine, enabled bool, log logger.Logger) *Adapter {
	return &Adapter{engine: engine, enabled: enabled, logger: log}
}

// Bindings lists every event this adapter handles.
func (a *Adapter) Bindings() []Binding {
	return []Binding{
		{events.ContentSaved, a.HandleSaved},
		{events.ContentDeleted, a.HandleDeleted},
		{events.ContentTrashed, a.HandleDeleted},
		{events.ContentRestored, a.HandleRestored},
		{events.ContentStatusChanged, a.HandleStatusChanged},
	}
}

// Register subscribes every binding on the bus.
func (a *Adapter) Register(bus events.EventBus) error {
	for _, b := range a.Bindings() {
		if err := bus.Subscribe(b.Event, b.Handler); err != nil {
			return err
		}
	}
	return nil
}

// HandleSaved indexes a saved item. Autosaves are transient and
// skipped; the eventual real save follows.
func (a *Adapter) HandleSaved(ctx context.Context, event events.Event) error {
	if !a.enabled {
		return nil
	}
	if event.BoolPayload(events.PayloadAutosave) {
		return nil
	}
	a.run(ctx, event, func(ctx context.Context) error {
		return a.engine.IndexItemByID(ctx, event.ItemID)
	})
	return nil
}

// HandleDeleted removes a permanently deleted or trashed item.
func (a *Adapter) HandleDeleted(ctx context.Context, event events.Event) error {
	if !a.enabled {
		return nil
	}
	a.run(ctx, event, func(ctx context.Context) error {
		return a.engine.DeleteItem(ctx, event.ItemID)
	})
	return nil
}

// HandleRestored re-indexes an item restored from trash.
func (a *Adapter) HandleRestored(ctx context.Context, event events.Event) error {
	if !a.enabled {
		return nil
	}
	a.run(ctx, event, func(ctx context.Context) error {
		return a.engine.IndexItemByID(ctx, event.ItemID)
	})
	return nil
}

// HandleStatusChanged reacts to publication transitions. Leaving
// published removes the record, entering published indexes it, and a
// published-to-published re-save is left to the save hook so the work
// is not done twice.
func (a *Adapter) HandleStatusChanged(ctx context.Context, event events.Event) error {
	if !a.enabled {
		return nil
	}

	oldStatus := event.StringPayload(events.PayloadOldStatus)
	newStatus := event.StringPayload(events.PayloadNewStatus)

	switch {
	case oldStatus == content.StatusPublished && newStatus != content.StatusPublished:
		a.run(ctx, event, func(ctx context.Context) error {
			return a.engine.DeleteItem(ctx, event.ItemID)
		})
	case oldStatus != content.StatusPublished && newStatus == content.StatusPublished:
		a.run(ctx, event, func(ctx context.Context) error {
			return a.engine.IndexItemByID(ctx, event.ItemID)
		})
	}
	return nil
}

// run executes one engine operation, absorbing any failure.
func (a *Adapter) run(ctx context.Context, event events.Event, op func(ctx context.Context) error) {
	if err := op(ctx); err != nil {
		metrics.RecordHook(event.Type, "error")
		a.logger.Error("lifecycle hook failed",
			"event", event.Type,
			"itemId", event.ItemID,
			"error", err,
		)
		return
	}
	metrics.RecordHook(event.Type, "ok")
}
