package indexer

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/searchsync-go/internal/domain/content"
	"github.com/searchsync-go/internal/search"
	"github.com/searchsync-go/pkg/logger"
	"github.com/searchsync-go/pkg/metrics"
)

// BatchSize is the fixed number of items fetched and saved per rebuild
// batch, shared by every rebuild mode.
const BatchSize = 100

// Engine orchestrates single-item indexing and full rebuilds against
// one live index. Both the lifecycle hook path and the rebuild path go
// through it, so eligibility and record shape are consistent
// regardless of entry point.
type Engine struct {
	client   search.Client
	store    content.Store
	builder  *Builder
	settings *SettingsComposer
	types    []string
	index    string
	logger   logger.Logger
	now      func() time.Time
}

// Stats describes the live index for operator visibility.
type Stats struct {
	Exists bool   `json:"exists"`
	Count  int    `json:"count"`
	Name   string `json:"name"`
}

// RebuildResult summarizes one completed synchronous rebuild.
type RebuildResult struct {
	Total   int `json:"total"`
	Batches int `json:"batches"`
}

func NewEngine(
	client search.Client,
	store content.Store,
	builder *Builder,
	settings *SettingsComposer,
	types []string,
	index string,
	log logger.Logger,
) *Engine {
	return &Engine{
		client:   client,
		store:    store,
		builder:  builder,
		settings: settings,
		types:    types,
		index:    index,
		logger:   log,
		now:      time.Now,
	}
}

// IndexName returns the live index name.
func (e *Engine) IndexName() string {
	return e.index
}

// IndexItem syncs one item into the live index. An item that is no
// longer eligible is deleted instead of saved, so an unpublished or
// protected item is never left stale in the index.
func (e *Engine) IndexItem(ctx context.Context, item *content.Item) error {
	if !e.builder.ShouldIndex(item) {
		e.logger.Debug("item not eligible, removing from index", "itemId", item.ID)
		return e.DeleteItem(ctx, item.ID)
	}

	rec := e.builder.Build(item)
	if err := e.client.SaveObject(ctx, e.index, rec.ObjectID, rec); err != nil {
		return fmt.Errorf("failed to save record %s: %w", rec.ObjectID, err)
	}

	metrics.RecordsIndexed.WithLabelValues("single").Inc()
	e.logger.Info("indexed item", "itemId", item.ID, "index", e.index)
	return nil
}

// IndexItemByID resolves an item from the store and syncs it.
func (e *Engine) IndexItemByID(ctx context.Context, id int64) error {
	item, err := e.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return e.IndexItem(ctx, item)
}

// DeleteItem removes one record from the live index. A 404 from the
// engine counts as success: deleting an absent record is idempotent.
func (e *Engine) DeleteItem(ctx context.Context, id int64) error {
	objectID := strconv.FormatInt(id, 10)
	if err := e.client.DeleteObject(ctx, e.index, objectID); err != nil {
		if search.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to delete record %s: %w", objectID, err)
	}

	metrics.RecordsDeleted.WithLabelValues("single").Inc()
	e.logger.Info("deleted item from index", "itemId", id, "index", e.index)
	return nil
}

// IndexStats reports whether the live index exists and how many records
// it holds. Engine errors degrade to the zero value rather than
// propagate: stats are informational, never load-bearing.
func (e *Engine) IndexStats(ctx context.Context) Stats {
	result, err := e.client.Query(ctx, e.index, "")
	if err != nil {
		return Stats{Exists: false, Count: 0, Name: e.index}
	}
	return Stats{Exists: true, Count: result.NbHits, Name: e.index}
}

// RebuildAll rebuilds the live index in place, page by page, and
// applies composed settings once at the end. The index serves partially
// rebuilt results while this runs; use RebuildAtomic when that brief
// inconsistency is unacceptable.
func (e *Engine) RebuildAll(ctx context.Context) (RebuildResult, error) {
	start := e.now()

	result, err := e.populate(ctx, e.index)
	if err != nil {
		return result, err
	}
	if err := e.ApplySettings(ctx, e.index); err != nil {
		return result, err
	}

	metrics.RebuildDuration.WithLabelValues("sync").Observe(e.now().Sub(start).Seconds())
	e.logger.Info("rebuild complete", "index", e.index, "total", result.Total, "batches", result.Batches)
	return result, nil
}

// RebuildAtomic rebuilds into a uniquely named staging index and then
// moves it over the live name in a single engine operation. Readers of
// the live name see either the old complete index or the new one,
// never a mix. A zero-item corpus still creates, configures and moves
// the staging index so that settings changes always take effect.
func (e *Engine) RebuildAtomic(ctx context.Context) (RebuildResult, error) {
	start := e.now()
	staging := fmt.Sprintf("%s_tmp_%d", e.index, start.Unix())

	if err := e.ApplySettings(ctx, staging); err != nil {
		return RebuildResult{}, err
	}

	result, err := e.populate(ctx, staging)
	if err != nil {
		return result, err
	}

	if err := e.client.MoveIndex(ctx, staging, e.index); err != nil {
		return result, fmt.Errorf("failed to move staging index %s: %w", staging, err)
	}

	metrics.RebuildDuration.WithLabelValues("atomic").Observe(e.now().Sub(start).Seconds())
	e.logger.Info("atomic rebuild complete",
		"index", e.index,
		"staging", staging,
		"total", result.Total,
		"batches", result.Batches,
	)
	return result, nil
}

// SaveBatch builds records for the eligible items in one fetched page
// and saves them as a single batch to the live index. Ineligible items
// in the page are skipped, not deleted: a rebuild's job is to add.
// Returns the number of records saved.
func (e *Engine) SaveBatch(ctx context.Context, items []*content.Item) (int, error) {
	objects := make([]interface{}, 0, len(items))
	for _, item := range items {
		if !e.builder.ShouldIndex(item) {
			continue
		}
		objects = append(objects, e.builder.Build(item))
	}
	if len(objects) == 0 {
		return 0, nil
	}

	if err := e.client.SaveObjects(ctx, e.index, objects); err != nil {
		return 0, fmt.Errorf("failed to save batch of %d records: %w", len(objects), err)
	}
	metrics.RecordsIndexed.WithLabelValues("rebuild").Add(float64(len(objects)))
	return len(objects), nil
}

// ApplySettings composes and writes index settings.
func (e *Engine) ApplySettings(ctx context.Context, index string) error {
	if err := e.client.SetSettings(ctx, index, e.settings.Compose()); err != nil {
		return fmt.Errorf("failed to apply settings to %s: %w", index, err)
	}
	return nil
}

// populate pushes every eligible item into the named index, one page
// per batch save.
func (e *Engine) populate(ctx context.Context, index string) (RebuildResult, error) {
	var result RebuildResult

	for page := 1; ; page++ {
		items, err := e.store.FetchEligiblePage(ctx, e.types, BatchSize, page)
		if err != nil {
			return result, fmt.Errorf("failed to fetch page %d: %w", page, err)
		}
		if len(items) == 0 {
			break
		}

		objects := make([]interface{}, 0, len(items))
		for _, item := range items {
			if !e.builder.ShouldIndex(item) {
				continue
			}
			objects = append(objects, e.builder.Build(item))
		}

		if len(objects) > 0 {
			if err := e.client.SaveObjects(ctx, index, objects); err != nil {
				return result, fmt.Errorf("failed to save page %d: %w", page, err)
			}
			metrics.RecordsIndexed.WithLabelValues("rebuild").Add(float64(len(objects)))
		}

		result.Total += len(objects)
		result.Batches++

		if len(items) < BatchSize {
			break
		}
	}

	return result, nil
}
