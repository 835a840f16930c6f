package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/searchsync-go/internal/domain/content"
	"github.com/searchsync-go/pkg/database"
)

// ContentRepository reads content items from the CMS database. It
// implements content.Store and never writes.
type ContentRepository struct {
	db *database.DB
}

func NewContentRepository(db *database.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// FetchEligiblePage returns one page of published, unprotected items of
// the given types, ordered by id so pages are stable across a rebuild.
func (r *ContentRepository) FetchEligiblePage(ctx context.Context, types []string, pageSize, page int) ([]*content.Item, error) {
	if page < 1 {
		return nil, fmt.Errorf("page must be >= 1, got %d", page)
	}

	var items []*content.Item
	err := r.eligible(ctx, types).
		Order("id ASC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page %d: %w", page, err)
	}
	return items, nil
}

// CountEligible counts published, unprotected items of the given types.
func (r *ContentRepository) CountEligible(ctx context.Context, types []string) (int64, error) {
	var count int64
	if err := r.eligible(ctx, types).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count eligible items: %w", err)
	}
	return count, nil
}

// GetByID returns one item regardless of status.
func (r *ContentRepository) GetByID(ctx context.Context, id int64) (*content.Item, error) {
	var item content.Item
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, content.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item %d: %w", id, err)
	}
	return &item, nil
}

func (r *ContentRepository) eligible(ctx context.Context, types []string) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&content.Item{}).
		Where("type IN ?", types).
		Where("status = ?", content.StatusPublished).
		Where("password = '' OR password IS NULL")
}
