package content

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned when the store has no item for the requested ID.
var ErrNotFound = errors.New("content item not found")

// Publication status values used by the content store.
const (
	StatusDraft     = "draft"
	StatusPending   = "pending"
	StatusPublished = "published"
	StatusPrivate   = "private"
	StatusTrashed   = "trashed"
	StatusInherit   = "inherit"
	StatusAutoDraft = "auto-draft"
)

// Item is a unit of content owned by the external store. This service
// reads items and projects them into the search index; it never writes
// them back.
type Item struct {
	ID           int64     `json:"id" gorm:"primaryKey;column:id"`
	Type         string    `json:"type" gorm:"column:type;index"`
	Status       string    `json:"status" gorm:"column:status;index"`
	Title        string    `json:"title" gorm:"column:title"`
	Body         string    `json:"body" gorm:"column:body"`
	Excerpt      string    `json:"excerpt" gorm:"column:excerpt"`
	Password     string    `json:"-" gorm:"column:password"`
	URL          string    `json:"url" gorm:"column:url"`
	AuthorID     int64     `json:"authorId" gorm:"column:author_id"`
	AuthorName   string    `json:"authorName" gorm:"column:author_name"`
	Order        int       `json:"order" gorm:"column:sort_order"`
	CommentCount int       `json:"commentCount" gorm:"column:comment_count"`
	CreatedAt    time.Time `json:"createdAt" gorm:"column:created_at"`
	UpdatedAt    time.Time `json:"updatedAt" gorm:"column:updated_at"`
}

func (Item) TableName() string {
	return "content_items"
}

// IsPublished reports whether the item is publicly visible.
func (i *Item) IsPublished() bool {
	return i.Status == StatusPublished
}

// IsProtected reports whether access to the item is restricted.
func (i *Item) IsProtected() bool {
	return i.Password != ""
}

// Store is the read-only boundary to the content store. Paged reads
// return only published, unprotected items of the requested types in a
// stable order so that rebuild batches never overlap.
type Store interface {
	// FetchEligiblePage returns one page of indexable items. Pages are
	// 1-based; a page past the end returns an empty slice, not an error.
	FetchEligiblePage(ctx context.Context, types []string, pageSize, page int) ([]*Item, error)

	// CountEligible returns the number of indexable items across types.
	CountEligible(ctx context.Context, types []string) (int64, error)

	// GetByID returns a single item regardless of status, or ErrNotFound.
	GetByID(ctx context.Context, id int64) (*Item, error)
}

// TypeLabel returns the human-readable label for a content type tag.
func TypeLabel(t string) string {
	switch t {
	case "post":
		return "Posts"
	case "page":
		return "Pages"
	case "attachment":
		return "Media"
	case "":
		return ""
	default:
		return strings.ToUpper(t[:1]) + t[1:] + "s"
	}
}
