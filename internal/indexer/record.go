package indexer

import (
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/searchsync-go/internal/domain/content"
)

const (
	// MaxBodyRunes bounds record size: body text is truncated to this
	// many Unicode code points regardless of source length.
	MaxBodyRunes = 10000

	// MaxExcerptRunes bounds a synthesized excerpt, before the ellipsis
	// marker is appended.
	MaxExcerptRunes = 300

	excerptEllipsis = "..."
)

// Record is the flat, engine-ready projection of one content item.
// Built fresh on every sync operation, never persisted by this service.
type Record struct {
	ObjectID     string `json:"objectID"`
	ItemID       int64  `json:"item_id"`
	Title        string `json:"title"`
	Excerpt      string `json:"excerpt"`
	Content      string `json:"content"`
	Type         string `json:"type"`
	TypeLabel    string `json:"type_label"`
	Status       string `json:"status"`
	URL          string `json:"url"`
	Author       Author `json:"author"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at"`
	Order        int    `json:"order"`
	CommentCount int    `json:"comment_count"`
}

type Author struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// RestrictFunc further restricts eligibility. It is ANDed with the
// built-in check: restrictors can exclude items, never add them.
type RestrictFunc func(item *content.Item) bool

// RecordTransform adjusts a built record before it is saved. Transforms
// run in registration order, each receiving the previous result.
type RecordTransform func(rec Record, item *content.Item) Record

// Builder turns content items into index records and decides whether an
// item belongs in the index at all. Pure transformation, no I/O.
type Builder struct {
	types      map[string]bool
	restricts  []RestrictFunc
	transforms []RecordTransform
}

func NewBuilder(types []string) *Builder {
	allowed := make(map[string]bool, len(types))
	for _, t := range types {
		allowed[t] = true
	}
	return &Builder{types: allowed}
}

// Restrict registers an eligibility restrictor.
func (b *Builder) Restrict(fn RestrictFunc) {
	b.restricts = append(b.restricts, fn)
}

// Transform registers a record transform.
func (b *Builder) Transform(fn RecordTransform) {
	b.transforms = append(b.transforms, fn)
}

// ShouldIndex reports whether the item belongs in the index: its type
// is allow-listed, it is published, and it is not access-restricted.
func (b *Builder) ShouldIndex(item *content.Item) bool {
	if !b.types[item.Type] {
		return false
	}
	if !item.IsPublished() || item.IsProtected() {
		return false
	}
	for _, restrict := range b.restricts {
		if !restrict(item) {
			return false
		}
	}
	return true
}

// Build produces the index record for an item. Deterministic and
// side-effect-free: the same item and configuration always yield an
// identical record.
func (b *Builder) Build(item *content.Item) Record {
	body := truncateRunes(CleanText(item.Body), MaxBodyRunes)

	excerpt := CleanText(item.Excerpt)
	if excerpt == "" {
		excerpt = truncateRunes(body, MaxExcerptRunes)
		if excerpt != "" {
			excerpt += excerptEllipsis
		}
	}

	rec := Record{
		ObjectID:     strconv.FormatInt(item.ID, 10),
		ItemID:       item.ID,
		Title:        item.Title,
		Excerpt:      excerpt,
		Content:      body,
		Type:         item.Type,
		TypeLabel:    content.TypeLabel(item.Type),
		Status:       item.Status,
		URL:          item.URL,
		Author:       Author{ID: item.AuthorID, Name: item.AuthorName},
		CreatedAt:    item.CreatedAt.Unix(),
		UpdatedAt:    item.UpdatedAt.Unix(),
		Order:        item.Order,
		CommentCount: item.CommentCount,
	}

	for _, transform := range b.transforms {
		rec = transform(rec, item)
	}
	return rec
}

var (
	scriptRe    = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	tagRe       = regexp.MustCompile(`(?s)<[^>]*>`)
	shortcodeRe = regexp.MustCompile(`\[/?[a-zA-Z][^\]]*\]`)
	spaceRe     = regexp.MustCompile(`\s+`)
)

// CleanText strips markup and shortcode-style templating directives
// from body text, decodes HTML entities and collapses whitespace.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	s = scriptRe.ReplaceAllString(s, " ")
	s = tagRe.ReplaceAllString(s, " ")
	s = shortcodeRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// truncateRunes cuts s to at most n code points. Measured in runes,
// not bytes: multibyte text must never be cut mid-character.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
