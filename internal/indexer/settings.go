package indexer

import (
	"github.com/searchsync-go/internal/search"
)

// SettingsTransform adjusts composed settings before they are applied.
// Transforms run in registration order.
type SettingsTransform func(settings search.Settings) search.Settings

// SettingsComposer derives the engine's schema and ranking settings
// from the configured option set. Recomputed on demand, never diffed.
type SettingsComposer struct {
	searchable []string
	facets     []string
	ranking    []string
	transforms []SettingsTransform
}

func NewSettingsComposer(searchable, facets, ranking []string) *SettingsComposer {
	return &SettingsComposer{
		searchable: searchable,
		facets:     facets,
		ranking:    ranking,
	}
}

// Transform registers a settings transform.
func (c *SettingsComposer) Transform(fn SettingsTransform) {
	c.transforms = append(c.transforms, fn)
}

// Compose builds the settings object. Relational fields expand to
// their searchable sub-field path: the engine cannot search into a
// compound object by its top-level name, so "author" becomes
// "author.name".
func (c *SettingsComposer) Compose() search.Settings {
	searchable := make([]string, 0, len(c.searchable))
	for _, field := range c.searchable {
		searchable = append(searchable, expandField(field))
	}

	settings := search.Settings{
		SearchableAttributes:  searchable,
		AttributesForFaceting: append([]string(nil), c.facets...),
		CustomRanking:         append([]string(nil), c.ranking...),
	}

	for _, transform := range c.transforms {
		settings = transform(settings)
	}
	return settings
}

func expandField(field string) string {
	if field == "author" {
		return "author.name"
	}
	return field
}
