package indexer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/searchsync-go/internal/search"
)

func TestSettingsComposer_Compose(t *testing.T) {
	t.Run("ExpandsRelationalFields", func(t *testing.T) {
		composer := NewSettingsComposer(
			[]string{"title", "content", "excerpt", "author"},
			[]string{"type_label", "author.name"},
			[]string{"desc(created_at)"},
		)

		settings := composer.Compose()

		assert.Equal(t, []string{"title", "content", "excerpt", "author.name"}, settings.SearchableAttributes)
		assert.Equal(t, []string{"type_label", "author.name"}, settings.AttributesForFaceting)
		assert.Equal(t, []string{"desc(created_at)"}, settings.CustomRanking)
	})

	t.Run("RecomputedEachCall", func(t *testing.T) {
		composer := NewSettingsComposer([]string{"title"}, nil, nil)

		first := composer.Compose()
		first.SearchableAttributes[0] = "mutated"

		assert.Equal(t, []string{"title"}, composer.Compose().SearchableAttributes)
	})

	t.Run("TransformsRunInOrder", func(t *testing.T) {
		composer := NewSettingsComposer([]string{"title"}, nil, nil)
		composer.Transform(func(s search.Settings) search.Settings {
			s.CustomRanking = []string{"desc(comment_count)"}
			return s
		})
		composer.Transform(func(s search.Settings) search.Settings {
			s.CustomRanking = append(s.CustomRanking, "desc(created_at)")
			return s
		})

		settings := composer.Compose()

		assert.Equal(t, []string{"desc(comment_count)", "desc(created_at)"}, settings.CustomRanking)
	})
}
