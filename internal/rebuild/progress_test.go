package rebuild

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	assert.True(t, StatusInProgress.Valid())
	assert.True(t, StatusCancelled.Valid())
	assert.False(t, Status("finished").Valid())
	assert.False(t, Status("").Valid())

	assert.False(t, StatusInProgress.Terminal())
	assert.True(t, StatusComplete.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.True(t, StatusCancelled.Terminal())
}

func TestProgress_Transitions(t *testing.T) {
	at := time.Unix(1700000000, 0).UTC()

	t.Run("Complete", func(t *testing.T) {
		p := &Progress{Status: StatusInProgress, Total: 5, Processed: 5}
		p.Complete(at)

		assert.Equal(t, StatusComplete, p.Status)
		require.NotNil(t, p.CompletedAt)
		assert.Equal(t, at, *p.CompletedAt)
	})

	t.Run("Fail", func(t *testing.T) {
		p := &Progress{Status: StatusInProgress}
		p.Fail(fmt.Errorf("engine unavailable"), at)

		assert.Equal(t, StatusFailed, p.Status)
		assert.Equal(t, "engine unavailable", p.LastError)
		require.NotNil(t, p.CompletedAt)
	})
}

func TestDecode(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		started := time.Unix(1700000000, 0).UTC()
		original := &Progress{
			Status:      StatusInProgress,
			Total:       250,
			Processed:   100,
			CurrentPage: 2,
			TotalPages:  3,
			BatchesDone: 1,
			Mode:        ModeScheduled,
			StartedAt:   started,
		}

		data, err := original.Encode()
		require.NoError(t, err)

		decoded := Decode(data)
		require.NotNil(t, decoded)
		assert.Equal(t, original, decoded)
	})

	t.Run("WireFieldNames", func(t *testing.T) {
		p := &Progress{Status: StatusInProgress, Mode: ModeScheduled, StartedAt: time.Unix(1700000000, 0).UTC()}
		data, err := p.Encode()
		require.NoError(t, err)

		var raw map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &raw))
		assert.Contains(t, raw, "status")
		assert.Contains(t, raw, "total_pages")
		assert.Contains(t, raw, "batches_done")
		assert.NotContains(t, raw, "completed_at")
		assert.NotContains(t, raw, "last_error")
	})

	t.Run("MalformedInputDecodesToNil", func(t *testing.T) {
		assert.Nil(t, Decode(nil))
		assert.Nil(t, Decode([]byte("")))
		assert.Nil(t, Decode([]byte("not json")))
		assert.Nil(t, Decode([]byte(`{"status":`)))
	})

	t.Run("UnknownStatusDecodesToNil", func(t *testing.T) {
		assert.Nil(t, Decode([]byte(`{"status":"finished","total":3}`)))
		assert.Nil(t, Decode([]byte(`{"total":3}`)))
	})
}
