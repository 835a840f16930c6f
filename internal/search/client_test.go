package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (Client, *[]recordedRequest) {
	t.Helper()

	var requests []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests = append(requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Header: r.Header.Clone(),
			Body:   body,
		})
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{
		AppID:          "APP123",
		APIKey:         "secret-key",
		Hosts:          []string{srv.URL},
		RequestsPerSec: 1000,
	})
	require.NoError(t, err)
	return client, &requests
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{}`))
}

func TestNewClient(t *testing.T) {
	t.Run("RequiresCredentials", func(t *testing.T) {
		_, err := NewClient(Config{Hosts: []string{"http://localhost"}})
		assert.ErrorIs(t, err, ErrMissingCredentials)

		_, err = NewClient(Config{AppID: "APP", Hosts: []string{"http://localhost"}})
		assert.ErrorIs(t, err, ErrMissingCredentials)
	})

	t.Run("RequiresHosts", func(t *testing.T) {
		_, err := NewClient(Config{AppID: "APP", APIKey: "key"})
		assert.Error(t, err)
	})
}

func TestClient_SaveObject(t *testing.T) {
	client, requests := newTestClient(t, okHandler)

	err := client.SaveObject(context.Background(), "content", "42", map[string]string{"title": "Hello"})

	require.NoError(t, err)
	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/1/indexes/content/42", req.Path)
	assert.Equal(t, "APP123", req.Header.Get("X-Algolia-Application-Id"))
	assert.Equal(t, "secret-key", req.Header.Get("X-Algolia-API-Key"))
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"title":"Hello"}`, string(req.Body))
}

func TestClient_SaveObjects(t *testing.T) {
	t.Run("BatchWireFormat", func(t *testing.T) {
		client, requests := newTestClient(t, okHandler)

		err := client.SaveObjects(context.Background(), "content", []interface{}{
			map[string]string{"objectID": "1"},
			map[string]string{"objectID": "2"},
		})

		require.NoError(t, err)
		require.Len(t, *requests, 1)
		req := (*requests)[0]
		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "/1/indexes/content/batch", req.Path)

		var batch struct {
			Requests []struct {
				Action string            `json:"action"`
				Body   map[string]string `json:"body"`
			} `json:"requests"`
		}
		require.NoError(t, json.Unmarshal(req.Body, &batch))
		require.Len(t, batch.Requests, 2)
		assert.Equal(t, "updateObject", batch.Requests[0].Action)
		assert.Equal(t, "1", batch.Requests[0].Body["objectID"])
	})

	t.Run("EmptyBatchIsNoRequest", func(t *testing.T) {
		client, requests := newTestClient(t, okHandler)

		err := client.SaveObjects(context.Background(), "content", nil)

		require.NoError(t, err)
		assert.Empty(t, *requests)
	})
}

func TestClient_DeleteObject(t *testing.T) {
	t.Run("Deletes", func(t *testing.T) {
		client, requests := newTestClient(t, okHandler)

		err := client.DeleteObject(context.Background(), "content", "42")

		require.NoError(t, err)
		req := (*requests)[0]
		assert.Equal(t, http.MethodDelete, req.Method)
		assert.Equal(t, "/1/indexes/content/42", req.Path)
	})

	t.Run("MissingObjectIsAPIError", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"ObjectID does not exist"}`))
		})

		err := client.DeleteObject(context.Background(), "content", "42")

		require.Error(t, err)
		assert.True(t, IsNotFound(err))
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "ObjectID does not exist", apiErr.Message)
	})
}

func TestClient_Settings(t *testing.T) {
	t.Run("SetUsesWireFieldNames", func(t *testing.T) {
		client, requests := newTestClient(t, okHandler)

		err := client.SetSettings(context.Background(), "content", Settings{
			SearchableAttributes:  []string{"title", "content"},
			AttributesForFaceting: []string{"type_label"},
			CustomRanking:         []string{"desc(created_at)"},
		})

		require.NoError(t, err)
		req := (*requests)[0]
		assert.Equal(t, http.MethodPut, req.Method)
		assert.Equal(t, "/1/indexes/content/settings", req.Path)
		assert.JSONEq(t, `{
			"searchableAttributes": ["title", "content"],
			"attributesForFaceting": ["type_label"],
			"customRanking": ["desc(created_at)"]
		}`, string(req.Body))
	})

	t.Run("Get", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"searchableAttributes":["title"]}`))
		})

		settings, err := client.GetSettings(context.Background(), "content")

		require.NoError(t, err)
		assert.Equal(t, []string{"title"}, settings.SearchableAttributes)
	})
}

func TestClient_Query(t *testing.T) {
	client, requests := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hits":[{"objectID":"1"}],"nbHits":17}`))
	})

	result, err := client.Query(context.Background(), "content", "")

	require.NoError(t, err)
	assert.Equal(t, 17, result.NbHits)
	require.Len(t, result.Hits, 1)

	req := (*requests)[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/1/indexes/content/query", req.Path)
	assert.JSONEq(t, `{"query":""}`, string(req.Body))
}

func TestClient_MoveIndex(t *testing.T) {
	client, requests := newTestClient(t, okHandler)

	err := client.MoveIndex(context.Background(), "content_tmp_1700000000", "content")

	require.NoError(t, err)
	req := (*requests)[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/1/indexes/content_tmp_1700000000/operation", req.Path)
	assert.JSONEq(t, `{"operation":"move","destination":"content"}`, string(req.Body))
}

func TestClient_Retry(t *testing.T) {
	t.Run("TransientFailureIsRetried", func(t *testing.T) {
		attempts := 0
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			attempts++
			if attempts == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			okHandler(w, r)
		})

		err := client.SaveObject(context.Background(), "content", "1", map[string]string{})

		require.NoError(t, err)
		assert.Equal(t, 2, attempts)
	})

	t.Run("ClientErrorIsNotRetried", func(t *testing.T) {
		attempts := 0
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			attempts++
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"message":"invalid objectID"}`))
		})

		err := client.SaveObject(context.Background(), "content", "1", map[string]string{})

		require.Error(t, err)
		assert.Equal(t, 1, attempts)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	})
}

func TestErrorPredicates(t *testing.T) {
	assert.True(t, IsNotFound(&APIError{StatusCode: 404}))
	assert.False(t, IsNotFound(&APIError{StatusCode: 500}))
	assert.False(t, IsNotFound(nil))

	assert.True(t, IsTransient(&APIError{StatusCode: 503}))
	assert.True(t, IsTransient(&APIError{StatusCode: 429}))
	assert.False(t, IsTransient(&APIError{StatusCode: 404}))
	assert.False(t, IsTransient(&APIError{StatusCode: 400}))
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(ErrMissingCredentials))
}
