package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/searchsync-go/pkg/metrics"
	"github.com/searchsync-go/pkg/resilience"
)

// Client is the write/query boundary to the search engine. The wire
// protocol is Algolia-compatible.
type Client interface {
	SaveObject(ctx context.Context, index, objectID string, object interface{}) error
	SaveObjects(ctx context.Context, index string, objects []interface{}) error
	DeleteObject(ctx context.Context, index, objectID string) error
	SetSettings(ctx context.Context, index string, settings Settings) error
	GetSettings(ctx context.Context, index string) (Settings, error)
	Query(ctx context.Context, index, query string) (*QueryResult, error)
	MoveIndex(ctx context.Context, source, destination string) error
}

// Config holds connection settings for the engine.
type Config struct {
	AppID          string
	APIKey         string
	Hosts          []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RequestsPerSec int
}

type httpClient struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	breaker *resilience.CircuitBreaker
	retry   resilience.RetryConfig
}

// NewClient builds an HTTP client for the engine. The engine is a
// shared multi-tenant service, so outbound calls are rate limited and
// run through a circuit breaker.
func NewClient(cfg Config) (Client, error) {
	if cfg.AppID == "" || cfg.APIKey == "" {
		return nil, ErrMissingCredentials
	}
	if len(cfg.Hosts) == 0 {
		return nil, fmt.Errorf("at least one search host is required")
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 5 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	if cfg.RequestsPerSec <= 0 {
		cfg.RequestsPerSec = 20
	}

	retry := resilience.DefaultRetryConfig()
	retry.ShouldRetry = IsTransient

	return &httpClient{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.WriteTimeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.RequestsPerSec),
		breaker: resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("search-engine")),
		retry:   retry,
	}, nil
}

func (c *httpClient) SaveObject(ctx context.Context, index, objectID string, object interface{}) error {
	path := fmt.Sprintf("/1/indexes/%s/%s", url.PathEscape(index), url.PathEscape(objectID))
	return c.do(ctx, "save_object", http.MethodPut, path, object, nil)
}

func (c *httpClient) SaveObjects(ctx context.Context, index string, objects []interface{}) error {
	if len(objects) == 0 {
		return nil
	}
	batch := batchRequest{Requests: make([]batchOperation, 0, len(objects))}
	for _, obj := range objects {
		batch.Requests = append(batch.Requests, batchOperation{Action: "updateObject", Body: obj})
	}
	path := fmt.Sprintf("/1/indexes/%s/batch", url.PathEscape(index))
	return c.do(ctx, "save_objects", http.MethodPost, path, batch, nil)
}

func (c *httpClient) DeleteObject(ctx context.Context, index, objectID string) error {
	path := fmt.Sprintf("/1/indexes/%s/%s", url.PathEscape(index), url.PathEscape(objectID))
	return c.do(ctx, "delete_object", http.MethodDelete, path, nil, nil)
}

func (c *httpClient) SetSettings(ctx context.Context, index string, settings Settings) error {
	path := fmt.Sprintf("/1/indexes/%s/settings", url.PathEscape(index))
	return c.do(ctx, "set_settings", http.MethodPut, path, settings, nil)
}

func (c *httpClient) GetSettings(ctx context.Context, index string) (Settings, error) {
	var settings Settings
	path := fmt.Sprintf("/1/indexes/%s/settings", url.PathEscape(index))
	err := c.do(ctx, "get_settings", http.MethodGet, path, nil, &settings)
	return settings, err
}

func (c *httpClient) Query(ctx context.Context, index, query string) (*QueryResult, error) {
	var result QueryResult
	path := fmt.Sprintf("/1/indexes/%s/query", url.PathEscape(index))
	body := map[string]string{"query": query}
	if err := c.do(ctx, "query", http.MethodPost, path, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *httpClient) MoveIndex(ctx context.Context, source, destination string) error {
	path := fmt.Sprintf("/1/indexes/%s/operation", url.PathEscape(source))
	op := indexOperation{Operation: "move", Destination: destination}
	return c.do(ctx, "move_index", http.MethodPost, path, op, nil)
}

// do runs one engine request through the rate limiter, circuit breaker
// and retry policy, rotating to the next host on transport failure.
func (c *httpClient) do(ctx context.Context, operation, method, path string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	start := time.Now()
	hostIdx := 0
	err := resilience.Retry(ctx, c.retry, func() error {
		host := c.cfg.Hosts[hostIdx%len(c.cfg.Hosts)]
		hostIdx++
		return c.breaker.Execute(func() error {
			return c.request(ctx, method, host+path, payload, out)
		})
	})

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RecordAPIRequest(operation, status, time.Since(start).Seconds())

	return err
}

func (c *httpClient) request(ctx context.Context, method, rawURL string, payload []byte, out interface{}) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("X-Algolia-Application-Id", c.cfg.AppID)
	req.Header.Set("X-Algolia-API-Key", c.cfg.APIKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("search engine request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errBody apiErrorBody
		data, _ := io.ReadAll(resp.Body)
		if jsonErr := json.Unmarshal(data, &errBody); jsonErr != nil || errBody.Message == "" {
			errBody.Message = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: errBody.Message}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
