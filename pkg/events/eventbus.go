package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Content lifecycle event names published by the CMS.
const (
	ContentSaved         = "content.saved"
	ContentDeleted       = "content.deleted"
	ContentTrashed       = "content.trashed"
	ContentRestored      = "content.restored"
	ContentStatusChanged = "content.status_changed"
)

// Event is one content lifecycle notification.
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	ItemID    int64                  `json:"itemId"`
	Timestamp time.Time              `json:"timestamp"`
	Payload   map[string]interface{} `json:"payload"`
}

// Payload keys used by the lifecycle events.
const (
	PayloadAutosave  = "autosave"
	PayloadOldStatus = "old_status"
	PayloadNewStatus = "new_status"
)

// StringPayload returns the named payload value as a string.
func (e Event) StringPayload(key string) string {
	if v, ok := e.Payload[key].(string); ok {
		return v
	}
	return ""
}

// BoolPayload returns the named payload value as a bool.
func (e Event) BoolPayload(key string) bool {
	v, _ := e.Payload[key].(bool)
	return v
}

// NewEvent builds a lifecycle event for one content item.
func NewEvent(eventType string, itemID int64) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		ItemID:    itemID,
		Timestamp: time.Now().UTC(),
		Payload:   make(map[string]interface{}),
	}
}

// WithPayload returns a copy of the event with one payload entry added.
func (e Event) WithPayload(key string, value interface{}) Event {
	e.Payload[key] = value
	return e
}

// EventHandler consumes one event.
type EventHandler func(ctx context.Context, event Event) error

// EventBus delivers content lifecycle events to subscribed handlers.
type EventBus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType string, handler EventHandler) error
	Close() error
}

// MemoryEventBus dispatches events synchronously in-process. It backs
// single-process deployments and tests.
type MemoryEventBus struct {
	mu       sync.RWMutex
	handlers map[string][]EventHandler
}

func NewMemoryEventBus() *MemoryEventBus {
	return &MemoryEventBus{handlers: make(map[string][]EventHandler)}
}

func (m *MemoryEventBus) Publish(ctx context.Context, event Event) error {
	m.mu.RLock()
	handlers := append([]EventHandler(nil), m.handlers[event.Type]...)
	m.mu.RUnlock()

	for _, h := range handlers {
		if err := h(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryEventBus) Subscribe(eventType string, handler EventHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[eventType] = append(m.handlers[eventType], handler)
	return nil
}

func (m *MemoryEventBus) Close() error {
	return nil
}

// KafkaConfig holds connection settings for the lifecycle topic.
type KafkaConfig struct {
	Brokers       []string
	Topic         string
	ConsumerGroup string
}

// KafkaEventBus carries lifecycle events over a kafka topic. The CMS
// side publishes; this service consumes. Event type is carried in a
// message header so handlers are matched without decoding first.
type KafkaEventBus struct {
	config   KafkaConfig
	writer   *kafka.Writer
	reader   *kafka.Reader
	mu       sync.RWMutex
	handlers map[string][]EventHandler
	cancel   context.CancelFunc
}

func NewKafkaEventBus(config KafkaConfig) *KafkaEventBus {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      config.Brokers,
		Topic:        config.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	})

	return &KafkaEventBus{
		config:   config,
		writer:   writer,
		handlers: make(map[string][]EventHandler),
	}
}

func (k *KafkaEventBus) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("%d", event.ItemID)),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	}

	return k.writer.WriteMessages(ctx, msg)
}

func (k *KafkaEventBus) Subscribe(eventType string, handler EventHandler) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.handlers[eventType] = append(k.handlers[eventType], handler)

	if k.reader == nil {
		k.reader = kafka.NewReader(kafka.ReaderConfig{
			Brokers:     k.config.Brokers,
			Topic:       k.config.Topic,
			GroupID:     k.config.ConsumerGroup,
			MinBytes:    1,
			MaxBytes:    10e6,
			StartOffset: kafka.LastOffset,
			MaxWait:     1 * time.Second,
		})
		ctx, cancel := context.WithCancel(context.Background())
		k.cancel = cancel
		go k.consume(ctx)
	}

	return nil
}

func (k *KafkaEventBus) consume(ctx context.Context) {
	for {
		msg, err := k.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			time.Sleep(1 * time.Second)
			continue
		}

		var event Event
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			continue
		}

		k.mu.RLock()
		handlers := append([]EventHandler(nil), k.handlers[event.Type]...)
		k.mu.RUnlock()

		for _, h := range handlers {
			// Handler errors are the handler's responsibility; the
			// consumer loop keeps draining the topic regardless.
			_ = h(ctx, event)
		}
	}
}

func (k *KafkaEventBus) Close() error {
	if k.cancel != nil {
		k.cancel()
	}
	if err := k.writer.Close(); err != nil {
		return fmt.Errorf("failed to close writer: %w", err)
	}
	if k.reader != nil {
		if err := k.reader.Close(); err != nil {
			return fmt.Errorf("failed to close reader: %w", err)
		}
	}
	return nil
}
