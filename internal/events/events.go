package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/ecoforge/apiserver/config"
)

// ChannelWasteLogged is the broker channel carrying waste-log events.
const ChannelWasteLogged = "waste-logged"

// WasteEvent is published after a waste-log entry has been durably
// appended. The score worker folds these into per-user totals.
type WasteEvent struct {
	EntryID  string    `json:"entry_id"`
	UserID   int       `json:"user_id"`
	Points   int       `json:"points"`
	Category string    `json:"category"`
	Date     string    `json:"date"`
	LoggedAt time.Time `json:"logged_at"`
}

// Message represents a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// RawHandler processes a raw message. Return an error to signal a retry/nack.
type RawHandler func(ctx context.Context, msg Message) error

// Backend defines the broker-agnostic operations used by the app.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler RawHandler) error
	Close() error
}

// WasteHandler processes a decoded waste event.
type WasteHandler func(ctx context.Context, event WasteEvent) error

// Bus publishes and consumes typed waste events over a backend.
type Bus struct {
	backend Backend
}

// NewBus constructs a Bus for the provided backend.
func NewBus(backend Backend) *Bus {
	return &Bus{backend: backend}
}

// NewBusFromConfig selects a backend by cfg.MQBackend. An empty backend
// name yields (nil, nil): the caller runs without an event bus.
func NewBusFromConfig(ctx context.Context, cfg config.Config) (*Bus, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.MQBackend)) {
	case "":
		return nil, nil
	case "rabbitmq":
		backend, err := NewRabbitMQBackend(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return NewBus(backend), nil
	case "pubsub":
		backend, err := NewPubSubBackend(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return NewBus(backend), nil
	default:
		return nil, errors.New("unknown mq backend: " + cfg.MQBackend)
	}
}

// PublishWasteLogged sends one waste event to the waste-logged channel.
func (b *Bus) PublishWasteLogged(ctx context.Context, event WasteEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	attrs := map[string]string{"category": event.Category}
	_, err = b.backend.Publish(ctx, ChannelWasteLogged, data, attrs)
	return err
}

// SubscribeWasteLogged consumes waste events until ctx is cancelled.
// Undecodable messages are acked and dropped rather than redelivered
// forever.
func (b *Bus) SubscribeWasteLogged(ctx context.Context, handler WasteHandler) error {
	return b.backend.Subscribe(ctx, ChannelWasteLogged, func(ctx context.Context, msg Message) error {
		var event WasteEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			return nil
		}
		return handler(ctx, event)
	})
}

// Close closes the underlying backend.
func (b *Bus) Close() error {
	return b.backend.Close()
}
