package event

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/tableside/internal/config"
	"github.com/Additional-Code/tableside/internal/messaging"
)

// Type names a domain event.
type Type string

const (
	OrderCreated         Type = "order.created"
	OrderStatusChanged   Type = "order.status_changed"
	OrderPaid            Type = "order.paid"
	ReservationCreated   Type = "reservation.created"
	ReservationUpdated   Type = "reservation.updated"
	ReservationCancelled Type = "reservation.cancelled"
	TableStatusChanged   Type = "table.status_changed"
)

// Envelope is the wire format of every domain event.
type Envelope struct {
	Type       Type      `json:"type"`
	ID         string    `json:"id"`
	TableID    string    `json:"table_id,omitempty"`
	Status     string    `json:"status,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Decode parses an envelope from a message payload.
func Decode(payload []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Envelope{}, err
	}
	if env.Type == "" {
		return Envelope{}, errors.New("event type is required")
	}
	return env, nil
}

// Module provides the event publisher to Fx.
var Module = fx.Provide(NewPublisher)

// Params defines dependencies for constructing Publisher.
type Params struct {
	fx.In

	Client messaging.Client
	Config config.Config
	Logger *zap.Logger
}

// Publisher emits domain events after commit. Failures are logged, never returned.
type Publisher struct {
	client  messaging.Client
	enabled bool
	logger  *zap.Logger
}

// NewPublisher wires a Publisher.
func NewPublisher(p Params) *Publisher {
	return &Publisher{
		client:  p.Client,
		enabled: p.Config.Messaging.Enabled,
		logger:  p.Logger,
	}
}

// Publish sends env keyed by its aggregate id.
func (p *Publisher) Publish(ctx context.Context, env Envelope) {
	if p == nil || !p.enabled || p.client == nil {
		return
	}
	if env.OccurredAt.IsZero() {
		env.OccurredAt = time.Now().UTC()
	}
	payload, err := json.Marshal(env)
	if err != nil {
		p.logger.Error("marshal event", zap.String("type", string(env.Type)), zap.Error(err))
		return
	}
	msg := messaging.Message{
		Key:     []byte(env.ID),
		Value:   payload,
		Headers: map[string]string{messaging.HeaderEventType: string(env.Type)},
	}
	if err := p.client.Publish(ctx, msg); err != nil {
		p.logger.Error("publish event",
			zap.String("type", string(env.Type)),
			zap.String("id", env.ID),
			zap.Error(err),
		)
	}
}
