package messaging

import (
	"context"
	"fmt"
	"maps"
	"strconv"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/tableside/internal/config"
)

// HeaderEventType carries the domain event type so consumers can route
// without decoding the payload.
const HeaderEventType = "event-type"

// Headers stamped on a message that is put back on the bus after its handler
// kept failing.
const (
	HeaderRedelivery = "redelivery"
	HeaderLastError  = "last-error"
)

// Message is a record published to or consumed from the bus.
type Message struct {
	Topic   string
	Key     []byte
	Value   []byte
	Headers map[string]string
	Offset  int64
	Time    time.Time
}

// Handler processes an inbound message. A non-nil error asks for a retry.
type Handler func(context.Context, Message) error

// Client is the pluggable messaging abstraction.
type Client interface {
	Publish(ctx context.Context, msg Message) error
	Consume(ctx context.Context, handler Handler) error
	Topic() string
}

// Module wires the messaging client.
var Module = fx.Provide(NewClient)

// noopClient is used when messaging is disabled.
type noopClient struct {
	topic string
}

func (n noopClient) Publish(context.Context, Message) error { return nil }
func (n noopClient) Consume(ctx context.Context, handler Handler) error {
	<-ctx.Done()
	return ctx.Err()
}
func (n noopClient) Topic() string { return n.topic }

// NewClient builds a messaging client based on configuration.
func NewClient(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (Client, error) {
	if !cfg.Messaging.Enabled || cfg.Messaging.Driver == "noop" {
		logger.Info("messaging disabled; using noop client")

		return noopClient{topic: cfg.Messaging.Kafka.Topic}, nil
	}

	switch cfg.Messaging.Driver {
	case "kafka":
		return newKafkaClient(lc, cfg, logger)
	case "memory":
		logger.Info("using in-process message bus")

		return NewMemory(cfg.Messaging.Kafka.Topic, retryPolicyFrom(cfg), logger), nil
	default:
		return nil, fmt.Errorf("unsupported messaging driver: %s", cfg.Messaging.Driver)
	}
}

// retryPolicy bounds redelivery of a failing message: attempts in-process,
// then redeliveries through the bus.
type retryPolicy struct {
	attempts     int
	backoff      time.Duration
	redeliveries int
}

func retryPolicyFrom(cfg config.Config) retryPolicy {
	return retryPolicy{
		attempts:     cfg.Messaging.Workers.MaxAttempts,
		backoff:      cfg.Messaging.Workers.PollInterval,
		redeliveries: cfg.Messaging.Workers.MaxRedeliveries,
	}
}

// requeue copies msg for another trip through the bus, recording cause. It
// reports false once msg has used every redelivery and should be
// dead-lettered instead.
func (p retryPolicy) requeue(msg Message, cause error) (Message, bool) {
	out := Message{
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: make(map[string]string, len(msg.Headers)+2),
	}
	maps.Copy(out.Headers, msg.Headers)
	if cause != nil {
		out.Headers[HeaderLastError] = cause.Error()
	}
	n, _ := strconv.Atoi(msg.Headers[HeaderRedelivery])
	if n >= p.redeliveries {
		return out, false
	}
	out.Headers[HeaderRedelivery] = strconv.Itoa(n + 1)
	return out, true
}

// deliver runs handler until it succeeds or attempts run out, doubling the
// wait between tries. It returns the last handler error.
func (p retryPolicy) deliver(ctx context.Context, handler Handler, msg Message) error {
	attempts := p.attempts
	if attempts <= 0 {
		attempts = 1
	}
	wait := p.backoff
	var err error
	for i := 0; i < attempts; i++ {
		if err = handler(ctx, msg); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
	return err
}
