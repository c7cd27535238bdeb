package messaging

import (
	"context"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
)

const memoryBuffer = 256

// Memory is an in-process bus for single binary deployments and tests.
// Every published message is handed to exactly one consumer.
type Memory struct {
	topic  string
	queue  chan Message
	retry  retryPolicy
	logger *zap.Logger

	mu   sync.Mutex
	dead []Message
}

// NewMemory creates an in-process bus for topic.
func NewMemory(topic string, retry retryPolicy, logger *zap.Logger) *Memory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Memory{
		topic:  topic,
		queue:  make(chan Message, memoryBuffer),
		retry:  retry,
		logger: logger,
	}
}

// Publish enqueues msg, blocking while the buffer is full.
func (m *Memory) Publish(ctx context.Context, msg Message) error {
	msg.Topic = m.topic
	msg.Time = time.Now().UTC()
	select {
	case m.queue <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume delivers messages until ctx is done. A message that still fails
// after every attempt goes to the back of the queue, and is dead-lettered
// once its redeliveries are spent.
func (m *Memory) Consume(ctx context.Context, handler Handler) error {
	var offset int64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-m.queue:
			msg.Offset = offset
			offset++
			if err := m.retry.deliver(ctx, handler, msg); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				m.park(msg, err)
			}
		}
	}
}

func (m *Memory) park(msg Message, cause error) {
	out, again := m.retry.requeue(msg, cause)
	out.Topic = m.topic
	out.Time = time.Now().UTC()
	if again {
		select {
		case m.queue <- out:
			m.logger.Warn("message handler failed; requeued", zap.Error(cause), zap.ByteString("key", msg.Key))
			return
		default:
		}
	}
	m.logger.Error("message handler failed; dead-lettered", zap.Error(cause), zap.ByteString("key", msg.Key))
	m.mu.Lock()
	m.dead = append(m.dead, out)
	m.mu.Unlock()
}

// DeadLetters returns the messages that failed every redelivery.
func (m *Memory) DeadLetters() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.dead)
}

func (m *Memory) Topic() string { return m.topic }
