package messaging

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/tableside/internal/config"
)

const maxParkBackoff = 30 * time.Second

// kafkaClient implements the Client via kafka-go.
type kafkaClient struct {
	writer     *kafka.Writer
	reader     *kafka.Reader
	topic      string
	deadLetter string
	retry      retryPolicy
	logger     *zap.Logger
}

func (k *kafkaClient) Publish(ctx context.Context, msg Message) error {
	return k.writer.WriteMessages(ctx, toKafka(k.topic, msg))
}

func (k *kafkaClient) Consume(ctx context.Context, handler Handler) error {
	for {
		msg, err := k.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			k.logger.Error("kafka fetch failed", zap.Error(err))

			time.Sleep(time.Second)
			continue
		}

		if err := k.retry.deliver(ctx, handler, fromKafka(msg)); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			k.logger.Error("message handler failed",
				zap.Error(err),
				zap.Int64("offset", msg.Offset),
				zap.Int("partition", msg.Partition),
			)
			// The offset is committed only once a copy is back on a topic.
			if err := k.park(ctx, fromKafka(msg), err); err != nil {
				return err
			}
		}

		if err := k.reader.CommitMessages(ctx, msg); err != nil {
			k.logger.Warn("commit failed", zap.Error(err))
		}
	}
}

func (k *kafkaClient) Topic() string { return k.topic }

// park puts a failed message back on the topic, or on the dead-letter topic
// once its redeliveries are spent. It blocks until the write succeeds or ctx
// is done.
func (k *kafkaClient) park(ctx context.Context, msg Message, cause error) error {
	out, again := k.retry.requeue(msg, cause)
	topic := k.topic
	if !again {
		topic = k.deadLetter
		k.logger.Warn("dead-lettering message",
			zap.String("topic", topic),
			zap.ByteString("key", msg.Key),
			zap.String("redelivery", msg.Headers[HeaderRedelivery]),
		)
	}

	wait := k.retry.backoff
	if wait <= 0 {
		wait = time.Second
	}
	for {
		err := k.writer.WriteMessages(ctx, toKafka(topic, out))
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		k.logger.Error("failed to park message", zap.String("topic", topic), zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		if wait < maxParkBackoff {
			wait *= 2
		}
	}
}

func toKafka(topic string, msg Message) kafka.Message {
	out := kafka.Message{Topic: topic, Key: msg.Key, Value: msg.Value}
	for key, value := range msg.Headers {
		out.Headers = append(out.Headers, kafka.Header{Key: key, Value: []byte(value)})
	}
	return out
}

func fromKafka(msg kafka.Message) Message {
	out := Message{
		Topic:  msg.Topic,
		Key:    append([]byte(nil), msg.Key...),
		Value:  append([]byte(nil), msg.Value...),
		Offset: msg.Offset,
		Time:   msg.Time,
	}
	if len(msg.Headers) > 0 {
		out.Headers = make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			out.Headers[h.Key] = string(h.Value)
		}
	}
	return out
}

func newKafkaClient(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (Client, error) {
	topic := cfg.Messaging.Kafka.Topic

	// Hash keeps every event of one aggregate on one partition, in order.
	// The topic is set per message so failed messages can be dead-lettered.
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Messaging.Kafka.Brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		Logger:       kafkaLogger{logger: logger},
		ErrorLogger:  kafkaLogger{logger: logger, errors: true},
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Messaging.Kafka.Brokers,
		GroupID:        cfg.Messaging.ConsumerGroup,
		Topic:          topic,
		MinBytes:       cfg.Messaging.Kafka.MinBytes,
		MaxBytes:       cfg.Messaging.Kafka.MaxBytes,
		CommitInterval: cfg.Messaging.Kafka.CommitInterval,
		Dialer: &kafka.Dialer{
			Timeout:  cfg.Messaging.Kafka.ConnectTimeout,
			ClientID: cfg.Messaging.Kafka.ClientID,
		},
	})

	deadLetter := cfg.Messaging.Kafka.DeadLetterTopic
	if deadLetter == "" {
		deadLetter = topic + ".dead-letter"
	}
	client := &kafkaClient{
		writer:     writer,
		reader:     reader,
		topic:      topic,
		deadLetter: deadLetter,
		retry:      retryPolicyFrom(cfg),
		logger:     logger,
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("closing kafka client")

			if err := writer.Close(); err != nil {
				return err
			}
			return reader.Close()
		},
	})

	return client, nil
}

type kafkaLogger struct {
	logger *zap.Logger
	errors bool
}

func (k kafkaLogger) Printf(msg string, args ...interface{}) {
	if k.errors {
		k.logger.Sugar().Warnf(msg, args...)
		return
	}
	k.logger.Sugar().Debugf(msg, args...)
}
