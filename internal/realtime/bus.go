package realtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/tableside/internal/config"
)

// Bus carries change notifications between service instances.
type Bus interface {
	Publish(ctx context.Context, c Collection) error
	Listen(ctx context.Context, fn func(Collection)) error
}

// Module provides the hub and its cross-instance bus.
var Module = fx.Options(
	fx.Provide(NewBus, NewHub),
	fx.Invoke(func(lc fx.Lifecycle, hub *Hub, logger *zap.Logger) {
		var cancel context.CancelFunc
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				var ctx context.Context
				ctx, cancel = context.WithCancel(context.Background())
				go func() {
					if err := hub.Listen(ctx); err != nil && ctx.Err() == nil {
						logger.Error("realtime listener stopped", zap.Error(err))
					}
				}()
				return nil
			},
			OnStop: func(context.Context) error {
				if cancel != nil {
					cancel()
				}
				return nil
			},
		})
	}),
)

// NewBus returns a redis pub/sub bus when the cache runs on redis, nil otherwise.
func NewBus(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (Bus, error) {
	if cfg.Cache.Driver != "redis" {
		logger.Info("realtime notifications are process-local")
		return nil, nil
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("ping redis: %w", err)
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return NewRedisBus(client, cfg.Realtime.Channel, logger), nil
}

// RedisBus fans notifications out over a redis channel. Messages carry the
// sender id so an instance ignores its own echoes.
type RedisBus struct {
	client   goredis.UniversalClient
	channel  string
	instance string
	logger   *zap.Logger
}

// NewRedisBus builds a bus over client.
func NewRedisBus(client goredis.UniversalClient, channel string, logger *zap.Logger) *RedisBus {
	return &RedisBus{
		client:   client,
		channel:  channel,
		instance: uuid.NewString(),
		logger:   logger,
	}
}

func (b *RedisBus) Publish(ctx context.Context, c Collection) error {
	return b.client.Publish(ctx, b.channel, b.instance+"|"+string(c)).Err()
}

func (b *RedisBus) Listen(ctx context.Context, fn func(Collection)) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			sender, collection, found := strings.Cut(msg.Payload, "|")
			if !found {
				b.logger.Warn("malformed realtime message", zap.String("payload", msg.Payload))
				continue
			}
			if sender == b.instance {
				continue
			}
			fn(Collection(collection))
		}
	}
}
