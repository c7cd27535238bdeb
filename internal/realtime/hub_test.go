package realtime

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func receive(t *testing.T, c <-chan Snapshot) Snapshot {
	t.Helper()
	select {
	case snap, ok := <-c:
		require.True(t, ok, "subscription closed")
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	return Snapshot{}
}

func TestHub_PushesInitialAndChangedSnapshots(t *testing.T) {
	hub := NewHub(nil, zap.NewNop())
	var version atomic.Int64

	sub, cancel := hub.Subscribe(context.Background(), Query{
		Collection: Tables,
		Fetch: func(context.Context) (any, error) {
			return version.Load(), nil
		},
	})
	defer cancel()

	first := receive(t, sub.C)
	assert.Equal(t, uint64(1), first.Seq)
	assert.Equal(t, int64(0), first.Data)

	version.Store(7)
	hub.Notify(context.Background(), Tables)

	second := receive(t, sub.C)
	assert.Equal(t, int64(7), second.Data)
	assert.Greater(t, second.Seq, first.Seq)
}

func TestHub_IgnoresOtherCollections(t *testing.T) {
	hub := NewHub(nil, zap.NewNop())
	var calls atomic.Int64

	sub, cancel := hub.Subscribe(context.Background(), Query{
		Collection: Orders,
		Fetch: func(context.Context) (any, error) {
			return calls.Add(1), nil
		},
	})
	defer cancel()
	receive(t, sub.C)

	hub.Notify(context.Background(), Reservations)

	select {
	case snap := <-sub.C:
		t.Fatalf("unexpected snapshot %v", snap)
	case <-time.After(100 * time.Millisecond):
	}
	assert.Equal(t, int64(1), calls.Load())
}

func TestHub_KeepsOnlyNewestSnapshot(t *testing.T) {
	hub := NewHub(nil, zap.NewNop())
	var version atomic.Int64

	sub, cancel := hub.Subscribe(context.Background(), Query{
		Collection: Tables,
		Fetch: func(context.Context) (any, error) {
			return version.Load(), nil
		},
	})
	defer cancel()

	for i := 1; i <= 5; i++ {
		version.Store(int64(i))
		hub.Notify(context.Background(), Tables)
		time.Sleep(10 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		select {
		case snap := <-sub.C:
			return snap.Data == int64(5)
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHub_CancelClosesChannel(t *testing.T) {
	hub := NewHub(nil, zap.NewNop())
	sub, cancel := hub.Subscribe(context.Background(), Query{
		Collection: Tables,
		Fetch:      func(context.Context) (any, error) { return nil, nil },
	})
	receive(t, sub.C)
	assert.Equal(t, 1, hub.Subscribers(Tables))

	cancel()
	cancel()

	require.Eventually(t, func() bool {
		_, ok := <-sub.C
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, hub.Subscribers(Tables))
}

func TestHub_FetchErrorKeepsSubscription(t *testing.T) {
	hub := NewHub(nil, zap.NewNop())
	var fail atomic.Bool
	fail.Store(true)

	sub, cancel := hub.Subscribe(context.Background(), Query{
		Collection: Reservations,
		Fetch: func(context.Context) (any, error) {
			if fail.Load() {
				return nil, errors.New("db down")
			}
			return "ok", nil
		},
	})
	defer cancel()

	time.Sleep(50 * time.Millisecond)
	fail.Store(false)
	hub.Notify(context.Background(), Reservations)

	assert.Equal(t, "ok", receive(t, sub.C).Data)
}

type loopbackBus struct {
	published chan Collection
}

func (b *loopbackBus) Publish(_ context.Context, c Collection) error {
	b.published <- c
	return nil
}

func (b *loopbackBus) Listen(ctx context.Context, fn func(Collection)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c := <-b.published:
			fn(c)
		}
	}
}

func TestHub_RemoteNotificationsTriggerRefetch(t *testing.T) {
	bus := &loopbackBus{published: make(chan Collection, 4)}
	hub := NewHub(bus, zap.NewNop())

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go func() { _ = hub.Listen(ctx) }()

	var version atomic.Int64
	sub, cancel := hub.Subscribe(ctx, Query{
		Collection: Orders,
		Fetch:      func(context.Context) (any, error) { return version.Load(), nil },
	})
	defer cancel()
	receive(t, sub.C)

	version.Store(3)
	bus.published <- Orders

	assert.Equal(t, int64(3), receive(t, sub.C).Data)
}
