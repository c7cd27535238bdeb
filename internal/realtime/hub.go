package realtime

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Collection names a family of live queries.
type Collection string

const (
	Tables       Collection = "tables"
	Orders       Collection = "orders"
	Reservations Collection = "reservations"
)

// FetchFunc produces the current result of a live query.
type FetchFunc func(ctx context.Context) (any, error)

// Query is a live query over one collection.
type Query struct {
	Collection Collection
	Fetch      FetchFunc
}

// Snapshot is one pushed result of a live query.
type Snapshot struct {
	Seq  uint64    `json:"seq"`
	At   time.Time `json:"at"`
	Data any       `json:"data"`
}

// Subscription delivers snapshots on C until it is cancelled.
// C holds at most one pending snapshot; older unread ones are replaced.
type Subscription struct {
	C <-chan Snapshot

	query   Query
	trigger chan struct{}
	out     chan Snapshot
	seq     uint64
}

// Hub re-runs subscribed queries whenever their collection changes.
type Hub struct {
	mu     sync.RWMutex
	subs   map[Collection]map[*Subscription]struct{}
	bus    Bus
	logger *zap.Logger
}

// NewHub builds a hub. A nil bus keeps notifications in-process.
func NewHub(bus Bus, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		subs:   make(map[Collection]map[*Subscription]struct{}),
		bus:    bus,
		logger: logger,
	}
}

// Subscribe registers q and pushes its current result immediately. The
// subscription ends when ctx is done or the returned func is called.
func (h *Hub) Subscribe(ctx context.Context, q Query) (*Subscription, func()) {
	sub := &Subscription{
		query:   q,
		trigger: make(chan struct{}, 1),
		out:     make(chan Snapshot, 1),
	}
	sub.C = sub.out
	sub.trigger <- struct{}{}

	h.mu.Lock()
	set, ok := h.subs[q.Collection]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[q.Collection] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	go h.run(runCtx, sub)

	var once sync.Once
	return sub, func() {
		once.Do(func() {
			cancel()
			h.remove(sub)
		})
	}
}

// Notify marks collections as changed on this instance and, when a bus is
// configured, on every other instance.
func (h *Hub) Notify(ctx context.Context, collections ...Collection) {
	h.notifyLocal(collections...)
	if h.bus == nil {
		return
	}
	for _, c := range collections {
		if err := h.bus.Publish(ctx, c); err != nil {
			h.logger.Warn("realtime publish failed", zap.String("collection", string(c)), zap.Error(err))
		}
	}
}

// Listen relays remote notifications until ctx is done.
func (h *Hub) Listen(ctx context.Context) error {
	if h.bus == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	return h.bus.Listen(ctx, func(c Collection) {
		h.notifyLocal(c)
	})
}

// Subscribers reports the number of live subscriptions for c.
func (h *Hub) Subscribers(c Collection) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[c])
}

func (h *Hub) notifyLocal(collections ...Collection) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range collections {
		for sub := range h.subs[c] {
			select {
			case sub.trigger <- struct{}{}:
			default:
			}
		}
	}
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[sub.query.Collection]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, sub.query.Collection)
		}
	}
}

func (h *Hub) run(ctx context.Context, sub *Subscription) {
	defer close(sub.out)
	defer h.remove(sub)

	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.trigger:
		}

		data, err := sub.query.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			h.logger.Warn("realtime fetch failed", zap.String("collection", string(sub.query.Collection)), zap.Error(err))
			continue
		}

		sub.seq++
		snap := Snapshot{Seq: sub.seq, At: time.Now().UTC(), Data: data}

		// Only this goroutine sends on out, so after a drain the send cannot block.
		select {
		case sub.out <- snap:
		default:
			select {
			case <-sub.out:
			default:
			}
			sub.out <- snap
		}
	}
}
