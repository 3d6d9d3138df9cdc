package hub

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carewell/medtrack/internal/domain"
)

// defaultBuffer is how many undelivered events a single subscription holds
// before further publishes to it are dropped.
const defaultBuffer = 16

// Subscription is one live consumer channel for a user. A user may hold
// several at once (one per connected device).
type Subscription struct {
	id     uuid.UUID
	userID int64
	ch     chan domain.Notification
}

// Events returns the channel the consumer reads from. It is closed on
// unsubscribe and on hub shutdown.
func (s *Subscription) Events() <-chan domain.Notification {
	return s.ch
}

// UserID returns the user the subscription belongs to.
func (s *Subscription) UserID() int64 {
	return s.userID
}

// Hub is an in-process publish/subscribe broker keyed by user. Delivery is
// best-effort and at-most-once: a publish never blocks on a slow or absent
// consumer, and events for a full subscription buffer are dropped. Durable
// storage of every event is the caller's job, not the hub's.
type Hub struct {
	log    *zap.Logger
	buffer int

	mu     sync.Mutex
	subs   map[int64][]*Subscription
	closed bool
}

// New creates an empty hub.
func New(log *zap.Logger) *Hub {
	return &Hub{
		log:    log,
		buffer: defaultBuffer,
		subs:   make(map[int64][]*Subscription),
	}
}

// Subscribe registers a new consumer channel for the user.
func (h *Hub) Subscribe(userID int64) *Subscription {
	sub := &Subscription{
		id:     uuid.New(),
		userID: userID,
		ch:     make(chan domain.Notification, h.buffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(sub.ch)
		return sub
	}
	h.subs[userID] = append(h.subs[userID], sub)
	return sub
}

// Publish delivers the event to every live subscription for the user.
// Publishing to zero subscribers is a normal outcome. Events for the same
// user are handed to each subscription in publish-call order.
func (h *Hub) Publish(userID int64, n domain.Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for _, sub := range h.subs[userID] {
		select {
		case sub.ch <- n:
		default:
			h.log.Warn("subscriber buffer full, dropping event",
				zap.Int64("userID", userID),
				zap.String("subscription", sub.id.String()),
			)
		}
	}
}

// Unsubscribe deregisters the subscription and closes its channel. Calling it
// for an already removed subscription is a no-op.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	list := h.subs[sub.userID]
	for i, s := range list {
		if s.id == sub.id {
			h.subs[sub.userID] = append(list[:i], list[i+1:]...)
			if len(h.subs[sub.userID]) == 0 {
				delete(h.subs, sub.userID)
			}
			close(s.ch)
			return
		}
	}
}

// Close tears down every subscription. Publish and Subscribe become no-ops.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, list := range h.subs {
		for _, s := range list {
			close(s.ch)
		}
	}
	h.subs = nil
}
