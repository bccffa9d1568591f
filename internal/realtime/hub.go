package realtime

import (
	"sync"

	"github.com/niyax/cvm/backend/pkg/logger"
)

const subscriberBuffer = 16

// Hub fans step events out to per-session subscribers.
// Publish never blocks: a subscriber with a full buffer misses the event.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*subscription]struct{}
	logger *logger.Logger
}

type subscription struct {
	ch chan StepEvent
}

// NewHub creates an empty hub
func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{
		subs:   make(map[string]map[*subscription]struct{}),
		logger: log,
	}
}

// Subscribe registers for a session's events.
// The returned cancel func unregisters and closes the channel; it is idempotent.
func (h *Hub) Subscribe(sessionID string) (<-chan StepEvent, func()) {
	sub := &subscription{ch: make(chan StepEvent, subscriberBuffer)}

	h.mu.Lock()
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[*subscription]struct{})
	}
	h.subs[sessionID][sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[sessionID], sub)
			if len(h.subs[sessionID]) == 0 {
				delete(h.subs, sessionID)
			}
			h.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// Publish delivers evt to the session's subscribers
func (h *Hub) Publish(evt StepEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[evt.SessionID] {
		select {
		case sub.ch <- evt:
		default:
			h.logger.WithSession(evt.SessionID).
				WithField("step", evt.Step).
				Warn("Dropped step event for slow subscriber")
		}
	}
}

// Subscribers returns the number of live subscriptions for a session
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[sessionID])
}

var _ Publisher = (*Hub)(nil)
