// Package sse implements a topic-based server-sent-events hub used to push
// progress and notification updates to live subscribers.
package sse

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Event is a single message delivered to subscribers of a topic.
type Event struct {
	Topic   string      `json:"topic"`
	Type    string      `json:"type"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

type subscriber struct {
	topics map[string]bool
	ch     chan Event
}

// Hub fans events out to subscribers. Delivery is best-effort: slow
// subscribers with a full buffer miss events rather than block publishers.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uuid.UUID]*subscriber
	logger *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		subs:   make(map[uuid.UUID]*subscriber),
		logger: logger,
	}
}

// Subscribe registers interest in the given topics and returns the
// subscription id plus the event channel.
func (h *Hub) Subscribe(topics ...string) (uuid.UUID, <-chan Event) {
	sub := &subscriber{
		topics: make(map[string]bool, len(topics)),
		ch:     make(chan Event, 16),
	}
	for _, t := range topics {
		sub.topics[t] = true
	}

	id := uuid.New()
	h.mu.Lock()
	h.subs[id] = sub
	h.mu.Unlock()

	h.logger.Debug("sse subscriber connected", "id", id, "topics", topics)
	return id, sub.ch
}

// Unsubscribe removes the subscription and closes its channel.
func (h *Hub) Unsubscribe(id uuid.UUID) {
	h.mu.Lock()
	sub, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
		close(sub.ch)
	}
	h.mu.Unlock()

	if ok {
		h.logger.Debug("sse subscriber disconnected", "id", id)
	}
}

// Publish delivers the event to every subscriber of its topic.
func (h *Hub) Publish(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs {
		if !sub.topics[event.Topic] {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			// Subscriber buffer full, skip
		}
	}
}

// SubscriberCount returns the number of connected subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
