package broadcast

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"shelterhub/internal/platform/metrics"
)

// Sink receives encoded events for one subscriber. Deliver must not block;
// it reports false when the payload could not be queued.
type Sink interface {
	Deliver(payload []byte) bool
	Close()
}

// Mirror copies every published event to a secondary channel.
type Mirror interface {
	Mirror(ctx context.Context, key string, payload []byte)
}

// Hub is the live subscriber set. Publishing is best effort: a sink that
// cannot accept an event is dropped, and nothing is replayed.
type Hub struct {
	mu      sync.RWMutex
	sinks   map[string]Sink
	mirror  Mirror
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Hub)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Hub) {
		h.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Hub) {
		h.metrics = m
	}
}

func WithMirror(m Mirror) Option {
	return func(h *Hub) {
		h.mirror = m
	}
}

func NewHub(opts ...Option) *Hub {
	h := &Hub{
		sinks:  make(map[string]Sink),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register adds sink under id, replacing and closing any previous sink.
func (h *Hub) Register(id string, sink Sink) {
	h.mu.Lock()
	previous, exists := h.sinks[id]
	h.sinks[id] = sink
	n := len(h.sinks)
	h.mu.Unlock()

	if exists && previous != sink {
		previous.Close()
	}
	h.setSubscribers(n)
	h.logger.Debug("subscriber registered", "connection_id", id, "subscribers", n)
}

// Unregister removes and closes the sink under id. Unknown ids are ignored.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	sink, exists := h.sinks[id]
	delete(h.sinks, id)
	n := len(h.sinks)
	h.mu.Unlock()

	if !exists {
		return
	}
	sink.Close()
	h.setSubscribers(n)
	h.logger.Debug("subscriber unregistered", "connection_id", id, "subscribers", n)
}

// Publish delivers event to every sink registered at the time of the call.
func (h *Hub) Publish(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to encode broadcast event", "error", err, "action", string(event.Action))
		return
	}

	var failed []string
	delivered := 0
	h.mu.RLock()
	for id, sink := range h.sinks {
		if sink.Deliver(payload) {
			delivered++
			continue
		}
		failed = append(failed, id)
	}
	h.mu.RUnlock()

	for _, id := range failed {
		h.drop(id)
	}
	if h.metrics != nil {
		h.metrics.EventsDelivered.Add(float64(delivered))
	}
	if h.mirror != nil {
		h.mirror.Mirror(ctx, event.Key(), payload)
	}
}

// Len reports the number of live subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sinks)
}

// Close drops every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	sinks := h.sinks
	h.sinks = make(map[string]Sink)
	h.mu.Unlock()

	for _, sink := range sinks {
		sink.Close()
	}
	h.setSubscribers(0)
}

func (h *Hub) drop(id string) {
	h.logger.Warn("dropping slow subscriber", "connection_id", id)
	if h.metrics != nil {
		h.metrics.SubscribersDropped.Inc()
	}
	h.Unregister(id)
}

func (h *Hub) setSubscribers(n int) {
	if h.metrics != nil {
		h.metrics.Subscribers.Set(float64(n))
	}
}
