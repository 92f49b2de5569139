package registry

import (
	"context"
	"sync"

	"github.com/scriptgate-dev/scriptgate/domain/ports"
	"github.com/scriptgate-dev/scriptgate/log"
)

// Hub is an in-memory ports.StreamBroadcaster. Subscribers receive on
// buffered channels; a subscriber that stops draining loses messages
// rather than stalling the broadcast path.
type Hub struct {
	mu      sync.RWMutex
	logger  log.Logger
	streams map[string][]chan []byte
	bufSize int
}

type hubConfig struct {
	bufSize int
}

// HubOption configures a Hub.
type HubOption func(*hubConfig)

// WithSubscriberBuffer sets the per-subscriber channel buffer.
func WithSubscriberBuffer(n int) HubOption {
	return func(c *hubConfig) {
		if n > 0 {
			c.bufSize = n
		}
	}
}

// NewHub creates an empty Hub.
func NewHub(logger log.Logger, opts ...HubOption) *Hub {
	cfg := hubConfig{bufSize: 64}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Hub{
		logger:  logger,
		streams: make(map[string][]chan []byte),
		bufSize: cfg.bufSize,
	}
}

var _ ports.StreamBroadcaster = (*Hub)(nil)

// Broadcast delivers payload to every subscriber of the stream.
// Delivery is non-blocking per subscriber; full subscribers drop the
// message and it is logged, not retried.
func (h *Hub) Broadcast(ctx context.Context, stream string, payload []byte) error {
	h.mu.RLock()
	subs := h.streams[stream]
	h.mu.RUnlock()

	for _, ch := range subs {
		// Each subscriber gets its own copy; payload reuse by the
		// caller must not corrupt slow readers.
		msg := make([]byte, len(payload))
		copy(msg, payload)
		select {
		case ch <- msg:
		default:
			h.logger.Warn("stream subscriber full, message dropped", "stream", stream)
		}
	}
	return nil
}

// Subscribe returns a channel receiving future broadcasts on the
// stream, and a cancel function that closes it.
func (h *Hub) Subscribe(stream string) (<-chan []byte, func()) {
	ch := make(chan []byte, h.bufSize)

	h.mu.Lock()
	h.streams[stream] = append(h.streams[stream], ch)
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		subs := h.streams[stream]
		for i, sub := range subs {
			if sub == ch {
				h.streams[stream] = append(subs[:i], subs[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, cancel
}
