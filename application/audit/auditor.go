// Package audit implements the append-only security event sink. Log
// never blocks the audited operation beyond a bounded local append:
// forwarding to external sinks (SIEM, alerting, the threat detector)
// happens on a separate goroutine fed by a buffered channel, and a
// full channel drops the forward rather than stalling the caller.
package audit

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/scriptgate-dev/scriptgate/domain/entities"
	"github.com/scriptgate-dev/scriptgate/domain/ports"
	"github.com/scriptgate-dev/scriptgate/log"
)

type auditorConfig struct {
	ringSize      int
	forwardBuffer int
}

func defaultAuditorConfig() auditorConfig {
	return auditorConfig{
		ringSize:      4096,
		forwardBuffer: 1024,
	}
}

// Option configures an Auditor.
type Option func(*auditorConfig)

// WithRingSize sets how many recent events the in-memory log retains.
func WithRingSize(n int) Option {
	return func(c *auditorConfig) {
		if n > 0 {
			c.ringSize = n
		}
	}
}

// WithForwardBuffer sets the forwarding channel depth.
func WithForwardBuffer(n int) Option {
	return func(c *auditorConfig) {
		if n > 0 {
			c.forwardBuffer = n
		}
	}
}

// Auditor is the append-only structured event sink.
type Auditor struct {
	mu     sync.Mutex
	events []entities.SecurityEvent
	config auditorConfig

	sinkMu sync.RWMutex
	sinks  []ports.EventSink

	forward chan entities.SecurityEvent
	dropped atomic.Uint64
	logger  log.Logger

	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// NewAuditor creates an Auditor and starts its forwarding goroutine.
// Callers must Close it.
func NewAuditor(logger log.Logger, opts ...Option) *Auditor {
	cfg := defaultAuditorConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	a := &Auditor{
		config:  cfg,
		forward: make(chan entities.SecurityEvent, cfg.forwardBuffer),
		logger:  logger,
		done:    make(chan struct{}),
	}
	a.wg.Add(1)
	go a.forwardLoop()
	return a
}

// RegisterSink adds a sink for forwarded events. Sinks receive events
// in log order on a single goroutine.
func (a *Auditor) RegisterSink(sink ports.EventSink) {
	a.sinkMu.Lock()
	defer a.sinkMu.Unlock()
	a.sinks = append(a.sinks, sink)
}

// Log appends the event. Missing ID and timestamp are filled in.
// Events are immutable after this call.
func (a *Auditor) Log(event entities.SecurityEvent) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	a.mu.Lock()
	a.events = append(a.events, event)
	if len(a.events) > a.config.ringSize {
		// Drop the oldest; the ring bounds memory, external sinks own
		// long-term retention.
		a.events = a.events[len(a.events)-a.config.ringSize:]
	}
	a.mu.Unlock()

	select {
	case a.forward <- event:
	default:
		a.dropped.Add(1)
	}
}

// Dropped returns how many events could not be queued for forwarding.
func (a *Auditor) Dropped() uint64 {
	return a.dropped.Load()
}

// Len returns the number of retained events.
func (a *Auditor) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.events)
}

// Prune removes retained events older than the cutoff and returns how
// many were removed. Forwarded copies are unaffected.
func (a *Auditor) Prune(before time.Time) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	kept := a.events[:0]
	for _, e := range a.events {
		if !e.Timestamp.Before(before) {
			kept = append(kept, e)
		}
	}
	removed := len(a.events) - len(kept)
	a.events = kept
	return removed
}

// Close stops the forwarding goroutine after draining queued events.
func (a *Auditor) Close() {
	a.closeOnce.Do(func() {
		close(a.done)
		a.wg.Wait()
	})
}

func (a *Auditor) forwardLoop() {
	defer a.wg.Done()
	for {
		select {
		case event := <-a.forward:
			a.deliver(event)
		case <-a.done:
			for {
				select {
				case event := <-a.forward:
					a.deliver(event)
				default:
					return
				}
			}
		}
	}
}

func (a *Auditor) deliver(event entities.SecurityEvent) {
	a.sinkMu.RLock()
	sinks := a.sinks
	a.sinkMu.RUnlock()
	for _, sink := range sinks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					a.logger.Error("audit sink panicked", "panic", r)
				}
			}()
			sink.Consume(event)
		}()
	}
}
