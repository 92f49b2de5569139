// Package threat consumes the audit event stream and maintains small
// rolling windows per principal. When a threshold is crossed it emits
// a higher-severity SecurityEvent of its own; response (blocking,
// alerting) is left to external collaborators.
package threat

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/scriptgate-dev/scriptgate/domain/entities"
	"github.com/scriptgate-dev/scriptgate/domain/ports"
	"github.com/scriptgate-dev/scriptgate/log"
)

// Thresholds are the per-window counts that trigger an escalation.
type Thresholds struct {
	// Window is the rolling observation window.
	Window time.Duration
	// AuthFailures escalates repeated authentication failures.
	AuthFailures int
	// CapabilityDenials escalates repeated permission probing.
	CapabilityDenials int
	// RateLimitViolations escalates sustained bucket exhaustion.
	RateLimitViolations int
	// DangerousPatterns escalates repeated injection attempts.
	DangerousPatterns int
	// DistinctSources escalates one principal appearing from many
	// network locations inside the window.
	DistinctSources int
}

// DefaultThresholds returns the default escalation thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Window:              5 * time.Minute,
		AuthFailures:        5,
		CapabilityDenials:   10,
		RateLimitViolations: 20,
		DangerousPatterns:   3,
		DistinctSources:     4,
	}
}

type principalWindow struct {
	hits          map[entities.EventKind][]time.Time
	sources       map[string]time.Time
	lastEscalated map[string]time.Time
}

func newPrincipalWindow() *principalWindow {
	return &principalWindow{
		hits:          make(map[entities.EventKind][]time.Time),
		sources:       make(map[string]time.Time),
		lastEscalated: make(map[string]time.Time),
	}
}

// Detector implements ports.EventSink over a bounded LRU of principal
// windows, so a flood of fresh principals cannot grow memory without
// bound.
type Detector struct {
	mu         sync.Mutex
	windows    *lru.Cache[string, *principalWindow]
	thresholds Thresholds
	emit       func(entities.SecurityEvent)
	logger     log.Logger
	now        func() time.Time
}

var _ ports.EventSink = (*Detector)(nil)

// Option configures a Detector.
type Option func(*Detector)

// WithNowFunc overrides the clock. Intended for tests.
func WithNowFunc(now func() time.Time) Option {
	return func(d *Detector) {
		d.now = now
	}
}

// NewDetector creates a Detector tracking up to maxPrincipals rolling
// windows. Escalations are delivered through emit, typically the
// auditor's Log, which also forwards them to alerting sinks.
func NewDetector(thresholds Thresholds, maxPrincipals int, emit func(entities.SecurityEvent), logger log.Logger, opts ...Option) (*Detector, error) {
	if maxPrincipals <= 0 {
		maxPrincipals = 1024
	}
	windows, err := lru.New[string, *principalWindow](maxPrincipals)
	if err != nil {
		return nil, fmt.Errorf("creating principal window cache: %w", err)
	}
	d := &Detector{
		windows:    windows,
		thresholds: thresholds,
		emit:       emit,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Consume updates the principal's rolling window and escalates on
// threshold crossings. Escalation events themselves are ignored, so
// the detector cannot feed back into itself.
func (d *Detector) Consume(event entities.SecurityEvent) {
	if event.Kind == entities.EventThreatEscalation {
		return
	}
	if event.Principal == "" {
		return
	}

	d.mu.Lock()
	w, ok := d.windows.Get(event.Principal)
	if !ok {
		w = newPrincipalWindow()
		d.windows.Add(event.Principal, w)
	}

	now := d.now()
	cutoff := now.Add(-d.thresholds.Window)
	w.prune(cutoff)

	if event.SourceIP != "" {
		w.sources[event.SourceIP] = now
	}

	var escalations []entities.SecurityEvent
	switch event.Kind {
	case entities.EventAuthFailure:
		w.hits[event.Kind] = append(w.hits[event.Kind], now)
		escalations = d.check(w, event, entities.EventAuthFailure, d.thresholds.AuthFailures, "repeated authentication failures", now)
	case entities.EventCapabilityDenied:
		w.hits[event.Kind] = append(w.hits[event.Kind], now)
		escalations = d.check(w, event, entities.EventCapabilityDenied, d.thresholds.CapabilityDenials, "repeated capability denials", now)
	case entities.EventRateLimitExceeded:
		w.hits[event.Kind] = append(w.hits[event.Kind], now)
		escalations = d.check(w, event, entities.EventRateLimitExceeded, d.thresholds.RateLimitViolations, "sustained rate limit violations", now)
	case entities.EventDangerousPattern:
		w.hits[event.Kind] = append(w.hits[event.Kind], now)
		escalations = d.check(w, event, entities.EventDangerousPattern, d.thresholds.DangerousPatterns, "repeated dangerous payloads", now)
	}

	if d.thresholds.DistinctSources > 0 && len(w.sources) >= d.thresholds.DistinctSources {
		if esc, ok := d.escalation(w, event, "source_spread", "principal active from many network locations", len(w.sources), now); ok {
			escalations = append(escalations, esc)
		}
	}
	d.mu.Unlock()

	// Emit outside the lock: emit typically re-enters the auditor.
	for _, esc := range escalations {
		d.emit(esc)
	}
}

func (d *Detector) check(w *principalWindow, event entities.SecurityEvent, kind entities.EventKind, threshold int, detail string, now time.Time) []entities.SecurityEvent {
	if threshold <= 0 || len(w.hits[kind]) < threshold {
		return nil
	}
	if esc, ok := d.escalation(w, event, string(kind), detail, len(w.hits[kind]), now); ok {
		return []entities.SecurityEvent{esc}
	}
	return nil
}

// escalation builds one escalation event per reason per window: once
// fired, the reason stays quiet until a full window has elapsed.
func (d *Detector) escalation(w *principalWindow, event entities.SecurityEvent, reason, detail string, count int, now time.Time) (entities.SecurityEvent, bool) {
	if last, ok := w.lastEscalated[reason]; ok && now.Sub(last) < d.thresholds.Window {
		return entities.SecurityEvent{}, false
	}
	w.lastEscalated[reason] = now
	d.logger.Warn("threat escalation", "principal", event.Principal, "reason", reason, "count", count)
	return entities.SecurityEvent{
		Kind:      entities.EventThreatEscalation,
		Severity:  entities.SeverityCritical,
		Principal: event.Principal,
		SourceIP:  event.SourceIP,
		Resource:  event.Resource,
		Action:    reason,
		Outcome:   "escalated",
		Detail:    fmt.Sprintf("%s (%d in window)", detail, count),
	}, true
}

func (w *principalWindow) prune(cutoff time.Time) {
	for kind, stamps := range w.hits {
		kept := stamps[:0]
		for _, ts := range stamps {
			if ts.After(cutoff) {
				kept = append(kept, ts)
			}
		}
		w.hits[kind] = kept
	}
	for src, ts := range w.sources {
		if !ts.After(cutoff) {
			delete(w.sources, src)
		}
	}
}
