package audit

import (
	"encoding/json"
	"time"

	"github.com/tidwall/gjson"

	"github.com/scriptgate-dev/scriptgate/domain/entities"
)

// Match filters events by a gjson path on the serialized record, e.g.
// {Path: "outcome", Value: "CapabilityDenied"}.
type Match struct {
	Path  string `json:"path"`
	Value string `json:"value"`
}

// Filter selects retained events. Zero fields match everything.
type Filter struct {
	Principal string             `json:"principal,omitempty"`
	Resource  string             `json:"resource,omitempty"`
	Kind      entities.EventKind `json:"kind,omitempty"`
	Since     time.Time          `json:"since,omitempty"`
	Limit     int                `json:"limit,omitempty"`
	Match     *Match             `json:"match,omitempty"`
}

// Query returns retained events matching the filter, oldest first.
// Results are copies; the retained log cannot be mutated through them.
func (a *Auditor) Query(f Filter) []entities.SecurityEvent {
	a.mu.Lock()
	snapshot := make([]entities.SecurityEvent, len(a.events))
	copy(snapshot, a.events)
	a.mu.Unlock()

	var out []entities.SecurityEvent
	for _, e := range snapshot {
		if f.Principal != "" && e.Principal != f.Principal {
			continue
		}
		if f.Resource != "" && e.Resource != f.Resource {
			continue
		}
		if f.Kind != "" && e.Kind != f.Kind {
			continue
		}
		if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
			continue
		}
		if f.Match != nil && !matchEvent(e, f.Match) {
			continue
		}
		out = append(out, e)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out
}

func matchEvent(e entities.SecurityEvent, m *Match) bool {
	raw, err := json.Marshal(e)
	if err != nil {
		return false
	}
	return gjson.GetBytes(raw, m.Path).String() == m.Value
}
