package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriptgate-dev/scriptgate/domain/entities"
)

func seedEvents(a *Auditor) {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	a.Log(entities.SecurityEvent{
		Timestamp: base,
		Kind:      entities.EventOperation,
		Principal: "alice",
		Resource:  "app/main.js",
		Action:    "script_upsert",
		Outcome:   "success",
	})
	a.Log(entities.SecurityEvent{
		Timestamp: base.Add(time.Minute),
		Kind:      entities.EventCapabilityDenied,
		Principal: "bob",
		Resource:  "app/main.js",
		Action:    "script_upsert",
		Outcome:   "CapabilityDenied",
	})
	a.Log(entities.SecurityEvent{
		Timestamp: base.Add(2 * time.Minute),
		Kind:      entities.EventSecretAccessed,
		Principal: "alice",
		Resource:  "API_KEY",
		Action:    "http_fetch",
		Outcome:   "success",
	})
}

func TestQueryFilters(t *testing.T) {
	a := newTestAuditor(t)
	seedEvents(a)

	t.Run("by principal", func(t *testing.T) {
		events := a.Query(Filter{Principal: "alice"})
		require.Len(t, events, 2)
	})

	t.Run("by kind", func(t *testing.T) {
		events := a.Query(Filter{Kind: entities.EventCapabilityDenied})
		require.Len(t, events, 1)
		assert.Equal(t, "bob", events[0].Principal)
	})

	t.Run("by resource", func(t *testing.T) {
		events := a.Query(Filter{Resource: "API_KEY"})
		require.Len(t, events, 1)
		assert.Equal(t, entities.EventSecretAccessed, events[0].Kind)
	})

	t.Run("since", func(t *testing.T) {
		since := time.Date(2025, 6, 1, 10, 1, 30, 0, time.UTC)
		events := a.Query(Filter{Since: since})
		require.Len(t, events, 1)
	})

	t.Run("limit keeps oldest first", func(t *testing.T) {
		events := a.Query(Filter{Limit: 2})
		require.Len(t, events, 2)
		assert.Equal(t, entities.EventOperation, events[0].Kind)
	})

	t.Run("zero filter matches everything", func(t *testing.T) {
		assert.Len(t, a.Query(Filter{}), 3)
	})
}

func TestQueryPathMatch(t *testing.T) {
	a := newTestAuditor(t)
	seedEvents(a)

	events := a.Query(Filter{Match: &Match{Path: "outcome", Value: "CapabilityDenied"}})
	require.Len(t, events, 1)
	assert.Equal(t, "bob", events[0].Principal)

	events = a.Query(Filter{Match: &Match{Path: "action", Value: "http_fetch"}})
	require.Len(t, events, 1)
	assert.Equal(t, "API_KEY", events[0].Resource)
}

func TestQueryReturnsCopies(t *testing.T) {
	a := newTestAuditor(t)
	seedEvents(a)

	events := a.Query(Filter{})
	events[0].Principal = "mallory"

	fresh := a.Query(Filter{})
	assert.Equal(t, "alice", fresh[0].Principal)
}
