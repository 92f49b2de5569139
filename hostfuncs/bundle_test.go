package hostfuncs

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriptgate-dev/scriptgate/application/audit"
	"github.com/scriptgate-dev/scriptgate/application/ratelimit"
	"github.com/scriptgate-dev/scriptgate/application/secrets"
	"github.com/scriptgate-dev/scriptgate/application/secureops"
	"github.com/scriptgate-dev/scriptgate/application/validation"
	"github.com/scriptgate-dev/scriptgate/domain/entities"
	"github.com/scriptgate-dev/scriptgate/domain/policy"
	"github.com/scriptgate-dev/scriptgate/internal/testutil"
	"github.com/scriptgate-dev/scriptgate/log"
)

func newBridgedOps(t *testing.T) (*secureops.Ops, *secrets.Store) {
	t.Helper()
	logger := log.Nop()

	auditor := audit.NewAuditor(logger)
	t.Cleanup(auditor.Close)

	limits := ratelimit.NewService(&ratelimit.Config{
		DefaultRefillPerSecond: 1000,
		DefaultCapacity:        1000,
		CleanupInterval:        time.Hour,
		BucketExpiry:           time.Hour,
	})
	t.Cleanup(limits.Stop)

	store := secrets.NewStore(logger)
	ops := secureops.NewOps(
		logger,
		validation.New(),
		policy.NewChecker(),
		limits,
		store,
		auditor,
		secureops.Deps{
			Scripts:   testutil.NewMemRepository(),
			Assets:    testutil.NewMemRepository(),
			Tables:    testutil.NewMemRepository(),
			Transport: &testutil.FakeTransport{},
			Registry:  &testutil.FakeRegistry{},
			Streams:   &testutil.FakeBroadcaster{},
			Users:     testutil.NewFakeUserStore(),
		},
		secureops.WithAllowPrivateFetch(true),
	)
	return ops, store
}

func editorCtx() context.Context {
	return WithUserContext(context.Background(), entities.NewUserContext("alice", entities.RoleEditor))
}

func invokeResult(t *testing.T, registry *HandlerRegistry, ctx context.Context, name, payload string) entities.OpResult {
	t.Helper()
	raw, err := registry.Invoke(ctx, name, []byte(payload))
	require.NoError(t, err)
	var result entities.OpResult
	require.NoError(t, json.Unmarshal(raw, &result))
	return result
}

func TestGuestBundleSurface(t *testing.T) {
	ops, _ := newBridgedOps(t)
	registry, err := NewRegistry(WithBundle(GuestBundle(ops)))
	require.NoError(t, err)

	expected := []string{
		"asset_delete", "asset_get", "asset_list", "asset_put",
		"audit_query",
		"http_fetch",
		"register_resolver", "register_route", "register_tool",
		"script_delete", "script_get", "script_list", "script_upsert",
		"secret_exists", "secret_list",
		"stream_broadcast",
		"table_delete", "table_get", "table_list", "table_upsert",
	}
	assert.Equal(t, expected, registry.Names())

	// The administrative surface stays native.
	for _, name := range []string{"secret_get", "secret_put", "secret_delete", "audit_prune", "role_assign"} {
		assert.False(t, registry.Has(name), "must not bridge %s", name)
	}
}

func TestBridgedScriptRoundTrip(t *testing.T) {
	ops, _ := newBridgedOps(t)
	registry, err := NewRegistry(WithBundle(GuestBundle(ops)))
	require.NoError(t, err)
	ctx := editorCtx()

	result := invokeResult(t, registry, ctx, "script_upsert", `{"key":"app/main.js","source":"return 1"}`)
	require.True(t, result.Success, "upsert failed: %s", result.Message)

	result = invokeResult(t, registry, ctx, "script_get", `{"key":"app/main.js"}`)
	require.True(t, result.Success)
	assert.Equal(t, "return 1", result.Data["source"])
}

func TestBridgedCallWithoutPrincipalIsDenied(t *testing.T) {
	ops, _ := newBridgedOps(t)
	registry, err := NewRegistry(WithBundle(GuestBundle(ops)))
	require.NoError(t, err)

	result := invokeResult(t, registry, context.Background(), "script_get", `{"key":"app/main.js"}`)
	require.False(t, result.Success)
	assert.Equal(t, entities.ErrKindCapabilityDenied, result.Error)
}

func TestBridgedAssetRejectsBadBase64(t *testing.T) {
	ops, _ := newBridgedOps(t)
	registry, err := NewRegistry(WithBundle(GuestBundle(ops)))
	require.NoError(t, err)

	result := invokeResult(t, registry, editorCtx(), "asset_put", `{"key":"images/a.png","content":"%%not-base64%%"}`)
	require.False(t, result.Success)
	assert.Equal(t, entities.ErrKindValidationRejected, result.Error)
}

func TestBridgedSecretSurfaceIsOpaque(t *testing.T) {
	ops, store := newBridgedOps(t)
	store.Put("API_KEY", "sk-live-1234")
	registry, err := NewRegistry(WithBundle(GuestBundle(ops)))
	require.NoError(t, err)
	ctx := editorCtx()

	raw, err := registry.Invoke(ctx, "secret_exists", []byte(`{"id":"API_KEY"}`))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "sk-live-1234")

	raw, err = registry.Invoke(ctx, "secret_list", nil)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "API_KEY")
	assert.NotContains(t, string(raw), "sk-live-1234")
}

func TestBridgedAuditQuery(t *testing.T) {
	ops, _ := newBridgedOps(t)
	registry, err := NewRegistry(WithBundle(GuestBundle(ops)))
	require.NoError(t, err)

	admin := WithUserContext(context.Background(), entities.NewUserContext("root", entities.RoleAdministrator))
	result := invokeResult(t, registry, admin, "script_upsert", `{"key":"app/main.js","source":"return 1"}`)
	require.True(t, result.Success)

	result = invokeResult(t, registry, admin, "audit_query", `{"principal":"root","kind":"operation"}`)
	require.True(t, result.Success)
	assert.Equal(t, float64(1), result.Data["count"])
}
