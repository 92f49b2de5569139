package luabridge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"

	"github.com/scriptgate-dev/scriptgate/domain/entities"
	"github.com/scriptgate-dev/scriptgate/hostfuncs"
	"github.com/scriptgate-dev/scriptgate/log"
)

type pingRequest struct {
	Name string `json:"name"`
}

type pingResponse struct {
	Greeting  string   `json:"greeting"`
	Principal string   `json:"principal"`
	Tags      []string `json:"tags"`
}

func newTestRegistry(t *testing.T) *hostfuncs.HandlerRegistry {
	t.Helper()
	registry, err := hostfuncs.NewRegistry(
		hostfuncs.WithHandler("ping", func(ctx context.Context, req pingRequest) pingResponse {
			return pingResponse{
				Greeting:  "hello " + req.Name,
				Principal: hostfuncs.UserContextFrom(ctx).Principal(),
				Tags:      []string{"a", "b"},
			}
		}),
	)
	require.NoError(t, err)
	return registry
}

func newBoundState(t *testing.T, uc entities.UserContext) *lua.LState {
	t.Helper()
	L := lua.NewState()
	t.Cleanup(L.Close)

	bridge := NewBridge(newTestRegistry(t), log.Nop())
	bridge.Bind(L, context.Background(), uc)
	return L
}

func TestLuaCall(t *testing.T) {
	uc := entities.NewUserContext("alice", entities.RoleEditor)
	L := newBoundState(t, uc)

	err := L.DoString(`
		result = scriptgate.ping({name = "lua"})
	`)
	require.NoError(t, err)

	result, ok := L.GetGlobal("result").(*lua.LTable)
	require.True(t, ok)
	assert.Equal(t, "hello lua", lua.LVAsString(result.RawGetString("greeting")))
	assert.Equal(t, "alice", lua.LVAsString(result.RawGetString("principal")))

	tags, ok := result.RawGetString("tags").(*lua.LTable)
	require.True(t, ok)
	assert.Equal(t, "a", lua.LVAsString(tags.RawGetInt(1)))
	assert.Equal(t, "b", lua.LVAsString(tags.RawGetInt(2)))
}

func TestLuaCallWithoutArgument(t *testing.T) {
	L := newBoundState(t, entities.NewUserContext("alice", entities.RoleEditor))

	err := L.DoString(`result = scriptgate.ping()`)
	require.NoError(t, err)

	result, ok := L.GetGlobal("result").(*lua.LTable)
	require.True(t, ok)
	assert.Equal(t, "hello ", lua.LVAsString(result.RawGetString("greeting")))
}

func TestLuaUnknownFunctionNotBound(t *testing.T) {
	L := newBoundState(t, entities.NewUserContext("alice", entities.RoleEditor))

	err := L.DoString(`scriptgate.secret_get({id = "API_KEY"})`)
	require.Error(t, err)
}

func TestLuaCustomGlobalName(t *testing.T) {
	L := lua.NewState()
	t.Cleanup(L.Close)

	bridge := NewBridge(newTestRegistry(t), log.Nop(), WithGlobalName("host"))
	bridge.Bind(L, context.Background(), entities.NewUserContext("alice", entities.RoleEditor))

	require.NoError(t, L.DoString(`result = host.ping({name = "x"})`))
	assert.Equal(t, lua.LNil, L.GetGlobal("scriptgate"))
}

func TestTableConversion(t *testing.T) {
	L := lua.NewState()
	t.Cleanup(L.Close)

	require.NoError(t, L.DoString(`
		value = {
			name = "x",
			count = 3,
			ok = true,
			items = {"a", "b"},
			nested = {inner = "y"},
		}
	`))

	tbl, ok := L.GetGlobal("value").(*lua.LTable)
	require.True(t, ok)

	m := tableToMap(tbl)
	assert.Equal(t, "x", m["name"])
	assert.Equal(t, float64(3), m["count"])
	assert.Equal(t, true, m["ok"])
	assert.Equal(t, []any{"a", "b"}, m["items"])
	assert.Equal(t, map[string]any{"inner": "y"}, m["nested"])
}
