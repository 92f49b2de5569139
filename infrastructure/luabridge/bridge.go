// Package luabridge exposes the guest bridge to Lua scripts running
// under gopher-lua. Every registered host function becomes an entry in
// a single global table; calls marshal the Lua argument table to JSON,
// dispatch through the handler registry, and decode the JSON response
// back into a Lua table. Lua guests and WASM guests therefore share
// one enforcement surface.
package luabridge

import (
	"context"
	"encoding/json"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/scriptgate-dev/scriptgate/domain/entities"
	"github.com/scriptgate-dev/scriptgate/hostfuncs"
	"github.com/scriptgate-dev/scriptgate/log"
)

// DefaultGlobalName is the Lua global the bridge table is bound to.
const DefaultGlobalName = "scriptgate"

// Bridge binds a HandlerRegistry into Lua states.
type Bridge struct {
	registry   *hostfuncs.HandlerRegistry
	logger     log.Logger
	globalName string
}

type bridgeConfig struct {
	globalName string
}

// Option configures a Bridge.
type Option func(*bridgeConfig)

// WithGlobalName overrides the Lua global the bridge is bound to.
func WithGlobalName(name string) Option {
	return func(c *bridgeConfig) {
		if name != "" {
			c.globalName = name
		}
	}
}

// NewBridge creates a Bridge over the registry.
func NewBridge(registry *hostfuncs.HandlerRegistry, logger log.Logger, opts ...Option) *Bridge {
	cfg := bridgeConfig{globalName: DefaultGlobalName}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Bridge{
		registry:   registry,
		logger:     logger,
		globalName: cfg.globalName,
	}
}

// Bind installs one Lua function per registered host function into L,
// all running as the given principal. ctx and uc are fixed for the
// lifetime of the state; a state is one guest execution, never shared
// between principals.
func (b *Bridge) Bind(L *lua.LState, ctx context.Context, uc entities.UserContext) {
	callCtx := hostfuncs.WithUserContext(ctx, uc)

	mod := L.NewTable()
	for _, name := range b.registry.Names() {
		funcName := name
		L.SetField(mod, funcName, L.NewFunction(func(ls *lua.LState) int {
			return b.call(ls, callCtx, funcName)
		}))
	}
	L.SetGlobal(b.globalName, mod)
}

// call marshals the optional argument table, dispatches, and pushes
// the decoded response table. Bridge failures surface as Lua errors;
// operation failures come back as the response table's error fields.
func (b *Bridge) call(L *lua.LState, ctx context.Context, name string) int {
	var payload []byte
	if L.GetTop() >= 1 && L.Get(1) != lua.LNil {
		tbl := L.CheckTable(1)
		req := tableToMap(tbl)
		encoded, err := json.Marshal(req)
		if err != nil {
			L.RaiseError("%s: cannot encode request: %v", name, err)
			return 0
		}
		payload = encoded
	}

	resp, err := b.registry.Invoke(ctx, name, payload)
	if err != nil {
		b.logger.Error("lua host call failed", "func", name, "error", err)
		L.RaiseError("%s: host call failed", name)
		return 0
	}

	var decoded map[string]any
	if err := json.Unmarshal(resp, &decoded); err != nil {
		L.RaiseError("%s: cannot decode response", name)
		return 0
	}

	L.Push(mapToTable(L, decoded))
	return 1
}

func mapToTable(L *lua.LState, m map[string]any) *lua.LTable {
	tbl := L.NewTable()
	for k, v := range m {
		tbl.RawSetString(k, anyToLValue(L, v))
	}
	return tbl
}

func tableToMap(tbl *lua.LTable) map[string]any {
	result := make(map[string]any)
	tbl.ForEach(func(key, value lua.LValue) {
		if keyStr, ok := key.(lua.LString); ok {
			result[string(keyStr)] = lvalueToAny(value)
		}
	})
	return result
}

func anyToLValue(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []any:
		tbl := L.NewTable()
		for i, item := range val {
			tbl.RawSetInt(i+1, anyToLValue(L, item))
		}
		return tbl
	case map[string]any:
		return mapToTable(L, val)
	default:
		return lua.LString(fmt.Sprintf("%v", val))
	}
}

func lvalueToAny(v lua.LValue) any {
	if v == nil || v == lua.LNil {
		return nil
	}

	switch val := v.(type) {
	case lua.LBool:
		return bool(val)
	case lua.LNumber:
		return float64(val)
	case lua.LString:
		return string(val)
	case *lua.LTable:
		// Positive integer keys only means an array.
		isArray := true
		maxIdx := 0
		val.ForEach(func(k, _ lua.LValue) {
			if num, ok := k.(lua.LNumber); ok {
				if idx := int(num); idx > maxIdx {
					maxIdx = idx
				}
			} else {
				isArray = false
			}
		})

		if isArray && maxIdx > 0 {
			arr := make([]any, maxIdx)
			val.ForEach(func(k, item lua.LValue) {
				if num, ok := k.(lua.LNumber); ok {
					if idx := int(num) - 1; idx >= 0 && idx < maxIdx {
						arr[idx] = lvalueToAny(item)
					}
				}
			})
			return arr
		}

		result := make(map[string]any)
		val.ForEach(func(k, item lua.LValue) {
			result[k.String()] = lvalueToAny(item)
		})
		return result
	default:
		return v.String()
	}
}
