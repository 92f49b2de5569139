package secrets

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "github.com/scriptgate-dev/scriptgate/domain/errors"
	"github.com/scriptgate-dev/scriptgate/log"
)

func newTestInjector(t *testing.T, secrets map[string]string) *Injector {
	t.Helper()
	s := NewStore(log.Nop())
	for id, value := range secrets {
		s.Put(id, value)
	}
	return NewInjector(s)
}

func TestRender(t *testing.T) {
	inj := newTestInjector(t, map[string]string{
		"API_KEY": "sk-123",
		"TOKEN":   "t-456",
	})

	t.Run("single marker", func(t *testing.T) {
		out, used, err := inj.Render("Bearer {{secret:API_KEY}}")
		require.NoError(t, err)
		assert.Equal(t, "Bearer sk-123", out)
		assert.Equal(t, []string{"API_KEY"}, used)
	})

	t.Run("multiple markers, deduplicated in order", func(t *testing.T) {
		out, used, err := inj.Render("{{secret:TOKEN}}/{{secret:API_KEY}}/{{secret:TOKEN}}")
		require.NoError(t, err)
		assert.Equal(t, "t-456/sk-123/t-456", out)
		assert.Equal(t, []string{"TOKEN", "API_KEY"}, used)
	})

	t.Run("no markers passes through", func(t *testing.T) {
		out, used, err := inj.Render("plain text")
		require.NoError(t, err)
		assert.Equal(t, "plain text", out)
		assert.Empty(t, used)
	})

	t.Run("bare braces are not markers", func(t *testing.T) {
		out, used, err := inj.Render("{{API_KEY}} and {{ secret:API_KEY }}")
		require.NoError(t, err)
		assert.Equal(t, "{{API_KEY}} and {{ secret:API_KEY }}", out)
		assert.Empty(t, used)
	})

	t.Run("missing identifier aborts without output", func(t *testing.T) {
		out, used, err := inj.Render("{{secret:API_KEY}} then {{secret:MISSING}}")
		var snf *derrors.SecretNotFoundError
		require.ErrorAs(t, err, &snf)
		assert.Equal(t, "MISSING", snf.Identifier)
		assert.Empty(t, out, "no partially substituted output may escape")
		assert.Empty(t, used)
	})

	t.Run("idempotent single pass", func(t *testing.T) {
		nested := newTestInjector(t, map[string]string{
			"OUTER": "{{secret:INNER}}",
			"INNER": "must-not-appear",
		})
		out, used, err := nested.Render("{{secret:OUTER}}")
		require.NoError(t, err)
		// The value containing a marker is not re-expanded.
		assert.Equal(t, "{{secret:INNER}}", out)
		assert.Equal(t, []string{"OUTER"}, used)
	})
}

func TestRenderRequest(t *testing.T) {
	inj := newTestInjector(t, map[string]string{
		"API_KEY": "sk-123",
		"SIGNING": "s-789",
	})

	t.Run("headers and body render together", func(t *testing.T) {
		headers, body, used, err := inj.RenderRequest(
			map[string]string{
				"Authorization": "Bearer {{secret:API_KEY}}",
				"Accept":        "application/json",
			},
			`{"sig":"{{secret:SIGNING}}","key":"{{secret:API_KEY}}"}`,
		)
		require.NoError(t, err)
		assert.Equal(t, "Bearer sk-123", headers["Authorization"])
		assert.Equal(t, "application/json", headers["Accept"])
		assert.JSONEq(t, `{"sig":"s-789","key":"sk-123"}`, body)
		assert.ElementsMatch(t, []string{"API_KEY", "SIGNING"}, used)
	})

	t.Run("missing identifier anywhere aborts everything", func(t *testing.T) {
		_, _, used, err := inj.RenderRequest(
			map[string]string{"Authorization": "Bearer {{secret:API_KEY}}"},
			"{{secret:ABSENT}}",
		)
		require.Error(t, err)
		assert.Empty(t, used)
	})
}

func TestRenderNeverSubstitutesEmptyUnderConcurrentDelete(t *testing.T) {
	store := NewStore(log.Nop())
	inj := NewInjector(store)

	// A delete racing a render must yield either the full value or
	// SecretNotFound, never a silently empty substitution.
	for i := 0; i < 200; i++ {
		store.Put("API_KEY", "sk-123")

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Delete("API_KEY")
		}()

		out, _, err := inj.Render("Bearer {{secret:API_KEY}}")
		wg.Wait()

		if err != nil {
			var snf *derrors.SecretNotFoundError
			require.ErrorAs(t, err, &snf)
			continue
		}
		assert.Equal(t, "Bearer sk-123", out)
	}
}
