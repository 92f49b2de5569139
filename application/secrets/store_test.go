package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriptgate-dev/scriptgate/log"
)

func TestStoreBasics(t *testing.T) {
	s := NewStore(log.Nop())

	assert.False(t, s.Exists("API_KEY"))
	s.Put("API_KEY", "sk-123")
	assert.True(t, s.Exists("API_KEY"))
	assert.Equal(t, 1, s.Len())

	value, ok := s.Get("API_KEY")
	require.True(t, ok)
	assert.Equal(t, "sk-123", value)

	assert.True(t, s.Delete("API_KEY"))
	assert.False(t, s.Delete("API_KEY"))
	assert.False(t, s.Exists("API_KEY"))
}

func TestStoreIdentifiers(t *testing.T) {
	s := NewStore(log.Nop())
	s.Put("ZULU", "1")
	s.Put("ALPHA", "2")
	s.Put("MIKE", "3")

	// Sorted, and no values anywhere in the result.
	assert.Equal(t, []string{"ALPHA", "MIKE", "ZULU"}, s.Identifiers())
}

func TestStoreLoadFromEnv(t *testing.T) {
	t.Setenv("SGTEST_SECRET_API_KEY", "from-env")
	t.Setenv("SGTEST_SECRET_DB_PASS", "hunter2")
	t.Setenv("SGTEST_OTHER", "ignored")

	s := NewStore(log.Nop())
	loaded := s.LoadFromEnv("SGTEST_SECRET_")

	assert.Equal(t, 2, loaded)
	assert.True(t, s.Exists("API_KEY"))
	assert.True(t, s.Exists("DB_PASS"))
	assert.False(t, s.Exists("OTHER"))

	value, ok := s.Get("API_KEY")
	require.True(t, ok)
	assert.Equal(t, "from-env", value)
}

func TestStoreOverwrite(t *testing.T) {
	s := NewStore(log.Nop())
	s.Put("TOKEN", "old")
	s.Put("TOKEN", "new")

	value, _ := s.Get("TOKEN")
	assert.Equal(t, "new", value)
	assert.Equal(t, 1, s.Len())
}
