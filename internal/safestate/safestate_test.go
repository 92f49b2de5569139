package safestate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "github.com/scriptgate-dev/scriptgate/domain/errors"
)

func TestGuardDo(t *testing.T) {
	g := New("counter", func() map[string]int {
		return make(map[string]int)
	})

	err := g.Do(func(m *map[string]int) error {
		(*m)["a"] = 1
		return nil
	})
	require.NoError(t, err)

	var got int
	require.NoError(t, g.Do(func(m *map[string]int) error {
		got = (*m)["a"]
		return nil
	}))
	assert.Equal(t, 1, got)
}

func TestGuardRecoversFromPanic(t *testing.T) {
	g := New("counter", func() map[string]int {
		return map[string]int{"seed": 42}
	})

	require.NoError(t, g.Do(func(m *map[string]int) error {
		(*m)["dirty"] = 1
		return nil
	}))

	err := g.Do(func(m *map[string]int) error {
		panic("boom")
	})
	var lre *derrors.LockRecoveredError
	require.ErrorAs(t, err, &lre)
	assert.Equal(t, "counter", lre.Subsystem)
	assert.Equal(t, uint64(1), g.Recoveries())

	// State went back to the reset value and the guard still works.
	var state map[string]int
	require.NoError(t, g.Do(func(m *map[string]int) error {
		state = *m
		return nil
	}))
	assert.Equal(t, map[string]int{"seed": 42}, state)
}

func TestGuardUsableAfterRepeatedPanics(t *testing.T) {
	g := New("s", func() []string { return nil })

	for range 3 {
		err := g.Do(func(*[]string) error { panic("again") })
		require.Error(t, err)
	}
	assert.Equal(t, uint64(3), g.Recoveries())

	require.NoError(t, g.Do(func(s *[]string) error {
		*s = append(*s, "ok")
		return nil
	}))
}
