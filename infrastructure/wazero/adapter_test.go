package wazero

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPackUnpackPtrLen(t *testing.T) {
	cases := []struct {
		ptr, length uint32
	}{
		{0, 0},
		{1024, 16},
		{0xFFFFFFFF, 0xFFFFFFFF},
		{0x80000000, 1},
	}
	for _, tc := range cases {
		packed := packPtrLen(tc.ptr, tc.length)
		ptr, length := unpackPtrLen(packed)
		assert.Equal(t, tc.ptr, ptr)
		assert.Equal(t, tc.length, length)
	}
}

func TestPackLayout(t *testing.T) {
	// Pointer rides the upper 32 bits, length the lower.
	assert.Equal(t, uint64(0x0000000400000010), packPtrLen(4, 16))
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultAdapterConfig()
	assert.Equal(t, "scriptgate_host", cfg.ModuleName)
	assert.Equal(t, DefaultMaxRequestSize, cfg.MaxRequestSize)

	WithModuleName("custom_host")(&cfg)
	WithMaxRequestSize(4096)(&cfg)
	assert.Equal(t, "custom_host", cfg.ModuleName)
	assert.Equal(t, uint32(4096), cfg.MaxRequestSize)
}
