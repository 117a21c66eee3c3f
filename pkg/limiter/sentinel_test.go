package limiter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowBlocksOverThreshold(t *testing.T) {
	t.Setenv("SENTINEL_LOG_DIR", t.TempDir())
	require.NoError(t, Init(map[string]float64{"test_upload": 1, "unlimited": 0}))

	exit, ok := Allow("test_upload")
	require.True(t, ok)
	exit()

	_, ok = Allow("test_upload")
	assert.False(t, ok)

	for i := 0; i < 5; i++ {
		exit, ok := Allow("unlimited")
		require.True(t, ok)
		exit()
	}
}
