package redis_functions

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLibrariesEmbedded(t *testing.T) {
	libs, err := libraries()
	require.NoError(t, err)

	code, ok := libs["moviedraw.lua"]
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(code, "#!lua name=moviedraw"))
	assert.Contains(t, code, "redis.register_function('"+RevealFire+"'")
}
