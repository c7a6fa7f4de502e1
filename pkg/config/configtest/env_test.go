package configtest

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClearEnvRestoresEnvironment(t *testing.T) {
	t.Setenv("CONFIGTEST_KEEP", "kept")

	t.Run("cleared", func(t *testing.T) {
		ClearEnv(t)
		_, ok := os.LookupEnv("CONFIGTEST_KEEP")
		assert.False(t, ok)
		t.Setenv("CONFIGTEST_TEMP", "x")
	})

	v, ok := os.LookupEnv("CONFIGTEST_KEEP")
	require.True(t, ok)
	assert.Equal(t, "kept", v)
	_, ok = os.LookupEnv("CONFIGTEST_TEMP")
	assert.False(t, ok)
}
