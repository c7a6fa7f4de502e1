// Package configtest holds helpers for tests that load configuration from the
// process environment.
package configtest

import (
	"os"
	"strings"
	"testing"
)

// ClearEnv empties the process environment for the duration of the test and
// restores the previous environment during cleanup. Variables set afterwards
// with t.Setenv are undone first.
func ClearEnv(t testing.TB) {
	t.Helper()
	saved := os.Environ()
	os.Clearenv()
	t.Cleanup(func() {
		os.Clearenv()
		for _, kv := range saved {
			k, v, _ := strings.Cut(kv, "=")
			if k == "" {
				continue
			}
			_ = os.Setenv(k, v)
		}
	})
}
