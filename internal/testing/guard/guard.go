// Package guard switches the process into test mode on import so binaries under
// test never start servers or workers.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("DASHBOARD_TEST_MODE") == "" {
			_ = os.Setenv("DASHBOARD_TEST_MODE", "1")
		}
	})
}
