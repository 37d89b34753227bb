package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("RIDEPASS_TEST_MODE") == "" {
			_ = os.Setenv("RIDEPASS_TEST_MODE", "1")
		}
	})
}
