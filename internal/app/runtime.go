package app

import (
	"os"
	"strconv"
	"sync/atomic"
)

// TestModeEnv disables side effects such as listeners and pools when truthy.
const TestModeEnv = "BOOKS_TEST_MODE"

const (
	modeUnknown int32 = iota
	modeLive
	modeTest
)

var runtimeMode atomic.Int32

// InTestMode reports whether binaries should skip runtime side effects.
// The environment is read on first use and cached.
func InTestMode() bool {
	switch runtimeMode.Load() {
	case modeTest:
		return true
	case modeLive:
		return false
	}
	return RefreshTestMode()
}

// RefreshTestMode re-reads the environment and returns the new mode.
func RefreshTestMode() bool {
	on, _ := strconv.ParseBool(os.Getenv(TestModeEnv))
	if on {
		runtimeMode.Store(modeTest)
	} else {
		runtimeMode.Store(modeLive)
	}
	return on
}
