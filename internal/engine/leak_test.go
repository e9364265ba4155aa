//go:build leaktests
// +build leaktests

package engine

import (
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/standardbeagle/scalarviz/internal/config"
)

// TestEngineCloseReleasesGoroutines verifies that the watcher and parse pool
// goroutines started by New are gone after Close returns.
func TestEngineCloseReleasesGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := config.Default()
	cfg.Project.Root = t.TempDir()

	eng, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	eng.Close()

	time.Sleep(200 * time.Millisecond)
}

// TestEngineRepeatedOpenClose exercises several New/Close cycles, the shape
// a watch-mode CLI session repeats across re-imports.
func TestEngineRepeatedOpenClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	for i := 0; i < 5; i++ {
		cfg := config.Default()
		cfg.Project.Root = t.TempDir()

		eng, err := New(cfg)
		if err != nil {
			t.Fatalf("cycle %d: New: %v", i, err)
		}
		eng.Close()
	}
}
