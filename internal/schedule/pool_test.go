package schedule

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkTask(path string, size uint64, run func() (uint64, error)) ParseTask {
	return ParseTask{Path: path, Size: size, Run: run}
}

func TestPool_AddParseTask_TracksProgressToCompletion(t *testing.T) {
	p := New()
	defer p.Close()

	tasks := []ParseTask{
		mkTask("a.log", 50, func() (uint64, error) { return 50, nil }),
		mkTask("b.log", 50, func() (uint64, error) { return 50, nil }),
	}
	p.AddParseTask("proj", []string{"a.log", "b.log"}, tasks)

	require.Eventually(t, func() bool {
		snap, ok := p.GetParseState("proj")
		return ok && snap.Finished && snap.Percent == 100
	}, time.Second, 5*time.Millisecond)
}

func TestPool_GetParseState_DropsAfterFinishedQuery(t *testing.T) {
	p := New()
	defer p.Close()

	p.AddParseTask("proj", []string{"a.log"}, []ParseTask{
		mkTask("a.log", 10, func() (uint64, error) { return 10, nil }),
	})

	require.Eventually(t, func() bool {
		snap, ok := p.GetParseState("proj")
		return ok && snap.Finished
	}, time.Second, 5*time.Millisecond)

	_, ok := p.GetParseState("proj")
	assert.False(t, ok, "state is dropped on first post-completion query")
}

func TestPool_GetParseState_UnknownProject(t *testing.T) {
	p := New()
	defer p.Close()

	_, ok := p.GetParseState("nope")
	assert.False(t, ok)
}

func TestPool_RecordsPerFileErrors(t *testing.T) {
	p := New()
	defer p.Close()

	boom := errors.New("boom")
	p.AddParseTask("proj", []string{"a.log", "b.log"}, []ParseTask{
		mkTask("a.log", 10, func() (uint64, error) { return 0, boom }),
		mkTask("b.log", 10, func() (uint64, error) { return 10, nil }),
	})

	var snap Snapshot
	require.Eventually(t, func() bool {
		var ok bool
		snap, ok = p.GetParseState("proj")
		return ok && snap.Finished
	}, time.Second, 5*time.Millisecond)

	require.Len(t, snap.Errors, 1)
	assert.Equal(t, boom, snap.Errors["a.log"])
}

func TestPool_PercentReflectsPartialProgress(t *testing.T) {
	p := New()
	defer p.Close()

	release := make(chan struct{})
	p.AddParseTask("proj", []string{"a.log", "b.log"}, []ParseTask{
		mkTask("a.log", 50, func() (uint64, error) { return 50, nil }),
		mkTask("b.log", 50, func() (uint64, error) { <-release; return 50, nil }),
	})

	require.Eventually(t, func() bool {
		snap, ok := p.GetParseState("proj")
		return ok && snap.Percent == 50 && !snap.Finished
	}, time.Second, 5*time.Millisecond)

	close(release)
	require.Eventually(t, func() bool {
		snap, ok := p.GetParseState("proj")
		return ok && snap.Finished
	}, time.Second, 5*time.Millisecond)
}

func TestPool_Reset_ClearsTrackedStates(t *testing.T) {
	p := New()
	defer p.Close()

	p.AddParseTask("proj", []string{"a.log"}, []ParseTask{
		mkTask("a.log", 10, func() (uint64, error) { return 10, nil }),
	})
	p.Reset()

	_, ok := p.GetParseState("proj")
	assert.False(t, ok)
}

func TestPool_ConcurrentTasksRunAcrossWorkers(t *testing.T) {
	p := New()
	defer p.Close()

	const n = 40
	var inFlight int32
	var maxInFlight int32
	var mu sync.Mutex
	paths := make([]string, n)
	tasks := make([]ParseTask, n)
	for i := 0; i < n; i++ {
		paths[i] = "f"
		tasks[i] = mkTask("f", 1, func() (uint64, error) {
			cur := atomic.AddInt32(&inFlight, 1)
			mu.Lock()
			if cur > maxInFlight {
				maxInFlight = cur
			}
			mu.Unlock()
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return 1, nil
		})
	}
	p.AddParseTask("proj", paths, tasks)

	require.Eventually(t, func() bool {
		snap, ok := p.GetParseState("proj")
		return ok && snap.Finished
	}, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Greater(t, maxInFlight, int32(1), "tasks should run concurrently across workers")
}

func TestPool_ZeroByteFilesFinishAtFullPercent(t *testing.T) {
	p := New()
	defer p.Close()

	p.AddParseTask("proj", []string{"empty.log"}, []ParseTask{
		mkTask("empty.log", 0, func() (uint64, error) { return 0, nil }),
	})

	require.Eventually(t, func() bool {
		snap, ok := p.GetParseState("proj")
		return ok && snap.Finished && snap.Percent == 100
	}, time.Second, 5*time.Millisecond)
}
