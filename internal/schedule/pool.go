// Package schedule implements the bounded parse worker pool of §4.6: a
// fixed-size goroutine pool, admission-gated by a weighted semaphore and
// supervised by an errgroup.Group, fed through a channel with
// exponential-backoff submission retry, one ParseState per project, and
// a 500ms progress reaper.
//
// Grounded on the teacher's internal/indexing/{pipeline,pipeline_processor,
// pipeline_progress}.go: pipeline_processor.go's ProcessFiles worker loop
// (channel-select over a context) and its back-pressure retry/backoff
// shape for a full result channel are adapted here for task *submission*
// into a full task channel instead. The semaphore/errgroup pairing
// replaces the teacher's bare sync.WaitGroup supervision with the
// x/sync primitives the rest of the pack reaches for.
package schedule

import (
	"context"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	scverrors "github.com/standardbeagle/scalarviz/internal/errors"
)

const (
	maxWorkers       = 16
	submitTimeout    = 200 * time.Millisecond
	maxSubmitRetries = 5
	reapInterval     = 500 * time.Millisecond
)

type queuedTask struct {
	project string
	task    ParseTask
}

// Pool is a bounded worker pool sized min(available_parallelism, 16),
// supervising one ParseState per project name. A semaphore.Weighted of
// the same size gates how many tasks may be in flight at once, and an
// errgroup.Group supervises the fixed worker goroutines plus the
// progress reaper.
type Pool struct {
	taskCh chan queuedTask
	sem    *semaphore.Weighted
	group  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	states map[string]*ParseState
}

// New starts a Pool with min(runtime.NumCPU(), 16) workers plus the
// 500ms progress reaper.
func New() *Pool {
	workers := runtime.NumCPU()
	if workers > maxWorkers {
		workers = maxWorkers
	}
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	group, gctx := errgroup.WithContext(ctx)
	p := &Pool{
		taskCh: make(chan queuedTask, workers*4),
		sem:    semaphore.NewWeighted(int64(workers)),
		group:  group,
		ctx:    gctx,
		cancel: cancel,
		states: make(map[string]*ParseState),
	}
	for i := 0; i < workers; i++ {
		p.group.Go(p.worker)
	}
	p.group.Go(p.reaper)
	return p
}

// AddParseTask records total_bytes and submits one task per file for
// project, replacing any prior ParseState for the same project name
// (callers are expected to have already dropped a finished state via
// GetParseState before re-importing the same project, per §3.1).
func (p *Pool) AddParseTask(project string, pathList []string, tasks []ParseTask) *ParseState {
	state := newParseState(project, pathList, tasks)
	p.mu.Lock()
	p.states[project] = state
	p.mu.Unlock()

	for _, task := range tasks {
		if err := p.submit(project, task); err != nil {
			state.record(task.Path, 0, err)
		}
	}
	return state
}

// GetParseState returns project's current snapshot. A finished project's
// state is dropped after this call, matching §4.6's "completed projects
// are dropped on first query of their state."
func (p *Pool) GetParseState(project string) (Snapshot, bool) {
	p.mu.Lock()
	state, ok := p.states[project]
	p.mu.Unlock()
	if !ok {
		return Snapshot{}, false
	}
	snap := state.Snapshot()
	if snap.Finished {
		p.mu.Lock()
		delete(p.states, project)
		p.mu.Unlock()
	}
	return snap, true
}

// Reset clears every tracked ParseState and drains the task channel; it
// does not stop the pool's workers. In-flight tasks complete normally but
// their results land on a ParseState that no longer exists in p.states,
// so record() silently becomes a no-op observation (the caller checked
// the imported flag before building the task in the first place).
func (p *Pool) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.states = make(map[string]*ParseState)
drain:
	for {
		select {
		case <-p.taskCh:
		default:
			break drain
		}
	}
}

// Close stops all workers and the reaper, waiting for them to exit.
func (p *Pool) Close() {
	p.cancel()
	_ = p.group.Wait()
}

func (p *Pool) worker() error {
	for {
		select {
		case <-p.ctx.Done():
			return nil
		case qt, ok := <-p.taskCh:
			if !ok {
				return nil
			}
			if err := p.sem.Acquire(p.ctx, 1); err != nil {
				return nil
			}
			p.runTask(qt)
			p.sem.Release(1)
		}
	}
}

func (p *Pool) runTask(qt queuedTask) {
	offset, err := qt.task.Run()
	p.mu.Lock()
	state := p.states[qt.project]
	p.mu.Unlock()
	if state != nil {
		state.record(qt.task.Path, offset, err)
	}
}

// submit enqueues qt, retrying with exponential backoff if the task
// channel is full, matching the teacher's back-pressure shape for a
// saturated channel. A submission that exhausts all retries fails with a
// CapacityError (§7) rather than blocking the caller indefinitely.
func (p *Pool) submit(project string, task ParseTask) error {
	qt := queuedTask{project: project, task: task}
	select {
	case p.taskCh <- qt:
		return nil
	case <-p.ctx.Done():
		return scverrors.NewCapacityError("parse-scheduler")
	case <-time.After(submitTimeout):
	}

	backoff := submitTimeout
	for i := 0; i < maxSubmitRetries; i++ {
		select {
		case p.taskCh <- qt:
			return nil
		case <-p.ctx.Done():
			return scverrors.NewCapacityError("parse-scheduler")
		case <-time.After(backoff):
			backoff *= 2
		}
	}
	return scverrors.NewCapacityError("parse-scheduler")
}

// reaper wakes every 500ms and does no work on a tick: finished projects'
// states are queried lazily via GetParseState; this loop exists to keep the architecture's
// three-long-lived-threads shape (watcher, reaper, adapter) explicit even
// though percent/finished themselves are computed on demand from
// already-recorded offsets.
func (p *Pool) reaper() error {
	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-p.ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
