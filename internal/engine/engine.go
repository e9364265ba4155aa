// Package engine composes the store, watcher, parse scheduler, graph
// index, and query pipeline into the single externally-visible value of
// §9's "Singletons" design note: one Engine constructed at startup and
// passed down, with no package holding a process-global handle back to
// it. The adapter methods on Engine implement §4.9's command table.
//
// Grounded on the teacher's internal/indexing.MasterIndex as the
// composition-root shape: one struct field per subsystem, built once in
// a constructor, exposed through plain methods — generalized here from
// code-indexing subsystems (trigram index, symbol index, file scanner)
// to this domain's (store, graph, schedule, watch, query).
package engine

import (
	"sync"
	"time"

	"github.com/standardbeagle/scalarviz/internal/config"
	"github.com/standardbeagle/scalarviz/internal/graph"
	"github.com/standardbeagle/scalarviz/internal/idcodec"
	"github.com/standardbeagle/scalarviz/internal/schedule"
	"github.com/standardbeagle/scalarviz/internal/store"
	"github.com/standardbeagle/scalarviz/internal/watch"
)

// Engine is the composition root: every subsystem is a plain field, and
// every method below takes no implicit global state. Adapter callers
// (internal/server, cmd/scalarviz) hold one *Engine for the process
// lifetime and pass it explicitly, never through a package-level var.
type Engine struct {
	cfg     *config.Config
	store   *store.FileStore
	graph   *graph.Index
	pool    *schedule.Pool
	watcher *watch.Watcher

	mu         sync.Mutex
	projectSeq uint64
	projects   map[string]*projectRecord // projectName -> import bookkeeping
}

// projectRecord remembers which paths an ImportFile call registered,
// needed because GetParseState(project) and a later append-import must
// agree on the same project name for the same watched root.
type projectRecord struct {
	pathList []string
}

// New builds an Engine from cfg. The watcher is started immediately if
// cfg.Watch.Enabled; callers must call Close to stop the scheduler and
// watcher goroutines.
func New(cfg *config.Config) (*Engine, error) {
	e := &Engine{
		cfg:      cfg,
		store:    store.New(),
		graph:    graph.New(),
		pool:     schedule.New(),
		projects: make(map[string]*projectRecord),
	}

	if cfg.Watch.Enabled {
		w, err := watch.New(time.Duration(cfg.Watch.DebounceMs) * time.Millisecond)
		if err != nil {
			e.pool.Close()
			return nil, err
		}
		w.ShouldWatch = e.shouldWatch
		w.SetCallbacks(e.onWriteClose, e.onCreated)
		w.Start()
		e.watcher = w
	}

	return e, nil
}

// Close stops the scheduler and watcher, waiting for their goroutines to
// exit. Safe to call once at process shutdown.
func (e *Engine) Close() {
	if e.watcher != nil {
		_ = e.watcher.Stop()
	}
	e.pool.Close()
}

// Reset clears every file, graph, and tracked project: §5's "reset sets
// the imported flag false on all files, clears queues, and requests
// watcher stop" — here a watcher is never stopped by Reset (it keeps
// watching the same directories so a subsequent append-import resumes
// incremental detection without re-registering), only drained.
func (e *Engine) Reset() {
	e.mu.Lock()
	for _, f := range e.store.KnownNormalFiles() {
		f.SetImported(false)
	}
	e.projects = make(map[string]*projectRecord)
	e.mu.Unlock()

	e.store.Reset()
	e.graph.Reset()
	e.pool.Reset()
	if e.watcher != nil {
		_ = e.watcher.DrainCreated()
	}
}

// nextProjectID generates a short, monotonically increasing project name,
// reusing the teacher's base-63 ID codec in place of an opaque UUID
// (internal/idcodec.Encode, kept from the teacher's symbol/file ID
// shortening for the same purpose: compact, grep-friendly identifiers).
func (e *Engine) nextProjectID() string {
	e.mu.Lock()
	e.projectSeq++
	seq := e.projectSeq
	e.mu.Unlock()
	return "proj-" + idcodec.Encode(seq)
}
