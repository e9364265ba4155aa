package engine

import (
	"path/filepath"

	"github.com/standardbeagle/scalarviz/internal/schedule"
	"github.com/standardbeagle/scalarviz/internal/wireformat"
)

// shouldWatch filters newly observed files under a watched directory to
// ones this engine can actually parse, mirroring ImportFile's directory
// scan skipping unrecognized wire formats.
func (e *Engine) shouldWatch(path string) bool {
	if wireformat.DetectFormat(path) == wireformat.FormatUnknown {
		return false
	}
	if e.cfg.Watch.ExcludeGlobs != nil && matchesAny(e.cfg.Watch.ExcludeGlobs, path) {
		return false
	}
	if len(e.cfg.Watch.IncludeGlobs) > 0 && !matchesAny(e.cfg.Watch.IncludeGlobs, path) {
		return false
	}
	return true
}

// onCreated handles a newly observed file under a watched directory
// (scenario 5's "Watcher observes creation of worker_0.log"): it
// registers the file with the store so its first write-close event has
// somewhere to commit points, but does not itself trigger a parse — that
// happens on the first write-close, matching the watcher's own
// create-then-write event ordering.
func (e *Engine) onCreated(dir, name string) {
	path := filepath.Join(dir, name)
	nf := e.registerFile(path)
	nf.SetImported(true)
}

// onWriteClose handles the debounced write-close approximation for path:
// it submits one parse task to the pool under a synthetic per-file
// project name, so watch-triggered parses share the same scheduler and
// ParseState machinery as an explicit ImportFile.
func (e *Engine) onWriteClose(dir, name string) {
	path := filepath.Join(dir, name)
	nf, ok := e.store.GetNormalFile(path)
	if !ok {
		nf = e.registerFile(path)
		nf.SetImported(true)
	}
	project := "watch:" + path
	task := schedule.ParseTask{
		Path: path,
		Size: fileSize(path),
		Run:  func() (uint64, error) { return e.runParse(nf) },
	}
	e.pool.AddParseTask(project, []string{path}, []schedule.ParseTask{task})
}
