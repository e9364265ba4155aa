package graph

import (
	"sync"

	"github.com/standardbeagle/scalarviz/internal/point"
	"github.com/standardbeagle/scalarviz/internal/smooth"
	"github.com/standardbeagle/scalarviz/internal/store"
	"github.com/standardbeagle/scalarviz/internal/view"
)

// Index is the tag -> Graph registry (GraphManager.h's GraphManager),
// plus the incremental log of newly-seen (tag, path) pairs.
type Index struct {
	mu     sync.RWMutex
	graphs map[string]*Graph

	incr *incrementalLog
}

// New builds an empty Index.
func New() *Index {
	return &Index{
		graphs: make(map[string]*Graph),
		incr:   newIncrementalLog(),
	}
}

// IsIncremental reports whether (tag, path) has not yet been recorded:
// true when the graph does not exist yet, or exists but does not list
// path as a contributing file.
func (ix *Index) IsIncremental(tag, path string) bool {
	ix.mu.RLock()
	g, ok := ix.graphs[tag]
	ix.mu.RUnlock()
	if !ok {
		return true
	}
	return !g.ContainsFile(path)
}

// UpdateGraph creates the graph on first touch, records path as a
// contributing file, and delegates the append to s. A first-seen
// (tag, path) pairing is recorded in the incremental log.
func (ix *Index) UpdateGraph(s Store, tag, path string, points []point.ScalarPoint) error {
	incremental := ix.IsIncremental(tag, path)

	ix.mu.Lock()
	g, ok := ix.graphs[tag]
	if !ok {
		g = newGraph(tag)
		ix.graphs[tag] = g
	}
	ix.mu.Unlock()

	if incremental {
		ix.incr.record(tag, path)
	}
	return g.UpdateData(s, path, points)
}

// GetGraph returns the graph for tag, if it exists.
func (ix *Index) GetGraph(tag string) (*Graph, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	g, ok := ix.graphs[tag]
	return g, ok
}

// GetGraphData returns tag's data for path. An unknown tag returns a nil
// slice with no error, mirroring the original's log-and-return-empty
// behavior rather than surfacing a NOT_FOUND to the caller.
func (ix *Index) GetGraphData(s Store, tag, path string, left, right uint64, mode store.DataMode) ([]view.DataView, error) {
	g, ok := ix.GetGraph(tag)
	if !ok {
		return nil, nil
	}
	return g.GetFileData(s, path, left, right, mode)
}

// UpdateGraphSmoothingParam reconfigures the smoother for (tag, path); a
// no-op if the graph does not exist.
func (ix *Index) UpdateGraphSmoothingParam(s Store, tag, path string, param smooth.Param) error {
	g, ok := ix.GetGraph(tag)
	if !ok {
		return nil
	}
	return g.UpdateSmoothingParam(s, path, param)
}

// Reset clears every graph and the incremental log (engine-level Reset,
// §4.6/§4.7).
func (ix *Index) Reset() {
	ix.mu.Lock()
	ix.graphs = make(map[string]*Graph)
	ix.mu.Unlock()
	ix.incr = newIncrementalLog()
}

// AllGraphInfo returns tag -> contributing files for every known graph
// (GetAllGraph, §4.9).
func (ix *Index) AllGraphInfo() map[string][]string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make(map[string][]string, len(ix.graphs))
	for tag, g := range ix.graphs {
		out[tag] = g.Files()
	}
	return out
}

// FileTags returns every tag whose graph lists path as a contributing
// file.
func (ix *Index) FileTags(path string) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	var tags []string
	for tag, g := range ix.graphs {
		if g.ContainsFile(path) {
			tags = append(tags, tag)
		}
	}
	return tags
}

// DrainIncremental removes and returns up to max newly-seen (tag, path)
// pairs (GetIncrementalTag, §4.9). Callers should pass MaxIncrementalDrain
// unless testing the cap itself.
func (ix *Index) DrainIncremental(max int) []IncrementalEntry {
	return ix.incr.drain(max)
}

// AddFile and DelFile support §9's symmetric merge/unmerge bookkeeping:
// when a VirtualFile absorbs or releases a sub-file that already
// contributes tag data, the graph's contributing-file set must track the
// virtual file's path too so GetAllGraph/FileTags see it.
func (ix *Index) AddFile(tag, path string) {
	ix.mu.Lock()
	g, ok := ix.graphs[tag]
	if !ok {
		g = newGraph(tag)
		ix.graphs[tag] = g
	}
	ix.mu.Unlock()
	g.AddFile(path)
}

func (ix *Index) DelFile(tag, path string) {
	g, ok := ix.GetGraph(tag)
	if !ok {
		return
	}
	g.DelFile(path)
}
