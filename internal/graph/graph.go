// Package graph implements the tag/graph index of §4.7: a per-tag set of
// contributing files, delegating actual point storage to internal/store,
// plus an xxhash-sharded incremental log of newly-seen (tag, path) pairs.
//
// Grounded on original_source/Scalar/server/src/GraphManager/GraphManager.{h,cpp}:
// Graph there is a thin `dataFiles_` set delegating UpdateData/GetFileData/
// UpdateSmoothingParam to a looked-up FileInfo via the process-wide
// ScalarVisuallyServer singleton. Per §9's no-singleton/no-back-pointer
// rule, that lookup becomes an explicit Store parameter threaded through
// each call instead of a held reference, mirroring internal/store's
// resolveFunc pattern for VirtualFile.
package graph

import (
	"sync"

	"github.com/standardbeagle/scalarviz/internal/point"
	"github.com/standardbeagle/scalarviz/internal/smooth"
	"github.com/standardbeagle/scalarviz/internal/store"
	"github.com/standardbeagle/scalarviz/internal/view"
)

// Store is the subset of *store.FileStore a Graph needs. *store.FileStore
// satisfies it without an explicit assertion.
type Store interface {
	UpdateData(path, tag string, points []point.ScalarPoint) error
	GetData(path, tag string, left, right uint64, mode store.DataMode) ([]view.DataView, error)
	UpdateSmoothingParam(path, tag string, param smooth.Param) error
}

// Graph is one tag's contributing-file set (GraphManager.h's Graph). It
// holds no point data itself; every data operation is a lookup against
// the caller-supplied Store.
type Graph struct {
	tag string

	mu    sync.RWMutex
	files map[string]struct{}
}

func newGraph(tag string) *Graph {
	return &Graph{tag: tag, files: make(map[string]struct{})}
}

// Tag returns the graph's tag.
func (g *Graph) Tag() string { return g.tag }

// ContainsFile reports whether path already contributes to this graph.
func (g *Graph) ContainsFile(path string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.files[path]
	return ok
}

// Files returns the graph's contributing files in no particular order.
func (g *Graph) Files() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, 0, len(g.files))
	for f := range g.files {
		out = append(out, f)
	}
	return out
}

// AddFile records path as a contributing file (merge-time fan-in, §9.2's
// symmetric AddFile/DelFile on VirtualFile merge/unmerge).
func (g *Graph) AddFile(path string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.files[path] = struct{}{}
}

// DelFile removes path from the contributing-file set (unmerge).
func (g *Graph) DelFile(path string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.files, path)
}

// UpdateData records path as contributing (if new) and, for any non-empty
// points, delegates the append to s. An empty points slice still
// registers the file, matching the original's "insert before checking
// data.empty()" order.
func (g *Graph) UpdateData(s Store, path string, points []point.ScalarPoint) error {
	g.AddFile(path)
	if len(points) == 0 {
		return nil
	}
	return s.UpdateData(path, g.tag, points)
}

// GetFileData returns path's data for this graph's tag, or nil if path
// does not contribute to the graph.
func (g *Graph) GetFileData(s Store, path string, left, right uint64, mode store.DataMode) ([]view.DataView, error) {
	if !g.ContainsFile(path) {
		return nil, nil
	}
	return s.GetData(path, g.tag, left, right, mode)
}

// UpdateSmoothingParam reconfigures the smoother for (path, tag).
func (g *Graph) UpdateSmoothingParam(s Store, path string, param smooth.Param) error {
	return s.UpdateSmoothingParam(path, g.tag, param)
}
