// Package store implements the per-file scalar record store of §4.3: a
// concurrent-safe mapping from file path to a NormalFile (real on-disk
// records) or VirtualFile (a fan-out merge over other files), plus the
// tag-indexed query entry point used by the graph and query layers.
package store

import (
	"sync"

	"github.com/cespare/xxhash/v2"

	scverrors "github.com/standardbeagle/scalarviz/internal/errors"
	"github.com/standardbeagle/scalarviz/internal/point"
	"github.com/standardbeagle/scalarviz/internal/smooth"
	"github.com/standardbeagle/scalarviz/internal/view"
	"github.com/standardbeagle/scalarviz/internal/wireformat"
)

const memAccountingShards = 8

// FileStore owns every NormalFile and VirtualFile known to a project and
// resolves virtual fan-out lookups without either file type holding a
// back-pointer to the store (§9's no-singleton/no-back-pointer note).
type FileStore struct {
	mu       sync.RWMutex
	normal   map[string]*NormalFile
	virtual  map[string]*VirtualFile
	pointCnt [memAccountingShards]int64 // approximate resident point count, shard-hashed by tag
	cntMu    [memAccountingShards]sync.Mutex
}

// New builds an empty FileStore.
func New() *FileStore {
	return &FileStore{
		normal:  make(map[string]*NormalFile),
		virtual: make(map[string]*VirtualFile),
	}
}

// AddFile registers a NormalFile for path if it does not already exist,
// returning the existing or newly created record.
func (s *FileStore) AddFile(path string, dataType wireformat.Format) *NormalFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.normal[path]; ok {
		return f
	}
	f := NewNormalFile(path, dataType)
	s.normal[path] = f
	return f
}

// GetFile returns any File (normal or virtual) registered at path.
func (s *FileStore) GetFile(path string) (File, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if f, ok := s.normal[path]; ok {
		return f, true
	}
	if f, ok := s.virtual[path]; ok {
		return f, true
	}
	return nil, false
}

// GetNormalFile returns the NormalFile registered at path, if any.
func (s *FileStore) GetNormalFile(path string) (*NormalFile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.normal[path]
	return f, ok
}

// DeleteFile removes any record (normal or virtual) at path.
func (s *FileStore) DeleteFile(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.normal, path)
	delete(s.virtual, path)
}

// CreateVirtualFile registers a new VirtualFile at path, merging subFiles
// into it. Sub-file paths that do not resolve to a known NormalFile are
// skipped, mirroring the original's silent-skip-on-missing-lookup.
func (s *FileStore) CreateVirtualFile(path string, subFiles []string) *VirtualFile {
	s.mu.Lock()
	v, ok := s.virtual[path]
	if !ok {
		v = NewVirtualFile(path)
		s.virtual[path] = v
	}
	s.mu.Unlock()
	v.AddSubFiles(subFiles, s.resolveNormal)
	return v
}

// DeleteVirtualFile unmerges and removes the virtual file at path. Its
// sub-files are untouched.
func (s *FileStore) DeleteVirtualFile(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.virtual, path)
}

func (s *FileStore) resolveNormal(path string) (*NormalFile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.normal[path]
	return f, ok
}

// UpdateData appends newly decoded points to the named tag on the file at
// path, tracking an approximate resident point count for diagnostics.
func (s *FileStore) UpdateData(path, tag string, points []point.ScalarPoint) error {
	f, ok := s.GetNormalFile(path)
	if !ok {
		return scverrors.NewPathError("update-data", path, errUnknownFile)
	}
	f.UpdateData(tag, points)
	s.accountPoints(tag, len(points))
	return nil
}

func (s *FileStore) accountPoints(tag string, n int) {
	shard := xxhash.Sum64String(tag) % memAccountingShards
	s.cntMu[shard].Lock()
	s.pointCnt[shard] += int64(n)
	s.cntMu[shard].Unlock()
}

// ApproxResidentPoints sums the sharded point-count accounting, an
// approximate total used only for diagnostics (§4.3.1); no eviction policy
// consumes it.
func (s *FileStore) ApproxResidentPoints() int64 {
	var total int64
	for i := range s.pointCnt {
		s.cntMu[i].Lock()
		total += s.pointCnt[i]
		s.cntMu[i].Unlock()
	}
	return total
}

// UpdateSmoothingParam dispatches to the right file kind: a NormalFile
// updates its own smoother, a VirtualFile fans the same param out (cloned)
// to every sub-file.
func (s *FileStore) UpdateSmoothingParam(path, tag string, param smooth.Param) error {
	s.mu.RLock()
	nf, isNormal := s.normal[path]
	vf, isVirtual := s.virtual[path]
	s.mu.RUnlock()
	switch {
	case isNormal:
		nf.UpdateSmoothingParam(tag, param)
		return nil
	case isVirtual:
		vf.UpdateSmoothingParam(tag, param, s.resolveNormal)
		return nil
	default:
		return scverrors.NewPathError("update-smoothing-param", path, errUnknownFile)
	}
}

// GetData dispatches to the right file kind and returns the resulting
// DataViews, unsorted across files for a NormalFile (single view) and
// sorted by (step, wall_time) across sub-files for a VirtualFile.
func (s *FileStore) GetData(path, tag string, left, right uint64, mode DataMode) ([]view.DataView, error) {
	s.mu.RLock()
	nf, isNormal := s.normal[path]
	vf, isVirtual := s.virtual[path]
	s.mu.RUnlock()
	switch {
	case isNormal:
		return nf.GetData(tag, left, right, mode)
	case isVirtual:
		return vf.GetData(tag, left, right, mode, s.resolveNormal)
	default:
		return nil, scverrors.NewPathError("get-data", path, errUnknownFile)
	}
}

// Materialize copies out the points v selects from its owning file
// (v.OwnerPath), which may differ from path when v came from a
// VirtualFile's fan-out. Used by the query pipeline's TokenOp, which
// needs concrete points (not just views) to rescale step in place
// (§4.8.1).
func (s *FileStore) Materialize(tag string, v view.DataView, mode DataMode) ([]point.ScalarPoint, error) {
	nf, ok := s.resolveNormal(v.OwnerPath)
	if !ok {
		return nil, scverrors.NewPathError("materialize", v.OwnerPath, errUnknownFile)
	}
	return nf.Materialize(tag, v, mode), nil
}

// TokenCof returns path's token coefficient (§4.8.1: per-point rescale
// uses the point's owning view's owning file's own coefficient, not a
// single request-wide value).
func (s *FileStore) TokenCof(path string) (float64, bool) {
	nf, ok := s.resolveNormal(path)
	if !ok {
		return 0, false
	}
	return nf.GetTokenCof(), true
}

// KnownNormalFiles returns every registered NormalFile, used by the
// engine's Reset to clear the imported flag on each before dropping them.
func (s *FileStore) KnownNormalFiles() []*NormalFile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*NormalFile, 0, len(s.normal))
	for _, f := range s.normal {
		out = append(out, f)
	}
	return out
}

// Reset drops every normal and virtual file and the memory-accounting
// shards, matching §5's "reset ... clears queues": after Reset every
// subsequent GetData returns empty until the next ImportFile (§8's reset
// purity property).
func (s *FileStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.normal = make(map[string]*NormalFile)
	s.virtual = make(map[string]*VirtualFile)
	for i := range s.pointCnt {
		s.cntMu[i].Lock()
		s.pointCnt[i] = 0
		s.cntMu[i].Unlock()
	}
}

// KnownTags returns the union of tags across every normal and virtual
// file, used for unknown-tag fuzzy suggestion (§4.9.2).
func (s *FileStore) KnownTags() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, f := range s.normal {
		for _, t := range f.ContainsTag() {
			seen[t] = struct{}{}
		}
	}
	for _, f := range s.virtual {
		for _, t := range f.ContainsTag() {
			seen[t] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	return out
}

type storeError string

func (e storeError) Error() string { return string(e) }

const errUnknownFile = storeError("file not registered with store")
