package store

import (
	"sort"
	"sync"

	"github.com/standardbeagle/scalarviz/internal/smooth"
	"github.com/standardbeagle/scalarviz/internal/view"
	"github.com/standardbeagle/scalarviz/internal/wireformat"
)

// resolveFunc looks up a NormalFile by path. The FileStore supplies this
// at call time so VirtualFile never holds a back-pointer to the store
// (§9's no-singleton design note) — the original's VirtualFile instead
// reaches through a process-global ScalarVisuallyServer::Instance().
type resolveFunc func(path string) (*NormalFile, bool)

// VirtualFile is a named merge over other files' data: it holds no points
// of its own, fans queries out to its sub-files, and always reports
// wireformat.FormatTextLog as its nominal data type, mirroring
// original_source's VirtualFile(name): File(name, TEXT_LOG) constructor.
type VirtualFile struct {
	path string

	mu       sync.RWMutex
	subFiles map[string]struct{}
	tags     map[string]struct{}
}

// NewVirtualFile builds an empty VirtualFile at path.
func NewVirtualFile(path string) *VirtualFile {
	return &VirtualFile{
		path:     path,
		subFiles: make(map[string]struct{}),
		tags:     make(map[string]struct{}),
	}
}

func (v *VirtualFile) Path() string              { return v.path }
func (v *VirtualFile) Kind() FileKind            { return KindVirtual }
func (v *VirtualFile) DataType() wireformat.Format { return wireformat.FormatTextLog }

// ContainsTag returns the union of tags contributed by sub-files as of
// their last merge; it is not retroactively updated by later sub-file
// writes except via AddSubFiles re-merging.
func (v *VirtualFile) ContainsTag() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]string, 0, len(v.tags))
	for t := range v.tags {
		out = append(out, t)
	}
	return out
}

func (v *VirtualFile) HasTag(tag string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.tags[tag]
	return ok
}

// SubFiles returns the set of merged sub-file paths.
func (v *VirtualFile) SubFiles() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]string, 0, len(v.subFiles))
	for p := range v.subFiles {
		out = append(out, p)
	}
	return out
}

// AddSubFiles merges files into this virtual file's sub-file set, adopting
// each resolved file's tags. Paths already merged, or that resolve cannot
// find, are skipped silently, matching File::AddSubFiles'
// silent-skip-on-missing-lookup.
func (v *VirtualFile) AddSubFiles(files []string, resolve resolveFunc) {
	if len(files) == 0 {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, path := range files {
		if _, already := v.subFiles[path]; already {
			continue
		}
		nf, ok := resolve(path)
		if !ok {
			continue
		}
		for _, tag := range nf.ContainsTag() {
			v.tags[tag] = struct{}{}
		}
		v.subFiles[path] = struct{}{}
	}
}

// GetData fans tag/left/right/mode out to every sub-file that carries
// data for tag, concatenating their views and sorting the result
// ascending by (step, wall_time) of each view's first point — the order a
// GraphLine needs to merge multiple files' windows without re-sorting the
// materialized points later (§4.1, §4.8).
func (v *VirtualFile) GetData(tag string, left, right uint64, mode DataMode, resolve resolveFunc) ([]view.DataView, error) {
	v.mu.RLock()
	subFiles := make([]string, 0, len(v.subFiles))
	for p := range v.subFiles {
		subFiles = append(subFiles, p)
	}
	v.mu.RUnlock()
	if len(subFiles) == 0 {
		return nil, nil
	}

	type owned struct {
		view  view.DataView
		owner *NormalFile
	}
	res := make([]owned, 0, len(subFiles))
	for _, path := range subFiles {
		nf, ok := resolve(path)
		if !ok || !nf.ContainsData(tag) {
			continue
		}
		views, err := nf.GetData(tag, left, right, mode)
		if err != nil {
			return nil, err
		}
		for _, dv := range views {
			res = append(res, owned{view: dv, owner: nf})
		}
	}
	if len(res) == 0 {
		return nil, nil
	}

	sort.Slice(res, func(i, j int) bool {
		pi, oki := res[i].owner.peekFirst(tag, res[i].view, mode)
		pj, okj := res[j].owner.peekFirst(tag, res[j].view, mode)
		if !oki || !okj {
			return oki
		}
		if pi.Step != pj.Step {
			return pi.Step < pj.Step
		}
		return pi.WallTime < pj.WallTime
	})

	out := make([]view.DataView, len(res))
	for i, r := range res {
		out[i] = r.view
	}
	return out, nil
}

// UpdateSmoothingParam fans a cloned smoothing configuration out to every
// sub-file, matching File::UpdateSmoothingParam's per-file Clone().
// smooth.Param is a value type here, so passing it to each sub-file is
// already an independent copy — no explicit clone step is needed.
func (v *VirtualFile) UpdateSmoothingParam(tag string, param smooth.Param, resolve resolveFunc) {
	v.mu.RLock()
	subFiles := make([]string, 0, len(v.subFiles))
	for p := range v.subFiles {
		subFiles = append(subFiles, p)
	}
	v.mu.RUnlock()
	for _, path := range subFiles {
		nf, ok := resolve(path)
		if !ok {
			continue
		}
		nf.UpdateSmoothingParam(tag, param)
	}
}
