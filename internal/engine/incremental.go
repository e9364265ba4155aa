package engine

import (
	"path/filepath"

	"github.com/standardbeagle/scalarviz/internal/graph"
	"github.com/standardbeagle/scalarviz/internal/schedule"
)

// AddedFiles groups CreatedEntry rows by directory, matching §8 scenario
// 5's `{dir:D, fileList:[worker_0.log]}` response shape.
type AddedFiles struct {
	Dir      string
	FileList []string
}

// GetAddFiles drains the watcher's created-files log, grouped by
// directory (§4.9).
func (e *Engine) GetAddFiles() []AddedFiles {
	if e.watcher == nil {
		return nil
	}
	entries := e.watcher.DrainCreated()
	byDir := make(map[string][]string)
	var order []string
	for _, ent := range entries {
		if _, seen := byDir[ent.Dir]; !seen {
			order = append(order, ent.Dir)
		}
		byDir[ent.Dir] = append(byDir[ent.Dir], ent.Name)
	}
	out := make([]AddedFiles, 0, len(order))
	for _, dir := range order {
		out = append(out, AddedFiles{Dir: dir, FileList: byDir[dir]})
	}
	return out
}

// IncrementalTagGroup is one entry of GetIncrementalTag's response: a tag
// and every (name, path, dirs) file that newly started contributing to it
// since the last drain (§6).
type IncrementalTagGroup struct {
	Tag      string
	FileList []IncrementalFile
}

// IncrementalFile names one newly-contributing file, split into basename,
// full path, and its directory components for client-side tree building.
type IncrementalFile struct {
	Name string
	Path string
	Dirs []string
}

// GetIncrementalTag drains the tag/graph index's incremental log, grouped
// by tag (§4.9/§8's incremental-log-monotonicity property).
func (e *Engine) GetIncrementalTag() []IncrementalTagGroup {
	entries := e.graph.DrainIncremental(graph.MaxIncrementalDrain)
	byTag := make(map[string][]IncrementalFile)
	var order []string
	for _, ent := range entries {
		if _, seen := byTag[ent.Tag]; !seen {
			order = append(order, ent.Tag)
		}
		dir := filepath.Dir(ent.Path)
		byTag[ent.Tag] = append(byTag[ent.Tag], IncrementalFile{
			Name: filepath.Base(ent.Path),
			Path: ent.Path,
			Dirs: splitDirs(dir),
		})
	}
	out := make([]IncrementalTagGroup, 0, len(order))
	for _, tag := range order {
		out = append(out, IncrementalTagGroup{Tag: tag, FileList: byTag[tag]})
	}
	return out
}

func splitDirs(dir string) []string {
	if dir == "." || dir == "/" || dir == "" {
		return nil
	}
	var parts []string
	for {
		base := filepath.Base(dir)
		parent := filepath.Dir(dir)
		parts = append([]string{base}, parts...)
		if parent == dir || parent == "." || parent == "/" {
			break
		}
		dir = parent
	}
	return parts
}

// GetParseState returns (name, finished, percent) for every project in
// projectNames that the pool still tracks (§4.9). Unknown project names
// are silently omitted, matching GetAllGraph/GetScalarData's
// unknown-key-yields-nothing convention rather than erroring.
func (e *Engine) GetParseState(projectNames []string) []schedule.Snapshot {
	out := make([]schedule.Snapshot, 0, len(projectNames))
	for _, name := range projectNames {
		snap, ok := e.pool.GetParseState(name)
		if !ok {
			continue
		}
		out = append(out, snap)
	}
	return out
}
