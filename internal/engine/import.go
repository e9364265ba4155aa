package engine

import (
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	scverrors "github.com/standardbeagle/scalarviz/internal/errors"
	"github.com/standardbeagle/scalarviz/internal/schedule"
	"github.com/standardbeagle/scalarviz/internal/store"
	"github.com/standardbeagle/scalarviz/internal/wireformat"
)

// maxScanDepth bounds ImportFile's recursive directory scan (§4.9).
const maxScanDepth = 7

// ImportFile registers pathList (files or directories) for parsing and
// returns a generated project name the caller polls via GetParseState. A
// non-append import performs a full Reset first (§6's ImportFile shape).
func (e *Engine) ImportFile(pathList []string, appendImport bool) (string, error) {
	if !appendImport {
		e.Reset()
	}

	var files []string
	var errs []error
	for _, p := range pathList {
		found, err := e.scanPath(p, 0)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		files = append(files, found...)
		if e.watcher != nil {
			if info, statErr := os.Stat(p); statErr == nil && info.IsDir() {
				_ = e.watcher.AddDir(p)
			}
		}
	}

	project := e.nextProjectID()
	e.mu.Lock()
	e.projects[project] = &projectRecord{pathList: pathList}
	e.mu.Unlock()

	tasks := make([]schedule.ParseTask, 0, len(files))
	for _, path := range files {
		nf := e.registerFile(path)
		size := fileSize(path)
		tasks = append(tasks, schedule.ParseTask{
			Path: path,
			Size: size,
			Run:  func() (uint64, error) { return e.runParse(nf) },
		})
		if e.watcher != nil {
			_ = e.watcher.Add([]string{path})
		}
	}

	e.pool.AddParseTask(project, files, tasks)
	if len(errs) > 0 {
		return project, scverrors.NewMultiError(errs)
	}
	return project, nil
}

// scanPath expands a single ImportFile path entry: a regular file is
// returned as-is, a directory is scanned recursively up to maxScanDepth,
// skipping entries that fail to read. A format-unknown file is skipped
// silently (§7: unsupported paths are logged and skipped at import, not
// rejected).
func (e *Engine) scanPath(path string, depth int) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, scverrors.NewPathError("import-file", path, err)
	}
	if !info.IsDir() {
		if wireformat.DetectFormat(path) == wireformat.FormatUnknown {
			return nil, nil
		}
		return []string{path}, nil
	}
	if depth >= maxScanDepth {
		return nil, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, scverrors.NewPathError("import-file", path, err)
	}
	var out []string
	for _, entry := range entries {
		full := filepath.Join(path, entry.Name())
		if e.cfg.Watch.ExcludeGlobs != nil && matchesAny(e.cfg.Watch.ExcludeGlobs, full) {
			continue
		}
		if entry.IsDir() {
			sub, err := e.scanPath(full, depth+1)
			if err != nil {
				continue // unreadable subdirectory: skip, don't fail the whole import
			}
			out = append(out, sub...)
			continue
		}
		if wireformat.DetectFormat(full) == wireformat.FormatUnknown {
			continue
		}
		out = append(out, full)
	}
	return out, nil
}

func matchesAny(globs []string, path string) bool {
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, path); ok {
			return true
		}
	}
	return false
}

func (e *Engine) registerFile(path string) *store.NormalFile {
	format := wireformat.DetectFormat(path)
	nf := e.store.AddFile(path, format)
	nf.SetImported(true)
	return nf
}

func fileSize(path string) uint64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return uint64(info.Size())
}
