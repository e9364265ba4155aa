package schedule

import "sync"

// ParseTask is one file's worth of parse work submitted to the pool. Run
// parses from the file's current offset and returns the offset to resume
// from next time; the scheduler never interprets the offset itself, only
// sums it for progress reporting.
type ParseTask struct {
	Path string
	Size uint64
	Run  func() (newOffset uint64, err error)
}

// Snapshot is the externally visible state of one project's parse run
// (§4.6, §3's ParseState / §4.9's GetParseState).
type Snapshot struct {
	ProjectName string
	PathList    []string
	Percent     uint32
	Finished    bool
	Errors      map[string]error
}

// ParseState tracks one project's in-flight parse run: the set of
// submitted files, their accumulated offsets, and per-file errors. The
// engine retains one ParseState per project name for the run's lifetime
// (§3.1), dropping it lazily on first post-completion query.
type ParseState struct {
	ProjectName string
	PathList    []string

	mu         sync.Mutex
	totalBytes uint64
	pending    int
	offsets    map[string]uint64
	errs       map[string]error
}

func newParseState(project string, pathList []string, tasks []ParseTask) *ParseState {
	var total uint64
	for _, t := range tasks {
		total += t.Size
	}
	return &ParseState{
		ProjectName: project,
		PathList:    pathList,
		totalBytes:  total,
		pending:     len(tasks),
		offsets:     make(map[string]uint64, len(tasks)),
		errs:        make(map[string]error),
	}
}

// record is called once per task completion (success or failure).
func (s *ParseState) record(path string, offset uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offsets[path] = offset
	if err != nil {
		s.errs[path] = err
	}
	if s.pending > 0 {
		s.pending--
	}
}

// Snapshot returns the current percent/finished/error view. percent is
// min(100, floor(sum(offsets) / total_bytes * 100)); a zero total_bytes
// (all files empty) reports 100% immediately once every task completes.
func (s *ParseState) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sumOffsets uint64
	for _, o := range s.offsets {
		sumOffsets += o
	}

	var percent uint32
	switch {
	case s.totalBytes == 0:
		if s.pending == 0 {
			percent = 100
		}
	default:
		p := sumOffsets * 100 / s.totalBytes
		if p > 100 {
			p = 100
		}
		percent = uint32(p)
	}

	errsCopy := make(map[string]error, len(s.errs))
	for k, v := range s.errs {
		errsCopy[k] = v
	}

	return Snapshot{
		ProjectName: s.ProjectName,
		PathList:    s.PathList,
		Percent:     percent,
		Finished:    s.pending == 0,
		Errors:      errsCopy,
	}
}
