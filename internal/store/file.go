package store

import (
	"math"
	"sort"
	"sync"

	"github.com/standardbeagle/scalarviz/internal/point"
	"github.com/standardbeagle/scalarviz/internal/smooth"
	"github.com/standardbeagle/scalarviz/internal/view"
	"github.com/standardbeagle/scalarviz/internal/wireformat"
)

// FileKind distinguishes a NormalFile (backed by real records) from a
// VirtualFile (a fan-out merge over other files).
type FileKind int

const (
	KindNormal FileKind = iota
	KindVirtual
)

// DataMode selects how GetData interprets left/right and which record set
// (raw or smoothed) it reads from (§4.8's per-line operator order).
type DataMode int

const (
	ModeNormal DataMode = iota
	ModeSmoothing
	ModeToken
	ModeTokenNormal
	ModeTokenSmoothing
)

// File is the capability set shared by NormalFile and VirtualFile, enough
// for the graph/query layers to treat both uniformly.
type File interface {
	Path() string
	Kind() FileKind
	ContainsTag() []string
	HasTag(tag string) bool
}

const tokenCofScale = 0.001

// NormalFile holds the decoded record history for one watched file: a
// per-tag point slice, a per-tag smoothing cache, a per-tag step range, and
// the smoother configured for each tag. Grounded on
// original_source/.../FileManager/File.{h,cpp}.
//
// Locking follows the original's two-mutex split: dataMu covers
// data/smoothingData/range/tags together (they are updated together on
// every write), smootherMu covers the smoother map alone. Whenever both
// are needed, the order is smootherMu-then-dataMu and never the reverse,
// which rules out deadlock; UpdateData instead takes dataMu alone to
// append and snapshot the tag's current point slice, releases it, then
// locks smootherMu to resample from that snapshot. The original's
// UpdateData reads data_.at(tag) under smootherMutex_ alone with no lock
// on dataMutex_ at all, a real race against a concurrent writer; the
// snapshot-then-release here closes it without changing the observable
// two-step structure.
type NormalFile struct {
	path string

	dataMu        sync.RWMutex
	data          map[string][]point.ScalarPoint
	smoothingData map[string][]point.ScalarPoint
	rangeLo       map[string]uint64
	rangeHi       map[string]uint64
	tags          map[string]struct{}

	dataType wireformat.Format
	offset   uint64
	empty    bool
	imported bool

	globalBatchSize float64
	seqLength       float64

	smootherMu sync.Mutex
	smoother   map[string]smooth.Smoother
}

// NewNormalFile builds an empty NormalFile for path.
func NewNormalFile(path string, dataType wireformat.Format) *NormalFile {
	return &NormalFile{
		path:            path,
		data:            make(map[string][]point.ScalarPoint),
		smoothingData:   make(map[string][]point.ScalarPoint),
		rangeLo:         make(map[string]uint64),
		rangeHi:         make(map[string]uint64),
		tags:            make(map[string]struct{}),
		dataType:        dataType,
		globalBatchSize: -1,
		seqLength:       -1,
		smoother:        make(map[string]smooth.Smoother),
	}
}

func (f *NormalFile) Path() string   { return f.path }
func (f *NormalFile) Kind() FileKind { return KindNormal }

func (f *NormalFile) DataType() wireformat.Format     { return f.dataType }
func (f *NormalFile) SetDataType(t wireformat.Format) { f.dataType = t }

func (f *NormalFile) Offset() uint64     { return f.offset }
func (f *NormalFile) SetOffset(o uint64) { f.offset = o }

func (f *NormalFile) Empty() bool     { return f.empty }
func (f *NormalFile) SetEmpty(e bool) { f.empty = e }

func (f *NormalFile) Imported() bool     { return f.imported }
func (f *NormalFile) SetImported(v bool) { f.imported = v }

// ContainsTag returns every tag this file has ever written data for.
func (f *NormalFile) ContainsTag() []string {
	f.dataMu.RLock()
	defer f.dataMu.RUnlock()
	out := make([]string, 0, len(f.tags))
	for t := range f.tags {
		out = append(out, t)
	}
	return out
}

// HasTag reports whether this file has ever written data for tag.
func (f *NormalFile) HasTag(tag string) bool {
	f.dataMu.RLock()
	defer f.dataMu.RUnlock()
	_, ok := f.tags[tag]
	return ok
}

// ContainsData reports whether tag currently has any raw records.
func (f *NormalFile) ContainsData(tag string) bool {
	f.dataMu.RLock()
	defer f.dataMu.RUnlock()
	_, ok := f.data[tag]
	return ok
}

// UpdateTokenParam sets globalBatchSize unconditionally when positive, and
// seqLength only for non-text-log files: a text log's sequence length is
// sniffed from the file's own content (DetectGlobalBatchSize's sibling),
// not imposed externally, matching File::UpdateTokenParam.
func (f *NormalFile) UpdateTokenParam(globalBatchSize, seqLength float64) {
	f.dataMu.Lock()
	defer f.dataMu.Unlock()
	if globalBatchSize > 0 {
		f.globalBatchSize = globalBatchSize
	}
	if seqLength > 0 && f.dataType != wireformat.FormatTextLog {
		f.seqLength = seqLength
	}
}

// GetTokenCof returns the step-to-token scale factor, or 1.0 (identity)
// until both globalBatchSize and seqLength have been set.
func (f *NormalFile) GetTokenCof() float64 {
	f.dataMu.RLock()
	defer f.dataMu.RUnlock()
	if f.globalBatchSize < 0 || f.seqLength < 0 {
		return 1.0
	}
	return f.globalBatchSize * f.seqLength * tokenCofScale
}

// UpdateData appends newly decoded points to tag, extends the tracked
// range, and resamples any configured smoother. A no-op for an empty
// points slice.
func (f *NormalFile) UpdateData(tag string, points []point.ScalarPoint) {
	if len(points) == 0 {
		return
	}
	f.dataMu.Lock()
	f.tags[tag] = struct{}{}
	f.updateRangeLocked(tag, points)
	f.data[tag] = append(f.data[tag], points...)
	snapshot := f.data[tag] // same backing array; smoother reads it below under smootherMu only
	f.dataMu.Unlock()

	f.smootherMu.Lock()
	defer f.smootherMu.Unlock()
	sm, ok := f.smoother[tag]
	if !ok {
		return
	}
	produced := sm.Sample(snapshot)
	if len(produced) == 0 {
		return
	}
	f.dataMu.Lock()
	f.smoothingData[tag] = append(f.smoothingData[tag], produced...)
	f.dataMu.Unlock()
}

// updateRangeLocked extends the tracked range for tag: the lower bound is
// fixed at its first-ever value, the upper bound tracks the latest write.
// Caller must hold dataMu.
func (f *NormalFile) updateRangeLocked(tag string, newPoints []point.ScalarPoint) {
	newLo := uint64(newPoints[0].Step)
	newHi := uint64(newPoints[len(newPoints)-1].Step)
	if _, ok := f.rangeLo[tag]; !ok {
		f.rangeLo[tag] = newLo
		f.rangeHi[tag] = newHi
		return
	}
	f.rangeHi[tag] = newHi
}

// UpdateSmoothingParam (re)configures tag's smoother. An unconfigured tag
// adopts param and samples from scratch; an unchanged param is a no-op; a
// changed param resets and resamples every existing point.
func (f *NormalFile) UpdateSmoothingParam(tag string, param smooth.Param) {
	f.smootherMu.Lock()
	defer f.smootherMu.Unlock()

	existing, ok := f.smoother[tag]
	next := smooth.New(param.Algorithm)
	if next == nil {
		return
	}
	next.SetParam(param)

	if ok && existing.Equal(next) {
		return
	}
	f.smoother[tag] = next

	f.dataMu.Lock()
	src := f.data[tag]
	f.smoothingData[tag] = nil
	f.dataMu.Unlock()

	if len(src) == 0 {
		return
	}
	produced := next.Sample(src)
	f.dataMu.Lock()
	f.smoothingData[tag] = append(f.smoothingData[tag], produced...)
	f.dataMu.Unlock()
}

// GetIntersectionRange clips [left,right] to tag's tracked range, or
// reports no overlap.
func (f *NormalFile) GetIntersectionRange(tag string, left, right uint64) (lo, hi uint64, ok bool) {
	f.dataMu.RLock()
	defer f.dataMu.RUnlock()
	curLo, exists := f.rangeLo[tag]
	if !exists {
		return 0, 0, false
	}
	curHi := f.rangeHi[tag]
	if left > curHi || right < curLo {
		return 0, 0, false
	}
	if left < curLo {
		left = curLo
	}
	if right > curHi {
		right = curHi
	}
	return left, right, true
}

// GetData resolves tag/left/right/mode into a single DataView over this
// file's record array. Token modes rescale the requested window by
// GetTokenCof before looking up the boundary.
func (f *NormalFile) GetData(tag string, left, right uint64, mode DataMode) ([]view.DataView, error) {
	if !f.ContainsData(tag) {
		return nil, nil
	}

	if mode == ModeTokenNormal || mode == ModeTokenSmoothing {
		cof := f.GetTokenCof()
		left = uint64(math.Floor(float64(left) / cof))
		right = uint64(math.Ceil(float64(right) / cof))
	}

	lo, hi, ok := f.GetIntersectionRange(tag, left, right)
	if !ok {
		return nil, nil
	}

	switch mode {
	case ModeTokenSmoothing, ModeSmoothing:
		return f.getSmoothingView(tag, lo, hi)
	default: // ModeToken, ModeTokenNormal, ModeNormal
		return f.getNormalView(tag, lo, hi)
	}
}

func (f *NormalFile) getNormalView(tag string, lo, hi uint64) ([]view.DataView, error) {
	f.dataMu.RLock()
	defer f.dataMu.RUnlock()
	data := f.data[tag]
	lower, upper := getBoundary(data, lo, hi)
	if lower > upper {
		return nil, nil
	}
	return []view.DataView{view.NewContinuous(f.path, lower, upper)}, nil
}

func (f *NormalFile) getSmoothingView(tag string, lo, hi uint64) ([]view.DataView, error) {
	f.dataMu.RLock()
	defer f.dataMu.RUnlock()
	data := f.smoothingData[tag]
	if len(data) == 0 {
		return nil, nil
	}
	lower, upper := getBoundary(data, lo, hi)
	if lower > upper {
		return nil, nil
	}
	return []view.DataView{view.NewContinuous(f.path, lower, upper)}, nil
}

// Materialize copies out the points a DataView over this file's (tag)
// array selects. mode picks the raw or smoothed backing slice, matching
// whichever GetData call produced the view.
func (f *NormalFile) Materialize(tag string, v view.DataView, mode DataMode) []point.ScalarPoint {
	f.dataMu.RLock()
	defer f.dataMu.RUnlock()
	var backing []point.ScalarPoint
	switch mode {
	case ModeTokenSmoothing, ModeSmoothing:
		backing = f.smoothingData[tag]
	default:
		backing = f.data[tag]
	}
	return v.Materialize(backing)
}

// peekFirst returns the first point v selects, used by VirtualFile.GetData
// to sort merged views without materializing them in full.
func (f *NormalFile) peekFirst(tag string, v view.DataView, mode DataMode) (point.ScalarPoint, bool) {
	if v.IsEmpty() {
		return point.ScalarPoint{}, false
	}
	f.dataMu.RLock()
	defer f.dataMu.RUnlock()
	var backing []point.ScalarPoint
	switch mode {
	case ModeTokenSmoothing, ModeSmoothing:
		backing = f.smoothingData[tag]
	default:
		backing = f.data[tag]
	}
	idx := v.Lower
	if v.Kind == view.Discrete {
		if len(v.Indices) == 0 {
			return point.ScalarPoint{}, false
		}
		idx = v.Indices[0]
	}
	if idx < 0 || idx >= len(backing) {
		return point.ScalarPoint{}, false
	}
	return backing[idx], true
}

// getBoundary returns the inclusive [lower,upper] index range within data
// (sorted ascending by Step) covering steps in [left,right]. An empty
// selection is returned as lower > upper.
func getBoundary(data []point.ScalarPoint, left, right uint64) (lower, upper int) {
	lower = sort.Search(len(data), func(i int) bool {
		return uint64(data[i].Step) >= left
	})
	upperBound := sort.Search(len(data), func(i int) bool {
		return uint64(data[i].Step) > right
	})
	return lower, upperBound - 1
}
