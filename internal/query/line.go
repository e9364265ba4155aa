package query

import (
	"sort"

	"github.com/standardbeagle/scalarviz/internal/point"
	"github.com/standardbeagle/scalarviz/internal/store"
	"github.com/standardbeagle/scalarviz/internal/view"
)

// Line is one materialised or view-mode output line (GraphLine.h's
// GraphLine). A freshly built Line starts in view mode (view=true,
// dataViews populated by its value-producing op); TokenOp or a final
// GetLineData call collapses it to concrete points.
type Line struct {
	Type LineType
	Tag  string
	File string

	view      bool
	dataMode  store.DataMode // which backing (raw/smoothed) dataViews was read from
	srcData   []point.ScalarPoint
	dataViews []view.DataView
}

// NewLine builds an empty line of the given type.
func NewLine(t LineType, tag, file string) *Line {
	return &Line{Type: t, Tag: tag, File: file, view: true}
}

// DataViews exposes the line's current views for in-place mutation by
// SampleOp (GatherStride), matching GraphLine::GetDataView's reference
// return.
func (l *Line) DataViews() []view.DataView { return l.dataViews }

// View reports whether the line is still in view mode (data not yet
// materialised into srcData).
func (l *Line) View() bool { return l.view }

// AddLineData appends points to the line, truncating any existing tail
// whose step is >= the new points' first step first (GraphLine::AddLineData:
// later-added data overrides earlier data on overlapping step ranges). A
// no-op while still in view mode, matching the original's `view_ ||
// points.empty()` guard — TokenOp and GetLineData clear view before
// calling this.
func (l *Line) AddLineData(points []point.ScalarPoint) {
	if l.view || len(points) == 0 {
		return
	}
	left := uint64(points[0].Step)
	cut := sort.Search(len(l.srcData), func(i int) bool {
		return uint64(l.srcData[i].Step) >= left
	})
	l.srcData = append(l.srcData[:cut], points...)
}

// GetLineData returns the line's materialised points, collapsing any
// remaining views first via deps.Store (non-Token lines never run TokenOp,
// so they reach GetLineData still in view mode).
func (l *Line) GetLineData(deps Deps) ([]point.ScalarPoint, error) {
	if !l.view {
		return l.srcData, nil
	}
	l.view = false
	for _, v := range l.dataViews {
		points, err := deps.Store.Materialize(l.Tag, v, l.dataMode)
		if err != nil {
			return nil, err
		}
		l.AddLineData(points)
	}
	return l.srcData, nil
}
