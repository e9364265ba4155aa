// Package query implements the LineOp pipeline of §4.8: per-graph-query
// operator construction, the per-line Normal/Smoothing -> Sample -> Token
// operator order, truncate-then-append line materialisation, and the
// date-index builder.
//
// Grounded on original_source/Scalar/server/src/GraphLine/{GraphLine,
// LineOp/*}.{h,cpp}. The original's LineOp hierarchy dispatches through
// ScalarVisuallyServer::Instance(); per §9 that becomes the caller-supplied
// Deps value threaded through Process instead of a held reference.
package query

import (
	"github.com/standardbeagle/scalarviz/internal/graph"
	"github.com/standardbeagle/scalarviz/internal/point"
	"github.com/standardbeagle/scalarviz/internal/smooth"
	"github.com/standardbeagle/scalarviz/internal/store"
)

// LineType names which materialised line a GraphLine represents, matching
// GraphLine.h's LineType enum (values are not carried over; the original's
// priority-queue ordinal has no equivalent here since the operator order
// is fixed by RunQuery, not by sorting on this value).
type LineType int

const (
	Unknown LineType = iota
	Normal
	Sample
	Smoothing
	Token
	NormalSmoothing
	TokenSmoothing
)

func (t LineType) String() string {
	switch t {
	case Normal:
		return "normal"
	case Sample:
		return "sample"
	case Smoothing:
		return "smoothing"
	case Token:
		return "token"
	case NormalSmoothing:
		return "normalSmoothing"
	case TokenSmoothing:
		return "tokenSmoothing"
	default:
		return "unknown"
	}
}

// castType maps a wire-level graph_config "type" string to a LineType,
// returning Unknown for anything else (mirrors CastLineType).
func castType(s string) LineType {
	switch s {
	case "normal":
		return Normal
	case "sample":
		return Sample
	case "smoothing":
		return Smoothing
	case "token":
		return Token
	default:
		return Unknown
	}
}

// ConfigEntry is one entry of a GetScalarData request's graph_config list.
type ConfigEntry struct {
	Type      string
	Enable    bool
	Algorithm string
	Weight    float64
	Window    int
	Top       float64
}

// Deps is the set of collaborators a LineOp needs to do its work, passed
// explicitly at Process time per §9's no-back-pointer rule (replacing the
// original's ScalarVisuallyServer::Instance() lookups).
type Deps struct {
	Graph *graph.Index
	Store *store.FileStore
}

// LineOp is one stage of the per-line pipeline (NormalLineOp, SampleLineOp,
// SmoothingLineOp, TokenLineOp).
type LineOp interface {
	Valid() bool
	Process(line *Line, deps Deps) error
}

type basicInfo struct {
	tag, file   string
	left, right uint64
}

func (b *basicInfo) setBasicInfo(tag, file string, left, right uint64) {
	b.tag, b.file, b.left, b.right = tag, file, left, right
}

// NormalOp queries the store for tag/file's plain (or token-rescaled)
// data and populates the line's DataViews.
type NormalOp struct {
	basicInfo
	mode store.DataMode
}

func NewNormalOp(tag, file string, left, right uint64) *NormalOp {
	op := &NormalOp{mode: store.ModeNormal}
	op.setBasicInfo(tag, file, left, right)
	return op
}

func (op *NormalOp) Valid() bool { return op.file != "" }

func (op *NormalOp) Process(line *Line, deps Deps) error {
	views, err := deps.Graph.GetGraphData(deps.Store, op.tag, op.file, op.left, op.right, op.mode)
	if err != nil {
		return err
	}
	line.dataViews = views
	line.dataMode = op.mode
	line.view = true
	return nil
}

// SmoothingOp reconfigures tag/file's smoother from the request's
// algorithm/weight/window/top parameters, then queries the now-current
// smoothing data.
type SmoothingOp struct {
	basicInfo
	algorithm string
	param     smooth.Param
	mode      store.DataMode
}

func NewSmoothingOp(tag, file string, left, right uint64, entry ConfigEntry) *SmoothingOp {
	op := &SmoothingOp{
		algorithm: entry.Algorithm,
		mode:      store.ModeSmoothing,
		param: smooth.Param{
			Algorithm:  entry.Algorithm,
			Weight:     float32(entry.Weight),
			WindowSize: uint64(entry.Window),
			Top:        entry.Top,
		},
	}
	op.setBasicInfo(tag, file, left, right)
	return op
}

func (op *SmoothingOp) Valid() bool { return op.file != "" && op.algorithm != "" }

func (op *SmoothingOp) Process(line *Line, deps Deps) error {
	if err := deps.Graph.UpdateGraphSmoothingParam(deps.Store, op.tag, op.file, op.param); err != nil {
		return err
	}
	views, err := deps.Graph.GetGraphData(deps.Store, op.tag, op.file, op.left, op.right, op.mode)
	if err != nil {
		return err
	}
	line.dataViews = views
	line.dataMode = op.mode
	line.view = true
	return nil
}

// SetTokenMode rewrites a value-producing op's underlying DataMode to its
// token-rescaled variant, per step 1 of §4.8: "If token is present,
// rewrites the data-mode of normal/smoothing to their token variants."
func SetTokenMode(op LineOp) {
	switch v := op.(type) {
	case *NormalOp:
		v.mode = store.ModeTokenNormal
	case *SmoothingOp:
		v.mode = store.ModeTokenSmoothing
	}
}

// maxSampleCount is the sample stride divisor: the stride is
// total/maxSampleCount (at least 1), so a line of fewer than
// 2*maxSampleCount points is not thinned at all and a longer one keeps
// roughly between maxSampleCount and 2*maxSampleCount points (§4.8).
const maxSampleCount = 10001

// SampleOp strides the line's DataViews by total/maxSampleCount (at least
// 1), always keeping each view's first and last point.
type SampleOp struct {
	basicInfo
}

func NewSampleOp(tag, file string, left, right uint64) *SampleOp {
	op := &SampleOp{}
	op.setBasicInfo(tag, file, left, right)
	return op
}

func (op *SampleOp) Valid() bool { return true }

func (op *SampleOp) Process(line *Line, deps Deps) error {
	if len(line.dataViews) == 0 {
		return nil
	}
	var total int
	for _, v := range line.dataViews {
		total += v.Length()
	}
	stride := total / maxSampleCount
	if stride < 1 {
		stride = 1
	}
	for i, v := range line.dataViews {
		line.dataViews[i] = v.GatherStride(stride)
	}
	return nil
}

// TokenOp converts the line's still-unmaterialised views into concrete,
// step-rescaled points: each point is scaled by its own owning file's
// token coefficient (§4.8.1), not a single line-wide coefficient, since a
// VirtualFile's sub-files may carry independent global_batch_size/seq_length.
type TokenOp struct {
	basicInfo
}

func NewTokenOp(tag, file string, left, right uint64) *TokenOp {
	op := &TokenOp{}
	op.setBasicInfo(tag, file, left, right)
	return op
}

func (op *TokenOp) Valid() bool { return true }

func (op *TokenOp) Process(line *Line, deps Deps) error {
	if !line.view {
		return nil
	}
	line.view = false
	for _, v := range line.dataViews {
		points, err := deps.Store.Materialize(op.tag, v, line.dataMode)
		if err != nil {
			return err
		}
		if len(points) == 0 {
			continue
		}
		cof, ok := deps.Store.TokenCof(v.OwnerPath)
		if !ok || cof <= 0 {
			cof = 1.0
		}
		rescaled := make([]point.ScalarPoint, len(points))
		for i, p := range points {
			p.Step = int64(float64(p.Step) * cof)
			rescaled[i] = p
		}
		line.AddLineData(rescaled)
	}
	return nil
}
