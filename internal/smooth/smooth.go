// Package smooth implements the three streaming smoothers of §4.2: an
// exponential debiased smoother, a windowed median, and a windowed
// top-x mean. All three share one narrow interface and a single
// keyed factory, per §9's "polymorphic smoothers" design note.
package smooth

import "github.com/standardbeagle/scalarviz/internal/point"

// Param is a tagged-variant parameter bag: Algorithm selects which fields
// are meaningful, avoiding the downcasting the original design warns
// against (§9).
type Param struct {
	Algorithm  string
	Weight     float32 // "smoothing"
	WindowSize uint64  // "windowMedian", "windowTopx"
	Top        float64 // "windowTopx", (0,1]
}

// Smoother is the narrow capability set every algorithm implements.
type Smoother interface {
	// SetParam adopts p if it differs from the current parameters,
	// resetting all state first; a no-op if parameters are unchanged.
	SetParam(p Param)
	// Sample extends dst by processing src[numAccum:] and advances
	// numAccum accordingly.
	Sample(src []point.ScalarPoint) []point.ScalarPoint
	// Equal compares algorithm identity and parameters.
	Equal(other Smoother) bool
	// Reset zeros all accumulated state.
	Reset()
	// Algorithm returns the smoother's algorithm id.
	Algorithm() string
}

// New builds a Smoother for the named algorithm, or nil if unknown.
func New(algorithm string) Smoother {
	switch algorithm {
	case "smoothing":
		return &Exponential{}
	case "windowMedian":
		return &WindowMedian{}
	case "windowTopx":
		return &WindowTopX{}
	default:
		return nil
	}
}
