// Package view implements DataView, a zero-copy window over a file's
// record array (§4.1). Views hold integer indices rather than pointers or
// iterators so that slice growth (append-only writers) never invalidates
// a view held by a concurrent reader, as long as the reader holds the
// owning file's read lock for the duration of materialisation.
package view

import "github.com/standardbeagle/scalarviz/internal/point"

// Kind distinguishes a contiguous window from a strided selection.
type Kind int

const (
	Continuous Kind = iota
	Discrete
)

// DataView is a window into a file's (tag) record slice.
type DataView struct {
	OwnerPath string
	Lower     int // inclusive
	Upper     int // inclusive
	Kind      Kind
	Indices   []int // valid only when Kind == Discrete, strictly increasing, within [Lower,Upper]
}

// NewContinuous builds a Continuous view over [lower, upper] inclusive.
func NewContinuous(owner string, lower, upper int) DataView {
	return DataView{OwnerPath: owner, Lower: lower, Upper: upper, Kind: Continuous}
}

// Empty builds a zero-length Continuous view.
func Empty(owner string) DataView {
	return DataView{OwnerPath: owner, Lower: 0, Upper: -1, Kind: Continuous}
}

// Length returns the number of points this view selects.
func (v DataView) Length() int {
	if v.Kind == Discrete {
		return len(v.Indices)
	}
	if v.Upper < v.Lower {
		return 0
	}
	return v.Upper - v.Lower + 1
}

// IsEmpty reports whether the view selects zero points.
func (v DataView) IsEmpty() bool {
	return v.Length() == 0
}

// Materialize copies the selected points out of the backing slice. The
// caller must hold an appropriate lock on the owning file for the
// duration of this call.
func (v DataView) Materialize(backing []point.ScalarPoint) []point.ScalarPoint {
	if v.Kind == Discrete {
		out := make([]point.ScalarPoint, 0, len(v.Indices))
		for _, idx := range v.Indices {
			out = append(out, backing[idx])
		}
		return out
	}
	if v.Upper < v.Lower {
		return nil
	}
	out := make([]point.ScalarPoint, v.Upper-v.Lower+1)
	copy(out, backing[v.Lower:v.Upper+1])
	return out
}

// GatherStride converts a Continuous view to Discrete by stride k >= 1:
// include Lower, Lower+k, ..., and always include Upper. A stride < 1 is
// clamped to 1. Reverse conversion (Discrete -> Continuous) is not
// supported, matching §4.1.
func (v DataView) GatherStride(k int) DataView {
	if v.Kind != Continuous {
		return v
	}
	if k < 1 {
		k = 1
	}
	out := DataView{OwnerPath: v.OwnerPath, Lower: v.Lower, Upper: v.Upper, Kind: Discrete}
	if v.Upper < v.Lower {
		return out
	}
	idx := v.Lower
	for idx <= v.Upper {
		out.Indices = append(out.Indices, idx)
		if v.Upper-idx < k {
			break
		}
		idx += k
	}
	if len(out.Indices) == 0 || out.Indices[len(out.Indices)-1] != v.Upper {
		out.Indices = append(out.Indices, v.Upper)
	}
	return out
}
