package smooth

import "github.com/standardbeagle/scalarviz/internal/point"

// WindowMedian is the "windowMedian" smoother: a sliding-window median
// with raw passthrough for the first windowSize-1 points, grounded on
// original_source's WindowMedianSmoother.
type WindowMedian struct {
	windowSize uint64
	even       bool
	numAccum   uint64
	window     slidingWindow
}

func (s *WindowMedian) Algorithm() string { return "windowMedian" }

func (s *WindowMedian) SetParam(p Param) {
	if p.WindowSize != s.windowSize {
		s.Reset()
		s.windowSize = p.WindowSize
		s.even = s.windowSize%2 == 0
	}
}

func (s *WindowMedian) Reset() {
	s.numAccum = 0
	s.window.reset()
}

func (s *WindowMedian) Equal(other Smoother) bool {
	o, ok := other.(*WindowMedian)
	if !ok {
		return false
	}
	return o.windowSize == s.windowSize
}

// Sample processes src[numAccum:]. windowSize==0 disables smoothing
// (raw passthrough), matching §4.2.
func (s *WindowMedian) Sample(src []point.ScalarPoint) []point.ScalarPoint {
	if uint64(len(src)) <= s.numAccum {
		return nil
	}
	dst := make([]point.ScalarPoint, 0, uint64(len(src))-s.numAccum)
	for i := s.numAccum; i < uint64(len(src)); i++ {
		origin := src[i]
		if s.windowSize == 0 {
			dst = append(dst, origin)
			s.numAccum++
			continue
		}
		if uint64(s.window.len()) < s.windowSize-1 {
			dst = append(dst, origin)
			s.window.insert(origin)
			s.numAccum++
			continue
		}
		s.numAccum++
		if uint64(s.window.len()) == s.windowSize {
			s.window.evictOldest()
		}
		s.window.insert(origin)

		result := origin
		mid := s.windowSize / 2
		if s.even {
			result.Value = (s.window.valueAt(int(mid)) + s.window.valueAt(int(mid)-1)) / 2.0
		} else {
			result.Value = s.window.valueAt(int(mid))
		}
		dst = append(dst, result)
	}
	return dst
}
