package smooth

import "github.com/standardbeagle/scalarviz/internal/point"

// WindowTopX is the "windowTopx" smoother: the mean of the elemCount
// smallest values in a sliding window, grounded on original_source's
// WindowTopXSmoother. elemCount = max(1, floor(windowSize * top)).
type WindowTopX struct {
	windowSize uint64
	top        float64
	elemCount  uint64
	numAccum   uint64
	window     slidingWindow
}

func (s *WindowTopX) Algorithm() string { return "windowTopx" }

func (s *WindowTopX) SetParam(p Param) {
	if p.WindowSize == s.windowSize && p.Top == s.top {
		return
	}
	s.Reset()
	s.windowSize = p.WindowSize
	s.top = p.Top
	s.elemCount = uint64(float64(s.windowSize) * s.top)
	if s.elemCount == 0 {
		s.elemCount = 1
	}
}

func (s *WindowTopX) Reset() {
	s.numAccum = 0
	s.window.reset()
	s.elemCount = 0
}

func (s *WindowTopX) Equal(other Smoother) bool {
	o, ok := other.(*WindowTopX)
	if !ok {
		return false
	}
	return o.windowSize == s.windowSize && o.top == s.top
}

func (s *WindowTopX) Sample(src []point.ScalarPoint) []point.ScalarPoint {
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

		var sum float32
		n := s.elemCount
		if uint64(s.window.len()) < n {
			n = uint64(s.window.len())
		}
		for idx := uint64(0); idx < n; idx++ {
			sum += s.window.valueAt(int(idx))
		}
		result := origin
		result.Value = sum / float32(s.elemCount)
		dst = append(dst, result)
	}
	return dst
}
