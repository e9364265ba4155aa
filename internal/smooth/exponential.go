package smooth

import (
	"math"

	"github.com/standardbeagle/scalarviz/internal/point"
)

// Exponential is the debiased exponential moving average smoother
// ("smoothing" algorithm), grounded on original_source's IRLowSmoother.
type Exponential struct {
	weight    float32
	last      float32
	numAccum  uint32
}

func (s *Exponential) Algorithm() string { return "smoothing" }

func (s *Exponential) SetParam(p Param) {
	if p.Weight != s.weight {
		s.Reset()
		s.weight = p.Weight
	}
}

func (s *Exponential) Reset() {
	s.last = 0
	s.numAccum = 0
}

func (s *Exponential) Equal(other Smoother) bool {
	o, ok := other.(*Exponential)
	if !ok {
		return false
	}
	return o.weight == s.weight
}

// Sample processes src[numAccum:]. A weight of 0 disables smoothing
// entirely (no output is appended), matching the degenerate case in §4.2.
func (s *Exponential) Sample(src []point.ScalarPoint) []point.ScalarPoint {
	if uint32(len(src)) <= s.numAccum || s.weight == 0.0 {
		return nil
	}
	firstValue := src[0].Value
	isConstant := true
	for _, p := range src {
		if p.Value != firstValue {
			isConstant = false
			break
		}
	}

	dst := make([]point.ScalarPoint, 0, len(src)-int(s.numAccum))
	for i := int(s.numAccum); i < len(src); i++ {
		sampled := src[i]
		if isConstant || math.IsInf(float64(sampled.Value), 0) || math.IsNaN(float64(sampled.Value)) {
			// pass through unchanged, but still count it (§4.2)
			s.numAccum++
		} else {
			s.last = s.last*s.weight + (1-s.weight)*sampled.Value
			s.numAccum++
			debias := float32(1.0)
			if s.weight != 1.0 {
				debias -= float32(math.Pow(float64(s.weight), float64(s.numAccum)))
			}
			sampled.Value = s.last / debias
		}
		dst = append(dst, sampled)
	}
	return dst
}
