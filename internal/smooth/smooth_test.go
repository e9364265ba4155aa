package smooth

import (
	"testing"

	"github.com/standardbeagle/scalarviz/internal/point"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pts(values ...float32) []point.ScalarPoint {
	out := make([]point.ScalarPoint, len(values))
	for i, v := range values {
		out[i] = point.New(int64(i), v, float64(i))
	}
	return out
}

func TestExponentialDebias(t *testing.T) {
	s := New("smoothing")
	require.NotNil(t, s)
	s.SetParam(Param{Algorithm: "smoothing", Weight: 0.5})
	out := s.Sample(pts(0.2, 0.15, 0.10))
	require.Len(t, out, 3)
	assert.InDelta(t, 0.2, out[0].Value, 0.001)
	assert.InDelta(t, 0.175, out[1].Value, 0.001)
	assert.InDelta(t, 0.1357, out[2].Value, 0.001)
}

func TestExponentialWeightZeroDisables(t *testing.T) {
	s := New("smoothing")
	s.SetParam(Param{Algorithm: "smoothing", Weight: 0})
	out := s.Sample(pts(1, 2, 3))
	assert.Nil(t, out)
}

func TestExponentialReconfigureResets(t *testing.T) {
	s := New("smoothing")
	s.SetParam(Param{Algorithm: "smoothing", Weight: 0.5})
	out := s.Sample(pts(0.2, 0.15, 0.10))
	require.Len(t, out, 3)
	s.SetParam(Param{Algorithm: "smoothing", Weight: 0.9})
	out2 := s.Sample(pts(0.2, 0.15, 0.10))
	require.Len(t, out2, 3)
	assert.NotEqual(t, out[2].Value, out2[2].Value)
}

func TestWindowMedianScenario(t *testing.T) {
	s := New("windowMedian")
	s.SetParam(Param{Algorithm: "windowMedian", WindowSize: 3})
	out := s.Sample(pts(1, 3, 2, 5, 4))
	require.Len(t, out, 5)
	got := make([]float32, len(out))
	for i, p := range out {
		got[i] = p.Value
	}
	assert.Equal(t, []float32{1, 3, 2, 3, 4}, got)
}

func TestWindowMedianZeroDisables(t *testing.T) {
	s := New("windowMedian")
	s.SetParam(Param{Algorithm: "windowMedian", WindowSize: 0})
	out := s.Sample(pts(1, 2, 3))
	require.Len(t, out, 3)
	assert.Equal(t, float32(1), out[0].Value)
}

func TestWindowTopXMean(t *testing.T) {
	s := New("windowTopx")
	s.SetParam(Param{Algorithm: "windowTopx", WindowSize: 4, Top: 0.5})
	out := s.Sample(pts(4, 3, 2, 1, 5))
	require.Len(t, out, 5)
	// first windowSize-1=3 points pass through raw
	assert.Equal(t, float32(4), out[0].Value)
	assert.Equal(t, float32(3), out[1].Value)
	assert.Equal(t, float32(2), out[2].Value)
}

func TestFactoryUnknownAlgorithm(t *testing.T) {
	assert.Nil(t, New("bogus"))
}
