package view

import (
	"testing"

	"github.com/standardbeagle/scalarviz/internal/point"
	"github.com/stretchr/testify/assert"
)

func backing(n int) []point.ScalarPoint {
	pts := make([]point.ScalarPoint, n)
	for i := range pts {
		pts[i] = point.New(int64(i), float32(i), float64(i))
	}
	return pts
}

func TestContinuousMaterialize(t *testing.T) {
	b := backing(10)
	v := NewContinuous("f", 2, 5)
	assert.Equal(t, 4, v.Length())
	pts := v.Materialize(b)
	assert.Len(t, pts, 4)
	assert.Equal(t, int64(2), pts[0].Step)
	assert.Equal(t, int64(5), pts[3].Step)
}

func TestEmptyView(t *testing.T) {
	v := Empty("f")
	assert.True(t, v.IsEmpty())
	assert.Nil(t, v.Materialize(backing(5)))
}

func TestGatherStrideIncludesBounds(t *testing.T) {
	v := NewContinuous("f", 0, 9)
	d := v.GatherStride(3)
	assert.Equal(t, Discrete, d.Kind)
	assert.Equal(t, []int{0, 3, 6, 9}, d.Indices)
}

func TestGatherStrideClampsToOne(t *testing.T) {
	v := NewContinuous("f", 0, 3)
	d := v.GatherStride(0)
	assert.Equal(t, []int{0, 1, 2, 3}, d.Indices)
}
