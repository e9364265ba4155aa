package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/scalarviz/internal/point"
	"github.com/standardbeagle/scalarviz/internal/smooth"
	"github.com/standardbeagle/scalarviz/internal/wireformat"
)

func pts(steps ...int64) []point.ScalarPoint {
	out := make([]point.ScalarPoint, len(steps))
	for i, s := range steps {
		out[i] = point.New(s, float32(s), float64(s))
	}
	return out
}

func TestNormalFile_UpdateDataAndGetData(t *testing.T) {
	f := NewNormalFile("run.tfevents", wireformat.FormatTFEvent)
	f.UpdateData("loss", pts(1, 2, 3, 5, 8))

	assert.True(t, f.ContainsData("loss"))
	assert.False(t, f.ContainsData("accuracy"))
	assert.ElementsMatch(t, []string{"loss"}, f.ContainsTag())

	views, err := f.GetData("loss", 2, 5, ModeNormal)
	require.NoError(t, err)
	require.Len(t, views, 1)
	materialized := f.Materialize("loss", views[0], ModeNormal)
	require.Len(t, materialized, 3) // steps 2,3,5
	assert.Equal(t, int64(2), materialized[0].Step)
	assert.Equal(t, int64(5), materialized[2].Step)
}

func TestNormalFile_GetData_UnknownTag(t *testing.T) {
	f := NewNormalFile("run.tfevents", wireformat.FormatTFEvent)
	views, err := f.GetData("missing", 0, 100, ModeNormal)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestNormalFile_GetData_OutOfRange(t *testing.T) {
	f := NewNormalFile("run.tfevents", wireformat.FormatTFEvent)
	f.UpdateData("loss", pts(10, 20, 30))

	views, err := f.GetData("loss", 100, 200, ModeNormal)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestNormalFile_UpdateRangeExtendsRightKeepsLeft(t *testing.T) {
	f := NewNormalFile("run.tfevents", wireformat.FormatTFEvent)
	f.UpdateData("loss", pts(5, 10))
	lo, hi, ok := f.GetIntersectionRange("loss", 0, 1000)
	require.True(t, ok)
	assert.Equal(t, uint64(5), lo)
	assert.Equal(t, uint64(10), hi)

	f.UpdateData("loss", pts(15, 20))
	lo, hi, ok = f.GetIntersectionRange("loss", 0, 1000)
	require.True(t, ok)
	assert.Equal(t, uint64(5), lo, "left bound must not move after first write")
	assert.Equal(t, uint64(20), hi)
}

func TestNormalFile_TokenCof(t *testing.T) {
	f := NewNormalFile("run.tfevents", wireformat.FormatTFEvent)
	assert.Equal(t, 1.0, f.GetTokenCof(), "unset params default to identity scale")

	f.UpdateTokenParam(16, 2048)
	assert.InDelta(t, 16*2048*0.001, f.GetTokenCof(), 1e-9)
}

func TestNormalFile_UpdateTokenParam_SkipsSeqLengthForTextLog(t *testing.T) {
	f := NewNormalFile("train.log", wireformat.FormatTextLog)
	f.UpdateTokenParam(16, 2048)
	// seqLength is not set for text logs; batch size alone keeps cof at identity.
	assert.Equal(t, 1.0, f.GetTokenCof())
}

func TestNormalFile_UpdateSmoothingParam_SamplesExistingData(t *testing.T) {
	f := NewNormalFile("run.tfevents", wireformat.FormatTFEvent)
	f.UpdateData("loss", pts(1, 2, 3))

	f.UpdateSmoothingParam("loss", smooth.Param{Algorithm: "smoothing", Weight: 0.5})

	views, err := f.GetData("loss", 0, 100, ModeSmoothing)
	require.NoError(t, err)
	require.Len(t, views, 1)
	out := f.Materialize("loss", views[0], ModeSmoothing)
	assert.Len(t, out, 3)
}

func TestNormalFile_UpdateSmoothingParam_NoOpWhenUnchanged(t *testing.T) {
	f := NewNormalFile("run.tfevents", wireformat.FormatTFEvent)
	f.UpdateData("loss", pts(1, 2, 3))

	p := smooth.Param{Algorithm: "smoothing", Weight: 0.5}
	f.UpdateSmoothingParam("loss", p)
	views1, _ := f.GetData("loss", 0, 100, ModeSmoothing)
	f.UpdateSmoothingParam("loss", p)
	views2, _ := f.GetData("loss", 0, 100, ModeSmoothing)

	assert.Equal(t, views1, views2)
}

func TestNormalFile_UpdateSmoothingParam_IncrementalSample(t *testing.T) {
	f := NewNormalFile("run.tfevents", wireformat.FormatTFEvent)
	f.UpdateData("loss", pts(1, 2))
	f.UpdateSmoothingParam("loss", smooth.Param{Algorithm: "smoothing", Weight: 0.5})

	f.UpdateData("loss", pts(3, 4))

	views, err := f.GetData("loss", 0, 100, ModeSmoothing)
	require.NoError(t, err)
	out := f.Materialize("loss", views[0], ModeSmoothing)
	assert.Len(t, out, 4, "smoother resamples only the newly appended tail")
}

func TestNormalFile_UpdateData_EmptyIsNoOp(t *testing.T) {
	f := NewNormalFile("run.tfevents", wireformat.FormatTFEvent)
	f.UpdateData("loss", nil)
	assert.False(t, f.ContainsData("loss"))
}
