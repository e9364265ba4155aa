package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/scalarviz/internal/point"
	"github.com/standardbeagle/scalarviz/internal/smooth"
	"github.com/standardbeagle/scalarviz/internal/store"
	"github.com/standardbeagle/scalarviz/internal/wireformat"
)

func newTestStore(t *testing.T, path string) *store.FileStore {
	t.Helper()
	s := store.New()
	s.AddFile(path, wireformat.FormatTFEvent)
	return s
}

func TestGraph_UpdateDataAndGetFileData(t *testing.T) {
	s := newTestStore(t, "a.tfevents")
	g := newGraph("loss")

	require.NoError(t, g.UpdateData(s, "a.tfevents", []point.ScalarPoint{
		point.New(1, 0.5, 100),
		point.New(2, 0.4, 101),
	}))

	assert.True(t, g.ContainsFile("a.tfevents"))
	views, err := g.GetFileData(s, "a.tfevents", 0, 10, store.ModeNormal)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, 2, views[0].Length())
}

func TestGraph_GetFileData_UnknownFileReturnsNil(t *testing.T) {
	s := newTestStore(t, "a.tfevents")
	g := newGraph("loss")

	views, err := g.GetFileData(s, "unknown.tfevents", 0, 10, store.ModeNormal)
	require.NoError(t, err)
	assert.Nil(t, views)
}

func TestGraph_UpdateData_EmptyStillRegistersFile(t *testing.T) {
	s := newTestStore(t, "a.tfevents")
	g := newGraph("loss")

	require.NoError(t, g.UpdateData(s, "a.tfevents", nil))
	assert.True(t, g.ContainsFile("a.tfevents"))
}

func TestGraph_AddDelFile(t *testing.T) {
	g := newGraph("loss")
	g.AddFile("a.tfevents")
	assert.True(t, g.ContainsFile("a.tfevents"))
	g.DelFile("a.tfevents")
	assert.False(t, g.ContainsFile("a.tfevents"))
}

func TestGraph_UpdateSmoothingParam(t *testing.T) {
	s := newTestStore(t, "a.tfevents")
	g := newGraph("loss")
	require.NoError(t, g.UpdateData(s, "a.tfevents", []point.ScalarPoint{point.New(1, 1, 1)}))

	err := g.UpdateSmoothingParam(s, "a.tfevents", smooth.Param{Algorithm: "exponential", Weight: 0.9})
	require.NoError(t, err)
}

func TestIndex_UpdateGraph_CreatesOnFirstTouch(t *testing.T) {
	s := newTestStore(t, "a.tfevents")
	ix := New()

	require.NoError(t, ix.UpdateGraph(s, "loss", "a.tfevents", []point.ScalarPoint{point.New(1, 1, 1)}))
	g, ok := ix.GetGraph("loss")
	require.True(t, ok)
	assert.True(t, g.ContainsFile("a.tfevents"))
}

func TestIndex_IsIncremental(t *testing.T) {
	s := newTestStore(t, "a.tfevents")
	ix := New()

	assert.True(t, ix.IsIncremental("loss", "a.tfevents"), "unknown graph is incremental")
	require.NoError(t, ix.UpdateGraph(s, "loss", "a.tfevents", []point.ScalarPoint{point.New(1, 1, 1)}))
	assert.False(t, ix.IsIncremental("loss", "a.tfevents"), "already-seen pair is not incremental")
	assert.True(t, ix.IsIncremental("loss", "b.tfevents"), "new file under existing graph is incremental")
}

func TestIndex_DrainIncremental(t *testing.T) {
	s := newTestStore(t, "a.tfevents")
	ix := New()
	require.NoError(t, ix.UpdateGraph(s, "loss", "a.tfevents", []point.ScalarPoint{point.New(1, 1, 1)}))
	require.NoError(t, ix.UpdateGraph(s, "accuracy", "a.tfevents", []point.ScalarPoint{point.New(1, 1, 1)}))

	entries := ix.DrainIncremental(MaxIncrementalDrain)
	assert.Len(t, entries, 2)

	assert.Empty(t, ix.DrainIncremental(MaxIncrementalDrain), "drained entries are not returned twice")
}

func TestIndex_DrainIncremental_RespectsCap(t *testing.T) {
	s := newTestStore(t, "a.tfevents")
	ix := New()
	for i := 0; i < 5; i++ {
		tag := string(rune('a' + i))
		require.NoError(t, ix.UpdateGraph(s, tag, "a.tfevents", []point.ScalarPoint{point.New(1, 1, 1)}))
	}

	entries := ix.DrainIncremental(3)
	assert.Len(t, entries, 3)
	remaining := ix.DrainIncremental(MaxIncrementalDrain)
	assert.Len(t, remaining, 2)
}

func TestIndex_GetGraphData_UnknownTagReturnsNilNoError(t *testing.T) {
	ix := New()
	s := newTestStore(t, "a.tfevents")
	views, err := ix.GetGraphData(s, "missing", "a.tfevents", 0, 10, store.ModeNormal)
	require.NoError(t, err)
	assert.Nil(t, views)
}

func TestIndex_AllGraphInfo(t *testing.T) {
	s := newTestStore(t, "a.tfevents")
	ix := New()
	require.NoError(t, ix.UpdateGraph(s, "loss", "a.tfevents", []point.ScalarPoint{point.New(1, 1, 1)}))

	info := ix.AllGraphInfo()
	assert.ElementsMatch(t, []string{"a.tfevents"}, info["loss"])
}

func TestIndex_FileTags(t *testing.T) {
	s := newTestStore(t, "a.tfevents")
	ix := New()
	require.NoError(t, ix.UpdateGraph(s, "loss", "a.tfevents", []point.ScalarPoint{point.New(1, 1, 1)}))
	require.NoError(t, ix.UpdateGraph(s, "accuracy", "a.tfevents", []point.ScalarPoint{point.New(1, 1, 1)}))

	assert.ElementsMatch(t, []string{"loss", "accuracy"}, ix.FileTags("a.tfevents"))
}

func TestIndex_Reset(t *testing.T) {
	s := newTestStore(t, "a.tfevents")
	ix := New()
	require.NoError(t, ix.UpdateGraph(s, "loss", "a.tfevents", []point.ScalarPoint{point.New(1, 1, 1)}))
	ix.Reset()

	_, ok := ix.GetGraph("loss")
	assert.False(t, ok)
	assert.Empty(t, ix.DrainIncremental(MaxIncrementalDrain))
}

func TestIndex_AddFile_CreatesGraphIfMissing(t *testing.T) {
	ix := New()
	ix.AddFile("loss", "virtual-1")
	g, ok := ix.GetGraph("loss")
	require.True(t, ok)
	assert.True(t, g.ContainsFile("virtual-1"))
}

func TestIndex_DelFile_NoopOnUnknownGraph(t *testing.T) {
	ix := New()
	assert.NotPanics(t, func() { ix.DelFile("missing", "x") })
}
