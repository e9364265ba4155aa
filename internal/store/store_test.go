package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/scalarviz/internal/smooth"
	"github.com/standardbeagle/scalarviz/internal/wireformat"
)

func TestFileStore_AddAndGetFile(t *testing.T) {
	s := New()
	f := s.AddFile("run.tfevents", wireformat.FormatTFEvent)
	require.NotNil(t, f)

	same := s.AddFile("run.tfevents", wireformat.FormatTFEvent)
	assert.Same(t, f, same, "AddFile is idempotent per path")

	got, ok := s.GetFile("run.tfevents")
	require.True(t, ok)
	assert.Equal(t, KindNormal, got.Kind())
}

func TestFileStore_UpdateDataAndGetData(t *testing.T) {
	s := New()
	s.AddFile("run.tfevents", wireformat.FormatTFEvent)

	require.NoError(t, s.UpdateData("run.tfevents", "loss", pts(1, 2, 3)))
	views, err := s.GetData("run.tfevents", "loss", 0, 100, ModeNormal)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, int64(3), s.ApproxResidentPoints())
}

func TestFileStore_UpdateData_UnknownFile(t *testing.T) {
	s := New()
	err := s.UpdateData("missing.tfevents", "loss", pts(1))
	assert.Error(t, err)
}

func TestFileStore_VirtualFile_MergeAndQuery(t *testing.T) {
	s := New()
	s.AddFile("a.tfevents", wireformat.FormatTFEvent)
	s.AddFile("b.tfevents", wireformat.FormatTFEvent)
	require.NoError(t, s.UpdateData("a.tfevents", "loss", pts(1, 2)))
	require.NoError(t, s.UpdateData("b.tfevents", "loss", pts(3, 4)))

	v := s.CreateVirtualFile("merged", []string{"a.tfevents", "b.tfevents"})
	require.NotNil(t, v)

	views, err := s.GetData("merged", "loss", 0, 100, ModeNormal)
	require.NoError(t, err)
	assert.Len(t, views, 2)

	s.DeleteVirtualFile("merged")
	_, ok := s.GetFile("merged")
	assert.False(t, ok)

	_, ok = s.GetFile("a.tfevents")
	assert.True(t, ok, "unmerge does not remove sub-files")
}

func TestFileStore_UpdateSmoothingParam_DispatchesByKind(t *testing.T) {
	s := New()
	s.AddFile("a.tfevents", wireformat.FormatTFEvent)
	require.NoError(t, s.UpdateData("a.tfevents", "loss", pts(1, 2, 3)))
	s.CreateVirtualFile("merged", []string{"a.tfevents"})

	require.NoError(t, s.UpdateSmoothingParam("merged", "loss", smooth.Param{Algorithm: "smoothing", Weight: 0.5}))

	views, err := s.GetData("a.tfevents", "loss", 0, 100, ModeSmoothing)
	require.NoError(t, err)
	assert.Len(t, views, 1, "virtual file's smoothing param fans out to sub-files")
}

func TestFileStore_KnownTags(t *testing.T) {
	s := New()
	s.AddFile("a.tfevents", wireformat.FormatTFEvent)
	require.NoError(t, s.UpdateData("a.tfevents", "loss", pts(1)))
	require.NoError(t, s.UpdateData("a.tfevents", "accuracy", pts(1)))

	assert.ElementsMatch(t, []string{"loss", "accuracy"}, s.KnownTags())
}

func TestFileStore_DeleteFile(t *testing.T) {
	s := New()
	s.AddFile("a.tfevents", wireformat.FormatTFEvent)
	s.DeleteFile("a.tfevents")
	_, ok := s.GetFile("a.tfevents")
	assert.False(t, ok)
}
