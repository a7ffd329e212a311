package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestImportLogLifecycle(t *testing.T) {
	s := newTestStore(t)

	last, err := s.LastImport()
	require.NoError(t, err)
	assert.Nil(t, last)

	id, err := s.CreateImportLog("sales.xlsx", 2048, "abc123")
	require.NoError(t, err)

	it, err := s.GetImportLog(id)
	require.NoError(t, err)
	assert.Equal(t, ImportStatusProcessing, it.Status)
	assert.Nil(t, it.CompletedAt)

	require.NoError(t, s.FinishImportLog(id, ImportOutcome{
		SheetName:    "RAW data",
		Format:       "xlsx",
		DateMode:     "serial",
		TotalRows:    100,
		WorkingRows:  95,
		DateFailures: 2,
		OutOfRange:   3,
	}))

	last, err = s.LastImport()
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, id, last.ID)
	assert.Equal(t, ImportStatusSuccess, last.Status)
	assert.Equal(t, 95, last.WorkingRows)
	assert.Equal(t, "serial", last.DateMode)
	assert.False(t, last.Cached)
	assert.NotNil(t, last.CompletedAt)
}

func TestFailedImportNotLast(t *testing.T) {
	s := newTestStore(t)

	ok, err := s.CreateImportLog("a.xlsx", 1, "h1")
	require.NoError(t, err)
	require.NoError(t, s.FinishImportLog(ok, ImportOutcome{TotalRows: 1}))

	bad, err := s.CreateImportLog("b.csv", 1, "h2")
	require.NoError(t, err)
	require.NoError(t, s.FinishImportLog(bad, ImportOutcome{Err: errors.New("unsupported file format")}))

	last, err := s.LastImport()
	require.NoError(t, err)
	assert.Equal(t, ok, last.ID)

	logs, err := s.ListImportLogs(10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, bad, logs[0].ID)
	assert.Equal(t, "unsupported file format", logs[0].ErrorMessage)

	counts, err := s.CountImports()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{ImportStatusSuccess: 1, ImportStatusFailed: 1}, counts)
}

func TestNew_FileDatabaseCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "rscboard.db")
	s, err := New(path)
	require.NoError(t, err)
	defer s.Close()
	assert.FileExists(t, path)
}

func TestGetImportLog_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetImportLog(42)
	assert.Error(t, err)
}
