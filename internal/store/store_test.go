package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewRejectsEmptyBaseDir(t *testing.T) {
	_, err := New("  ", "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "recordings directory")
}

func TestNewRejectsBadTemplate(t *testing.T) {
	_, err := New(t.TempDir(), "{{.Year")
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse name template")
}

func TestNewOutputPathDefaultTemplate(t *testing.T) {
	dir := t.TempDir()
	r, err := New(dir, "")
	require.NoError(t, err)

	start := time.Date(2026, 8, 30, 14, 5, 9, 0, time.UTC)
	path, err := r.NewOutputPath(start)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "recording-2026-08-30_14-05-09.wav"), path)
}

func TestNewOutputPathCustomTemplate(t *testing.T) {
	r, err := New(t.TempDir(), "{{.Year}}{{.Month}}{{.Day}}.wav")
	require.NoError(t, err)

	path, err := r.NewOutputPath(time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, "20260102.wav", filepath.Base(path))
}

func TestSaveCreatesDirAndWrites(t *testing.T) {
	dir := t.TempDir()
	r, err := New(dir, "")
	require.NoError(t, err)

	path := filepath.Join(dir, "nested", "note.wav")
	require.NoError(t, r.Save(path, []byte("payload")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), data)
}
