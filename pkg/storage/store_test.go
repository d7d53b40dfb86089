package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/novelreader/novelreader/internal/testgen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedStore(t *testing.T, at time.Time) *Store {
	t.Helper()
	s := New(t.TempDir())
	s.now = func() time.Time { return at }
	return s
}

func TestFileName(t *testing.T) {
	t.Parallel()

	at := time.UnixMilli(1700000000123)
	tests := []struct {
		name     string
		original string
		expected string
	}{
		{"plain", "book.epub", "1700000000123_book.epub"},
		{"spaces and case", "My Great Novel.epub", "1700000000123_my-great-novel.epub"},
		{"path components dropped", "../../etc/passwd.epub", "1700000000123_passwd.epub"},
		{"unicode", "Café Über.epub", "1700000000123_cafe-uber.epub"},
		{"nothing usable", "!!!.epub", "1700000000123_book.epub"},
		{"no extension", "novel", "1700000000123_novel.epub"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FileName(tt.original, at))
		})
	}
}

func TestSave(t *testing.T) {
	t.Parallel()
	at := time.UnixMilli(1700000000000)
	s := fixedStore(t, at)
	data := testgen.EPUBBytes(t, testgen.EPUBOptions{Title: "Stored"})

	stored, err := s.Save(context.Background(), 42, "Stored Book.epub", bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(s.Dir(), "42", "1700000000000_stored-book.epub"), stored.Path)
	assert.Equal(t, int64(len(data)), stored.Size)

	written, err := os.ReadFile(stored.Path)
	require.NoError(t, err)
	assert.Equal(t, data, written)

	entries, err := os.ReadDir(filepath.Join(s.Dir(), "42"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "staging file should be gone")
}

func TestSave_NameCollision(t *testing.T) {
	t.Parallel()
	s := fixedStore(t, time.UnixMilli(1700000000000))
	data := testgen.EPUBBytes(t, testgen.EPUBOptions{})

	first, err := s.Save(context.Background(), 1, "same.epub", bytes.NewReader(data))
	require.NoError(t, err)
	second, err := s.Save(context.Background(), 1, "same.epub", bytes.NewReader(data))
	require.NoError(t, err)

	assert.NotEqual(t, first.Path, second.Path)
	assert.Equal(t, filepath.Join(s.Dir(), "1", "1700000000000_same_1.epub"), second.Path)
}

func TestSave_ConcurrentSameName(t *testing.T) {
	t.Parallel()
	s := fixedStore(t, time.UnixMilli(1700000000000))

	const uploads = 32
	payloads := make([][]byte, uploads)
	for i := range payloads {
		payloads[i] = testgen.EPUBBytes(t, testgen.EPUBOptions{Title: fmt.Sprintf("Copy %d", i)})
	}

	paths := make([]string, uploads)
	var wg sync.WaitGroup
	for i := 0; i < uploads; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			stored, err := s.Save(context.Background(), 1, "same.epub", bytes.NewReader(payloads[i]))
			if assert.NoError(t, err) {
				paths[i] = stored.Path
			}
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for i, path := range paths {
		require.NotEmpty(t, path)
		assert.False(t, seen[path], "path %s handed out twice", path)
		seen[path] = true

		written, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, payloads[i], written, "upload %d was overwritten", i)
	}

	entries, err := os.ReadDir(filepath.Join(s.Dir(), "1"))
	require.NoError(t, err)
	assert.Len(t, entries, uploads)
}

func TestSave_NoFreeName(t *testing.T) {
	t.Parallel()
	s := fixedStore(t, time.UnixMilli(1700000000000))
	ownerDir := filepath.Join(s.Dir(), "1")
	require.NoError(t, os.MkdirAll(ownerDir, 0755))

	taken := []string{"1700000000000_same.epub"}
	for i := 1; i < maxNameSuffix; i++ {
		taken = append(taken, fmt.Sprintf("1700000000000_same_%d.epub", i))
	}
	for _, name := range taken {
		require.NoError(t, os.WriteFile(filepath.Join(ownerDir, name), []byte("existing"), 0644))
	}

	_, err := s.Save(context.Background(), 1, "same.epub", bytes.NewReader(testgen.EPUBBytes(t, testgen.EPUBOptions{})))
	require.ErrorIs(t, err, ErrNameTaken)

	entries, err := os.ReadDir(ownerDir)
	require.NoError(t, err)
	assert.Len(t, entries, len(taken), "nothing new is left behind")

	existing, err := os.ReadFile(filepath.Join(ownerDir, "1700000000000_same.epub"))
	require.NoError(t, err)
	assert.Equal(t, "existing", string(existing))
}

func TestSave_RejectsNonZip(t *testing.T) {
	t.Parallel()
	s := fixedStore(t, time.Now())

	tests := []struct {
		name string
		data []byte
	}{
		{"text", []byte("this is not an epub")},
		{"empty", nil},
		{"pdf", []byte("%PDF-1.7\n%âãÏÓ\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Save(context.Background(), 1, "bad.epub", bytes.NewReader(tt.data))
			require.ErrorIs(t, err, ErrNotZip)
		})
	}

	assert.False(t, testgen.FileExists(filepath.Join(s.Dir(), "1")))
}

func TestRemove(t *testing.T) {
	t.Parallel()
	s := fixedStore(t, time.Now())

	stored, err := s.Save(context.Background(), 1, "gone.epub", bytes.NewReader(testgen.EPUBBytes(t, testgen.EPUBOptions{})))
	require.NoError(t, err)

	require.NoError(t, s.Remove(stored.Path))
	assert.False(t, testgen.FileExists(stored.Path))
	require.NoError(t, s.Remove(stored.Path))
}
