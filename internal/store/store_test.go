package store

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/qforge/internal/model"
)

func record(source, question string) model.Record {
	return model.Record{
		Source:     model.StringPtr(source),
		Question:   question,
		Solution:   `\boxed{1}`,
		Difficulty: model.DifficultyUndergrad,
		Timestamp:  "20250101_120000",
		Model:      "gpt-4o-mini",
	}
}

func TestWrite_NamesAndFields(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	p1, err := s.Write(record("calc_pages_1-3", "Q1"))
	require.NoError(t, err)
	p2, err := s.Write(record("calc_pages_1-3", "Q2"))
	require.NoError(t, err)

	assert.Equal(t, "question_20250101_120000_1.json", filepath.Base(p1))
	assert.Equal(t, "question_20250101_120000_2.json", filepath.Base(p2))

	data, err := os.ReadFile(p1)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"source", "question", "solution", "hints", "difficulty", "domain",
		"timestamp", "difficulty_description", "model", "boxed_solution", "validated"} {
		assert.Contains(t, raw, key)
	}
	assert.NotContains(t, raw, "excerpt")
}

func TestWrite_SkipsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "question_20250101_120000_1.json"), []byte("{}"), 0644))

	s, err := Open(dir)
	require.NoError(t, err)

	path, err := s.Write(record("calc_pages_1-3", "Q"))
	require.NoError(t, err)
	assert.Equal(t, "question_20250101_120000_2.json", filepath.Base(path))
}

func TestWrite_ConcurrentWritersNeverCollide(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	const n = 50
	paths := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := s.Write(record("calc_pages_1-3", "Q"))
			assert.NoError(t, err)
			paths[i] = p
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, p := range paths {
		assert.False(t, seen[p], "duplicate path %s", p)
		seen[p] = true
	}
}

func TestScanAndProvenances(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	_, err = s.Write(record("calc_pages_1-3", "Q1"))
	require.NoError(t, err)
	_, err = s.Write(record("physics_page_4", "Q2"))
	require.NoError(t, err)
	_, err = s.Write(record("some excerpt from the book", "Q3"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "question_bad.json"), []byte("{not json"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "filter_stats.json"), []byte("{}"), 0644))

	entries, malformed, err := s.Scan()
	require.NoError(t, err)
	assert.Len(t, entries, 3)
	assert.Equal(t, []string{filepath.Join(dir, "question_bad.json")}, malformed)

	tags, err := s.Provenances()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"calc_pages_1-3", "physics_page_4"}, tags)

	counts, err := s.CountByCollection()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"calc": 1, "physics": 1}, counts)
}

func TestScan_MissingDir(t *testing.T) {
	s := &DirStore{dir: filepath.Join(t.TempDir(), "gone")}
	entries, malformed, err := s.Scan()
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, malformed)
}

func TestLock_Exclusive(t *testing.T) {
	dir := t.TempDir()
	a, err := Open(dir)
	require.NoError(t, err)
	b, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, a.Lock())
	assert.ErrorIs(t, b.Lock(), ErrLocked)

	require.NoError(t, a.Unlock())
	require.NoError(t, b.Lock())
	require.NoError(t, b.Unlock())
}

func TestWriteJSON(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.WriteJSON("filter_stats.json", map[string]int{"total": 3}))
	data, err := os.ReadFile(filepath.Join(s.Dir(), "filter_stats.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"total": 3}`, string(data))
}

// shortWriter writes half of the first buffer to a real file and then fails
type shortWriter struct {
	f *os.File
}

func (w *shortWriter) Write(p []byte) (int, error) {
	n, _ := w.f.Write(p[:len(p)/2])
	return n, errors.New("disk full")
}

func (w *shortWriter) Close() error { return w.f.Close() }

func TestWrite_FailedWriteLeavesNoFile(t *testing.T) {
	orig := createExclusive
	t.Cleanup(func() { createExclusive = orig })
	createExclusive = func(path string) (io.WriteCloser, error) {
		f, err := orig(path)
		if err != nil {
			return nil, err
		}
		return &shortWriter{f: f.(*os.File)}, nil
	}

	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	_, err = s.Write(record("calc_pages_1-3", "Q1"))
	require.ErrorContains(t, err, "disk full")

	entries, malformed, err := s.Scan()
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, malformed)

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, f := range files {
		assert.NotContains(t, f.Name(), filePrefix)
	}
}
