package rewrite

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/devrig/pkg/filter"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestRewriter_SingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	writeFile(t, path, "hello foo world foo")

	spec, err := filter.Compile([]filter.Rule{{Old: "foo", New: "bar"}})
	require.NoError(t, err)

	rw, err := New(spec, nil)
	require.NoError(t, err)
	require.NoError(t, rw.Run(context.Background(), filepath.Join(dir, "*.txt")))

	assert.Equal(t, "hello bar world bar", readFile(t, path))
}

func TestRewriter_ShrinkingReplacementTruncates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	writeFile(t, path, "aaa-LONGTOKEN-bbb")

	spec, err := filter.Compile([]filter.Rule{{Old: "LONGTOKEN", New: "T"}})
	require.NoError(t, err)

	rw, err := New(spec, nil)
	require.NoError(t, err)
	require.NoError(t, rw.Run(context.Background(), path))

	assert.Equal(t, "aaa-T-bbb", readFile(t, path))
}

func TestRewriter_ManyFilesConcurrently(t *testing.T) {
	dir := t.TempDir()
	const files = 20
	for i := 0; i < files; i++ {
		writeFile(t, filepath.Join(dir, "sub", "f"+strings.Repeat("x", i)+".txt"), "token here, token there")
	}

	spec, err := filter.Compile([]filter.Rule{{Old: "token", New: "VALUE"}})
	require.NoError(t, err)

	var mu sync.Mutex
	var results []FileResult
	rw, err := New(spec, func(res FileResult) {
		mu.Lock()
		results = append(results, res)
		mu.Unlock()
	})
	require.NoError(t, err)
	require.NoError(t, rw.Run(context.Background(), filepath.Join(dir, "**", "*.txt")))

	require.Len(t, results, files)
	for _, res := range results {
		assert.NoError(t, res.Err)
		assert.Equal(t, 2, res.Matches)
		assert.Equal(t, "VALUE here, VALUE there", readFile(t, res.Path))
	}
}

func TestRewriter_NoMatchLeavesFileIntact(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	content := "nothing to see here\n"
	writeFile(t, path, content)

	spec, err := filter.Compile([]filter.Rule{{Old: "absent", New: "x"}})
	require.NoError(t, err)

	rw, err := New(spec, nil)
	require.NoError(t, err)
	require.NoError(t, rw.Run(context.Background(), path))

	assert.Equal(t, content, readFile(t, path))
}

func TestRewriter_DuplicatePatternsDeduplicated(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	writeFile(t, path, "one foo")

	spec, err := filter.Compile([]filter.Rule{{Old: "foo", New: "bar"}})
	require.NoError(t, err)

	seen := 0
	rw, err := New(spec, func(res FileResult) { seen++ })
	require.NoError(t, err)

	// The same file matched by two patterns is rewritten once.
	require.NoError(t, rw.Run(context.Background(), path, filepath.Join(dir, "*.txt")))
	assert.Equal(t, 1, seen)
	assert.Equal(t, "one bar", readFile(t, path))
}

func TestRewriter_FailingFileDoesNotAbortSiblings(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("chmod-based failure injection has no effect for root")
	}

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "one foo")
	writeFile(t, filepath.Join(dir, "b.txt"), "two foo")
	writeFile(t, filepath.Join(dir, "c.txt"), "three foo")
	locked := filepath.Join(dir, "b.txt")
	require.NoError(t, os.Chmod(locked, 0000))

	spec, err := filter.Compile([]filter.Rule{{Old: "foo", New: "bar"}})
	require.NoError(t, err)

	var mu sync.Mutex
	results := map[string]error{}
	rw, err := New(spec, func(res FileResult) {
		mu.Lock()
		results[res.Path] = res.Err
		mu.Unlock()
	})
	require.NoError(t, err)

	err = rw.Run(context.Background(), filepath.Join(dir, "*.txt"))
	require.Error(t, err, "the batch surfaces the failed pipeline")
	assert.Contains(t, err.Error(), "b.txt")

	// Every pipeline settled and reported, including the failed one.
	require.Len(t, results, 3)
	assert.NoError(t, results[filepath.Join(dir, "a.txt")])
	assert.Error(t, results[locked])
	assert.NoError(t, results[filepath.Join(dir, "c.txt")])

	// Sibling files were still rewritten.
	assert.Equal(t, "one bar", readFile(t, filepath.Join(dir, "a.txt")))
	assert.Equal(t, "three bar", readFile(t, filepath.Join(dir, "c.txt")))
}

func TestRewriter_LargeFileBoundedScan(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.txt")
	content := strings.Repeat("padding line without the token\n", 5000) + "the needle sits here\n"
	writeFile(t, path, content)

	spec, err := filter.Compile([]filter.Rule{{Old: "needle", New: "NEEDLE"}})
	require.NoError(t, err)

	rw, err := New(spec, nil)
	require.NoError(t, err)
	require.NoError(t, rw.Run(context.Background(), path))

	assert.Equal(t, strings.Replace(content, "needle", "NEEDLE", 1), readFile(t, path))
}
