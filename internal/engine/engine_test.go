package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/tcat/internal/catalog"
	"github.com/bamsammich/tcat/internal/digest"
	"github.com/bamsammich/tcat/internal/event"
	"github.com/bamsammich/tcat/internal/filter"
	"github.com/bamsammich/tcat/internal/queue"
)

func testTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"root.txt":           "root file content",
		"big.bin":            strings.Repeat("ABCDEFGHIJKLMNOP", 20000),
		"sub/mid.txt":        "middle file content",
		"sub/deep/leaf.txt":  "leaf file content",
		"logs/debug.log":     "noise",
		"logs/important.log": "keep me",
	})
	return root
}

func runCatalog(t *testing.T, cfg Config) (*catalog.Catalog, Result) {
	t.Helper()
	var buf bytes.Buffer
	res := Run(context.Background(), cfg, NewCatalogSink(&buf, cfg.Algorithm))
	if res.Err != nil {
		return nil, res
	}
	c, err := catalog.Decode(&buf)
	require.NoError(t, err)
	return c, res
}

func TestRun_CatalogRoundTrip(t *testing.T) {
	root := testTree(t)

	c, res := runCatalog(t, Config{Roots: []string{root}, Recursive: true, Workers: 4, Algorithm: digest.SHA256})
	require.NoError(t, res.Err)

	require.Len(t, c.Records, 6)
	for i := 1; i < len(c.Records); i++ {
		assert.Less(t, c.Records[i-1].Path, c.Records[i].Path)
	}
	for _, rec := range c.Records {
		content, err := os.ReadFile(rec.Path)
		require.NoError(t, err)
		assert.Equal(t, digest.SHA256.Of(content), rec.Digest, rec.Path)
		assert.Equal(t, uint64(len(content)), rec.Size, rec.Path)
	}

	assert.Equal(t, int64(6), res.Stats.FilesHashed)
	assert.Equal(t, int64(6), res.Stats.FilesScanned)
	assert.True(t, res.Stats.ScanComplete)
}

func TestRun_CatalogIsDeterministic(t *testing.T) {
	root := testTree(t)
	cfg := Config{Roots: []string{root}, Recursive: true, Workers: 8, Algorithm: digest.BLAKE3}

	var first, second bytes.Buffer
	require.NoError(t, Run(context.Background(), cfg, NewCatalogSink(&first, cfg.Algorithm)).Err)
	require.NoError(t, Run(context.Background(), cfg, NewCatalogSink(&second, cfg.Algorithm)).Err)
	assert.Equal(t, first.Bytes(), second.Bytes())
}

func TestRun_WorkerCountDoesNotChangeOutput(t *testing.T) {
	root := testTree(t)

	var one, many bytes.Buffer
	require.NoError(t, Run(context.Background(),
		Config{Roots: []string{root}, Recursive: true, Workers: 1},
		NewCatalogSink(&one, digest.SHA256)).Err)
	require.NoError(t, Run(context.Background(),
		Config{Roots: []string{root}, Recursive: true, Workers: 16},
		NewCatalogSink(&many, digest.SHA256)).Err)
	assert.Equal(t, one.Bytes(), many.Bytes())
}

func TestRun_ExcludeWithIncludeOverride(t *testing.T) {
	root := testTree(t)
	fs, err := filter.Compile([]string{"important.log"}, []string{"*.log"})
	require.NoError(t, err)

	c, res := runCatalog(t, Config{Roots: []string{root}, Recursive: true, Filter: fs, Workers: 2})
	require.NoError(t, res.Err)

	var paths []string
	for _, rec := range c.Records {
		paths = append(paths, rec.Path)
	}
	assert.Contains(t, paths, filepath.Join(root, "logs", "important.log"))
	assert.NotContains(t, paths, filepath.Join(root, "logs", "debug.log"))
	assert.Len(t, paths, 5)
}

func TestRun_NonRecursiveDirectoryProducesNothing(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a/keep.txt": "hi", "a/skip.tmp": "x"})
	fs, err := filter.Compile(nil, []string{"*.tmp"})
	require.NoError(t, err)

	c, res := runCatalog(t, Config{Roots: []string{filepath.Join(root, "a")}, Filter: fs, Workers: 2})
	require.NoError(t, res.Err)
	assert.Empty(t, c.Records)

	c, res = runCatalog(t, Config{Roots: []string{filepath.Join(root, "a")}, Filter: fs, Recursive: true, Workers: 2})
	require.NoError(t, res.Err)
	require.Len(t, c.Records, 1)
	assert.Equal(t, filepath.Join(root, "a", "keep.txt"), c.Records[0].Path)
	assert.Equal(t, "8F434346648F6B96DF89DDA901C5176B10A6D83961DD3C1AC88B59B2DC327AA4", c.Records[0].Digest.Hex())
	assert.Equal(t, uint64(2), c.Records[0].Size)
}

func TestRun_ListingMode(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a/keep.txt": "hi", "b.txt": "two"})

	var buf bytes.Buffer
	res := Run(context.Background(), Config{Roots: []string{root}, Recursive: true, Workers: 3}, NewStreamingSink(&buf))
	require.NoError(t, res.Err)

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	sort.Strings(lines)
	assert.Equal(t, []string{
		filepath.Join(root, "a", "keep.txt") + ";8F434346648F6B96DF89DDA901C5176B10A6D83961DD3C1AC88B59B2DC327AA4;2",
		filepath.Join(root, "b.txt") + ";" + digest.SHA256.Of([]byte("two")).Hex() + ";3",
	}, lines)
}

func TestRun_PerFileErrorsDoNotFailRun(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"good": "ok"})
	bad := filepath.Join(root, "bad\xff")
	require.NoError(t, os.WriteFile(bad, []byte("x"), 0o644))

	events := make(chan event.Event, 64)
	c, res := runCatalog(t, Config{Roots: []string{root}, Recursive: true, Workers: 2, Events: events})
	require.NoError(t, res.Err)
	require.Len(t, c.Records, 1)
	assert.Equal(t, filepath.Join(root, "good"), c.Records[0].Path)
	assert.Equal(t, int64(1), res.Stats.FilesFailed)

	close(events)
	var failures []event.Event
	for e := range events {
		if e.Type == event.FileFailed {
			failures = append(failures, e)
		}
	}
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0].Error, ErrInvalidPath)
}

func TestRun_ScanFailureWritesNothing(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a": "1"})
	missing := filepath.Join(root, "missing")

	var buf bytes.Buffer
	res := Run(context.Background(),
		Config{Roots: []string{root, missing}, Recursive: true, Workers: 2},
		NewCatalogSink(&buf, digest.SHA256))
	require.Error(t, res.Err)
	assert.Zero(t, buf.Len())

	var scanErr *ScanError
	require.ErrorAs(t, res.Err, &scanErr)
	assert.Equal(t, missing, scanErr.Path)
	assert.Equal(t, missing+": stat: no such file or directory", res.Err.Error())
}

type failingSink struct{ err error }

func (s failingSink) Emit(FileRecord) error { return s.err }
func (s failingSink) Finish() error { return errors.New("finish must not run") }
func (s failingSink) Streaming() bool { return false }

func TestRun_CollectorFailureReportedOnce(t *testing.T) {
	root := testTree(t)
	errFull := errors.New("disk full")

	res := Run(context.Background(), Config{Roots: []string{root}, Recursive: true, Workers: 2}, failingSink{err: errFull})
	require.ErrorIs(t, res.Err, errFull)
	assert.NotErrorIs(t, res.Err, context.Canceled)
	assert.Equal(t, 1, strings.Count(res.Err.Error(), "disk full"))
	assert.NotContains(t, res.Err.Error(), "consumer")
}

func TestRun_RejectsZeroWorkers(t *testing.T) {
	res := Run(context.Background(), Config{Roots: []string{t.TempDir()}}, NewCatalogSink(&bytes.Buffer{}, digest.SHA256))
	assert.Error(t, res.Err)
}

func TestRun_CancelledContextFails(t *testing.T) {
	root := testTree(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	res := Run(ctx, Config{Roots: []string{root}, Recursive: true, Workers: 2}, NewCatalogSink(&buf, digest.SHA256))
	require.ErrorIs(t, res.Err, context.Canceled)
	assert.Zero(t, buf.Len())
}

func TestRun_Throttled(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a": "aaaa", "b": "bbbb"})

	c, res := runCatalog(t, Config{Roots: []string{root}, Recursive: true, Workers: 2, BWLimit: 1 << 20})
	require.NoError(t, res.Err)
	assert.Len(t, c.Records, 2)
}

func TestCombineErrors(t *testing.T) {
	scanErr := &ScanError{Path: "p", Err: errors.New("boom")}
	down := errors.New("down")
	closed := fmt.Errorf("emit p: %w", queue.ErrConsumerClosed)

	assert.NoError(t, combineErrors(nil, nil, nil))
	assert.Equal(t, error(scanErr), combineErrors(nil, nil, scanErr))

	onlyDown := combineErrors(down, nil, closed)
	assert.ErrorIs(t, onlyDown, down)
	assert.False(t, IsConsumerClosed(onlyDown))
	assert.Equal(t, "down", onlyDown.Error())

	joined := combineErrors(down, nil, scanErr)
	assert.ErrorIs(t, joined, down)
	assert.ErrorIs(t, joined, scanErr)
	assert.Equal(t, "down\np: boom", joined.Error())
}
