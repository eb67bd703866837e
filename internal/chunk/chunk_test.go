package chunk_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/lfskit/internal/chunk"
	"github.com/bamsammich/lfskit/internal/event"
	"github.com/bamsammich/lfskit/internal/size"
	"github.com/bamsammich/lfskit/internal/stats"
)

// pattern returns n bytes that differ between neighbouring offsets so a
// misordered merge is detectable.
func pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*7 + i/251)
	}
	return b
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err, "read %s", path)
	return data
}

func partSizes(t *testing.T, base string) []int {
	t.Helper()
	parts, err := chunk.ListParts(base)
	require.NoError(t, err)
	sizes := make([]int, 0, len(parts))
	for _, p := range parts {
		sizes = append(sizes, len(readFile(t, p.Path)))
	}
	return sizes
}

func TestSplitBytes_SizesAndOrder(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "model.bin")
	data := pattern(200)
	writeFile(t, path, data)

	require.NoError(t, chunk.SplitBytes(context.Background(), path, 90))

	assert.NoFileExists(t, path)
	assert.Equal(t, []int{90, 90, 20}, partSizes(t, path))
	assert.Equal(t, data[:90], readFile(t, path+".part0"))
	assert.Equal(t, data[90:180], readFile(t, path+".part1"))
	assert.Equal(t, data[180:], readFile(t, path+".part2"))
}

func TestSplit_MebibyteParts(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "weights.safetensors")
	data := pattern(int(2*size.MiB + size.MiB/2))
	writeFile(t, path, data)

	require.NoError(t, chunk.Split(context.Background(), path, 1))

	assert.Equal(t, []int{int(size.MiB), int(size.MiB), int(size.MiB / 2)}, partSizes(t, path))
}

func TestSplitBytes_ExactMultiple(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "even.bin")
	writeFile(t, path, pattern(100))

	require.NoError(t, chunk.SplitBytes(context.Background(), path, 50))
	assert.Equal(t, []int{50, 50}, partSizes(t, path))
}

func TestSplitBytes_SmallerThanPart(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "small.bin")
	writeFile(t, path, pattern(10))

	require.NoError(t, chunk.SplitBytes(context.Background(), path, 90))
	assert.Equal(t, []int{10}, partSizes(t, path))
	assert.NoFileExists(t, path)
}

func TestSplitBytes_EmptyFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.bin")
	writeFile(t, path, nil)

	require.NoError(t, chunk.SplitBytes(context.Background(), path, 90))
	assert.Equal(t, []int{0}, partSizes(t, path))

	got, err := chunk.Merge(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, path, got)
	assert.Empty(t, readFile(t, path))
}

func TestSplitBytes_SkipsWhenPartsExist(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "model.bin")
	writeFile(t, path, pattern(200))
	writeFile(t, path+".part0", []byte("stale"))

	require.NoError(t, chunk.SplitBytes(context.Background(), path, 90))

	assert.FileExists(t, path, "original must be kept")
	assert.Equal(t, []byte("stale"), readFile(t, path+".part0"))
	assert.NoFileExists(t, path+".part1")
}

func TestSplitBytes_SkipsWhenPartPrefixedSiblingExists(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "model.bin")
	writeFile(t, path, pattern(200))
	writeFile(t, path+".partial", []byte("leftover"))

	require.NoError(t, chunk.SplitBytes(context.Background(), path, 90))

	assert.FileExists(t, path, "original must be kept")
	assert.NoFileExists(t, path+".part0")
}

func TestSplitBytes_Idempotent(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "model.bin")
	data := pattern(200)
	writeFile(t, path, data)

	ctx := context.Background()
	require.NoError(t, chunk.SplitBytes(ctx, path, 90))
	require.NoError(t, chunk.SplitBytes(ctx, path, 90))

	assert.Equal(t, []int{90, 90, 20}, partSizes(t, path))
}

func TestSplitBytes_MissingFileIsNoop(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "absent.bin")

	require.NoError(t, chunk.SplitBytes(context.Background(), path, 90))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSplitBytes_InvalidPartSize(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "model.bin")
	writeFile(t, path, pattern(10))

	err := chunk.SplitBytes(context.Background(), path, 0)
	require.ErrorIs(t, err, chunk.ErrInvalidPartSize)

	err = chunk.Split(context.Background(), path, -1)
	require.ErrorIs(t, err, chunk.ErrInvalidPartSize)

	assert.FileExists(t, path)
}

func TestSplitBytes_Directory(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "notafile")
	require.NoError(t, os.Mkdir(path, 0o755))

	err := chunk.SplitBytes(context.Background(), path, 90)
	require.Error(t, err)
	assert.DirExists(t, path)
}

func TestSplitBytes_CanceledKeepsOriginal(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "model.bin")
	data := pattern(200)
	writeFile(t, path, data)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := chunk.SplitBytes(ctx, path, 90)
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, data, readFile(t, path))
	parts, err := chunk.ListParts(path)
	require.NoError(t, err)
	assert.Empty(t, parts)
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()
	sizes := []int{0, 1, 89, 90, 91, 179, 180, 181, 1000}
	for _, n := range sizes {
		dir := t.TempDir()
		path := filepath.Join(dir, "blob")
		data := pattern(n)
		writeFile(t, path, data)

		ctx := context.Background()
		require.NoError(t, chunk.SplitBytes(ctx, path, 90), "size %d", n)
		got, err := chunk.Merge(ctx, path)
		require.NoError(t, err, "size %d", n)

		assert.Equal(t, path, got)
		assert.True(t, bytes.Equal(data, readFile(t, path)), "size %d: content differs", n)

		parts, err := chunk.ListParts(path)
		require.NoError(t, err)
		assert.Empty(t, parts, "size %d: parts left behind", n)
	}
}

func TestMerge_NoPartsIsNoop(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "model.bin")

	got, err := chunk.Merge(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, path, got)
	assert.NoFileExists(t, path)
}

func TestMerge_KeepsExistingFileWhenNoParts(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "model.bin")
	writeFile(t, path, []byte("already merged"))

	_, err := chunk.Merge(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []byte("already merged"), readFile(t, path))
}

func TestMerge_OverwritesExistingFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "model.bin")
	writeFile(t, path, []byte("old contents that are longer"))
	writeFile(t, path+".part0", []byte("new"))

	_, err := chunk.Merge(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), readFile(t, path))
	assert.NoFileExists(t, path+".part0")
}

func TestRoundTrip_KeepsPermissions(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "run.sh")
	writeFile(t, path, pattern(50))
	require.NoError(t, os.Chmod(path, 0o755))

	ctx := context.Background()
	require.NoError(t, chunk.SplitBytes(ctx, path, 20))
	_, err := chunk.Merge(ctx, path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
	assert.Equal(t, pattern(50), readFile(t, path))
}

func TestMerge_NumericOrderBeyondNine(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "big.bin")

	var want []byte
	for i := range 12 {
		piece := []byte{byte('a' + i)}
		want = append(want, piece...)
		writeFile(t, chunk.PartName(path, i), piece)
	}

	_, err := chunk.Merge(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(readFile(t, path)))
}

func TestMerge_IgnoresNonPartSiblings(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "model.bin")
	writeFile(t, path+".part0", []byte("AB"))
	writeFile(t, path+".part1", []byte("CD"))
	writeFile(t, path+".partial", []byte("nope"))
	writeFile(t, path+".part1.bak", []byte("nope"))
	writeFile(t, filepath.Join(dir, "other.bin.part0"), []byte("nope"))

	_, err := chunk.Merge(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []byte("ABCD"), readFile(t, path))

	assert.FileExists(t, path+".partial")
	assert.FileExists(t, path+".part1.bak")
	assert.FileExists(t, filepath.Join(dir, "other.bin.part0"))
}

func TestMerge_WithGap(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "model.bin")
	writeFile(t, path+".part0", []byte("A"))
	writeFile(t, path+".part2", []byte("C"))

	_, err := chunk.Merge(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []byte("AC"), readFile(t, path))
}

func TestChunker_EventsAndStats(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "model.bin")
	writeFile(t, path, pattern(200))

	events := make(chan event.Event, 64)
	collector := stats.NewCollector()
	c := chunk.New(chunk.Config{Events: events, Stats: collector})

	ctx := context.Background()
	require.NoError(t, c.SplitBytes(ctx, path, 90))
	_, err := c.Merge(ctx, path)
	require.NoError(t, err)
	close(events)

	counts := make(map[event.Type]int)
	var indexes []int
	for ev := range events {
		counts[ev.Type]++
		if ev.Type == event.PartWritten {
			indexes = append(indexes, ev.Index)
		}
	}
	assert.Equal(t, 3, counts[event.PartWritten])
	assert.Equal(t, 3, counts[event.PartMerged])
	assert.Equal(t, 2, counts[event.FileCompleted])
	assert.Equal(t, 4, counts[event.FileRemoved], "original plus three parts")
	assert.Equal(t, []int{0, 1, 2}, indexes)

	snap := collector.Snapshot()
	assert.Equal(t, int64(1), snap.FilesSplit)
	assert.Equal(t, int64(1), snap.FilesMerged)
	assert.Equal(t, int64(3), snap.PartsWritten)
	assert.Equal(t, int64(3), snap.PartsMerged)
	assert.Equal(t, int64(400), snap.BytesChunked)
}

func TestChunker_SkipEvent(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	events := make(chan event.Event, 4)
	collector := stats.NewCollector()
	c := chunk.New(chunk.Config{Events: events, Stats: collector})

	require.NoError(t, c.SplitBytes(context.Background(), filepath.Join(dir, "absent"), 90))
	close(events)

	ev := <-events
	assert.Equal(t, event.FileSkipped, ev.Type)
	assert.Equal(t, "missing", ev.Reason)
	assert.Equal(t, int64(1), collector.Snapshot().FilesSkipped)
}

func TestProcessBatch_SplitThenMerge(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	a := filepath.Join(dir, "a.bin")
	b := filepath.Join(dir, "b.bin")
	dataA := pattern(int(size.MiB) + 17)
	dataB := pattern(300)
	writeFile(t, a, dataA)
	writeFile(t, b, dataB)

	ctx := context.Background()
	require.NoError(t, chunk.ProcessBatch(ctx, []string{a, b}, chunk.ModeSplit, 1))
	assert.Equal(t, []int{int(size.MiB), 17}, partSizes(t, a))
	assert.Equal(t, []int{300}, partSizes(t, b))

	require.NoError(t, chunk.ProcessBatch(ctx, []string{a, b}, chunk.ModeMerge, 0))
	assert.Equal(t, dataA, readFile(t, a))
	assert.Equal(t, dataB, readFile(t, b))
}

func TestProcessBatch_Empty(t *testing.T) {
	t.Parallel()
	require.NoError(t, chunk.ProcessBatch(context.Background(), nil, chunk.ModeSplit, chunk.DefaultPartSizeMB))
}

func TestProcessBatch_StopsAtFirstError(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	bad := filepath.Join(dir, "adir")
	require.NoError(t, os.Mkdir(bad, 0o755))
	later := filepath.Join(dir, "later.bin")
	writeFile(t, later, pattern(10))

	c := chunk.New(chunk.Config{})
	err := c.ProcessBatchBytes(context.Background(), []string{bad, later}, chunk.ModeSplit, 4)
	require.Error(t, err)
	assert.Contains(t, err.Error(), bad)

	assert.FileExists(t, later, "later paths must not be touched")
	assert.NoFileExists(t, later+".part0")
}

func TestProcessBatch_InvalidPartSize(t *testing.T) {
	t.Parallel()
	err := chunk.ProcessBatch(context.Background(), []string{"x"}, chunk.ModeSplit, 0)
	require.ErrorIs(t, err, chunk.ErrInvalidPartSize)
}

func TestProcessBatch_UnknownMode(t *testing.T) {
	t.Parallel()
	err := chunk.ProcessBatch(context.Background(), []string{"x"}, chunk.Mode(42), 1)
	require.Error(t, err)
	assert.False(t, errors.Is(err, chunk.ErrInvalidPartSize))
}
