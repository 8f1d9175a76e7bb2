package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSONL(t *testing.T, dir, name string, lines []string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func assistantLine(ts string, input, output int64) string {
	return fmt.Sprintf(
		`{"type":"assistant","timestamp":"%s","message":{"id":"msg-%s","model":"claude-sonnet-4","usage":{"input_tokens":%d,"output_tokens":%d}},"request_id":"req-%s"}`,
		ts, ts, input, output, ts,
	)
}

func TestLoaderDiscoversAndFiltersByWindow(t *testing.T) {
	dir := t.TempDir()
	writeJSONL(t, dir, "session.jsonl", []string{
		assistantLine("2026-07-30T10:00:00Z", 10, 5),
		assistantLine("2026-07-30T15:00:00Z", 20, 10),
		assistantLine("2026-07-30T20:00:00Z", 30, 15),
	})

	loader := NewLoader([]string{dir})
	start := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	end := time.Date(2026, 7, 30, 18, 0, 0, 0, time.UTC)

	records, _, err := loader.Load(context.Background(), start, end)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(20), records[0].Tokens.InputTokens)
}

func TestLoaderDeduplicatesByIdentityPair(t *testing.T) {
	dir := t.TempDir()
	line := assistantLine("2026-07-30T10:00:00Z", 10, 5)
	writeJSONL(t, dir, "a.jsonl", []string{line})
	writeJSONL(t, dir, "b.jsonl", []string{line}) // identical identity pair, different file

	loader := NewLoader([]string{dir})
	records, stats, err := loader.Load(context.Background(), time.Time{}, time.Now().Add(24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 1, stats.DuplicatesSkipped)
}

func TestLoaderSkipsMalformedLinesWithoutFailing(t *testing.T) {
	dir := t.TempDir()
	writeJSONL(t, dir, "mixed.jsonl", []string{
		"not json at all",
		assistantLine("2026-07-30T10:00:00Z", 1, 1),
	})

	loader := NewLoader([]string{dir})
	records, stats, err := loader.Load(context.Background(), time.Time{}, time.Now().Add(24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 1, stats.LinesSkipped)
}

func TestLoaderMissingBaseDirIsNotAnError(t *testing.T) {
	loader := NewLoader([]string{filepath.Join(t.TempDir(), "does-not-exist")})
	records, _, err := loader.Load(context.Background(), time.Time{}, time.Now())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestLoaderSortsAscendingByTimestampStably(t *testing.T) {
	dir := t.TempDir()
	writeJSONL(t, dir, "unsorted.jsonl", []string{
		assistantLine("2026-07-30T20:00:00Z", 3, 3),
		assistantLine("2026-07-30T10:00:00Z", 1, 1),
		assistantLine("2026-07-30T15:00:00Z", 2, 2),
	})

	loader := NewLoader([]string{dir})
	records, _, err := loader.Load(context.Background(), time.Time{}, time.Now().Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, records, 3)
	for i := 1; i < len(records); i++ {
		assert.False(t, records[i].Timestamp.Before(records[i-1].Timestamp))
	}
}

// Cancellation must be observed between lines within a single file, not
// just between files: a pre-cancelled context must stop loadFile before it
// finishes scanning, even though the whole file is just one os-level read.
func TestLoaderLoadFileHonorsCancellationBetweenLines(t *testing.T) {
	dir := t.TempDir()
	lines := make([]string, 0, 1000)
	for i := 0; i < 1000; i++ {
		lines = append(lines, assistantLine(fmt.Sprintf("2026-07-30T%02d:00:00Z", i%24), int64(i), int64(i)))
	}
	path := writeJSONL(t, dir, "big.jsonl", lines)

	loader := NewLoader([]string{dir})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ordered []orderedRecord
	n, _, err := loader.loadFile(ctx, path, time.Time{}, time.Now().Add(24*time.Hour), map[string]struct{}{}, &ordered)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, n)
	assert.Empty(t, ordered)
}

func TestLoaderIgnoresNonJSONLFiles(t *testing.T) {
	dir := t.TempDir()
	writeJSONL(t, dir, "session.jsonl", []string{assistantLine("2026-07-30T10:00:00Z", 1, 1)})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("not a log"), 0o644))

	loader := NewLoader([]string{dir})
	records, _, err := loader.Load(context.Background(), time.Time{}, time.Now().Add(24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
