package engine

import (
	"bufio"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DefaultBasePaths returns the two well-known Claude Code log roots,
// per spec.md §4.4 / §6. A missing $HOME yields an empty slice.
func DefaultBasePaths() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{
		filepath.Join(home, ".claude", "projects"),
		filepath.Join(home, ".config", "claude", "projects"),
	}
}

// Loader recursively discovers append-only .jsonl logs under a set of base
// directories, extracts and deduplicates usage records, and returns them
// sorted ascending by timestamp.
type Loader struct {
	BasePaths []string

	// Cache, when set, lets the loader skip re-reading files whose size
	// and modification time have not changed since the last scan and
	// whose recorded timestamp range cannot overlap the requested window.
	// Skipping never changes Load's output: it only elides I/O for files
	// already proven irrelevant to the window (spec.md §9 — no persisted
	// state changes the computed result, only its cost).
	Cache *FileCache
}

// NewLoader creates a Loader over the given base directories. An empty
// slice falls back to DefaultBasePaths.
func NewLoader(basePaths []string) *Loader {
	if len(basePaths) == 0 {
		basePaths = DefaultBasePaths()
	}
	return &Loader{BasePaths: basePaths}
}

type orderedRecord struct {
	record UsageRecord
}

// Load streams every discovered .jsonl file, filters to [start, end)
// inclusive-exclusive, deduplicates by identity pair (scoped to this single
// call, per spec.md §9), and returns records sorted by timestamp with ties
// broken by insertion order.
func (l *Loader) Load(ctx context.Context, start, end time.Time) ([]UsageRecord, LoadStats, error) {
	var stats LoadStats
	var ordered []orderedRecord
	seen := make(map[string]struct{})

	for _, base := range l.BasePaths {
		if base == "" {
			continue
		}
		if _, err := os.Stat(base); os.IsNotExist(err) {
			continue // missing base directory is not an error, per spec.md §4.4
		}

		err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				stats.FilesSkipped++
				return nil
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if d.IsDir() {
				return nil
			}
			if !strings.HasSuffix(d.Name(), ".jsonl") {
				return nil
			}

			n, fileStats, ferr := l.loadFile(ctx, path, start, end, seen, &ordered)
			if ferr != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				stats.FilesSkipped++
				return nil
			}
			_ = n
			stats.LinesSkipped += fileStats.LinesSkipped
			stats.DuplicatesSkipped += fileStats.DuplicatesSkipped
			return nil
		})
		if err != nil {
			return nil, stats, err
		}
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].record.Timestamp.Before(ordered[j].record.Timestamp)
	})

	records := make([]UsageRecord, len(ordered))
	for i, o := range ordered {
		records[i] = o.record
	}
	return records, stats, nil
}

func (l *Loader) loadFile(ctx context.Context, path string, start, end time.Time, seen map[string]struct{}, ordered *[]orderedRecord) (int, LoadStats, error) {
	var stats LoadStats

	info, err := os.Stat(path)
	if err != nil {
		return 0, stats, err
	}

	if summary, valid := l.Cache.Lookup(ctx, path, info.Size(), info.ModTime()); valid {
		if summary.maxTS.Before(start) || !summary.minTS.Before(end) {
			return 0, stats, nil
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, stats, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	buf := make([]byte, 0, 1024*1024)
	scanner.Buffer(buf, 16*1024*1024)

	n := 0
	var minTS, maxTS time.Time
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return n, stats, ctx.Err()
		default:
		}

		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		record, ok := ExtractRecord(line)
		if !ok {
			stats.LinesSkipped++
			continue
		}

		if minTS.IsZero() || record.Timestamp.Before(minTS) {
			minTS = record.Timestamp
		}
		if record.Timestamp.After(maxTS) {
			maxTS = record.Timestamp
		}

		if record.Timestamp.Before(start) || !record.Timestamp.Before(end) {
			continue
		}

		if record.HasIdentity() {
			key := record.IdentityKey()
			if _, dup := seen[key]; dup {
				stats.DuplicatesSkipped++
				continue
			}
			seen[key] = struct{}{}
		}

		*ordered = append(*ordered, orderedRecord{record: *record})
		n++
	}

	if !minTS.IsZero() {
		_ = l.Cache.Store(ctx, path, info.Size(), info.ModTime(), minTS, maxTS)
	}

	return n, stats, nil
}
