// Package snapshot serves nearest-neighbour search from a JSONL export of
// the knowledge base held in memory.
package snapshot

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/kirillkom/course-assistant/internal/core/domain"
)

const maxLineBytes = 4 << 20

// Record is one line of the snapshot file.
type Record struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
	Vector   []float32         `json:"vector"`
}

type entry struct {
	record Record
	norm   float64
}

type Store struct {
	path string

	mu      sync.RWMutex
	entries []entry
}

// Open loads path eagerly; a missing, empty or malformed file is an error.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Ping fails when no passages are loaded.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.Len() == 0 {
		return fmt.Errorf("snapshot %s holds no passages", s.path)
	}
	return nil
}

// Reload re-reads the file. On error the previously loaded data stays.
func (s *Store) Reload() error {
	entries, err := readEntries(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
	slog.Info("snapshot_loaded", "path", s.path, "records", len(entries))
	return nil
}

func readEntries(path string) ([]entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	var entries []entry
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("snapshot line %d: %w", line, err)
		}
		if len(rec.Vector) == 0 {
			return nil, fmt.Errorf("snapshot line %d: record %q has no vector", line, rec.ID)
		}
		rec.Metadata = domain.NormalizeMetadata(rec.Metadata)
		entries = append(entries, entry{record: rec, norm: norm(rec.Vector)})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("snapshot %s has no records", path)
	}
	return entries, nil
}

// Search ranks every record by cosine similarity. Records whose vector
// dimension differs from the query are skipped.
func (s *Store) Search(ctx context.Context, queryVector []float32, k int) ([]domain.Passage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return []domain.Passage{}, nil
	}
	qNorm := norm(queryVector)

	s.mu.RLock()
	type scored struct {
		idx   int
		score float64
	}
	results := make([]scored, 0, len(s.entries))
	for i, e := range s.entries {
		if len(e.record.Vector) != len(queryVector) {
			continue
		}
		results = append(results, scored{idx: i, score: cosine(queryVector, e.record.Vector, qNorm, e.norm)})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})
	if len(results) > k {
		results = results[:k]
	}

	out := make([]domain.Passage, 0, len(results))
	for _, r := range results {
		rec := s.entries[r.idx].record
		meta := make(map[string]string, len(rec.Metadata))
		for key, v := range rec.Metadata {
			meta[key] = v
		}
		out = append(out, domain.Passage{Content: rec.Content, Score: r.score, Metadata: meta})
	}
	s.mu.RUnlock()
	return out, nil
}

// Watch reloads the snapshot whenever the file is written or replaced,
// until ctx is done. The parent directory is watched so that atomic
// renames are observed.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create snapshot watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch snapshot dir: %w", err)
	}

	target := filepath.Clean(s.path)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if err := s.Reload(); err != nil {
					slog.Warn("snapshot_reload_failed", "path", s.path, "error", err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("snapshot_watch_error", "path", s.path, "error", err)
			}
		}
	}()
	return nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func cosine(a, b []float32, normA, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (normA * normB)
}
