// Package snapshot stores raw provider payloads verbatim before
// normalization. Each source keeps timestamped snapshot files plus a
// "latest" marker, so import tasks can replay either the most recent
// capture or the full retained history.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// idLayout names snapshot files by capture time, filesystem-safe and
// lexicographically sortable.
const idLayout = "20060102T150405.000Z"

const latestMarker = "latest"

// Snapshot is one raw capture.
type Snapshot struct {
	Source     string
	ID         string
	CapturedAt time.Time
	Raw        []byte
}

// Store is a directory-per-source snapshot store.
type Store struct {
	dir string
}

// NewStore opens (creating if needed) a snapshot store rooted at dir.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Write persists a raw payload verbatim and advances the source's
// latest marker. Returns the snapshot ID.
func (s *Store) Write(source string, capturedAt time.Time, raw []byte) (string, error) {
	srcDir := filepath.Join(s.dir, source)
	if err := os.MkdirAll(srcDir, 0o755); err != nil {
		return "", fmt.Errorf("create source dir: %w", err)
	}

	id := capturedAt.UTC().Format(idLayout)
	if err := os.WriteFile(filepath.Join(srcDir, id+".json"), raw, 0o644); err != nil {
		return "", fmt.Errorf("write snapshot %s/%s: %w", source, id, err)
	}
	if err := os.WriteFile(filepath.Join(srcDir, latestMarker), []byte(id), 0o644); err != nil {
		return "", fmt.Errorf("update latest marker for %s: %w", source, err)
	}
	return id, nil
}

// Read loads one snapshot by source and ID.
func (s *Store) Read(source, id string) (Snapshot, error) {
	capturedAt, err := time.Parse(idLayout, id)
	if err != nil {
		return Snapshot{}, fmt.Errorf("invalid snapshot id %q: %w", id, err)
	}

	raw, err := os.ReadFile(filepath.Join(s.dir, source, id+".json"))
	if err != nil {
		return Snapshot{}, fmt.Errorf("read snapshot %s/%s: %w", source, id, err)
	}

	return Snapshot{
		Source:     source,
		ID:         id,
		CapturedAt: capturedAt,
		Raw:        raw,
	}, nil
}

// ReadLatest loads the snapshot named by the source's latest marker.
func (s *Store) ReadLatest(source string) (Snapshot, error) {
	marker, err := os.ReadFile(filepath.Join(s.dir, source, latestMarker))
	if err != nil {
		return Snapshot{}, fmt.Errorf("read latest marker for %s: %w", source, err)
	}
	return s.Read(source, strings.TrimSpace(string(marker)))
}

// List returns all snapshot IDs for a source in capture order.
func (s *Store) List(source string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, source))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list snapshots for %s: %w", source, err)
	}

	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}
