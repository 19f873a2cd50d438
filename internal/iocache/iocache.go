// Package iocache is a file-based, expiring cache for collected metrics.
//
// Each entry lives in its own JSON file under the cache directory, named by
// the fingerprint of its request descriptor. Entries expire lazily on read
// or eagerly via Sweep; a corrupt entry is deleted and treated as a miss so
// cache problems never fail a collection run.
package iocache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gitretro/gitretro/internal/contract"
	"github.com/gitretro/gitretro/schema"
)

// entry is the on-disk shape of one cache file.
type entry struct {
	StoredAt   time.Time                `json:"stored_at"`
	Descriptor contract.CacheDescriptor `json:"descriptor"`
	Payload    json.RawMessage          `json:"payload"`
}

// FileStore implements contract.CacheStore on a directory of JSON files.
type FileStore struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

var _ contract.CacheStore = &FileStore{} // Compile-time check

// NewFileStore creates the cache directory if needed and returns a store
// whose entries expire after ttl.
func NewFileStore(dir string, ttl time.Duration) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %q: %w", dir, err)
	}
	return &FileStore{dir: dir, ttl: ttl, now: time.Now}, nil
}

// Fingerprint derives the cache key for a descriptor: hex SHA-256 of its
// canonical key-sorted JSON serialization. Identical descriptors always
// collide; any differing field changes the digest.
func Fingerprint(desc contract.CacheDescriptor) string {
	// encoding/json writes map keys in sorted order, which gives a
	// canonical form independent of struct field order.
	canonical, _ := json.Marshal(map[string]string{
		"kind":         desc.Kind,
		"organization": desc.Organization,
		"repository":   desc.Repository,
		"window_start": desc.WindowStart,
		"window_end":   desc.WindowEnd,
	})
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}

func (s *FileStore) path(desc contract.CacheDescriptor) string {
	return filepath.Join(s.dir, Fingerprint(desc)+".json")
}

// Get implements the CacheStore interface.
func (s *FileStore) Get(desc contract.CacheDescriptor, out any) bool {
	path := s.path(desc)
	raw, err := os.ReadFile(path)
	if err != nil {
		return false
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		contract.LogWarn("removing corrupt cache entry", err)
		_ = os.Remove(path)
		return false
	}

	if s.now().Sub(e.StoredAt) > s.ttl {
		_ = os.Remove(path)
		return false
	}

	if err := json.Unmarshal(e.Payload, out); err != nil {
		contract.LogWarn("removing unreadable cache payload", err)
		_ = os.Remove(path)
		return false
	}
	return true
}

// Set implements the CacheStore interface.
func (s *FileStore) Set(desc contract.CacheDescriptor, payload any) {
	rawPayload, err := json.Marshal(payload)
	if err != nil {
		contract.LogWarn("skipping cache write", err)
		return
	}
	raw, err := json.MarshalIndent(entry{
		StoredAt:   s.now(),
		Descriptor: desc,
		Payload:    rawPayload,
	}, "", "  ")
	if err != nil {
		contract.LogWarn("skipping cache write", err)
		return
	}
	if err := os.WriteFile(s.path(desc), raw, 0o640); err != nil {
		contract.LogWarn("failed to write cache entry", err)
	}
}

// Sweep implements the CacheStore interface.
func (s *FileStore) Sweep(maxAge time.Duration) (int, error) {
	files, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return 0, err
	}

	var cutoff time.Time
	if maxAge > 0 {
		cutoff = s.now().Add(-maxAge)
	}

	removed := 0
	for _, f := range files {
		if maxAge > 0 {
			e, err := readEntry(f)
			if err != nil {
				contract.LogWarn(fmt.Sprintf("skipping cache file %s", filepath.Base(f)), err)
				continue
			}
			if e.StoredAt.After(cutoff) {
				continue
			}
		}
		if err := os.Remove(f); err != nil {
			contract.LogWarn(fmt.Sprintf("failed to remove cache file %s", filepath.Base(f)), err)
			continue
		}
		removed++
	}
	return removed, nil
}

// Stats implements the CacheStore interface.
func (s *FileStore) Stats() (schema.CacheStats, error) {
	files, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return schema.CacheStats{}, err
	}

	stats := schema.CacheStats{TotalEntries: len(files)}
	for _, f := range files {
		if info, err := os.Stat(f); err == nil {
			stats.TotalSizeBytes += info.Size()
		}
		e, err := readEntry(f)
		if err != nil || s.now().Sub(e.StoredAt) > s.ttl {
			stats.ExpiredEntries++
			continue
		}
		stats.ValidEntries++
	}
	return stats, nil
}

func readEntry(path string) (entry, error) {
	var e entry
	raw, err := os.ReadFile(path)
	if err != nil {
		return e, err
	}
	if err := json.Unmarshal(raw, &e); err != nil {
		return e, err
	}
	return e, nil
}
