package iocache

import (
	"os"
	"testing"
	"time"

	"github.com/gitretro/gitretro/internal/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPayload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func testDescriptor(repo string) contract.CacheDescriptor {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	return contract.MetricsDescriptor("acme", repo, start, end)
}

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), time.Hour)
	require.NoError(t, err)

	desc := testDescriptor("core")
	store.Set(desc, testPayload{Name: "core", Count: 42})

	var got testPayload
	require.True(t, store.Get(desc, &got))
	assert.Equal(t, testPayload{Name: "core", Count: 42}, got)

	// A different descriptor misses
	var miss testPayload
	assert.False(t, store.Get(testDescriptor("web"), &miss))
}

func TestFileStoreExpiry(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), time.Hour)
	require.NoError(t, err)

	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	desc := testDescriptor("core")
	store.Set(desc, testPayload{Name: "core", Count: 1})

	// Still fresh just inside the TTL
	current = current.Add(59 * time.Minute)
	var got testPayload
	require.True(t, store.Get(desc, &got))

	// Expired entries miss and are removed from disk
	current = current.Add(2 * time.Minute)
	assert.False(t, store.Get(desc, &got))
	_, statErr := os.Stat(store.path(desc))
	assert.True(t, os.IsNotExist(statErr))
}

func TestFileStoreCorruptEntry(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), time.Hour)
	require.NoError(t, err)

	desc := testDescriptor("core")
	require.NoError(t, os.WriteFile(store.path(desc), []byte("{not json"), 0o640))

	var got testPayload
	assert.False(t, store.Get(desc, &got))
	_, statErr := os.Stat(store.path(desc))
	assert.True(t, os.IsNotExist(statErr), "corrupt entry should be removed")
}

func TestFingerprintDeterministic(t *testing.T) {
	a := Fingerprint(testDescriptor("core"))
	b := Fingerprint(testDescriptor("core"))
	assert.Equal(t, a, b)

	// Any differing field changes the digest
	assert.NotEqual(t, a, Fingerprint(testDescriptor("web")))

	other := testDescriptor("core")
	other.WindowEnd = time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC).Format(time.RFC3339)
	assert.NotEqual(t, a, Fingerprint(other))
}

func TestFileStoreSweep(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), time.Hour)
	require.NoError(t, err)

	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	store.Set(testDescriptor("old"), testPayload{Name: "old"})
	current = current.Add(3 * time.Hour)
	store.Set(testDescriptor("new"), testPayload{Name: "new"})

	removed, err := store.Sweep(2 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	var got testPayload
	assert.True(t, store.Get(testDescriptor("new"), &got))

	// Zero max age removes everything left
	removed, err = store.Sweep(0)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestFileStoreStats(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), time.Hour)
	require.NoError(t, err)

	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	store.Set(testDescriptor("expired"), testPayload{Name: "expired"})
	current = current.Add(2 * time.Hour)
	store.Set(testDescriptor("valid"), testPayload{Name: "valid"})

	stats, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalEntries)
	assert.Equal(t, 1, stats.ValidEntries)
	assert.Equal(t, 1, stats.ExpiredEntries)
	assert.Positive(t, stats.TotalSizeBytes)
}
