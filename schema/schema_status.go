package schema

import "time"

// CacheStats summarizes the on-disk cache directory.
type CacheStats struct {
	TotalEntries   int   `json:"total_entries"`
	ValidEntries   int   `json:"valid_entries"`
	ExpiredEntries int   `json:"expired_entries"`
	TotalSizeBytes int64 `json:"total_size_bytes"`
}

// MirrorResult is the outcome of ensuring one repository's local mirror.
type MirrorResult struct {
	Repo   string
	Path   string
	Status MirrorStatus
	Reason string // set when Status is MirrorSkipped
}

// RunStatus reports on the run-history store.
type RunStatus struct {
	Backend     string
	Connected   bool
	TotalRuns   int
	LastRunTime time.Time
}
