package schema

// OutputFormat identifies a report emitter.
type OutputFormat string

// Supported report formats.
const (
	HTMLFormat     OutputFormat = "html"
	MarkdownFormat OutputFormat = "markdown"
	JSONFormat     OutputFormat = "json"
)

// ValidOutputFormats is the set of accepted report formats.
var ValidOutputFormats = map[OutputFormat]struct{}{
	HTMLFormat:     {},
	MarkdownFormat: {},
	JSONFormat:     {},
}

// DatabaseBackend identifies a run-history storage backend.
type DatabaseBackend string

// Supported run store backends.
const (
	SQLiteBackend     DatabaseBackend = "sqlite"
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// ValidDatabaseBackends is the set of accepted run store backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// MirrorStatus is the outcome of ensuring one local mirror.
type MirrorStatus string

// Mirror outcomes. A skipped mirror carries its reason alongside.
const (
	MirrorCloned  MirrorStatus = "cloned"
	MirrorUpdated MirrorStatus = "updated"
	MirrorSkipped MirrorStatus = "skipped"
)

// WeekdayOrder fixes the weekday histogram order regardless of the order
// weekdays were first observed in the data.
var WeekdayOrder = []string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// TopRankLimit caps contributor and reviewer rankings in the summary.
const TopRankLimit = 10
