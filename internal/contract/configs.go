package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gitretro/gitretro/schema"
)

// Default values for configuration.
const (
	DefaultWorkers       = 2
	DefaultCacheTTLHours = 24
	DefaultStartDate     = "2025-01-01"
	DefaultOutputDir     = "reports"
	DateFormat           = "2006-01-02"
)

// Config holds the runtime configuration for a retrospective run.
// This struct remains the "final, validated" config.
type Config struct {
	Organization string
	Repositories []string // empty means the full filtered org listing
	Token        string

	WindowStart time.Time
	WindowEnd   time.Time

	Workers         int
	IncludeArchived bool
	IncludeForks    bool

	CacheEnabled bool
	CacheDir     string
	CacheTTL     time.Duration

	// LocalPathTemplate enables the local mirror path for commit history
	// when non-empty. Supports a {repo_name} placeholder.
	LocalPathTemplate string

	OutputDir string
	Formats   []schema.OutputFormat

	RunsBackend   schema.DatabaseBackend
	RunsDBConnect string // Please use env var as this is plaintext

	UseColors bool
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config
// file). Viper unmarshals into this struct; ProcessAndValidate turns it
// into the final Config.
type ConfigRawInput struct {
	Organization    string `mapstructure:"org"`
	Repos           string `mapstructure:"repos"`
	AllRepos        bool   `mapstructure:"all-repos"`
	StartDate       string `mapstructure:"start-date"`
	EndDate         string `mapstructure:"end-date"`
	Workers         int    `mapstructure:"workers"`
	IncludeArchived bool   `mapstructure:"include-archived"`
	IncludeForks    bool   `mapstructure:"include-forks"`
	CacheEnabled    bool   `mapstructure:"cache-enabled"`
	CacheDir        string `mapstructure:"cache-dir"`
	CacheTTLHours   int    `mapstructure:"cache-ttl-hours"`
	LocalPath       string `mapstructure:"local-path"`
	OutputDir       string `mapstructure:"output-dir"`
	Format          string `mapstructure:"format"`
	RunsBackend     string `mapstructure:"runs-backend"`
	RunsDBConnect   string `mapstructure:"runs-db-connect"`
	Color           bool   `mapstructure:"color"`
	Token           string `mapstructure:"github_token"`
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and populates the final Config struct. Organization and token are the
// only inputs whose absence is fatal before any collection starts.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	cfg.Organization = strings.TrimSpace(input.Organization)
	if cfg.Organization == "" {
		return fmt.Errorf("organization not specified: set --org or 'org' in the config file")
	}

	cfg.Token = input.Token
	if cfg.Token == "" {
		cfg.Token = os.Getenv("GITHUB_TOKEN")
	}
	if cfg.Token == "" {
		return fmt.Errorf("access token not configured: set GITHUB_TOKEN or 'github_token' in the config file")
	}

	// --- Repository selection ---
	cfg.Repositories = nil
	if !input.AllRepos && input.Repos != "" {
		for part := range strings.SplitSeq(input.Repos, ",") {
			if name := strings.TrimSpace(part); name != "" {
				cfg.Repositories = append(cfg.Repositories, name)
			}
		}
	}
	cfg.IncludeArchived = input.IncludeArchived
	cfg.IncludeForks = input.IncludeForks

	// --- Window ---
	if err := processWindow(cfg, input); err != nil {
		return err
	}

	// --- Workers ---
	cfg.Workers = input.Workers
	if cfg.Workers < 1 {
		cfg.Workers = DefaultWorkers
	}

	// --- Cache ---
	cfg.CacheEnabled = input.CacheEnabled
	cfg.CacheDir = input.CacheDir
	if cfg.CacheDir == "" {
		cfg.CacheDir = ".cache"
	}
	ttlHours := input.CacheTTLHours
	if ttlHours <= 0 {
		ttlHours = DefaultCacheTTLHours
	}
	cfg.CacheTTL = time.Duration(ttlHours) * time.Hour

	cfg.LocalPathTemplate = strings.TrimSpace(input.LocalPath)

	// --- Output ---
	cfg.OutputDir = input.OutputDir
	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}
	if err := processFormats(cfg, input); err != nil {
		return err
	}

	// --- Run store ---
	if err := processRunsBackend(cfg, input); err != nil {
		return err
	}

	cfg.UseColors = input.Color
	return nil
}

// processWindow parses the window dates. The window is inclusive on both
// ends; dates parse at midnight UTC, so events on the end date after
// 00:00:00 fall outside the window.
func processWindow(cfg *Config, input *ConfigRawInput) error {
	start := input.StartDate
	if start == "" {
		start = DefaultStartDate
	}
	t, err := time.ParseInLocation(DateFormat, start, time.UTC)
	if err != nil {
		return fmt.Errorf("invalid start date %q, expected YYYY-MM-DD: %w", start, err)
	}
	cfg.WindowStart = t

	if input.EndDate == "" {
		cfg.WindowEnd = time.Now().UTC().Truncate(24 * time.Hour)
	} else {
		t, err := time.ParseInLocation(DateFormat, input.EndDate, time.UTC)
		if err != nil {
			return fmt.Errorf("invalid end date %q, expected YYYY-MM-DD: %w", input.EndDate, err)
		}
		cfg.WindowEnd = t
	}

	if cfg.WindowStart.After(cfg.WindowEnd) {
		return fmt.Errorf("start date (%s) cannot be after end date (%s)",
			cfg.WindowStart.Format(DateFormat), cfg.WindowEnd.Format(DateFormat))
	}
	return nil
}

// processFormats validates the requested report formats.
func processFormats(cfg *Config, input *ConfigRawInput) error {
	raw := input.Format
	if raw == "" {
		raw = string(schema.HTMLFormat)
	}
	cfg.Formats = nil
	for part := range strings.SplitSeq(raw, ",") {
		f := schema.OutputFormat(strings.ToLower(strings.TrimSpace(part)))
		if f == "" {
			continue
		}
		if _, ok := schema.ValidOutputFormats[f]; !ok {
			return fmt.Errorf("invalid format '%s'. must be html, markdown, json", f)
		}
		cfg.Formats = append(cfg.Formats, f)
	}
	if len(cfg.Formats) == 0 {
		cfg.Formats = []schema.OutputFormat{schema.HTMLFormat}
	}
	return nil
}

// processRunsBackend validates the run store configuration.
func processRunsBackend(cfg *Config, input *ConfigRawInput) error {
	backend := input.RunsBackend
	if backend == "" {
		backend = string(schema.NoneBackend)
	}
	cfg.RunsBackend = schema.DatabaseBackend(strings.ToLower(backend))
	if _, ok := schema.ValidDatabaseBackends[cfg.RunsBackend]; !ok {
		return fmt.Errorf("invalid runs backend '%s'. must be sqlite, mysql, postgresql, none", input.RunsBackend)
	}
	cfg.RunsDBConnect = input.RunsDBConnect
	return ValidateDatabaseConnectionString(cfg.RunsBackend, cfg.RunsDBConnect)
}

// ValidateDatabaseConnectionString validates the format of database
// connection strings for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("runs-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("runs-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// GetRunsDBFilePath returns the default SQLite file for the run store.
func GetRunsDBFilePath() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, "gitretro", "runs.db")
}
