// Package cmd defines the command-line interface for gitretro.
package cmd

import (
	"github.com/gitretro/gitretro/internal"
	"github.com/gitretro/gitretro/internal/contract"
	"github.com/gitretro/gitretro/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(mirrorCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheClearCmd)

	// Add the runs subcommands to the parent runs command
	runsCmd.AddCommand(runsStatusCmd)
	runsCmd.AddCommand(runsExportCmd)
	runsCmd.AddCommand(runsMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("org", "", "Organization name")
	rootCmd.PersistentFlags().String("repos", "", "Comma-separated repository list")
	rootCmd.PersistentFlags().Bool("all-repos", false, "Analyze all organization repositories")
	rootCmd.PersistentFlags().String("start-date", "", "Start date (YYYY-MM-DD)")
	rootCmd.PersistentFlags().String("end-date", "", "End date (YYYY-MM-DD), defaults to today")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent repository workers")
	rootCmd.PersistentFlags().Bool("include-archived", false, "Include archived repositories in the org listing")
	rootCmd.PersistentFlags().Bool("include-forks", false, "Include forked repositories in the org listing")
	rootCmd.PersistentFlags().Bool("cache-enabled", true, "Cache collected metrics on disk")
	rootCmd.PersistentFlags().String("cache-dir", ".cache", "Cache directory")
	rootCmd.PersistentFlags().Int("cache-ttl-hours", contract.DefaultCacheTTLHours, "Cache entry lifetime in hours")
	rootCmd.PersistentFlags().String("local-path", "", "Local clone path template, supports {repo_name}")
	rootCmd.PersistentFlags().String("output-dir", contract.DefaultOutputDir, "Report output directory")
	rootCmd.PersistentFlags().String("format", string(schema.HTMLFormat), "Comma-separated report formats: html, markdown, json")
	rootCmd.PersistentFlags().String("runs-backend", string(schema.NoneBackend), "Run tracking backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("runs-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().Bool("color", true, "Enable colored console output")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		internal.FatalError("Error binding root flags", err)
	}

	// Bind all flags of cacheClearCmd to Viper
	cacheClearCmd.Flags().Int("older-than", 0, "Only remove entries older than this many hours (0 means all)")
	if err := viper.BindPFlags(cacheClearCmd.Flags()); err != nil {
		internal.FatalError("Error binding cache clear flags", err)
	}

	// Bind all flags of runsExportCmd to Viper
	runsExportCmd.Flags().String("output-file", "", "Prefix for the exported Parquet files")
	if err := viper.BindPFlags(runsExportCmd.Flags()); err != nil {
		internal.FatalError("Error binding runs export flags", err)
	}

	// Bind all flags of runsMigrateCmd to Viper
	runsMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(runsMigrateCmd.Flags()); err != nil {
		internal.FatalError("Error binding runs migrate flags", err)
	}
}
