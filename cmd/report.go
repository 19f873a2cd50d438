package cmd

import (
	"fmt"
	"os"

	"github.com/gitretro/gitretro/core"
	"github.com/gitretro/gitretro/internal/contract"
	"github.com/gitretro/gitretro/internal/gitfetch"
	"github.com/gitretro/gitretro/internal/iocache"
	"github.com/gitretro/gitretro/internal/mirror"
	"github.com/gitretro/gitretro/internal/outwriter"
	"github.com/gitretro/gitretro/internal/runstore"
	"github.com/gitretro/gitretro/schema"
	"github.com/spf13/cobra"
)

// reportCmd runs the full collection pipeline and writes the reports.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Collect metrics and generate retrospective reports.",
	Long: `Collect commit, pull request, issue and release metrics for the
configured repositories and render them as reports.

By default the full organization listing is analyzed, excluding archived
and forked repositories. Use --repos to restrict the set, or
--include-archived / --include-forks to widen the listing.

Examples:
  # Full organization retrospective for the year so far
  gitretro report --org acme --start-date 2026-01-01

  # Two repositories, markdown and json output
  gitretro report --org acme --repos core,web --format markdown,json`,
	PreRunE: sharedSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		gateway := gitfetch.NewGateway(cfg.Token)

		var cache contract.CacheStore
		if cfg.CacheEnabled {
			store, err := iocache.NewFileStore(cfg.CacheDir, cfg.CacheTTL)
			if err != nil {
				contract.LogWarn("Cache unavailable, continuing without it", err)
			} else {
				cache = store
			}
		}

		var runs contract.RunStore
		if cfg.RunsBackend != schema.NoneBackend {
			store, err := runstore.NewStore(cfg.RunsBackend, cfg.RunsDBConnect)
			if err != nil {
				contract.LogWarn("Run tracking unavailable, continuing without it", err)
			} else {
				runs = store
				defer func() { _ = store.Close() }()
			}
		}

		collector := core.NewCollector(cfg, gateway, mirror.NewProvider(), cache, runs)
		metrics, err := collector.Run(rootCtx)
		if err != nil {
			return err
		}

		paths, err := outwriter.WriteReports(metrics, cfg)
		if err != nil {
			return err
		}
		for _, path := range paths {
			fmt.Printf("Report written to %s\n", path)
		}

		return outwriter.PrintSummary(os.Stdout, metrics, cfg)
	},
}
