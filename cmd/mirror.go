package cmd

import (
	"errors"
	"fmt"

	"github.com/gitretro/gitretro/internal/contract"
	"github.com/gitretro/gitretro/internal/gitfetch"
	"github.com/gitretro/gitretro/internal/mirror"
	"github.com/gitretro/gitretro/schema"
	"github.com/spf13/cobra"
)

// mirrorCmd clones or updates the local mirrors ahead of collection.
var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Clone or update local repository mirrors.",
	Long: `Ensure a local clone exists for every configured repository under
the --local-path template. Subsequent report runs read commit history
from these clones instead of the API, which is faster and saves API
quota.

Examples:
  # Mirror two repositories under ~/mirrors
  gitretro mirror --org acme --repos core,web --local-path '~/mirrors/{repo_name}'`,
	PreRunE: sharedSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		if cfg.LocalPathTemplate == "" {
			return errors.New("--local-path is required for the mirror command")
		}

		names := cfg.Repositories
		if len(names) == 0 {
			gateway := gitfetch.NewGateway(cfg.Token)
			repos, err := gateway.ListRepositories(rootCtx, cfg.Organization, contract.ListOptions{
				IncludeArchived: cfg.IncludeArchived,
				IncludeForks:    cfg.IncludeForks,
			})
			if err != nil {
				return fmt.Errorf("failed to list repositories for %s: %w", cfg.Organization, err)
			}
			for _, repo := range repos {
				names = append(names, repo.Name)
			}
		}

		provider := mirror.NewProvider()
		failed := 0
		for _, name := range names {
			result, err := provider.Ensure(rootCtx, cfg.Organization, name, cfg.LocalPathTemplate, cfg.Token)
			if err != nil {
				contract.LogWarn(fmt.Sprintf("Mirror failed for %s", name), err)
				failed++
				continue
			}
			switch result.Status {
			case schema.MirrorSkipped:
				contract.LogWarn(fmt.Sprintf("Mirror skipped for %s (%s)", name, result.Reason), nil)
				failed++
			default:
				fmt.Printf("%s %s at %s\n", result.Status, name, result.Path)
			}
		}

		if failed > 0 {
			fmt.Printf("Mirrored %d of %d repositories\n", len(names)-failed, len(names))
		} else {
			fmt.Printf("Mirrored %d repositories\n", len(names))
		}
		return nil
	},
}
