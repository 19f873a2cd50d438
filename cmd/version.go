package cmd

import (
	"runtime"

	"github.com/spf13/cobra"
)

// versionCmd prints the build details, mostly for bug reports.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the gitretro build details.",
	Long: `Print the release version, the commit and timestamp it was built
from, and the Go runtime. Include this output when reporting a bug.`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("gitretro %s\n", version)
		cmd.Printf("  Commit:  %s\n", commit)
		cmd.Printf("  Built:   %s\n", date)
		cmd.Printf("  Runtime: %s\n", runtime.Version())
	},
}
