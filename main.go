// main is the entry point for the gitretro CLI.
package main

import (
	"os"

	"github.com/gitretro/gitretro/cmd"
	"github.com/gitretro/gitretro/internal/contract"
)

func main() {
	if err := cmd.Execute(); err != nil {
		_, _ = contract.ErrorColor.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
