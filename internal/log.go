package internal

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// FatalError logs an error and exits the program.
func FatalError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s %s: %v\n", color.RedString("error:"), msg, err)
	os.Exit(1)
}

// Warning logs a warning.
func Warning(msg string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", color.YellowString("warning:"), msg)
}
