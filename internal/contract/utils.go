package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
)

// Color variables for console output.
var (
	WarnColor  = color.New(color.FgYellow)
	ErrorColor = color.New(color.FgRed, color.Bold)
	InfoColor  = color.New(color.FgCyan)
	OkColor    = color.New(color.FgGreen)
)

// NormalizeUTC converts a timestamp to UTC, treating zoneless values as
// already UTC. The zero time stays zero.
func NormalizeUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// InWindow reports whether t, normalized to UTC, falls within
// [start, end] inclusive. A zero t is never in-window.
func InWindow(t, start, end time.Time) bool {
	if t.IsZero() {
		return false
	}
	u := NormalizeUTC(t)
	return !u.Before(start) && !u.After(end)
}

// MonthKey formats a timestamp's month as YYYY-MM for histograms.
func MonthKey(t time.Time) string {
	return NormalizeUTC(t).Format("2006-01")
}

// WeekdayName returns the English weekday name for histograms.
func WeekdayName(t time.Time) string {
	return NormalizeUTC(t).Weekday().String()
}

// HoursBetween returns the duration from a to b in fractional hours.
func HoursBetween(a, b time.Time) float64 {
	return b.Sub(a).Hours()
}

// BuildMirrorPath resolves the local path for a repository from the path
// template. A {repo_name} placeholder substitutes the name; otherwise the
// name is appended as a subdirectory.
func BuildMirrorPath(template, repoName string) string {
	if strings.Contains(template, "{repo_name}") {
		return expandHome(strings.ReplaceAll(template, "{repo_name}", repoName))
	}
	return filepath.Join(expandHome(template), repoName)
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	return path
}

// LogWarn logs a recoverable problem to stderr.
func LogWarn(msg string, err error) {
	if err != nil {
		_, _ = WarnColor.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
		return
	}
	_, _ = WarnColor.Fprintf(os.Stderr, "Warn %s\n", msg)
}

// LogInfo logs progress to stderr, keeping stdout for report output.
func LogInfo(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
}
