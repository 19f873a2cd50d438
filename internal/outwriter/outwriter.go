// Package outwriter renders the aggregate document into report files and
// console output.
package outwriter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gitretro/gitretro/internal/contract"
	"github.com/gitretro/gitretro/schema"
)

// fileTimestampLayout matches the report filename timestamp format.
const fileTimestampLayout = "20060102_150405"

// WriteReports renders metrics into every configured format under the
// output directory and returns the generated file paths in format order.
func WriteReports(metrics *schema.AggregateMetrics, cfg *contract.Config) ([]string, error) {
	if err := os.MkdirAll(cfg.OutputDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", cfg.OutputDir, err)
	}

	stamp := metrics.GeneratedAt.Format(fileTimestampLayout)
	paths := make([]string, 0, len(cfg.Formats))
	for _, format := range cfg.Formats {
		name := fmt.Sprintf("retrospective_%s_%s.%s", metrics.Organization, stamp, extensionFor(format))
		path := filepath.Join(cfg.OutputDir, name)
		if err := writeReportFile(path, format, metrics); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeReportFile(path string, format schema.OutputFormat, metrics *schema.AggregateMetrics) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	switch format {
	case schema.JSONFormat:
		err = writeJSON(file, metrics)
	case schema.MarkdownFormat:
		err = writeMarkdown(file, metrics)
	case schema.HTMLFormat:
		err = writeHTML(file, metrics)
	default:
		err = fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return fmt.Errorf("failed to write %s report: %w", format, err)
	}
	return nil
}

func extensionFor(format schema.OutputFormat) string {
	switch format {
	case schema.MarkdownFormat:
		return "md"
	default:
		return string(format)
	}
}

// writeJSON writes data as indented JSON.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
