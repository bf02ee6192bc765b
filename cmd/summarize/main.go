// Command summarize runs the dashboard pipeline on a local sales file and
// prints the summary and clean report as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"coffeedash/internal/config"
	"coffeedash/internal/infrastructure"
	"coffeedash/internal/services"
)

func main() {
	file := flag.String("file", "", "path to a .csv or .xlsx sales file")
	level := flag.String("log-level", "warn", "log level (debug, info, warn, error)")
	flag.Parse()

	logger := infrastructure.NewLogger(config.LoggingConfig{Level: *level, Output: "console"}, os.Stderr)

	if err := run(context.Background(), *file, os.Stdout, logger); err != nil {
		logger.Error("Summarize failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// run processes path and writes the indented dashboard JSON to out
func run(ctx context.Context, path string, out io.Writer, logger *slog.Logger) error {
	if path == "" {
		return fmt.Errorf("-file is required")
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat input: %w", err)
	}

	service := services.NewDashboardService(logger)
	dashboard, err := service.Process(ctx, f, filepath.Base(path), info.Size())
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(dashboard)
}
