package main

import (
	"context"
	"os"
	"time"

	"donortrack/internal/cli"
	"donortrack/internal/log"
	"donortrack/internal/services"
	gsheet "donortrack/internal/sheets/google"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger("info")
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel).WithComponent(log.ComponentExport)

	if err := cfg.ValidateReportExport(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	store := cli.OpenStore(ctx, logger, cfg)
	defer store.Close()

	writer, err := gsheet.NewFromEnv(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}

	start := time.Now()
	exporter := services.NewReportExporter(services.NewReportService(store), writer)
	tables, err := exporter.Export(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Report export failed", log.FieldError, err, "tables_written", tables)
		os.Exit(1)
	}

	logger.InfoContext(ctx, "Report export finished",
		log.FieldOperation, log.OpExport,
		"tables", tables,
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		log.FieldDuration, time.Since(start).Milliseconds())
}
