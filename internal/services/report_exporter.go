package services

import (
	"context"
	"fmt"
	"log/slog"

	"donortrack/internal/sheets"
)

// ReportExporter publishes the report views to a spreadsheet, one tab per view.
type ReportExporter struct {
	reports *ReportService
	writer  sheets.ReportWriter
}

func NewReportExporter(reports *ReportService, writer sheets.ReportWriter) *ReportExporter {
	return &ReportExporter{reports: reports, writer: writer}
}

// Export computes every view from one snapshot and writes it. It returns
// the number of tabs written.
func (e *ReportExporter) Export(ctx context.Context) (int, error) {
	r, err := e.reports.All(ctx)
	if err != nil {
		return 0, err
	}

	tables := []sheets.Table{
		sheets.ProgramsTable(r.Programs),
		sheets.DonorsTable(r.Donors),
		sheets.UnfulfilledPledgesTable(r.UnfulfilledPledges),
		sheets.PendingThankYouTable(r.PendingThankYou),
	}
	for i, t := range tables {
		if err := e.writer.WriteTable(ctx, t); err != nil {
			return i, fmt.Errorf("export %s: %w", t.Name, err)
		}
	}

	slog.InfoContext(ctx, "Reports exported", "tabs", len(tables))
	return len(tables), nil
}
