package sheets

import (
	"context"
)

// Ports for outbound adapters.
type (
	// ReportWriter replaces the content of a named tab with a header row
	// followed by data rows.
	ReportWriter interface {
		WriteTable(ctx context.Context, t Table) error
	}
)

// Table is one report rendered as text cells.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}
