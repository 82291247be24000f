// Package xlsx writes inventories as spreadsheets.
package xlsx

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/civic-digest/internal/core/domain"
)

const (
	documentsSheet = "Documents"
	summarySheet   = "Summary"
)

type Exporter struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{logger: logger}
}

// Export writes one row per PDF plus a summary sheet with counts and the
// tag distribution.
func (e *Exporter) Export(_ context.Context, inv domain.Inventory, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", documentsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	headers := []string{"PDF", "Markdown", "Title", "Date", "Tag", "Department", "Source URL"}
	writeRow(f, documentsSheet, 1, toAny(headers))
	for i, row := range inv.Rows {
		writeRow(f, documentsSheet, i+2, []any{row.PDF, row.Output, row.Title, row.Date, row.Tag, row.Department, row.SourceURL})
	}
	_ = f.SetColWidth(documentsSheet, "A", "B", 40)
	_ = f.SetColWidth(documentsSheet, "C", "C", 48)
	_ = f.SetColWidth(documentsSheet, "D", "F", 14)
	_ = f.SetColWidth(documentsSheet, "G", "G", 60)

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("add summary sheet: %w", err)
	}
	summary := [][]any{
		{"Profile", inv.Profile},
		{"PDF files", inv.PDFCount},
		{"Markdown files", inv.MarkdownCount},
		{"Converted", inv.Converted},
		{"Success rate (%)", fmt.Sprintf("%.1f", inv.SuccessRate())},
	}
	tags := make([]string, 0, len(inv.TagCounts))
	for tag := range inv.TagCounts {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	for _, tag := range tags {
		summary = append(summary, []any{"Tag: " + tag, inv.TagCounts[tag]})
	}
	for _, department := range inv.MissingDepartments {
		summary = append(summary, []any{"Missing department", department})
	}
	for i, values := range summary {
		writeRow(f, summarySheet, i+1, values)
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 24)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	e.logger.Info("inventory_xlsx_written", "path", path, "rows", len(inv.Rows))
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) {
	for col, value := range values {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		_ = f.SetCellValue(sheet, cell, value)
	}
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
