// Package export renders the admin verification queue as a spreadsheet.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"vetting/internal/verification/models"
)

const (
	SheetName   = "Verifications"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var columns = []string{
	"Verification ID", "User ID", "Email", "Name", "User Type", "Status",
	"Submitted At", "Decided At", "Decided By", "Reason", "Updated At",
}

// columnWidths are fixed; auto-sizing needs a pass over every cell.
var columnWidths = []float64{38, 38, 30, 24, 12, 16, 22, 22, 38, 40, 22}

// WriteQueue writes entries as an xlsx workbook with a frozen, filterable
// header row.
func WriteQueue(w io.Writer, entries []models.QueueEntry) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeHeader(f); err != nil {
		return err
	}

	for i, e := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetSheetRow(SheetName, cell, toRow(e)); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	for i, width := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("column name: %w", err)
		}
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	if len(entries) > 0 {
		lastCol, _ := excelize.ColumnNumberToName(len(columns))
		if err := f.AutoFilter(SheetName, fmt.Sprintf("A1:%s%d", lastCol, len(entries)+1), nil); err != nil {
			return fmt.Errorf("set auto filter: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeHeader(f *excelize.File) error {
	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetSheetRow(SheetName, "A1", &columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(columns))
	if err := f.SetCellStyle(SheetName, "A1", lastCol+"1", style); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	return f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func toRow(e models.QueueEntry) *[]any {
	r := e.Record
	decidedBy := ""
	if r.VerifiedBy != nil {
		decidedBy = r.VerifiedBy.String()
	}
	reason := ""
	if r.RejectionReason != nil {
		reason = *r.RejectionReason
	}
	row := []any{
		r.ID.String(), r.UserID.String(), e.UserEmail, e.UserName, string(e.UserType), string(r.Status),
		formatTime(r.SubmittedAt), formatTime(r.VerifiedAt), decidedBy, reason, formatTime(&r.UpdatedAt),
	}
	return &row
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}
