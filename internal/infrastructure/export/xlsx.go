package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/minicrm/lead-api/internal/core/domain"
)

const (
	leadsSheet = "Leads"
	notesSheet = "Notes"
)

var (
	leadHeaders = []string{
		"ID", "Name", "Email", "Phone", "Phone (E.164)", "Company", "Source", "Status",
		"Budget", "Expected Close", "Message", "Notes", "Created By", "Created At", "Updated At",
	}
	noteHeaders = []string{"Lead ID", "Lead Name", "Note", "Author", "Created At"}
)

// XLSXExporter writes leads to an Excel workbook with one sheet for leads and one for their notes.
type XLSXExporter struct{}

func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

func (x *XLSXExporter) Export(leads []*domain.Lead) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", leadsSheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(notesSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	if err := writeRow(f, leadsSheet, 1, toAny(leadHeaders)); err != nil {
		return nil, err
	}
	if err := writeRow(f, notesSheet, 1, toAny(noteHeaders)); err != nil {
		return nil, err
	}
	for sheet, n := range map[string]int{leadsSheet: len(leadHeaders), notesSheet: len(noteHeaders)} {
		last, _ := excelize.CoordinatesToCellName(n, 1)
		if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
			return nil, fmt.Errorf("failed to style header: %w", err)
		}
	}

	noteRow := 2
	for i, l := range leads {
		row := []any{
			l.ID, l.Name, l.Email, l.Phone, l.PhoneE164, l.Company, string(l.Source), string(l.Status),
			budgetCell(l.Budget), dateCell(l.ExpectedCloseDate), l.Message, len(l.Notes),
			authorCell(l.CreatedBy), l.CreatedAt.Format(time.RFC3339), l.UpdatedAt.Format(time.RFC3339),
		}
		if err := writeRow(f, leadsSheet, i+2, row); err != nil {
			return nil, err
		}

		for _, n := range l.Notes {
			row := []any{l.ID, l.Name, n.Content, authorCell(n.CreatedBy), n.CreatedAt.Format(time.RFC3339)}
			if err := writeRow(f, notesSheet, noteRow, row); err != nil {
				return nil, err
			}
			noteRow++
		}
	}

	_ = f.SetColWidth(leadsSheet, "A", "O", 18)
	_ = f.SetColWidth(notesSheet, "A", "B", 22)
	_ = f.SetColWidth(notesSheet, "C", "C", 60)
	_ = f.SetColWidth(notesSheet, "D", "E", 22)

	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d of %s: %w", row, sheet, err)
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func budgetCell(b *float64) any {
	if b == nil {
		return ""
	}
	return *b
}

func dateCell(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func authorCell(ref domain.UserRef) string {
	if ref.Name != "" {
		return ref.Name
	}
	return ref.ID
}
