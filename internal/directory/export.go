// ABOUTME: Spreadsheet export of the loaded directory page using excelize
// ABOUTME: Header row styled and frozen; one row per client in server order

package directory

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/2389/verify-console/internal/model"
)

const exportSheet = "Clients"

var exportHeaders = []string{
	"ID", "Company", "First Name", "Last Name", "Email", "Phone", "Status",
	"Max Applicants", "Rate Limit", "Plans", "Applicants", "Verifications", "Created",
}

var exportWidths = []float64{28, 28, 16, 16, 32, 18, 10, 16, 12, 30, 12, 14, 22}

// ExportSpreadsheet writes the currently loaded page as an XLSX workbook
func (d *Directory) ExportSpreadsheet(w io.Writer) error {
	return WriteSpreadsheet(w, d.Page().Items)
}

// WriteSpreadsheet writes clients to w as an XLSX workbook
func WriteSpreadsheet(w io.Writer, clients []model.Client) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing workbook: %w", cerr)
		}
	}()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("removing default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	for i, header := range exportHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("converting coordinates: %w", err)
		}
		if err := f.SetCellValue(exportSheet, cell, header); err != nil {
			return fmt.Errorf("setting header %s: %w", cell, err)
		}
		if err := f.SetCellStyle(exportSheet, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("styling header %s: %w", cell, err)
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("converting column number: %w", err)
		}
		if err := f.SetColWidth(exportSheet, col, col, exportWidths[i]); err != nil {
			return fmt.Errorf("setting column width: %w", err)
		}
	}

	for r, c := range clients {
		row := r + 2
		status := "Inactive"
		if c.IsActive {
			status = "Active"
		}
		created := ""
		if !c.CreatedAt.IsZero() {
			created = c.CreatedAt.UTC().Format("2006-01-02 15:04")
		}
		values := []any{
			c.ID, c.CompanyName, c.FirstName, c.LastName, c.Email, c.Phone, status,
			c.MaxApplicants, c.RateLimit, strings.Join(c.SubscriptionPlans, ", "),
			c.Stats.ApplicantCount, c.Stats.VerificationCount, created,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return fmt.Errorf("converting coordinates: %w", err)
			}
			if err := f.SetCellValue(exportSheet, cell, v); err != nil {
				return fmt.Errorf("setting cell %s: %w", cell, err)
			}
		}
	}

	if err := f.SetPanes(exportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freezing header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
