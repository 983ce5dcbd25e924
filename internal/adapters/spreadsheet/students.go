// Package spreadsheet moves student lists and payment batches in and out of
// XLSX workbooks.
package spreadsheet

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/okian/studentpay/internal/domain/model"
	"github.com/okian/studentpay/pkg/metrics"
)

// StudentsSheet is the sheet name used for exports.
const StudentsSheet = "Students"

// WriteStudents writes students as a workbook to w. The header is Name,
// Class, then every extra field seen in any row, sorted.
func WriteStudents(w io.Writer, students []model.Student) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), StudentsSheet); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	extras := extraColumns(students)
	header := make([]any, 0, len(extras)+2)
	header = append(header, "Name", "Class")
	for _, k := range extras {
		header = append(header, k)
	}
	if err := f.SetSheetRow(StudentsSheet, "A1", &header); err != nil {
		return fmt.Errorf("%w: header: %w", ErrWrite, err)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(StudentsSheet, 1, 1, style)
	}

	for i, s := range students {
		row := make([]any, 0, len(header))
		row = append(row, s.Name, s.Class)
		for _, k := range extras {
			row = append(row, cellValue(s.Fields[k]))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrWrite, err)
		}
		if err := f.SetSheetRow(StudentsSheet, cell, &row); err != nil {
			return fmt.Errorf("%w: row %d: %w", ErrWrite, i+2, err)
		}
		metrics.RecordSpreadsheetRow("export", "ok")
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

func extraColumns(students []model.Student) []string {
	seen := map[string]struct{}{}
	for _, s := range students {
		for k := range s.Fields {
			seen[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// cellValue flattens nested JSON values so they fit a cell.
func cellValue(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case string, float64, bool:
		return t
	default:
		return fmt.Sprint(t)
	}
}
