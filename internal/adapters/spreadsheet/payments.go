package spreadsheet

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/okian/studentpay/internal/domain/dateutil"
	"github.com/okian/studentpay/internal/domain/model"
	"github.com/okian/studentpay/pkg/metrics"
)

// Payment import columns, left to right.
const (
	colName = iota
	colClass
	colAmount
	colMode
	colDate
)

// SkippedRow explains why a row was not imported. Row is 1-based, as shown
// by spreadsheet programs.
type SkippedRow struct {
	Row    int
	Reason string
}

// Import is the outcome of reading a payment workbook.
type Import struct {
	Payments []model.Payment
	// Rows holds the sheet row of each entry in Payments.
	Rows    []int
	Skipped []SkippedRow
}

// ReadPayments reads payments from the first sheet of the workbook in r.
// Row 1 is a header. Columns are Name, Class, Amount, Mode, Date. Rows
// without a name or with a zero or non-numeric amount are skipped. Dates
// are normalized when recognizable; empty dates become today per now.
func ReadPayments(r io.Reader, now func() time.Time) (*Import, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, ErrNoSheet
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: sheet %s: %w", ErrOpen, sheet, err)
	}

	out := &Import{Payments: []model.Payment{}}
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if isBlank(row) {
			continue
		}
		p, reason := parsePaymentRow(row, now)
		if reason != "" {
			out.Skipped = append(out.Skipped, SkippedRow{Row: i + 1, Reason: reason})
			metrics.RecordSpreadsheetRow("import", "skipped")
			continue
		}
		out.Payments = append(out.Payments, p)
		out.Rows = append(out.Rows, i+1)
		metrics.RecordSpreadsheetRow("import", "ok")
	}
	return out, nil
}

func parsePaymentRow(row []string, now func() time.Time) (model.Payment, string) {
	name := cell(row, colName)
	if name == "" {
		return model.Payment{}, "missing name"
	}
	raw := strings.ReplaceAll(cell(row, colAmount), ",", "")
	if raw == "" {
		return model.Payment{}, "missing amount"
	}
	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return model.Payment{}, fmt.Sprintf("amount %q is not a number", cell(row, colAmount))
	}
	if amount == 0 {
		return model.Payment{}, "missing amount"
	}
	date := cell(row, colDate)
	if d, err := dateutil.Normalize(date, now); err == nil {
		date = d
	}
	return model.Payment{
		Name:   name,
		Class:  cell(row, colClass),
		Amount: model.Amount(amount),
		Mode:   cell(row, colMode),
		Date:   date,
	}, ""
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
