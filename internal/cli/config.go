package cli

import (
	"context"
	"errors"

	"github.com/okian/studentpay/internal/domain/model"
)

// Client is the subset of the remote client the commands use.
type Client interface {
	Authenticate(ctx context.Context, username, pin string) model.LoginResult
	ListStudents(ctx context.Context, class string) model.StudentsResult
	RecordPayment(ctx context.Context, p *model.Payment) model.PaymentResult
}

// ErrUnsuccessful is returned when a command completed but the remote
// reported failure. Callers map it to exit code 1.
var ErrUnsuccessful = errors.New("unsuccessful result")

// ErrUsage marks bad command-line input.
var ErrUsage = errors.New("usage")

// ImportSummary is printed after an import.
type ImportSummary struct {
	Success  bool           `json:"success"`
	Recorded int            `json:"recorded"`
	Failed   []ImportFailed `json:"failed,omitempty"`
	Skipped  []ImportFailed `json:"skipped,omitempty"`
}

// ImportFailed describes one spreadsheet row that was not recorded.
type ImportFailed struct {
	Row     int    `json:"row"`
	Name    string `json:"name,omitempty"`
	Message string `json:"message"`
}

// ExportSummary is printed after an export.
type ExportSummary struct {
	Success  bool   `json:"success"`
	Students int    `json:"students"`
	File     string `json:"file,omitempty"`
	Message  string `json:"message,omitempty"`
}
