package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/okian/studentpay/internal/adapters/spreadsheet"
	"github.com/okian/studentpay/internal/domain/dateutil"
	"github.com/okian/studentpay/internal/domain/model"
	"github.com/okian/studentpay/pkg/logger"
)

// Defaults for the import worker pool and output files.
const (
	defaultImportWorkers = 4
	directoryPermission  = 0750
)

// Runner executes paymentctl subcommands against a Client and prints each
// result as JSON.
type Runner struct {
	client Client
	out    io.Writer
	now    func() time.Time
	logger logger.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithClock overrides time.Now, used to default payment dates.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLogger sets the logger used for progress messages.
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner creates a Runner writing results to out.
func NewRunner(client Client, out io.Writer, opts ...Option) *Runner {
	r := &Runner{
		client: client,
		out:    out,
		now:    time.Now,
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run dispatches args[0] to its command. It returns ErrUsage for bad input
// and ErrUnsuccessful when the command ran but its result was a failure.
func (r *Runner) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command", ErrUsage)
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		return r.login(ctx, rest)
	case "students":
		return r.students(ctx, rest)
	case "pay":
		return r.pay(ctx, rest)
	case "export":
		return r.export(ctx, rest)
	case "import":
		return r.importPayments(ctx, rest)
	default:
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
}

func (r *Runner) login(ctx context.Context, args []string) error {
	fs := newFlagSet("login")
	user := fs.String("user", "", "username")
	pin := fs.String("pin", "", "PIN")
	if err := parse(fs, args); err != nil {
		return err
	}
	res := r.client.Authenticate(ctx, *user, *pin)
	return r.print(res, res.Success)
}

func (r *Runner) students(ctx context.Context, args []string) error {
	fs := newFlagSet("students")
	class := fs.String("class", model.AllClasses, "class filter")
	if err := parse(fs, args); err != nil {
		return err
	}
	res := r.client.ListStudents(ctx, *class)
	return r.print(res, res.Success)
}

func (r *Runner) pay(ctx context.Context, args []string) error {
	fs := newFlagSet("pay")
	var (
		name   = fs.String("name", "", "student name")
		class  = fs.String("class", "", "class")
		amount = fs.Float64("amount", 0, "amount paid")
		mode   = fs.String("mode", "", "payment mode")
		date   = fs.String("date", "", "payment date (default today)")
	)
	if err := parse(fs, args); err != nil {
		return err
	}
	p := &model.Payment{
		Name:   *name,
		Class:  *class,
		Amount: model.Amount(*amount),
		Mode:   *mode,
		Date:   r.paymentDate(*date),
	}
	res := r.client.RecordPayment(ctx, p)
	return r.print(res, res.Success)
}

// paymentDate defaults an empty date to today and normalizes recognizable
// ones. Anything else is sent as typed.
func (r *Runner) paymentDate(s string) string {
	d, err := dateutil.Normalize(s, r.now)
	if err != nil {
		return s
	}
	return d
}

func (r *Runner) export(ctx context.Context, args []string) error {
	fs := newFlagSet("export")
	class := fs.String("class", model.AllClasses, "class filter")
	outFile := fs.String("out", "", "output .xlsx file")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *outFile == "" {
		return fmt.Errorf("%w: export requires -out", ErrUsage)
	}

	res := r.client.ListStudents(ctx, *class)
	if !res.Success {
		return r.print(ExportSummary{Success: false, Message: res.Message}, false)
	}
	if err := writeStudentsFile(*outFile, res.Students); err != nil {
		return err
	}
	r.logger.Info(ctx, "students exported", logger.String("file", *outFile), logger.Int("students", len(res.Students)))
	return r.print(ExportSummary{Success: true, Students: len(res.Students), File: *outFile}, true)
}

func writeStudentsFile(name string, students []model.Student) (err error) {
	if dir := filepath.Dir(name); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	file, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close file: %w", cerr)
		}
	}()
	return spreadsheet.WriteStudents(file, students)
}

func (r *Runner) importPayments(ctx context.Context, args []string) error {
	fs := newFlagSet("import")
	inFile := fs.String("in", "", "input .xlsx file")
	workers := fs.Int("workers", defaultImportWorkers, "concurrent remote calls")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *inFile == "" {
		return fmt.Errorf("%w: import requires -in", ErrUsage)
	}

	file, err := os.Open(*inFile)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	imp, err := spreadsheet.ReadPayments(file, r.now)
	if err != nil {
		return err
	}
	r.logger.Info(ctx, "importing payments",
		logger.String("file", *inFile),
		logger.Int("payments", len(imp.Payments)),
		logger.Int("skipped", len(imp.Skipped)),
		logger.Int("workers", *workers))

	summary := r.recordAll(ctx, imp, *workers)
	for _, s := range imp.Skipped {
		summary.Skipped = append(summary.Skipped, ImportFailed{Row: s.Row, Message: s.Reason})
	}
	summary.Success = len(summary.Failed) == 0 && len(summary.Skipped) == 0
	return r.print(summary, summary.Success)
}

// recordAll records payments with a bounded worker pool. Failures are
// returned in sheet order.
func (r *Runner) recordAll(ctx context.Context, imp *spreadsheet.Import, workers int) ImportSummary {
	if workers < 1 {
		workers = 1
	}

	var (
		mu      sync.Mutex
		summary ImportSummary
		wg      sync.WaitGroup
	)
	jobs := make(chan int, workers*2)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				p := imp.Payments[i]
				res := r.client.RecordPayment(ctx, &p)

				mu.Lock()
				if res.Success {
					summary.Recorded++
				} else {
					summary.Failed = append(summary.Failed, ImportFailed{Row: imp.Rows[i], Name: p.Name, Message: res.Message})
				}
				mu.Unlock()

				if !res.Success {
					r.logger.Warn(ctx, "payment not recorded",
						logger.Int("row", imp.Rows[i]),
						logger.String("name", p.Name),
						logger.String("message", res.Message))
				}
			}
		}()
	}

	for i := range imp.Payments {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	sort.Slice(summary.Failed, func(a, b int) bool { return summary.Failed[a].Row < summary.Failed[b].Row })
	return summary
}

func (r *Runner) print(v any, success bool) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	if !success {
		return ErrUnsuccessful
	}
	return nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUsage, fs.Name(), err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: %s: unexpected argument %q", ErrUsage, fs.Name(), fs.Arg(0))
	}
	return nil
}

// ExitCode maps a Run error to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrUsage):
		return 2
	default:
		return 1
	}
}
