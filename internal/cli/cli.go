// Package cli implements the paymentctl subcommands on top of the remote
// client and the spreadsheet adapter.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/okian/studentpay/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging initializes the global logger on stderr, mirrored to logFile
// when one is given. Stdout is left for command output.
func SetupLogging(logFile, level string) (io.Closer, error) {
	var (
		w      io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w = io.MultiWriter(os.Stderr, file)
		closer = file
	}

	if err := logger.Init(logger.WithWriter(w)); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := logger.SetLevelString(level); err != nil {
		return nil, err
	}
	if logFile != "" {
		logger.Get().Debug(context.Background(), "logging to file", logger.String("logFile", logFile))
	}
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// ShowHelp prints usage information for paymentctl.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `paymentctl
==========

Command-line client for the student payments endpoint.

Usage:
  paymentctl [global options] <command> [command options]

Global options:
  -endpoint string
        Remote endpoint URL (default: STUDENTPAY_ENDPOINT)
  -timeout duration
        Per-call timeout (default: STUDENTPAY_REMOTE_TIMEOUT, 0 = none)
  -log string
        Also write logs to this file
  -log-level string
        debug, info, warn or error (default "warn")
  -help
        Show this help message

Commands:
  login    -user NAME -pin PIN
  students [-class CLASS]
  pay      -name NAME -amount N [-class CLASS] [-mode MODE] [-date DATE]
  export   -class CLASS -out FILE.xlsx
  import   -in FILE.xlsx [-workers N]

Every command prints its result as JSON and exits 1 when the result is
unsuccessful.

Examples:
  paymentctl -endpoint https://script.example.com/exec login -user admin -pin 1234
  paymentctl students -class 5A
  paymentctl pay -name "Asha" -class 5A -amount 1500 -mode Cash
  paymentctl export -class ALL -out students.xlsx
  paymentctl import -in payments.xlsx -workers 4
`)
}
