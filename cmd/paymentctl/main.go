package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/studentpay/internal/cli"
	"github.com/okian/studentpay/internal/config"
	"github.com/okian/studentpay/internal/remote"
	"github.com/okian/studentpay/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run parses global flags from args, executes the subcommand and returns
// the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("paymentctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		endpoint = fs.String("endpoint", "", "Remote endpoint URL (default: STUDENTPAY_ENDPOINT)")
		timeout  = fs.Duration("timeout", 0, "Per-call timeout (default: STUDENTPAY_REMOTE_TIMEOUT)")
		logFile  = fs.String("log", "", "Also write logs to this file")
		logLevel = fs.String("log-level", "warn", "debug, info, warn or error")
		help     = fs.Bool("help", false, "Show help")
	)
	if err := fs.Parse(args); err != nil {
		_, _ = io.WriteString(stderr, err.Error()+"\n\n")
		cli.ShowHelp(stderr)
		return cli.ExitCode(cli.ErrUsage)
	}

	if *help {
		cli.ShowHelp(stdout)
		return 0
	}

	closer, err := cli.SetupLogging(*logFile, *logLevel)
	if err != nil {
		_, _ = io.WriteString(stderr, "failed to setup logging: "+err.Error()+"\n")
		return 1
	}
	defer func() { _ = closer.Close() }()

	overrides := map[string]any{"endpoint": *endpoint}
	if *timeout > 0 {
		overrides["remote_timeout"] = *timeout
	}
	cfg, err := config.Load(ctx, config.WithOverrides(overrides))
	if err != nil {
		_, _ = io.WriteString(stderr, "failed to load config: "+err.Error()+"\n")
		return 1
	}

	client := remote.New(cfg.Endpoint,
		remote.WithTimeout(cfg.RemoteTimeout),
		remote.WithLogger(logger.Named("remote")),
	)
	runner := cli.NewRunner(client, stdout,
		cli.WithClock(time.Now),
		cli.WithLogger(logger.Named("paymentctl")),
	)

	err = runner.Run(ctx, fs.Args())
	if errors.Is(err, cli.ErrUsage) {
		_, _ = io.WriteString(stderr, err.Error()+"\n\n")
		cli.ShowHelp(stderr)
	} else if err != nil && !errors.Is(err, cli.ErrUnsuccessful) {
		_, _ = io.WriteString(stderr, err.Error()+"\n")
	}
	return cli.ExitCode(err)
}
