// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jeranaias/rigrun-stream/internal/config"
	"github.com/jeranaias/rigrun-stream/internal/logging"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// app holds state shared by every command of one invocation.
type app struct {
	// Persistent flags
	configPath string
	logLevel   string
	logFile    string
	jsonOut    bool
	noColor    bool

	cfg    *config.Config
	logger *logrus.Logger
	closer io.Closer
}

// setup loads configuration and builds the logger. Flags win over the
// config file and environment.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return &ExitError{Code: ExitConfigError, Err: err}
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFile != "" {
		cfg.Log.File = a.logFile
	}
	if a.noColor {
		cfg.Output.Color = "never"
	}
	if err := cfg.Validate(); err != nil {
		return &ExitError{Code: ExitConfigError, Err: fmt.Errorf("invalid config: %w", err)}
	}

	logger, closer, err := logging.NewWithWriter(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return &ExitError{Code: ExitConfigError, Err: err}
	}

	ConfigureColor(cfg.Output.Color)

	a.cfg = cfg
	a.logger = logger
	a.closer = closer
	logger.WithField("command", cmd.Name()).Debug("configuration loaded")
	return nil
}

func (a *app) close() {
	if a.closer != nil {
		a.closer.Close()
		a.closer = nil
	}
}

// NewRootCmd builds the rigrun-stream command tree.
func NewRootCmd() *cobra.Command {
	cmd, _ := newRootCmd()
	return cmd
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}

	root := &cobra.Command{
		Use:   "rigrun-stream",
		Short: "Format streamed chat responses into clean markdown",
		Long: "Reads a line-oriented chat stream from a file, stdin or an HTTP endpoint,\n" +
			"repairs markdown as it arrives and prints the finalized message.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file (default: $RIGRUN_STREAM_CONFIG or ~/.rigrun-stream/config.toml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&a.logFile, "log-file", "", "Write logs to a rotating file instead of stderr")
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "Write machine-readable JSON to stdout")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable colored output")

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &UsageError{Message: err.Error()}
	})

	root.AddCommand(
		newFormatCmd(a),
		newSanitizeCmd(a),
		newCheckCmd(a),
		newValidateCmd(a),
		newVersionCmd(a),
	)
	return root, a
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return ExecuteArgs(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

// ExecuteArgs runs the command tree with explicit arguments and streams.
func ExecuteArgs(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root, a := newRootCmd()
	defer a.close()

	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Err != nil {
		w := stderr
		if a.jsonOut {
			w = stdout
		}
		DisplayError(w, err, a.jsonOut)
	}
	return GetExitCode(err)
}
