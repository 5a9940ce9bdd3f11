package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leengari/tabular/internal/config"
	"github.com/leengari/tabular/internal/domain/errors"
	"github.com/leengari/tabular/internal/domain/run"
	"github.com/leengari/tabular/internal/infrastructure/logging"
)

// App wires the command tree to the process streams
type App struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	configPath string
	logLevel   string
	cleanup    func()
}

func NewApp(stdin io.Reader, stdout, stderr io.Writer) *App {
	return &App{
		Stdin:   stdin,
		Stdout:  stdout,
		Stderr:  stderr,
		cleanup: func() {},
	}
}

// Run executes the command line in args (without the program name)
func (a *App) Run(ctx context.Context, args []string) error {
	defer func() { a.cleanup() }()

	root := a.rootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// Main runs args and reports a failure as a single line on Stderr.
// It returns the process exit status.
func (a *App) Main(ctx context.Context, args []string) int {
	err := a.Run(ctx, args)
	if err != nil {
		fmt.Fprintf(a.Stderr, "tabular: %v\n", err)
	}
	return errors.ExitCode(err)
}

func (a *App) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "tabular",
		Short:         "Transform tabular (CSV-like) data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(a.Stdin)
	root.SetOut(a.Stdout)
	root.SetErr(a.Stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.NewUsageError("%v", err)
	})

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a TOML config file (default $"+config.EnvConfigPath+")")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(a.joinCommand())
	return root
}

// setup loads the configuration and installs the process logger for one run
func (a *App) setup(r *run.Run) (*config.Config, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}

	logger, cleanup, err := logging.SetupLogger(a.Stderr, cfg.Log, r.ID)
	if err != nil {
		return nil, err
	}
	a.cleanup = cleanup
	slog.SetDefault(logger)

	return cfg, nil
}
