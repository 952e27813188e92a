package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/awmpietro/golang-itinerary-optimizer/internal/app"
	"github.com/awmpietro/golang-itinerary-optimizer/internal/config"
	"github.com/awmpietro/golang-itinerary-optimizer/internal/milp"
)

// deps are the collaborators a command may need replaced in tests. A nil
// solver means HiGHS.
type deps struct {
	solver milp.Solver
	stdin  io.Reader
}

func newRootCmd(d deps) *cobra.Command {
	if d.stdin == nil {
		d.stdin = os.Stdin
	}
	root := &cobra.Command{
		Use:   "planner",
		Short: "Constraint-driven itinerary optimizer",
		Long: `planner turns a trip request and a constraint set into an itinerary by
solving a mixed-integer program over the candidate attractions, hotels,
restaurants and trains.

Settings are read from PLANNER_* environment variables and the YAML file
named by PLANNER_CONFIG; flags override them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().Bool("verbose", false, "log to stderr")

	root.AddCommand(newSolveCmd(d))
	root.AddCommand(newValidateCmd(d))
	root.AddCommand(newRenderCmd(d))
	root.AddCommand(newImportCmd(d))
	return root
}

// Execute runs root with signal handling.
func Execute(ctx context.Context, root *cobra.Command) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return root.ExecuteContext(ctx)
}

// loadRuntime reads the process settings and applies the global flags.
// Logging stays off unless --verbose is given.
func loadRuntime(cmd *cobra.Command) (config.Runtime, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Runtime{}, zerolog.Nop(), err
	}
	if raw, _ := cmd.Flags().GetString("log-level"); raw != "" {
		lvl, err := zerolog.ParseLevel(raw)
		if err != nil {
			return config.Runtime{}, zerolog.Nop(), err
		}
		cfg.LogLevel = lvl
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); !verbose {
		return cfg, zerolog.Nop(), nil
	}
	return cfg, app.NewLogger(cmd.ErrOrStderr(), cfg), nil
}

// openInput opens path, or the command's stdin for "-".
func openInput(d deps, path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(d.stdin), nil
	}
	return os.Open(path)
}
