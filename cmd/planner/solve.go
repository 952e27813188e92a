package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/awmpietro/golang-itinerary-optimizer/internal/app"
	"github.com/awmpietro/golang-itinerary-optimizer/internal/render"
	"github.com/awmpietro/golang-itinerary-optimizer/internal/transport/plandto"
)

func newSolveCmd(d deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Plan an itinerary for a request document",
		Long: `Plan an itinerary for a request document.

The document holds "request", "constraints" and optionally "candidates".
Without candidates they are assembled from the catalog given by --catalog
(JSON bundle) or --dsn (SQLite).

Examples:
  planner solve --request trip.json --catalog catalog.json
  planner solve --request trip.json --dsn catalog.db --format yaml
  cat trip.json | planner solve --request - --format dot`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(cmd, d)
		},
	}
	cmd.Flags().String("request", "", "request document (- for stdin)")
	cmd.Flags().String("catalog", "", "catalog JSON bundle")
	cmd.Flags().String("dsn", "", "catalog SQLite DSN")
	cmd.Flags().String("format", formatJSON, "output format (json, yaml or dot)")
	cmd.Flags().Duration("time-limit", 0, "solver time limit (0 keeps the configured one)")
	cmd.Flags().Float64("gap", -1, "relative MIP gap (negative keeps the configured one)")
	cmd.Flags().Int("max-candidates", -1, "per-category candidate cap (negative keeps the configured one)")
	_ = cmd.MarkFlagRequired("request")
	return cmd
}

func runSolve(cmd *cobra.Command, d deps) error {
	cfg, logger, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetString("catalog"); v != "" {
		cfg.DataFile, cfg.DataDSN = v, ""
	}
	if v, _ := cmd.Flags().GetString("dsn"); v != "" {
		cfg.DataDSN = v
	}
	if v, _ := cmd.Flags().GetDuration("time-limit"); v > 0 {
		cfg.SolverTimeLimit = v
	}
	if v, _ := cmd.Flags().GetFloat64("gap"); v >= 0 && v < 1 {
		cfg.SolverGap = v
	}
	if v, _ := cmd.Flags().GetInt("max-candidates"); v >= 0 {
		cfg.MaxCandidates = v
	}
	format, _ := cmd.Flags().GetString("format")

	in, err := readPlanRequest(cmd, d)
	if err != nil {
		return err
	}

	rt, err := app.Wire(cmd.Context(), cfg, d.solver, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	start := time.Now()
	res, err := rt.Service.Plan(cmd.Context(), in)
	if err != nil {
		return fmt.Errorf("plan: %w", err)
	}
	logger.Info().Dur("elapsed", time.Since(start)).Bool("fallback", res.Fallback).Msg("solve_finished")

	if format == formatDOT {
		dot, err := render.DOT(res.Itinerary)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), dot)
		return err
	}
	return writeDocument(cmd.OutOrStdout(), plandto.FromResult(res), format)
}

func readPlanRequest(cmd *cobra.Command, d deps) (app.PlanRequest, error) {
	path, _ := cmd.Flags().GetString("request")
	f, err := openInput(d, path)
	if err != nil {
		return app.PlanRequest{}, fmt.Errorf("open request: %w", err)
	}
	defer f.Close()

	var in app.PlanRequest
	if err := decodeJSON(f, &in); err != nil {
		return app.PlanRequest{}, fmt.Errorf("decode request %s: %w", path, err)
	}
	return in, nil
}
