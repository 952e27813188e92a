package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/awmpietro/golang-itinerary-optimizer/internal/planner"
	"github.com/awmpietro/golang-itinerary-optimizer/internal/trip"
)

func newValidateCmd(d deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a request document without solving it",
		Long: `Check a request document without solving it.

The request is validated, the candidate filters are applied and the model is
built, so malformed or nonlinear constraints are reported the way the
service reports them. Skipped extension constraints are listed as warnings.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, d)
		},
	}
	cmd.Flags().String("request", "", "request document (- for stdin)")
	_ = cmd.MarkFlagRequired("request")
	return cmd
}

func runValidate(cmd *cobra.Command, d deps) error {
	in, err := readPlanRequest(cmd, d)
	if err != nil {
		return err
	}
	if err := in.Request.Validate(); err != nil {
		return err
	}

	var cands trip.Candidates
	if in.Candidates != nil {
		cands = *in.Candidates
	}
	cands, err = trip.ApplyFilters(in.Request, cands)
	if err != nil {
		return err
	}
	p, err := planner.Build(in.Request, in.Constraints.Defaults(in.Request), cands, planner.BuildOptions{})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ request valid: %d day(s), %d stage(s)\n", in.Request.TotalDays(), len(in.Request.Stages))
	fmt.Fprintf(out, "  model: %d variables, %d constraints\n", p.Model.NumVars(), len(p.Model.Constraints()))
	for _, w := range p.Warnings() {
		fmt.Fprintf(out, "! %s\n", w)
	}
	return nil
}
