package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/awmpietro/golang-itinerary-optimizer/internal/render"
	"github.com/awmpietro/golang-itinerary-optimizer/internal/trip"
)

func newRenderCmd(d deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a saved plan as a Graphviz DOT graph",
		Long: `Render a saved plan as a Graphviz DOT graph.

The input is either the output of "planner solve" or a bare itinerary.

Example:
  planner solve --request trip.json --catalog catalog.json > plan.json
  planner render --plan plan.json | dot -Tsvg > plan.svg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("plan")
			f, err := openInput(d, path)
			if err != nil {
				return fmt.Errorf("open plan: %w", err)
			}
			defer f.Close()

			it, err := readItinerary(f)
			if err != nil {
				return fmt.Errorf("decode plan %s: %w", path, err)
			}
			dot, err := render.DOT(it)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), dot)
			return err
		},
	}
	cmd.Flags().String("plan", "", "plan or itinerary JSON (- for stdin)")
	_ = cmd.MarkFlagRequired("plan")
	return cmd
}

func readItinerary(r io.Reader) (trip.Itinerary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return trip.Itinerary{}, err
	}
	var wrapped struct {
		Itinerary *trip.Itinerary `json:"itinerary"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return trip.Itinerary{}, err
	}
	if wrapped.Itinerary != nil {
		return *wrapped.Itinerary, nil
	}
	var it trip.Itinerary
	if err := json.Unmarshal(data, &it); err != nil {
		return trip.Itinerary{}, err
	}
	return it, nil
}
