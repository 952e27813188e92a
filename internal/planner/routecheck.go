// internal/planner/routecheck.go
package planner

import (
	"fmt"

	"github.com/katalvlaran/lvlath/core"
	"github.com/katalvlaran/lvlath/dfs"
)

// hotelNode stands for the day's hotel in route graphs.
const hotelNode = "@hotel"

// checkRoute verifies that arcs form exactly one closed route that starts
// at the hotel and visits order in sequence.
func checkRoute(order []string, arcs [][2]string) error {
	nodes := append([]string{hotelNode}, order...)
	known := make(map[string]bool, len(nodes))
	g := core.NewGraph(core.WithDirected(true))
	for _, id := range nodes {
		known[id] = true
		if err := g.AddVertex(id); err != nil {
			return fmt.Errorf("route graph: %w", err)
		}
	}

	if len(arcs) != len(nodes) {
		return fmt.Errorf("%w: %d arcs for %d stops", ErrBrokenRoute, len(arcs), len(nodes))
	}
	edges := make(map[[2]string]bool, len(arcs))
	for _, a := range arcs {
		if !known[a[0]] || !known[a[1]] {
			return fmt.Errorf("%w: arc %s->%s leaves the visited set", ErrBrokenRoute, a[0], a[1])
		}
		if _, err := g.AddEdge(a[0], a[1], 0); err != nil {
			return fmt.Errorf("%w: arc %s->%s: %v", ErrBrokenRoute, a[0], a[1], err)
		}
		edges[a] = true
	}

	_, cycles, err := dfs.DetectCycles(g)
	if err != nil {
		return fmt.Errorf("route graph: %w", err)
	}
	// Cycles are reported closed: [v0 ... v0].
	if len(cycles) != 1 || len(cycles[0])-1 != len(nodes) {
		return fmt.Errorf("%w: %d cycles found", ErrBrokenRoute, len(cycles))
	}

	for i, from := range nodes {
		to := nodes[(i+1)%len(nodes)]
		if !edges[[2]string{from, to}] {
			return fmt.Errorf("%w: visit order %s->%s is not an arc", ErrBrokenRoute, from, to)
		}
	}
	return nil
}
