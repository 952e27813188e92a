// Package render turns itineraries into Graphviz DOT documents.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/awalterschulze/gographviz"

	"github.com/awmpietro/golang-itinerary-optimizer/internal/trip"
)

const graphName = "itinerary"

// DOT renders the day routes of it: one cluster per day holding the hotel,
// the visits joined in order and back to the hotel, and the meals as
// unconnected notes. Node ids are prefixed by the day so a POI may appear on
// several days.
func DOT(it trip.Itinerary) (string, error) {
	g := gographviz.NewEscape()
	if err := g.SetName(graphName); err != nil {
		return "", err
	}
	if err := g.SetDir(true); err != nil {
		return "", err
	}
	label := fmt.Sprintf("%s, total %.2f", it.Status, it.TotalCost)
	if err := g.AddAttr(graphName, "label", label); err != nil {
		return "", err
	}
	if err := g.AddAttr(graphName, "rankdir", "LR"); err != nil {
		return "", err
	}

	for _, d := range it.Days {
		if err := addDay(g, d); err != nil {
			return "", fmt.Errorf("day %d: %w", d.Day, err)
		}
	}
	return g.String(), nil
}

func addDay(g *gographviz.Escape, d trip.DayPlan) error {
	cluster := "cluster_day_" + strconv.Itoa(d.Day)
	attrs := map[string]string{
		"label": fmt.Sprintf("Day %d %s %s (%s, %.2f)", d.Day, d.Date, d.City, d.Transport.Mode, d.Cost.Total),
	}
	if err := g.AddSubGraph(graphName, cluster, attrs); err != nil {
		return err
	}
	// A colon in a node id reads back as a port, so ids avoid it.
	node := func(id string) string {
		return fmt.Sprintf("d%d_%s", d.Day, strings.ReplaceAll(id, ":", "_"))
	}

	var route []string
	if d.Hotel != nil {
		id := node(d.Hotel.ID)
		if err := g.AddNode(cluster, id, map[string]string{"label": d.Hotel.Name, "shape": "house"}); err != nil {
			return err
		}
		route = append(route, id)
	}
	for _, v := range d.Attractions {
		id := node(v.ID)
		label := fmt.Sprintf("%d. %s", v.Order, v.Name)
		if err := g.AddNode(cluster, id, map[string]string{"label": label, "shape": "box"}); err != nil {
			return err
		}
		route = append(route, id)
	}
	if d.Hotel != nil && len(route) > 1 {
		route = append(route, route[0])
	}
	for i := 0; i+1 < len(route); i++ {
		if err := g.AddEdge(route[i], route[i+1], true, map[string]string{"label": string(d.Transport.Mode)}); err != nil {
			return err
		}
	}

	for i, r := range d.Restaurants() {
		id := node(fmt.Sprintf("meal%d_%s", i, r.ID))
		if err := g.AddNode(cluster, id, map[string]string{"label": r.Name, "shape": "note", "style": "dashed"}); err != nil {
			return err
		}
	}
	return nil
}
