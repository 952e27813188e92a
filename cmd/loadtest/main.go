package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/awmpietro/golang-itinerary-optimizer/internal/app"
	"github.com/awmpietro/golang-itinerary-optimizer/internal/transport/plandto"
	"github.com/awmpietro/golang-itinerary-optimizer/internal/trip"
)

type result struct {
	latency  time.Duration
	status   int
	fallback bool
	err      error
}

// summary aggregates results; latencies are kept for the percentiles.
type summary struct {
	latencies []time.Duration
	ok        int
	non2xx    int
	fallback  int
	errs      int
}

func (s *summary) add(r result) {
	s.latencies = append(s.latencies, r.latency)
	switch {
	case r.err != nil:
		s.errs++
	case r.status < 200 || r.status >= 300:
		s.non2xx++
	default:
		s.ok++
		if r.fallback {
			s.fallback++
		}
	}
}

func (s *summary) percentile(p int) time.Duration {
	sorted := slices.Clone(s.latencies)
	slices.Sort(sorted)
	return percentile(sorted, p)
}

func (s *summary) rps(d time.Duration) float64 {
	return float64(len(s.latencies)) / d.Seconds()
}

// passes reports whether the run met the target rate and P90 without
// failures. Fallback plans count as failures unless allowed.
func (s *summary) passes(target int, d, maxP90 time.Duration, allowFallback bool) bool {
	if s.errs > 0 || s.non2xx > 0 || (!allowFallback && s.fallback > 0) {
		return false
	}
	return s.rps(d) >= float64(target)*0.98 && s.percentile(90) < maxP90
}

func (s *summary) print(w io.Writer, target int, d time.Duration) {
	fmt.Fprintf(w, "Load test finished\n")
	fmt.Fprintf(w, "- target_rps: %d\n", target)
	fmt.Fprintf(w, "- achieved_rps: %.2f\n", s.rps(d))
	fmt.Fprintf(w, "- duration: %s\n", d)
	fmt.Fprintf(w, "- requests: %d\n", len(s.latencies))
	fmt.Fprintf(w, "- 2xx: %d\n", s.ok)
	fmt.Fprintf(w, "- fallback: %d\n", s.fallback)
	fmt.Fprintf(w, "- non_2xx: %d\n", s.non2xx)
	fmt.Fprintf(w, "- errors: %d\n", s.errs)
	fmt.Fprintf(w, "- avg_ms: %.3f\n", ms(average(s.latencies)))
	fmt.Fprintf(w, "- p50_ms: %.3f\n", ms(s.percentile(50)))
	fmt.Fprintf(w, "- p90_ms: %.3f\n", ms(s.percentile(90)))
	fmt.Fprintf(w, "- p99_ms: %.3f\n", ms(s.percentile(99)))
}

// send posts one plan request and reads whether the service fell back.
func send(client *http.Client, url string, body []byte) result {
	start := time.Now()
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return result{latency: time.Since(start), err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return result{latency: time.Since(start), err: err}
	}
	defer resp.Body.Close()

	r := result{status: resp.StatusCode}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var out plandto.PlanResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			r.err = fmt.Errorf("decode plan: %w", err)
		}
		r.fallback = out.Fallback
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	r.latency = time.Since(start)
	return r
}

func main() {
	url := flag.String("url", "http://localhost:8080/v1/plan", "plan endpoint URL")
	payloadFile := flag.String("payload", "", "plan request JSON file (defaults to a built-in one-day trip)")
	rps := flag.Int("rps", 10, "target requests per second")
	duration := flag.Duration("duration", 60*time.Second, "test duration")
	workers := flag.Int("workers", 50, "number of concurrent workers")
	timeout := flag.Duration("timeout", 60*time.Second, "HTTP client timeout")
	maxP90 := flag.Duration("max-p90", 2*time.Second, "P90 latency threshold")
	allowFallback := flag.Bool("allow-fallback", false, "do not fail the run on fallback plans")
	flag.Parse()

	if *rps <= 0 || *duration <= 0 || *workers <= 0 {
		fmt.Fprintln(os.Stderr, "rps, duration and workers must be > 0")
		os.Exit(2)
	}

	body, err := loadPayload(*payloadFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "payload: %v\n", err)
		os.Exit(1)
	}

	client := &http.Client{Timeout: *timeout}
	jobs := make(chan struct{}, *workers)
	results := make(chan result, *workers)

	var wg sync.WaitGroup
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				results <- send(client, *url, body)
			}
		}()
	}

	var sum summary
	collected := make(chan struct{})
	go func() {
		for r := range results {
			sum.add(r)
		}
		close(collected)
	}()

	ticker := time.NewTicker(time.Second / time.Duration(*rps))
	defer ticker.Stop()
	deadline := time.Now().Add(*duration)
	for now := range ticker.C {
		if now.After(deadline) {
			break
		}
		jobs <- struct{}{}
	}
	close(jobs)
	wg.Wait()
	close(results)
	<-collected

	if len(sum.latencies) == 0 {
		fmt.Fprintln(os.Stderr, "no requests executed")
		os.Exit(1)
	}
	sum.print(os.Stdout, *rps, *duration)

	if sum.passes(*rps, *duration, *maxP90, *allowFallback) {
		fmt.Printf("PASS: meets %d RPS and P90 < %s\n", *rps, maxP90)
		return
	}
	fmt.Println("FAIL: does not meet target (or has request errors or fallback plans)")
	os.Exit(1)
}

func percentile(items []time.Duration, p int) time.Duration {
	if len(items) == 0 {
		return 0
	}
	idx := (len(items) - 1) * p / 100
	return items[idx]
}

func average(items []time.Duration) time.Duration {
	if len(items) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range items {
		total += d
	}
	return total / time.Duration(len(items))
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}

func loadPayload(path string) ([]byte, error) {
	if path != "" {
		return os.ReadFile(path)
	}
	return json.Marshal(defaultPayload())
}

// defaultPayload is a one-day Rome trip carrying its own candidates, so the
// target needs no catalog.
func defaultPayload() app.PlanRequest {
	sc := trip.StageCandidates{
		Attractions: []trip.Attraction{
			{ID: "colosseum", Name: "Colosseum", Cost: 18, Duration: 120, Rating: 4.8},
			{ID: "pantheon", Name: "Pantheon", Cost: 5, Duration: 45, Rating: 4.7},
			{ID: "borghese", Name: "Galleria Borghese", Cost: 15, Duration: 90, Rating: 4.6},
		},
		Accommodations: []trip.Accommodation{
			{ID: "hotel-centro", Name: "Hotel Centro", Cost: 120, Rating: 4.1},
		},
		Restaurants: []trip.Restaurant{
			{ID: "bar-roma", Name: "Bar Roma", Cost: 6, Duration: 20, Rating: 4.0},
			{ID: "trattoria", Name: "Trattoria da Enzo", Cost: 25, Duration: 60, Rating: 4.6},
			{ID: "pizzeria", Name: "Pizzeria Ai Marmi", Cost: 18, Duration: 50, Rating: 4.4},
		},
		Transport: trip.TransportMatrix{},
	}
	ids := []string{"colosseum", "pantheon", "borghese", "hotel-centro"}
	for i := range ids {
		for j := i + 1; j < len(ids); j++ {
			sc.Transport.Set(ids[i], ids[j], trip.TransportEdge{BusDuration: 25, BusCost: 1.5, TaxiDuration: 12, TaxiCost: 14})
		}
	}
	return app.PlanRequest{
		Request: trip.Request{
			StartDate: "2025-05-01",
			Travelers: 2,
			Stages:    []trip.Stage{{Origin: "Milan", Destination: "Rome", Days: 1}},
		},
		Constraints: trip.ConstraintSet{AttractionsPerDay: 2},
		Candidates: &trip.Candidates{
			Stages:    []trip.StageCandidates{sc},
			Departure: []trip.TrainOption{{ID: "FR9511", Cost: 49.9, Duration: 180}},
			Return:    []trip.TrainOption{{ID: "FR9640", Cost: 49.9, Duration: 185}},
		},
	}
}
