// Package plandto holds the wire shapes shared by the HTTP and Lambda
// transports.
package plandto

import (
	"errors"
	"net/http"

	"github.com/awmpietro/golang-itinerary-optimizer/internal/app"
	"github.com/awmpietro/golang-itinerary-optimizer/internal/planner"
	"github.com/awmpietro/golang-itinerary-optimizer/internal/trip"
)

type PlanRequest = app.PlanRequest

type PlanResponse struct {
	Itinerary    trip.Itinerary `json:"itinerary"`
	SolverStatus string         `json:"solver_status,omitempty"`
	Fallback     bool           `json:"fallback"`
	Reason       string         `json:"reason,omitempty"`
	Warnings     []string       `json:"warnings,omitempty"`
}

func FromResult(res planner.Result) PlanResponse {
	return PlanResponse{
		Itinerary:    res.Itinerary,
		SolverStatus: string(res.SolverStatus),
		Fallback:     res.Fallback,
		Reason:       res.Reason,
		Warnings:     res.Warnings,
	}
}

type BatchRequest struct {
	Requests []PlanRequest `json:"requests"`
}

type BatchEntry struct {
	Plan  *PlanResponse  `json:"plan,omitempty"`
	Error map[string]any `json:"error,omitempty"`
}

type BatchResponse struct {
	Results []BatchEntry `json:"results"`
}

func FromBatch(items []app.BatchItem) BatchResponse {
	out := BatchResponse{Results: make([]BatchEntry, len(items))}
	for i, item := range items {
		if item.Err != nil {
			out.Results[i] = BatchEntry{Error: ErrorBody(item.Err)}
			continue
		}
		plan := FromResult(*item.Result)
		out.Results[i] = BatchEntry{Plan: &plan}
	}
	return out
}

var ErrEmptyBatch = errors.New("requests must not be empty")

// Status maps a planning error to an HTTP status: problems with the request
// or its constraints are the caller's, anything else is ours.
func Status(err error) int {
	if planner.IsInputError(err) || errors.Is(err, ErrEmptyBatch) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func ErrorBody(err error) map[string]any {
	body := map[string]any{
		"error":   "plan failed",
		"details": err.Error(),
	}
	var fe *planner.FieldError
	if errors.As(err, &fe) {
		body["field"] = fe.Field
		if fe.Rule != "" {
			body["rule"] = fe.Rule
		}
	}
	return body
}
