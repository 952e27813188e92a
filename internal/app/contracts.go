package app

import (
	"context"

	"github.com/awmpietro/golang-itinerary-optimizer/internal/planner"
)

// PlanService is what the transports need from the service.
type PlanService interface {
	Plan(ctx context.Context, in PlanRequest) (planner.Result, error)
	PlanBatch(ctx context.Context, ins []PlanRequest) ([]BatchItem, error)
}
