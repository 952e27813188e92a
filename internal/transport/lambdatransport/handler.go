package lambdatransport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"

	"github.com/awmpietro/golang-itinerary-optimizer/internal/app"
	"github.com/awmpietro/golang-itinerary-optimizer/internal/render"
	"github.com/awmpietro/golang-itinerary-optimizer/internal/transport/plandto"
)

type Handler struct {
	svc    app.PlanService
	logger zerolog.Logger
}

func NewHandler(svc app.PlanService, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Handle routes API Gateway requests: POST /v1/plan, POST /v1/plan/batch
// and GET /health. Routes are matched on the path suffix so a stage prefix
// does not matter.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	path := req.RawPath
	method := req.RequestContext.HTTP.Method
	switch {
	case strings.HasSuffix(path, "/health"):
		return jsonResp(http.StatusOK, map[string]any{"status": "ok"}), nil
	case method != "" && method != http.MethodPost:
		return jsonResp(http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"}), nil
	case strings.HasSuffix(path, "/plan/batch"):
		return h.PlanBatch(ctx, req)
	default:
		return h.Plan(ctx, req)
	}
}

func (h *Handler) Plan(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	body, err := readBody(req)
	if err != nil {
		return jsonResp(http.StatusBadRequest, map[string]any{"error": "invalid body", "details": err.Error()}), nil
	}

	var in plandto.PlanRequest
	if err := json.Unmarshal(body, &in); err != nil {
		return jsonResp(http.StatusBadRequest, map[string]any{"error": "invalid json", "details": err.Error()}), nil
	}

	res, err := h.svc.Plan(ctx, in)
	if err != nil {
		status := plandto.Status(err)
		h.logger.Warn().Err(err).Int("status", status).Msg("plan_request_failed")
		return jsonResp(status, plandto.ErrorBody(err)), nil
	}

	if req.QueryStringParameters["format"] == "dot" {
		dot, err := render.DOT(res.Itinerary)
		if err != nil {
			return jsonResp(http.StatusInternalServerError, map[string]any{"error": "render failed", "details": err.Error()}), nil
		}
		return events.APIGatewayV2HTTPResponse{
			StatusCode: http.StatusOK,
			Headers:    map[string]string{"content-type": "text/vnd.graphviz; charset=utf-8"},
			Body:       dot,
		}, nil
	}
	return jsonResp(http.StatusOK, plandto.FromResult(res)), nil
}

func (h *Handler) PlanBatch(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	body, err := readBody(req)
	if err != nil {
		return jsonResp(http.StatusBadRequest, map[string]any{"error": "invalid body", "details": err.Error()}), nil
	}

	var in plandto.BatchRequest
	if err := json.Unmarshal(body, &in); err != nil {
		return jsonResp(http.StatusBadRequest, map[string]any{"error": "invalid json", "details": err.Error()}), nil
	}
	if len(in.Requests) == 0 {
		return jsonResp(http.StatusBadRequest, plandto.ErrorBody(plandto.ErrEmptyBatch)), nil
	}

	items, err := h.svc.PlanBatch(ctx, in.Requests)
	if err != nil {
		return jsonResp(plandto.Status(err), plandto.ErrorBody(err)), nil
	}
	return jsonResp(http.StatusOK, plandto.FromBatch(items)), nil
}

func readBody(req events.APIGatewayV2HTTPRequest) ([]byte, error) {
	if req.IsBase64Encoded {
		return base64.StdEncoding.DecodeString(req.Body)
	}
	return []byte(req.Body), nil
}

func jsonResp(status int, body any) events.APIGatewayV2HTTPResponse {
	b, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{
			StatusCode: http.StatusInternalServerError,
			Headers:    map[string]string{"content-type": "application/json"},
			Body:       `{"error":"failed to encode response"}`,
		}
	}
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    map[string]string{"content-type": "application/json"},
		Body:       string(b),
	}
}
