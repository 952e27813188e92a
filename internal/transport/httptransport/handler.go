package httptransport

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/awmpietro/golang-itinerary-optimizer/internal/app"
	"github.com/awmpietro/golang-itinerary-optimizer/internal/render"
	"github.com/awmpietro/golang-itinerary-optimizer/internal/transport/plandto"
)

const dotContentType = "text/vnd.graphviz; charset=utf-8"

type Handler struct {
	svc    app.PlanService
	logger zerolog.Logger
}

func NewHandler(svc app.PlanService, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// NewRouter returns a gin engine serving the planner routes.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	h.Register(r)
	return r
}

func (h *Handler) Register(r gin.IRouter) {
	r.GET("/health", h.Health)
	v1 := r.Group("/v1")
	v1.POST("/plan", h.Plan)
	v1.POST("/plan/batch", h.PlanBatch)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Plan answers with the itinerary as JSON, or as a DOT graph of the day
// routes with ?format=dot.
func (h *Handler) Plan(c *gin.Context) {
	var in plandto.PlanRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json", "details": err.Error()})
		return
	}

	res, err := h.svc.Plan(c.Request.Context(), in)
	if err != nil {
		status := plandto.Status(err)
		h.logger.Warn().Err(err).Int("status", status).Msg("plan_request_failed")
		c.JSON(status, plandto.ErrorBody(err))
		return
	}

	if c.Query("format") == "dot" {
		dot, err := render.DOT(res.Itinerary)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "render failed", "details": err.Error()})
			return
		}
		c.Data(http.StatusOK, dotContentType, []byte(dot))
		return
	}
	c.JSON(http.StatusOK, plandto.FromResult(res))
}

func (h *Handler) PlanBatch(c *gin.Context) {
	var in plandto.BatchRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json", "details": err.Error()})
		return
	}
	if len(in.Requests) == 0 {
		c.JSON(http.StatusBadRequest, plandto.ErrorBody(plandto.ErrEmptyBatch))
		return
	}

	items, err := h.svc.PlanBatch(c.Request.Context(), in.Requests)
	if err != nil {
		c.JSON(plandto.Status(err), plandto.ErrorBody(err))
		return
	}
	c.JSON(http.StatusOK, plandto.FromBatch(items))
}
