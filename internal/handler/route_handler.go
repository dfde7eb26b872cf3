package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/safetrack-app/safetrack-go/internal/bandit"
	"github.com/safetrack-app/safetrack-go/internal/middleware"
	"github.com/safetrack-app/safetrack-go/internal/models"
	"github.com/safetrack-app/safetrack-go/pkg/response"
)

// RouteHandler handles HTTP requests for route-type recommendation
type RouteHandler struct {
	bandit *bandit.Service
}

// NewRouteHandler creates a new route handler
func NewRouteHandler(b *bandit.Service) *RouteHandler {
	return &RouteHandler{bandit: b}
}

// Recommend handles GET /api/v1/routes/recommend
func (h *RouteHandler) Recommend(c *gin.Context) {
	locationID, err := strconv.ParseInt(c.Query("locationId"), 10, 64)
	if err != nil || locationID <= 0 {
		response.BadRequest(c, "locationId query parameter is required")
		return
	}

	routeType := h.bandit.SelectRouteType(middleware.UserID(c), locationID)
	response.Success(c, gin.H{
		"locationId": locationID,
		"routeType":  routeType,
	})
}

// Feedback handles POST /api/v1/routes/feedback
func (h *RouteHandler) Feedback(c *gin.Context) {
	var req models.RouteFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	if err := h.bandit.RecordFeedback(middleware.UserID(c), &req); err != nil {
		if errors.Is(err, bandit.ErrMissingLocation) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, "failed to record feedback")
		return
	}
	response.Success(c, gin.H{"recorded": true})
}

// Stats handles GET /api/v1/routes/stats
func (h *RouteHandler) Stats(c *gin.Context) {
	locationID, ok := optionalLocationID(c)
	if !ok {
		response.BadRequest(c, "invalid locationId")
		return
	}

	stats, err := h.bandit.Statistics(middleware.UserID(c), locationID)
	if err != nil {
		response.InternalError(c, "failed to get statistics")
		return
	}
	response.Success(c, stats)
}

// Reset handles POST /api/v1/routes/reset
func (h *RouteHandler) Reset(c *gin.Context) {
	locationID, ok := optionalLocationID(c)
	if !ok {
		response.BadRequest(c, "invalid locationId")
		return
	}

	if err := h.bandit.Reset(middleware.UserID(c), locationID); err != nil {
		response.InternalError(c, "failed to reset bandit state")
		return
	}
	response.Success(c, gin.H{"reset": true})
}

func optionalLocationID(c *gin.Context) (*int64, bool) {
	raw := c.Query("locationId")
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, false
	}
	return &id, true
}
