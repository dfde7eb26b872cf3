package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/safetrack-app/safetrack-go/internal/middleware"
	"github.com/safetrack-app/safetrack-go/internal/models"
	"github.com/safetrack-app/safetrack-go/internal/repository"
	"github.com/safetrack-app/safetrack-go/internal/tracking"
	"github.com/safetrack-app/safetrack-go/pkg/response"
)

// TrackingHandler handles HTTP requests for fix ingestion, trips and patterns
type TrackingHandler struct {
	segmenter *tracking.Segmenter
	trips     *repository.TripRepository
	patterns  *repository.PatternRepository
}

// NewTrackingHandler creates a new tracking handler
func NewTrackingHandler(
	segmenter *tracking.Segmenter,
	trips *repository.TripRepository,
	patterns *repository.PatternRepository,
) *TrackingHandler {
	return &TrackingHandler{segmenter: segmenter, trips: trips, patterns: patterns}
}

// IngestFixes handles POST /api/v1/tracking/fixes
func (h *TrackingHandler) IngestFixes(c *gin.Context) {
	var req models.FixBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	result, err := h.segmenter.Ingest(middleware.UserID(c), req.Fixes)
	if err != nil {
		response.InternalError(c, "failed to ingest fixes")
		return
	}
	response.Success(c, result)
}

// GetTrips handles GET /api/v1/tracking/trips
func (h *TrackingHandler) GetTrips(c *gin.Context) {
	var filter models.TripFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "invalid query parameters")
		return
	}

	trips, total, err := h.trips.GetTrips(middleware.UserID(c), filter)
	if err != nil {
		response.InternalError(c, "failed to get trips")
		return
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 100
	}
	if filter.PageSize > 1000 {
		filter.PageSize = 1000
	}
	totalPages := int(total) / filter.PageSize
	if int(total)%filter.PageSize > 0 {
		totalPages++
	}

	response.Success(c, models.TripsResponse{
		Data:       trips,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: totalPages,
	})
}

// DeleteTrip handles DELETE /api/v1/tracking/trips/:id
func (h *TrackingHandler) DeleteTrip(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid trip id")
		return
	}

	deleted, err := h.trips.DeleteByIDAndUser(id, middleware.UserID(c))
	if err != nil {
		response.InternalError(c, "failed to delete trip")
		return
	}
	if !deleted {
		response.NotFound(c, "trip not found")
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// GetPatterns handles GET /api/v1/tracking/patterns
func (h *TrackingHandler) GetPatterns(c *gin.Context) {
	patterns, err := h.patterns.GetByUser(middleware.UserID(c))
	if err != nil {
		response.InternalError(c, "failed to get patterns")
		return
	}
	if patterns == nil {
		patterns = []models.Pattern{}
	}
	response.Success(c, patterns)
}
