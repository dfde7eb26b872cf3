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

// LocationHandler handles HTTP requests for saved locations
type LocationHandler struct {
	locations *repository.LocationRepository
	matcher   *tracking.Matcher
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(locations *repository.LocationRepository, matcher *tracking.Matcher) *LocationHandler {
	return &LocationHandler{locations: locations, matcher: matcher}
}

// GetLocations handles GET /api/v1/locations
func (h *LocationHandler) GetLocations(c *gin.Context) {
	locations, err := h.locations.GetByUser(middleware.UserID(c))
	if err != nil {
		response.InternalError(c, "failed to get locations")
		return
	}
	if locations == nil {
		locations = []models.SavedLocation{}
	}
	response.Success(c, locations)
}

// CreateLocation handles POST /api/v1/locations
func (h *LocationHandler) CreateLocation(c *gin.Context) {
	var input models.SavedLocationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	userID := middleware.UserID(c)
	location := &models.SavedLocation{
		UserID:    userID,
		Name:      input.Name,
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
		Address:   input.Address,
	}
	if err := h.locations.Insert(location); err != nil {
		response.InternalError(c, "failed to create location")
		return
	}

	h.matcher.Invalidate(userID)
	response.Success(c, location)
}

// UpdateLocation handles PUT /api/v1/locations/:id
func (h *LocationHandler) UpdateLocation(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid location id")
		return
	}

	var input models.SavedLocationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	userID := middleware.UserID(c)
	location := &models.SavedLocation{
		ID:        id,
		UserID:    userID,
		Name:      input.Name,
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
		Address:   input.Address,
	}
	updated, err := h.locations.Update(location)
	if err != nil {
		response.InternalError(c, "failed to update location")
		return
	}
	if !updated {
		response.NotFound(c, "location not found")
		return
	}

	h.matcher.Invalidate(userID)
	response.Success(c, location)
}

// DeleteLocation handles DELETE /api/v1/locations/:id
//
// Locations are deactivated rather than removed; existing trips keep their
// references.
func (h *LocationHandler) DeleteLocation(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid location id")
		return
	}

	userID := middleware.UserID(c)
	deleted, err := h.locations.Deactivate(id, userID)
	if err != nil {
		response.InternalError(c, "failed to delete location")
		return
	}
	if !deleted {
		response.NotFound(c, "location not found")
		return
	}

	h.matcher.Invalidate(userID)
	response.Success(c, gin.H{"deleted": true})
}
