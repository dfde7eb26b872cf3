package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/safetrack-app/safetrack-go/internal/middleware"
	"github.com/safetrack-app/safetrack-go/internal/repository"
	"github.com/safetrack-app/safetrack-go/pkg/response"
)

// NotificationHandler handles HTTP requests for push device tokens
type NotificationHandler struct {
	tokens *repository.TokenRepository
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(tokens *repository.TokenRepository) *NotificationHandler {
	return &NotificationHandler{tokens: tokens}
}

type tokenRequest struct {
	Token string `json:"token" binding:"required,max=512"`
}

// RegisterToken handles POST /api/v1/notifications/tokens
func (h *NotificationHandler) RegisterToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	if err := h.tokens.Register(middleware.UserID(c), req.Token); err != nil {
		response.InternalError(c, "failed to register token")
		return
	}
	response.Success(c, gin.H{"registered": true})
}
