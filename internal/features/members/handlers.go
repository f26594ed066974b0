// Package members — handlers.go содержит HTTP-обработчики участников.
package members

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"sweetstream.tv/raffle-service/internal/common"
)

// Handlers — HTTP-обработчики участников.
type Handlers struct {
	service *Service
}

// NewHandlers создаёт обработчики участников.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

type registerRequest struct {
	UserID   int64  `json:"userId" binding:"required"`
	Username string `json:"username" binding:"required"`
}

// Register — POST /api/members
// Идемпотентна: повторный вызов обновляет username, баланс не трогается.
func (h *Handlers) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "Invalid request body.")
		return
	}
	member, err := h.service.Register(c.Request.Context(), req.UserID, req.Username)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondCreated(c, gin.H{"member": member})
}

// Get — GET /api/members/:id
func (h *Handlers) Get(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || userID <= 0 {
		common.RespondBadRequest(c, "Invalid user id.")
		return
	}
	member, getErr := h.service.Get(c.Request.Context(), userID)
	if getErr != nil {
		common.RespondError(c, getErr)
		return
	}
	common.RespondOK(c, gin.H{"member": member})
}

type subscriberRequest struct {
	IsSubscriber *bool `json:"isSubscriber" binding:"required"`
}

// SetSubscriber — POST /api/admin/members/:id/subscriber
func (h *Handlers) SetSubscriber(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || userID <= 0 {
		common.RespondBadRequest(c, "Invalid user id.")
		return
	}
	var req subscriberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "Invalid request body.")
		return
	}
	if err := h.service.SetSubscriber(c.Request.Context(), userID, *req.IsSubscriber); err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondOK(c, gin.H{"userId": userID, "isSubscriber": *req.IsSubscriber})
}
