// Package economy — handlers.go содержит HTTP-обработчики экономики.
package economy

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"sweetstream.tv/raffle-service/internal/common"
)

// Handlers — HTTP-обработчики экономики Sweet Coins.
type Handlers struct {
	service *Service
}

// NewHandlers создаёт обработчики экономики.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

func userIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		common.RespondBadRequest(c, "Invalid user id.")
		return 0, false
	}
	return id, true
}

// Balance — GET /api/users/:id/balance
func (h *Handlers) Balance(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	stats, err := h.service.GetStats(c.Request.Context(), userID)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondOK(c, gin.H{"balance": stats})
}

// Transactions — GET /api/users/:id/transactions
func (h *Handlers) Transactions(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	txs, err := h.service.GetTransactionHistory(c.Request.Context(), userID)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondOK(c, gin.H{"transactions": txs})
}

type grantRequest struct {
	UserID      int64  `json:"userId" binding:"required"`
	Amount      int64  `json:"amount" binding:"required"`
	Description string `json:"description"`
}

// Grant — POST /api/admin/coins/grant
func (h *Handlers) Grant(c *gin.Context) {
	var req grantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "Invalid request body.")
		return
	}
	if req.Description == "" {
		req.Description = "Admin grant"
	}
	newBalance, err := h.service.Grant(c.Request.Context(), req.UserID, req.Amount, req.Description)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondOK(c, gin.H{"newBalance": newBalance})
}
