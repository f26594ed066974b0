// Package raffle — handlers.go содержит HTTP-обработчики розыгрышей.
// Публичная часть: список, карточка, таблица диапазонов, победители,
// верификация, покупка. Админская часть: создание, розыгрыш, сброс,
// ручная выдача билетов.
package raffle

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"sweetstream.tv/raffle-service/internal/common"
)

// Handlers — HTTP-обработчики розыгрышей.
type Handlers struct {
	service *Service
}

// NewHandlers создаёт обработчики розыгрышей.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

func raffleIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		common.RespondBadRequest(c, "Invalid raffle id.")
		return 0, false
	}
	return id, true
}

// List — GET /api/raffles
func (h *Handlers) List(c *gin.Context) {
	raffles, err := h.service.ListVisible(c.Request.Context())
	if err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondOK(c, gin.H{"raffles": raffles})
}

// Get — GET /api/raffles/:id
func (h *Handlers) Get(c *gin.Context) {
	id, ok := raffleIDParam(c)
	if !ok {
		return
	}
	raf, err := h.service.GetVisible(c.Request.Context(), id)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondOK(c, gin.H{"raffle": raf})
}

// Entries — GET /api/raffles/:id/entries
// Отдаёт текущую таблицу диапазонов (для оверлея и любопытных).
func (h *Handlers) Entries(c *gin.Context) {
	id, ok := raffleIDParam(c)
	if !ok {
		return
	}
	snap, err := h.service.GetSnapshot(c.Request.Context(), id)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondOK(c, gin.H{
		"raffleId":     snap.RaffleID,
		"totalTickets": snap.TotalTickets,
		"entries":      snap.Entries,
	})
}

// Winners — GET /api/raffles/:id/winners
func (h *Handlers) Winners(c *gin.Context) {
	id, ok := raffleIDParam(c)
	if !ok {
		return
	}
	winners, err := h.service.GetWinners(c.Request.Context(), id)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondOK(c, gin.H{"winners": winners})
}

// Verify — GET /api/raffles/:id/verify
// Переигрывает розыгрыш по опубликованному seed и сверяет с сохранёнными
// победителями. Эндпоинт публичный: в этом весь смысл доказуемой честности.
func (h *Handlers) Verify(c *gin.Context) {
	id, ok := raffleIDParam(c)
	if !ok {
		return
	}
	result, err := h.service.Verify(c.Request.Context(), id)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondOK(c, gin.H{"verification": result})
}

type purchaseRequest struct {
	UserID   int64 `json:"userId" binding:"required"`
	RaffleID int64 `json:"raffleId" binding:"required"`
	Quantity int64 `json:"quantity" binding:"required"`
}

// Purchase — POST /api/purchase
func (h *Handlers) Purchase(c *gin.Context) {
	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "Invalid request body.")
		return
	}
	res, err := h.service.Purchase(c.Request.Context(), req.UserID, req.RaffleID, req.Quantity)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondOK(c, gin.H{
		"ticketsPurchased": res.TicketsPurchased,
		"totalTickets":     res.TotalTickets,
		"newBalance":       res.NewBalance,
		"entryId":          res.EntryID,
	})
}

// --- Админские обработчики ---

// Create — POST /api/admin/raffles
func (h *Handlers) Create(c *gin.Context) {
	var in CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		common.RespondBadRequest(c, "Invalid request body.")
		return
	}
	raf, err := h.service.Create(c.Request.Context(), &in)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondCreated(c, gin.H{"raffle": raf})
}

type drawRequest struct {
	NumberOfWinners int `json:"numberOfWinners" binding:"required"`
}

// Draw — POST /api/admin/raffles/:id/draw
func (h *Handlers) Draw(c *gin.Context) {
	id, ok := raffleIDParam(c)
	if !ok {
		return
	}
	var req drawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "Invalid request body.")
		return
	}
	res, err := h.service.Draw(c.Request.Context(), id, req.NumberOfWinners)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondOK(c, gin.H{
		"winners":      res.Winners,
		"drawSeed":     res.DrawSeed,
		"totalTickets": res.TotalTickets,
	})
}

// Reset — POST /api/admin/raffles/:id/reset
func (h *Handlers) Reset(c *gin.Context) {
	id, ok := raffleIDParam(c)
	if !ok {
		return
	}
	if err := h.service.Reset(c.Request.Context(), id); err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondOK(c, gin.H{"raffleId": id})
}

type grantEntryRequest struct {
	UserID  int64 `json:"userId" binding:"required"`
	Tickets int64 `json:"tickets" binding:"required"`
}

// GrantEntry — POST /api/admin/raffles/:id/entries
func (h *Handlers) GrantEntry(c *gin.Context) {
	id, ok := raffleIDParam(c)
	if !ok {
		return
	}
	var req grantEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "Invalid request body.")
		return
	}
	entry, err := h.service.GrantEntry(c.Request.Context(), id, req.UserID, req.Tickets)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondCreated(c, gin.H{"entry": entry})
}

// AdminGet — GET /api/admin/raffles/:id (без фильтра видимости)
func (h *Handlers) AdminGet(c *gin.Context) {
	id, ok := raffleIDParam(c)
	if !ok {
		return
	}
	raf, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondOK(c, gin.H{"raffle": raf})
}
