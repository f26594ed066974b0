// Package admin — handlers.go содержит вход администратора и middleware
// проверки bearer-токена для группы /api/admin.
package admin

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"sweetstream.tv/raffle-service/internal/common"
)

// Handlers — HTTP-обработчики админ-аутентификации.
type Handlers struct {
	service *Service
}

// NewHandlers создаёт обработчики админки.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

type loginRequest struct {
	Password string `json:"password" binding:"required"`
}

// Login — POST /api/admin/login
func (h *Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "Invalid request body.")
		return
	}
	session, err := h.service.Login(c.Request.Context(), req.Password, c.ClientIP())
	if err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondOK(c, gin.H{
		"token":     session.Token,
		"expiresAt": session.ExpiresAt,
	})
}

// Logout — POST /api/admin/logout
func (h *Handlers) Logout(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		common.RespondError(c, common.ErrNotAuthorized)
		return
	}
	if err := h.service.Logout(c.Request.Context(), token); err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondOK(c, gin.H{})
}

// AuthMiddleware проверяет Authorization: Bearer <token> и обрывает
// запрос 401, если сессии нет или она протухла.
func (h *Handlers) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if err := h.service.Authenticate(c.Request.Context(), token); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Authorization required.",
			})
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
