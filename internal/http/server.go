// Package http собирает маршруты сервиса и управляет жизненным циклом
// HTTP-сервера.
package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"sweetstream.tv/raffle-service/internal/common"
	"sweetstream.tv/raffle-service/internal/config"
	"sweetstream.tv/raffle-service/internal/db/postgres"
	"sweetstream.tv/raffle-service/internal/features/admin"
	"sweetstream.tv/raffle-service/internal/features/economy"
	"sweetstream.tv/raffle-service/internal/features/members"
	"sweetstream.tv/raffle-service/internal/features/raffle"
	"sweetstream.tv/raffle-service/internal/http/middleware"
	"sweetstream.tv/raffle-service/internal/metrics"
	"sweetstream.tv/raffle-service/internal/overlay"
)

// Deps — всё, что нужно серверу для сборки маршрутов.
type Deps struct {
	Config  *config.Config
	Log     *logrus.Logger
	Metrics *metrics.Metrics
	DB      postgres.DB

	Raffles *raffle.Handlers
	Economy *economy.Handlers
	Members *members.Handlers
	Admin   *admin.Handlers

	// Hub == nil, если оверлей выключен (FEATURE_OVERLAY_ENABLED=false)
	Hub *overlay.Hub
}

// Server — HTTP-сервер сервиса.
type Server struct {
	httpServer *http.Server
	limiter    *middleware.RateLimiter
	log        *logrus.Logger
}

// NewServer собирает роутер и возвращает готовый к запуску сервер.
func NewServer(d Deps) *Server {
	if d.Config.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	limiter := middleware.NewRateLimiter(d.Config.RateLimitRequests, d.Config.RateLimitWindow)

	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.Recovery(d.Log),
		middleware.Logger(d.Log),
		middleware.Metrics(d.Metrics),
	)

	router.GET("/healthz", func(c *gin.Context) {
		var one int
		if err := d.DB.QueryRow(c.Request.Context(), "SELECT 1").Scan(&one); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if d.Hub != nil {
		router.GET("/ws/raffles/:id", func(c *gin.Context) {
			raffleID, err := strconv.ParseInt(c.Param("id"), 10, 64)
			if err != nil || raffleID <= 0 {
				common.RespondBadRequest(c, "Invalid raffle id.")
				return
			}
			d.Hub.HandleWS(c, raffleID)
		})
	}

	api := router.Group("/api", limiter.Middleware())
	{
		api.POST("/members", d.Members.Register)
		api.GET("/members/:id", d.Members.Get)

		api.GET("/users/:id/balance", d.Economy.Balance)
		api.GET("/users/:id/transactions", d.Economy.Transactions)

		api.GET("/raffles", d.Raffles.List)
		api.GET("/raffles/:id", d.Raffles.Get)
		api.GET("/raffles/:id/entries", d.Raffles.Entries)
		api.GET("/raffles/:id/winners", d.Raffles.Winners)
		api.GET("/raffles/:id/verify", d.Raffles.Verify)
		api.POST("/purchase", d.Raffles.Purchase)

		api.POST("/admin/login", d.Admin.Login)

		adminAPI := api.Group("/admin", d.Admin.AuthMiddleware())
		{
			adminAPI.POST("/logout", d.Admin.Logout)

			adminAPI.POST("/raffles", d.Raffles.Create)
			adminAPI.GET("/raffles/:id", d.Raffles.AdminGet)
			adminAPI.POST("/raffles/:id/draw", d.Raffles.Draw)
			adminAPI.POST("/raffles/:id/reset", d.Raffles.Reset)
			adminAPI.POST("/raffles/:id/entries", d.Raffles.GrantEntry)

			adminAPI.POST("/coins/grant", d.Economy.Grant)
			adminAPI.POST("/members/:id/subscriber", d.Members.SetSubscriber)
		}
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         d.Config.HTTPAddr,
			Handler:      router,
			ReadTimeout:  d.Config.HTTPReadTimeout,
			WriteTimeout: d.Config.HTTPWriteTimeout,
		},
		limiter: limiter,
		log:     d.Log,
	}
}

// Run запускает сервер и блокируется до его остановки.
func (s *Server) Run() error {
	s.log.WithField("addr", s.httpServer.Addr).Info("HTTP-сервер запущен")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown мягко останавливает сервер и фоновые части middleware.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Close()
	return s.httpServer.Shutdown(ctx)
}
