// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: поминутная активация розыгрышей
// и ежечасная очистка протухших админ-сессий.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"sweetstream.tv/raffle-service/internal/features/admin"
	"sweetstream.tv/raffle-service/internal/features/raffle"
)

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron          *cron.Cron
	raffleService *raffle.Service
	adminService  *admin.Service
}

// NewScheduler создаёт планировщик задач в часовом поясе из конфигурации.
func NewScheduler(timezone string, raffleService *raffle.Service, adminService *admin.Service) *Scheduler {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		log.WithError(err).WithField("timezone", timezone).Warn("Не удалось загрузить часовой пояс, используем UTC")
		loc = time.UTC
	}

	return &Scheduler{
		cron:          cron.New(cron.WithLocation(loc)),
		raffleService: raffleService,
		adminService:  adminService,
	}
}

// Start запускает все фоновые задачи.
func (s *Scheduler) Start(ctx context.Context) {
	// Поминутная активация розыгрышей с наступившим стартом.
	// Витринное обновление: транзакция покупки в любом случае
	// перепроверяет времена сама.
	s.cron.AddFunc("* * * * *", func() {
		s.raffleService.ActivateDue(ctx)
	})

	// Ежечасная очистка протухших админ-сессий
	s.cron.AddFunc("0 * * * *", func() {
		log.Debug("[CRON] Очистка админ-сессий")
		s.adminService.CleanupExpiredSessions(ctx)
	})

	s.cron.Start()
	log.Info("Планировщик задач запущен")
}

// Stop останавливает планировщик и дожидается завершения текущих задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
