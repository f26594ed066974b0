// Package members — service.go содержит бизнес-логику регистрации участников.
package members

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"sweetstream.tv/raffle-service/internal/common"
	"sweetstream.tv/raffle-service/internal/features/economy"
)

// Service управляет участниками.
type Service struct {
	repo    *Repository
	economy *economy.Service
}

// NewService создаёт сервис участников.
func NewService(repo *Repository, economyService *economy.Service) *Service {
	return &Service{repo: repo, economy: economyService}
}

// Register регистрирует участника и гарантирует ему запись баланса.
// Повторный вызов безопасен (upsert) — обновляет только имя.
func (s *Service) Register(ctx context.Context, userID int64, username string) (*Member, error) {
	username = strings.TrimSpace(username)
	if userID <= 0 || username == "" {
		return nil, common.NewUserError("userId and username are required")
	}

	if err := s.repo.Upsert(ctx, &Member{UserID: userID, Username: username}); err != nil {
		return nil, err
	}
	// Начальный баланс создаётся вместе с участником
	if err := s.economy.CreateBalance(ctx, userID); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"user_id": userID, "username": username}).Info("Участник зарегистрирован")
	return s.repo.GetByUserID(ctx, userID)
}

// Get возвращает участника по ID.
func (s *Service) Get(ctx context.Context, userID int64) (*Member, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// SetSubscriber переключает флаг подписчика (админ-операция).
func (s *Service) SetSubscriber(ctx context.Context, userID int64, subscriber bool) error {
	return s.repo.SetSubscriber(ctx, userID, subscriber)
}
