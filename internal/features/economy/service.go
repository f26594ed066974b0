// Package economy — service.go содержит бизнес-логику экономики Sweet Coins.
package economy

import (
	"context"

	log "github.com/sirupsen/logrus"

	"sweetstream.tv/raffle-service/internal/common"
	"sweetstream.tv/raffle-service/internal/config"
)

// Service управляет экономикой платформы.
type Service struct {
	repo *Repository
	cfg  *config.Config
}

// NewService создаёт сервис экономики.
func NewService(repo *Repository, cfg *config.Config) *Service {
	return &Service{repo: repo, cfg: cfg}
}

// GetBalance возвращает текущий баланс пользователя.
func (s *Service) GetBalance(ctx context.Context, userID int64) (int64, error) {
	return s.repo.GetBalance(ctx, userID)
}

// GetStats возвращает баланс с накопленной статистикой.
func (s *Service) GetStats(ctx context.Context, userID int64) (*Balance, error) {
	return s.repo.GetStats(ctx, userID)
}

// Grant начисляет Sweet Coins (админ-операция: бонусы, компенсации).
func (s *Service) Grant(ctx context.Context, userID int64, amount int64, description string) (int64, error) {
	if amount <= 0 {
		return 0, common.ErrInvalidAmount
	}
	newBalance, err := s.repo.AddBalance(ctx, userID, amount, TxTypeAdminGrant, description)
	if err != nil {
		return 0, err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"amount":  amount,
		"balance": newBalance,
	}).Info("Начисление Sweet Coins")
	return newBalance, nil
}

// GetTransactionHistory возвращает последние 20 транзакций пользователя.
func (s *Service) GetTransactionHistory(ctx context.Context, userID int64) ([]*Transaction, error) {
	return s.repo.GetTransactions(ctx, userID, 20)
}

// CreateBalance создаёт начальный баланс для нового участника.
func (s *Service) CreateBalance(ctx context.Context, userID int64) error {
	return s.repo.CreateBalance(ctx, userID, s.cfg.EconomyStartingBalance)
}
