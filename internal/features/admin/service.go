// Package admin — service.go содержит логику входа и проверки сессий.
package admin

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"sweetstream.tv/raffle-service/internal/common"
	"sweetstream.tv/raffle-service/internal/config"
)

// Service — сервис админ-аутентификации.
type Service struct {
	repo *Repository
	cfg  *config.Config
}

// NewService создаёт сервис админки.
func NewService(repo *Repository, cfg *config.Config) *Service {
	return &Service{repo: repo, cfg: cfg}
}

// generateSecureToken возвращает 256-битный случайный токен (base64url).
func generateSecureToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("ошибка генерации токена: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// Login проверяет пароль и выдаёт сессию.
// После maxLoginFailures неудач за failureWindow вход блокируется.
func (s *Service) Login(ctx context.Context, password, remoteAddr string) (*Session, error) {
	failures, err := s.repo.CountRecentFailures(ctx, time.Now().Add(-failureWindow))
	if err != nil {
		return nil, err
	}
	if failures >= maxLoginFailures {
		log.WithField("remote_addr", remoteAddr).Warn("вход заблокирован: слишком много попыток")
		return nil, common.ErrTooManyAttempts
	}

	ok, err := verifyArgon2id(s.cfg.AdminPasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		if recErr := s.repo.RecordFailure(ctx, remoteAddr); recErr != nil {
			log.WithError(recErr).Error("не удалось записать попытку входа")
		}
		log.WithField("remote_addr", remoteAddr).Warn("неверный пароль администратора")
		return nil, common.ErrWrongPassword
	}

	if err := s.repo.ClearFailures(ctx); err != nil {
		log.WithError(err).Error("не удалось очистить журнал попыток")
	}

	token, err := generateSecureToken()
	if err != nil {
		return nil, err
	}
	session, err := s.repo.CreateSession(ctx, token, time.Now().Add(s.cfg.AdminSessionTTL))
	if err != nil {
		return nil, err
	}

	log.WithField("remote_addr", remoteAddr).Info("администратор вошёл")
	return session, nil
}

// Authenticate проверяет bearer-токен.
func (s *Service) Authenticate(ctx context.Context, token string) error {
	if token == "" {
		return common.ErrNotAuthorized
	}
	_, err := s.repo.GetSessionByToken(ctx, token)
	return err
}

// Logout завершает сессию.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.repo.DeleteSession(ctx, token)
}

// CleanupExpiredSessions удаляет протухшие сессии (крон-задача).
func (s *Service) CleanupExpiredSessions(ctx context.Context) {
	n, err := s.repo.DeleteExpiredSessions(ctx)
	if err != nil {
		log.WithError(err).Error("очистка сессий не удалась")
		return
	}
	if n > 0 {
		log.WithField("deleted", n).Info("протухшие админ-сессии удалены")
	}
}
