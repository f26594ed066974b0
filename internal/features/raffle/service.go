// Package raffle — service.go содержит бизнес-логику поверх репозитория:
// валидацию входа, метрики, рассылку в оверлей и анонсы победителей.
package raffle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"sweetstream.tv/raffle-service/internal/common"
	"sweetstream.tv/raffle-service/internal/config"
	"sweetstream.tv/raffle-service/internal/metrics"
)

// Broadcaster рассылает события розыгрыша подключённым клиентам оверлея.
// Реализуется overlay.Hub; nil — оверлей выключен.
type Broadcaster interface {
	Broadcast(raffleID int64, event string, payload any)
}

// Announcer публикует анонс победителей во внешний канал.
// Реализуется notify.TelegramAnnouncer; nil — анонсы выключены.
type Announcer interface {
	AnnounceWinners(ctx context.Context, raffle *Raffle, winners []*Winner)
}

// Service — сервис розыгрышей.
type Service struct {
	repo        *Repository
	cfg         *config.Config
	metrics     *metrics.Metrics
	broadcaster Broadcaster
	announcer   Announcer
	log         *logrus.Logger
}

// NewService создаёт сервис розыгрышей. broadcaster и announcer могут быть nil.
func NewService(repo *Repository, cfg *config.Config, m *metrics.Metrics, broadcaster Broadcaster, announcer Announcer, log *logrus.Logger) *Service {
	return &Service{
		repo:        repo,
		cfg:         cfg,
		metrics:     m,
		broadcaster: broadcaster,
		announcer:   announcer,
		log:         log,
	}
}

// CreateInput — параметры создания розыгрыша (админ).
type CreateInput struct {
	Title             string     `json:"title" binding:"required"`
	TicketCost        int64      `json:"ticketCost"`
	MaxTicketsPerUser int64      `json:"maxTicketsPerUser"`
	TotalTicketsCap   int64      `json:"totalTicketsCap"`
	StartAt           time.Time  `json:"startAt" binding:"required"`
	EndAt             *time.Time `json:"endAt"`
	SubOnly           bool       `json:"subOnly"`
	Hidden            bool       `json:"hidden"`
	HiddenUntilStart  bool       `json:"hiddenUntilStart"`
}

// Create создаёт розыгрыш.
func (s *Service) Create(ctx context.Context, in *CreateInput) (*Raffle, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, common.NewUserError("Title must not be empty.")
	}
	if in.TicketCost < 0 {
		return nil, common.NewUserError("Ticket cost must not be negative.")
	}
	if in.MaxTicketsPerUser < 0 || in.TotalTicketsCap < 0 {
		return nil, common.NewUserError("Ticket limits must not be negative.")
	}
	if in.MaxTicketsPerUser > 0 && in.TotalTicketsCap > 0 && in.MaxTicketsPerUser > in.TotalTicketsCap {
		return nil, common.NewUserError("Per-user limit cannot exceed the total ticket cap.")
	}
	if in.EndAt != nil && !in.EndAt.After(in.StartAt) {
		return nil, common.NewUserError("End time must be after start time.")
	}

	raf := &Raffle{
		Title:             title,
		TicketCost:        in.TicketCost,
		MaxTicketsPerUser: in.MaxTicketsPerUser,
		TotalTicketsCap:   in.TotalTicketsCap,
		StartAt:           in.StartAt,
		EndAt:             in.EndAt,
		SubOnly:           in.SubOnly,
		Hidden:            in.Hidden,
		HiddenUntilStart:  in.HiddenUntilStart,
	}
	created, err := s.repo.CreateRaffle(ctx, raf, time.Now())
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"raffle_id": created.ID,
		"title":     created.Title,
	}).Info("розыгрыш создан")
	return created, nil
}

// Get возвращает розыгрыш без фильтра видимости (админ и внутренние вызовы).
func (s *Service) Get(ctx context.Context, raffleID int64) (*Raffle, error) {
	return s.repo.GetRaffle(ctx, raffleID)
}

// GetVisible возвращает розыгрыш для публичного API: скрытые выглядят
// как несуществующие.
func (s *Service) GetVisible(ctx context.Context, raffleID int64) (*Raffle, error) {
	raf, err := s.repo.GetRaffle(ctx, raffleID)
	if err != nil {
		return nil, err
	}
	if !raf.VisibleAt(time.Now()) {
		return nil, common.ErrRaffleNotFound
	}
	return raf, nil
}

// ListVisible возвращает публично видимые розыгрыши.
func (s *Service) ListVisible(ctx context.Context) ([]*Raffle, error) {
	return s.repo.ListVisible(ctx, time.Now())
}

// GetSnapshot строит текущую таблицу диапазонов по записям участников.
func (s *Service) GetSnapshot(ctx context.Context, raffleID int64) (*Snapshot, error) {
	if _, err := s.repo.GetRaffle(ctx, raffleID); err != nil {
		return nil, err
	}
	entries, err := s.repo.GetEntries(ctx, raffleID)
	if err != nil {
		return nil, err
	}
	ranges, total := BuildEntryRanges(entries)
	return &Snapshot{
		RaffleID:     raffleID,
		TotalTickets: total,
		Entries:      ranges,
	}, nil
}

// GetWinners возвращает сохранённых победителей.
func (s *Service) GetWinners(ctx context.Context, raffleID int64) ([]*Winner, error) {
	if _, err := s.repo.GetRaffle(ctx, raffleID); err != nil {
		return nil, err
	}
	return s.repo.GetWinners(ctx, raffleID)
}

// Purchase покупает билеты и оповещает оверлей об обновлённой таблице.
func (s *Service) Purchase(ctx context.Context, userID, raffleID, quantity int64) (*PurchaseResult, error) {
	res, err := s.repo.PurchaseTickets(ctx, userID, raffleID, quantity, time.Now())
	if err != nil {
		_, isUserErr := common.AsUserError(err)
		if isUserErr || errors.Is(err, common.ErrRaffleNotFound) || errors.Is(err, common.ErrUserNotFound) {
			s.metrics.PurchasesTotal.WithLabelValues("rejected").Inc()
		} else {
			s.metrics.PurchasesTotal.WithLabelValues("error").Inc()
			s.log.WithError(err).WithFields(logrus.Fields{
				"raffle_id": raffleID,
				"user_id":   userID,
			}).Error("покупка билетов не удалась")
		}
		return nil, err
	}

	s.metrics.PurchasesTotal.WithLabelValues("ok").Inc()
	s.metrics.TicketsSold.Add(float64(quantity))
	s.log.WithFields(logrus.Fields{
		"raffle_id": raffleID,
		"user_id":   userID,
		"quantity":  quantity,
	}).Info("билеты куплены")

	s.broadcastSnapshot(ctx, raffleID)
	return res, nil
}

// GrantEntry выдаёт билеты вручную (админ) и оповещает оверлей.
func (s *Service) GrantEntry(ctx context.Context, raffleID, userID, tickets int64) (*Entry, error) {
	if tickets <= 0 {
		return nil, common.NewUserError("Quantity must be a positive number.")
	}
	entry, err := s.repo.GrantCustomEntry(ctx, raffleID, userID, tickets)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"raffle_id": raffleID,
		"user_id":   userID,
		"tickets":   tickets,
	}).Info("билеты выданы вручную")
	s.broadcastSnapshot(ctx, raffleID)
	return entry, nil
}

// Draw проводит розыгрыш, публикует результат в оверлей и анонсы.
func (s *Service) Draw(ctx context.Context, raffleID int64, numberOfWinners int) (*DrawResult, error) {
	if numberOfWinners <= 0 {
		return nil, common.NewUserError("Number of winners must be a positive number.")
	}
	if numberOfWinners > s.cfg.DrawMaxWinners {
		return nil, common.NewUserError("Too many winners requested.")
	}

	res, err := s.repo.DrawWinners(ctx, raffleID, numberOfWinners)
	if err != nil {
		if _, ok := common.AsUserError(err); ok {
			s.metrics.DrawsTotal.WithLabelValues("rejected").Inc()
		} else {
			s.metrics.DrawsTotal.WithLabelValues("error").Inc()
			s.log.WithError(err).WithField("raffle_id", raffleID).Error("розыгрыш не удался")
		}
		return nil, err
	}

	s.metrics.DrawsTotal.WithLabelValues("ok").Inc()
	s.metrics.DrawSpinsTotal.Add(float64(res.Spins))
	s.log.WithFields(logrus.Fields{
		"raffle_id":     raffleID,
		"winners":       len(res.Winners),
		"total_tickets": res.TotalTickets,
		"spins":         res.Spins,
	}).Info("розыгрыш завершён")

	if s.broadcaster != nil {
		s.broadcaster.Broadcast(raffleID, "draw_completed", res)
	}
	if s.announcer != nil {
		raf, err := s.repo.GetRaffle(ctx, raffleID)
		if err == nil {
			s.announcer.AnnounceWinners(ctx, raf, res.Winners)
		}
	}
	return res, nil
}

// Reset сбрасывает результаты розыгрыша (админ).
func (s *Service) Reset(ctx context.Context, raffleID int64) error {
	if err := s.repo.ResetDraw(ctx, raffleID, time.Now()); err != nil {
		return err
	}
	s.log.WithField("raffle_id", raffleID).Warn("результаты розыгрыша сброшены")
	s.broadcastSnapshot(ctx, raffleID)
	return nil
}

// VerifyResult — итог публичной верификации розыгрыша.
type VerifyResult struct {
	RaffleID     int64     `json:"raffleId"`
	DrawSeed     string    `json:"drawSeed"`
	TotalTickets int64     `json:"totalTickets"`
	Valid        bool      `json:"valid"`
	Winners      []*Winner `json:"winners"`
	Mismatches   []string  `json:"mismatches,omitempty"`
}

// Verify переигрывает розыгрыш по сохранённому seed и сверяет результат
// с таблицей победителей. Записи участников после фиксации розыгрыша
// неизменяемы, поэтому переигровка обязана сойтись побайтно.
func (s *Service) Verify(ctx context.Context, raffleID int64) (*VerifyResult, error) {
	raf, err := s.repo.GetRaffle(ctx, raffleID)
	if err != nil {
		return nil, err
	}
	if !raf.IsDrawn() || raf.DrawSeed == nil {
		return nil, common.NewUserError("Winners have not been drawn for this raffle.")
	}

	entries, err := s.repo.GetEntries(ctx, raffleID)
	if err != nil {
		return nil, err
	}
	stored, err := s.repo.GetWinners(ctx, raffleID)
	if err != nil {
		return nil, err
	}

	replayed, err := ReplayDraw(entries, *raf.DrawSeed, len(stored))
	if err != nil {
		return nil, err
	}

	_, total := BuildEntryRanges(entries)
	result := &VerifyResult{
		RaffleID:     raffleID,
		DrawSeed:     *raf.DrawSeed,
		TotalTickets: total,
		Valid:        true,
		Winners:      stored,
	}
	for i, w := range stored {
		r := replayed[i]
		if w.EntryID != r.EntryID ||
			w.UserID != r.UserID ||
			w.SelectedTicketIndex != r.SelectedTicketIndex ||
			w.TicketRangeStart != r.TicketRangeStart ||
			w.TicketRangeEnd != r.TicketRangeEnd ||
			w.SpinNumber != r.SpinNumber {
			result.Valid = false
			result.Mismatches = append(result.Mismatches,
				mismatchDescription(w, r))
		}
	}
	if !result.Valid {
		s.log.WithField("raffle_id", raffleID).Error("верификация розыгрыша не сошлась")
	}
	return result, nil
}

func mismatchDescription(stored, replayed *Winner) string {
	return fmt.Sprintf("spin %d: stored entry %d index %d, replayed entry %d index %d",
		stored.SpinNumber,
		stored.EntryID, stored.SelectedTicketIndex,
		replayed.EntryID, replayed.SelectedTicketIndex)
}

// ActivateDue переводит созревшие розыгрыши в active (крон-задача).
func (s *Service) ActivateDue(ctx context.Context) {
	n, err := s.repo.ActivateDue(ctx, time.Now())
	if err != nil {
		s.log.WithError(err).Error("активация розыгрышей не удалась")
		return
	}
	if n > 0 {
		s.log.WithField("activated", n).Info("розыгрыши переведены в active")
	}
}

func (s *Service) broadcastSnapshot(ctx context.Context, raffleID int64) {
	if s.broadcaster == nil {
		return
	}
	snap, err := s.GetSnapshot(ctx, raffleID)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.log.WithError(err).WithField("raffle_id", raffleID).Warn("не удалось построить снимок для оверлея")
		}
		return
	}
	s.broadcaster.Broadcast(raffleID, "entries_updated", snap)
}
