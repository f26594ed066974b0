// Package notify публикует анонсы итогов розыгрышей во внешние каналы.
// Сейчас единственный канал — Telegram-чат сообщества.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/mymmrac/telego"
	"github.com/sirupsen/logrus"

	"sweetstream.tv/raffle-service/internal/common"
	"sweetstream.tv/raffle-service/internal/features/raffle"
)

// TelegramAnnouncer шлёт сообщение о победителях в настроенный чат.
// Анонс — best effort: его провал логируется, но не откатывает розыгрыш,
// который уже зафиксирован в базе.
type TelegramAnnouncer struct {
	bot    *telego.Bot
	chatID int64
	log    *logrus.Logger
}

// NewTelegramAnnouncer создаёт анонсера и проверяет токен через getMe.
func NewTelegramAnnouncer(ctx context.Context, token string, chatID int64, log *logrus.Logger) (*TelegramAnnouncer, error) {
	bot, err := telego.NewBot(token, telego.WithDiscardLogger())
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Telegram-бота: %w", err)
	}

	me, err := bot.GetMe(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки токена Telegram: %w", err)
	}
	log.WithField("bot_username", me.Username).Info("Telegram-анонсы включены")

	return &TelegramAnnouncer{bot: bot, chatID: chatID, log: log}, nil
}

// AnnounceWinners публикует итоги розыгрыша.
func (a *TelegramAnnouncer) AnnounceWinners(ctx context.Context, raf *raffle.Raffle, winners []*raffle.Winner) {
	var b strings.Builder
	fmt.Fprintf(&b, "🎉 Итоги розыгрыша «%s»\n\n", raf.Title)
	for _, w := range winners {
		fmt.Fprintf(&b, "%d. %s — билет #%d (билетов: %d)\n",
			w.SpinNumber, w.Username, w.SelectedTicketIndex, w.Tickets)
	}
	if raf.DrawSeed != nil {
		fmt.Fprintf(&b, "\nSeed для проверки: %s", *raf.DrawSeed)
	}
	if raf.DrawnAt != nil {
		fmt.Fprintf(&b, "\nРозыгрыш проведён: %s", common.FormatDateTime(*raf.DrawnAt))
	}

	_, err := a.bot.SendMessage(ctx, &telego.SendMessageParams{
		ChatID: telego.ChatID{ID: a.chatID},
		Text:   b.String(),
	})
	if err != nil {
		a.log.WithError(err).WithField("raffle_id", raf.ID).Error("не удалось отправить анонс победителей")
		return
	}
	a.log.WithField("raffle_id", raf.ID).Info("анонс победителей отправлен")
}
