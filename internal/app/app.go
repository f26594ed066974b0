// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД-пул, репозитории, сервисы, обработчики
// и собирает всё в один объект App.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"sweetstream.tv/raffle-service/internal/config"
	"sweetstream.tv/raffle-service/internal/db/postgres"
	"sweetstream.tv/raffle-service/internal/features/admin"
	"sweetstream.tv/raffle-service/internal/features/economy"
	"sweetstream.tv/raffle-service/internal/features/members"
	"sweetstream.tv/raffle-service/internal/features/raffle"
	httpserver "sweetstream.tv/raffle-service/internal/http"
	"sweetstream.tv/raffle-service/internal/jobs"
	"sweetstream.tv/raffle-service/internal/metrics"
	"sweetstream.tv/raffle-service/internal/notify"
	"sweetstream.tv/raffle-service/internal/overlay"
)

// App содержит все компоненты приложения.
type App struct {
	Server    *httpserver.Server
	Scheduler *jobs.Scheduler
	DB        *pgxpool.Pool
	Hub       *overlay.Hub
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*App, error) {
	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Метрики ===
	m := metrics.New("raffle")

	// === 3. Репозитории ===
	memberRepo := members.NewRepository(pool)
	economyRepo := economy.NewRepository(pool, cfg.EconomyCurrencyName)
	raffleRepo := raffle.NewRepository(pool, economyRepo, cfg.TxLockTimeout, cfg.TxTimeout)
	adminRepo := admin.NewRepository(pool)

	// === 4. Оверлей и анонсы (опциональные) ===
	var hub *overlay.Hub
	var broadcaster raffle.Broadcaster
	if cfg.FeatureOverlayEnabled {
		hub = overlay.NewHub(log, m)
		broadcaster = hub
	}

	var announcer raffle.Announcer
	if cfg.FeatureTelegramEnabled {
		tg, err := notify.NewTelegramAnnouncer(ctx, cfg.TelegramBotToken, cfg.TelegramAnnounceChatID, log)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("ошибка инициализации Telegram: %w", err)
		}
		announcer = tg
	}

	// === 5. Сервисы ===
	economyService := economy.NewService(economyRepo, cfg)
	memberService := members.NewService(memberRepo, economyService)
	raffleService := raffle.NewService(raffleRepo, cfg, m, broadcaster, announcer, log)
	adminService := admin.NewService(adminRepo, cfg)

	// === 6. Обработчики ===
	memberHandlers := members.NewHandlers(memberService)
	economyHandlers := economy.NewHandlers(economyService)
	raffleHandlers := raffle.NewHandlers(raffleService)
	adminHandlers := admin.NewHandlers(adminService)

	// === 7. HTTP-сервер ===
	server := httpserver.NewServer(httpserver.Deps{
		Config:  cfg,
		Log:     log,
		Metrics: m,
		DB:      pool,
		Raffles: raffleHandlers,
		Economy: economyHandlers,
		Members: memberHandlers,
		Admin:   adminHandlers,
		Hub:     hub,
	})

	// === 8. Планировщик задач ===
	scheduler := jobs.NewScheduler(cfg.AppTimezone, raffleService, adminService)

	return &App{
		Server:    server,
		Scheduler: scheduler,
		DB:        pool,
		Hub:       hub,
	}, nil
}

// runMigrations выполняет все SQL-миграции.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	// Инициализируем систему миграций
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return err
	}

	// Выполняем миграции по порядку
	migrations := []struct {
		version int
		sql     string
	}{
		{1, migration001Members},
		{2, migration002Economy},
		{3, migration003Raffles},
		{4, migration004Winners},
		{5, migration005Purchases},
		{6, migration006Admin},
	}

	for _, m := range migrations {
		if err := postgres.ExecMigrationSQL(ctx, pool, m.version, m.sql); err != nil {
			return fmt.Errorf("миграция %d: %w", m.version, err)
		}
		logrus.Infof("Миграция %d применена", m.version)
	}

	return nil
}

// SQL-миграции встроены в код для упрощения деплоя.

var migration001Members = `
CREATE TABLE IF NOT EXISTS members (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT UNIQUE NOT NULL,
    username VARCHAR(255) NOT NULL,
    is_subscriber BOOLEAN DEFAULT FALSE,
    is_banned BOOLEAN DEFAULT FALSE,
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_members_user_id ON members(user_id);
`

var migration002Economy = `
CREATE TABLE IF NOT EXISTS balances (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT UNIQUE NOT NULL REFERENCES members(user_id),
    balance BIGINT DEFAULT 0,
    total_earned BIGINT DEFAULT 0,
    total_spent BIGINT DEFAULT 0,
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS coin_transactions (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES members(user_id),
    amount BIGINT NOT NULL,
    transaction_type VARCHAR(50) NOT NULL,
    description TEXT,
    raffle_id BIGINT,
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_coin_transactions_user ON coin_transactions(user_id);
CREATE INDEX IF NOT EXISTS idx_coin_transactions_created_at ON coin_transactions(created_at DESC);
`

var migration003Raffles = `
CREATE TABLE IF NOT EXISTS raffles (
    id BIGSERIAL PRIMARY KEY,
    title VARCHAR(255) NOT NULL,
    ticket_cost BIGINT NOT NULL DEFAULT 0 CHECK (ticket_cost >= 0),
    max_tickets_per_user BIGINT NOT NULL DEFAULT 0,
    total_tickets_cap BIGINT NOT NULL DEFAULT 0,
    start_at TIMESTAMP NOT NULL,
    end_at TIMESTAMP,
    status VARCHAR(20) NOT NULL DEFAULT 'upcoming',
    draw_seed VARCHAR(64),
    drawn_at TIMESTAMP,
    sub_only BOOLEAN DEFAULT FALSE,
    hidden BOOLEAN DEFAULT FALSE,
    hidden_until_start BOOLEAN DEFAULT FALSE,
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_raffles_status ON raffles(status);
CREATE TABLE IF NOT EXISTS raffle_entries (
    id BIGSERIAL PRIMARY KEY,
    raffle_id BIGINT NOT NULL REFERENCES raffles(id),
    user_id BIGINT NOT NULL REFERENCES members(user_id),
    username VARCHAR(255) NOT NULL,
    tickets BIGINT NOT NULL CHECK (tickets >= 1),
    source VARCHAR(16) NOT NULL DEFAULT 'system',
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW(),
    UNIQUE (raffle_id, user_id)
);
CREATE INDEX IF NOT EXISTS idx_raffle_entries_raffle ON raffle_entries(raffle_id);
`

var migration004Winners = `
CREATE TABLE IF NOT EXISTS raffle_winners (
    id BIGSERIAL PRIMARY KEY,
    raffle_id BIGINT NOT NULL REFERENCES raffles(id),
    entry_id BIGINT NOT NULL REFERENCES raffle_entries(id),
    user_id BIGINT NOT NULL,
    username VARCHAR(255) NOT NULL,
    tickets BIGINT NOT NULL,
    selected_ticket_index BIGINT NOT NULL,
    ticket_range_start BIGINT NOT NULL,
    ticket_range_end BIGINT NOT NULL,
    spin_number INTEGER NOT NULL,
    created_at TIMESTAMP DEFAULT NOW(),
    UNIQUE (raffle_id, spin_number)
);
CREATE INDEX IF NOT EXISTS idx_raffle_winners_raffle ON raffle_winners(raffle_id);
`

var migration005Purchases = `
CREATE TABLE IF NOT EXISTS ticket_purchases (
    id BIGSERIAL PRIMARY KEY,
    raffle_id BIGINT NOT NULL REFERENCES raffles(id),
    user_id BIGINT NOT NULL REFERENCES members(user_id),
    quantity BIGINT NOT NULL,
    ticket_cost BIGINT NOT NULL,
    total_cost BIGINT NOT NULL,
    balance_after BIGINT NOT NULL,
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_ticket_purchases_user ON ticket_purchases(user_id);
CREATE INDEX IF NOT EXISTS idx_ticket_purchases_raffle ON ticket_purchases(raffle_id);
`

var migration006Admin = `
CREATE TABLE IF NOT EXISTS admin_sessions (
    id BIGSERIAL PRIMARY KEY,
    token VARCHAR(64) UNIQUE NOT NULL,
    created_at TIMESTAMP DEFAULT NOW(),
    expires_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_admin_sessions_expires ON admin_sessions(expires_at);
CREATE TABLE IF NOT EXISTS admin_login_attempts (
    id BIGSERIAL PRIMARY KEY,
    remote_addr VARCHAR(64),
    attempted_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_admin_login_attempts_time ON admin_login_attempts(attempted_at);
`
