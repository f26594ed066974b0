// Package main — точка входа сервиса розыгрышей.
// Загружает конфигурацию, инициализирует приложение и запускает HTTP-сервер.
// Поддерживает graceful shutdown по SIGINT/SIGTERM.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"sweetstream.tv/raffle-service/internal/app"
	"sweetstream.tv/raffle-service/internal/config"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// .env удобен для локальной разработки; в проде переменные приходят из окружения
	_ = godotenv.Load()

	logger := setupLogging()

	logger.Info("=== Сервис розыгрышей запускается ===")

	// Загружаем конфигурацию из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Не удалось загрузить конфигурацию")
	}

	// Устанавливаем уровень логирования из конфига
	if level, err := log.ParseLevel(cfg.AppLogLevel); err == nil {
		logger.SetLevel(level)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Инициализируем приложение (БД, сервисы, обработчики, сервер)
	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Не удалось инициализировать приложение")
	}
	defer application.DB.Close()

	// Запускаем планировщик задач (cron)
	application.Scheduler.Start(ctx)
	defer application.Scheduler.Stop()

	// Обрабатываем сигналы остановки (Ctrl+C, docker stop)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Запускаем HTTP-сервер в отдельной горутине
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- application.Server.Run()
	}()

	logger.Info("=== Сервис готов к работе ===")

	select {
	case sig := <-quit:
		logger.Infof("Получен сигнал %s, останавливаемся...", sig)
	case err := <-serverErr:
		if err != nil {
			logger.WithError(err).Error("HTTP-сервер упал")
		}
	}

	// Мягкая остановка: дорабатываем открытые запросы, отключаем оверлей
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := application.Server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Ошибка остановки HTTP-сервера")
	}
	if application.Hub != nil {
		application.Hub.Close()
	}
	cancel()

	logger.Info("=== Сервис остановлен ===")
}

// setupLogging настраивает формат логов.
func setupLogging() *log.Logger {
	logger := log.StandardLogger()
	logger.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetOutput(os.Stdout)
	logger.SetLevel(log.DebugLevel)
	return logger
}
