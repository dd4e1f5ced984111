package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fieldmates/fieldmates/config"
	"github.com/fieldmates/fieldmates/db"
	"github.com/fieldmates/fieldmates/handlers"
	"github.com/fieldmates/fieldmates/middleware"
	"github.com/fieldmates/fieldmates/notify"
	"github.com/fieldmates/fieldmates/repositories"
	api "github.com/fieldmates/fieldmates/routes"
	"github.com/fieldmates/fieldmates/services"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	// Инициализация хаба уведомлений
	hub := notify.NewHub(logger)
	go hub.Run()
	logger.Info("notification hub started")

	// Инициализация репозиториев
	groupPostRepo := repositories.NewPostgresGroupPostRepository(dbConn)
	participantRepo := repositories.NewPostgresParticipantRepository(dbConn)
	scorecardRepo := repositories.NewPostgresGolfScorecardRepository(dbConn)
	scoresRepo := repositories.NewPostgresGolfScoresRepository(dbConn)
	logger.Info("repositories initialized")

	// Инициализация сервисов
	guard := services.NewGuard()
	groupPostService := services.NewGroupPostService(
		groupPostRepo,
		participantRepo,
		scorecardRepo,
		guard,
		hub,
		logger,
	)
	golfService := services.NewGolfService(
		groupPostRepo,
		participantRepo,
		scorecardRepo,
		scoresRepo,
		guard,
		hub,
		logger,
	)
	logger.Info("services initialized")

	// Инициализация обработчиков HTTP
	authenticator := middleware.NewAuthenticator(cfg.JWTSecretKey)
	groupPostHandler := handlers.NewGroupPostHandler(groupPostService)
	participantHandler := handlers.NewParticipantHandler(groupPostService)
	golfHandler := handlers.NewGolfHandler(golfService)
	webSocketHandler := handlers.NewWebSocketHandler(hub, groupPostService)
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		authenticator,
		cfg.CORSAllowedOrigins,
		groupPostHandler,
		participantHandler,
		golfHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		} else {
			logger.Info("server stopped gracefully")
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		} else {
			logger.Info("server shutdown complete")
		}
	}
	logger.Info("application exited")
}
