package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storyhub/cmd/app"
	"storyhub/internal/config"
	"storyhub/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// setting up config
	cfg := config.LoadConfig()
	log := logger.New(cfg.AppEnv)

	if cfg.JWTSecretKey == "" {
		log.Fatal().Msg("JWT_SECRET_KEY не установлен")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Ошибка инициализации приложения")
	}
	defer application.Close()

	application.Start(ctx)

	// live streams stay open, so there is no write timeout
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           application.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	// Starting the server
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Str("store", cfg.StoreDriver).
			Str("env", cfg.AppEnv).
			Msg("Сервер запущен")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Ошибка запуска сервера")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Остановка сервера")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Ошибка остановки сервера")
	}
}
