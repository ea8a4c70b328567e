package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/tasukuchiba/message_board/internal/config"
	"github.com/tasukuchiba/message_board/internal/handlers"
	"github.com/tasukuchiba/message_board/internal/logging"
	"github.com/tasukuchiba/message_board/internal/service"
	"github.com/tasukuchiba/message_board/internal/storage"
	"github.com/tasukuchiba/message_board/internal/websocket"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// .envがあれば読み込む（無くても環境変数だけで動く）
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger := logging.L()
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := logging.Init(logging.Config{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: "message-board",
	})
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		logger.Warn().Err(envErr).Msg("failed to load .env file")
	}

	// ストレージの初期化
	store, err := initStorage(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("storage", cfg.StorageType).Msg("failed to initialize storage")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing storage")
		}
	}()

	// WebSocket Hubの初期化と起動
	hub := websocket.NewHub(logger)
	go hub.Run(ctx)

	// サービスとハンドラーの初期化
	messageService := service.NewMessageService(store, service.WithPublisher(hub))
	router := handlers.NewRouter(handlers.NewMessageHandler(messageService), hub, logger)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := runServer(ctx, srv, cfg.ShutdownTimeout); err != nil {
		logger.Error().Err(err).Msg("server error")
		return
	}
	logger.Info().Msg("server stopped")
}

// initStorage は設定に基づいてストレージを初期化する
func initStorage(cfg config.Config, logger zerolog.Logger) (storage.Storage, error) {
	switch cfg.StorageType {
	case config.StoragePostgres:
		databaseURL, err := cfg.PostgresURL()
		if err != nil {
			return nil, err
		}
		store, err := storage.NewPostgresStorage(databaseURL)
		if err != nil {
			return nil, err
		}
		logger.Info().Msg("using PostgreSQL storage")
		return store, nil

	case config.StorageMemory:
		logger.Warn().Msg("using in-memory storage, messages will not survive a restart")
		return storage.NewMemoryStorage(), nil

	default:
		store, err := storage.NewBadgerStorage(cfg.BadgerDir, logger)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("dir", cfg.BadgerDir).Msg("using badger storage")
		return store, nil
	}
}

// runServer はctxがキャンセルされるまでサーバーを動かし、その後グレースフルに停止する
func runServer(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
