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

	"github.com/zhouzirui/z-meeting/internal/config"
	"github.com/zhouzirui/z-meeting/internal/handler"
	"github.com/zhouzirui/z-meeting/internal/logging"
	"github.com/zhouzirui/z-meeting/internal/service/ai"
	meetingService "github.com/zhouzirui/z-meeting/internal/service/meeting"
	"github.com/zhouzirui/z-meeting/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fallback := logging.New(logging.Config{Service: "meeting-backend"})
		fallback.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := logging.New(logging.Config{
		Level:   cfg.Log.Level,
		Format:  logging.Format(cfg.Log.Format),
		Service: "meeting-backend",
	})
	if envErr != nil {
		logger.Warn().Err(envErr).Msg("failed to load .env file, continuing with system environment variables only")
	}

	st, err := openStore(cfg.Server)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	defer st.Close()

	// Initialize AI service
	var responder ai.Responder
	if cfg.AI.Enabled() {
		aiService, err := ai.NewService(ctx, cfg.AI, logging.Component(logger, "ai"))
		if err != nil {
			logger.Warn().Err(err).Msg("failed to initialize AI service, continuing with canned replies - 请检查 Ark 模型相关环境变量")
		} else {
			responder = aiService
			logger.Info().Str("model", cfg.AI.Model).Msg("AI service initialized successfully")
		}
	} else {
		logger.Info().Msg("Ark 凭证未配置，使用固定回复")
	}

	svc := meetingService.NewService(st, responder, meetingService.WithLogger(logging.Component(logger, "meeting")))
	router := handler.NewRouter(svc, logger)

	startServer(ctx, cfg.Server, router, logger)
}

func openStore(cfg config.ServerConfig) (store.Store, error) {
	if cfg.StorePath == "" {
		return store.NewMemoryStore(), nil
	}
	return store.OpenSQLite(cfg.StorePath)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger zerolog.Logger) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info().Str("addr", addr).Str("store", storeKind(serverCfg)).Msg("meeting backend listening")
	if err := runServer(ctx, srv); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}

func storeKind(cfg config.ServerConfig) string {
	if cfg.StorePath == "" {
		return "memory"
	}
	return "sqlite:" + cfg.StorePath
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
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
