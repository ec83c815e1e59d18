package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"elevex/internal/config"
	"elevex/internal/infrastructure"
	httpiface "elevex/internal/interfaces/http"
	"elevex/internal/repository"
	"elevex/internal/usecases"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := infrastructure.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("postgres connect failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := infrastructure.Migrate(ctx, pool); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}

	localDB, err := infrastructure.OpenLocalDB(cfg.LocalDBPath)
	if err != nil {
		log.Error("local db open failed", "error", err)
		os.Exit(1)
	}
	defer localDB.Close()

	// Local stores.
	quotaRepo := repository.NewQuotaRepository(localDB)
	identityRepo := repository.NewIdentityRepository(localDB)
	cacheRepo := repository.NewSessionCacheRepository(localDB)
	overrideRepo := repository.NewOverrideRepository(localDB)
	deviceRepo := repository.NewDeviceRepository(localDB)

	// Remote stores.
	remoteSessions := repository.NewRemoteSessionRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	catalogRepo := repository.NewCatalogRepository(pool)
	agentRepo := repository.NewAgentRepository(pool)

	resolver := usecases.NewPolicyResolver(overrideRepo, time.Minute)
	ledger := usecases.NewQuotaLedger(quotaRepo, resolver)
	bridge := usecases.NewIdentityBridge(identityRepo)
	sessions := usecases.NewSessionService(cacheRepo, remoteSessions, bridge, cfg.SyncMinInterval, log)
	answerer := infrastructure.NewRAGClient(cfg.RAGBaseURL, cfg.RAGTimeout)
	chat := usecases.NewChatService(sessions, ledger, usecases.NewRuleClassifier(), answerer,
		catalogRepo, agentRepo, bridge, infrastructure.NewSendGuard(), log)
	auth := usecases.NewAuthUsecase(userRepo, cfg.JWTSecret, cfg.JWTExpiry)
	devices := usecases.NewDeviceUsecase(deviceRepo, userRepo, resolver, cfg.JWTSecret, cfg.PairTokenTTL)

	accounts := usecases.NewAccountAdmin(userRepo, ledger)
	admin := httpiface.NewAdminHandler(resolver, ledger, accounts, userRepo, catalogRepo, agentRepo, log)
	handler := httpiface.NewHandler(auth, chat, sessions, ledger, resolver, devices, admin, log)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	handler.Register(r, cfg.RateLimitPerMin)

	if cfg.TelegramEnabled {
		bot, err := infrastructure.NewTelegramBot(cfg.TelegramToken, chat, log)
		if err != nil {
			log.Error("telegram init failed", "error", err)
			os.Exit(1)
		}
		go bot.Run(ctx)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", "error", err)
	}
	// Let in-flight remote mirror writes finish before the pools close.
	sessions.Flush()
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
