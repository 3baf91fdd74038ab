package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"telegram-repo-notifier/internal/application"
	"telegram-repo-notifier/internal/config"
	"telegram-repo-notifier/internal/domain/model"
	"telegram-repo-notifier/internal/domain/ports/adapter"
	pg "telegram-repo-notifier/internal/infra/db/postgres"
	gh "telegram-repo-notifier/internal/infra/github"
	gl "telegram-repo-notifier/internal/infra/gitlab"
	"telegram-repo-notifier/internal/infra/logging"
	"telegram-repo-notifier/internal/infra/metrics"
	red "telegram-repo-notifier/internal/infra/redis"
	tele "telegram-repo-notifier/internal/infra/telegram"
	"telegram-repo-notifier/internal/infra/web"
	"telegram-repo-notifier/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// .env is optional; real deployments set env vars directly.
	_ = godotenv.Load()

	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "developer mode (console logs, verbose)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.Register()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	defer func() { _ = redisClient.Close() }()

	// ---- Repositories ----
	userRepo := pg.NewPostgresUserRepo(pool)
	subRepo := pg.NewPostgresSubscriptionRepo(pool)
	settingsRepo := pg.NewPostgresSettingsRepo(pool)
	notifRepo := pg.NewPostgresNotificationRepo(pool)
	stateRepo := red.NewWizardStateRepo(redisClient, cfg.Redis.TTL)
	txManager := pg.NewTxManager(pool)

	// ---- Platform clients ----
	factories := map[model.Platform]adapter.GitHostFactory{
		model.PlatformGitLab: gl.NewFactory(cfg.GitLab.BaseURL),
		model.PlatformGitHub: gh.NewFactory(),
	}
	decoders := map[model.Platform]adapter.WebhookDecoder{
		model.PlatformGitLab: gl.NewDecoder(),
		model.PlatformGitHub: gh.NewDecoder(),
	}

	// ---- Use cases ----
	userUC := usecase.NewUserUseCase(userRepo, txManager, factories, logger)
	settingsUC := usecase.NewSettingsUseCase(settingsRepo, logger)
	subUC := usecase.NewSubscriptionUseCase(subRepo, factories, usecase.WebhookURLs{
		GitLab:       cfg.GitLabWebhookURL(),
		GitHub:       cfg.GitHubWebhookURL(),
		GitLabSecret: cfg.Webhook.GitLabSecret,
		GitHubSecret: cfg.Webhook.GitHubSecret,
	}, logger)
	historyUC := usecase.NewHistoryUseCase(notifRepo)
	actionsUC := usecase.NewActionsUseCase(factories, logger)

	// ---- Facade + Telegram ----
	facade := application.NewBotFacade(userUC, subUC, settingsUC, historyUC, actionsUC, stateRepo)
	botAdapter, err := tele.NewRealBotAdapter(cfg.Bot.Token, facade, cfg.Bot.Workers, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram init failed")
	}
	go func() {
		if err := botAdapter.StartPolling(ctx); err != nil && err != context.Canceled {
			logger.Error().Err(err).Msg("telegram polling stopped")
		}
	}()

	// ---- Notification pipeline ----
	resolver := usecase.NewSubscriberResolver(userRepo, subRepo, settingsRepo, logger)
	engine := usecase.NewEngine(resolver, logger)
	dispatcher := usecase.NewDispatcher(botAdapter, notifRepo, logger)
	router := usecase.NewRouter(engine, dispatcher, decoders, logger)

	// ---- Webhook server ----
	srv := web.NewServer(router, cfg.Webhook.GitLabSecret, cfg.Webhook.GitHubSecret, logger)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Webhook.Host, cfg.Webhook.Port),
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("webhook server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("webhook server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)
	botAdapter.StopPolling()
	cancel()
}
