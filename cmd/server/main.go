package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bildin8/postergram-juice-sub001/internal/config"
	"github.com/bildin8/postergram-juice-sub001/internal/infra"
	"github.com/bildin8/postergram-juice-sub001/internal/repository"
	"github.com/bildin8/postergram-juice-sub001/internal/router"
	"github.com/bildin8/postergram-juice-sub001/internal/service"
	"github.com/bildin8/postergram-juice-sub001/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// @title Postergram API
// @version 1.0
// @description POS sync, consumption and stock / cash reconciliation.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// dev: pretty console, prod: JSON
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	if err := infra.ApplyCountPolicy(db, cfg.EnforceSingleCountPerDay); err != nil {
		// the service still rejects duplicates, only without the index backing it
		log.Warn().Err(err).Msg("single completed count per day is not backed by an index")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Outbound integrations ────────────────────────────────────────────────
	posCB := infra.NewCircuitBreaker(infra.DefaultCBConfig("poster"))
	var pos service.POSClient
	if client := infra.NewPosterClient(infra.PosterConfig{
		BaseURL:        cfg.PosterAPIURL,
		Token:          cfg.PosterAPIToken,
		AmountsInCents: cfg.POSAmountsInCents,
		Location:       cfg.Location(),
	}, posCB); client != nil {
		pos = client
	} else {
		log.Warn().Msg("POSTER_API_TOKEN not set, sync endpoints will report not configured")
	}

	var chat worker.MessageSender
	if tg := infra.NewTelegramClient(cfg.TelegramAPIURL, cfg.TelegramBotToken, cfg.TelegramChatID,
		infra.NewCircuitBreaker(infra.DefaultCBConfig("telegram"))); tg != nil {
		chat = tg
	}
	var mailer worker.AlertMailer
	if m := infra.NewMailer(cfg); m != nil {
		mailer = m
	}

	// ── Async notifications ──────────────────────────────────────────────────
	dispatcher := worker.NewDispatcher(rdb)
	notifications := worker.NewNotificationWorker(chat, mailer, repository.NewReconciliationRepository(db), cfg.PDFStoragePath)
	worker.StartWorkerPool(ctx, rdb, notifications.Handlers(), cfg.WorkerPoolSize)

	svcs := service.NewServices(cfg, db, pos, dispatcher)

	scheduler := worker.NewSyncScheduler(svcs.Sync, worker.NewRedisLocker(rdb), cfg.SyncSchedule)
	if cfg.SyncEnabled {
		if err := scheduler.Start(); err != nil {
			log.Fatal().Err(err).Msg("failed to start sync scheduler")
		}
	}

	r := router.New(cfg, router.Deps{
		DB:         db,
		Redis:      rdb,
		Services:   svcs,
		Scheduler:  scheduler,
		POSBreaker: posCB,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Msgf("postergram backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	scheduler.Stop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	cancel()
	log.Info().Msg("server exited")
}
