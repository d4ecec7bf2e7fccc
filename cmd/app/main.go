// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"ai-assistant-backend/internal/config"
	aiAdapters "ai-assistant-backend/internal/infra/adapters/ai"
	"ai-assistant-backend/internal/infra/adapters/openspeech"
	"ai-assistant-backend/internal/infra/adapters/xunfei"
	"ai-assistant-backend/internal/infra/api"
	"ai-assistant-backend/internal/infra/api/apiv1"
	pg "ai-assistant-backend/internal/infra/db/postgres"
	"ai-assistant-backend/internal/infra/i18n"
	"ai-assistant-backend/internal/infra/logging"
	"ai-assistant-backend/internal/infra/metrics"
	red "ai-assistant-backend/internal/infra/redis"
	"ai-assistant-backend/internal/infra/scheduler"
	"ai-assistant-backend/internal/infra/security"
	"ai-assistant-backend/internal/infra/worker"
	"ai-assistant-backend/internal/usecase"
)

// Set through -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
)

const reconcilerLockKey = "lock:ppt:reconciler"

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, verbose errors)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg *config.Config, logger *zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer redisClient.Close()

	secrets, err := security.NewSecretBox(cfg.Security.EncryptionKey)
	if err != nil {
		return fmt.Errorf("security: %w", err)
	}

	// ---- Repositories ----
	tm := pg.NewTxManager(pool)
	userRepo := pg.NewUserRepoCacheDecorator(pg.NewPostgresUserRepo(pool), redisClient, cfg.Redis.TTL, logger)
	codeRepo := pg.NewActivationCodeRepo(pool)
	credRepo := pg.NewVendorCredentialRepo(pool, secrets)
	jobRepo := pg.NewPPTJobRepo(pool)
	speechTasks := red.NewSpeechTaskStore(redisClient, cfg.Redis.TTL)

	// ---- Vendors ----
	slides := xunfei.NewFactory(cfg.PPT, logger)
	chatVendors := aiAdapters.NewMultiAIAdapter(aiAdapters.DefaultConstructors(cfg.Chat), 8)
	speechVendor := openspeech.NewClient(cfg.Speech.BaseURL, 30*time.Second)

	// ---- Use cases ----
	userUC := usecase.NewUserUseCase(userRepo, codeRepo, red.NewRateLimiter(redisClient), tm, usecase.UserOptions{
		LoginAttempts: cfg.JWT.LoginAttempts,
		LoginWindow:   cfg.JWT.LoginWindow,
	}, logger)
	codeUC := usecase.NewActivationCodeUseCase(codeRepo, logger)
	credUC := usecase.NewCredentialUseCase(credRepo, logger)
	chatUC := usecase.NewChatUseCase(credRepo, chatVendors, usecase.ChatOptions{
		SystemPrompt:      cfg.Chat.SystemPrompt,
		MaxTokens:         cfg.Chat.MaxTokens,
		PromptTokenBudget: cfg.Chat.PromptTokenBudget,
	}, logger)
	speechUC := usecase.NewSpeechUseCase(credRepo, speechTasks, speechVendor, usecase.SpeechOptions{
		UploadDir:     cfg.Speech.UploadDir,
		PublicBaseURL: cfg.Speech.PublicBaseURL,
		CallbackURL:   cfg.Speech.CallbackURL,
		MaxUploadMB:   int(cfg.Speech.MaxUploadMB),
	}, logger)

	waiter := usecase.NewPPTWaiter(jobRepo, credRepo, slides, usecase.PPTWaiterOptions{
		Interval:  cfg.PPT.PollInterval,
		MaxErrors: cfg.PPT.MaxErrors,
		LeaseTTL:  cfg.PPT.LeaseTTL,
	}, logger)
	reconciler := usecase.NewPPTReconciler(jobRepo, credRepo, slides, usecase.PPTReconcilerOptions{
		MaxErrors: cfg.PPT.MaxErrors,
		LeaseTTL:  cfg.PPT.LeaseTTL,
	}, logger)

	followers := worker.NewPool("ppt-followers", 4, 64, logger)
	followers.Start(ctx)
	defer followers.Stop()
	pptUC := usecase.NewPPTUseCase(jobRepo, credRepo, slides, waiter, followers, logger)

	if cfg.Admin.Username != "" {
		admin, created, err := userUC.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Email, cfg.Admin.Password)
		if err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		if created {
			logger.Info().Str("username", admin.Username).Msg("bootstrap admin created")
		}
	}

	// ---- Scheduler ----
	sched := scheduler.NewScheduler("ppt-reconciler", reconciler, scheduler.Options{
		Interval:    cfg.PPT.PollInterval,
		TickTimeout: cfg.PPT.TickTimeout,
		Locker:      red.NewLocker(redisClient),
		LockKey:     reconcilerLockKey,
	}, logger)
	sched.Start(ctx)
	defer sched.Stop()

	// ---- HTTP ----
	bundle, err := i18n.LoadBundle(i18n.LocalesFS, i18n.DefaultLang, "en")
	if err != nil {
		return fmt.Errorf("i18n: %w", err)
	}
	router := api.NewRouter(logger, map[string]api.HealthCheck{
		"postgres": func(ctx context.Context) error { return pool.Ping(ctx) },
		"redis":    redisClient.Ping,
	})
	apiv1.RegisterAPIV1(router, apiv1.NewServer(apiv1.Deps{
		Users:          userUC,
		Codes:          codeUC,
		Creds:          credUC,
		PPT:            pptUC,
		Chat:           chatUC,
		Speech:         speechUC,
		Auth:           apiv1.NewAuthManager(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpireMinutes)*time.Minute),
		I18n:           bundle,
		UploadDir:      cfg.Speech.UploadDir,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		WaitTimeout:    cfg.HTTP.WaitTimeout,
	}, logger))
	srv := api.NewServer(cfg.HTTP.Addr, router, cfg.HTTP.WaitTimeout, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", cfg.HTTP.Addr).Str("version", version).Msg("http server listening")
		return srv.Start()
	})
	g.Go(func() error {
		t := time.NewTicker(15 * time.Second)
		defer t.Stop()
		for {
			st := pool.Stat()
			metrics.SetDBPoolStats(st.TotalConns(), st.IdleConns(), st.AcquiredConns())
			select {
			case <-gctx.Done():
				return nil
			case <-t.C:
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutdown requested")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info().Msg("bye")
	return nil
}
