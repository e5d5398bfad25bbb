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

	"github.com/severand/InteriorBot/internal/application"
	"github.com/severand/InteriorBot/internal/config"
	"github.com/severand/InteriorBot/internal/domain/ports/adapter"
	genAdapters "github.com/severand/InteriorBot/internal/infra/adapters/imagegen"
	payAdapters "github.com/severand/InteriorBot/internal/infra/adapters/payment"
	tele "github.com/severand/InteriorBot/internal/infra/adapters/telegram"
	pg "github.com/severand/InteriorBot/internal/infra/db/postgres"
	"github.com/severand/InteriorBot/internal/infra/logging"
	"github.com/severand/InteriorBot/internal/infra/metrics"
	red "github.com/severand/InteriorBot/internal/infra/redis"
	"github.com/severand/InteriorBot/internal/infra/web"
	"github.com/severand/InteriorBot/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "developer mode (console logs, stub backends)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}
	metrics.MustRegister()

	// ---- Postgres ----
	if err := pg.Migrate(ctx, cfg.Database.URL); err != nil {
		logger.Fatal().Err(err).Msg("migrations failed")
	}
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
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Repositories ----
	userRepo := pg.NewPostgresUserRepo(pool)
	paymentRepo := pg.NewPostgresPaymentRepo(pool)
	referralRepo := pg.NewPostgresReferralRepo(pool)
	sessionRepo := red.NewSessionRepo(redisClient, cfg.Redis.TTL)
	txm := pg.NewTxManager(pool)

	// ---- Telegram client (needed as photo resolver before the usecases) ----
	channel, err := tele.Connect(cfg.Bot.Token)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram connect failed")
	}

	// ---- Image backend (Replicate -> optional HTTP fallback -> stub) ----
	var gen adapter.ImageGenerator
	switch {
	case cfg.Generation.ReplicateToken != "":
		replicate, err := genAdapters.NewReplicateGenerator(cfg.Generation, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("replicate backend init failed")
		}
		gen = replicate
		if cfg.Generation.FallbackURL != "" {
			secondary, err := genAdapters.NewHTTPGenerator(cfg.Generation.FallbackURL)
			if err != nil {
				logger.Fatal().Err(err).Msg("fallback backend init failed")
			}
			gen = genAdapters.NewFallbackGenerator(replicate, secondary, logger)
		}
	case cfg.Runtime.Dev:
		logger.Warn().Msg("no replicate token, using stub image backend")
		gen = &genAdapters.NoopGenerator{}
	default:
		logger.Fatal().Msg("generation.replicate_token is required outside dev mode")
	}

	// ---- Payment gateway ----
	var gateway adapter.PaymentGateway
	if cfg.Payment.TestingMode || cfg.Runtime.Dev {
		logger.Warn().Msg("payment testing mode, every charge auto-succeeds")
		gateway = payAdapters.NewNoopGateway()
	} else {
		gateway, err = payAdapters.NewYooKassaGateway(
			cfg.Payment.YooKassa.ShopID,
			cfg.Payment.YooKassa.SecretKey,
			cfg.Payment.YooKassa.ReturnURL,
		)
		if err != nil {
			logger.Fatal().Err(err).Msg("yookassa gateway init failed")
		}
	}
	logger.Info().Str("gateway", gateway.Name()).Str("backend", gen.Name()).Msg("adapters ready")

	// ---- Use cases ----
	creditUC := usecase.NewCreditUseCase(userRepo, logger)
	referralUC := usecase.NewReferralUseCase(userRepo, referralRepo, txm, cfg.Referral, cfg.Bot.Username, logger)
	userUC := usecase.NewUserUseCase(userRepo, referralUC, txm, cfg.Referral, logger)
	creationUC := usecase.NewCreationUseCase(sessionRepo, creditUC, gen, channel, cfg.Payment.ChargePolicy, logger)
	paymentUC := usecase.NewPaymentUseCase(paymentRepo, userRepo, referralUC, gateway, txm, cfg.Payment, logger)
	statsUC := usecase.NewStatsUseCase(userRepo, paymentRepo, logger)

	facade := application.NewBotFacade(userUC, creationUC, creditUC, paymentUC, referralUC, statsUC, cfg)

	// ---- Telegram polling ----
	bot, err := tele.NewBot(&cfg.Bot, channel, facade, rateLimiter, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram bot init failed")
	}
	go func() {
		if err := bot.StartPolling(ctx); err != nil && err != context.Canceled {
			logger.Error().Err(err).Msg("polling stopped")
		}
	}()

	// ---- Admin / metrics HTTP server ----
	webSrv := web.NewServer(statsUC, creditUC, cfg.Admin, cfg.Bot.Username, cfg.Runtime.Dev, logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Admin.Port),
		Handler: webSrv.Router(),
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Shutdown ----
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info().Msg("shutting down")

	bot.StopPolling()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
	cancel()
}
