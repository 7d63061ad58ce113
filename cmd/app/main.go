// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cdk-billing/internal/config"
	cdkAdapter "cdk-billing/internal/infra/adapters/cdk"
	"cdk-billing/internal/infra/adapters/notify"
	payPlatform "cdk-billing/internal/infra/adapters/platform"
	pg "cdk-billing/internal/infra/db/postgres"
	"cdk-billing/internal/infra/logging"
	"cdk-billing/internal/infra/metrics"
	red "cdk-billing/internal/infra/redis"
	"cdk-billing/internal/infra/web"
	"cdk-billing/internal/usecase"

	"cdk-billing/internal/domain/ports/adapter"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logging, relaxed checks)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("dev mode enabled")
	}

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	revenueCache := red.NewRevenueCache(redisClient, time.Now, 60*time.Second)

	// ---- Repositories ----
	txManager := pg.NewTxManager(pool)
	planRepo := pg.NewPlanRepo(pool)
	billRepo := pg.NewBillRepo(pool)
	checkInRepo := pg.NewCheckInRepo(pool)
	ignoreRepo := red.NewIgnoreListCache(pg.NewIgnoreCheckInRepo(pool), redisClient, 5*time.Minute)
	txnRepo := pg.NewTransactionRepo(pool)
	rewardRepo := pg.NewRewardRepo(pool)

	// ---- Adapters ----
	notifier := notify.NewHTTPNotifier(cfg.Notify.URL, logger)
	cdkClient := cdkAdapter.NewClient(cfg.CDK, notifier, logger)
	retry := payPlatform.DefaultRetryPolicy()
	afdian := payPlatform.NewAfdianAdapter(cfg.Afdian, retry, notifier, logger)
	yimapay := payPlatform.NewYimapayAdapter(cfg.Yimapay, retry, notifier, logger)
	fetchers := []adapter.OrderFetcher{afdian, yimapay}

	// ---- Use cases ----
	ingestUC := usecase.NewIngestUseCase(txManager, billRepo, planRepo, cdkClient, fetchers, logger)
	queryUC := usecase.NewOrderQueryUseCase(billRepo, ingestUC, logger)
	transferUC := usecase.NewTransferUseCase(txManager, billRepo, txnRepo, rewardRepo, cdkClient, logger)
	checkoutUC := usecase.NewCheckoutUseCase(planRepo, yimapay, logger)
	checkInUC := usecase.NewCheckInUseCase(checkInRepo, ignoreRepo, billRepo, logger)
	revenueUC := usecase.NewRevenueUseCase(checkInRepo, billRepo, planRepo, revenueCache, cdkClient, cfg.Revenue.AllScopeSecret, logger)
	rewardUC := usecase.NewRewardUseCase(rewardRepo)
	planUC := usecase.NewPlanUseCase(planRepo)

	// ---- HTTP ----
	metrics.MustRegister()
	auth := web.NewAuthManager(cfg.Admin.JWTSecret, !cfg.Runtime.Dev, cfg.Admin.TokenTTL)
	server := web.NewServer(ingestUC, queryUC, transferUC, checkoutUC, checkInUC, revenueUC, rewardUC, planUC, auth, cfg, logger)
	router := web.NewRouter(server)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server")
			cancel()
		}
	}()

	// ---- Shutdown ----
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sig:
		logger.Info().Str("signal", s.String()).Msg("shutting down")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	logger.Info().Msg("stopped")
}
