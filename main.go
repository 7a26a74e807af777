package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HSouheill/barrim_commission/config"
	"github.com/HSouheill/barrim_commission/logger"
	"github.com/HSouheill/barrim_commission/repositories"
	"github.com/HSouheill/barrim_commission/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.L.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.L.Error("Commission worker stopped", "error", err)
		os.Exit(1)
	}
	logger.L.Info("Commission worker shut down")
}

func run(ctx context.Context, cfg *config.Config) error {
	client, err := config.ConnectDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.Disconnect(shutdownCtx); err != nil {
			logger.L.Warn("MongoDB disconnect failed", "error", err)
		}
	}()
	db := client.Database(cfg.DBName)

	var agents services.AgentRepository
	switch cfg.AgentStore {
	case "redis":
		rdb, err := config.ConnectRedis(ctx, cfg)
		if err != nil {
			return err
		}
		defer rdb.Close()
		agents = repositories.NewRedisAgentRepository(rdb, cfg.AgentLookupTimeout)
	default:
		agents = repositories.NewAgentRepository(db, cfg.AgentLookupTimeout)
	}

	calculator := services.NewCommissionCalculator(agents,
		services.WithDiagnosticSink(services.NewLogDiagnosticSink(nil)),
	)
	worker := services.NewCommissionWorker(
		repositories.NewTransactionRepository(db, cfg.ClaimLease),
		repositories.NewCommissionRecordRepository(db),
		calculator,
		services.WorkerConfig{
			PollInterval: cfg.PollInterval,
			RatePerSec:   cfg.RateLimit,
			Burst:        1,
			MaxAttempts:  cfg.MaxAttempts,
			RetryBackoff: cfg.RetryBackoff,
		},
	)

	logger.L.Info("Commission worker started",
		"env", cfg.Env,
		"agentStore", cfg.AgentStore,
		"maxAgentLevels", services.MaxAgentLevels,
	)
	return worker.Run(ctx)
}
