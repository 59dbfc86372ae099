package bootstrap

import (
	"context"
	"log/slog"
	"strings"
	"time"

	ledgerservice "daobank/contexts/governance-core/ledger-service"
	treasuryservice "daobank/contexts/governance-core/treasury-service"
	treasurymemory "daobank/contexts/governance-core/treasury-service/adapters/memory"
	postgresadapter "daobank/contexts/governance-core/treasury-service/adapters/postgres"
	treasuryports "daobank/contexts/governance-core/treasury-service/ports"
	"daobank/internal/platform/config"
	"daobank/internal/platform/db"
	"daobank/internal/platform/httpserver"
	"daobank/internal/platform/messaging"
	"daobank/internal/platform/metrics"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres      *db.Postgres
	treasury      treasuryservice.Module
	treasuries    treasuryports.TreasuryRepository
	blockInterval time.Duration
	logger        *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	metrics.Init()

	module, _, pg, err := buildGovernanceDeps(cfg, logger)
	if err != nil {
		return nil, err
	}

	server := httpserver.New(module, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	metrics.Init()

	module, deps, pg, err := buildGovernanceDeps(cfg, logger)
	if err != nil {
		return nil, err
	}

	return &WorkerApp{
		postgres:      pg,
		treasury:      module,
		treasuries:    deps.Treasuries,
		blockInterval: cfg.BlockInterval,
		logger:        logger,
	}, nil
}

// buildGovernanceDeps wires the governance module. Treasury state lives in
// Postgres when a DSN is configured and in memory otherwise; the org, vote,
// and distribution collaborators plus the account ledger always run
// in-process.
func buildGovernanceDeps(cfg config.Config, logger *slog.Logger) (treasuryservice.Module, treasuryservice.Dependencies, *db.Postgres, error) {
	ledgerModule := ledgerservice.NewInMemoryModule(cfg.ExistentialDeposit, logger)
	bus := messaging.NewBus(logger)

	collaborators := treasurymemory.NewStore()
	collaborators.AttachLedger(ledgerModule.Ledger)

	deps := treasuryservice.Dependencies{
		Org:               collaborators,
		Votes:             collaborators,
		Ledger:            ledgerModule.Ledger,
		Distributor:       collaborators,
		Publisher:         bus,
		Clock:             postgresadapter.SystemClock{},
		MinDeposit:        cfg.MinTreasuryDeposit,
		SpendCadence:      cfg.SpendPollCadence,
		MembershipCadence: cfg.MembershipPollCadence,
		Logger:            logger,
	}

	var pg *db.Postgres
	if strings.TrimSpace(cfg.PostgresDSN) != "" {
		connected, err := db.Connect(cfg.PostgresDSN)
		if err != nil {
			return treasuryservice.Module{}, treasuryservice.Dependencies{}, nil, err
		}
		pg = connected
		if err := pg.Migrate(postgresadapter.Models()...); err != nil {
			return treasuryservice.Module{}, treasuryservice.Dependencies{}, nil, err
		}
		repo := postgresadapter.NewRepository(pg.DB, logger)
		deps.Treasuries = repo
		deps.Spends = repo
		deps.Memberships = repo
		deps.Nonces = repo
		deps.Outbox = repo
		deps.OutboxRepo = repo
	} else {
		deps.Treasuries = collaborators
		deps.Spends = collaborators
		deps.Memberships = collaborators
		deps.Nonces = collaborators
		deps.Outbox = collaborators
		deps.OutboxRepo = collaborators
	}

	return treasuryservice.NewModule(deps), deps, pg, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

// Run drives the block loop: each tick is one block, the poller sweeps the
// cadences that fire on that height, then the outbox relay drains pending
// notifications. Single goroutine so block handling stays deterministic.
func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.blockInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"block_interval", w.blockInterval.String(),
	)

	var block uint64
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		block++
		metrics.IncCounter(metrics.MetricBlocksProcessed)

		// A failed sweep or relay cycle is retried on the next block;
		// neither ever brings the worker down.
		report, err := w.treasury.Poller.RunOnce(ctx, block)
		if err != nil {
			w.logger.Error("block poll sweep failed",
				"event", "bootstrap_block_sweep_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"block", block,
				"error", err.Error(),
			)
		}
		if polled := report.SpendsPolled + report.MembershipsPolled; polled > 0 {
			metrics.AddCounter(metrics.MetricProposalsPolled, float64(polled))
		}

		if w.treasury.Relay != nil {
			published, err := w.treasury.Relay.RunOnce(ctx)
			if err != nil {
				w.logger.Error("outbox relay cycle failed",
					"event", "bootstrap_outbox_relay_failed",
					"module", "internal/app/bootstrap",
					"layer", "platform",
					"block", block,
					"error", err.Error(),
				)
			}
			if published > 0 {
				metrics.AddCounter(metrics.MetricOutboxPublished, float64(published))
			}
		}

		if open, err := w.treasuries.CountTreasuries(ctx); err == nil {
			metrics.SetGauge(metrics.MetricTreasuriesOpen, float64(open))
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
