package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/devoid00/creto-votes/internal/api"
	clock "github.com/devoid00/creto-votes/internal/clock/system"
	"github.com/devoid00/creto-votes/internal/config"
	"github.com/devoid00/creto-votes/internal/fetch"
	"github.com/devoid00/creto-votes/internal/house"
	"github.com/devoid00/creto-votes/internal/logging"
	"github.com/devoid00/creto-votes/internal/pipeline"
	"github.com/devoid00/creto-votes/internal/senate"
	"github.com/devoid00/creto-votes/internal/store"
	"github.com/devoid00/creto-votes/internal/telemetry"
	"github.com/devoid00/creto-votes/internal/votes"
)

// newCollectCmd creates the 'collect' subcommand, which runs every
// configured target through its chamber adapter and writes the dataset.
func newCollectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "collect",
		Short: "Runs the configured collection targets",
		Long: `Fetches roll-call votes for every configured (congress, chamber, session)
target, normalizes them, and writes JSON list, detail, and index files to
the output directory.`,
		RunE: runCollectCommand,
	}
}

func runCollectCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	telemetry.Init()

	client := fetch.New(fetch.Config{
		Timeout:     cfg.HTTP.Timeout(),
		UserAgent:   cfg.HTTP.UserAgent,
		APIKey:      cfg.HTTP.APIKey,
		RatePerHost: cfg.HTTP.RatePerHost,
		RateBurst:   cfg.HTTP.RateBurst,
	}, logger)

	sink, err := store.New(cfg.Output.Dir, logger)
	if err != nil {
		return fmt.Errorf("init output store: %w", err)
	}

	orch := pipeline.New(map[votes.Chamber]pipeline.Collector{
		votes.ChamberSenate: senate.New(client, sink, senate.Config{
			Concurrency: cfg.Senate.Concurrency,
			MenuPolicy:  fetch.DefaultPolicy(cfg.HTTP.MaxRetries, cfg.HTTP.Backoff()),
		}, logger),
		votes.ChamberHouse: house.New(client, sink, house.Config{
			MissStreak: cfg.House.MissStreak,
			MaxProbe:   cfg.House.MaxProbe,
			PaceEvery:  cfg.House.PaceEvery,
			PaceDelay:  cfg.House.PaceDelay(),
		}, logger),
	}, sink, clock.Clock{}, logger)

	ctx := cmd.Context()
	if cfg.Server.Enabled {
		stopServer := startOpsServer(ctx, cfg.Server.Port, orch, logger)
		defer stopServer()
	}

	if err := orch.Run(ctx, cfg.CollectionTargets()); err != nil {
		return fmt.Errorf("run collection: %w", err)
	}
	return nil
}

// startOpsServer serves health, metrics, and run status while the
// collection runs. The returned func blocks until shutdown completes.
func startOpsServer(ctx context.Context, port int, orch *pipeline.Orchestrator, logger *zap.Logger) func() {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           api.NewServer(orch, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("ops server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("ops server failed", zap.Error(err))
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("ops server shutdown", zap.Error(err))
		}
	}
}
