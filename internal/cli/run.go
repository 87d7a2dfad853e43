package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wemix/btcprobe/internal/config"
	"github.com/wemix/btcprobe/internal/height"
	"github.com/wemix/btcprobe/internal/metrics"
	"github.com/wemix/btcprobe/internal/prober"
	"github.com/wemix/btcprobe/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// NewRunCommand creates the run command
func NewRunCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the probe",
		Long: `Start the metrics server and poll both height sources until interrupted.
By default the first failed poll cycle terminates the probe with a non-zero
exit code; use --continue-on-error to keep polling instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbe(cmd.Context(), opts)
		},
	}

	return cmd
}

func runProbe(ctx context.Context, opts *rootOptions) error {
	cfg, err := config.Load(opts.viper, opts.configFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(logger.Options{
		Level:       cfg.LogLevel,
		ColorLogs:   cfg.ColorLogs,
		DisableLogs: cfg.DisableLogs,
		TimeFormat:  cfg.TimeFormatLogs,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	rule, err := height.NewPatternCapture(cfg.CanisterHeightPattern)
	if err != nil {
		return fmt.Errorf("invalid canister height pattern: %w", err)
	}

	log.Info("starting btcprobe",
		zap.String("version", Version),
		zap.String("target_height_url", cfg.TargetHeightURL),
		zap.String("canister_metrics_url", cfg.CanisterMetricsURL),
		zap.String("canister_height_rule", rule.String()),
		zap.Duration("polling_interval", cfg.PollingInterval),
		zap.String("metrics_addr", cfg.MetricsAddr))

	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	registry := metrics.NewRegistry()
	exporter := metrics.NewExporter(registry, cfg.MetricsAddr, log.Named("exporter"))
	if err := exporter.Start(); err != nil {
		return err
	}

	fetcher := height.NewFetcher(&http.Client{Timeout: cfg.HTTPTimeout}, log.Named("fetcher"))
	poller := prober.NewPoller(
		height.NewSource(fetcher, cfg.TargetHeightURL, height.RawInteger{}),
		height.NewSource(fetcher, cfg.CanisterMetricsURL, rule),
		registry,
		cfg.PollingInterval,
		prober.Options{ContinueOnError: cfg.ContinueOnError},
		log.Named("prober"),
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return poller.Run(gctx)
	})
	g.Go(func() error {
		select {
		case err := <-exporter.Err():
			return err
		case <-gctx.Done():
			return nil
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return exporter.Stop(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("probe terminated", zap.Error(err))
		return err
	}

	log.Info("probe stopped")
	return nil
}
