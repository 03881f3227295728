// Command vrmd is the VRM composition root: it loads a system-model JSON
// document, builds the ADC/AcI component tree, and serves the
// reservation/workflow HTTP ingestion surface plus a prometheus metrics
// endpoint.
//
// Grounded on jontk-slurm-client's cmd/slurm-cli/main.go (cobra root command
// with persistent flags, one Run closure doing the real work) and the
// teacher's main/tegu.go for what a composition root wires together
// (managers/components, then starts listening).
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/att/vrm/internal/api"
	"github.com/att/vrm/internal/clock"
	"github.com/att/vrm/internal/metrics"
	"github.com/att/vrm/internal/store"
	"github.com/att/vrm/internal/system"
)

var (
	systemConfigPath string
	listenAddr       string
	bytesPerSec      float64
	advanceCronSpec  string
	advanceBySecs    int64
	metricsCronSpec  string
	debug            bool

	rootCmd = &cobra.Command{
		Use:   "vrmd",
		Short: "Hierarchical virtual resource manager broker",
		RunE:  run,
	}
)

func init() {
	rootCmd.Flags().StringVar(&systemConfigPath, "system-config", "", "system model JSON file (required)")
	rootCmd.Flags().StringVar(&listenAddr, "listen", ":8080", "HTTP listen address")
	rootCmd.Flags().Float64Var(&bytesPerSec, "bytes-per-sec", 1<<20, "assumed network transfer rate for workflow rank computation")
	rootCmd.Flags().StringVar(&advanceCronSpec, "advance-cron", "", "cron spec advancing a simulated clock (empty disables)")
	rootCmd.Flags().Int64Var(&advanceBySecs, "advance-by", 60, "seconds a simulated clock advances per --advance-cron tick")
	rootCmd.Flags().StringVar(&metricsCronSpec, "metrics-cron", "@every 30s", "cron spec refreshing prometheus gauges")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "enable debug-level logging")
	_ = rootCmd.MarkFlagRequired("system-config")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	log, err := newLogger(debug)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}

	f, err := os.Open(systemConfigPath)
	if err != nil {
		return fmt.Errorf("open system config: %w", err)
	}
	defer f.Close()

	cfg, err := system.LoadConfig(f)
	if err != nil {
		return err
	}

	st := store.New()
	clk := clockFor(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sys, err := system.Build(ctx, cfg, st, clk, log, bytesPerSec)
	if err != nil {
		return fmt.Errorf("build system: %w", err)
	}

	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	ticker, err := system.NewTicker(sys, advanceCronSpec, advanceBySecs, metricsCronSpec)
	if err != nil {
		return fmt.Errorf("cron: %w", err)
	}
	ticker.Start()
	defer ticker.Stop()

	srv := api.NewServer(sys, log)
	mux := srv.Router()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	httpServer := &http.Server{Addr: listenAddr, Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", listenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		log.Info("shutting down")
		return httpServer.Shutdown(context.Background())
	}
}

func newLogger(debug bool) (logr.Logger, error) {
	var zcfg zap.Config
	if debug {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	zl, err := zcfg.Build()
	if err != nil {
		return logr.Logger{}, err
	}
	return zapr.NewLogger(zl), nil
}

func clockFor(cfg *system.Config) clock.Clock {
	if cfg.Simulator.IsSimulation {
		return clock.NewSimulated(0)
	}
	return clock.Real{}
}
