package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"pageshot/internal/app"
	"pageshot/internal/browser"
	"pageshot/internal/config"
	"pageshot/internal/stitch"
	"pageshot/internal/throttle"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config")
	logLevel := flag.String("log-level", "", "override observability.log_level")
	runTimeout := flag.Duration("timeout", 0, "abort the whole run after this long (0 = no limit)")
	flag.Parse()

	if flag.NArg() > 0 {
		*configPath = flag.Arg(0)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *logLevel != "" {
		cfg.Observability.LogLevel = *logLevel
	}

	if err := run(cfg, *runTimeout); err != nil {
		log.Fatalf("Run failed: %v", err)
	}
}

func run(cfg *config.Config, runTimeout time.Duration) error {
	logger := app.NewLogger(cfg)
	defer logger.Close()

	ctx, cancel := app.GracefulShutdown(logger, runTimeout)
	defer cancel()

	// Хранилище и приемники
	repo, err := app.OpenRepository(cfg, logger)
	if err != nil {
		return fmt.Errorf("open repository: %w", err)
	}
	if repo != nil {
		defer repo.Close()
	}

	// RunID нужен приемнику до создания оркестратора
	runID := app.NewRunID()
	orchOpts := app.Options{
		SettleDelay: cfg.GetSettleDelay(),
		LoadTimeout: cfg.GetLoadTimeout(),
		RunID:       runID,
	}

	sink, err := app.BuildSink(cfg, repo, runID, logger)
	if err != nil {
		return err
	}
	defer sink.Close()

	// Браузер
	mgr := browser.NewManager(app.BrowserConfig(cfg, logger))
	if _, err := mgr.Start(ctx); err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	defer mgr.Close()

	host, err := browser.NewHost(ctx, mgr)
	if err != nil {
		return fmt.Errorf("open tab: %w", err)
	}
	defer host.Close()

	st := stitch.New(
		stitch.WithDecodeTimeout(cfg.GetDecodeTimeout()),
		stitch.WithLogger(logger),
	)
	limiter := throttle.NewRateLimiter(cfg.RateLimit.MaxConcurrentPerHost, cfg.RateLimit.RPM)

	orch := app.NewOrchestrator(orchOpts, logger, host, st, sink, limiter)
	stats, err := orch.Run(ctx, cfg.Locations)
	if stats != nil {
		fmt.Printf("✓ Run %s: %d/%d captured, %d empty, %d failed (%s)\n",
			stats.RunID, stats.Captured, stats.Total, stats.Empty, stats.Failed, stats.StoppedReason)
		for _, f := range stats.Files {
			fmt.Printf("    %s\n", f)
		}
	}
	if err != nil {
		return err
	}
	if stats.Captured == 0 && stats.Total > 0 {
		return fmt.Errorf("no screenshots captured out of %d locations", stats.Total)
	}
	return nil
}
