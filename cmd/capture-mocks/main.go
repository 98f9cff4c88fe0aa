package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"pageshot/internal/app"
	"pageshot/internal/browser"
	"pageshot/internal/config"
	"pageshot/internal/mockcapture"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config (browser, mocks and observability sections)")
	outDir := flag.String("out", "", "fixture directory (default mocks.dir)")
	prefix := flag.String("prefix", "", "path prefix of recorded endpoints (default mocks.path_prefix)")
	idle := flag.Duration("idle", 0, "stop after no API response for this long (default mocks.idle_s)")
	headful := flag.Bool("headful", false, "show the browser window")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatalf("usage: capture-mocks [flags] <url>")
	}
	target := flag.Arg(0)

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	if *outDir != "" {
		cfg.Mocks.Dir = *outDir
	}
	if *prefix != "" {
		cfg.Mocks.PathPrefix = *prefix
	}
	if *idle > 0 {
		cfg.Mocks.IdleS = int(idle.Seconds())
		if cfg.Mocks.IdleS == 0 {
			cfg.Mocks.IdleS = 1
		}
	}
	if *headful {
		cfg.Browser.Headful = true
	}

	if err := run(cfg, target); err != nil {
		log.Fatalf("Capture failed: %v", err)
	}
}

func run(cfg *config.Config, target string) error {
	logger := app.NewLogger(cfg)
	defer logger.Close()

	ctx, cancel := app.GracefulShutdown(logger, 0)
	defer cancel()

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

	rec := mockcapture.NewRecorder(cfg.Mocks.PathPrefix, logger.Slog())
	tap, err := mockcapture.Attach(ctx, host.Page(), rec, logger.Slog())
	if err != nil {
		return err
	}

	navID, err := host.Navigate(ctx, target)
	if err != nil {
		return err
	}
	waitCtx := ctx
	if d := cfg.GetLoadTimeout(); d > 0 {
		var cancelWait context.CancelFunc
		waitCtx, cancelWait = context.WithTimeout(ctx, d)
		defer cancelWait()
	}
	if err := host.WaitLoad(waitCtx, navID); err != nil {
		return fmt.Errorf("wait load: %w", err)
	}

	logger.Info("Page loaded, recording API responses",
		"url", target,
		"prefix", cfg.Mocks.PathPrefix,
		"idle", cfg.GetMocksIdle(),
	)
	if err := tap.WaitIdle(ctx, cfg.GetMocksIdle()); err != nil {
		logger.Warn("Recording interrupted, writing what was captured", "error", err.Error())
	}

	paths, err := rec.Flush(cfg.Mocks.Dir)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Wrote %d mocks to %s\n", len(paths), cfg.Mocks.Dir)
	for _, p := range paths {
		fmt.Printf("    %s\n", p)
	}
	return nil
}
