package app

import (
	"fmt"

	"pageshot/internal/browser"
	"pageshot/internal/config"
	"pageshot/internal/download"
	"pageshot/internal/observability"
	"pageshot/internal/storage"
	"pageshot/internal/storage/mssql"
	"pageshot/internal/storage/sqlite"
)

// NewLogger создает логгер из секции observability
func NewLogger(cfg *config.Config) *observability.Logger {
	return observability.NewLogger(observability.Options{
		Path:       cfg.Observability.LogPath,
		Level:      cfg.Observability.LogLevel,
		MaxSizeMB:  cfg.Observability.LogMaxSizeMB,
		MaxBackups: cfg.Observability.LogMaxBackups,
		MaxAgeDays: cfg.Observability.LogMaxAgeDays,
	})
}

// BrowserConfig переводит секции browser и capture в настройки менеджера
func BrowserConfig(cfg *config.Config, logger *observability.Logger) browser.Config {
	return browser.Config{
		RemoteURL:      cfg.Browser.RemoteURL,
		ChromePath:     cfg.Browser.ChromePath,
		Headful:        cfg.Browser.Headful,
		Stealth:        cfg.Browser.Stealth,
		ViewportWidth:  cfg.Browser.ViewportWidth,
		ViewportHeight: cfg.Browser.ViewportHeight,
		PageTimeout:    cfg.GetPageTimeout(),
		ScrollPause:    cfg.GetScrollPause(),
		MaxSegments:    cfg.Capture.MaxSegments,
		SegmentFormat:  cfg.Capture.SegmentFormat,
		JPEGQuality:    cfg.Capture.JPEGQuality,
		Logger:         logger.Slog(),
	}
}

// OpenRepository открывает хранилище записей о снимках.
// Для driver "none" возвращает nil без ошибки.
func OpenRepository(cfg *config.Config, logger *observability.Logger) (storage.Repository, error) {
	switch cfg.Storage.Driver {
	case "", "none":
		return nil, nil
	case "sqlite":
		repo, err := sqlite.NewRepository(cfg.Storage.DSN, cfg.GetCommandTimeout(), logger)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case "mssql":
		repo, err := mssql.NewRepository(cfg.Storage.DSN, cfg.GetCommandTimeout(), logger)
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// BuildSink собирает цепочку приемников: каталог, манифест (если задан)
// и запись в хранилище (если repo не nil).
func BuildSink(cfg *config.Config, repo storage.Repository, runID string, logger *observability.Logger) (download.Sink, error) {
	sinks := []download.Sink{download.NewDir(cfg.Output.Dir)}

	if cfg.Output.Manifest != "" {
		m, err := download.OpenManifest(cfg.Output.Manifest)
		if err != nil {
			return nil, fmt.Errorf("open manifest: %w", err)
		}
		sinks = append(sinks, m)
	}

	if repo != nil {
		sinks = append(sinks, storage.NewRecordingSink(repo, runID))
	}

	return download.NewRouter(logger.Slog(), sinks...), nil
}
