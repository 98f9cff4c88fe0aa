// internal/config/config.go
package config

import (
	"fmt"
	"time"
)

type Config struct {
	Locations     []string            `yaml:"locations"`
	Browser       BrowserConfig       `yaml:"browser"`
	Capture       CaptureConfig       `yaml:"capture"`
	Output        OutputConfig        `yaml:"output"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	Storage       StorageConfig       `yaml:"storage"`
	Mocks         MocksConfig         `yaml:"mocks"`
	Observability ObservabilityConfig `yaml:"observability"`
}

type BrowserConfig struct {
	RemoteURL      string `yaml:"remote_url"`
	ChromePath     string `yaml:"chrome_path"`
	Headful        bool   `yaml:"headful"`
	Stealth        bool   `yaml:"stealth"`
	ViewportWidth  int    `yaml:"viewport_width"`
	ViewportHeight int    `yaml:"viewport_height"`
	PageTimeoutS   int    `yaml:"page_timeout_s"`
}

type CaptureConfig struct {
	SettleDelayMS  int    `yaml:"settle_delay_ms"`
	LoadTimeoutS   int    `yaml:"load_timeout_s"`
	DecodeTimeoutS int    `yaml:"decode_timeout_s"`
	MaxSegments    int    `yaml:"max_segments"`
	ScrollPauseMS  int    `yaml:"scroll_pause_ms"`
	SegmentFormat  string `yaml:"segment_format"`
	JPEGQuality    int    `yaml:"jpeg_quality"`
}

type OutputConfig struct {
	Dir      string `yaml:"dir"`
	Manifest string `yaml:"manifest"`
}

type RateLimitConfig struct {
	MaxConcurrentPerHost int `yaml:"max_concurrent_per_host"`
	RPM                  int `yaml:"rpm"`
}

type StorageConfig struct {
	Driver           string `yaml:"driver"`
	DSN              string `yaml:"dsn"`
	CommandTimeoutMS int    `yaml:"command_timeout_ms"`
}

type MocksConfig struct {
	PathPrefix string `yaml:"path_prefix"`
	Dir        string `yaml:"dir"`
	IdleS      int    `yaml:"idle_s"`
}

type ObservabilityConfig struct {
	LogPath       string `yaml:"log_path"`
	LogLevel      string `yaml:"log_level"`
	LogMaxSizeMB  int    `yaml:"log_max_size_mb"`
	LogMaxBackups int    `yaml:"log_max_backups"`
	LogMaxAgeDays int    `yaml:"log_max_age_days"`
}

// Default settle delay after load-complete, before the capture starts.
const DefaultSettleDelayMS = 5000

// Default returns a config with every optional field filled in and no locations.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Capture.SettleDelayMS == 0 {
		c.Capture.SettleDelayMS = DefaultSettleDelayMS
	}
	if c.Capture.MaxSegments == 0 {
		c.Capture.MaxSegments = 50
	}
	if c.Capture.ScrollPauseMS == 0 {
		c.Capture.ScrollPauseMS = 250
	}
	if c.Capture.SegmentFormat == "" {
		c.Capture.SegmentFormat = "png"
	}
	if c.Capture.JPEGQuality == 0 {
		c.Capture.JPEGQuality = 90
	}
	if c.Browser.ViewportWidth == 0 {
		c.Browser.ViewportWidth = 1280
	}
	if c.Browser.ViewportHeight == 0 {
		c.Browser.ViewportHeight = 800
	}
	if c.Browser.PageTimeoutS == 0 {
		c.Browser.PageTimeoutS = 60
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "screenshots"
	}
	if c.RateLimit.MaxConcurrentPerHost == 0 {
		c.RateLimit.MaxConcurrentPerHost = 1
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "none"
	}
	if c.Storage.CommandTimeoutMS == 0 {
		c.Storage.CommandTimeoutMS = 5000
	}
	if c.Mocks.PathPrefix == "" {
		c.Mocks.PathPrefix = "/api/"
	}
	if c.Mocks.Dir == "" {
		c.Mocks.Dir = "__mocks__/api"
	}
	if c.Mocks.IdleS == 0 {
		c.Mocks.IdleS = 5
	}
	if c.Observability.LogLevel == "" {
		c.Observability.LogLevel = "info"
	}
	if c.Observability.LogMaxSizeMB == 0 {
		c.Observability.LogMaxSizeMB = 50
	}
	if c.Observability.LogMaxBackups == 0 {
		c.Observability.LogMaxBackups = 3
	}
	if c.Observability.LogMaxAgeDays == 0 {
		c.Observability.LogMaxAgeDays = 14
	}
}

// Validation
func (c *Config) Validate() error {
	if len(c.Locations) == 0 {
		return fmt.Errorf("locations is required")
	}
	for i, loc := range c.Locations {
		if loc == "" {
			return fmt.Errorf("locations[%d] is empty", i)
		}
	}
	if c.Browser.ViewportWidth <= 0 || c.Browser.ViewportHeight <= 0 {
		return fmt.Errorf("browser.viewport_width and browser.viewport_height must be > 0")
	}
	if c.Browser.PageTimeoutS <= 0 {
		return fmt.Errorf("browser.page_timeout_s must be > 0")
	}
	if c.Capture.SettleDelayMS < 0 {
		return fmt.Errorf("capture.settle_delay_ms must be >= 0")
	}
	if c.Capture.LoadTimeoutS < 0 {
		return fmt.Errorf("capture.load_timeout_s must be >= 0")
	}
	if c.Capture.DecodeTimeoutS < 0 {
		return fmt.Errorf("capture.decode_timeout_s must be >= 0")
	}
	if c.Capture.MaxSegments <= 0 {
		return fmt.Errorf("capture.max_segments must be > 0")
	}
	if c.Capture.ScrollPauseMS < 0 {
		return fmt.Errorf("capture.scroll_pause_ms must be >= 0")
	}
	if c.Capture.SegmentFormat != "png" && c.Capture.SegmentFormat != "jpeg" {
		return fmt.Errorf("capture.segment_format must be 'png' or 'jpeg'")
	}
	if c.Capture.JPEGQuality < 1 || c.Capture.JPEGQuality > 100 {
		return fmt.Errorf("capture.jpeg_quality must be between 1 and 100")
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir is required")
	}
	if c.RateLimit.MaxConcurrentPerHost <= 0 {
		return fmt.Errorf("rate_limit.max_concurrent_per_host must be > 0")
	}
	if c.RateLimit.RPM < 0 {
		return fmt.Errorf("rate_limit.rpm must be >= 0")
	}
	switch c.Storage.Driver {
	case "none":
	case "sqlite", "mssql":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required when storage.driver is %q", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("storage.driver must be 'none', 'sqlite' or 'mssql'")
	}
	if c.Storage.CommandTimeoutMS <= 0 {
		return fmt.Errorf("storage.command_timeout_ms must be > 0")
	}
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("observability.log_level is required")
	}
	return nil
}

// Getters
func (c *Config) GetSettleDelay() time.Duration {
	return time.Duration(c.Capture.SettleDelayMS) * time.Millisecond
}

func (c *Config) GetLoadTimeout() time.Duration {
	return time.Duration(c.Capture.LoadTimeoutS) * time.Second
}

func (c *Config) GetDecodeTimeout() time.Duration {
	return time.Duration(c.Capture.DecodeTimeoutS) * time.Second
}

func (c *Config) GetScrollPause() time.Duration {
	return time.Duration(c.Capture.ScrollPauseMS) * time.Millisecond
}

func (c *Config) GetPageTimeout() time.Duration {
	return time.Duration(c.Browser.PageTimeoutS) * time.Second
}

func (c *Config) GetCommandTimeout() time.Duration {
	return time.Duration(c.Storage.CommandTimeoutMS) * time.Millisecond
}

func (c *Config) GetMocksIdle() time.Duration {
	return time.Duration(c.Mocks.IdleS) * time.Second
}
