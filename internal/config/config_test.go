package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("locations:\n  - \" https://x.test/ \"\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if got := cfg.Locations[0]; got != "https://x.test/" {
		t.Errorf("location = %q, want trimmed", got)
	}
	if cfg.GetSettleDelay() != 5*time.Second {
		t.Errorf("settle delay = %v, want 5s", cfg.GetSettleDelay())
	}
	if cfg.Storage.Driver != "none" {
		t.Errorf("storage.driver = %q, want none", cfg.Storage.Driver)
	}
	if cfg.Mocks.PathPrefix != "/api/" {
		t.Errorf("mocks.path_prefix = %q, want /api/", cfg.Mocks.PathPrefix)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestParseExpandsEnv(t *testing.T) {
	t.Setenv("PAGESHOT_TEST_DSN", "file:shots.db")

	cfg, err := Parse([]byte("locations: [\"https://x.test/\"]\nstorage:\n  driver: sqlite\n  dsn: ${PAGESHOT_TEST_DSN}\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Storage.DSN != "file:shots.db" {
		t.Errorf("dsn = %q, want file:shots.db", cfg.Storage.DSN)
	}
}

func TestParseKeepsBareDollar(t *testing.T) {
	t.Setenv("x", "expanded")
	t.Setenv("PAGESHOT_TEST_HOST", "y.test")

	cfg, err := Parse([]byte("locations:\n  - \"https://x.test/?q=$x&r=$1\"\n  - \"https://${PAGESHOT_TEST_HOST}/\"\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []string{"https://x.test/?q=$x&r=$1", "https://y.test/"}
	for i, loc := range want {
		if cfg.Locations[i] != loc {
			t.Errorf("locations[%d] = %q, want %q", i, cfg.Locations[i], loc)
		}
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	if _, err := Parse([]byte("locatons: []\n")); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"ok", func(c *Config) {}, ""},
		{"no locations", func(c *Config) { c.Locations = nil }, "locations is required"},
		{"empty location", func(c *Config) { c.Locations = []string{"https://x.test/", ""} }, "locations[1] is empty"},
		{"negative settle", func(c *Config) { c.Capture.SettleDelayMS = -1 }, "settle_delay_ms"},
		{"bad driver", func(c *Config) { c.Storage.Driver = "postgres" }, "storage.driver"},
		{"sqlite without dsn", func(c *Config) { c.Storage.Driver = "sqlite" }, "storage.dsn is required"},
		{"negative rpm", func(c *Config) { c.RateLimit.RPM = -5 }, "rate_limit.rpm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Locations = []string{"https://x.test/"}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "locations:\n  - https://x.test/\n  - https://y.test/\ncapture:\n  settle_delay_ms: 10\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(cfg.Locations) != 2 || cfg.Locations[1] != "https://y.test/" {
		t.Errorf("locations = %v", cfg.Locations)
	}
	if cfg.GetSettleDelay() != 10*time.Millisecond {
		t.Errorf("settle delay = %v, want 10ms", cfg.GetSettleDelay())
	}

	if _, err := LoadConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
