package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Cuongtutrinh/smart-parking-server/internal/lot"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Lot.TotalSlots != 5 {
		t.Errorf("Lot.TotalSlots = %d, want 5", cfg.Lot.TotalSlots)
	}
	if cfg.Lot.LogTrigger != 200 || cfg.Lot.LogRetain != 100 {
		t.Errorf("log ring = %d/%d, want 200/100", cfg.Lot.LogTrigger, cfg.Lot.LogRetain)
	}
	if cfg.Lot.Availability != lot.PolicyOccupancy {
		t.Errorf("Lot.Availability = %q, want occupancy", cfg.Lot.Availability)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	yaml := `
server:
  port: 9090
  allowed_origins:
    - "https://dashboard.example.com"
  max_connections: 50
lot:
  total_slots: 8
  availability: rig
  info:
    name: "Campus Lot B"
    pricing_rule: "**5K** per hour"
    readers:
      - id: gate-in
        role: entry
      - id: gate-out
        role: exit
        location: north exit
sqs:
  wait_time: 10s
`
	if err := os.WriteFile(cfgPath, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "https://dashboard.example.com" {
		t.Errorf("Server.AllowedOrigins = %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Server.MaxConnections != 50 {
		t.Errorf("Server.MaxConnections = %d, want 50", cfg.Server.MaxConnections)
	}
	if cfg.Lot.TotalSlots != 8 || cfg.Lot.Availability != lot.PolicyRig {
		t.Errorf("Lot = %+v", cfg.Lot)
	}
	if cfg.Lot.Info.Name != "Campus Lot B" || cfg.Lot.Info.PricingRule != "**5K** per hour" {
		t.Errorf("Lot.Info = %+v", cfg.Lot.Info)
	}
	if len(cfg.Lot.Info.Readers) != 2 || cfg.Lot.Info.Readers[1].Role != lot.ReaderExit || cfg.Lot.Info.Readers[1].Location != "north exit" {
		t.Errorf("Lot.Info.Readers = %+v", cfg.Lot.Info.Readers)
	}
	if cfg.SQS.WaitTime != 10*time.Second {
		t.Errorf("SQS.WaitTime = %v, want 10s", cfg.SQS.WaitTime)
	}

	// Defaults should still be applied for unspecified fields.
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want default", cfg.Server.Host)
	}
	if cfg.Lot.LogTrigger != lot.DefaultLogTrigger {
		t.Errorf("Lot.LogTrigger = %d, want default", cfg.Lot.LogTrigger)
	}
	if cfg.Lot.Info.Currency != "K VND" {
		t.Errorf("Lot.Info.Currency = %q, want default", cfg.Lot.Info.Currency)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("Load() on missing file should return error")
	}
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	cfg, err := LoadOrDefault("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("LoadOrDefault() error: %v", err)
	}
	if cfg.Server.Port != 4000 {
		t.Errorf("Server.Port = %d, want default 4000", cfg.Server.Port)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(cfgPath, []byte(":::not valid yaml"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(cfgPath); err == nil {
		t.Fatal("Load() with invalid YAML should return error")
	}
	if _, err := LoadOrDefault(cfgPath); err == nil {
		t.Fatal("LoadOrDefault() with invalid YAML should return error")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PORT":                "5050",
		"HOST":                "127.0.0.1",
		"ALLOWED_ORIGINS":     "https://a.example.com, https://b.example.com,",
		"TOTAL_SLOTS":         "12",
		"AVAILABILITY_POLICY": "rig",
		"REDIS_ADDR":          "redis:6379",
		"SQS_QUEUE_URL":       "https://sqs.ap-southeast-1.amazonaws.com/123/rig-events",
		"AWS_REGION":          "ap-southeast-1",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := defaultConfig()
	if err := cfg.ApplyEnv(lookup); err != nil {
		t.Fatalf("ApplyEnv() error: %v", err)
	}

	if cfg.Server.Port != 5050 || cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server = %s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[1] != "https://b.example.com" {
		t.Errorf("AllowedOrigins = %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Lot.TotalSlots != 12 || cfg.Lot.Availability != lot.PolicyRig {
		t.Errorf("Lot = %+v", cfg.Lot)
	}
	if !cfg.Redis.Enabled || cfg.Redis.Addr != "redis:6379" {
		t.Errorf("Redis = %+v", cfg.Redis)
	}
	if !cfg.SQS.Enabled || cfg.SQS.Region != "ap-southeast-1" {
		t.Errorf("SQS = %+v", cfg.SQS)
	}
}

func TestApplyEnvBadPort(t *testing.T) {
	cfg := defaultConfig()
	err := cfg.ApplyEnv(func(k string) (string, bool) {
		if k == "PORT" {
			return "http", true
		}
		return "", false
	})
	if err == nil || !strings.Contains(err.Error(), "PORT") {
		t.Fatalf("ApplyEnv() error = %v, want PORT error", err)
	}
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("SMART_PARKING_TEST_VAR=from-file\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SMART_PARKING_TEST_VAR", "")
	os.Unsetenv("SMART_PARKING_TEST_VAR")

	if err := LoadEnv(filepath.Join(dir, "missing.env"), envPath); err != nil {
		t.Fatalf("LoadEnv() error: %v", err)
	}
	if got := os.Getenv("SMART_PARKING_TEST_VAR"); got != "from-file" {
		t.Errorf("SMART_PARKING_TEST_VAR = %q, want from-file", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"no slots", func(c *Config) { c.Lot.TotalSlots = 0 }, "total_slots"},
		{"retain above trigger", func(c *Config) { c.Lot.LogTrigger, c.Lot.LogRetain = 10, 20 }, "log_retain"},
		{"unknown policy", func(c *Config) { c.Lot.Availability = "guess" }, "availability"},
		{"bad reader role", func(c *Config) {
			c.Lot.Info.Readers = []lot.Reader{{ID: "x", Role: "side"}}
		}, "readers[0]"},
		{"redis without addr", func(c *Config) { c.Redis.Enabled, c.Redis.Addr = true, "" }, "redis.addr"},
		{"sqs without url", func(c *Config) { c.SQS.Enabled = true }, "sqs.queue_url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestExampleConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config.example.yaml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("example config invalid: %v", err)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second || cfg.Server.MaxConnections != 200 {
		t.Errorf("server = %+v", cfg.Server)
	}
	if len(cfg.Lot.Info.Readers) != 2 || cfg.Lot.Info.PricingRule == "" {
		t.Errorf("lot info = %+v", cfg.Lot.Info)
	}
}
