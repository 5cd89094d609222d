package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom()
	if err != nil {
		t.Fatalf("LoadFrom error: %v", err)
	}
	if cfg.GRPCAddr() != "0.0.0.0:50051" {
		t.Fatalf("grpc addr = %q", cfg.GRPCAddr())
	}
	if cfg.StoreDriver != StoreDriverPostgres {
		t.Fatalf("store driver = %q", cfg.StoreDriver)
	}
	if cfg.GRPCRequestTimeout != 10*time.Second || cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("timeouts = %v / %v", cfg.GRPCRequestTimeout, cfg.ShutdownTimeout)
	}
	if cfg.RateLimitRPS != 10 || cfg.RateLimitBurst != 20 {
		t.Fatalf("rate limit = %v / %d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
}

func TestLoadFrom_Env(t *testing.T) {
	t.Setenv("CLINICBOOK_GRPC_ADDR", "127.0.0.1:6000")
	t.Setenv("CLINICBOOK_STORE_DRIVER", "Memory")
	t.Setenv("METRICS_ADDR", "127.0.0.1:9999")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CLINICBOOK_RATELIMIT_RPS", "2.5")

	cfg, err := LoadFrom()
	if err != nil {
		t.Fatalf("LoadFrom error: %v", err)
	}
	if cfg.GRPCHost != "127.0.0.1" || cfg.GRPCPort != 6000 {
		t.Fatalf("grpc = %s:%d", cfg.GRPCHost, cfg.GRPCPort)
	}
	if cfg.StoreDriver != StoreDriverMemory {
		t.Fatalf("store driver = %q", cfg.StoreDriver)
	}
	if cfg.MetricsAddr != "127.0.0.1:9999" {
		t.Fatalf("metrics addr = %q", cfg.MetricsAddr)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("log level = %q", cfg.LogLevel)
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Fatalf("rps = %v", cfg.RateLimitRPS)
	}
}

func TestLoadFrom_MetricsOff(t *testing.T) {
	t.Setenv("CLINICBOOK_METRICS_ADDR", "OFF")
	cfg, err := LoadFrom()
	if err != nil {
		t.Fatalf("LoadFrom error: %v", err)
	}
	if cfg.MetricsAddr != "" {
		t.Fatalf("metrics addr = %q, want disabled", cfg.MetricsAddr)
	}
}

func TestLoadFrom_DotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("CLINICBOOK_GRPC_PORT=7000\nCLINICBOOK_SHUTDOWN_TIMEOUT=3s\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("CLINICBOOK_SHUTDOWN_TIMEOUT", "5s")
	t.Cleanup(func() { _ = os.Unsetenv("CLINICBOOK_GRPC_PORT") })

	cfg, err := LoadFrom(path, filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("LoadFrom error: %v", err)
	}
	if cfg.GRPCPort != 7000 {
		t.Fatalf("port = %d, want 7000 from .env", cfg.GRPCPort)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Fatalf("shutdown timeout = %v, existing env must win", cfg.ShutdownTimeout)
	}
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{name: "driver", key: "CLINICBOOK_STORE_DRIVER", value: "mysql"},
		{name: "timeout", key: "CLINICBOOK_SHUTDOWN_TIMEOUT", value: "soon"},
		{name: "request timeout", key: "CLINICBOOK_GRPC_REQUEST_TIMEOUT", value: "10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := LoadFrom(); err == nil {
				t.Fatalf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}
