package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestConfigLoad_UsesDefaults(t *testing.T) {
	for _, key := range []string{
		"ADDR", "IDLE_TIMEOUT", "SHUTDOWN_TIMEOUT", "READ_HEADER_TIMEOUT", "READ_TIMEOUT", "WRITE_TIMEOUT",
		"PROXY_BASE_URL", "EXTRACTOR_BASE_URL", "LOOKUP_TIMEOUT", "SESSION_TTL", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Addr != ":9999" {
		t.Fatalf("Addr: got %q, want %q", cfg.Addr, ":9999")
	}
	if cfg.IdleTimeout != 60*time.Second {
		t.Fatalf("IdleTimeout: got %v, want %v", cfg.IdleTimeout, 60*time.Second)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("ShutdownTimeout: got %v, want %v", cfg.ShutdownTimeout, 10*time.Second)
	}
	if cfg.ProxyBaseURL != "https://api.allorigins.win" {
		t.Fatalf("ProxyBaseURL: got %q", cfg.ProxyBaseURL)
	}
	if cfg.ExtractorBaseURL != "https://www.tikwm.com" {
		t.Fatalf("ExtractorBaseURL: got %q", cfg.ExtractorBaseURL)
	}
	if cfg.LookupTimeout != 30*time.Second {
		t.Fatalf("LookupTimeout: got %v, want %v", cfg.LookupTimeout, 30*time.Second)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Fatalf("SessionTTL: got %v, want %v", cfg.SessionTTL, 30*time.Minute)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Fatalf("LogLevel: got %v, want %v", cfg.LogLevel, slog.LevelInfo)
	}
}

func TestConfigLoad_ReadsEnv(t *testing.T) {
	t.Setenv("ADDR", ":18080")
	t.Setenv("IDLE_TIMEOUT", "2m")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("READ_HEADER_TIMEOUT", "4s")
	t.Setenv("READ_TIMEOUT", "5s")
	t.Setenv("WRITE_TIMEOUT", "6s")
	t.Setenv("PROXY_BASE_URL", "http://proxy.local/")
	t.Setenv("EXTRACTOR_BASE_URL", "http://extractor.local")
	t.Setenv("LOOKUP_TIMEOUT", "7s")
	t.Setenv("UPSTREAM_MAX_BYTES", "1024")
	t.Setenv("SESSION_TTL", "1h")
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("RATELIMIT_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()

	if cfg.Addr != ":18080" {
		t.Fatalf("Addr: got %q, want %q", cfg.Addr, ":18080")
	}
	if cfg.IdleTimeout != 2*time.Minute {
		t.Fatalf("IdleTimeout: got %v, want %v", cfg.IdleTimeout, 2*time.Minute)
	}
	if cfg.ShutdownTimeout != 3*time.Second {
		t.Fatalf("ShutdownTimeout: got %v, want %v", cfg.ShutdownTimeout, 3*time.Second)
	}
	if cfg.ReadHeaderTimeout != 4*time.Second {
		t.Fatalf("ReadHeaderTimeout: got %v, want %v", cfg.ReadHeaderTimeout, 4*time.Second)
	}
	if cfg.ReadTimeout != 5*time.Second {
		t.Fatalf("ReadTimeout: got %v, want %v", cfg.ReadTimeout, 5*time.Second)
	}
	if cfg.WriteTimeout != 6*time.Second {
		t.Fatalf("WriteTimeout: got %v, want %v", cfg.WriteTimeout, 6*time.Second)
	}
	if cfg.ProxyBaseURL != "http://proxy.local" {
		t.Fatalf("ProxyBaseURL: got %q, want trailing slash trimmed", cfg.ProxyBaseURL)
	}
	if cfg.ExtractorBaseURL != "http://extractor.local" {
		t.Fatalf("ExtractorBaseURL: got %q", cfg.ExtractorBaseURL)
	}
	if cfg.LookupTimeout != 7*time.Second {
		t.Fatalf("LookupTimeout: got %v, want %v", cfg.LookupTimeout, 7*time.Second)
	}
	if cfg.UpstreamMaxBytes != 1024 {
		t.Fatalf("UpstreamMaxBytes: got %d, want %d", cfg.UpstreamMaxBytes, 1024)
	}
	if cfg.SessionTTL != time.Hour {
		t.Fatalf("SessionTTL: got %v, want %v", cfg.SessionTTL, time.Hour)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "b:9092" {
		t.Fatalf("KafkaBrokers: got %v", cfg.KafkaBrokers)
	}
	if cfg.RateLimitEnabled {
		t.Fatal("RateLimitEnabled: got true, want false")
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Fatalf("LogLevel: got %v, want %v", cfg.LogLevel, slog.LevelDebug)
	}
}

func TestParseLevel_UnknownFallsBackToInfo(t *testing.T) {
	if got := ParseLevel("verbose"); got != slog.LevelInfo {
		t.Fatalf("ParseLevel: got %v, want %v", got, slog.LevelInfo)
	}
	if got := ParseLevel("WARNING"); got != slog.LevelWarn {
		t.Fatalf("ParseLevel: got %v, want %v", got, slog.LevelWarn)
	}
}
