package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr              string
	IdleTimeout       time.Duration // idle keep-alive connections are closed after this
	ShutdownTimeout   time.Duration // graceful shutdown budget before connections are dropped
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration

	LogLevel    slog.Level
	LogFormat   string
	ServiceName string

	PprofEnabled bool
	AdminAddr    string

	OtlpGrpcEndpoint string
	OtlpServiceName  string
	TracingEnabled   bool

	// Upstream
	ProxyBaseURL     string // CORS pass-through proxy, e.g. https://api.allorigins.win
	ExtractorBaseURL string // extraction API, e.g. https://www.tikwm.com
	LookupTimeout    time.Duration
	UpstreamMaxBytes int64

	// Visitor sessions
	SessionTTL   time.Duration
	SessionMax   int64
	CookieSecure bool // set when served over https

	// Kafka
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// RateLimit
	RateLimitEnabled bool
}

func Default() Config {
	return Config{
		Addr:              ":9999",
		IdleTimeout:       60 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// the JSON API answers only after the lookup settles
		WriteTimeout: 45 * time.Second,

		LogLevel:    slog.LevelInfo,
		LogFormat:   "json",
		ServiceName: "tikdl",

		PprofEnabled: false,
		AdminAddr:    "127.0.0.1:6060",

		OtlpGrpcEndpoint: "127.0.0.1:4317",
		OtlpServiceName:  "tikdl",
		TracingEnabled:   false,

		ProxyBaseURL:     "https://api.allorigins.win",
		ExtractorBaseURL: "https://www.tikwm.com",
		LookupTimeout:    30 * time.Second,
		UpstreamMaxBytes: 4 << 20,

		SessionTTL: 30 * time.Minute,
		SessionMax: 10000,

		CookieSecure: false,

		KafkaEnabled: false,
		KafkaBrokers: []string{"localhost:9092"},
		KafkaTopic:   "lookup-events",

		RedisAddr:     "localhost:6379",
		RedisPassword: "",
		RedisDB:       0,

		RateLimitEnabled: true,
	}
}

func Load() Config {
	cfg := Default()

	_ = godotenv.Load(".env")

	if v, ok := os.LookupEnv("ADDR"); ok && v != "" {
		cfg.Addr = v
	}
	lookupDuration("IDLE_TIMEOUT", &cfg.IdleTimeout)
	lookupDuration("SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout)
	lookupDuration("READ_HEADER_TIMEOUT", &cfg.ReadHeaderTimeout)
	lookupDuration("READ_TIMEOUT", &cfg.ReadTimeout)
	lookupDuration("WRITE_TIMEOUT", &cfg.WriteTimeout)

	if v, ok := os.LookupEnv("LOG_LEVEL"); ok && v != "" {
		cfg.LogLevel = ParseLevel(v)
	}
	if v, ok := os.LookupEnv("LOG_FORMAT"); ok && v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}
	if v, ok := os.LookupEnv("SERVICE_NAME"); ok && v != "" {
		cfg.ServiceName = v
		cfg.OtlpServiceName = v
	}

	lookupBool("PPROF_ENABLED", &cfg.PprofEnabled)
	if v, ok := os.LookupEnv("ADMIN_ADDR"); ok && v != "" {
		cfg.AdminAddr = v
	}

	lookupBool("TRACING_ENABLED", &cfg.TracingEnabled)
	if v, ok := os.LookupEnv("OTLP_GRPC_ENDPOINT"); ok && v != "" {
		cfg.OtlpGrpcEndpoint = v
	}

	// Upstream
	if v, ok := os.LookupEnv("PROXY_BASE_URL"); ok && v != "" {
		cfg.ProxyBaseURL = strings.TrimRight(v, "/")
	}
	if v, ok := os.LookupEnv("EXTRACTOR_BASE_URL"); ok && v != "" {
		cfg.ExtractorBaseURL = strings.TrimRight(v, "/")
	}
	lookupDuration("LOOKUP_TIMEOUT", &cfg.LookupTimeout)
	if v, ok := os.LookupEnv("UPSTREAM_MAX_BYTES"); ok && v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.UpstreamMaxBytes = n
		}
	}

	// Sessions
	lookupDuration("SESSION_TTL", &cfg.SessionTTL)
	if v, ok := os.LookupEnv("SESSION_MAX"); ok && v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.SessionMax = n
		}
	}

	lookupBool("COOKIE_SECURE", &cfg.CookieSecure)

	// Kafka
	lookupBool("KAFKA_ENABLED", &cfg.KafkaEnabled)
	if v, ok := os.LookupEnv("KAFKA_BROKERS"); ok && v != "" {
		cfg.KafkaBrokers = strings.Split(v, ",")
	}
	if v, ok := os.LookupEnv("KAFKA_TOPIC"); ok && v != "" {
		cfg.KafkaTopic = v
	}

	// Redis
	if v, ok := os.LookupEnv("REDIS_ADDR"); ok && v != "" {
		cfg.RedisAddr = v
	}
	if v, ok := os.LookupEnv("REDIS_PASSWORD"); ok && v != "" {
		cfg.RedisPassword = v
	}
	if v, ok := os.LookupEnv("REDIS_DB"); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.RedisDB = n
		}
	}

	lookupBool("RATELIMIT_ENABLED", &cfg.RateLimitEnabled)

	return cfg
}

// ParseLevel maps a LOG_LEVEL value onto slog; unknown values fall back to info.
func ParseLevel(v string) slog.Level {
	switch strings.ToLower(v) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func lookupDuration(key string, dst *time.Duration) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func lookupBool(key string, dst *bool) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = strings.ToLower(v) == "true"
	}
}
