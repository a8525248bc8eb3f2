package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"tikdl.local/gee"
	"tikdl.local/gee/middleware"
	"tikdl.local/internal/app/tiktok"
	"tikdl.local/internal/app/tiktok/events"
	tiktokhttpapi "tikdl.local/internal/app/tiktok/httpapi"
	"tikdl.local/internal/app/tiktok/session"
	"tikdl.local/internal/app/tiktok/viewstate"
	platformcache "tikdl.local/internal/platform/cache"
	"tikdl.local/internal/platform/config"
	"tikdl.local/internal/platform/httpmiddleware"
	"tikdl.local/internal/platform/httpserver"
	"tikdl.local/internal/platform/metrics"
	"tikdl.local/internal/platform/ratelimit"
	"tikdl.local/internal/platform/trace"
)

var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func main() {
	cfg := config.Load()

	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var h slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if cfg.LogFormat == "text" {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))

	metrics.Init()

	if cfg.TracingEnabled {
		shutdown := trace.InitTrace(cfg.OtlpGrpcEndpoint, cfg.OtlpServiceName)
		if shutdown == nil {
			slog.Error("trace init failed", "endpoint", cfg.OtlpGrpcEndpoint)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					slog.Error("trace shutdown failed", "err", err)
				}
			}()
		}
	} else {
		slog.Warn("tracing disabled by config", "TRACING_ENABLED", false)
	}

	// Rate limiting needs Redis; without it the service still runs, unlimited.
	var limiter httpmiddleware.Allower
	if cfg.RateLimitEnabled {
		redisClient, err := platformcache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			slog.Error("redis unavailable, rate limiting off", "addr", cfg.RedisAddr, "err", err)
		} else {
			defer func(c *redis.Client) { _ = c.Close() }(redisClient)
			limiter = ratelimit.NewLimiter(redisClient)
		}
	} else {
		slog.Warn("rate limit disabled by config", "RATELIMIT_ENABLED", false)
	}

	// Lookup events
	var collector events.Collector
	var kafkaConsumer *events.KafkaConsumer
	var channelConsumer *events.Consumer
	if cfg.KafkaEnabled {
		slog.Info("publishing lookup events to kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
		collector = events.NewKafkaCollector(cfg.KafkaBrokers, cfg.KafkaTopic)
		kafkaConsumer = events.NewKafkaConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.ServiceName+"-events", nil)
	} else {
		channelCollector := events.NewChannelCollector(10000)
		collector = channelCollector
		channelConsumer = events.NewConsumer(channelCollector, nil)
	}

	fetcher := tiktok.NewFetcher(
		&http.Client{Timeout: cfg.LookupTimeout},
		cfg.ProxyBaseURL, cfg.ExtractorBaseURL, cfg.UpstreamMaxBytes)

	sessions, err := session.NewStore(cfg.SessionMax, cfg.SessionTTL, func() *viewstate.Controller {
		return viewstate.NewController(fetcher,
			viewstate.WithTimeout(cfg.LookupTimeout),
			viewstate.WithSettleHook(events.SettleHook(collector)))
	})
	if err != nil {
		log.Fatal(err)
	}
	defer sessions.Close()

	r := gee.New()
	r.Use(gee.Recovery(), middleware.ReqID(), middleware.AccessLog(), httpmiddleware.Metrics(), httpmiddleware.TraceName())

	tiktokhttpapi.RegisterWebRoutes(r, sessions, limiter, cfg.CookieSecure)
	tiktokhttpapi.RegisterAPIRoutes(r.Group("/api/v1"), fetcher, collector, limiter, cfg.LookupTimeout)

	r.GET("/healthz", func(ctx *gee.Context) {
		ctx.String(http.StatusOK, "ok")
	})

	publicHandler := http.Handler(r)
	if cfg.TracingEnabled {
		publicHandler = otelhttp.NewHandler(r, "http")
	}
	publicSrv := httpserver.New(cfg, publicHandler)
	adminSrv := httpserver.NewAdmin(cfg, httpserver.AdminMux(cfg, httpserver.BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
	}))

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if kafkaConsumer != nil {
		go kafkaConsumer.Run(stopCtx)
		defer kafkaConsumer.Close()
	}
	if channelConsumer != nil {
		go channelConsumer.Run(stopCtx)
	}
	defer collector.Close()

	slog.Info("listening", "addr", cfg.Addr, "admin_addr", cfg.AdminAddr, "proxy", cfg.ProxyBaseURL, "extractor", cfg.ExtractorBaseURL)

	errch := make(chan error, 2)
	go func() {
		errch <- httpserver.RunWithGracefulShutdownContext(publicSrv, cfg.ShutdownTimeout, stopCtx)
	}()
	go func() {
		errch <- httpserver.RunWithGracefulShutdownContext(adminSrv, cfg.ShutdownTimeout, stopCtx)
	}()

	if err := <-errch; err != nil {
		stop()
		select {
		case <-errch:
		case <-time.After(cfg.ShutdownTimeout + time.Second):
		}
		log.Fatal(err)
	}

	stop()
	<-errch
}
