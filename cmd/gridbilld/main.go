// Command gridbilld runs the billing engine as a daemon: it consumes the
// durable command queue on RabbitMQ, applies commands to the MongoDB ledger,
// and publishes replies to the callers' ephemeral reply queues.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xraph/gridbill"
	audithook "github.com/xraph/gridbill/audit_hook"
	"github.com/xraph/gridbill/bus"
	"github.com/xraph/gridbill/command"
	"github.com/xraph/gridbill/observability"
	"github.com/xraph/gridbill/store/mongo"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil && err != context.Canceled {
		logger.Error("daemon exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := mongo.Open(cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		return err
	}

	engine := gridbill.New(st,
		gridbill.WithLogger(logger),
		gridbill.WithCorrectionIncrements(cfg.Correction.Day, cfg.Correction.Night),
		gridbill.WithPlugin(observability.NewMetricsExtension(
			observability.NewPrometheusFactory(prometheus.DefaultRegisterer),
		)),
		gridbill.WithPlugin(audithook.New(slogRecorder(logger))),
	)

	if err := engine.Start(ctx); err != nil {
		return err
	}
	defer engine.Stop() //nolint:errcheck // shutdown path

	b, err := bus.New(cfg.Bus, bus.WithBusLogger(logger))
	if err != nil {
		return err
	}
	defer b.Close()

	if cfg.Metrics.Addr != "" {
		go serveMetrics(cfg.Metrics.Addr, logger)
	}

	dispatcher := command.NewDispatcher(engine, command.WithDispatcherLogger(logger))
	server := bus.NewServer(b, dispatcher)

	logger.Info("gridbilld starting",
		"amqp_host", cfg.Bus.Server.Host,
		"mongo_database", cfg.Mongo.Database,
	)

	return server.Run(ctx)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// slogRecorder writes audit events to the structured log. Swap in a real
// audit backend by injecting a different Recorder.
func slogRecorder(logger *slog.Logger) audithook.Recorder {
	return audithook.RecorderFunc(func(ctx context.Context, event *audithook.AuditEvent) error {
		lvl := slog.LevelInfo
		switch event.Severity {
		case audithook.SeverityWarning:
			lvl = slog.LevelWarn
		case audithook.SeverityError, audithook.SeverityCritical:
			lvl = slog.LevelError
		}

		logger.Log(ctx, lvl, "audit",
			"action", event.Action,
			"resource", event.Resource,
			"resource_id", event.ResourceID,
			"outcome", event.Outcome,
			"metadata", event.Metadata,
		)
		return nil
	})
}

func serveMetrics(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("metrics listener started", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("metrics listener failed", "error", err)
	}
}
