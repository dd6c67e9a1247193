package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pixelcanvas/pixelcanvas/server/internal/api"
	"github.com/pixelcanvas/pixelcanvas/server/internal/config"
	"github.com/pixelcanvas/pixelcanvas/server/internal/hub"
	"github.com/pixelcanvas/pixelcanvas/server/internal/metrics"
	"github.com/pixelcanvas/pixelcanvas/server/internal/probe"
	"github.com/pixelcanvas/pixelcanvas/server/internal/store"
	"github.com/pixelcanvas/pixelcanvas/server/internal/ws"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file; empty uses defaults and CANVAS_* env vars")
	flag.Parse()

	level := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	slog.Info("pixelcanvas starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	level.Set(cfg.Server.Level())

	slog.Info("config loaded",
		"addr", cfg.Server.Addr(),
		"grpc_port", cfg.Server.GRPCPort,
		"canvas", []int{cfg.Canvas.Width, cfg.Canvas.Height},
		"hub_buffer", cfg.Hub.Buffer,
		"static_dir", cfg.Server.StaticDir,
		"log_level", level.Level(),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Shared state: one canvas and one hub for the life of the process.
	canvas := store.New(uint32(cfg.Canvas.Width), uint32(cfg.Canvas.Height))
	events := hub.New(cfg.Hub.Buffer)

	reg := metrics.NewRegistry()
	reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "canvas_hub_subscribers",
			Help: "Live hub subscriptions.",
		}, func() float64 { return float64(events.Count()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "canvas_cells",
			Help: "Number of cells on the canvas.",
		}, func() float64 { return float64(cfg.Canvas.Width) * float64(cfg.Canvas.Height) }),
	)
	sessions := ws.New(canvas, events, ws.NewMetrics(reg), cfg.Session)

	if *configPath != "" {
		go func() {
			err := config.Watch(ctx, *configPath, func(next *config.Config) {
				level.Set(next.Server.Level())
				slog.Info("log level applied", "log_level", level.Level())
				if next.Server.Addr() != cfg.Server.Addr() ||
					next.Server.GRPCPort != cfg.Server.GRPCPort ||
					next.Canvas != cfg.Canvas ||
					next.Hub != cfg.Hub ||
					next.Session != cfg.Session {
					slog.Warn("config changes other than server.log_level need a restart")
				}
			})
			if err != nil {
				slog.Error("config watcher stopped", "err", err)
			}
		}()
	}

	// Optional gRPC health probe.
	var prb *probe.Server
	if cfg.Server.GRPCPort != 0 {
		lis, err := net.Listen("tcp", cfg.Server.GRPCAddr())
		if err != nil {
			slog.Error("failed to listen on gRPC port", "addr", cfg.Server.GRPCAddr(), "err", err)
			os.Exit(1)
		}
		prb = probe.New()
		go func() {
			slog.Info("gRPC health probe listening", "addr", cfg.Server.GRPCAddr())
			if err := prb.Serve(lis); err != nil {
				slog.Error("gRPC server stopped", "err", err)
			}
		}()
	}

	httpSrv := &http.Server{
		Handler: api.NewRouter(api.Deps{
			Canvas:    canvas,
			Sessions:  sessions,
			Metrics:   metrics.Handler(reg),
			StaticDir: cfg.Server.StaticDir,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	lis, err := net.Listen("tcp", cfg.Server.Addr())
	if err != nil {
		slog.Error("failed to listen on HTTP port", "addr", cfg.Server.Addr(), "err", err)
		os.Exit(1)
	}
	go func() {
		slog.Info("HTTP server listening", "addr", cfg.Server.Addr())
		if err := httpSrv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server stopped", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("pixelcanvas shutting down")

	if prb != nil {
		prb.SetServing(false)
	}

	// Hijacked WebSocket connections are invisible to http.Server.Shutdown;
	// closing the hub ends every session.
	events.Close()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown", "err", err)
	}
	if prb != nil {
		prb.Shutdown(shutdownCtx)
	}
	slog.Info("pixelcanvas stopped")
}
