package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/loci-itinerary/internal/pkg/config"
	"github.com/FACorreiaa/loci-itinerary/internal/server"
	"github.com/FACorreiaa/loci-itinerary/pkg/logger"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := logger.Init(cfg.LogLevel, zap.String("service", "loci-itinerary"), zap.String("version", version)); err != nil {
		return err
	}
	l := logger.Log
	defer func() { _ = l.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := server.InitObservability(cfg, version, l)
	if err != nil {
		return err
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			l.Error("Failed to shutdown OpenTelemetry", zap.Error(err))
		}
	}()

	srv, err := server.New(ctx, cfg, l)
	if err != nil {
		return err
	}
	defer srv.Close()

	router, err := server.SetupRouter(srv.GetDBPool(), cfg, l)
	if err != nil {
		return err
	}
	srv.SetRouter(router)

	httpServer := srv.HTTPServer()
	pprofServer := server.PprofServer(cfg.PprofAddr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		l.Info("Server starting", zap.String("port", cfg.ServerPort))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return server.ServePprof(pprofServer, l)
	})
	g.Go(func() error {
		return server.GracefulShutdown(gctx, l, httpServer, pprofServer)
	})

	if err := g.Wait(); err != nil {
		l.Error("Server error", zap.Error(err))
		return err
	}
	l.Info("Graceful shutdown complete")
	return nil
}
