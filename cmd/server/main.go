package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joeshaw/envdecode"

	"platescan"
	"platescan/bootstrap"
	"platescan/httpapi"
	"platescan/pipeline"
)

type ServerConfig struct {
	Port            string        `env:"PORT,default=8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT,default=30s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT,default=2m"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT,default=15s"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var serverConfig ServerConfig
	if err := envdecode.StrictDecode(&serverConfig); err != nil {
		log.Fatalf("SETUP: Failed to decode: %s", err)
	}

	cfg, err := platescan.LoadConfig()
	if err != nil {
		log.Fatalf("SETUP: Failed to decode: %s", err)
	}

	app, err := bootstrap.Build(ctx, cfg, platescan.NewStdoutRunLogger())
	if err != nil {
		slog.Error("SETUP: Failed to build pipeline", "error", err)
		return
	}
	defer func() {
		if err := app.Close(); err != nil {
			slog.Error("SETUP: Failed to close resources", "error", err)
		}
	}()

	tracerProvider, meterProvider, otelShutdown, err := platescan.InitOtel(ctx)
	if err != nil {
		slog.Error("SETUP: Failed to initialize OpenTelemetry", "error", err)
		return
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
		}
	}()

	orchestrator := pipeline.NewInstrumentedOrchestrator(
		app.Orchestrator,
		tracerProvider.Tracer(platescan.TracerNameServer),
		meterProvider.Meter(platescan.TracerNameServer),
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", serverConfig.Port),
		Handler:      httpapi.NewRouter(httpapi.NewHandler(orchestrator)),
		ReadTimeout:  serverConfig.ReadTimeout,
		WriteTimeout: serverConfig.WriteTimeout,
	}

	go func() {
		slog.Info("SERVER: Listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("SERVER: Listen failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("SERVER: Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("SERVER: Shutdown failed", "error", err)
		return
	}
	slog.Info("SERVER: Shutdown complete")
}
