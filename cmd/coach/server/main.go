package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joeshaw/envdecode"

	"fitcoach"
	"fitcoach/server"
	"fitcoach/setup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var srvCfg fitcoach.ServerConfig
	if err := envdecode.Decode(&srvCfg); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}
	cfg, err := setup.Load()
	if err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	tracerProvider, meterProvider, otelShutdown, err := fitcoach.InitOtel(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize OpenTelemetry: %s", err)
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
		}
	}()

	app, err := setup.Build(ctx, cfg, setup.BuildOpts{
		Logger:         fitcoach.NewStdoutConsultationLogger(),
		TracerProvider: tracerProvider,
		MeterProvider:  meterProvider,
	})
	if err != nil {
		slog.Error("SETUP: Failed to build coordinator", "error", err)
		return
	}
	defer func() {
		if err := app.Close(); err != nil {
			slog.Error("SETUP: Failed to close resources", "error", err)
		}
	}()

	srv, err := setup.NewHTTPServer(app, srvCfg)
	if err != nil {
		slog.Error("SETUP: Failed to create server", "error", err)
		return
	}
	if err := server.Run(ctx, srv, srvCfg.ShutdownTimeout); err != nil {
		slog.Error("SERVER: Exited with error", "error", err)
	}
}
