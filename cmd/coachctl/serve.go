package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joeshaw/envdecode"
	"github.com/spf13/cobra"

	"fitcoach"
	"fitcoach/server"
	"fitcoach/setup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chat HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		withOtel, _ := cmd.Flags().GetBool("otel")

		var srvCfg fitcoach.ServerConfig
		if err := envdecode.Decode(&srvCfg); err != nil {
			return fmt.Errorf("decode server config: %w", err)
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			srvCfg.Addr = addr
		}
		cfg, err := setup.Load()
		if err != nil {
			return err
		}

		var opts setup.BuildOpts
		if withOtel {
			tracerProvider, meterProvider, otelShutdown, err := fitcoach.InitOtel(ctx)
			if err != nil {
				slog.Error("SETUP: Failed to initialize OpenTelemetry", "error", err)
				return err
			}
			defer func() {
				if err := otelShutdown(context.Background()); err != nil {
					slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
				}
			}()
			opts.TracerProvider, opts.MeterProvider = tracerProvider, meterProvider
		}

		app, err := setup.Build(ctx, cfg, opts)
		if err != nil {
			slog.Error("SETUP: Failed to build coordinator", "error", err)
			return err
		}
		defer func() {
			if err := app.Close(); err != nil {
				slog.Error("SETUP: Failed to close resources", "error", err)
			}
		}()

		srv, err := setup.NewHTTPServer(app, srvCfg)
		if err != nil {
			return err
		}
		return server.Run(ctx, srv, srvCfg.ShutdownTimeout)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address, overrides SERVER_ADDR")
	serveCmd.Flags().Bool("otel", false, "Export traces and metrics over OTLP")
}
