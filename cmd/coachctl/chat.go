package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"fitcoach"
	"fitcoach/coordinator"
	"fitcoach/setup"
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Send one message to the coaching specialists",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		debug, _ := cmd.Flags().GetBool("debug")
		userID, _ := cmd.Flags().GetString("user")
		provider, _ := cmd.Flags().GetString("provider")
		logDir, _ := cmd.Flags().GetString("log-dir")
		withOtel, _ := cmd.Flags().GetBool("otel")

		cfg, err := setup.Load()
		if err != nil {
			return err
		}
		if provider != "" {
			cfg.Model.Provider = provider
		}
		if debug {
			// Store, cache and Slack sections carry credentials.
			slog.Info("SETUP: Debug config", "model", fitcoach.Sdump(cfg.Model), "agent", fitcoach.Sdump(cfg.Agent))
		}

		logger, cleanup, err := newConsultationLogger(logDir, cfg.Model.ModelID)
		if err != nil {
			return err
		}
		defer func() {
			if err := cleanup(); err != nil {
				slog.Error("Failed to flush consultation log", "error", err)
			}
		}()

		opts := setup.BuildOpts{Logger: logger}
		if withOtel {
			tracerProvider, meterProvider, otelShutdown, err := fitcoach.InitOtel(ctx)
			if err != nil {
				slog.Error("SETUP: Failed to initialize OpenTelemetry", "error", err)
				return err
			}
			defer func() {
				if err := otelShutdown(ctx); err != nil {
					slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
				}
			}()
			opts.TracerProvider, opts.MeterProvider = tracerProvider, meterProvider

			var span trace.Span
			ctx, span = tracerProvider.Tracer(fitcoach.InstrumentationName).Start(ctx, "coachctl.chat", trace.WithAttributes(
				attribute.String("model.provider", cfg.Model.Provider),
				attribute.String("model.id", cfg.Model.ModelID),
			))
			defer span.End()
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

		reply, err := app.Coordinator.Chat(ctx, coordinator.ChatRequest{UserID: userID, Message: strings.Join(args, " ")})
		if err != nil {
			slog.Error("RESULT: Error handling message", "error", err)
			return err
		}

		if debug {
			fitcoach.Dump(reply)
		}
		printReply(cmd, reply)
		return nil
	},
}

func printReply(cmd *cobra.Command, reply coordinator.ChatReply) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, reply.Reply)
	if len(reply.Actions) == 0 {
		return
	}
	fmt.Fprintln(out)
	for _, a := range reply.Actions {
		fmt.Fprintf(out, "%s %s (%s, %.2f)\n", a.Icon, a.Label, a.Source, a.Confidence)
	}
}

// newConsultationLogger writes a per-run JSON log under dir. An empty dir
// disables it.
func newConsultationLogger(dir, modelID string) (fitcoach.ConsultationLogger, func() error, error) {
	if dir == "" {
		return fitcoach.NewNoOpConsultationLogger(), func() error { return nil }, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log dir: %w", err)
	}

	logFile, err := os.OpenFile(fitcoach.NewConsultationLogFilePath(dir, modelID), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := fitcoach.NewFileConsultationLogger(logFile)
	cleanup := func() error {
		return errors.Join(logger.Flush(), logFile.Close())
	}
	return logger, cleanup, nil
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().String("provider", "", "Override MODEL_PROVIDER (bedrock, ollama or mock)")
	chatCmd.Flags().String("log-dir", "logs", "Directory for consultation logs, empty to disable")
	chatCmd.Flags().Bool("otel", false, "Export traces and metrics over OTLP")
}
