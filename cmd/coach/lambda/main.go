package main

import (
	"context"
	"log"
	"log/slog"

	"github.com/aws/aws-lambda-go/lambda"

	"fitcoach"
	"fitcoach/coordinator"
	"fitcoach/setup"
)

type Params struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

func main() {
	ctx := context.Background()

	cfg, err := setup.Load()
	if err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	tracerProvider, meterProvider, otelShutdown, err := fitcoach.InitOtel(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize OpenTelemetry: %s", err)
	}

	app, err := setup.Build(ctx, cfg, setup.BuildOpts{
		Logger:         fitcoach.NewStdoutConsultationLogger(),
		TracerProvider: tracerProvider,
		MeterProvider:  meterProvider,
	})
	if err != nil {
		log.Fatalf("Failed to build coordinator: %s", err)
	}

	fn := func(ctx context.Context, params Params) (coordinator.ChatReply, error) {
		// Flush spans and metrics before the sandbox freezes.
		defer func() {
			if err := tracerProvider.ForceFlush(ctx); err != nil {
				slog.Error("SETUP: Failed to flush traces", "error", err)
			}
			if err := meterProvider.ForceFlush(ctx); err != nil {
				slog.Error("SETUP: Failed to flush metrics", "error", err)
			}
		}()

		reply, err := app.Coordinator.Chat(ctx, coordinator.ChatRequest{UserID: params.UserID, Message: params.Message})
		if err != nil {
			slog.Error("RESULT: Error handling message", "error", err)
			return coordinator.ChatReply{}, err
		}
		return reply, nil
	}

	lambda.StartWithOptions(fn, lambda.WithEnableSIGTERM(func() {
		if err := app.Close(); err != nil {
			slog.Error("SETUP: Failed to close resources", "error", err)
		}
		if err := otelShutdown(context.Background()); err != nil {
			slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
		}
	}))
}
