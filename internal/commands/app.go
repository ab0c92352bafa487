package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xtraqtiv/clickup-sync/clickup"
	"github.com/xtraqtiv/clickup-sync/config"
	synchttp "github.com/xtraqtiv/clickup-sync/http"
	"github.com/xtraqtiv/clickup-sync/logger"
	"github.com/xtraqtiv/clickup-sync/observability"
)

const shutdownTimeout = 5 * time.Second

// app is the wiring shared by the commands that talk to ClickUp.
type app struct {
	cfg      *config.Config
	log      logger.Logger
	provider observability.Provider
	api      *clickup.Client
}

func newApp(cmd *cobra.Command, opts *RootOptions) (*app, error) {
	cfg, err := config.Load(config.Options{File: opts.ConfigFile, EnvFile: opts.EnvFile})
	if err != nil {
		return nil, err
	}

	log := logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Pretty)

	provider, err := observability.NewProvider(&observability.Config{
		Enabled:        cfg.Observability.Enabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: opts.version,
		Endpoint:       cfg.Observability.Endpoint,
		Protocol:       cfg.Observability.Protocol,
		Insecure:       cfg.Observability.Insecure,
		Writer:         cmd.ErrOrStderr(),
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}

	rest := synchttp.NewBuilder(log).
		WithBaseURL(cfg.ClickUp.BaseURL).
		WithToken(cfg.ClickUp.APIToken).
		WithTimeout(cfg.HTTP.Timeout).
		WithRetries(cfg.HTTP.MaxRetries, cfg.HTTP.RetryDelay).
		WithDefaultRetryAfter(cfg.HTTP.RetryAfter).
		WithRateLimit(cfg.HTTP.RateLimit, cfg.HTTP.RateBurst).
		WithDefaultHeader("User-Agent", "clickup-sync/"+opts.version).
		WithTracerProvider(provider.TracerProvider()).
		WithMeterProvider(provider.MeterProvider()).
		Build()

	return &app{
		cfg:      cfg,
		log:      log,
		provider: provider,
		api:      clickup.New(rest, log),
	}, nil
}

// close flushes telemetry. It runs after the command context may be done.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.provider.Shutdown(ctx); err != nil {
		a.log.Warn().Err(err).Msg("Failed to flush telemetry")
	}
}

// withApp builds the app, runs fn and flushes telemetry.
func withApp(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(cmd.Context(), a)
}
