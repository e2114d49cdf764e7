// Package cmd holds the startup plumbing shared by tableside commands.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/tableside/tableside/internal/platform/config"
	"github.com/tableside/tableside/internal/platform/logging"
	"github.com/tableside/tableside/internal/platform/otel"
	"go.uber.org/zap"
)

const defaultOTelShutdownTimeout = 5 * time.Second

// Service names used for telemetry resources and logger names.
const (
	ServiceOrdering    = "ordering"
	ServiceOrderingMCP = "ordering-mcp"
	ServiceCtl         = "tablesidectl"
)

// RunOptions controls shared entrypoint behavior for service commands.
type RunOptions struct {
	// ShutdownTimeout bounds the telemetry flush on exit.
	ShutdownTimeout time.Duration
	// Logger receives lifecycle and telemetry shutdown messages. Nil discards them.
	Logger *zap.Logger
}

// ParseConfig loads environment values into cfg.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnv(cfg)
}

// ParseArgs parses command-line flags over values already loaded from env.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag parser is required")
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// RunWithTelemetryAndOptions installs tracing for service, runs the loop and
// flushes telemetry once it returns.
func RunWithTelemetryAndOptions(ctx context.Context, service string, options RunOptions, run func(context.Context) error) error {
	service = strings.TrimSpace(service)
	if service == "" {
		return fmt.Errorf("service name is required")
	}
	if run == nil {
		return fmt.Errorf("run function is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logging.OrNop(options.Logger).With(zap.String("service", service))

	shutdown, err := otel.Setup(ctx, service)
	if err != nil {
		return err
	}
	defer func() {
		timeout := options.ShutdownTimeout
		if timeout <= 0 {
			timeout = defaultOTelShutdownTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("otel shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("service starting")
	err = run(ctx)
	if err != nil {
		logger.Error("service failed", zap.Error(err))
		return err
	}
	logger.Info("service stopped")
	return nil
}
