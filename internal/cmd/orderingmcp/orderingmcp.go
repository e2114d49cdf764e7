// Package orderingmcp parses MCP command flags and serves the ordering tools
// over stdio or streamable HTTP.
package orderingmcp

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	entrypoint "github.com/tableside/tableside/internal/platform/cmd"
	"github.com/tableside/tableside/internal/platform/logging"
	"github.com/tableside/tableside/internal/platform/timeouts"
	"github.com/tableside/tableside/internal/services/ordering/api/mcptools"
	server "github.com/tableside/tableside/internal/services/ordering/app"
	"github.com/tableside/tableside/internal/services/ordering/catalog"
	"github.com/tableside/tableside/internal/services/ordering/order"
	"github.com/tableside/tableside/internal/services/ordering/tables"
	"go.uber.org/zap"
)

const (
	// TransportStdio serves MCP over stdin/stdout.
	TransportStdio = "stdio"
	// TransportHTTP serves MCP over streamable HTTP.
	TransportHTTP = "http"

	serverVersion = "0.1.0"
)

// Config holds MCP command configuration.
type Config struct {
	DBPath    string `env:"TABLESIDE_ORDERING_DB_PATH"   envDefault:"data/order_system.db"`
	Transport string `env:"TABLESIDE_MCP_TRANSPORT"      envDefault:"stdio"`
	HTTPAddr  string `env:"TABLESIDE_MCP_HTTP_ADDR"      envDefault:"localhost:3002"`
	LogLevel  string `env:"TABLESIDE_LOG_LEVEL"          envDefault:"info"`
	LogFormat string `env:"TABLESIDE_LOG_FORMAT"         envDefault:"json"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport type: stdio or http")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP server address (for HTTP transport)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: json or console")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	cfg.Transport = strings.ToLower(strings.TrimSpace(cfg.Transport))
	if cfg.Transport != TransportStdio && cfg.Transport != TransportHTTP {
		return Config{}, fmt.Errorf("unsupported transport %q", cfg.Transport)
	}
	return cfg, nil
}

// Run serves the ordering MCP tools until ctx is canceled.
func Run(ctx context.Context, cfg Config) error {
	// zap writes to stderr, leaving stdout to the stdio transport.
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	options := entrypoint.RunOptions{Logger: logger}
	return entrypoint.RunWithTelemetryAndOptions(ctx, entrypoint.ServiceOrderingMCP, options, func(ctx context.Context) error {
		return serve(ctx, cfg, logger.Named(entrypoint.ServiceOrderingMCP))
	})
}

func serve(ctx context.Context, cfg Config, logger *zap.Logger) error {
	store, err := server.OpenStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("close ordering store", zap.Error(err))
		}
	}()

	mcpServer, err := mcptools.NewServer(serverVersion, mcptools.Services{
		Catalog: catalog.NewService(store, logger),
		Orders:  order.NewService(store, logger),
		Tables:  tables.NewTracker(store, logger),
	})
	if err != nil {
		return err
	}

	switch cfg.Transport {
	case TransportHTTP:
		return serveHTTP(ctx, mcpServer, cfg.HTTPAddr, logger)
	default:
		logger.Info("ordering MCP server on stdio")
		if err := mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("serve MCP: %w", err)
		}
		return nil
	}
}

func serveHTTP(ctx context.Context, mcpServer *mcp.Server, addr string, logger *zap.Logger) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return mcpServer }, nil)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: timeouts.ReadHeader,
		ErrorLog:          zap.NewStdLog(logger),
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("ordering MCP server listening", zap.String("addr", addr))
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown MCP HTTP: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve MCP HTTP: %w", err)
	}
}
