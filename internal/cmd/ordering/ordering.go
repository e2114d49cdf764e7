// Package ordering parses ordering service flags and launches the service.
package ordering

import (
	"context"
	"flag"
	"fmt"

	entrypoint "github.com/tableside/tableside/internal/platform/cmd"
	"github.com/tableside/tableside/internal/platform/logging"
	server "github.com/tableside/tableside/internal/services/ordering/app"
	"go.uber.org/zap"
)

// Config holds ordering command configuration.
type Config struct {
	Port       int    `env:"TABLESIDE_ORDERING_PORT"        envDefault:"3000"`
	HealthPort int    `env:"TABLESIDE_ORDERING_HEALTH_PORT" envDefault:"3001"`
	DBPath     string `env:"TABLESIDE_ORDERING_DB_PATH"     envDefault:"data/order_system.db"`
	SeedPath   string `env:"TABLESIDE_ORDERING_SEED_PATH"`
	AssetsDir  string `env:"TABLESIDE_ORDERING_ASSETS_DIR"  envDefault:"assets"`
	LogLevel   string `env:"TABLESIDE_LOG_LEVEL"            envDefault:"info"`
	LogFormat  string `env:"TABLESIDE_LOG_FORMAT"           envDefault:"json"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The ordering HTTP API port")
	fs.IntVar(&cfg.HealthPort, "health-port", cfg.HealthPort, "The gRPC health port (0 disables)")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")
	fs.StringVar(&cfg.SeedPath, "seed", cfg.SeedPath, "Catalog seed file (.json, .yaml); empty uses the built-in menu")
	fs.StringVar(&cfg.AssetsDir, "assets", cfg.AssetsDir, "Directory for menu images and static assets")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: json or console")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ServerConfig maps command configuration to the server wiring.
func (c Config) ServerConfig(logger *zap.Logger) server.Config {
	healthAddr := ""
	if c.HealthPort > 0 {
		healthAddr = fmt.Sprintf(":%d", c.HealthPort)
	}
	return server.Config{
		HTTPAddr:   fmt.Sprintf(":%d", c.Port),
		HealthAddr: healthAddr,
		DBPath:     c.DBPath,
		SeedPath:   c.SeedPath,
		AssetsDir:  c.AssetsDir,
		Logger:     logger,
	}
}

// Run starts the ordering HTTP API and health services.
func Run(ctx context.Context, cfg Config) error {
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	options := entrypoint.RunOptions{Logger: logger}
	return entrypoint.RunWithTelemetryAndOptions(ctx, entrypoint.ServiceOrdering, options, func(ctx context.Context) error {
		return server.Run(ctx, cfg.ServerConfig(logger.Named(entrypoint.ServiceOrdering)))
	})
}
