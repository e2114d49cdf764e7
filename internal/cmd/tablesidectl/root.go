// Package tablesidectl builds the operator command tree for the ordering
// database.
package tablesidectl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	entrypoint "github.com/tableside/tableside/internal/platform/cmd"
	platformgrpc "github.com/tableside/tableside/internal/platform/grpc"
	"github.com/tableside/tableside/internal/platform/logging"
	server "github.com/tableside/tableside/internal/services/ordering/app"
	"github.com/tableside/tableside/internal/services/ordering/catalog"
	"github.com/tableside/tableside/internal/services/ordering/order"
	"github.com/tableside/tableside/internal/services/ordering/storage/sqlite"
	"github.com/tableside/tableside/internal/services/ordering/tables"
	"go.uber.org/zap"
)

// Env holds environment defaults for the operator CLI.
type Env struct {
	DBPath     string `env:"TABLESIDE_ORDERING_DB_PATH" envDefault:"data/order_system.db"`
	HealthAddr string `env:"TABLESIDE_CTL_HEALTH_ADDR"  envDefault:"localhost:3001"`
	LogLevel   string `env:"TABLESIDE_LOG_LEVEL"        envDefault:"warn"`
}

type options struct {
	dbPath   string
	logLevel string
	logger   *zap.Logger
}

// NewRootCommand builds the tablesidectl command tree.
func NewRootCommand() (*cobra.Command, error) {
	var env Env
	if err := entrypoint.ParseConfig(&env); err != nil {
		return nil, err
	}

	opts := &options{}
	root := &cobra.Command{
		Use:           entrypoint.ServiceCtl,
		Short:         "Operate the tableside ordering database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := logging.New(opts.logLevel, logging.FormatConsole)
			if err != nil {
				return err
			}
			opts.logger = logger
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&opts.dbPath, "db", env.DBPath, "SQLite database path")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", env.LogLevel, "Log level")

	root.AddCommand(
		newMenuCommand(opts),
		newTablesCommand(opts),
		newOrdersCommand(opts),
		newHealthCommand(env.HealthAddr),
	)
	return root, nil
}

func newMenuCommand(opts *options) *cobra.Command {
	menu := &cobra.Command{
		Use:   "menu",
		Short: "Inspect and seed the menu catalog",
	}

	var seedFile string
	seed := &cobra.Command{
		Use:   "seed",
		Short: "Seed an empty catalog from a JSON or YAML menu file",
		Long: `Seed the catalog when it holds no menu items.

Without --file the built-in default menu is used. A catalog that already has
items is left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withStore(func(store *sqlite.Store) error {
				source, err := loadSeed(seedFile)
				if err != nil {
					return err
				}
				inserted, err := catalog.NewService(store, opts.logger).EnsureSeeded(cmd.Context(), source)
				if err != nil {
					return err
				}
				if inserted == 0 {
					_, err = fmt.Fprintln(cmd.OutOrStdout(), "catalog already seeded")
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "seeded %d menu items\n", inserted)
				return err
			})
		},
	}
	seed.Flags().StringVar(&seedFile, "file", "", "Seed file (.json, .yaml, .yml)")

	list := &cobra.Command{
		Use:   "list",
		Short: "Print the menu grouped by category as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withStore(func(store *sqlite.Store) error {
				categories, err := catalog.NewService(store, opts.logger).ListCatalog(cmd.Context())
				if err != nil {
					return err
				}
				if categories == nil {
					categories = []catalog.Category{}
				}
				return writeJSON(cmd.OutOrStdout(), map[string]any{"categories": categories})
			})
		},
	}

	menu.AddCommand(seed, list)
	return menu
}

func newTablesCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "Print tables with unsettled orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withStore(func(store *sqlite.Store) error {
				active, err := tables.NewTracker(store, opts.logger).ActiveTables(cmd.Context())
				if err != nil {
					return err
				}
				if active == nil {
					active = []int{}
				}
				return writeJSON(cmd.OutOrStdout(), active)
			})
		},
	}
}

func newOrdersCommand(opts *options) *cobra.Command {
	orders := &cobra.Command{
		Use:   "orders",
		Short: "Inspect order history",
	}

	var req order.SearchRequest
	search := &cobra.Command{
		Use:   "search",
		Short: "Search order history with an AIP-160 filter, newest first",
		Example: `  tablesidectl orders search --filter 'table_number = 5 AND status = "SETTLED"'
  tablesidectl orders search --filter 'created_at > "2026-06-01T00:00:00Z"' --page-size 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withStore(func(store *sqlite.Store) error {
				found, err := order.NewService(store, opts.logger).SearchOrders(cmd.Context(), req)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), orderViews(found))
			})
		},
	}
	search.Flags().StringVar(&req.Filter, "filter", "", "AIP-160 filter over table_number, status, total_price, created_at")
	search.Flags().IntVar(&req.PageSize, "page-size", 0, "Maximum orders to print (default 50, max 200)")

	orders.AddCommand(search)
	return orders
}

func newHealthCommand(defaultAddr string) *cobra.Command {
	var (
		addr    string
		timeout time.Duration
	)
	health := &cobra.Command{
		Use:   "health",
		Short: "Wait for the ordering server health endpoint to report SERVING",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if err := platformgrpc.Probe(ctx, addr, server.HealthService, nil); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "SERVING")
			return err
		},
	}
	health.Flags().StringVar(&addr, "addr", defaultAddr, "gRPC health address")
	health.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "How long to wait")
	return health
}

func (o *options) withStore(fn func(*sqlite.Store) error) error {
	store, err := server.OpenStore(o.dbPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil && o.logger != nil {
			o.logger.Warn("close ordering store", zap.Error(err))
		}
	}()
	return fn(store)
}

func loadSeed(path string) (catalog.Seed, error) {
	if path == "" {
		return catalog.DefaultSeed()
	}
	return catalog.LoadSeed(path)
}

func writeJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(value)
}
