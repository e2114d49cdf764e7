// Package server wires the ordering runtime, its HTTP API and the gRPC health
// endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	platformgrpc "github.com/tableside/tableside/internal/platform/grpc"
	"github.com/tableside/tableside/internal/platform/logging"
	"github.com/tableside/tableside/internal/platform/timeouts"
	"github.com/tableside/tableside/internal/services/ordering/api/httpapi"
	"github.com/tableside/tableside/internal/services/ordering/catalog"
	"github.com/tableside/tableside/internal/services/ordering/order"
	"github.com/tableside/tableside/internal/services/ordering/storage/sqlite"
	"github.com/tableside/tableside/internal/services/ordering/tables"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
)

// HealthService is the gRPC health service name reported by the ordering server.
const HealthService = "tableside.ordering"

// Config configures a Server.
type Config struct {
	// HTTPAddr is the API listen address.
	HTTPAddr string
	// HealthAddr is the gRPC health listen address. Empty disables it.
	HealthAddr string
	DBPath     string
	// SeedPath names a JSON or YAML seed menu. Empty uses the embedded menu.
	SeedPath  string
	AssetsDir string
	Logger    *zap.Logger
}

// Server hosts the ordering HTTP API, the health endpoint and storage lifecycle.
type Server struct {
	logger         *zap.Logger
	httpListener   net.Listener
	httpServer     *http.Server
	healthListener net.Listener
	grpcServer     *grpc.Server
	health         *health.Server
	store          *sqlite.Store
	closeOnce      sync.Once
}

// New opens storage, seeds an empty catalog and binds the listeners.
//
// A failed seed is logged and the server still starts with whatever the
// catalog holds.
func New(ctx context.Context, cfg Config) (*Server, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logging.OrNop(cfg.Logger)

	store, err := OpenStore(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	catalogService := catalog.NewService(store, logger)
	orderService := order.NewService(store, logger)
	tracker := tables.NewTracker(store, logger)

	seedCatalog(ctx, catalogService, cfg.SeedPath, logger)

	handler := httpapi.New(httpapi.Options{
		Catalog:   catalogService,
		Orders:    orderService,
		Tables:    tracker,
		AssetsDir: cfg.AssetsDir,
		Logger:    logger,
	})

	httpListener, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("listen on %s: %w", cfg.HTTPAddr, err)
	}

	srv := &Server{
		logger:       logger,
		httpListener: httpListener,
		httpServer: &http.Server{
			Handler:           handler.Routes(),
			ReadHeaderTimeout: timeouts.ReadHeader,
			ErrorLog:          zap.NewStdLog(logger),
		},
		store: store,
	}

	if strings.TrimSpace(cfg.HealthAddr) != "" {
		healthListener, err := net.Listen("tcp", cfg.HealthAddr)
		if err != nil {
			srv.Close()
			return nil, fmt.Errorf("listen on %s: %w", cfg.HealthAddr, err)
		}
		srv.healthListener = healthListener
		srv.grpcServer, srv.health = platformgrpc.NewHealthServer(HealthService)
	}

	return srv, nil
}

// Addr returns the HTTP listener address.
func (s *Server) Addr() string {
	if s == nil || s.httpListener == nil {
		return ""
	}
	return s.httpListener.Addr().String()
}

// HealthAddr returns the gRPC health listener address, or "" when disabled.
func (s *Server) HealthAddr() string {
	if s == nil || s.healthListener == nil {
		return ""
	}
	return s.healthListener.Addr().String()
}

// Run creates and serves an ordering server until context cancellation.
func Run(ctx context.Context, cfg Config) error {
	server, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve runs the HTTP and health servers until ctx is canceled or either
// server fails, then shuts both down.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	group, groupCtx := errgroup.WithContext(ctx)

	s.logger.Info("ordering server listening", zap.String("addr", s.Addr()))
	group.Go(func() error {
		if err := s.httpServer.Serve(s.httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve HTTP: %w", err)
		}
		return nil
	})

	if s.grpcServer != nil {
		s.logger.Info("health server listening", zap.String("addr", s.HealthAddr()))
		group.Go(func() error {
			if err := s.grpcServer.Serve(s.healthListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("serve gRPC health: %w", err)
			}
			return nil
		})
	}

	group.Go(func() error {
		<-groupCtx.Done()
		return s.shutdown()
	})

	err := group.Wait()
	s.logger.Info("ordering server stopped")
	return err
}

func (s *Server) shutdown() error {
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.grpcServer != nil {
		s.grpcServer.GracefulStop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown HTTP: %w", err)
	}
	return nil
}

// Close releases server resources. It is safe to call more than once.
func (s *Server) Close() {
	if s == nil {
		return
	}
	s.closeOnce.Do(func() {
		if s.health != nil {
			s.health.Shutdown()
		}
		if s.grpcServer != nil {
			s.grpcServer.Stop()
		}
		if s.httpServer != nil {
			_ = s.httpServer.Close()
		}
		if s.httpListener != nil {
			_ = s.httpListener.Close()
		}
		if s.healthListener != nil {
			_ = s.healthListener.Close()
		}
		if s.store != nil {
			if err := s.store.Close(); err != nil {
				s.logger.Warn("close ordering store", zap.Error(err))
			}
		}
	})
}

func seedCatalog(ctx context.Context, svc *catalog.Service, seedPath string, logger *zap.Logger) {
	seed, err := loadSeed(seedPath)
	if err != nil {
		logger.Error("load catalog seed", zap.String("path", seedPath), zap.Error(err))
		return
	}

	seedCtx, cancel := context.WithTimeout(ctx, timeouts.Seed)
	defer cancel()
	if _, err := svc.EnsureSeeded(seedCtx, seed); err != nil {
		logger.Error("seed catalog", zap.Error(err))
	}
}

func loadSeed(path string) (catalog.Seed, error) {
	if strings.TrimSpace(path) == "" {
		return catalog.DefaultSeed()
	}
	return catalog.LoadSeed(path)
}

// OpenStore opens the ordering SQLite store, creating its directory.
func OpenStore(path string) (*sqlite.Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ordering sqlite store: %w", err)
	}
	return store, nil
}
