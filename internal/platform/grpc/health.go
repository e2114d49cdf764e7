// Package grpc hosts the gRPC health endpoint tableside processes expose and
// the probe operators use against it.
package grpc

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = time.Second
	checkTimeout   = time.Second
)

// NewHealthServer builds a gRPC server exposing only the health service.
// Every named service starts SERVING alongside the overall "" status.
func NewHealthServer(services ...string) (*gogrpc.Server, *health.Server) {
	grpcServer := gogrpc.NewServer(gogrpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	for _, service := range services {
		healthServer.SetServingStatus(service, grpc_health_v1.HealthCheckResponse_SERVING)
	}
	return grpcServer, healthServer
}

// Probe connects to addr and waits until service reports SERVING or ctx ends.
func Probe(ctx context.Context, addr string, service string, logger *zap.Logger) error {
	conn, err := gogrpc.NewClient(addr,
		gogrpc.WithTransportCredentials(insecure.NewCredentials()),
		gogrpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()
	return WaitForHealth(ctx, conn, service, logger)
}

// WaitForHealth blocks until the gRPC health check reports SERVING or the context ends.
func WaitForHealth(ctx context.Context, conn *gogrpc.ClientConn, service string, logger *zap.Logger) error {
	if conn == nil {
		return fmt.Errorf("gRPC connection is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	healthClient := grpc_health_v1.NewHealthClient(conn)
	backoff := initialBackoff
	for {
		callCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		response, err := healthClient.Check(callCtx, &grpc_health_v1.HealthCheckRequest{Service: service})
		cancel()
		if err == nil && response.GetStatus() == grpc_health_v1.HealthCheckResponse_SERVING {
			logger.Debug("gRPC health check is SERVING", zap.String("service", service))
			return nil
		}
		if err != nil {
			logger.Debug("waiting for gRPC health", zap.Error(err))
		} else {
			logger.Debug("waiting for gRPC health", zap.String("status", response.GetStatus().String()))
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for gRPC health: %w", ctx.Err())
		case <-time.After(backoff):
		}

		backoff = min(backoff*2, maxBackoff)
	}
}
