package grpctransport

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/spf13/viper"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the name the shop reports its health under.
const ServiceName = "shop.v1.Shop"

// pinger reports whether the database is reachable.
type pinger interface {
	Ping(ctx context.Context) error
}

// GRPCTransport serves the standard health service and server reflection.
type GRPCTransport struct {
	server        *grpc.Server
	listener      net.Listener
	health        *health.Server
	db            pinger
	checkInterval time.Duration
}

// NewGRPCTransport creates a new GRPCTransport listening on server.grpc.port.
func NewGRPCTransport(db pinger) (*GRPCTransport, error) {
	listener, err := net.Listen("tcp", ":"+viper.GetString("server.grpc.port"))
	if err != nil {
		return nil, fmt.Errorf("failed to listen for gRPC: %w", err)
	}

	return newGRPCTransport(listener, db), nil
}

func newGRPCTransport(listener net.Listener, db pinger) *GRPCTransport {
	checkInterval := viper.GetDuration("server.grpc.health_check_interval")
	if checkInterval <= 0 {
		checkInterval = 10 * time.Second
	}

	g := &GRPCTransport{
		server:        newGRPCServer(),
		listener:      listener,
		health:        health.NewServer(),
		db:            db,
		checkInterval: checkInterval,
	}
	g.RegisterServices()

	return g
}

// RegisterServices registers the gRPC services.
func (g *GRPCTransport) RegisterServices() {
	healthpb.RegisterHealthServer(g.server, g.health)
	reflection.Register(g.server)
	g.setServing(false)
}

// Run starts the gRPC server.
func (g *GRPCTransport) Run() error {
	slog.Info("Starting gRPC server", "address", g.listener.Addr().String())

	return g.server.Serve(g.listener)
}

// WatchHealth pings the database every check interval and updates the serving
// status until ctx is cancelled.
func (g *GRPCTransport) WatchHealth(ctx context.Context) error {
	ticker := time.NewTicker(g.checkInterval)
	defer ticker.Stop()

	for {
		g.checkHealth(ctx)

		select {
		case <-ctx.Done():
			g.health.Shutdown()

			return nil
		case <-ticker.C:
		}
	}
}

func (g *GRPCTransport) checkHealth(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, g.checkInterval)
	defer cancel()

	err := g.db.Ping(ctx)
	if err != nil && ctx.Err() == nil {
		slog.Warn("Database health check failed", "error", err)
	}
	g.setServing(err == nil)
}

func (g *GRPCTransport) setServing(ok bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		status = healthpb.HealthCheckResponse_SERVING
	}

	g.health.SetServingStatus("", status)
	g.health.SetServingStatus(ServiceName, status)
}

// Shutdown gracefully shuts down the gRPC server.
func (g *GRPCTransport) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		g.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		g.server.Stop()

		return ctx.Err()
	}
}

// newGRPCServer creates a new gRPC server with keepalive settings from config.
func newGRPCServer() *grpc.Server {
	keepaliveParams := keepalive.ServerParameters{
		MaxConnectionIdle:     viper.GetDuration("server.grpc.keepalive.max_connection_idle"),
		MaxConnectionAge:      viper.GetDuration("server.grpc.keepalive.max_connection_age"),
		MaxConnectionAgeGrace: viper.GetDuration("server.grpc.keepalive.max_connection_age_grace"),
		Time:                  viper.GetDuration("server.grpc.keepalive.time"),
		Timeout:               viper.GetDuration("server.grpc.keepalive.timeout"),
	}

	keepalivePolicy := keepalive.EnforcementPolicy{
		MinTime:             viper.GetDuration("server.grpc.keepalive.min_time"),
		PermitWithoutStream: viper.GetBool("server.grpc.keepalive.permit_without_stream"),
	}

	opts := []grpc.ServerOption{
		grpc.KeepaliveParams(keepaliveParams),
		grpc.KeepaliveEnforcementPolicy(keepalivePolicy),
	}

	return grpc.NewServer(opts...)
}
