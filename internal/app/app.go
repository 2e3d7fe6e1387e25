package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/corray333/backend-labs/shop/internal/dal/postgres"
	"github.com/corray333/backend-labs/shop/internal/dal/rabbitmq"
	outboxrepo "github.com/corray333/backend-labs/shop/internal/dal/repositories/outbox/postgres"
	productrepo "github.com/corray333/backend-labs/shop/internal/dal/repositories/product/postgres"
	userrepo "github.com/corray333/backend-labs/shop/internal/dal/repositories/user/postgres"
	"github.com/corray333/backend-labs/shop/internal/otel"
	"github.com/corray333/backend-labs/shop/internal/service/services/ordersvc"
	"github.com/corray333/backend-labs/shop/internal/service/services/productsvc"
	"github.com/corray333/backend-labs/shop/internal/service/services/usersvc"
	grpctransport "github.com/corray333/backend-labs/shop/internal/transport/grpc"
	httptransport "github.com/corray333/backend-labs/shop/internal/transport/http"
	"github.com/corray333/backend-labs/shop/internal/worker/outbox"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// App represents the application.
type App struct {
	UserSvc    *usersvc.UserService
	ProductSvc *productsvc.ProductService
	OrderSvc   *ordersvc.OrderService

	postgresClient *postgres.Client
	rabbitClient   *rabbitmq.Client
	otelController *otel.OtelController
}

// MustNewApp connects to the configured backends and builds the services.
func MustNewApp() *App {
	otelController := otel.MustInitOtel()
	postgresClient := postgres.MustNewClient()

	a := &App{
		UserSvc: usersvc.MustNewUserService(
			usersvc.WithUserRepository(userrepo.NewPostgresUserRepository(postgresClient.Pool())),
		),
		ProductSvc: productsvc.MustNewProductService(
			productsvc.WithProductRepository(productrepo.NewPostgresProductRepository(postgresClient.Pool())),
		),
		postgresClient: postgresClient,
		otelController: otelController,
	}

	if viper.GetBool("rabbitmq.enabled") {
		a.rabbitClient = rabbitmq.MustNewClient()
		queue := viper.GetString("rabbitmq.queue")
		if _, err := a.rabbitClient.DeclareQueue(rabbitmq.DeclareQueueConfig{Name: queue, Durable: true}); err != nil {
			panic("failed to declare queue " + queue + ": " + err.Error())
		}

		a.OrderSvc = ordersvc.MustNewOrderService(
			ordersvc.WithPostgresClient(postgresClient),
			ordersvc.WithOrderEvents(queue),
		)
	} else {
		a.OrderSvc = ordersvc.MustNewOrderService(
			ordersvc.WithPostgresClient(postgresClient),
		)
	}

	return a
}

// Run serves HTTP and gRPC, and relays order events when RabbitMQ is enabled,
// until ctx is cancelled or one of them fails. It then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	httpTransport := httptransport.NewHTTPTransport(a.UserSvc, a.ProductSvc, a.OrderSvc, a.postgresClient)
	httpTransport.RegisterRoutes()

	grpcTransport, err := grpctransport.NewGRPCTransport(a.postgresClient)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Starting HTTP server", "port", viper.GetString("server.http.port"))
		if err := httpTransport.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		return grpcTransport.Run()
	})

	g.Go(func() error {
		return grpcTransport.WatchHealth(gctx)
	})

	if a.rabbitClient != nil {
		worker := outbox.NewWorker(outboxrepo.NewOutboxRepository(a.postgresClient.Pool()), a.rabbitClient)
		g.Go(func() error {
			return worker.Start(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpTransport.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		} else {
			slog.Info("HTTP server stopped gracefully")
		}

		if err := grpcTransport.Shutdown(shutdownCtx); err != nil {
			slog.Error("gRPC server shutdown error", "error", err)
		} else {
			slog.Info("gRPC server stopped gracefully")
		}

		return nil
	})

	return g.Wait()
}

// Close releases the connections held by the application.
func (a *App) Close() {
	if a.rabbitClient != nil {
		if err := a.rabbitClient.Close(); err != nil {
			slog.Error("RabbitMQ connection close error", "error", err)
		}
	}

	a.postgresClient.Close()
	slog.Info("Database connection closed gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.otelController.Shutdown(ctx); err != nil {
		slog.Error("Tracer provider shutdown error", "error", err)
	}

	slog.Info("Application shutdown complete")
}
