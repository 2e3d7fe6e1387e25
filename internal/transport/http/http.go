package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/corray333/backend-labs/shop/internal/service/models/order"
	"github.com/corray333/backend-labs/shop/internal/service/models/product"
	"github.com/corray333/backend-labs/shop/internal/service/models/user"
	"github.com/corray333/backend-labs/shop/internal/service/services/ordersvc"
	"github.com/corray333/backend-labs/shop/internal/transport/http/orders"
	"github.com/corray333/backend-labs/shop/internal/transport/http/products"
	"github.com/corray333/backend-labs/shop/internal/transport/http/reports"
	"github.com/corray333/backend-labs/shop/internal/transport/http/respond"
	"github.com/corray333/backend-labs/shop/internal/transport/http/users"
	"github.com/corray333/backend-labs/shop/pkg/http/middleware/trace"
	"github.com/corray333/backend-labs/shop/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"
)

type userService interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	GetUser(ctx context.Context, id int64) (user.User, error)
	ListUsers(ctx context.Context) ([]user.User, error)
	UpdateUser(ctx context.Context, id int64, patch user.UpdateUserModel) (user.User, error)
	DeleteUser(ctx context.Context, id int64) error
	OrderCounts(ctx context.Context) ([]user.OrderCount, error)
}

type productService interface {
	CreateProduct(ctx context.Context, p product.Product) (product.Product, error)
	GetProduct(ctx context.Context, id int64) (product.Product, error)
	ListProducts(ctx context.Context) ([]product.Product, error)
	UpdateProduct(ctx context.Context, id int64, patch product.UpdateProductModel) (product.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

type orderService interface {
	CreateOrder(ctx context.Context, in ordersvc.CreateOrderInput) (order.Order, error)
	GetOrder(ctx context.Context, id int64) (order.Order, error)
	GetOrders(ctx context.Context, filter order.QueryOrdersModel) ([]order.Order, error)
	GetUserOrders(ctx context.Context, userID int64) ([]order.Order, error)
	UpdateStatus(ctx context.Context, id int64, status *string) (order.Order, error)
	DeleteOrder(ctx context.Context, id int64) error
}

// pinger reports whether the database is reachable.
type pinger interface {
	Ping(ctx context.Context) error
}

type HTTPTransport struct {
	server   *http.Server
	router   *chi.Mux
	users    userService
	products productService
	orders   orderService
	db       pinger
}

func NewHTTPTransport(
	users userService,
	products productService,
	orders orderService,
	db pinger,
) *HTTPTransport {
	router := newRouter()
	server := newServer(router)

	return &HTTPTransport{
		server:   server,
		router:   router,
		users:    users,
		products: products,
		orders:   orders,
		db:       db,
	}
}

func (h *HTTPTransport) Run() error {
	return h.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// Handler returns the router with all routes registered.
func (h *HTTPTransport) Handler() http.Handler {
	return h.router
}

// RegisterRoutes registers the routes for the HTTPTransport.
func (h *HTTPTransport) RegisterRoutes() {
	h.router.Get("/", h.home)
	h.router.Get("/healthz", h.healthz)

	h.router.Route("/users", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) { users.List(w, r, h.users) })
		r.Post("/", func(w http.ResponseWriter, r *http.Request) { users.Create(w, r, h.users) })
		r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) { users.Get(w, r, h.users) })
		r.Put("/{id}", func(w http.ResponseWriter, r *http.Request) { users.Update(w, r, h.users) })
		r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) { users.Delete(w, r, h.users) })
		r.Get("/{id}/orders", func(w http.ResponseWriter, r *http.Request) { users.Orders(w, r, h.orders) })
	})

	h.router.Route("/products", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) { products.List(w, r, h.products) })
		r.Post("/", func(w http.ResponseWriter, r *http.Request) { products.Create(w, r, h.products) })
		r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) { products.Get(w, r, h.products) })
		r.Put("/{id}", func(w http.ResponseWriter, r *http.Request) { products.Update(w, r, h.products) })
		r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) { products.Delete(w, r, h.products) })
	})

	h.router.Route("/orders", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) { orders.List(w, r, h.orders) })
		r.Post("/", func(w http.ResponseWriter, r *http.Request) { orders.Create(w, r, h.orders) })
		r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) { orders.Get(w, r, h.orders) })
		r.Put("/{id}", func(w http.ResponseWriter, r *http.Request) { orders.Update(w, r, h.orders) })
		r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) { orders.Delete(w, r, h.orders) })
	})

	h.router.Get("/reports/order-counts", func(w http.ResponseWriter, r *http.Request) {
		reports.OrderCounts(w, r, h.users)
	})
}

type homeResponse struct {
	Message   string            `json:"message"`
	Endpoints map[string]string `json:"endpoints"`
}

func (h *HTTPTransport) home(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, homeResponse{
		Message: "E-Commerce API",
		Endpoints: map[string]string{
			"users":    "/users",
			"products": "/products",
			"orders":   "/orders",
			"reports":  "/reports/order-counts",
		},
	})
}

type healthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func (h *HTTPTransport) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		slog.Error("Error pinging database", "error", err)
		respond.JSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Error: err.Error()})

		return
	}

	respond.JSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

func newRouter() *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(logger.NewLoggerMiddleware(slog.Default()))
	router.Use(middleware.Recoverer)
	router.Use(trace.NewTraceMiddleware)

	allowedOrigins := viper.GetStringSlice("server.http.cors.allowed_origins")
	allowedMethods := viper.GetStringSlice("server.http.cors.allowed_methods")
	allowedHeaders := viper.GetStringSlice("server.http.cors.allowed_headers")
	exposedHeaders := viper.GetStringSlice("server.http.cors.exposed_headers")
	allowCredentials := viper.GetBool("server.http.cors.allow_credentials")
	maxAge := viper.GetInt("server.http.cors.max_age")

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   allowedMethods,
		AllowedHeaders:   allowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: allowCredentials,
		MaxAge:           maxAge,
	})

	router.Use(c.Handler)

	return router
}

func newServer(router http.Handler) *http.Server {
	return &http.Server{
		Addr:              "0.0.0.0:" + viper.GetString("server.http.port"),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
