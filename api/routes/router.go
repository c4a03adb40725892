package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/macado/b2b-backend/api/controllers"
	"github.com/macado/b2b-backend/api/middleware"
	"github.com/macado/b2b-backend/internal/applications"
	"github.com/macado/b2b-backend/internal/auth"
	"github.com/macado/b2b-backend/internal/cart"
	"github.com/macado/b2b-backend/internal/customers"
	"github.com/macado/b2b-backend/internal/orders"
	"github.com/macado/b2b-backend/internal/products"
	"github.com/macado/b2b-backend/internal/users"
	"github.com/macado/b2b-backend/pkg/auth/session"
	"github.com/macado/b2b-backend/pkg/config"
	"github.com/macado/b2b-backend/pkg/db"
	"github.com/macado/b2b-backend/pkg/enums"
	"github.com/macado/b2b-backend/pkg/logger"
	"github.com/macado/b2b-backend/pkg/redis"
)

type fixedWindowLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Deps carries everything the HTTP surface needs. Nil services yield 503 handlers.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redis.Client
	Sessions session.AccessSessionChecker
	Gatherer prometheus.Gatherer

	Auth         auth.Service
	Users        users.Service
	Applications applications.Service
	Customers    customers.Service
	Products     products.Service
	Cart         cart.Service
	Orders       orders.Service
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	applicationPolicy := middleware.NewAuthRateLimitPolicy(
		"application",
		cfg.AuthRateLimit.ApplicationWindow,
		cfg.AuthRateLimit.ApplicationIPLimit,
		cfg.AuthRateLimit.ApplicationMailLimit,
	)

	// A nil *redis.Client must reach the middleware as a nil interface so it degrades to a pass-through.
	var (
		limiter fixedWindowLimiter
		idem    redis.IdempotencyStore
	)
	ready := map[string]controllers.Pinger{}
	if d.DB != nil {
		ready["db"] = d.DB
	}
	if d.Redis != nil {
		ready["redis"] = d.Redis
		limiter = d.Redis
		idem = d.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, ready))
	})
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(applicationPolicy, limiter, logg)).
			Post("/applications", controllers.ApplicationSubmit(d.Applications, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, limiter, logg)).Post("/login", controllers.AuthLogin(d.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(d.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(d.Auth, cfg.JWT, logg))
	})

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))
		r.Use(middleware.RateLimit(limiter, cfg.APIRateLimit.Limit, cfg.APIRateLimit.Window, logg))
		r.Use(middleware.RequireStaff(logg))

		r.Route("/applications", func(r chi.Router) {
			r.Get("/", controllers.ApplicationList(d.Applications, logg))
			r.Get("/summary", controllers.ApplicationSummary(d.Applications, logg))
			r.Get("/{applicationId}", controllers.ApplicationDetail(d.Applications, logg))
			r.Post("/{applicationId}/start-review", controllers.ApplicationStartReview(d.Applications, logg))
			r.Put("/{applicationId}/review", controllers.ApplicationSaveReview(d.Applications, logg))
			r.Post("/{applicationId}/submit-approval", controllers.ApplicationSubmitForApproval(d.Applications, logg))
			r.With(middleware.Idempotency(idem, middleware.CriticalIdempotencyTTL, logg)).
				Post("/{applicationId}/approve", controllers.ApplicationApprove(d.Applications, logg))
			r.Post("/{applicationId}/reject", controllers.ApplicationReject(d.Applications, logg))
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", controllers.CustomerList(d.Customers, logg))
			r.Get("/{customerId}", controllers.CustomerDetail(d.Customers, logg))
			r.Patch("/{customerId}", controllers.CustomerUpdate(d.Customers, logg))
			r.Put("/{customerId}/special-pricing/{productId}", controllers.CustomerSetSpecialPrice(d.Customers, logg))
			r.Delete("/{customerId}/special-pricing/{productId}", controllers.CustomerClearSpecialPrice(d.Customers, logg))
			r.With(middleware.RequireRoles(logg, enums.UserRoleAdmin)).
				Get("/{customerId}/users", controllers.CustomerUsers(d.Users, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireRoles(logg, enums.UserRoleAdmin))
			r.Post("/", controllers.UserCreate(d.Users, logg))
			r.Get("/{userId}", controllers.UserDetail(d.Users, logg))
			r.Patch("/{userId}/active", controllers.UserSetActive(d.Users, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(d.Products, logg))
			r.Get("/{productId}", controllers.ProductDetail(d.Products, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(d.Orders, logg))
			r.Get("/summary", controllers.OrderSummary(d.Orders, logg))
			r.With(middleware.Idempotency(idem, middleware.DefaultIdempotencyTTL, logg)).
				Post("/", controllers.OrderCreateManual(d.Orders, logg))
			r.Get("/{orderId}", controllers.OrderDetail(d.Orders, logg))
			r.Patch("/{orderId}/status", controllers.OrderUpdateStatus(d.Orders, logg))
		})

		r.Post("/pricing/quote", controllers.PricingQuote(d.Orders, logg))
	})

	r.Route("/api/v1/portal", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))
		r.Use(middleware.RateLimit(limiter, cfg.APIRateLimit.Limit, cfg.APIRateLimit.Window, logg))
		r.Use(middleware.RequireRoles(logg, enums.UserRoleCustomer))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(d.Products, logg))
			r.Get("/{productId}", controllers.ProductDetail(d.Products, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(d.Cart, logg))
			r.Delete("/", controllers.CartClear(d.Cart, logg))
			r.Post("/items", controllers.CartAddItem(d.Cart, logg))
			r.Patch("/items/{productId}", controllers.CartUpdateItem(d.Cart, logg))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(d.Cart, logg))
			r.Get("/quote", controllers.CartQuote(d.Cart, logg))
		})

		r.With(middleware.Idempotency(idem, middleware.CriticalIdempotencyTTL, logg)).
			Post("/checkout", controllers.OrderCheckout(d.Orders, logg))
		r.Post("/pricing/quote", controllers.PricingQuote(d.Orders, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(d.Orders, logg))
			r.Get("/{orderId}", controllers.OrderDetail(d.Orders, logg))
		})
	})

	return r
}
