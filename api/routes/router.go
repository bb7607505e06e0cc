package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/krishikarobar/marketplace-backend/api/controllers"
	"github.com/krishikarobar/marketplace-backend/api/middleware"
	"github.com/krishikarobar/marketplace-backend/internal/cart"
	"github.com/krishikarobar/marketplace-backend/internal/notifications"
	"github.com/krishikarobar/marketplace-backend/internal/orders"
	"github.com/krishikarobar/marketplace-backend/pkg/config"
	"github.com/krishikarobar/marketplace-backend/pkg/enums"
	"github.com/krishikarobar/marketplace-backend/pkg/logger"
	"github.com/krishikarobar/marketplace-backend/pkg/metrics"
	pkgredis "github.com/krishikarobar/marketplace-backend/pkg/redis"
)

// RequestGuards is the redis surface behind session checks, throttling and
// idempotent replays.
type RequestGuards interface {
	pkgredis.IdempotencyStore
	pkgredis.RateLimiter
	middleware.SessionChecker
	controllers.Pinger
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	guards RequestGuards,
	gatherer prometheus.Gatherer,
	httpMetrics *metrics.HTTPMetrics,
	cartService cart.Service,
	ordersService orders.Service,
	notificationsService notifications.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    dbP,
			"redis": guards,
		}))
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	var sessions middleware.SessionChecker
	if cfg.Auth.SessionCheck {
		sessions = guards
	}
	apiPolicy := middleware.NewRateLimitPolicy("api", cfg.RateLimit.Window, cfg.RateLimit.Limit)

	buyer := middleware.RequireRole(logg, enums.ActorRoleBuyer)
	buyerOrAdmin := middleware.RequireRole(logg, enums.ActorRoleBuyer, enums.ActorRoleAdmin)
	seller := middleware.RequireRole(logg, enums.ActorRoleFarmer, enums.ActorRoleAdmin)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.RateLimit(apiPolicy, guards, logg))
		r.Use(middleware.Idempotency(guards, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Use(buyer)
			r.Get("/", controllers.GetCart(cartService, logg))
			r.Post("/items", controllers.AddCartItem(cartService, logg))
			r.Patch("/items/{itemId}", controllers.UpdateCartItem(cartService, logg))
			r.Delete("/items/{itemId}", controllers.RemoveCartItem(cartService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.With(buyer).Post("/", controllers.Checkout(ordersService, logg))
			r.With(buyerOrAdmin).Get("/", controllers.ListOrders(ordersService, logg))
			r.With(buyerOrAdmin).Get("/{orderId}", controllers.GetOrder(ordersService, logg))
			r.With(buyer).Patch("/{orderId}", controllers.UpdateOrder(ordersService, logg))
		})

		r.Route("/order-items", func(r chi.Router) {
			r.Use(seller)
			r.Get("/", controllers.ListOrderItems(ordersService, logg))
			r.Patch("/{itemId}", controllers.UpdateOrderItemStatus(ordersService, logg))
			r.Delete("/{itemId}", controllers.DeleteOrderItem(ordersService, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(notificationsService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationsService, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationsService, logg))
			r.Delete("/{notificationId}", controllers.ClearNotification(notificationsService, logg))
		})
	})

	return r
}
