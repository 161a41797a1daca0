package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-checkout/api/controllers"
	"github.com/angelmondragon/storefront-checkout/api/middleware"
	"github.com/angelmondragon/storefront-checkout/internal/checkout"
	"github.com/angelmondragon/storefront-checkout/internal/products"
	"github.com/angelmondragon/storefront-checkout/pkg/config"
	"github.com/angelmondragon/storefront-checkout/pkg/logger"
	"github.com/angelmondragon/storefront-checkout/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *redis.Client,
	gatherer prometheus.Gatherer,
	workspaces controllers.Workspaces,
	catalog products.Catalog,
	postalLookup checkout.PostalLookup,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSAllowedOrigins),
	)

	ready := map[string]controllers.Pinger{"db": dbP}
	var idempotencyStore redis.IdempotencyStore
	if redisClient != nil {
		ready["redis"] = redisClient
		idempotencyStore = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, ready))
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.OptionalAuth(cfg.JWT, logg))
		r.Use(middleware.SessionKey(logg))

		r.Get("/postal/{code}", controllers.PostalLookup(postalLookup, cfg.Checkout.PostalCodeLength, logg))

		// Inline group: idempotency runs after routing and sees full route patterns.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Idempotency(idempotencyStore, logg))

			r.Get("/cart", controllers.CartFetch(workspaces, logg))
			r.Post("/cart/items", controllers.CartAddItem(workspaces, catalog, logg))
			r.Patch("/cart/items/{productId}", controllers.CartUpdateItem(workspaces, logg))
			r.Delete("/cart/items/{productId}", controllers.CartRemoveItem(workspaces, logg))
			r.Put("/cart/warranty/{productId}", controllers.CartSetWarranty(workspaces, logg))

			r.Post("/checkout", controllers.CheckoutSubmit(workspaces, cfg.Payment.KeyID, logg))
			r.Post("/checkout/confirm", controllers.CheckoutConfirm(workspaces, logg))
			r.Get("/checkout/summary", controllers.CheckoutSummary(workspaces, logg))
			r.Put("/checkout/dropship", controllers.CheckoutSetDropship(workspaces, logg))
			r.Post("/checkout/groups", controllers.CheckoutCreateGroup(workspaces, logg))
			r.Delete("/checkout/groups/{groupId}", controllers.CheckoutRemoveGroup(workspaces, logg))
			r.Post("/checkout/groups/{groupId}/items", controllers.CheckoutAssign(workspaces, logg))
			r.Delete("/checkout/groups/{groupId}/items/{productId}", controllers.CheckoutUnassign(workspaces, logg))
			r.Post("/checkout/groups/{groupId}/document", controllers.CheckoutGenerateDocument(workspaces, logg))
		})
	})

	return r
}
