package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/pixcheckout/api/controllers"
	pixcontrollers "github.com/angelmondragon/pixcheckout/api/controllers/pix"
	"github.com/angelmondragon/pixcheckout/api/middleware"
	"github.com/angelmondragon/pixcheckout/internal/roles"
	"github.com/angelmondragon/pixcheckout/pkg/config"
	"github.com/angelmondragon/pixcheckout/pkg/enums"
	"github.com/angelmondragon/pixcheckout/pkg/logger"
	"github.com/angelmondragon/pixcheckout/pkg/metrics"
)

// Deps groups the collaborators the HTTP surface needs.
type Deps struct {
	Config     *config.Config
	Logger     *logger.Logger
	Gatherer   prometheus.Gatherer
	Metrics    *metrics.CheckoutMetrics
	RoleLookup roles.Lookup
	Tokens     middleware.TokenVerifier
	Pingers    map[string]controllers.Pinger
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Get("/health", controllers.HealthLive(cfg))
	r.Get("/health/ready", controllers.HealthReady(cfg, logg, deps.Pingers))

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	role := enums.AppRole(cfg.Roles.ElevatedRole)

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.OptionalAuth(deps.Tokens, logg))
		api.Post("/pix/view", pixcontrollers.View(cfg.Pix, logg))
		api.Get("/me/role", pixcontrollers.MyRole(deps.RoleLookup, role, logg, deps.Metrics))
	})

	return r
}
