package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/reportello/reportello-backend/api/controllers"
	"github.com/reportello/reportello-backend/api/middleware"
	"github.com/reportello/reportello-backend/internal/allowlist"
	"github.com/reportello/reportello-backend/internal/auth"
	"github.com/reportello/reportello-backend/internal/reports"
	"github.com/reportello/reportello-backend/internal/users"
	pkgAuth "github.com/reportello/reportello-backend/pkg/auth"
	"github.com/reportello/reportello-backend/pkg/config"
	"github.com/reportello/reportello-backend/pkg/db"
	"github.com/reportello/reportello-backend/pkg/logger"
	"github.com/reportello/reportello-backend/pkg/metrics"
	"github.com/reportello/reportello-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	httpMetrics *metrics.HTTPMetrics,
	gatherer prometheus.Gatherer,
	dbClient *db.Client,
	redisClient *redis.Client,
	sessions middleware.SessionGuard,
	accounts middleware.AccountGate,
	authService auth.Service,
	userService users.Service,
	reportService reports.Service,
	allowListService allowlist.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)
	if httpMetrics != nil {
		r.Use(httpMetrics.Middleware())
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUsernameLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbClient, redisClient))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(authService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/google", controllers.AuthGoogle(authService, logg))
		r.Post("/refresh", controllers.AuthRefresh(authService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, accounts, logg))

		r.Post("/auth/logout", controllers.AuthLogout(authService, logg))
		r.Get("/me", controllers.Me(authService, logg))

		r.Route("/reports", func(r chi.Router) {
			r.Get("/", controllers.ReportsList(reportService, logg))
			r.Post("/", controllers.ReportsCreate(reportService, logg))
			r.Get("/template", controllers.ReportsTemplate(logg))
			r.Post("/compose/visit", controllers.ReportsComposeVisit(logg))
			r.Post("/compose/date", controllers.ReportsComposeDate(logg))
			r.Post("/export", controllers.ReportsExportDraft(logg))
			r.Get("/{reportID}", controllers.ReportsGet(reportService, logg))
			r.Put("/{reportID}", controllers.ReportsUpdate(reportService, logg))
			r.Delete("/{reportID}", controllers.ReportsDelete(reportService, logg))
			r.Get("/{reportID}/export", controllers.ReportsExport(reportService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, accounts, logg))
		r.Use(middleware.RequireRole(string(pkgAuth.RoleMaster), logg))

		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.UsersList(userService, logg))
			r.Post("/", controllers.UsersCreate(userService, logg))
			r.Get("/{userID}", controllers.UsersGet(userService, logg))
			r.Patch("/{userID}", controllers.UsersUpdate(userService, logg))
			r.Delete("/{userID}", controllers.UsersDelete(userService, logg))
			r.Post("/{userID}/password", controllers.UsersUpdatePassword(userService, logg))
		})

		r.Route("/authorized-emails", func(r chi.Router) {
			r.Get("/", controllers.AllowListIndex(allowListService, logg))
			r.Post("/", controllers.AllowListAuthorize(allowListService, logg))
			r.Delete("/{email}", controllers.AllowListRevoke(allowListService, logg))
		})
	})

	return r
}
