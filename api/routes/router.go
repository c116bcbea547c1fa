package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/landlordheaven/heaven-backend/api/controllers"
	webhookcontrollers "github.com/landlordheaven/heaven-backend/api/controllers/webhooks"
	"github.com/landlordheaven/heaven-backend/api/middleware"
	"github.com/landlordheaven/heaven-backend/internal/adminstats"
	"github.com/landlordheaven/heaven-backend/internal/cases"
	"github.com/landlordheaven/heaven-backend/internal/documents"
	"github.com/landlordheaven/heaven-backend/internal/legalchange"
	"github.com/landlordheaven/heaven-backend/internal/orders"
	stripewebhook "github.com/landlordheaven/heaven-backend/internal/webhooks/stripe"
	"github.com/landlordheaven/heaven-backend/internal/wizard"
	"github.com/landlordheaven/heaven-backend/pkg/config"
	"github.com/landlordheaven/heaven-backend/pkg/logger"
	"github.com/landlordheaven/heaven-backend/pkg/metrics"
	pkgredis "github.com/landlordheaven/heaven-backend/pkg/redis"
	"github.com/landlordheaven/heaven-backend/pkg/stripe"
)

// Dependencies is everything the router hands to middleware and controllers.
// Optional integrations may be nil; their routes then answer with an error.
type Dependencies struct {
	Config *config.Config
	Logger *logger.Logger

	Pingers        map[string]controllers.Pinger
	Idempotency    pkgredis.IdempotencyStore
	RateLimits     middleware.RateLimitStore
	HTTPMetrics    *metrics.HTTPMetrics
	MetricsHandler http.Handler

	Cases       cases.Service
	Documents   documents.Service
	Wizard      wizard.Service
	Orders      orders.Service
	Stats       adminstats.Service
	LegalChange legalchange.Service

	StripeClient  *stripe.Client
	StripeWebhook *stripewebhook.Service
	StripeGuard   *stripewebhook.IdempotencyGuard
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(cfg.App),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Pingers))
	})
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Get("/api/public/ping", controllers.PublicPing())

	if deps.StripeWebhook != nil && deps.StripeClient != nil && deps.StripeGuard != nil {
		r.Post("/api/v1/webhooks/stripe", webhookcontrollers.StripeWebhook(deps.StripeWebhook, deps.StripeClient, deps.StripeGuard, logg))
	}

	adminPolicy := middleware.NewRateLimitPolicy("admin", cfg.RateLimit.AdminWindow, cfg.RateLimit.AdminLimit)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.Supabase, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/cases", func(r chi.Router) {
			r.Get("/", controllers.CaseList(deps.Cases, logg))
			r.Post("/", controllers.CaseCreate(deps.Cases, logg))
			r.Get("/{caseId}", controllers.CaseGet(deps.Cases, logg))
			r.Put("/{caseId}", controllers.CaseUpdate(deps.Cases, logg))
			r.Delete("/{caseId}", controllers.CaseDelete(deps.Cases, logg))
		})
		r.Route("/documents", func(r chi.Router) {
			r.Get("/", controllers.DocumentList(deps.Documents, logg))
			r.Post("/generate", controllers.DocumentGenerate(deps.Documents, logg))
		})
		r.Post("/wizard/analyze", controllers.WizardAnalyze(deps.Wizard, logg))

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(logg))

			r.Get("/check-access", controllers.AdminCheckAccess(logg))
			r.Get("/stats", controllers.AdminStats(deps.Stats, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminOrders(deps.Orders, logg))
				r.Get("/failed", controllers.AdminFailedPayments(deps.Orders, logg))

				r.Group(func(r chi.Router) {
					r.Use(middleware.RateLimit(adminPolicy, deps.RateLimits, logg))
					r.With(middleware.Idempotency(deps.Idempotency, logg)).Post("/refund", controllers.AdminRefundOrder(deps.Orders, logg))
					r.Post("/resend-email", controllers.AdminResendOrderEmail(deps.Orders, logg))
				})
			})

			r.Route("/legal-change/events", func(r chi.Router) {
				r.Get("/", controllers.LegalChangeList(deps.LegalChange, logg))
				r.Route("/{eventId}", func(r chi.Router) {
					r.Get("/", controllers.LegalChangeGet(deps.LegalChange, logg))
					r.Get("/push-pr", controllers.LegalChangePushPRStatus(deps.LegalChange, logg))

					r.Group(func(r chi.Router) {
						r.Use(middleware.RateLimit(adminPolicy, deps.RateLimits, logg))
						r.Post("/push-pr", controllers.LegalChangePushPR(deps.LegalChange, logg))
						r.Post("/actions", controllers.LegalChangeAction(deps.LegalChange, logg))
					})
				})
			})
		})
	})

	return r
}
