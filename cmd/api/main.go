package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/landlordheaven/heaven-backend/api/controllers"
	"github.com/landlordheaven/heaven-backend/api/routes"
	"github.com/landlordheaven/heaven-backend/internal/adminstats"
	"github.com/landlordheaven/heaven-backend/internal/cases"
	"github.com/landlordheaven/heaven-backend/internal/documents"
	"github.com/landlordheaven/heaven-backend/internal/legalchange"
	"github.com/landlordheaven/heaven-backend/internal/mail"
	"github.com/landlordheaven/heaven-backend/internal/orders"
	stripewebhook "github.com/landlordheaven/heaven-backend/internal/webhooks/stripe"
	"github.com/landlordheaven/heaven-backend/internal/wizard"
	"github.com/landlordheaven/heaven-backend/pkg/bigquery"
	"github.com/landlordheaven/heaven-backend/pkg/config"
	"github.com/landlordheaven/heaven-backend/pkg/db"
	"github.com/landlordheaven/heaven-backend/pkg/logger"
	"github.com/landlordheaven/heaven-backend/pkg/metrics"
	"github.com/landlordheaven/heaven-backend/pkg/migrate"
	"github.com/landlordheaven/heaven-backend/pkg/pubsub"
	"github.com/landlordheaven/heaven-backend/pkg/redis"
	"github.com/landlordheaven/heaven-backend/pkg/stripe"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	stripeClient, err := stripe.NewClient(ctx, cfg.Stripe, logg)
	if err != nil {
		return err
	}

	pingers := map[string]controllers.Pinger{
		"database": dbClient,
		"redis":    redisClient,
	}

	// without a GCP project, dev logs generation requests instead of publishing
	var docPublisher documents.Publisher
	if cfg.App.IsDev() && cfg.GCP.ProjectID == "" {
		docPublisher = &documents.LogPublisher{Logger: logg, Topic: cfg.PubSub.DocumentsTopic}
	} else {
		pubsubClient, psErr := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if psErr != nil {
			return psErr
		}
		defer func() { err = multierr.Append(err, pubsubClient.Close()) }()
		docPublisher = pubsubClient
		pingers["pubsub"] = pubsubClient
	}

	// payment outcome export is optional; an untyped nil recorder skips it
	var paymentRecorder stripewebhook.PaymentRecorder
	if cfg.BigQuery.Enabled() {
		bq, bqErr := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
		if bqErr != nil {
			return bqErr
		}
		defer func() { err = multierr.Append(err, bq.Close()) }()
		paymentRecorder = bq
		pingers["bigquery"] = bq
	}

	// An untyped nil keeps the wizard on its canned answer when Gemini is not configured.
	var answerer wizard.Answerer
	gemini, err := wizard.NewGeminiAnswerer(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
	if err != nil {
		return err
	}
	if gemini != nil {
		answerer = gemini
		defer func() { err = multierr.Append(err, gemini.Close()) }()
	} else {
		logg.Warn(ctx, "gemini api key not set, ask heaven answers are disabled")
	}

	var prCreator legalchange.PRCreator
	if creator := legalchange.NewGitHubPRCreator(cfg.GitHub, &http.Client{Timeout: cfg.GitHub.PRTimeout}); creator != nil {
		prCreator = creator
	} else {
		logg.Warn(ctx, "github integration not configured, push-pr is disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	actionMetrics := metrics.NewActionMetrics(registry)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	casesRepo := cases.NewRepository(dbClient.DB())
	casesSvc, err := cases.NewService(casesRepo, dbClient)
	if err != nil {
		return err
	}

	documentsRepo := documents.NewRepository(dbClient.DB())
	documentsSvc, err := documents.NewService(documentsRepo, casesSvc, docPublisher, actionMetrics, logg)
	if err != nil {
		return err
	}

	wizardSvc, err := wizard.NewService(casesSvc, documentsRepo, redisClient, answerer, logg)
	if err != nil {
		return err
	}

	ordersRepo := orders.NewRepository(dbClient.DB())
	mailer := mail.NewMailer(mail.NewSender(cfg.Mail, logg), cfg.App.PublicURL)
	ordersSvc, err := orders.NewService(ordersRepo, stripeClient, mailer, actionMetrics, logg)
	if err != nil {
		return err
	}

	statsSvc, err := adminstats.NewService(adminstats.NewRepository(dbClient.DB()), cfg.Stats.CacheTTL)
	if err != nil {
		return err
	}

	legalSvc, err := legalchange.NewService(legalchange.ServiceParams{
		Repo:      legalchange.NewRepository(dbClient.DB()),
		Tx:        dbClient,
		Locker:    redisClient,
		PRCreator: prCreator,
		PRTimeout: cfg.GitHub.PRTimeout,
		Metrics:   actionMetrics,
		Logger:    logg,
	})
	if err != nil {
		return err
	}

	webhookSvc, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Orders:   ordersRepo,
		Recorder: paymentRecorder,
		Metrics:  actionMetrics,
		Logger:   logg,
	})
	if err != nil {
		return err
	}
	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Stripe.IdempotencyTTL)
	if err != nil {
		return err
	}

	handler := routes.NewRouter(routes.Dependencies{
		Config:         cfg,
		Logger:         logg,
		Pingers:        pingers,
		Idempotency:    redisClient,
		RateLimits:     redisClient,
		HTTPMetrics:    httpMetrics,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Cases:          casesSvc,
		Documents:      documentsSvc,
		Wizard:         wizardSvc,
		Orders:         ordersSvc,
		Stats:          statsSvc,
		LegalChange:    legalSvc,
		StripeClient:   stripeClient,
		StripeWebhook:  webhookSvc,
		StripeGuard:    webhookGuard,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
