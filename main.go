package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tumaini/giving-portal-go/analytics"
	"github.com/tumaini/giving-portal-go/config"
	"github.com/tumaini/giving-portal-go/controllers"
	"github.com/tumaini/giving-portal-go/logger"
	"github.com/tumaini/giving-portal-go/payments"
	"github.com/tumaini/giving-portal-go/routes"
	"github.com/tumaini/giving-portal-go/store"
	"github.com/tumaini/giving-portal-go/workflow"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	log := logger.New(cfg.Env)
	defer log.Sync()

	client, err := store.Connect(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatal("mongo connection failed", zap.Error(err))
	}
	cfg.MongoClient = client
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(disconnectCtx)
	}()

	s := store.New(client, cfg.DBName, log, nil)
	if err := s.EnsureIndexes(ctx); err != nil {
		log.Fatal("index provisioning failed", zap.Error(err))
	}
	if provisioned, ce := store.Exists(ctx, s, store.ColCampaigns, nil); ce == nil && !provisioned {
		log.Warn("campaigns collection is empty, marketing pages will have no content")
	}

	// Analytics pipeline: failed sends land in a persisted queue, replayed
	// once on startup.
	queue, err := analytics.NewFailedQueue(cfg.AnalyticsQueueCap, analytics.NewFileStore(cfg.AnalyticsQueuePath))
	if err != nil {
		log.Fatal("analytics queue init failed", zap.Error(err))
	}
	tracker := analytics.New(analytics.NewHTTPSink(cfg.AnalyticsEndpoint), queue, log)
	go tracker.RetryFailedEvents(ctx)

	gateway := payments.NewClient(cfg.GatewayBaseURL, cfg.GatewaySecretKey, log)
	donations := store.NewDonations(s)

	flow := workflow.NewCheckout(
		workflow.Limits{Min: cfg.DonationMin, Max: cfg.DonationMax},
		"USD",
		cfg.RedirectURL,
		"Tumaini Giving",
		gateway,
		gateway,
		donations,
		tracker,
		log,
	)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "If-None-Match", "verif-hash"},
		ExposeHeaders:    []string{"ETag", "Last-Modified"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	h := &routes.Handlers{
		Checkout:  controllers.NewCheckoutController(flow, log),
		Payments:  controllers.NewPaymentsController(donations, gateway, cfg.WebhookHash, log),
		Analytics: controllers.NewAnalyticsController(tracker),
	}
	routes.SetupRoutes(r, cfg, s, h)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Info("giving portal listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
