package routes

import (
	"github.com/gin-gonic/gin"

	config "github.com/tumaini/giving-portal-go/config"
	controllers "github.com/tumaini/giving-portal-go/controllers"
	middleware "github.com/tumaini/giving-portal-go/middleware"
	store "github.com/tumaini/giving-portal-go/store"
)

// Handlers bundles the constructed controllers the routes need.
type Handlers struct {
	Checkout  *controllers.CheckoutController
	Payments  *controllers.PaymentsController
	Analytics *controllers.AnalyticsController
}

func SetupRoutes(r *gin.Engine, cfg *config.Config, s *store.Store, h *Handlers) {
	// public
	r.POST("/auth/register", controllers.Register(cfg, s))
	r.POST("/auth/login", controllers.Login(cfg, s))
	r.POST("/auth/refresh", controllers.RefreshToken(cfg, s))

	// marketing pages
	r.GET("/campaigns", controllers.ListCampaigns(cfg, s))
	r.GET("/campaigns/:id", controllers.GetCampaign(cfg, s))

	// analytics ingest
	r.POST("/events", middleware.OptionalAuth(cfg), h.Analytics.Track)

	// donation checkout (guests allowed)
	checkout := r.Group("/checkout")
	checkout.Use(middleware.OptionalAuth(cfg))
	{
		checkout.POST("", h.Checkout.Start)
		checkout.GET("/:id", h.Checkout.Get)
		checkout.POST("/:id/amount", h.Checkout.SubmitAmount)
		checkout.POST("/:id/donor", h.Checkout.SubmitDonor)
		checkout.POST("/:id/back", h.Checkout.Back)
		checkout.POST("/:id/pay", h.Checkout.Pay)
		checkout.POST("/:id/callback", h.Checkout.Callback)
		checkout.POST("/:id/cancel", h.Checkout.Cancel)
		checkout.POST("/:id/retry", h.Checkout.Retry)
	}

	// payment verification + gateway webhook
	r.GET("/api/verify-payment", h.Payments.VerifyPayment)
	r.POST("/webhooks/payments", h.Payments.Webhook)

	// protected admin surface
	auth := middleware.AuthMiddleware(cfg)
	manager := middleware.RequireManager()

	donations := r.Group("/donations")
	donations.Use(auth, manager)
	{
		donations.POST("", controllers.CreateDonation(cfg, s))
		donations.GET("", controllers.ListDonations(cfg, s))
		donations.GET("/:id", controllers.GetDonation(cfg, s))
		donations.PATCH("/:id/status", controllers.UpdateDonationStatus(cfg, s))
		donations.DELETE("/:id", controllers.DeleteDonation(cfg, s))
	}

	campaigns := r.Group("/admin/campaigns")
	campaigns.Use(auth, manager)
	{
		campaigns.POST("", controllers.CreateCampaign(cfg, s))
		campaigns.PATCH("/:id", controllers.UpdateCampaign(cfg, s))
		campaigns.DELETE("/:id", controllers.DeleteCampaign(cfg, s))
	}
}
