package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	adminapi "billing-service/internal/api/admin"
	"billing-service/internal/api/billing"
	"billing-service/internal/api/plans"
	stripewebhooks "billing-service/internal/api/stripewebhook"
	"billing-service/internal/api/users"
	"billing-service/internal/app/http/middleware"
	"billing-service/internal/reconcile"
)

// Deps is everything the HTTP surface needs.
type Deps struct {
	DB            *gorm.DB
	Service       *reconcile.Service
	Log           *zap.Logger
	JWTSecret     string
	APISecret     string
	WebhookSecret string
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	billingAPI := billing.NewHandler(d.Service, d.Log)
	webhooks := stripewebhooks.NewHandler(d.Service, d.WebhookSecret, d.Log)
	me := users.NewHandler(d.DB)
	admin := adminapi.NewHandler(d.DB)

	// Signature is computed over the raw body, so no sanitizing here.
	r.POST("/api/billing/webhook", webhooks.StripeWebhook)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/billing")

	// Service-to-service (database triggers, scheduler)
	service := api.Group("/")
	service.Use(middleware.RequireAPISecret(d.APISecret))
	service.POST("/subscribe", billingAPI.Subscribe)
	service.POST("/report-compute", billingAPI.ReportCompute)
	service.POST("/report-storage", billingAPI.ReportStorage)
	service.POST("/sync-items", billingAPI.SyncItems)
	service.POST("/sync-items/all", billingAPI.SyncAllItems)
	service.POST("/reset", billingAPI.Reset)
	service.GET("/cron/coupons", billingAPI.SweepCoupons)

	// Authenticated
	auth := api.Group("/")
	auth.Use(middleware.AuthMiddleware(d.JWTSecret))
	auth.GET("/me", me.GetCurrentUser)
	auth.GET("/catalog", plans.ListCatalog)

	// Members of the workspace in the body
	member := auth.Group("/")
	member.Use(middleware.SanitizeAndCleanInputMiddleware(), middleware.RequireWorkspaceAccess())
	member.POST("/invoice", billingAPI.Invoice)
	member.POST("/tier", billingAPI.ChangeTier)
	member.POST("/coupon", billingAPI.ApplyCoupon)
	member.DELETE("/coupon", billingAPI.RemoveCoupon)
	member.POST("/pay", billingAPI.PayOpenInvoice)

	// Admin routes
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.AuthMiddleware(d.JWTSecret), middleware.RequireRole("admin"))
	adminGroup.GET("/stats", admin.GetAdminStats)
	adminGroup.GET("/workspaces", admin.ListWorkspaces)
	adminGroup.GET("/workspaces/:id", admin.GetWorkspaceDetails)
}
