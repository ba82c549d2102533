package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/mpiyush15/pixels-official-sub001/internal/api/handlers"
	"github.com/mpiyush15/pixels-official-sub001/internal/api/middleware"
	"github.com/mpiyush15/pixels-official-sub001/internal/config"
	"github.com/mpiyush15/pixels-official-sub001/internal/email"
	"github.com/mpiyush15/pixels-official-sub001/internal/models"
	"github.com/mpiyush15/pixels-official-sub001/internal/services"
	"github.com/mpiyush15/pixels-official-sub001/internal/storage"
	"github.com/mpiyush15/pixels-official-sub001/internal/tasks"
)

// Services groups what the HTTP layer needs. main builds it once for all run modes.
type Services struct {
	Payments      services.IPaymentService
	Salaries      services.ISalaryService
	Notifications services.INotificationService
	Leads         services.ILeadService
	Submissions   services.ISubmissionService
	Invoices      services.IInvoiceService
	Reconcile     services.IReconcileService
	Settings      services.ISettingsService
	EmailTemplate services.IEmailTemplateService
	Storage       storage.IS3Storage
	Dispatcher    tasks.Dispatcher
}

// SetupRouter configures the main API engine.
func SetupRouter(ctx context.Context, cfg *config.Config, svc Services) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.StructuredLoggingMiddleware(slog.Default()))
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	rateLimiter := middleware.NewRateLimiterMiddleware(ctx, cfg)
	authRequired := middleware.AuthMiddleware(cfg.JwtSecret, cfg.StaffSessionCookie)
	adminOnly := middleware.RequireActorKind(models.ActorAdmin)

	paymentHandler := handlers.NewPaymentHandler(svc.Payments, svc.Dispatcher)
	salaryHandler := handlers.NewSalaryHandler(svc.Salaries)
	notificationHandler := handlers.NewNotificationHandler(svc.Notifications)
	conversionHandler := handlers.NewConversionHandler(svc.Leads, svc.Submissions, svc.Dispatcher)
	documentHandler := handlers.NewDocumentHandler(svc.Storage, svc.Invoices)
	adminHandler := handlers.NewAdminHandler(svc.Reconcile, svc.Settings, svc.EmailTemplate)

	v1 := r.Group("/v1")
	v1.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	authed := v1.Group("/")
	authed.Use(authRequired, rateLimiter.Limit())
	{
		// Payments get a tighter bucket of their own.
		authed.POST("/payments/process",
			middleware.RequireActorKind(models.ActorClient),
			rateLimiter.LimitWith("payments", 1, 5),
			paymentHandler.ProcessPayment)

		authed.POST("/uploads", middleware.RequireActorKind(models.ActorClient, models.ActorStaff), documentHandler.CreateUploadURL)
		authed.GET("/invoices/:id/document", middleware.RequireActorKind(models.ActorClient, models.ActorAdmin), documentHandler.GetInvoiceDocument)

		salaries := authed.Group("/salaries", adminOnly)
		salaries.POST("", salaryHandler.CreateSalary)
		salaries.GET("", salaryHandler.ListSalaries)
		salaries.GET("/:id", salaryHandler.GetSalary)
		salaries.PATCH("/:id", salaryHandler.UpdateSalary)
		salaries.DELETE("/:id", salaryHandler.DeleteSalary)

		authed.POST("/leads/:id/convert", adminOnly, conversionHandler.ConvertLead)
		authed.POST("/submissions/:id/convert", adminOnly, conversionHandler.ConvertSubmission)

		admin := authed.Group("/admin", adminOnly)
		admin.GET("/notifications", notificationHandler.GetFeed)
		admin.PATCH("/notifications", notificationHandler.MarkRead)
		admin.POST("/notifications", notificationHandler.MarkAllRead)
		admin.POST("/reconcile", adminHandler.Reconcile)
		admin.GET("/settings", adminHandler.GetSettings)
		admin.PATCH("/settings", adminHandler.UpdateSettings)
		admin.GET("/email-templates/:templateId", adminHandler.GetEmailTemplate)
		admin.PUT("/email-templates/:templateId", adminHandler.SaveEmailTemplate)
		admin.DELETE("/email-templates/:templateId", adminHandler.DeleteEmailTemplate)

		staff := authed.Group("/staff", middleware.RequireActorKind(models.ActorStaff))
		staff.GET("/notifications", notificationHandler.GetFeed)
		staff.PATCH("/notifications", notificationHandler.MarkRead)
		staff.POST("/notifications", notificationHandler.MarkAllRead)
	}

	return r
}

// SetupServiceRouter configures the internal service engine used by deploy tooling and
// end-to-end tests. It must not be exposed publicly.
func SetupServiceRouter(rdb *redis.Client, shutdownChan chan<- struct{}) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.StructuredLoggingMiddleware(slog.Default()))

	r.POST("/api", func(c *gin.Context) {
		var req struct {
			Method    string          `json:"method"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
			return
		}

		switch req.Method {
		case "shutdown":
			slog.Info("shutdown requested via service API")
			c.JSON(http.StatusOK, gin.H{"success": true, "result": "Shutdown initiated"})
			select {
			case shutdownChan <- struct{}{}:
			default:
			}
		case "getTestEmail":
			var args []string // [templateID, email]
			if err := json.Unmarshal(req.Arguments, &args); err != nil || len(args) != 2 {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid arguments: expected JSON array [templateId, email]"})
				return
			}
			stored, err := pollStoredEmail(c.Request.Context(), rdb, args[1], args[0])
			switch {
			case errors.Is(err, redis.Nil):
				c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Test email not found for %s", email.MockEmailKey(args[1], args[0]))})
			case err != nil:
				slog.Error("service API: reading test email failed", "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Redis error"})
			default:
				rdb.Del(c.Request.Context(), email.MockEmailKey(args[1], args[0]))
				c.JSON(http.StatusOK, gin.H{"success": true, "data": stored})
			}
		default:
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Unknown service method: %s", req.Method)})
		}
	})
	return r
}

// pollStoredEmail waits briefly for the worker to deliver a mock email.
func pollStoredEmail(ctx context.Context, rdb *redis.Client, to, templateID string) (*email.StoredEmail, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	var err error
	for i := 0; i < 10; i++ {
		var stored *email.StoredEmail
		stored, err = email.GetStoredEmail(ctx, rdb, to, templateID)
		if !errors.Is(err, redis.Nil) {
			return stored, err
		}
		select {
		case <-ctx.Done():
			return nil, err
		case <-time.After(200 * time.Millisecond):
		}
	}
	return nil, err
}
