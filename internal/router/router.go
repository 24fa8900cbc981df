package router

import (
	"fmt"
	"strings"

	"github.com/facturio/internal/cache"
	"github.com/facturio/internal/config"
	adminhandlers "github.com/facturio/internal/http/handlers/admin"
	publichandlers "github.com/facturio/internal/http/handlers/public"
	"github.com/facturio/internal/logger"
	"github.com/facturio/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter builds the HTTP engine.
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)

	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "fct"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		MessageKey:    "error.login_too_many",
	}
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		MessageKey:    "error.login_too_many",
	}

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		// Gateway notification intake. No auth middleware: the signature
		// check inside the pipeline is the authentication.
		apiV1.POST("/payments/webhook/cinetpay", publicHandler.CinetpayWebhook)

		auth := apiV1.Group("/auth")
		{
			auth.GET("/captcha/image", publicHandler.Captcha)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.Login)
		}

		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey, c.UserRepo))
		{
			user.GET("/me", publicHandler.Profile)
			user.GET("/me/destination", publicHandler.Destination)
			user.GET("/me/invoices", publicHandler.MyInvoices)
			user.GET("/me/invoices/:id", publicHandler.MyInvoice)
			user.GET("/me/quotes", publicHandler.MyQuotes)
			user.GET("/me/quotes/:id", publicHandler.MyQuote)
		}

		admin := apiV1.Group("/admin")
		{
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIP), adminHandler.Login)

			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo), AdminRBACMiddleware(c.AuthzService))
			{
				authorized.GET("/invoices", adminHandler.ListInvoices)
				authorized.POST("/invoices", adminHandler.CreateInvoice)
				authorized.GET("/invoices/:id", adminHandler.GetInvoice)
				authorized.PUT("/invoices/:id/status", adminHandler.UpdateInvoiceStatus)

				authorized.GET("/quotes", adminHandler.ListQuotes)
				authorized.POST("/quotes", adminHandler.CreateQuote)
				authorized.GET("/quotes/:id", adminHandler.GetQuote)
				authorized.PUT("/quotes/:id/status", adminHandler.UpdateQuoteStatus)

				authorized.GET("/payments/audit", adminHandler.ListAuditLog)
				authorized.GET("/payments/events", adminHandler.ListProcessedEvents)
				authorized.GET("/payments/check/:transId", adminHandler.CheckTransaction)
			}
		}
	}

	return r
}
