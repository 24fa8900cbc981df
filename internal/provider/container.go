package provider

import (
	"github.com/facturio/internal/authz"
	"github.com/facturio/internal/cache"
	"github.com/facturio/internal/config"
	"github.com/facturio/internal/logger"
	"github.com/facturio/internal/models"
	"github.com/facturio/internal/queue"
	"github.com/facturio/internal/repository"
	"github.com/facturio/internal/service"
)

// Container holds the wired dependencies shared by handlers and workers.
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo          repository.AdminRepository
	UserRepo           repository.UserRepository
	InvoiceRepo        repository.InvoiceRepository
	QuoteRepo          repository.QuoteRepository
	ProcessedEventRepo repository.ProcessedEventRepository
	AuditLogRepo       repository.PaymentAuditLogRepository

	// Services
	AuthzService    *authz.Service
	AuthService     *service.AuthService
	UserAuthService *service.UserAuthService
	CaptchaService  *service.CaptchaService
	BillingService  *service.BillingService
	WebhookService  *service.WebhookService
}

// NewContainer wires the container from loaded config and an initialized DB.
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initRepositories()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.InvoiceRepo = repository.NewInvoiceRepository(db)
	c.QuoteRepo = repository.NewQuoteRepository(db)
	c.ProcessedEventRepo = repository.NewProcessedEventRepository(db)
	c.AuditLogRepo = repository.NewPaymentAuditLogRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService

	var initialAdminID uint
	if super, err := c.AdminRepo.FirstSuper(); err != nil {
		logger.Warnw("provider_lookup_super_admin_failed", "error", err)
	} else if super != nil {
		initialAdminID = super.ID
	}
	if err := c.AuthzService.BootstrapBuiltinRoles(initialAdminID); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)
	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo, c.CaptchaService)
	c.BillingService = service.NewBillingService(c.InvoiceRepo, c.QuoteRepo, c.AuditLogRepo)
	c.WebhookService = service.NewWebhookService(c.Config, c.InvoiceRepo, c.QuoteRepo, c.ProcessedEventRepo, c.AuditLogRepo, c.QueueClient)
}
