// Package app wires repositories, services and handlers into a Fiber application.
package app

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"gorm.io/gorm"

	"storemaster/internal/config"
	"storemaster/internal/handlers"
	"storemaster/internal/mailer"
	"storemaster/internal/middleware"
	"storemaster/internal/payment"
	"storemaster/internal/repositories"
	"storemaster/internal/services"
)

// Options are the external resources the application is built from.
// A nil DB selects the in-memory repositories.
type Options struct {
	Config    *config.Config
	DB        *gorm.DB
	Publisher services.EventPublisher
	Gateway   payment.Gateway
	Mailer    mailer.Mailer
	// Quiet disables the request logger.
	Quiet bool
}

type repositorySet struct {
	products      repositories.ProductRepository
	stores        repositories.StoreRepository
	users         repositories.UserRepository
	subscriptions repositories.SubscriptionRepository
	applications  repositories.ApplicationRepository
}

func newRepositories(db *gorm.DB) repositorySet {
	if db == nil {
		return repositorySet{
			products:      repositories.NewMockProductRepository(),
			stores:        repositories.NewMockStoreRepository(),
			users:         repositories.NewMockUserRepository(),
			subscriptions: repositories.NewMockSubscriptionRepository(),
			applications:  repositories.NewMockApplicationRepository(),
		}
	}
	return repositorySet{
		products:      repositories.NewGORMProductRepository(db),
		stores:        repositories.NewGORMStoreRepository(db),
		users:         repositories.NewGORMUserRepository(db),
		subscriptions: repositories.NewGORMSubscriptionRepository(db),
		applications:  repositories.NewGORMApplicationRepository(db),
	}
}

// New builds the Fiber application with every route registered.
func New(opts Options) (*fiber.App, error) {
	if opts.Config == nil {
		return nil, errors.New("app: config is required")
	}
	cfg := opts.Config
	gateway := opts.Gateway
	if gateway == nil {
		gateway = payment.DisabledGateway{}
	}
	mail := opts.Mailer
	if mail == nil {
		mail = mailer.LogMailer{}
	}

	// --- Repositories ---
	repos := newRepositories(opts.DB)

	// --- Services ---
	tokens := services.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	subscriptionService := services.NewSubscriptionService(repos.subscriptions, repos.users, gateway, tokens, opts.Publisher, cfg.PremiumPrice, cfg.Currency)
	authService := services.NewAuthService(repos.users, repos.stores, subscriptionService, mail, tokens, cfg.PinTTL)
	productService := services.NewProductService(repos.products, repos.stores, opts.Publisher, cfg.SKUMaxAttempts)
	storeService := services.NewStoreService(repos.stores)
	userService := services.NewUserService(repos.users)
	applicationService := services.NewApplicationService(repos.applications, repos.users)

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(authService)
	paymentHandler := handlers.NewPaymentHandler(subscriptionService)
	productHandler := handlers.NewProductHandler(productService)
	storeHandler := handlers.NewStoreHandler(storeService)
	userHandler := handlers.NewUserHandler(userService)
	applicationHandler := handlers.NewApplicationHandler(applicationService)

	app := fiber.New(fiber.Config{
		AppName:      "storemaster",
		ErrorHandler: errorHandler,
	})

	// --- Middleware ---
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New())
	if !opts.Quiet {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		}))
	}

	// --- Health Check Endpoint ---
	events := "disabled"
	if opts.Publisher != nil {
		events = "enabled"
	}
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
			"events": events,
		})
	})

	// --- API Routes ---
	apiV1 := app.Group("/api/v1")

	// Public routes
	authHandler.RegisterRoutes(apiV1)
	paymentHandler.RegisterRoutes(apiV1)
	applicationHandler.RegisterPublicRoutes(apiV1)

	// Protected routes (require JWT authentication)
	protectedRoutes := apiV1.Group("", middleware.AuthRequired(authService))
	productHandler.RegisterRoutes(protectedRoutes)
	storeHandler.RegisterRoutes(protectedRoutes)
	userHandler.RegisterRoutes(protectedRoutes)
	applicationHandler.RegisterRoutes(protectedRoutes)

	return app, nil
}

// NewGateway returns the PayPal gateway, or DisabledGateway when no
// credentials are configured.
func NewGateway(cfg *config.Config) (payment.Gateway, error) {
	if cfg.PayPalClientID == "" || cfg.PayPalSecret == "" {
		log.Println("PayPal credentials not set, Premium signups are disabled")
		return payment.DisabledGateway{}, nil
	}
	gateway, err := payment.NewPayPalGateway(payment.PayPalConfig{
		ClientID:  cfg.PayPalClientID,
		Secret:    cfg.PayPalSecret,
		Live:      cfg.PayPalMode == "live",
		ReturnURL: cfg.PayPalReturnURL,
		CancelURL: cfg.PayPalCancelURL,
		Timeout:   cfg.GatewayTimeout,
	})
	if err != nil {
		return nil, err
	}
	return gateway, nil
}

// NewMailer returns the SendGrid mailer, or a LogMailer when no API key is set.
func NewMailer(cfg *config.Config) mailer.Mailer {
	if cfg.SendGridAPIKey == "" {
		log.Println("SENDGRID_API_KEY not set, emails are written to the log")
		return mailer.LogMailer{}
	}
	return mailer.NewSendGridMailer(cfg.SendGridAPIKey, cfg.MailFrom, cfg.GatewayTimeout)
}

// errorHandler renders errors that escape the handlers, such as unknown
// routes and recovered panics, in the API's error shape.
func errorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "Server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
		message = fe.Message
	} else {
		log.Printf("Unhandled error on %s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}
