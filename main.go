package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"gorm.io/gorm"

	"storemaster/internal/app"
	"storemaster/internal/config"
	"storemaster/internal/database"
	"storemaster/internal/services"
	"storemaster/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// --- Database ---
	var db *gorm.DB
	if cfg.DBDriver == "memory" {
		log.Println("Using in-memory repositories, data is lost on restart")
	} else {
		db, err = database.Open(cfg.DBDriver, cfg.DatabaseDSN)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
	}

	// --- Initialize RabbitMQ Client ---
	// Events are optional; without RABBITMQ_URL nothing is published.
	var publisher services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Exchange: cfg.EventsExchange})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		defer mqClient.Close()
		publisher = mqClient

		// --- Start RabbitMQ Consumer in a Goroutine ---
		go func() {
			log.Println("Starting RabbitMQ audit consumer...")
			patterns := []string{"product.*", "subscription.*"}
			if consumerErr := mqClient.ConsumeEvents("storemaster.audit", patterns, rabbitmq.LogEvent); consumerErr != nil {
				log.Printf("Failed to start RabbitMQ consumer: %v", consumerErr)
			}
		}()
	} else {
		log.Println("RABBITMQ_URL not set, domain events are disabled")
	}

	// --- External services ---
	gateway, err := app.NewGateway(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize PayPal gateway: %v", err)
	}

	application, err := app.New(app.Options{
		Config:    cfg,
		DB:        db,
		Publisher: publisher,
		Gateway:   gateway,
		Mailer:    app.NewMailer(cfg),
	})
	if err != nil {
		log.Fatalf("Failed to build application: %v", err)
	}

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", cfg.AppPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := application.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := application.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}
