package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"

	"kritika/internal/db"
	"kritika/internal/handlers"
	"kritika/internal/middleware"
	"kritika/internal/repositories"
	"kritika/internal/services"
	"kritika/pkg/mailer"
	"kritika/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("DATABASE_URL", "")
	viper.SetDefault("JWT_SECRET", "change-me-in-production")
	viper.SetDefault("RABBITMQ_URL", "")
	viper.AutomaticEnv()

	appPort := viper.GetString("APP_PORT")
	jwtSecret := viper.GetString("JWT_SECRET")
	rabbitMQURL := viper.GetString("RABBITMQ_URL")

	// --- Database ---
	conn, err := db.Open(viper.GetString("DATABASE_URL"))
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// --- RabbitMQ (optional) ---
	// Without a broker URL the services simply skip event publishing.
	var mqClient *rabbitmq.Client
	if rabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: rabbitMQURL})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		defer mqClient.Close()
	} else {
		log.Println("RABBITMQ_URL not set, domain events disabled")
	}

	// --- Mailer ---
	mail := mailer.New(mailer.Config{
		Host:     viper.GetString("SMTP_HOST"),
		Port:     viper.GetString("SMTP_PORT"),
		Username: viper.GetString("SMTP_USER"),
		Password: viper.GetString("SMTP_PASS"),
		From:     viper.GetString("SMTP_FROM"),
	})

	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(conn)
	catalogRepo := repositories.NewGORMCatalogRepository(conn)
	reviewRepo := repositories.NewGORMReviewRepository(conn)

	// --- Services ---
	var events services.EventPublisher
	if mqClient != nil {
		events = mqClient
	}
	authService := services.NewAuthService(userRepo, mail, events, jwtSecret)
	userService := services.NewUserService(userRepo)
	catalogService := services.NewCatalogService(catalogRepo)
	reviewService := services.NewReviewService(reviewRepo, catalogRepo, events)

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	titleHandler := handlers.NewTitleHandler(catalogService)
	reviewHandler := handlers.NewReviewHandler(reviewService)

	// --- Fiber app ---
	app := fiber.New()
	app.Use(logger.New())

	apiV1 := app.Group("/api/v1")

	// Public auth endpoints.
	authHandler.RegisterRoutes(apiV1)

	// Catalog, titles, reviews: anonymous reads, token-gated writes.
	publicRoutes := apiV1.Group("", middleware.AuthOptional(authService))
	catalogHandler.RegisterRoutes(publicRoutes)
	titleHandler.RegisterRoutes(publicRoutes)
	reviewHandler.RegisterRoutes(publicRoutes)

	// User administration always requires a token.
	protectedRoutes := apiV1.Group("", middleware.AuthRequired(authService))
	userHandler.RegisterRoutes(protectedRoutes)

	// --- Health check ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- Event consumer ---
	if mqClient != nil {
		log.Println("Starting RabbitMQ consumer for catalog events...")
		messageHandler := func(msg amqp.Delivery) error {
			log.Printf("Received %s event (tag %d): %s", msg.Type, msg.DeliveryTag, string(msg.Body))
			return nil
		}
		if consumerErr := mqClient.ConsumeEvents(messageHandler); consumerErr != nil {
			log.Printf("Failed to start RabbitMQ consumer: %v", consumerErr)
		}
	}

	// --- Start HTTP server ---
	log.Printf("Starting server on port %s", appPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(appPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}
