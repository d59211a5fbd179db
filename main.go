package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/sahyadri-heights/carpool-backend/database"
	"github.com/sahyadri-heights/carpool-backend/internal/jobs"
	"github.com/sahyadri-heights/carpool-backend/internal/models"
	"github.com/sahyadri-heights/carpool-backend/internal/routes"
	"github.com/sahyadri-heights/carpool-backend/internal/services"
	"github.com/sahyadri-heights/carpool-backend/internal/storage"
)

func main() {
	// Load .env file for local development
	if os.Getenv("INSTANCE_CONNECTION_NAME") == "" {
		err := godotenv.Load(".env")
		if err != nil {
			err = godotenv.Load("environments/.env.development")
			if err != nil {
				log.Println("⚠️  No .env file found - checking environment variables")
			}
		}
	}

	production := isProduction()

	// Session secret
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		if production {
			log.Fatal("JWT_SECRET must be set in production")
		}
		jwtSecret = "dev-secret-change-in-production"
		log.Println("⚠️  JWT_SECRET not set - using development default")
	}

	// Initialize storage
	var store storage.Store

	// Check if we should use memory store (for testing)
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		log.Println("⚠️  Using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
	} else {
		// Connect to database
		log.Println("📦 Connecting to PostgreSQL database...")
		database.Connect()

		// Run migrations
		log.Println("🔄 Running database migrations...")
		err := database.DB.AutoMigrate(
			&models.User{},
			&models.OtpToken{},
			&models.Trip{},
			&models.TripRequest{},
			&models.PoolRequest{},
			&models.Notice{},
			&models.Charge{},
			&models.TermsDocument{},
		)
		if err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
		log.Println("✅ Database migrations completed!")

		// Use database store
		store = storage.NewDatabaseStore(database.DB)
		log.Println("✅ Using PostgreSQL database storage")
	}
	storage.SetStore(store)

	// Email delivery (required in production for OTP login)
	mailer := services.NewResendMailer()
	var mailerIface services.Mailer
	if mailer != nil {
		mailerIface = mailer
		log.Println("✅ Email delivery configured (Resend)")
	} else {
		log.Println("⚠️  RESEND_API_KEY not set - OTP codes will be logged in development")
	}

	// WhatsApp notifications are optional
	var notifier services.Notifier
	whatsapp, err := services.NewWhatsAppService()
	if err != nil {
		log.Println("⚠️  Twilio credentials not found - WhatsApp notifications disabled")
	} else {
		notifier = whatsapp
		log.Println("✅ WhatsApp notification service initialized")
	}

	// Google sign-in is optional
	var google services.GoogleVerifier
	if verifier := services.NewTokeninfoVerifier(); verifier != nil {
		google = verifier
		log.Println("✅ Google sign-in configured")
	}

	// Initialize all services
	sessions := services.NewSessionService(jwtSecret, 7*24*time.Hour)
	otpService := services.NewOTPService(store, mailerIface, production)
	bookingService := services.NewBookingService(store, notifier)

	// Initialize and start maintenance jobs
	maintenanceJob := jobs.NewMaintenanceJob(store, notifier)
	maintenanceJob.Start()

	log.Println("✅ All services initialized and scheduled jobs started")

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "Sahyadri Heights Carpool Backend v1.0.0",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))

	// Root endpoint with database status
	app.Get("/", func(c *fiber.Ctx) error {
		response := fiber.Map{
			"service":     "Sahyadri Heights Carpool API",
			"version":     "1.0.0",
			"status":      "healthy",
			"environment": getEnvironment(),
			"storage":     getStorageType(),
		}

		// Add database status if using database
		if os.Getenv("USE_MEMORY_STORE") != "true" && database.DB != nil {
			sqlDB, err := database.DB.DB()
			dbStatus := "connected"
			if err != nil {
				dbStatus = "error: " + err.Error()
			} else if err := sqlDB.Ping(); err != nil {
				dbStatus = "error: " + err.Error()
			}

			// Get counts
			var userCount, tripCount, requestCount, poolCount int64
			database.DB.Model(&models.User{}).Count(&userCount)
			database.DB.Model(&models.Trip{}).Count(&tripCount)
			database.DB.Model(&models.TripRequest{}).Count(&requestCount)
			database.DB.Model(&models.PoolRequest{}).Count(&poolCount)

			response["database"] = fiber.Map{
				"status":   dbStatus,
				"users":    userCount,
				"trips":    tripCount,
				"requests": requestCount,
				"pools":    poolCount,
			}
		}

		response["services"] = fiber.Map{
			"email":    mailer != nil,
			"whatsapp": notifier != nil,
			"google":   google != nil,
			"scheduled_jobs": fiber.Map{
				"otp_cleanup":         "active",
				"departure_reminders": "active",
			},
		}

		return c.JSON(response)
	})

	// Health check endpoint for monitoring
	app.Get("/health", func(c *fiber.Ctx) error {
		status := "healthy"
		statusCode := 200

		// Check database if using it
		if os.Getenv("USE_MEMORY_STORE") != "true" && database.DB != nil {
			sqlDB, err := database.DB.DB()
			if err != nil || sqlDB.Ping() != nil {
				status = "unhealthy"
				statusCode = 503
			}
		}

		return c.Status(statusCode).JSON(fiber.Map{
			"status": status,
			"services": fiber.Map{
				"database": status == "healthy",
				"email":    mailer != nil,
				"whatsapp": notifier != nil,
			},
		})
	})

	// Setup routes
	routes.SetupRoutes(app, store, bookingService, otpService, sessions, google)

	// Get port from environment or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("\n🛑 Gracefully shutting down...")
		log.Println("⏹️  Stopping maintenance jobs...")
		maintenanceJob.Stop()
		log.Println("⏹️  Shutting down server...")
		_ = app.Shutdown()
	}()

	// Start server
	log.Println("========================================")
	log.Printf("🚗 Carpool Backend starting on port %s", port)
	log.Printf("📊 Storage: %s", getStorageType())
	log.Printf("🌍 Environment: %s", getEnvironment())
	log.Println("========================================")

	log.Fatal(app.Listen(":" + port))
}

func isProduction() bool {
	if os.Getenv("INSTANCE_CONNECTION_NAME") != "" {
		return true
	}
	return os.Getenv("ENVIRONMENT") == "production"
}

func getEnvironment() string {
	if isProduction() {
		return "Production (Cloud Run)"
	}
	return "Development (Local)"
}

func getStorageType() string {
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		return "In-Memory (Testing)"
	}
	return "PostgreSQL Database"
}
