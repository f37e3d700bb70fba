package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"project-review-system/cache"
	"project-review-system/handlers"
	"project-review-system/middleware"
	"project-review-system/models"
	"project-review-system/services"
	"project-review-system/utils"
	"project-review-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 20 * 1024 * 1024, // 20MB — screenshots are the largest upload
	})

	// 🔐 GLOBAL: only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-Session-Token, X-Service-Token",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	cache.InitRedis(os.Getenv("REDIS_ADDR"))

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectScreenshot{},
		&models.PeerReview{},
		&models.BountyProject{},
		&models.BountyClaim{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	projectService := services.NewProjectService(db)
	reviewService := services.NewReviewService(db)
	bountyService := services.NewBountyService(db)
	adminService := services.NewAdminService(db)

	hackatimeURL := os.Getenv("HACKATIME_API_URL")
	if hackatimeURL == "" {
		log.Fatal("HACKATIME_API_URL environment variable not set")
	}
	hackatimeService := services.NewHackatimeService(db, hackatimeURL, os.Getenv("HACKATIME_API_TOKEN"))

	identityServiceURL := os.Getenv("IDENTITY_SERVICE_URL")
	if identityServiceURL == "" {
		log.Fatal("IDENTITY_SERVICE_URL environment variable not set")
	}
	serviceToken := os.Getenv("REVIEW_SERVICE_TOKEN")
	if serviceToken == "" {
		log.Fatal("REVIEW_SERVICE_TOKEN environment variable not set")
	}

	syncWorker := workers.NewUserSyncWorker(db, identityServiceURL, "/api/v1/public/users", serviceToken)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Println("Starting User Sync Worker...")
		syncWorker.Start(ctx)
	}()

	hackatimeService.StartHoursScheduler(ctx)

	// ✅ Setup routes — Gateway auth enforced globally, user context per group
	handlers.SetupProjectRoutes(app, projectService, reviewService)
	handlers.SetupBountyRoutes(app, bountyService)
	handlers.SetupAdminRoutes(app, adminService, reviewService, bountyService)
	handlers.SetupUserRoutes(app, db, hackatimeService)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ User Sync Worker running")
	log.Println("✅ Hour-total refresh scheduler running (every 5m)")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
