package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"wellness-engine/handlers"
	"wellness-engine/middleware"
	"wellness-engine/models"
	"wellness-engine/services"
	"wellness-engine/utils"
	"wellness-engine/workers"

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

	app := fiber.New(fiber.Config{})

	// 🔐 GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
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
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-User-ID, X-User-Roles, X-Service-Token",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.UserProgress{},
		&models.MissionAward{},
		&models.Victory{},
		&models.Circle{},
		&models.CircleMember{},
		&models.ProfileMirror{},
		&models.UserMilestone{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	notifier := services.NewAwardNotifier()
	milestoneService := services.NewMilestoneService(db)
	progressService := services.NewProgressService(db)
	streakService := services.NewStreakService(db)
	ledgerService := services.NewLedgerService(db, notifier, milestoneService)
	circleService := services.NewCircleService(db)
	rankingCache := services.NewRankingCache()
	rankingService := services.NewRankingService(db, rankingCache)

	// --- Identity provider sync (profile mirrors for ranking display) ---
	identityServiceURL := os.Getenv("IDENTITY_SERVICE_URL")
	if identityServiceURL == "" {
		log.Fatal("IDENTITY_SERVICE_URL environment variable not set")
	}
	engineServiceToken := os.Getenv("ENGINE_SERVICE_TOKEN")
	if engineServiceToken == "" {
		log.Fatal("ENGINE_SERVICE_TOKEN environment variable not set")
	}

	profileSync := workers.NewProfileSyncWorker(db, identityServiceURL, "/api/v1/public/profiles", engineServiceToken)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Println("Starting Profile Sync Worker...")
		profileSync.Start(ctx)
	}()

	// --- Ranking snapshot archival to R2 (optional) ---
	if os.Getenv("R2_BUCKET_NAME") != "" {
		if err := utils.InitR2(); err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
		archiver := workers.NewSnapshotArchiver(rankingService)
		go workers.PollSnapshots(ctx, archiver, 1*time.Hour)
	} else {
		log.Println("⚠️  R2_BUCKET_NAME not set — snapshot archival disabled")
	}

	rankingService.StartRankingWarmer()

	// ✅ Setup routes — enforced Gateway auth + consistent /s/ prefix
	handlers.SetupEngineRoutes(app, streakService, ledgerService, progressService, milestoneService)
	handlers.SetupRankingRoutes(app, rankingService)
	handlers.SetupCircleRoutes(app, circleService)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}
	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Println("✅ Profile Sync Worker running")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
