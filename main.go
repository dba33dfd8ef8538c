package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"mythic-quest-system/handlers"
	"mythic-quest-system/middleware"
	"mythic-quest-system/models"
	"mythic-quest-system/services"
	"mythic-quest-system/utils"
	"mythic-quest-system/workers"

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
		BodyLimit: 20 * 1024 * 1024, // share-card uploads
	})

	// 🔐❗ GLOBAL: Only Gateway requests allowed — no exceptions
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
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-User-ID, X-User-Roles, X-Service-Token, X-Device-ID",
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

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Quest{},
		&models.CoinTransaction{},
		&models.PendingLevelUpBonus{},
		&models.OutboxEntry{},
		&models.UserMilestone{},
		&models.HeroUser{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	walletService := services.NewWalletService(db)
	narrativeService := services.NewAchievementService()
	milestoneService := services.NewMilestoneService(db, walletService, narrativeService)
	questService := services.NewQuestService(db, walletService, narrativeService, milestoneService)
	progressionService := services.NewProgressionService(db)
	walkTracker := services.NewWalkTracker(db, questService)
	heroService := services.NewHeroService(db)

	syncServiceURL := os.Getenv("SYNC_SERVICE_URL")
	if syncServiceURL == "" {
		log.Fatal("SYNC_SERVICE_URL environment variable not set")
	}
	questServiceToken := os.Getenv("QUEST_SERVICE_TOKEN")
	if questServiceToken == "" {
		log.Fatal("QUEST_SERVICE_TOKEN environment variable not set")
	}
	authServiceURL := os.Getenv("AUTH_SERVICE_URL")
	if authServiceURL == "" {
		log.Fatal("AUTH_SERVICE_URL environment variable not set")
	}

	authClient := services.NewAuthServiceClient(authServiceURL, questServiceToken)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	profileSyncWorker := workers.NewProfileSyncWorker(db, syncServiceURL, "/api/v1/public/profiles", questServiceToken)
	profileSyncWorker.Start(ctx)

	outboxWorker := workers.NewOutboxWorker(db, syncServiceURL, questServiceToken)
	outboxWorker.Start(ctx)

	walletService.StartRewardScheduler()

	// ✅ Setup routes — enforced Gateway auth + consistent /s/ prefix
	handlers.SetupProgressionRoutes(app, progressionService, milestoneService)
	handlers.SetupQuestRoutes(app, questService)
	handlers.SetupWalletRoutes(app, walletService, heroService, authClient)
	handlers.SetupWalkRoutes(app, walkTracker)
	handlers.SetupChronicleRoutes(app)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Profile Sync Worker running")
	log.Println("✅ Outbox Worker running (every 5s)")
	log.Println("✅ Level-up bonus scheduler running (every 2s)")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
