package main

import (
	_ "backend/api/swagger" // swagger docs
	"backend/internal/database"
	"backend/internal/handler"
	"backend/internal/mailer"
	"backend/internal/middleware"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/internal/websocket"
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Gym Chain Management API
// @version         1.0
// @description     Backend for managing a gym chain: branches, staff, members, memberships, training logs and reports.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "postgres"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	ownerUsername := os.Getenv("OWNER_USERNAME")
	ownerEmail := os.Getenv("OWNER_EMAIL")
	ownerPassword := os.Getenv("OWNER_PASSWORD")
	if ownerUsername == "" {
		ownerUsername = "owner"
	}
	if ownerEmail == "" {
		ownerEmail = "owner@example.com"
	}
	if ownerPassword == "" {
		ownerPassword = "ChangeMe!2024"
	}
	if err := database.Seed(db, ownerUsername, ownerEmail, ownerPassword); err != nil {
		log.Fatalf("Database seeding failed: %v", err)
	}

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	mail := mailer.New(mailer.ConfigFromEnv())

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewRefreshTokenRepository(db)
	branchRepo := repository.NewBranchRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	trainingRepo := repository.NewTrainingRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	userService := service.NewUserService(userRepo, tokenRepo, auditRepo, branchRepo, txManager, mail, middleware.GetJWTSecret())
	branchService := service.NewBranchService(branchRepo, userRepo, memberRepo, auditRepo, txManager)
	memberService := service.NewMemberService(memberRepo, userRepo, branchRepo, settingRepo, auditRepo, txManager, mail, wsHub)
	trainingService := service.NewTrainingService(trainingRepo, memberRepo, userRepo, auditRepo, txManager)
	auditService := service.NewAuditService(auditRepo)
	reportService := service.NewReportService(db)
	settingService := service.NewSettingService(settingRepo, auditRepo, txManager)

	// Daily expiry check feeding the dashboard event stream.
	go notifyExpiringMemberships(reportService, wsHub)

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService)
	branchHandler := handler.NewBranchHandler(branchService)
	memberHandler := handler.NewMemberHandler(memberService)
	trainingHandler := handler.NewTrainingHandler(trainingService)
	auditHandler := handler.NewAuditHandler(auditService)
	reportHandler := handler.NewReportHandler(reportService)
	settingHandler := handler.NewSettingHandler(settingService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint for the live dashboard feed
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	userHandler.RegisterRoutes(router.Group(""))
	branchHandler.RegisterRoutes(router.Group(""))
	memberHandler.RegisterRoutes(router.Group(""))
	trainingHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))
	reportHandler.RegisterRoutes(router.Group(""))
	settingHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// notifyExpiringMemberships publishes a membership_expiring event for
// every active membership ending within the next week, once at startup
// and then every 24 hours.
func notifyExpiringMemberships(reports service.ReportService, hub *websocket.Hub) {
	const lookaheadDays = 7

	for {
		expiring, err := reports.ExpiringWithin(context.Background(), lookaheadDays)
		if err != nil {
			log.Println("WARNING: expiry check failed:", err)
		}
		for _, m := range expiring {
			hub.Publish(websocket.EventMembershipExpiring, m.ID, m.FirstName+" "+m.LastName, m.EndDate)
		}
		time.Sleep(24 * time.Hour)
	}
}
