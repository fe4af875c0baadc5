package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/study-assistant/internal/config"
	"github.com/study-assistant/internal/content"
	"github.com/study-assistant/internal/handler"
	"github.com/study-assistant/internal/llm/groq"
	"github.com/study-assistant/internal/mailer"
	"github.com/study-assistant/internal/middleware"
	"github.com/study-assistant/internal/models"
	"github.com/study-assistant/internal/repository"
	"github.com/study-assistant/internal/service"
	"github.com/study-assistant/internal/session"
	"github.com/study-assistant/internal/worker"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Build info (injected at build time via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logging
	if err := middleware.InitLogger(cfg.Log.Dir); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.Mode)

	// Initialize database
	db, err := initDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Create schema idempotently at startup
	if err := autoMigrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Initialize session store
	var rdb *redis.Client
	var sessionStore session.Store
	if cfg.Session.Store == "redis" {
		rdb = initRedis(cfg)
		sessionStore = session.NewRedisStore(rdb)
	} else {
		sessionStore = session.NewMemoryStore()
	}
	sessionManager := session.NewManager(sessionStore, cfg.Session)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	historyRepo := repository.NewHistoryRepository(db)

	// Initialize external collaborators
	otpMailer := mailer.New(cfg.SMTP, cfg.OTP.OTPTTL())
	contentLoader := content.NewLoader(30 * time.Second)
	completer := groq.NewClient(cfg.Groq.BaseURL, cfg.Groq.Model, time.Duration(cfg.Groq.TimeoutSeconds)*time.Second)

	// Initialize services
	authService := service.NewAuthService(userRepo, sessionManager, otpMailer, cfg.OTP.OTPTTL())
	studyService := service.NewStudyService(historyRepo, contentLoader, completer)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, sessionManager)
	studyHandler := handler.NewStudyHandler(studyService)

	// Create Gin router
	router := gin.Default()

	// Add request logging middleware
	router.Use(middleware.RequestLoggerMiddleware())

	// Add CORS middleware
	router.Use(corsMiddleware())

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "ok",
			"version":    Version,
			"commit":     Commit,
			"build_time": BuildTime,
			"time":       time.Now().Unix(),
		})
	})

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Auth routes resolve the session when a token is present
		sessionMiddleware := middleware.SessionMiddleware(sessionManager)
		authHandler.RegisterRoutes(v1, sessionMiddleware)

		// Study routes require an authenticated session
		authMiddleware := middleware.AuthMiddleware(sessionManager)
		studyHandler.RegisterRoutes(v1, authMiddleware)
	}

	// Start the session sweeper
	sweeper := worker.NewSessionSweeper(sessionManager, time.Minute)
	go sweeper.Start()

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Stop the session sweeper
	sweeper.Stop()

	// Graceful shutdown with 10 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	// Close Redis connection if the session store used one
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Printf("Error closing Redis connection: %v", err)
		}
	}

	log.Println("Server exited properly")
}

func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	gormLogger := logger.Default.LogMode(logger.Info)
	if cfg.Server.Mode == "release" {
		gormLogger = logger.Default.LogMode(logger.Warn)
	}

	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.Database.DSN())
	default:
		dialector = sqlite.Open(cfg.Database.Path)
	}

	// TranslateError surfaces unique-index violations as gorm.ErrDuplicatedKey
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Database.Driver == "postgres" {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	} else {
		// sqlite serializes writers; a single connection avoids lock errors
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.HistoryEntry{},
	)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
