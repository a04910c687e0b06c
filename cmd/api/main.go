package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"inspection-portal/internal/accounts"
	"inspection-portal/internal/auth"
	"inspection-portal/internal/config"
	"inspection-portal/internal/dashboard"
	"inspection-portal/internal/database"
	"inspection-portal/internal/handlers"
	"inspection-portal/internal/ledger"
	"inspection-portal/internal/messaging"
	"inspection-portal/internal/properties"
	"inspection-portal/internal/ratelimit"
	"inspection-portal/internal/scheduler"
	"inspection-portal/internal/search"
	"inspection-portal/internal/workflow"
)

var (
	gormDB       *database.GormDB
	searchClient *search.SearchClient
	appConfig    *config.Config
	rateLimiter  *ratelimit.RateLimiter
	appScheduler *scheduler.Scheduler
)

func main() {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	// Load configuration
	configPath := config.GetEnv("CONFIG_PATH", "/app/config/portal.yaml")
	var err error
	appConfig, err = config.LoadConfig(configPath)
	if err != nil {
		log.Printf("Warning: Failed to load config from %s: %v. Using defaults.", configPath, err)
		appConfig = config.DefaultConfig()
	} else {
		log.Printf("Loaded configuration from %s", configPath)
	}

	if appConfig.Database.Type == "" {
		appConfig.Database.Type = config.GetEnv("DB_TYPE", "mysql")
	}
	log.Printf("Using %s with GORM", appConfig.Database.Type)

	gormDB, err = database.Open(appConfig.Database, appConfig.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer gormDB.Close()

	if err := gormDB.InitSchema(); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	store := gormDB.Store()
	ctx := context.Background()

	fees, err := workflow.FeesFromConfig(appConfig.Fees)
	if err != nil {
		log.Fatalf("Invalid fee configuration: %v", err)
	}

	ledgerService := ledger.NewService(store)
	if created, err := ledgerService.EnsureBalanceRow(ctx); err != nil {
		log.Fatalf("Failed to seed balance: %v", err)
	} else if created {
		log.Println("Balance row created")
	}

	authService := auth.NewService(store, appConfig.Session)
	propertyService := properties.NewService(store)
	workflowService := workflow.NewService(store, fees)
	accountService := accounts.NewService(store)

	// Meilisearch is optional; the admin search falls back to the database
	var searcher search.Searcher = search.NewDBSearcher(store)
	if appConfig.Search.Meilisearch.Enabled {
		searchClient = search.NewSearchClient(
			config.GetEnvOrConfig(appConfig.Search.Meilisearch.Host, "MEILISEARCH_HOST", "http://meilisearch:7700"),
			config.GetEnvOrConfig(appConfig.Search.Meilisearch.APIKey, "MEILISEARCH_KEY", ""),
		)

		// Wait for Meilisearch to be ready
		time.Sleep(2 * time.Second)

		if err := searchClient.InitIndex(); err != nil {
			log.Printf("Warning: Failed to initialize search index: %v", err)
		} else {
			searcher = searchClient
			workflowService.SetIndexer(searchClient)
			propertyService.SetIndexer(searchClient)
			accountService.SetIndexer(searchClient)
			log.Println("Meilisearch search enabled")
		}
	}

	rateLimiter = ratelimit.NewRateLimiter(
		appConfig.RateLimit.RequestsPerMinute,
		appConfig.RateLimit.RequestsPerHour,
		appConfig.RateLimit.Enabled,
	)
	log.Printf("Rate limiter initialized: %d req/min, %d req/hour (enabled: %v)",
		appConfig.RateLimit.RequestsPerMinute,
		appConfig.RateLimit.RequestsPerHour,
		appConfig.RateLimit.Enabled,
	)

	appScheduler = scheduler.NewScheduler(gormDB, appConfig)
	appScheduler.SetRateLimiter(rateLimiter)
	if searchClient != nil {
		appScheduler.SetSearchClient(searchClient)
	}
	if err := appScheduler.Start(); err != nil {
		log.Printf("Warning: Failed to start scheduler: %v", err)
	}
	defer appScheduler.Stop()

	// Setup Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	if appConfig.Logging.LogRequests {
		r.Use(gin.Logger())
	}

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     appConfig.Server.AllowOrigins,
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
	}))

	handlers.Register(r, appConfig, handlers.Services{
		DB:         gormDB.DB(),
		Store:      store,
		Auth:       authService,
		Accounts:   accountService,
		Properties: propertyService,
		Workflow:   workflowService,
		Messaging:  messaging.NewService(store),
		Ledger:     ledgerService,
		Dashboard:  dashboard.NewService(store),
		Searcher:   searcher,
		Scheduler:  appScheduler,
		Limiter:    rateLimiter,
	})

	port := config.GetEnv("PORT", appConfig.Server.Port)
	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
