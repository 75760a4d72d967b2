package router

import (
	"log"
	"os"
	"time"

	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/database"
	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/handlers"
	auth_handlers "github.com/Ditronics-Tz/Smart-Acess-Web-sub000/handlers/auth"
	card_handlers "github.com/Ditronics-Tz/Smart-Acess-Web-sub000/handlers/card"
	gate_handlers "github.com/Ditronics-Tz/Smart-Acess-Web-sub000/handlers/gate"
	location_handlers "github.com/Ditronics-Tz/Smart-Acess-Web-sub000/handlers/location"
	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/services"
	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/services/storage"
	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/utils"
	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/utils/auth"
	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/utils/cache"
	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/utils/middleware"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, store database.Storage) {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := os.Getenv("JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "smart-access-api"
	}

	jwtConfig := auth.JWTConfig{
		Secret:        jwtSecret,
		Expiry:        24 * time.Hour,
		RefreshExpiry: 7 * 24 * time.Hour,
		Issuer:        jwtIssuer,
	}
	jwtManager := auth.NewJWTManager(jwtConfig)

	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	// Redis backs login lockout and the kiosk verify limiter. Both fail
	// open when Redis is unavailable.
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}

	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Rate limiting will be disabled.", err)
	}

	var rateLimiter *middleware.RateLimiter
	if redisCache != nil {
		rateLimiter = middleware.NewRateLimiter(redisCache)
	}

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	// The uniqueness index is rebuilt from live rows before any route can
	// serve traffic, so every reservation decision sees current state.
	index := services.NewUniquenessIndex()
	if err := index.Rebuild(db); err != nil {
		log.Fatalf("Failed to rebuild uniqueness index: %v", err)
	}

	locationService := services.NewLocationService(db, index)
	gateService := services.NewGateService(db, index)
	cardService := services.NewCardService(db, index)
	bulkService := services.NewBulkProvisionService(db, cardService)

	storageClient, err := storage.NewClientFromEnv()
	if err != nil {
		log.Printf("Warning: Object storage not configured: %v. Card photo uploads will be disabled.", err)
		storageClient = nil
	}

	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, rateLimiter)
	locationHandler := location_handlers.NewLocationHandler(locationService)
	gateHandler := gate_handlers.NewGateHandler(gateService)
	cardHandler := card_handlers.NewCardHandler(cardService, bulkService, storageClient)

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:3001"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,
		RateLimitWindow:   1 * time.Minute,
	})

	// Health check endpoint (public)
	app.Get("/ping", utils.MakeHTTPHandleFunc(handlers.HandleCheckHealth, store))

	// API v1 group
	api := app.Group("/api/v1")

	// Auth routes (public)
	authGroup := api.Group("/auth")
	if rateLimiter != nil {
		authGroup.Post("/login", rateLimiter.CheckLoginLock(), authHandler.Login)
	} else {
		authGroup.Post("/login", authHandler.Login)
	}
	authGroup.Post("/refresh", authHandler.RefreshToken)

	// Protected auth routes
	authGroup.Post("/logout", authMiddleware.Required(), authHandler.Logout)
	authGroup.Get("/profile", authMiddleware.Required(), authHandler.Profile)

	// Kiosk verification (public, rate limited per client IP)
	if rateLimiter != nil {
		api.Get("/verify/:subject_type/:subject_id",
			rateLimiter.LimitVerify(30, time.Minute), cardHandler.Verify)
	} else {
		api.Get("/verify/:subject_type/:subject_id", cardHandler.Verify)
	}

	// Location routes (operator access; destructive actions admin only)
	locations := api.Group("/locations", authMiddleware.Required())
	locations.Get("/", locationHandler.List)
	locations.Get("/:id", locationHandler.Get)
	locations.Post("/", middleware.AuditTrail(db, "create", "location"), locationHandler.Create)
	locations.Patch("/:id", middleware.AuditTrail(db, "update", "location"), locationHandler.Update)
	locations.Delete("/:id", middleware.RequireAdmin(), middleware.AuditTrail(db, "delete", "location"), locationHandler.Delete)
	locations.Post("/:id/restore", middleware.RequireAdmin(), middleware.AuditTrail(db, "restore", "location"), locationHandler.Restore)

	// Gate routes
	gates := api.Group("/gates", authMiddleware.Required())
	gates.Get("/", gateHandler.List)
	gates.Get("/:id", gateHandler.Get)
	gates.Post("/", middleware.AuditTrail(db, "create", "gate"), gateHandler.Create)
	gates.Patch("/:id", middleware.AuditTrail(db, "update", "gate"), gateHandler.Update)
	gates.Delete("/:id", middleware.RequireAdmin(), middleware.AuditTrail(db, "delete", "gate"), gateHandler.Delete)
	gates.Post("/:id/restore", middleware.RequireAdmin(), middleware.AuditTrail(db, "restore", "gate"), gateHandler.Restore)

	// Card routes
	cards := api.Group("/cards", authMiddleware.Required())
	cards.Get("/", cardHandler.List)
	cards.Post("/issue", middleware.AuditTrail(db, "issue", "card"), cardHandler.Issue)
	cards.Post("/bulk-issue", middleware.AuditTrail(db, "bulk_issue", "card"), cardHandler.BulkIssue)
	cards.Get("/bulk-issue/jobs", cardHandler.ListJobs)
	cards.Get("/:id", cardHandler.Get)
	cards.Post("/:id/activate", middleware.AuditTrail(db, "activate", "card"), cardHandler.Activate)
	cards.Post("/:id/deactivate", middleware.AuditTrail(db, "deactivate", "card"), cardHandler.Deactivate)
	cards.Patch("/:id/expiry", middleware.AuditTrail(db, "extend_expiry", "card"), cardHandler.ExtendExpiry)
	cards.Post("/:id/photo", middleware.AuditTrail(db, "upload_photo", "card"), cardHandler.UploadPhoto)
	cards.Delete("/:id", middleware.RequireAdmin(), middleware.AuditTrail(db, "delete", "card"), cardHandler.Delete)
	cards.Post("/:id/restore", middleware.RequireAdmin(), middleware.AuditTrail(db, "restore", "card"), cardHandler.Restore)
}
