package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/show5116/family-planner-back-end-sub000/internal/cache"
	"github.com/show5116/family-planner-back-end-sub000/internal/handlers"
	"github.com/show5116/family-planner-back-end-sub000/internal/middleware"
	"github.com/show5116/family-planner-back-end-sub000/internal/push"
	"github.com/show5116/family-planner-back-end-sub000/internal/queue"
	"github.com/show5116/family-planner-back-end-sub000/internal/repository"
	"github.com/show5116/family-planner-back-end-sub000/internal/service"
	"github.com/show5116/family-planner-back-end-sub000/internal/worker"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	if os.Getenv("JWT_SECRET") == "" {
		log.Fatal("JWT_SECRET is required")
	}

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName: "Family Planner Notifications",
	})

	// Middleware
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     os.Getenv("ALLOWED_ORIGINS"),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	// Initialize database connection
	db, err := repository.InitDB()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Redis backs both the token cache and the notification queue
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if parsedDB, err := strconv.Atoi(dbStr); err == nil {
			redisDB = parsedDB
		}
	}

	redisCache := cache.NewRedisCache(redisAddr, redisPassword, redisDB)
	if err := redisCache.Ping(); err != nil {
		log.Printf("WARNING: Redis connection failed: %v. Running without token cache.", err)
		redisCache = nil
	} else {
		log.Println("Redis cache connected successfully")
	}
	tokenCache := cache.NewTokenCache(redisCache)

	workerCount := worker.DefaultWorkerCount
	if countStr := os.Getenv("WORKER_COUNT"); countStr != "" {
		if parsed, err := strconv.Atoi(countStr); err == nil && parsed > 0 {
			workerCount = parsed
		}
	}

	// The queue needs its own clients: blocking pops monopolize their
	// connection, so they never share a client with non-blocking commands.
	queueClient := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       redisDB,
	})
	blockingClient := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       redisDB,
		PoolSize: workerCount,
	})
	if err := queueClient.Ping(context.Background()).Err(); err != nil {
		log.Fatal("Failed to connect to queue store:", err)
	}
	queueStore := queue.NewRedisStore(queueClient, blockingClient)
	producer := queue.NewProducer(queueStore)

	// Push gateway (best-effort; the pipeline runs without it and sends fail)
	var sender push.Sender
	ctx := context.Background()
	if fcmClient, err := push.InitFirebase(ctx); err != nil {
		log.Printf("WARNING: Push gateway not configured: %v", err)
	} else {
		pushRate := rate.Limit(100)
		if rateStr := os.Getenv("PUSH_RATE_LIMIT"); rateStr != "" {
			if parsed, err := strconv.Atoi(rateStr); err == nil && parsed > 0 {
				pushRate = rate.Limit(parsed)
			}
		}
		sender = push.NewFCMSender(fcmClient, rate.NewLimiter(pushRate, int(pushRate)))
	}

	// Initialize repositories
	tokenRepo := repository.NewDeviceTokenRepository(db)
	settingRepo := repository.NewNotificationSettingRepository(db)
	historyRepo := repository.NewNotificationHistoryRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)

	// Initialize services
	tasks := service.NewBackgroundTasks(100)
	dispatcher := service.NewDispatcher(settingRepo, tokenRepo, historyRepo, tokenCache, sender)
	tokenService := service.NewDeviceTokenService(tokenRepo, settingRepo, tokenCache, sender, tasks)
	settingService := service.NewNotificationSettingService(settingRepo, tokenRepo, sender, tasks)
	notificationService := service.NewNotificationService(producer, historyRepo)
	announcementService := service.NewAnnouncementService(announcementRepo, producer, sender)

	// Initialize handlers
	tokenHandler := handlers.NewDeviceTokenHandler(tokenService)
	notificationHandler := handlers.NewNotificationHandler(notificationService, settingService)
	announcementHandler := handlers.NewAnnouncementHandler(announcementService)

	// Protected routes
	api := app.Group("/api", middleware.AuthRequired())
	api.Post("/device-tokens", limiter.New(limiter.Config{
		Max:        30,
		Expiration: time.Minute,
	}), tokenHandler.Register)
	api.Get("/device-tokens", tokenHandler.List)
	api.Delete("/device-tokens", tokenHandler.Remove)

	api.Get("/notifications", notificationHandler.GetHistory)
	api.Get("/notifications/unread-count", notificationHandler.GetUnreadCount)
	api.Post("/notifications/:id/read", notificationHandler.MarkRead)
	api.Get("/notification-settings", notificationHandler.GetSettings)
	api.Put("/notification-settings", notificationHandler.UpdateSetting)

	api.Get("/announcements/:id", announcementHandler.Get)
	api.Post("/announcements", middleware.RequireRole("admin"), announcementHandler.Create)

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "Family Planner notifications running",
		})
	})

	// Start the consumer pool and the periodic sweeps
	pool := worker.NewPool(queueStore, dispatcher, workerCount)
	pool.Start(ctx)
	scheduler := worker.NewScheduler(queueStore, announcementService)
	scheduler.Start(ctx)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	go func() {
		log.Printf("Server starting on port %s...", port)
		if err := app.Listen(":" + port); err != nil {
			log.Fatal("Failed to start server:", err)
		}
	}()

	// Graceful shutdown: stop consuming, drain in-flight work, then exit
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	scheduler.Stop()
	pool.Stop()
	tasks.Close()
	if err := app.Shutdown(); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	if redisCache != nil {
		_ = redisCache.Close()
	}
	_ = queueClient.Close()
	_ = blockingClient.Close()
	log.Println("Shutdown complete")
}
