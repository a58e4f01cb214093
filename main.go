package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"gaslytics/backend/config"
	"gaslytics/backend/gemini"
	"gaslytics/backend/handlers"
	"gaslytics/backend/middleware"
	"gaslytics/backend/processor"
	"gaslytics/backend/twelvelabs"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	config.InitLogger()
	logger := config.Log

	db, err := config.NewSupabaseClient(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize Supabase: %v", err)
	}

	videoClient := twelvelabs.New(cfg.TwelveLabsAPIKey, cfg.TwelveLabsBaseURL)
	var insights processor.InsightsGenerator
	if cfg.InsightsEnabled() {
		insights = gemini.New(cfg.GeminiAPIKey, cfg.GeminiBaseURL)
	} else {
		logger.Warn("GEMINI_API_KEY not set, insights generation disabled")
	}

	proc := processor.New(videoClient, insights, cfg.TwelveLabsIndexID, logger)
	h := handlers.NewApplicationHandler(proc, logger, db, cfg.StorageBucket, cfg.SignedURLExpirySeconds)

	app := fiber.New(fiber.Config{
		BodyLimit: 512 * 1024 * 1024, // conversation videos arrive as raw uploads
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-User-Id",
	}))
	app.Use(middleware.RequestLogger(logger))

	app.Get("/api/health", h.HealthCheck)
	app.Post("/api/process-video", h.ProcessVideo)

	conversations := app.Group("/api/conversations")
	conversations.Post("/upload", h.UploadConversationFile)
	conversations.Post("", h.CreateConversation)
	conversations.Get("", h.ListConversations)
	conversations.Get("/:id", h.GetConversation)
	conversations.Get("/:id/url", h.GetConversationURL)
	conversations.Patch("/:id/analysis", h.UpdateConversationAnalysis)

	logger.Infof("Starting Gaslytics processing server on port %s", cfg.Port)
	log.Fatal(app.Listen(":" + cfg.Port))
}
