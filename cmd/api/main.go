package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/dimasprasetya/screening-api/internal/config"
	"github.com/dimasprasetya/screening-api/internal/handlers"
	"github.com/dimasprasetya/screening-api/internal/repositories"
	"github.com/dimasprasetya/screening-api/internal/services"
	"github.com/dimasprasetya/screening-api/internal/store"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log.Println("✅ Config loaded successfully")

	// Initialize database
	db, err := config.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	uploadRepo := repositories.NewUploadRepository(db)
	log.Println("✅ Repositories initialized successfully")

	// Initialize services
	storageService := services.NewStorageService(cfg.Storage.UploadPath)
	if err := storageService.EnsureUploadDir(); err != nil {
		log.Fatalf("❌ Failed to create upload directory: %v", err)
	}

	pdfParser := services.NewPDFParserService()
	log.Println("✅ Services initialized successfully")

	// Initialize Gemini AI
	geminiService, err := services.NewGeminiService(cfg.Gemini.APIKey)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Gemini AI: %v", err)
	}
	log.Println("✅ Gemini AI initialized successfully")

	// Initialize the record store and its collections
	recordStore, err := store.NewQdrantStore(cfg.Qdrant.URL, cfg.Qdrant.APIKey, geminiService)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Qdrant: %v", err)
	}

	ctx := context.Background()

	corpus, err := recordStore.Collection(ctx, cfg.Qdrant.CorpusCollection)
	if err != nil {
		log.Fatalf("❌ Failed to initialize corpus collection: %v", err)
	}

	ledger, err := recordStore.Collection(ctx, cfg.Qdrant.LedgerCollection)
	if err != nil {
		log.Fatalf("❌ Failed to initialize ledger collection: %v", err)
	}

	referenceCol, err := recordStore.Collection(ctx, cfg.Qdrant.ReferenceCollection)
	if err != nil {
		log.Fatalf("❌ Failed to initialize reference collection: %v", err)
	}
	log.Println("✅ Record store initialized successfully")

	var references services.ReferenceRetriever
	if searcher, ok := referenceCol.(store.Searcher); ok {
		references = services.NewReferenceRetriever(searcher, geminiService)
	}

	// Initialize the pipelines
	ingestService := services.NewIngestionService(corpus, pdfParser)
	evalService := services.NewEvaluationService(
		corpus,
		ledger,
		geminiService,
		references,
		cfg.Evaluation.RetryMaxAttempts,
		cfg.Evaluation.Timeout,
	)
	log.Println("✅ Evaluation service initialized")

	// Initialize Handlers
	uploadHandler := handlers.NewUploadHandler(
		uploadRepo,
		storageService,
		ingestService,
		cfg.Storage.MaxFileSize,
	)
	evaluateHandler := handlers.NewEvaluationHandler(evalService)
	resultHandler := handlers.NewResultHandler(evalService)
	log.Println("✅ Handlers initialized")

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Candidate Screening API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		BodyLimit:    int(cfg.Storage.MaxFileSize),
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// Routes
	api := app.Group("/api/v1")

	// Health check probes the record store
	api.Get("/health", func(c *fiber.Ctx) error {
		if _, err := recordStore.Collection(c.Context(), "health"); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"status": "ok",
			"time":   time.Now(),
		})
	})

	// API endpoints
	api.Post("/upload", uploadHandler.HandleUpload)
	api.Post("/evaluate", evaluateHandler.HandleEvaluate)
	api.Get("/result/:id", resultHandler.HandleGetResult)

	// Root route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Candidate Screening API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/upload",
				"POST /api/v1/evaluate",
				"GET /api/v1/result/:id",
			},
		})
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("\n🛑 Shutting down server...")
		evalService.Wait()
		if err := app.Shutdown(); err != nil {
			log.Printf("❌ Server forced to shutdown: %v", err)
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("🚀 Server starting on %s\n", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
