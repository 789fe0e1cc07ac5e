package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zuai/sample-paper-api/internal/cache"
	"github.com/zuai/sample-paper-api/internal/config"
	"github.com/zuai/sample-paper-api/internal/extract"
	"github.com/zuai/sample-paper-api/internal/middleware"
	"github.com/zuai/sample-paper-api/internal/paper"
	"github.com/zuai/sample-paper-api/internal/ratelimit"
	"github.com/zuai/sample-paper-api/internal/store"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	// ── MongoDB ──────────────────────────────────────────────
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("mongo connect: %v", err)
	}
	defer mongoClient.Disconnect(ctx)
	mongoDB := mongoClient.Database(cfg.MongoDB)

	papers := store.NewPaperStore(mongoDB)
	if err := papers.EnsureIndexes(ctx); err != nil {
		log.Fatalf("mongo indexes: %v", err)
	}
	tasks := store.NewTaskStore(mongoDB)

	// ── Redis ────────────────────────────────────────────────
	rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connect: %v", err)
	}
	defer rdb.Close()
	paperCache := cache.NewPaperCache(rdb)
	limiter := ratelimit.New(rdb)

	// ── MinIO ────────────────────────────────────────────────
	uploads, err := store.NewUploadStore(
		ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
		cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL,
	)
	if err != nil {
		log.Fatalf("minio connect: %v", err)
	}

	// ── Gemini ───────────────────────────────────────────────
	gemini, err := extract.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL)
	if err != nil {
		log.Fatalf("gemini client: %v", err)
	}

	// ── Pipeline + handlers ──────────────────────────────────
	orchestrator := extract.NewOrchestrator(papers, tasks, uploads, gemini)
	paperHandler := paper.NewHandler(papers, paperCache)
	extractHandler := extract.NewHandler(orchestrator, tasks)

	// ── Router ───────────────────────────────────────────────
	limited := func(name string, limit int, window time.Duration) func(http.Handler) http.Handler {
		return middleware.RateLimit(limiter, name, limit, window)
	}

	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"Welcome to the ZuAI's Sample Paper API"}`))
	})

	r.Route("/papers", func(r chi.Router) {
		r.With(limited("papers_create", 5, time.Minute)).Post("/", paperHandler.Create)
		r.With(limited("papers_search", 20, time.Minute)).Get("/search", paperHandler.Search)
		r.With(limited("papers_get", 10, time.Minute)).Get("/{id}", paperHandler.Get)
		r.With(limited("papers_update", 3, time.Minute)).Put("/{id}", paperHandler.Update)
		r.With(limited("papers_delete", 5, time.Minute)).Delete("/{id}", paperHandler.Delete)
	})

	r.Route("/extract", func(r chi.Router) {
		r.With(limited("extract_pdf", 2, time.Minute)).Post("/pdf", extractHandler.ExtractPDF)
		r.With(limited("extract_text", 3, time.Minute)).Post("/text", extractHandler.ExtractText)
	})

	r.Get("/tasks/{task_id}", extractHandler.TaskStatus)

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Minute,
	}

	go func() {
		log.Printf("Sample Paper API listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	srv.Shutdown(shutCtx)

	// Let in-flight extraction jobs reach a terminal status before the
	// store clients close.
	orchestrator.Wait()
}
