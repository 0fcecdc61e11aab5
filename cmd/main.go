package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"docchat-platform/internal/ai"
	"docchat-platform/internal/config"
	"docchat-platform/internal/logger"
	"docchat-platform/internal/queue"
	"docchat-platform/internal/telemetry"
	"docchat-platform/internal/vectorstore"
	"docchat-platform/middleware"
	"docchat-platform/routes"
	"docchat-platform/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.InitLogger(cfg)

	if cfg.TracingEnabled {
		shutdown, err := telemetry.InitTracer("docchat-api", cfg.OTLPEndpoint)
		if err != nil {
			log.Fatal("Failed to init tracer:", err)
		}
		defer shutdown()
	}
	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Fatal("Failed to init metrics:", err)
	}

	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()
	db := mongoClient.Database(cfg.DBName)

	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	redisOpt, err := queue.RedisOpt(cfg)
	if err != nil {
		log.Fatal("Invalid Redis configuration:", err)
	}
	queueClient := asynq.NewClient(redisOpt)
	defer queueClient.Close()

	qdrant := vectorstore.NewQdrantStore(vectorstore.QdrantConfig{
		URL:      cfg.QdrantURL,
		APIKey:   cfg.QdrantAPIKey,
		Distance: cfg.DistanceMetric,
	})
	index := services.NewVectorIndex(qdrant, cfg.DocumentCollection, cfg.HistoryCollection, cfg.EmbedDim)
	{
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := index.EnsureCollections(ctx); err != nil {
			cancel()
			log.Fatal("Failed to prepare vector collections:", err)
		}
		cancel()
	}

	provider, err := ai.NewProvider(cfg)
	if err != nil {
		log.Fatal("Failed to init AI provider:", err)
	}
	defer provider.Close()

	records := services.NewRecordStore(db)
	loader := services.NewDocumentLoader()
	splitter := services.NewChunkSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	ingestion := services.NewFileIngestionPipeline(records, loader, splitter, provider, qdrant, cfg.DocumentCollection, metrics)
	memory := services.NewMemoryManager(records, provider, qdrant, cfg.HistoryCollection)
	retriever := services.NewRetrievalCoordinator(provider, qdrant, cfg.DocumentCollection, cfg.HistoryCollection, cfg.DocumentTopK, cfg.HistoryTopK)
	conversation := services.NewConversationPipeline(records, memory, retriever, provider, cfg.RecentTurns, metrics)
	exporter := services.NewExportService(records)

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	if cfg.TracingEnabled {
		router.Use(otelgin.Middleware("docchat-api"))
	}
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.RateLimitMiddleware(rdb, cfg))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	chats := router.Group("/chats")
	{
		chats.POST("", routes.HandleCreateChat(records))
		chats.POST("/:chat_id/files", routes.HandleFileUpload(cfg, records, queueClient))
		chats.POST("/:chat_id/ingest", routes.HandleIngest(records, ingestion))
		chats.POST("/:chat_id/ask", routes.HandleAsk(conversation))
		chats.GET("/:chat_id/messages", routes.HandleGetMessages(records))
		chats.GET("/:chat_id/files", routes.HandleListFiles(records))
		chats.GET("/:chat_id/export", routes.HandleExport(exporter))
		chats.DELETE("/:chat_id", routes.HandleDeleteChat(records, index))
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("server exited")
}
