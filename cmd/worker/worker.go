package main

import (
	"context"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"docchat-platform/internal/ai"
	"docchat-platform/internal/config"
	"docchat-platform/internal/logger"
	"docchat-platform/internal/queue"
	"docchat-platform/internal/telemetry"
	"docchat-platform/internal/vectorstore"
	"docchat-platform/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.InitLogger(cfg)

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

	provider, err := ai.NewProvider(cfg)
	if err != nil {
		log.Fatal("Failed to init AI provider:", err)
	}
	defer provider.Close()

	qdrant := vectorstore.NewQdrantStore(vectorstore.QdrantConfig{
		URL:      cfg.QdrantURL,
		APIKey:   cfg.QdrantAPIKey,
		Distance: cfg.DistanceMetric,
	})

	records := services.NewRecordStore(db)
	loader := services.NewDocumentLoader()
	splitter := services.NewChunkSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	ingestion := services.NewFileIngestionPipeline(records, loader, splitter, provider, qdrant, cfg.DocumentCollection, metrics)

	redisOpt, err := queue.RedisOpt(cfg)
	if err != nil {
		log.Fatal("Invalid Redis configuration:", err)
	}

	if cfg.SweepInterval > 0 {
		sweepClient := asynq.NewClient(redisOpt)
		defer sweepClient.Close()
		sweeper := services.NewUploadSweeper(records, sweepClient, time.Duration(cfg.SweepInterval)*time.Second)
		if err := sweeper.Start(); err != nil {
			log.Fatal("Failed to start upload sweeper:", err)
		}
		defer sweeper.Stop()
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.WorkerConcurrency,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			StrictPriority: true,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task failed", "type", task.Type(), "error", err)
			}),
		},
	)

	processor := queue.NewTaskProcessor(ingestion)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskIngestFile, processor.HandleIngestFile)

	logger.Info("worker starting", "concurrency", cfg.WorkerConcurrency)
	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
}
