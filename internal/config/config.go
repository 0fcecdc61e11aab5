package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI string
	DBName   string
	Port     string
	GinMode  string

	CORSOrigins []string

	// File upload limits enforced at the HTTP boundary.
	MaxFileSize    int64
	AllowedExts    []string
	FileStorageDir string

	// Chunking (characters).
	ChunkSize    int
	ChunkOverlap int

	// Qdrant
	QdrantURL          string
	QdrantAPIKey       string
	DocumentCollection string
	HistoryCollection  string
	DistanceMetric     string
	EmbedDim           int

	// Generation / embeddings provider: "gemini" or "ollama".
	LLMProvider     string
	GeminiAPIKey    string
	GeminiModel     string
	GeminiTier      string
	EmbeddingsModel string
	OllamaURL       string
	OllamaModel     string

	// Retrieval
	DocumentTopK   int
	HistoryTopK    int
	RecentTurns    int

	// Redis (asynq + rate limiting)
	RedisURL      string
	RedisPassword string
	RedisDB       int

	RateLimitReqs   int
	RateLimitWindow int

	// Background ingestion
	WorkerConcurrency int
	SweepInterval     int // seconds between pending-file sweeps; 0 disables

	OTLPEndpoint   string
	TracingEnabled bool
}

func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017/docchat"),
		DBName:   getEnv("DB_NAME", "docchat"),
		Port:     getEnv("PORT", "8080"),
		GinMode:  getEnv("GIN_MODE", "debug"),

		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),

		MaxFileSize:    getEnvInt64("MAX_FILE_SIZE", 20971520), // 20MB
		AllowedExts:    strings.Split(getEnv("ALLOWED_FILE_EXTS", "pdf,txt,md,html,docx,xlsx"), ","),
		FileStorageDir: getEnv("FILE_STORAGE_DIR", "./storage/files"),

		ChunkSize:    getEnvInt("CHUNK_SIZE", 1000),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 200),

		QdrantURL:          getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantAPIKey:       getEnv("QDRANT_API_KEY", ""),
		DocumentCollection: getEnv("DOCUMENT_COLLECTION", "docchat_documents"),
		HistoryCollection:  getEnv("HISTORY_COLLECTION", "docchat_history"),
		DistanceMetric:     getEnv("DISTANCE_METRIC", "Cosine"),
		EmbedDim:           getEnvInt("EMBED_DIM", 768),

		LLMProvider:     getEnv("LLM_PROVIDER", "gemini"),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiTier:      getEnv("GEMINI_TIER", "free"),
		EmbeddingsModel: getEnv("EMBEDDINGS_MODEL", "text-embedding-004"),
		OllamaURL:       getEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:     getEnv("OLLAMA_MODEL", "llama3.1"),

		DocumentTopK: getEnvInt("DOCUMENT_TOP_K", 10),
		HistoryTopK:  getEnvInt("HISTORY_TOP_K", 2),
		RecentTurns:  getEnvInt("RECENT_TURNS", 6),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 4),
		SweepInterval:     getEnvInt("SWEEP_INTERVAL", 30),

		OTLPEndpoint:   getEnv("OTLP_ENDPOINT", "localhost:4317"),
		TracingEnabled: getEnvBool("TRACING_ENABLED", false),
	}

	switch cfg.LLMProvider {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required when LLM_PROVIDER=gemini - set it in .env file")
		}
	case "ollama":
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER: %s", cfg.LLMProvider)
	}

	if cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP (%d) must be smaller than CHUNK_SIZE (%d)", cfg.ChunkOverlap, cfg.ChunkSize)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
