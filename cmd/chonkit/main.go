package main

// @title           chonkit API
// @version         1.0
// @description     Document pre-processing pipeline for retrieval-augmented generation: parse, chunk, embed, and persist documents into searchable vector collections.

// @contact.name   chonkit maintainers
// @contact.url    https://github.com/custodia-labs/chonkit/issues

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:42069
// @BasePath  /api/v1
// @schemes   http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT bearer token, exchanged for the static API key via POST /api/v1/auth/token. Format: "Bearer {token}"

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/custodia-labs/chonkit/internal/adapters/driving/http"
	"github.com/custodia-labs/chonkit/internal/runtime"
	"github.com/custodia-labs/chonkit/internal/worker"
)

var version = "dev"

func main() {
	mode := getEnv("RUN_MODE", "all")
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}

	log.Printf("chonkit %s starting in %s mode", version, mode)

	host, port := splitAddress(getEnv("ADDRESS", "0.0.0.0:42069"))

	cfg := runtime.Config{
		DatabaseURL: mustGetEnv("DATABASE_URL"),
		UploadPath:  getEnv("UPLOAD_PATH", "./upload"),

		RedisURL: getEnv("REDIS_URL", ""),

		VectorStoreKind: vectorStoreKind(),
		QdrantURL:       getEnv("QDRANT_URL", ""),
		WeaviateURL:     getEnv("WEAVIATE_URL", ""),

		FastEmbedRemoteURL: getEnv("FEMBED_URL", ""),
		OpenAIKey:          getEnv("OPENAI_KEY", ""),

		S3Endpoint:  getEnv("S3_ENDPOINT", ""),
		S3Bucket:    getEnv("S3_BUCKET", ""),
		S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey: getEnv("S3_SECRET_KEY", ""),
		S3UseSSL:    getEnvBool("S3_USE_SSL", true),

		JWTSecret: getEnv("JWT_SECRET", "development-secret-change-in-production"),

		MaxBatch: getEnvInt("MAX_BATCH", 256),

		Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel(getEnv("LOG_LEVEL", "info")),
		})),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received, stopping...")
		cancel()
	}()

	svc, err := runtime.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to wire services: %v", err)
	}
	defer svc.Close()

	if apiKey := getEnv("API_KEY", ""); apiKey != "" {
		if err := svc.BootstrapAPIKey(ctx, apiKey); err != nil {
			log.Fatalf("failed to bootstrap api key: %v", err)
		}
	}

	switch mode {
	case "api":
		runAPI(svc, host, port)
	case "worker":
		runWorkerMode(ctx, svc)
	case "all":
		go runWorkerMode(ctx, svc)
		runAPI(svc, host, port)
	default:
		log.Fatalf("unknown mode: %s (use: api, worker, or all)", mode)
	}
}

func runAPI(svc *runtime.Services, host string, port int) {
	var origins []string
	if raw := getEnv("ALLOWED_ORIGINS", ""); raw != "" {
		origins = strings.Split(raw, ",")
	} else {
		origins = []string{"*"}
	}

	cfg := http.Config{
		Host:           host,
		Port:           port,
		Version:        version,
		AllowedOrigins: origins,
	}

	server := http.NewServer(cfg, svc.Pipeline, svc.Auth, svc.Credentials, svc.DB, svc.Lock)

	log.Printf("api server starting on %s:%d", host, port)
	if err := server.Start(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runWorkerMode(ctx context.Context, svc *runtime.Services) {
	log.Println("starting worker mode...")

	w := worker.NewWorker(worker.Config{
		TaskQueue:      svc.Queue,
		Pipeline:       svc.Pipeline,
		Lock:           svc.Lock,
		Logger:         slog.Default(),
		Concurrency:    getEnvInt("WORKER_CONCURRENCY", 2),
		DequeueTimeout: getEnvDuration("WORKER_DEQUEUE_TIMEOUT_SEC", 5),
	})

	if err := w.Start(ctx); err != nil {
		log.Fatalf("failed to start worker: %v", err)
	}
	log.Println("worker started, processing embed tasks")

	<-ctx.Done()

	log.Println("stopping worker...")
	w.Stop()
	log.Println("worker stopped")
}

func logLevel(raw string) slog.Level {
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func vectorStoreKind() string {
	if getEnv("WEAVIATE_URL", "") != "" && getEnv("QDRANT_URL", "") == "" {
		return "weaviate"
	}
	return "qdrant"
}

func splitAddress(addr string) (string, int) {
	host, portStr, err := splitHostPort(addr)
	if err != nil {
		return "0.0.0.0", 42069
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 42069
	}
	return host, port
}

func splitHostPort(addr string) (string, string, error) {
	idx := strings.LastIndex(addr, ":")
	if idx < 0 {
		return "", "", fmt.Errorf("address %q missing port", addr)
	}
	return addr[:idx], addr[idx+1:], nil
}

// Helper functions, following the project's env-var config convention.

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustGetEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("missing required environment variable %s", key)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.Atoi(value); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvDuration(key string, defaultSeconds int) time.Duration {
	seconds := getEnvInt(key, defaultSeconds)
	return time.Duration(seconds) * time.Second
}
