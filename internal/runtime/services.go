// Package runtime wires the adapters named in every component design into
// the concrete dependency graph cmd/chonkit/main.go hands to the HTTP
// server and worker pool.
package runtime

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	chonkitauth "github.com/custodia-labs/chonkit/internal/adapters/driven/auth"
	"github.com/custodia-labs/chonkit/internal/adapters/driven/ai"
	"github.com/custodia-labs/chonkit/internal/adapters/driven/objectstore"
	"github.com/custodia-labs/chonkit/internal/adapters/driven/parsers"
	"github.com/custodia-labs/chonkit/internal/adapters/driven/postgres"
	queuepostgres "github.com/custodia-labs/chonkit/internal/adapters/driven/queue/postgres"
	queueredis "github.com/custodia-labs/chonkit/internal/adapters/driven/queue/redis"
	chonkitredis "github.com/custodia-labs/chonkit/internal/adapters/driven/redis"
	"github.com/custodia-labs/chonkit/internal/adapters/driven/vector"
	"github.com/custodia-labs/chonkit/internal/core/chunkers"
	"github.com/custodia-labs/chonkit/internal/core/ports/driven"
	"github.com/custodia-labs/chonkit/internal/core/services"
)

// Config collects every environment-driven setting named in the config
// surface, read by cmd/chonkit/main.go's getEnv/getEnvInt/getEnvBool helpers.
type Config struct {
	DatabaseURL string
	UploadPath  string

	RedisURL string // empty disables the Redis lock/queue, falling back to Postgres

	VectorStoreKind string // "qdrant" or "weaviate"
	QdrantURL       string
	WeaviateURL     string

	FastEmbedLocalURL  string
	FastEmbedRemoteURL string
	OpenAIKey          string
	OpenAIBaseURL      string

	S3Endpoint  string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3UseSSL    bool

	JWTSecret string

	MaxBatch int

	Logger *slog.Logger
}

// Services holds the fully wired dependency graph for one chonkit process.
type Services struct {
	DB          *postgres.DB
	Metadata    driven.MetadataRepository
	Credentials driven.CredentialStore
	Lock        driven.DistributedLock
	Queue       driven.TaskQueue
	Documents   driven.DocumentStore
	Parsers     driven.ParserRegistry
	Chunkers    driven.ChunkerRegistry
	Embedders   driven.EmbedderRegistry
	Vectors     driven.VectorStore
	Auth        *chonkitauth.Adapter

	Pipeline *services.Pipeline

	redisClient *redis.Client
}

// Build connects to every configured backend and constructs the pipeline
// orchestrator. Callers own the returned Services and must call Close.
func Build(ctx context.Context, cfg Config) (*Services, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	db, err := postgres.Connect(ctx, postgres.DefaultConfig(cfg.DatabaseURL))
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := db.InitSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	metadata := postgres.NewMetadataRepository(db)
	credentials := postgres.NewCredentialStore(db)

	documents, err := objectstore.NewLocalStore(cfg.UploadPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init local document store: %w", err)
	}
	var docStore driven.DocumentStore = documents
	if cfg.S3Endpoint != "" {
		s3Store, err := objectstore.NewMinioStore(ctx, objectstore.MinioConfig{
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseSSL:    cfg.S3UseSSL,
		})
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("init s3 document store: %w", err)
		}
		docStore = s3Store
	}

	embedders, err := ai.NewFromConfig(ai.Config{
		OpenAIAPIKey:       cfg.OpenAIKey,
		OpenAIBaseURL:      cfg.OpenAIBaseURL,
		FastEmbedLocalURL:  cfg.FastEmbedLocalURL,
		FastEmbedRemoteURL: cfg.FastEmbedRemoteURL,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init embedder registry: %w", err)
	}

	var vectorStore driven.VectorStore
	switch cfg.VectorStoreKind {
	case "weaviate":
		vectorStore = vector.NewWeaviate(cfg.WeaviateURL)
	default:
		vectorStore = vector.NewQdrant(cfg.QdrantURL)
	}

	var lock driven.DistributedLock
	var queue driven.TaskQueue
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		redisClient = redis.NewClient(opts)
		lock = chonkitredis.NewLock(redisClient)
		queue, err = queueredis.NewQueue(redisClient, "")
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("init redis queue: %w", err)
		}
	} else {
		lock = postgres.NewAdvisoryLock(db)
		queue = queuepostgres.NewQueue(db.DB)
	}

	maxBatch := cfg.MaxBatch
	if maxBatch <= 0 {
		maxBatch = 256
	}

	parserRegistry := parsers.NewDefaultRegistry()
	chunkerRegistry := chunkers.NewDefaultRegistry(embedders)

	pipeline := services.NewPipeline(services.Config{
		Metadata:  metadata,
		Documents: docStore,
		Parsers:   parserRegistry,
		Chunkers:  chunkerRegistry,
		Embedders: embedders,
		Vectors:   vectorStore,
		Logger:    logger,
		MaxBatch:  maxBatch,
	})

	return &Services{
		DB:          db,
		Metadata:    metadata,
		Credentials: credentials,
		Lock:        lock,
		Queue:       queue,
		Documents:   docStore,
		Parsers:     parserRegistry,
		Chunkers:    chunkerRegistry,
		Embedders:   embedders,
		Vectors:     vectorStore,
		Auth:        chonkitauth.NewAdapter(cfg.JWTSecret),
		Pipeline:    pipeline,
		redisClient: redisClient,
	}, nil
}

// Close shuts down every backing connection.
func (s *Services) Close() error {
	if s.Queue != nil {
		_ = s.Queue.Close()
	}
	if s.redisClient != nil {
		_ = s.redisClient.Close()
	}
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// BootstrapAPIKey provisions the single static API key credential on first
// boot, if one isn't already set.
func (s *Services) BootstrapAPIKey(ctx context.Context, rawKey string) error {
	if rawKey == "" {
		return nil
	}
	if _, err := s.Credentials.GetAPIKeyHash(ctx); err == nil {
		return nil
	}
	hash, err := s.Auth.HashAPIKey(rawKey)
	if err != nil {
		return fmt.Errorf("hash bootstrap api key: %w", err)
	}
	return s.Credentials.SetAPIKeyHash(ctx, hash)
}
