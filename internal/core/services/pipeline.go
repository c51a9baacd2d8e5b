package services

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/gofrs/uuid"

	"github.com/custodia-labs/chonkit/internal/core/domain"
	"github.com/custodia-labs/chonkit/internal/core/ports/driven"
	"github.com/custodia-labs/chonkit/internal/core/ports/driving"
)

const (
	defaultMaxBatch    = 256
	embedOpDeadline    = 10 * time.Minute
	otherOpDeadline    = 30 * time.Second
	retryMaxAttempts   = 3
	retryBaseDelay     = 100 * time.Millisecond
	retryJitterPercent = 25
)

var _ driving.Pipeline = (*Pipeline)(nil)

// Pipeline implements driving.Pipeline, the orchestrator that owns every
// cross-component consistency guarantee between the metadata repository, the
// document store, and the vector store.
type Pipeline struct {
	metadata  driven.MetadataRepository
	documents driven.DocumentStore
	parsers   driven.ParserRegistry
	chunkers  driven.ChunkerRegistry
	embedders driven.EmbedderRegistry
	vectors   driven.VectorStore
	logger    *slog.Logger

	maxBatch int
}

// Config holds the dependencies wired into a Pipeline.
type Config struct {
	Metadata  driven.MetadataRepository
	Documents driven.DocumentStore
	Parsers   driven.ParserRegistry
	Chunkers  driven.ChunkerRegistry
	Embedders driven.EmbedderRegistry
	Vectors   driven.VectorStore
	Logger    *slog.Logger
	MaxBatch  int
}

func NewPipeline(cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxBatch := cfg.MaxBatch
	if maxBatch <= 0 {
		maxBatch = defaultMaxBatch
	}
	return &Pipeline{
		metadata:  cfg.Metadata,
		documents: cfg.Documents,
		parsers:   cfg.Parsers,
		chunkers:  cfg.Chunkers,
		embedders: cfg.Embedders,
		vectors:   cfg.Vectors,
		logger:    logger,
		maxBatch:  maxBatch,
	}
}

func (p *Pipeline) Upload(ctx context.Context, in driving.UploadInput) (*domain.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, otherOpDeadline)
	defer cancel()

	sum := sha256.Sum256(in.Data)
	hash := hex.EncodeToString(sum[:])

	existing, err := p.metadata.Documents().FindBySrcPathHash(ctx, in.Src, in.Path, hash)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("lookup existing document: %w", err)
	}

	path, err := p.documents.Write(ctx, in.Path, in.Data)
	if err != nil {
		return nil, fmt.Errorf("write document bytes: %w", err)
	}

	doc := &domain.Document{
		Name: in.Name,
		Path: path,
		Ext:  in.Ext,
		Hash: hash,
		Src:  in.Src,
	}
	if err := p.metadata.Documents().Insert(ctx, doc); err != nil {
		if delErr := p.documents.Delete(ctx, path); delErr != nil {
			p.logger.Error("compensating delete failed after document insert error",
				"path", path, "insert_error", err, "delete_error", delErr)
			return nil, fmt.Errorf("%w: path %q left orphaned: insert failed (%s), compensating delete failed (%s)",
				domain.ErrInconsistent, path, err, delErr)
		}
		return nil, fmt.Errorf("insert document row: %w", err)
	}

	return doc, nil
}

func (p *Pipeline) Configure(ctx context.Context, documentID string, parse *domain.ParseConfig, chunk *domain.ChunkConfig) error {
	ctx, cancel := context.WithTimeout(ctx, otherOpDeadline)
	defer cancel()

	if parse != nil {
		if err := parse.Validate(); err != nil {
			return err
		}
		parse.DocumentID = documentID
		if err := p.metadata.ParseConfigs().Upsert(ctx, parse); err != nil {
			return fmt.Errorf("upsert parse config: %w", err)
		}
	}
	if chunk != nil {
		if err := chunk.Validate(); err != nil {
			return err
		}
		chunk.DocumentID = documentID
		if err := p.metadata.ChunkConfigs().Upsert(ctx, chunk); err != nil {
			return fmt.Errorf("upsert chunk config: %w", err)
		}
	}
	return nil
}

func (p *Pipeline) Preview(ctx context.Context, documentID string, parse *domain.ParseConfig, chunk *domain.ChunkConfig) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, otherOpDeadline)
	defer cancel()

	doc, err := p.metadata.Documents().Get(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	parseCfg, err := p.resolveParseConfig(ctx, documentID, parse)
	if err != nil {
		return nil, err
	}
	chunkCfg, err := p.resolveChunkConfig(ctx, documentID, chunk)
	if err != nil {
		return nil, err
	}

	text, err := p.readAndParse(ctx, doc, parseCfg)
	if err != nil {
		return nil, err
	}

	chunker, err := p.chunkers.Get(chunkCfg.Kind)
	if err != nil {
		return nil, err
	}
	return chunker.Chunk(ctx, text, chunkCfg)
}

func (p *Pipeline) Embed(ctx context.Context, documentID, collectionID string) error {
	ctx, cancel := context.WithTimeout(ctx, embedOpDeadline)
	defer cancel()

	doc, err := p.metadata.Documents().Get(ctx, documentID)
	if err != nil {
		return fmt.Errorf("get document: %w", err)
	}
	chunkCfg, err := p.metadata.ChunkConfigs().GetByDocument(ctx, documentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNoChunker
		}
		return fmt.Errorf("get chunk config: %w", err)
	}
	parseCfg, err := p.resolveParseConfig(ctx, documentID, nil)
	if err != nil {
		return err
	}
	collection, err := p.metadata.Collections().Get(ctx, collectionID)
	if err != nil {
		return fmt.Errorf("get collection: %w", err)
	}

	if _, err := p.metadata.Embeddings().Get(ctx, documentID, collectionID); err == nil {
		return domain.ErrAlreadyEmbedded
	} else if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("check existing embedding: %w", err)
	}

	text, err := p.readAndParse(ctx, doc, parseCfg)
	if err != nil {
		return err
	}

	chunker, err := p.chunkers.Get(chunkCfg.Kind)
	if err != nil {
		return err
	}
	chunks, err := chunker.Chunk(ctx, text, *chunkCfg)
	if err != nil {
		return fmt.Errorf("chunk document: %w", err)
	}
	if len(chunks) == 0 {
		return domain.ErrEmptyDocument
	}

	embedder, err := p.embedders.Get(collection.Embedder)
	if err != nil {
		return err
	}
	models, err := embedder.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("list embedder models: %w", err)
	}
	if !contains(models, collection.Model) {
		return fmt.Errorf("%w: model %q not served by embedder %q", domain.ErrModelUnknown, collection.Model, collection.Embedder)
	}
	wantDim, err := embedder.Dimension(ctx, collection.Model)
	if err != nil {
		return fmt.Errorf("resolve model dimension: %w", err)
	}
	gotDim, err := p.vectors.CollectionDimension(ctx, collection.Name)
	if err != nil {
		return fmt.Errorf("read collection dimension: %w", err)
	}
	if gotDim != wantDim {
		return fmt.Errorf("%w: collection %q is %d-dim, model %q is %d-dim", domain.ErrDimensionMismatch, collection.Name, gotDim, collection.Model, wantDim)
	}

	items, err := p.embedInBatches(ctx, embedder, collection.Model, documentID, chunks)
	if err != nil {
		return err
	}

	insertErr := p.vectors.Insert(ctx, collection.Name, items)
	if insertErr != nil {
		return fmt.Errorf("%w: %s", domain.ErrVectorStoreUpstream, insertErr)
	}

	txErr := p.metadata.Transaction(ctx, func(tx *sql.Tx) error {
		rec := &domain.EmbeddingRecord{DocumentID: documentID, CollectionID: collectionID}
		return p.metadata.Embeddings().InsertTx(ctx, tx, rec)
	})
	if txErr != nil {
		if delErr := p.vectors.DeleteByDocument(ctx, collection.Name, documentID); delErr != nil {
			p.logger.Error("compensating vector delete failed after embedding tx error",
				"document_id", documentID, "collection_id", collectionID, "tx_error", txErr, "delete_error", delErr)
		}
		return fmt.Errorf("insert embedding record: %w", txErr)
	}

	return nil
}

func (p *Pipeline) DeleteDocument(ctx context.Context, documentID string) error {
	ctx, cancel := context.WithTimeout(ctx, otherOpDeadline)
	defer cancel()

	records, err := p.metadata.Embeddings().ListByDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("list embedding records: %w", err)
	}
	for _, rec := range records {
		collection, err := p.metadata.Collections().Get(ctx, rec.CollectionID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return fmt.Errorf("get collection %q: %w", rec.CollectionID, err)
		}
		if err := p.vectors.DeleteByDocument(ctx, collection.Name, documentID); err != nil {
			return fmt.Errorf("%w: delete vectors for collection %q: %s", domain.ErrVectorStoreUpstream, collection.Name, err)
		}
	}
	if err := p.metadata.Embeddings().DeleteByDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete embedding rows: %w", err)
	}

	doc, err := p.metadata.Documents().Get(ctx, documentID)
	if err != nil {
		return fmt.Errorf("get document: %w", err)
	}
	if err := p.metadata.Documents().Delete(ctx, documentID); err != nil {
		return fmt.Errorf("delete document row: %w", err)
	}

	if err := p.documents.Delete(ctx, doc.Path); err != nil {
		p.logger.Warn("best-effort byte delete failed after document row removal",
			"document_id", documentID, "path", doc.Path, "error", err)
	}

	return nil
}

func (p *Pipeline) DeleteCollection(ctx context.Context, collectionID string) error {
	ctx, cancel := context.WithTimeout(ctx, otherOpDeadline)
	defer cancel()

	collection, err := p.metadata.Collections().Get(ctx, collectionID)
	if err != nil {
		return fmt.Errorf("get collection: %w", err)
	}

	if err := p.vectors.DeleteCollection(ctx, collection.Name); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: %s", domain.ErrVectorStoreUpstream, err)
	}

	if err := p.metadata.Embeddings().DeleteByCollection(ctx, collectionID); err != nil {
		return fmt.Errorf("delete embedding rows: %w", err)
	}
	if err := p.metadata.Collections().Delete(ctx, collectionID); err != nil {
		return fmt.Errorf("delete collection row: %w", err)
	}
	return nil
}

func (p *Pipeline) Search(ctx context.Context, collectionID, queryText string, k int) ([]driving.SearchHit, error) {
	ctx, cancel := context.WithTimeout(ctx, otherOpDeadline)
	defer cancel()

	collection, err := p.metadata.Collections().Get(ctx, collectionID)
	if err != nil {
		return nil, fmt.Errorf("get collection: %w", err)
	}
	embedder, err := p.embedders.Get(collection.Embedder)
	if err != nil {
		return nil, err
	}

	vectors, err := p.embedWithRetry(ctx, embedder, collection.Model, []string{queryText})
	if err != nil {
		return nil, err
	}

	hits, err := p.vectors.Query(ctx, collection.Name, vectors[0], k)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrVectorStoreUpstream, err)
	}

	out := make([]driving.SearchHit, len(hits))
	for i, h := range hits {
		out[i] = driving.SearchHit{Score: h.Score, Payload: h.Payload}
	}
	return out, nil
}

func (p *Pipeline) resolveParseConfig(ctx context.Context, documentID string, adhoc *domain.ParseConfig) (domain.ParseConfig, error) {
	if adhoc != nil {
		return *adhoc, nil
	}
	cfg, err := p.metadata.ParseConfigs().GetByDocument(ctx, documentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.DefaultParseConfig(), nil
		}
		return domain.ParseConfig{}, fmt.Errorf("get parse config: %w", err)
	}
	return *cfg, nil
}

func (p *Pipeline) resolveChunkConfig(ctx context.Context, documentID string, adhoc *domain.ChunkConfig) (domain.ChunkConfig, error) {
	if adhoc != nil {
		return *adhoc, nil
	}
	cfg, err := p.metadata.ChunkConfigs().GetByDocument(ctx, documentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ChunkConfig{}, domain.ErrNoChunker
		}
		return domain.ChunkConfig{}, fmt.Errorf("get chunk config: %w", err)
	}
	return *cfg, nil
}

func (p *Pipeline) readAndParse(ctx context.Context, doc *domain.Document, cfg domain.ParseConfig) (string, error) {
	data, err := p.documents.Read(ctx, doc.Path)
	if err != nil {
		return "", fmt.Errorf("read document bytes: %w", err)
	}
	parser := p.parsers.Get(doc.Ext)
	text, err := parser.Parse(ctx, data, cfg)
	if err != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrParse, err)
	}
	return text, nil
}

// embedInBatches embeds chunks in order, at most maxBatch per call, and
// builds the vector-store items with a fresh UUID per vector as required by
// the insert contract. Chunks commit to the vector store in strict index
// order within a batch and across batches.
func (p *Pipeline) embedInBatches(ctx context.Context, embedder driven.Embedder, model, documentID string, chunks []string) ([]driven.VectorStoreItem, error) {
	items := make([]driven.VectorStoreItem, 0, len(chunks))
	for start := 0; start < len(chunks); start += p.maxBatch {
		end := start + p.maxBatch
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		vectors, err := p.embedWithRetry(ctx, embedder, model, batch)
		if err != nil {
			return nil, err
		}

		for i, v := range vectors {
			index := start + i
			id, err := uuid.NewV4()
			if err != nil {
				return nil, fmt.Errorf("generate vector id: %w", err)
			}
			items = append(items, driven.VectorStoreItem{
				ID:     id.String(),
				Vector: v,
				Payload: domain.VectorPayload{
					DocumentID: documentID,
					ChunkIndex: index,
					Content:    batch[i],
				},
			})
		}
	}
	return items, nil
}

// embedWithRetry retries transient upstream embed failures with exponential
// backoff, jittered +/-25%, up to retryMaxAttempts attempts.
func (p *Pipeline) embedWithRetry(ctx context.Context, embedder driven.Embedder, model string, chunks []string) ([][]float32, error) {
	var lastErr error
	for attempt := 0; attempt < retryMaxAttempts; attempt++ {
		if attempt > 0 {
			delay := jitteredBackoff(attempt)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		vectors, err := embedder.Embed(ctx, model, chunks)
		if err == nil {
			return vectors, nil
		}
		lastErr = err
		if !errors.Is(err, domain.ErrEmbedUpstream) {
			return nil, err
		}
		p.logger.Warn("embed attempt failed, retrying", "attempt", attempt+1, "error", err)
	}
	return nil, fmt.Errorf("%w: exhausted %d attempts: %s", domain.ErrEmbedUpstream, retryMaxAttempts, lastErr)
}

func jitteredBackoff(attempt int) time.Duration {
	base := retryBaseDelay * time.Duration(1<<uint(attempt))
	jitter := int64(base) * retryJitterPercent / 100
	offset := rand.Int63n(2*jitter+1) - jitter
	return time.Duration(int64(base) + offset)
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}
