package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"captionrag/internal/domain"
	"captionrag/internal/port"
)

const DefaultBatchSize = 100

// ProgressFunc reports how many of total chunks have been written.
type ProgressFunc func(indexed, total int)

// Indexer embeds chunks and writes them to the vector store in batches.
type Indexer struct {
	embedder  port.Embedder
	store     port.VectorStore
	batchSize int
	newID     func() string
	logger    *zap.Logger
}

// NewIndexer creates a new indexer.
func NewIndexer(embedder port.Embedder, store port.VectorStore, batchSize int, logger *zap.Logger) *Indexer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{
		embedder:  embedder,
		store:     store,
		batchSize: batchSize,
		newID:     uuid.NewString,
		logger:    logger,
	}
}

// Index writes one record per chunk and returns how many were written. Each
// batch is embedded with one call and stored with one upsert; on failure the
// count of records from earlier batches is returned with the error.
func (u *Indexer) Index(ctx context.Context, chunks []domain.Chunk, progress ProgressFunc) (int, error) {
	indexed := 0

	for start := 0; start < len(chunks); start += u.batchSize {
		if err := ctx.Err(); err != nil {
			return indexed, err
		}

		end := start + u.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		if err := u.indexBatch(ctx, batch); err != nil {
			return indexed, fmt.Errorf("batch %d-%d: %w", start, end, err)
		}
		indexed += len(batch)

		u.logger.Debug("indexed batch", zap.Int("size", len(batch)), zap.Int("indexed", indexed), zap.Int("total", len(chunks)))
		if progress != nil {
			progress(indexed, len(chunks))
		}
	}

	return indexed, nil
}

func (u *Indexer) indexBatch(ctx context.Context, batch []domain.Chunk) error {
	texts := make([]string, len(batch))
	for i, chunk := range batch {
		texts[i] = chunk.Text
	}

	vectors, err := u.embedder.Embed(ctx, texts)
	if err != nil {
		return domain.NewProviderError("embedding", "embed batch", err)
	}
	if len(vectors) != len(batch) {
		return domain.NewProviderError("embedding", "embed batch",
			fmt.Errorf("got %d vectors for %d texts", len(vectors), len(batch)))
	}

	items := make([]port.VectorItem, len(batch))
	for i, chunk := range batch {
		items[i] = port.VectorItem{
			ID:       u.newID(),
			Vector:   vectors[i],
			Document: chunk.Text,
			Metadata: domain.RecordMetadata{
				VideoID: chunk.VideoID,
				Start:   chunk.Start,
				End:     chunk.End,
				URL:     chunk.URL,
			},
		}
	}

	if err := u.store.Upsert(ctx, items); err != nil {
		return domain.NewProviderError("vectorstore", "upsert", err)
	}
	return nil
}
