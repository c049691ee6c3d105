package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"go.uber.org/zap"

	"captionrag/config"
	"captionrag/internal/adapter/analyzer"
	"captionrag/internal/adapter/cache"
	"captionrag/internal/adapter/captions"
	"captionrag/internal/adapter/chunker"
	"captionrag/internal/adapter/embedding"
	"captionrag/internal/adapter/llm"
	"captionrag/internal/adapter/retriever"
	"captionrag/internal/adapter/store"
	"captionrag/internal/domain"
	"captionrag/internal/port"
	"captionrag/internal/usecase"
)

// app holds the components shared by the commands for one project directory.
type app struct {
	cfg      *config.Config
	dir      string
	logger   *zap.Logger
	store    *store.BoltStore
	vectors  *store.BoltVectorStore
	embedder port.Embedder
	closers  []io.Closer
}

// openMode says what to do when the index was built with another embedding
// configuration.
type openMode int

const (
	// openForQuery refuses a non-empty mismatched index.
	openForQuery openMode = iota
	// openForIngest clears a mismatched index.
	openForIngest
	// openForInspect leaves the index as it is.
	openForInspect
)

func openApp(mode openMode) (*app, error) {
	cfg := GetConfig()
	dir := GetRootDir()
	log := GetLogger()

	if err := config.EnsureDataDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", config.DataDirName, err)
	}

	// inspecting the index needs no provider credentials
	var embedder port.Embedder
	dimension := cfg.Embedding.Dimension
	if mode != openForInspect {
		var err error
		embedder, err = embedding.NewFromConfig(cfg.Embedding)
		if err != nil {
			return nil, fmt.Errorf("failed to create embedder: %w", err)
		}
		dimension = embedder.Dimension()
	}

	dbPath := config.IndexDBPath(dir)
	st, err := store.NewBoltStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open index store: %w", err)
	}

	a := &app{cfg: cfg, dir: dir, logger: log, store: st, embedder: embedder}
	a.closers = append(a.closers, st)

	if err := a.checkSchema(mode); err != nil {
		a.Close()
		return nil, err
	}

	a.vectors, err = store.NewBoltVectorStore(st.DB(), dimension)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open vector store: %w", err)
	}
	return a, nil
}

func (a *app) indexConfig() store.IndexConfig {
	return store.IndexConfig{
		Provider:  a.cfg.Embedding.Provider,
		Model:     a.embedder.ModelName(),
		Dimension: a.embedder.Dimension(),
	}
}

func (a *app) checkSchema(mode openMode) error {
	if mode == openForInspect {
		return nil
	}
	indexCfg := a.indexConfig()
	result, err := a.store.CheckMigration(indexCfg)
	if err != nil {
		return fmt.Errorf("failed to check migration: %w", err)
	}

	if result.NeedsRebuild {
		stats, err := a.store.GetStats()
		if err != nil {
			return err
		}
		if mode == openForQuery && stats.Records > 0 {
			return fmt.Errorf("%w (%s); run 'captionrag reset' or ingest again", domain.ErrIndexMismatch, result.Reason)
		}
		if stats.Records > 0 {
			fmt.Printf("Index rebuild required: %s\n", result.Reason)
			fmt.Println("Clearing existing index...")
		}
		if err := a.store.Clear(); err != nil {
			return fmt.Errorf("failed to clear index: %w", err)
		}
	} else if !result.NeedsMigration {
		return nil
	} else {
		a.logger.Info("running schema migration", zap.String("reason", result.Reason))
	}

	if err := a.store.Migrate(indexCfg); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Warn("close failed", zap.Error(err))
		}
	}
}

func (a *app) captionSource() (port.CaptionSource, error) {
	c := a.cfg.Captions
	switch c.Source {
	case "dir":
		return captions.NewDirSource(c.Includes, c.Excludes, c.Languages, c.WatchURL), nil
	case "ytdlp":
		workDir := c.WorkDir
		if !filepath.IsAbs(workDir) {
			workDir = filepath.Join(a.dir, config.DataDirName, workDir)
		}
		return captions.NewYtDlpSource(c.YtDlpPath, workDir, c.Languages, c.WatchURL), nil
	default:
		return nil, fmt.Errorf("unsupported caption source: %s", c.Source)
	}
}

func (a *app) ingestUseCase() (*usecase.IngestUseCase, error) {
	source, err := a.captionSource()
	if err != nil {
		return nil, err
	}
	tokenizer, err := analyzer.NewFromConfig(a.cfg.Chunking, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokenizer: %w", err)
	}

	chk := chunker.NewCueChunker(a.cfg.Chunking.MaxTokens, tokenizer)
	indexer := usecase.NewIndexer(a.embedder, a.vectors, a.cfg.Embedding.BatchSize, a.logger)
	return usecase.NewIngestUseCase(source, chk, indexer, a.store, a.cfg.Captions.WatchURL, a.logger), nil
}

func (a *app) askUseCase(ctx context.Context) (*usecase.AskUseCase, error) {
	client, err := llm.NewFromConfig(a.cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm client: %w", err)
	}

	answerCache, err := cache.NewFromConfig(ctx, a.cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("failed to create answer cache: %w", err)
	}
	if c, ok := answerCache.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}

	ans := a.cfg.Answer
	retrieve := usecase.NewRetrieveUseCase(
		retriever.NewSemanticRetriever(a.vectors, a.embedder),
		retriever.NewLLMReranker(client, ans.RerankTemperature, a.logger),
		a.cfg.Retrieve.RetrieveK,
		a.logger,
	)

	return usecase.NewAskUseCase(
		retrieve,
		usecase.NewSynthesizer(client, ans.Temperature, a.cfg.Captions.ThumbnailURL),
		usecase.NewValidator(client, ans.ValidateTemperature, a.logger),
		answerCache,
		a.vectors,
		usecase.AskConfig{
			DefaultTopK:     a.cfg.Retrieve.TopK,
			MaxTopK:         a.cfg.Retrieve.MaxTopK,
			Validate:        ans.Validate,
			NoContentAnswer: ans.NoContentAnswer,
		},
		a.logger,
	), nil
}

// exitError reports errors the user can act on without the wrapping chain.
func exitError(err error) error {
	var pe *domain.ProviderError
	if errors.As(err, &pe) {
		return fmt.Errorf("%s provider failed during %s: %w", pe.Provider, pe.Op, pe.Err)
	}
	return err
}
