package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"captionrag/config"
	"captionrag/internal/adapter/embedding"
	"captionrag/internal/adapter/store"
	"captionrag/internal/port"
)

func main() {
	indexPath := flag.String("index", ".", "Path to the project directory holding .captionrag")
	query := flag.String("q", "", "Question to test")
	topK := flag.Int("k", 15, "Number of results")
	flag.Parse()

	if *query == "" {
		fmt.Println("Usage: go run ./cmd/benchmark -index . -q \"question\"")
		fmt.Println("\nShows the raw nearest-neighbour candidates for a question,")
		fmt.Println("before the model re-ranks them, with their similarity.")
		os.Exit(1)
	}

	cfg, err := config.LoadFromDir(*indexPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	st, err := store.NewBoltStore(config.IndexDBPath(*indexPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening index: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	embedder, vectorStore, err := setupEmbedding(st, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Semantic search not available: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("CAPTION RETRIEVAL BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))

	count, _ := vectorStore.Count()
	fmt.Printf("Records indexed: %d\n", count)
	fmt.Printf("Model: %s (%s)\n", embedder.ModelName(), cfg.Embedding.Provider)
	fmt.Printf("Dimension: %d\n", embedder.Dimension())
	fmt.Println()

	fmt.Printf("Question: \"%s\"\n", *query)
	fmt.Println(strings.Repeat("-", 70))

	ctx := context.Background()
	queryVec, err := embedder.Embed(ctx, []string{*query})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embedding error: %v\n", err)
		os.Exit(1)
	}

	results, err := vectorStore.Search(ctx, queryVec[0], *topK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
		os.Exit(1)
	}
	if len(results) == 0 {
		fmt.Println("No candidates.")
		return
	}

	fmt.Printf("Top %d candidates:\n\n", len(results))

	totalScore := 0.0
	videos := make(map[string]bool)
	for i, r := range results {
		preview := r.Document
		if len(preview) > 150 {
			preview = preview[:150] + "..."
		}

		totalScore += r.Score
		videos[r.Metadata.VideoID] = true

		rating := "LOW"
		if r.Score > 0.7 {
			rating = "HIGH"
		} else if r.Score > 0.5 {
			rating = "GOOD"
		} else if r.Score > 0.3 {
			rating = "OK"
		}

		fmt.Printf("%d. [%s %.3f] %s %ds-%ds\n", i+1, rating, r.Score, r.Metadata.VideoID, r.Metadata.Start, r.Metadata.End)
		fmt.Printf("   %s\n   %s\n\n", preview, r.Metadata.URL)
	}

	avgScore := totalScore / float64(len(results))
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("QUALITY METRICS:\n")
	fmt.Printf("  Average similarity: %.3f\n", avgScore)
	fmt.Printf("  Top-1 similarity:   %.3f\n", results[0].Score)
	fmt.Printf("  Distinct videos:    %d\n", len(videos))

	if avgScore > 0.5 {
		fmt.Println("  Status: GOOD - candidates are close to the question")
	} else if avgScore > 0.3 {
		fmt.Println("  Status: OK - candidates are somewhat related")
	} else {
		fmt.Println("  Status: POOR - the playlist may not cover this, or re-ingest with another model")
	}
}

func setupEmbedding(st *store.BoltStore, cfg *config.Config) (port.Embedder, port.VectorStore, error) {
	embedder, err := embedding.NewFromConfig(cfg.Embedding)
	if err != nil {
		return nil, nil, fmt.Errorf("embedder init failed: %w", err)
	}

	rebuild, reason, err := st.NeedsRebuild(store.IndexConfig{
		Provider:  cfg.Embedding.Provider,
		Model:     embedder.ModelName(),
		Dimension: embedder.Dimension(),
	})
	if err != nil {
		return nil, nil, err
	}
	if rebuild {
		return nil, nil, fmt.Errorf("index does not match the configured embedder: %s", reason)
	}

	vectorStore, err := store.NewBoltVectorStore(st.DB(), embedder.Dimension())
	if err != nil {
		return nil, nil, fmt.Errorf("vector store failed: %w", err)
	}

	count, _ := vectorStore.Count()
	if count == 0 {
		return nil, nil, fmt.Errorf("no records - run 'captionrag ingest' first")
	}

	return embedder, vectorStore, nil
}
