package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"captionrag/internal/adapter/chunker"
	"captionrag/internal/adapter/embedding"
	"captionrag/internal/adapter/memstore"
	"captionrag/internal/domain"
)

const watchURL = "https://www.youtube.com/watch?v="

func newIngest(source *fakeSource, store *memstore.MemoryStore) *IngestUseCase {
	indexer := NewIndexer(embedding.NewMockEmbedder(16), store, 100, nil)
	return NewIngestUseCase(source, chunker.NewCueChunker(6, wordTokenizer{}), indexer, store, watchURL, nil)
}

func playlist() *fakeSource {
	return &fakeSource{
		videos: []domain.VideoRef{{ID: "a", Title: "Intro"}, {ID: "b"}, {ID: "c"}, {ID: "d"}},
		tracks: map[string]domain.CaptionTrack{
			"a": {VideoID: "a", Cues: rawCues("hello and welcome", "to the course", "", "today we learn go")},
			"b": {VideoID: "b", Cues: rawCues("second video here")},
		},
		errs: map[string]error{
			"d": errors.New("download failed"),
		},
	}
}

func TestIngestPlaylist(t *testing.T) {
	store := memstore.NewMemoryStore()
	uc := newIngest(playlist(), store)

	result, err := uc.IngestPlaylist(context.Background(), "playlist", nil)
	require.NoError(t, err)

	assert.Equal(t, 4, result.Videos)
	assert.Equal(t, 1, result.VideosSkipped)
	assert.Equal(t, 1, result.VideosFailed)
	assert.Len(t, result.Errors, 1)
	assert.Equal(t, 4, result.Cues)
	// a: "hello and welcome to the course" (6 words), "today we learn go"; b: one chunk
	assert.Equal(t, 3, result.ChunksIndexed)

	videos, err := store.ListVideos()
	require.NoError(t, err)
	require.Len(t, videos, 2)
	assert.Equal(t, "Intro", videos[0].Title)
	assert.Equal(t, 2, videos[0].Chunks)
	assert.Equal(t, 3, videos[0].Cues)
}

func TestIngestTwiceDuplicatesRecords(t *testing.T) {
	store := memstore.NewMemoryStore()
	uc := newIngest(playlist(), store)
	ctx := context.Background()

	first, err := uc.IngestPlaylist(ctx, "playlist", nil)
	require.NoError(t, err)
	afterFirst, _ := store.Count()

	second, err := uc.IngestPlaylist(ctx, "playlist", nil)
	require.NoError(t, err)
	afterSecond, _ := store.Count()

	assert.Equal(t, first.ChunksIndexed, second.ChunksIndexed)
	assert.Equal(t, 2*afterFirst, afterSecond)

	videos, _ := store.ListVideos()
	assert.Equal(t, 2, videos[0].Ingests)
}

func TestIngestChunkURLs(t *testing.T) {
	store := memstore.NewMemoryStore()
	uc := newIngest(playlist(), store)

	_, err := uc.IngestPlaylist(context.Background(), "playlist", nil)
	require.NoError(t, err)

	vec, _ := embedding.NewMockEmbedder(16).Embed(context.Background(), []string{"today we learn go"})
	results, err := store.Search(context.Background(), vec[0], 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "https://www.youtube.com/watch?v=a&t=15s", results[0].Metadata.URL)
	assert.Equal(t, 15, results[0].Metadata.Start)
}

func TestIngestIndexFailure(t *testing.T) {
	store := memstore.NewMemoryStore()
	embedder := &countingEmbedder{Embedder: embedding.NewMockEmbedder(16), err: errors.New("unauthorized")}
	indexer := NewIndexer(embedder, store, 100, nil)
	uc := NewIngestUseCase(playlist(), chunker.NewCueChunker(6, wordTokenizer{}), indexer, store, watchURL, nil)

	result, err := uc.IngestPlaylist(context.Background(), "playlist", nil)
	require.Error(t, err)
	assert.Equal(t, 0, result.ChunksIndexed)

	videos, _ := store.ListVideos()
	assert.Empty(t, videos, "nothing is recorded when indexing fails")
}
