package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"captionrag/internal/adapter/embedding"
	"captionrag/internal/domain"
	"captionrag/internal/port"
)

func openStore(t *testing.T) (*BoltStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.db")
	s, err := NewBoltStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestVectorStoreRoundTrip(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()
	embedder := embedding.NewMockEmbedder(32)

	texts := []string{
		"today we cover cache invalidation strategies",
		"the garbage collector pauses are short",
		"goroutines are cheap to start",
		"channels synchronize goroutines",
	}
	vectors, err := embedder.Embed(ctx, texts)
	require.NoError(t, err)

	vs, err := NewBoltVectorStore(s.DB(), 32)
	require.NoError(t, err)

	items := make([]port.VectorItem, len(texts))
	for i, text := range texts {
		items[i] = port.VectorItem{
			ID:       fmt.Sprintf("id-%d", i),
			Vector:   vectors[i],
			Document: text,
			Metadata: domain.RecordMetadata{VideoID: "vid", Start: i * 10, End: i*10 + 9, URL: fmt.Sprintf("u%d", i)},
		}
	}
	require.NoError(t, vs.Upsert(ctx, items))

	for i, text := range texts {
		q, err := embedder.Embed(ctx, []string{text})
		require.NoError(t, err)

		results, err := vs.Search(ctx, q[0], 3)
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Equal(t, fmt.Sprintf("id-%d", i), results[0].ID)
		assert.Equal(t, text, results[0].Document)
		assert.Equal(t, i*10, results[0].Metadata.Start)
	}
}

func TestVectorStorePersists(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()

	vs, err := NewBoltVectorStore(s.DB(), 2)
	require.NoError(t, err)
	require.NoError(t, vs.Upsert(ctx, []port.VectorItem{
		{ID: "x", Vector: []float32{1, 0}, Document: "doc", Metadata: domain.RecordMetadata{VideoID: "v", URL: "link"}},
	}))

	reopened, err := NewBoltVectorStore(s.DB(), 2)
	require.NoError(t, err)

	n, _ := reopened.Count()
	assert.Equal(t, 1, n)

	results, err := reopened.Search(ctx, []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "link", results[0].Metadata.URL)
}

func TestVectorStoreBatchIsAtomic(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()

	vs, err := NewBoltVectorStore(s.DB(), 2)
	require.NoError(t, err)

	err = vs.Upsert(ctx, []port.VectorItem{
		{ID: "ok", Vector: []float32{1, 0}},
		{ID: "bad", Vector: []float32{1, 0, 0}},
	})
	require.Error(t, err)

	n, _ := vs.Count()
	assert.Equal(t, 0, n)
	stats, err := s.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Records)
}

func TestVectorStoreQueryDimension(t *testing.T) {
	s, _ := openStore(t)
	vs, err := NewBoltVectorStore(s.DB(), 4)
	require.NoError(t, err)

	_, err = vs.Search(context.Background(), []float32{1}, 1)
	assert.Error(t, err)
}

func TestLedger(t *testing.T) {
	s, _ := openStore(t)

	require.NoError(t, s.RecordIngest(domain.VideoRecord{VideoID: "v2", Title: "Second", Cues: 10, Chunks: 2}))
	require.NoError(t, s.RecordIngest(domain.VideoRecord{VideoID: "v1", Cues: 4, Chunks: 1}))
	require.NoError(t, s.RecordIngest(domain.VideoRecord{VideoID: "v2", Cues: 10, Chunks: 2}))

	videos, err := s.ListVideos()
	require.NoError(t, err)
	require.Len(t, videos, 2)
	assert.Equal(t, "v1", videos[0].VideoID)
	assert.Equal(t, 2, videos[1].Ingests)
	assert.Equal(t, "Second", videos[1].Title)

	rec, err := s.GetVideo("v1")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Ingests)

	_, err = s.GetVideo("missing")
	assert.Error(t, err)
}

func TestSchemaMismatchAndClear(t *testing.T) {
	s, _ := openStore(t)
	small := IndexConfig{Provider: "openai", Model: "text-embedding-3-small", Dimension: 1536}
	large := IndexConfig{Provider: "openai", Model: "text-embedding-3-large", Dimension: 3072}

	result, err := s.CheckMigration(small)
	require.NoError(t, err)
	assert.True(t, result.NeedsMigration)
	assert.False(t, result.NeedsRebuild)

	require.NoError(t, s.Migrate(small))

	rebuild, _, err := s.NeedsRebuild(small)
	require.NoError(t, err)
	assert.False(t, rebuild)

	rebuild, reason, err := s.NeedsRebuild(large)
	require.NoError(t, err)
	assert.True(t, rebuild)
	assert.NotEmpty(t, reason)

	vs, err := NewBoltVectorStore(s.DB(), 1)
	require.NoError(t, err)
	require.NoError(t, vs.Upsert(context.Background(), []port.VectorItem{{ID: "a", Vector: []float32{1}}}))
	require.NoError(t, s.RecordIngest(domain.VideoRecord{VideoID: "v"}))

	require.NoError(t, s.Clear())

	stats, err := s.GetStats()
	require.NoError(t, err)
	assert.Equal(t, domain.Stats{}, stats)

	info, err := s.GetSchemaInfo()
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, info.Version)
	assert.Equal(t, ComputeConfigHash(small), info.ConfigHash)
}

func TestClearRemovesEveryStatsKey(t *testing.T) {
	s, _ := openStore(t)
	cfg := IndexConfig{Provider: "mock", Model: "mock", Dimension: 1}
	require.NoError(t, s.Migrate(cfg))

	require.NoError(t, s.DB().Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketStats)
		for i := 0; i < 500; i++ {
			if err := b.Put([]byte(fmt.Sprintf("counter_%03d", i)), []byte("1")); err != nil {
				return err
			}
		}
		return nil
	}))

	require.NoError(t, s.Clear())

	var keys []string
	require.NoError(t, s.DB().View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketStats).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	}))
	assert.ElementsMatch(t, []string{"config_hash", "generation", "index_id", "schema_version"}, keys)

	rebuild, _, err := s.NeedsRebuild(cfg)
	require.NoError(t, err)
	assert.False(t, rebuild)
}

func TestIndexVersion(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()
	vs, err := NewBoltVectorStore(s.DB(), 1)
	require.NoError(t, err)

	empty, err := vs.IndexVersion()
	require.NoError(t, err)

	require.NoError(t, vs.Upsert(ctx, []port.VectorItem{{ID: "a", Vector: []float32{1}, Document: "cats"}}))
	first, err := vs.IndexVersion()
	require.NoError(t, err)
	assert.NotEqual(t, empty, first)

	// same record count, different contents
	require.NoError(t, s.Clear())
	vs, err = NewBoltVectorStore(s.DB(), 1)
	require.NoError(t, err)
	require.NoError(t, vs.Upsert(ctx, []port.VectorItem{{ID: "b", Vector: []float32{1}, Document: "rockets"}}))
	n, err := vs.Count()
	require.NoError(t, err)
	require.Equal(t, 1, n)

	second, err := s.IndexVersion()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	other, _ := openStore(t)
	otherVersion, err := other.IndexVersion()
	require.NoError(t, err)
	assert.NotEqual(t, empty, otherVersion)
}

func TestIndexVersionSurvivesReopen(t *testing.T) {
	s, path := openStore(t)
	before, err := s.IndexVersion()
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := NewBoltStore(path)
	require.NoError(t, err)
	defer reopened.Close()
	after, err := reopened.IndexVersion()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestTopK(t *testing.T) {
	results := []port.VectorResult{{ID: "b", Score: 0.5}, {ID: "a", Score: 0.5}, {ID: "c", Score: 0.9}}
	got := TopK(results, 10)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{got[0].ID, got[1].ID, got[2].ID})
	assert.Empty(t, TopK(nil, 3))
}
