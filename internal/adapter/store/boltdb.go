package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"captionrag/internal/domain"
)

var (
	bucketVideos  = []byte("videos")
	bucketStats   = []byte("stats")
	bucketVectors = []byte("vectors")
)

// BoltStore owns the index database: the ingest ledger, schema info and the
// bucket the vector store writes to.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketVideos, bucketStats, bucketVectors} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return ensureIndexID(tx)
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) DB() *bbolt.DB {
	return s.db
}

// RecordIngest stores the counts of the latest ingest of a video and bumps
// its ingest counter.
func (s *BoltStore) RecordIngest(rec domain.VideoRecord) error {
	if rec.VideoID == "" {
		return fmt.Errorf("video record without id")
	}
	if rec.LastIngested.IsZero() {
		rec.LastIngested = time.Now()
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketVideos)

		if data := b.Get([]byte(rec.VideoID)); data != nil {
			var prev domain.VideoRecord
			if err := json.Unmarshal(data, &prev); err == nil {
				rec.Ingests += prev.Ingests
				if rec.Title == "" {
					rec.Title = prev.Title
				}
			}
		}
		rec.Ingests++

		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return b.Put([]byte(rec.VideoID), data)
	})
}

func (s *BoltStore) GetVideo(id string) (domain.VideoRecord, error) {
	var rec domain.VideoRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketVideos).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("video not found: %s", id)
		}
		return json.Unmarshal(data, &rec)
	})
	return rec, err
}

// ListVideos returns the ledger ordered by video id.
func (s *BoltStore) ListVideos() ([]domain.VideoRecord, error) {
	var videos []domain.VideoRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketVideos).ForEach(func(k, v []byte) error {
			var rec domain.VideoRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			videos = append(videos, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(videos, func(i, j int) bool { return videos[i].VideoID < videos[j].VideoID })
	return videos, nil
}

// GetStats counts stored records and ledger entries.
func (s *BoltStore) GetStats() (domain.Stats, error) {
	var stats domain.Stats
	err := s.db.View(func(tx *bbolt.Tx) error {
		stats.Records = tx.Bucket(bucketVectors).Stats().KeyN
		stats.Videos = tx.Bucket(bucketVideos).Stats().KeyN
		return nil
	})
	return stats, err
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
