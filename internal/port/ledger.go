package port

import "captionrag/internal/domain"

// VideoLedger records which videos have been ingested.
type VideoLedger interface {
	RecordIngest(rec domain.VideoRecord) error
	ListVideos() ([]domain.VideoRecord, error)
}

// StatsReader reports index totals.
type StatsReader interface {
	GetStats() (domain.Stats, error)
}
