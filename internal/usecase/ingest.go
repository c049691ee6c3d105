package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"captionrag/internal/adapter/captions"
	"captionrag/internal/domain"
	"captionrag/internal/port"
)

// IngestUseCase fetches, normalizes, chunks and indexes a playlist.
type IngestUseCase struct {
	source   port.CaptionSource
	chunker  port.Chunker
	indexer  *Indexer
	ledger   port.VideoLedger
	watchURL string
	logger   *zap.Logger
}

// NewIngestUseCase creates a new ingest use case. ledger may be nil.
func NewIngestUseCase(
	source port.CaptionSource,
	chunker port.Chunker,
	indexer *Indexer,
	ledger port.VideoLedger,
	watchURL string,
	logger *zap.Logger,
) *IngestUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestUseCase{
		source:   source,
		chunker:  chunker,
		indexer:  indexer,
		ledger:   ledger,
		watchURL: watchURL,
		logger:   logger,
	}
}

// IngestResult contains the results of an ingest run.
type IngestResult struct {
	Videos        int
	VideosSkipped int
	VideosFailed  int
	Cues          int
	ChunksIndexed int
	Errors        []string
}

type videoChunks struct {
	ref    domain.VideoRef
	cues   int
	chunks []domain.Chunk
}

// IngestPlaylist indexes every video of playlistRef that has captions. A video
// without captions is skipped and a video that fails is logged; neither stops
// the run. Re-ingesting adds a new set of records.
func (u *IngestUseCase) IngestPlaylist(ctx context.Context, playlistRef string, progress ProgressFunc) (*IngestResult, error) {
	videos, err := u.source.ListVideos(ctx, playlistRef)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}

	result := &IngestResult{Videos: len(videos)}
	var prepared []videoChunks
	var all []domain.Chunk

	for _, video := range videos {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		vc, err := u.prepareVideo(ctx, video)
		switch {
		case errors.Is(err, domain.ErrNoCaptions):
			u.logger.Info("no captions, skipping", zap.String("video", video.ID))
			result.VideosSkipped++
			continue
		case err != nil:
			u.logger.Warn("video failed", zap.String("video", video.ID), zap.Error(err))
			result.VideosFailed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", video.ID, err))
			continue
		}

		result.Cues += vc.cues
		prepared = append(prepared, vc)
		all = append(all, vc.chunks...)
	}

	indexed, err := u.indexer.Index(ctx, all, progress)
	result.ChunksIndexed = indexed
	if err != nil {
		return result, fmt.Errorf("failed to index chunks: %w", err)
	}

	u.recordVideos(prepared)

	u.logger.Info("ingest finished",
		zap.Int("videos", result.Videos),
		zap.Int("skipped", result.VideosSkipped),
		zap.Int("failed", result.VideosFailed),
		zap.Int("chunks", result.ChunksIndexed))

	return result, nil
}

func (u *IngestUseCase) prepareVideo(ctx context.Context, video domain.VideoRef) (videoChunks, error) {
	track, err := u.source.CaptionTrack(ctx, video)
	if err != nil {
		return videoChunks{}, err
	}
	if track.VideoID == "" {
		track.VideoID = video.ID
	}

	cues, err := captions.Normalize(track, u.watchURL)
	if err != nil {
		return videoChunks{}, fmt.Errorf("normalize: %w", err)
	}

	chunks := u.chunker.Chunk(cues)
	u.logger.Debug("video chunked",
		zap.String("video", video.ID),
		zap.Int("cues", len(cues)),
		zap.Int("chunks", len(chunks)))

	return videoChunks{ref: video, cues: len(cues), chunks: chunks}, nil
}

func (u *IngestUseCase) recordVideos(prepared []videoChunks) {
	if u.ledger == nil {
		return
	}
	now := time.Now()
	for _, vc := range prepared {
		rec := domain.VideoRecord{
			VideoID:      vc.ref.ID,
			Title:        vc.ref.Title,
			URL:          vc.ref.URL,
			Cues:         vc.cues,
			Chunks:       len(vc.chunks),
			LastIngested: now,
		}
		if err := u.ledger.RecordIngest(rec); err != nil {
			u.logger.Warn("failed to record ingest", zap.String("video", vc.ref.ID), zap.Error(err))
		}
	}
}
