package port

import (
	"context"

	"captionrag/internal/domain"
)

// CaptionSource lists the videos of a playlist and fetches their captions.
type CaptionSource interface {
	ListVideos(ctx context.Context, playlistRef string) ([]domain.VideoRef, error)

	// CaptionTrack returns domain.ErrNoCaptions when the video has no track.
	CaptionTrack(ctx context.Context, video domain.VideoRef) (domain.CaptionTrack, error)
}
