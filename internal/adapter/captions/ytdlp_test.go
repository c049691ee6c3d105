package captions

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/lrstanley/go-ytdlp"

	"captionrag/internal/domain"
)

const playlistJSON = `{
  "id": "PL123",
  "title": "Course",
  "entries": [
    {"id": "aaa", "title": "Intro", "url": "https://www.youtube.com/watch?v=aaa"},
    {"id": "", "title": "private"},
    {"id": "bbb", "title": "Caching", "url": "bbb"}
  ]
}`

func TestYtDlpListVideos(t *testing.T) {
	var gotURL string
	src := NewYtDlpSource("", t.TempDir(), nil, watchURL).WithRunner(
		func(ctx context.Context, cmd *ytdlp.Command, url string) (*ytdlp.Result, error) {
			if cmd == nil {
				t.Error("expected a command")
			}
			gotURL = url
			return &ytdlp.Result{Stdout: playlistJSON}, nil
		})

	videos, err := src.ListVideos(context.Background(), "https://www.youtube.com/playlist?list=PL123")
	if err != nil {
		t.Fatal(err)
	}
	if gotURL != "https://www.youtube.com/playlist?list=PL123" {
		t.Errorf("unexpected url %s", gotURL)
	}
	if len(videos) != 2 {
		t.Fatalf("expected 2 videos, got %d", len(videos))
	}
	if videos[1].ID != "bbb" || videos[1].URL != watchURL+"bbb" {
		t.Errorf("unexpected video: %+v", videos[1])
	}
	if videos[0].Title != "Intro" {
		t.Errorf("expected title, got %q", videos[0].Title)
	}
}

func TestYtDlpListSingleVideo(t *testing.T) {
	src := NewYtDlpSource("", t.TempDir(), nil, watchURL).WithRunner(
		func(ctx context.Context, cmd *ytdlp.Command, url string) (*ytdlp.Result, error) {
			return &ytdlp.Result{Stdout: `{"id": "solo", "title": "One"}`}, nil
		})

	videos, err := src.ListVideos(context.Background(), "https://youtu.be/solo")
	if err != nil {
		t.Fatal(err)
	}
	if len(videos) != 1 || videos[0].ID != "solo" {
		t.Errorf("unexpected videos: %+v", videos)
	}
}

func TestYtDlpCaptionTrack(t *testing.T) {
	workDir := t.TempDir()
	var gotURL string
	src := NewYtDlpSource("yt-dlp", workDir, []string{"en"}, watchURL).WithRunner(
		func(ctx context.Context, cmd *ytdlp.Command, url string) (*ytdlp.Result, error) {
			gotURL = url
			err := os.WriteFile(filepath.Join(workDir, "aaa.en.vtt"), []byte(sampleVTT), 0644)
			return &ytdlp.Result{}, err
		})

	track, err := src.CaptionTrack(context.Background(), domain.VideoRef{ID: "aaa"})
	if err != nil {
		t.Fatal(err)
	}
	if track.VideoID != "aaa" || len(track.Cues) < 2 {
		t.Errorf("unexpected track: %+v", track)
	}
	if gotURL != watchURL+"aaa" {
		t.Errorf("expected the watch URL for the video, got %s", gotURL)
	}
}

func TestYtDlpNoCaptions(t *testing.T) {
	src := NewYtDlpSource("yt-dlp", t.TempDir(), []string{"en"}, watchURL).WithRunner(
		func(ctx context.Context, cmd *ytdlp.Command, url string) (*ytdlp.Result, error) {
			return &ytdlp.Result{}, nil
		})

	_, err := src.CaptionTrack(context.Background(), domain.VideoRef{ID: "zzz"})
	if !errors.Is(err, domain.ErrNoCaptions) {
		t.Errorf("expected ErrNoCaptions, got %v", err)
	}
}

func TestYtDlpRunnerFailure(t *testing.T) {
	src := NewYtDlpSource("yt-dlp", t.TempDir(), nil, watchURL).WithRunner(
		func(ctx context.Context, cmd *ytdlp.Command, url string) (*ytdlp.Result, error) {
			return nil, errors.New("exit status 1")
		})

	_, err := src.CaptionTrack(context.Background(), domain.VideoRef{ID: "zzz"})
	var pe *domain.ProviderError
	if !errors.As(err, &pe) {
		t.Errorf("expected ProviderError, got %v", err)
	}
}
