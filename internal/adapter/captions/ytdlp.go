package captions

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lrstanley/go-ytdlp"

	"captionrag/internal/domain"
)

// Runner executes a prepared yt-dlp command against url.
type Runner func(ctx context.Context, cmd *ytdlp.Command, url string) (*ytdlp.Result, error)

func runCommand(ctx context.Context, cmd *ytdlp.Command, url string) (*ytdlp.Result, error) {
	return cmd.Run(ctx, url)
}

// YtDlpSource lists playlists and downloads caption tracks with yt-dlp.
// Manual subtitles are preferred; auto-generated ones are used otherwise.
type YtDlpSource struct {
	binary    string
	workDir   string
	languages []string
	watchURL  string
	run       Runner
}

func NewYtDlpSource(binary, workDir string, languages []string, watchURL string) *YtDlpSource {
	if binary == "" {
		binary = "yt-dlp"
	}
	if len(languages) == 0 {
		languages = []string{"en"}
	}
	return &YtDlpSource{
		binary:    binary,
		workDir:   workDir,
		languages: languages,
		watchURL:  watchURL,
		run:       runCommand,
	}
}

// WithRunner replaces the command runner.
func (s *YtDlpSource) WithRunner(run Runner) *YtDlpSource {
	s.run = run
	return s
}

func (s *YtDlpSource) command() *ytdlp.Command {
	return ytdlp.New().SetExecutable(s.binary).NoWarnings()
}

// listCommand prints the playlist as one JSON document without resolving
// each entry.
func (s *YtDlpSource) listCommand() *ytdlp.Command {
	return s.command().FlatPlaylist().DumpSingleJSON()
}

// subsCommand writes manual and automatic subtitles as <id>.<lang>.vtt into
// the work directory, skipping the media itself.
func (s *YtDlpSource) subsCommand() *ytdlp.Command {
	return s.command().
		SkipDownload().
		WriteSubs().
		WriteAutoSubs().
		SubLangs(strings.Join(s.languages, ",")).
		SubFormat("vtt").
		Output(filepath.Join(s.workDir, "%(id)s.%(ext)s"))
}

type playlistInfo struct {
	ID      string          `json:"id"`
	Title   string          `json:"title"`
	URL     string          `json:"webpage_url"`
	Entries []playlistEntry `json:"entries"`
}

type playlistEntry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ListVideos resolves a playlist (or single video) URL to its videos without
// downloading anything.
func (s *YtDlpSource) ListVideos(ctx context.Context, playlistRef string) ([]domain.VideoRef, error) {
	result, err := s.run(ctx, s.listCommand(), playlistRef)
	if err != nil {
		return nil, domain.NewProviderError("captions", "list videos", err)
	}

	var info playlistInfo
	if err := json.Unmarshal([]byte(result.Stdout), &info); err != nil {
		return nil, fmt.Errorf("failed to parse playlist info: %w", err)
	}

	if len(info.Entries) == 0 {
		if info.ID == "" {
			return nil, fmt.Errorf("playlist %s has no videos", playlistRef)
		}
		return []domain.VideoRef{{ID: info.ID, Title: info.Title, URL: s.videoURL(info.ID, info.URL)}}, nil
	}

	videos := make([]domain.VideoRef, 0, len(info.Entries))
	for _, e := range info.Entries {
		if e.ID == "" {
			continue
		}
		videos = append(videos, domain.VideoRef{ID: e.ID, Title: e.Title, URL: s.videoURL(e.ID, e.URL)})
	}
	return videos, nil
}

// CaptionTrack downloads the subtitles of video into the work directory and
// parses the first configured language found.
func (s *YtDlpSource) CaptionTrack(ctx context.Context, video domain.VideoRef) (domain.CaptionTrack, error) {
	if err := os.MkdirAll(s.workDir, 0755); err != nil {
		return domain.CaptionTrack{}, fmt.Errorf("failed to create work dir: %w", err)
	}

	if _, err := s.run(ctx, s.subsCommand(), s.videoURL(video.ID, video.URL)); err != nil {
		return domain.CaptionTrack{}, domain.NewProviderError("captions", "download "+video.ID, err)
	}

	for _, lang := range s.languages {
		path := filepath.Join(s.workDir, fmt.Sprintf("%s.%s.vtt", video.ID, lang))
		if _, err := os.Stat(path); err != nil {
			continue
		}
		cues, err := ReadFile(path)
		if err != nil {
			return domain.CaptionTrack{}, fmt.Errorf("read %s: %w", path, err)
		}
		return domain.CaptionTrack{VideoID: video.ID, Cues: cues}, nil
	}

	return domain.CaptionTrack{}, domain.ErrNoCaptions
}

func (s *YtDlpSource) videoURL(id, url string) string {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}
	return s.watchURL + id
}
