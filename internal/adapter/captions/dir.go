package captions

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"captionrag/internal/domain"
)

// DirSource treats a directory of .vtt/.srt files as a playlist. The video id
// is the file name up to its first dot, so "dQw4w9WgXcQ.en.vtt" belongs to
// video "dQw4w9WgXcQ" in language "en".
type DirSource struct {
	includes  []string
	excludes  []string
	languages []string
	watchURL  string
}

func NewDirSource(includes, excludes, languages []string, watchURL string) *DirSource {
	if len(includes) == 0 {
		includes = []string{"**/*.vtt", "**/*.srt"}
	}
	return &DirSource{
		includes:  includes,
		excludes:  excludes,
		languages: languages,
		watchURL:  watchURL,
	}
}

// ListVideos walks root and returns one VideoRef per video id, ordered by id.
// When a video has several caption files the first in path order wins.
func (s *DirSource) ListVideos(ctx context.Context, root string) ([]domain.VideoRef, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("caption directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("caption directory: %s is not a directory", root)
	}

	seen := make(map[string]bool)
	var videos []domain.VideoRef

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if relPath != "." && s.shouldExclude(relPath+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if !s.shouldInclude(relPath) || s.shouldExclude(relPath) {
			return nil
		}

		id, lang := splitCaptionName(d.Name())
		if id == "" || seen[id] || !s.acceptLanguage(lang) {
			return nil
		}
		seen[id] = true

		videos = append(videos, domain.VideoRef{
			ID:   id,
			URL:  s.watchURL + id,
			Path: path,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(videos, func(i, j int) bool { return videos[i].ID < videos[j].ID })
	return videos, nil
}

// CaptionTrack reads the caption file behind video. A missing file means the
// video has no captions.
func (s *DirSource) CaptionTrack(ctx context.Context, video domain.VideoRef) (domain.CaptionTrack, error) {
	if err := ctx.Err(); err != nil {
		return domain.CaptionTrack{}, err
	}
	if video.Path == "" {
		return domain.CaptionTrack{}, domain.ErrNoCaptions
	}

	cues, err := ReadFile(video.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.CaptionTrack{}, domain.ErrNoCaptions
		}
		return domain.CaptionTrack{}, fmt.Errorf("read %s: %w", video.Path, err)
	}

	return domain.CaptionTrack{VideoID: video.ID, Cues: cues}, nil
}

// splitCaptionName splits "id.lang.ext" or "id.ext".
func splitCaptionName(name string) (id, lang string) {
	parts := strings.Split(name, ".")
	if len(parts) < 2 {
		return "", ""
	}
	if len(parts) >= 3 {
		lang = parts[len(parts)-2]
	}
	return parts[0], lang
}

func (s *DirSource) acceptLanguage(lang string) bool {
	if lang == "" || len(s.languages) == 0 {
		return true
	}
	for _, l := range s.languages {
		if strings.EqualFold(l, lang) || strings.HasPrefix(strings.ToLower(lang), strings.ToLower(l)+"-") {
			return true
		}
	}
	return false
}

func (s *DirSource) shouldInclude(path string) bool {
	for _, pattern := range s.includes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func (s *DirSource) shouldExclude(path string) bool {
	for _, pattern := range s.excludes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}
