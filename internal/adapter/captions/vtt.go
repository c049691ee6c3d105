package captions

import (
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/asticode/go-astisub"

	"captionrag/internal/domain"
)

var (
	// markup the subtitle reader leaves in text: <c.colorE5E5E5>, <00:00:01.000>
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	spacePattern = regexp.MustCompile(`\s+`)
)

// ParseVTT reads a WebVTT document into raw cues.
func ParseVTT(content string) ([]domain.RawCue, error) {
	return read(strings.NewReader(content), astisub.ReadFromWebVTT)
}

// ParseSRT reads a SubRip document into raw cues.
//
//	1
//	00:00:00,000 --> 00:00:01,830
//	I'm happy to
//	have you here today.
func ParseSRT(content string) ([]domain.RawCue, error) {
	return read(strings.NewReader(content), astisub.ReadFromSRT)
}

// ReadFile parses a caption file, picking the format from its extension.
func ReadFile(path string) ([]domain.RawCue, error) {
	var reader func(io.Reader) (*astisub.Subtitles, error)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".vtt":
		reader = astisub.ReadFromWebVTT
	case ".srt":
		reader = astisub.ReadFromSRT
	default:
		return nil, fmt.Errorf("unsupported caption format: %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cues, err := read(f, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cues, nil
}

func read(r io.Reader, reader func(io.Reader) (*astisub.Subtitles, error)) ([]domain.RawCue, error) {
	subs, err := reader(r)
	if err != nil {
		return nil, err
	}

	cues := make([]domain.RawCue, 0, len(subs.Items))
	for _, item := range subs.Items {
		cues = append(cues, domain.RawCue{
			Start: formatTimestamp(item.StartAt),
			End:   formatTimestamp(item.EndAt),
			Text:  itemText(item),
		})
	}
	return cues, nil
}

// formatTimestamp renders d as HH:MM:SS.mmm.
func formatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	return fmt.Sprintf("%02d:%02d:%02d.%03d", ms/3600000, ms/60000%60, ms/1000%60, ms%1000)
}

func itemText(item *astisub.Item) string {
	var parts []string
	for _, line := range item.Lines {
		for _, li := range line.Items {
			parts = append(parts, li.Text)
		}
	}
	text := strings.Join(parts, " ")
	text = tagPattern.ReplaceAllString(text, "")
	text = html.UnescapeString(text)
	text = spacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
