// Package captions reads caption tracks and turns them into normalized cues.
package captions

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"captionrag/internal/domain"
)

// maxTimestampField bounds each h/m/s field so the sum fits an int.
const maxTimestampField = 1e7

var timestampField = regexp.MustCompile(`^[0-9]+(?:[.,][0-9]+)?$`)

// ParseTimestamp converts a cue timing such as "01:02:03.456", "02:03,456"
// or "3.5" into whole seconds. Sub-second precision is dropped.
func ParseTimestamp(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty timestamp")
	}

	fields := strings.Split(s, ":")
	if len(fields) > 3 {
		return 0, fmt.Errorf("invalid timestamp %q: too many fields", s)
	}

	parts := make([]float64, 0, 3)
	for i := len(fields); i < 3; i++ {
		parts = append(parts, 0)
	}
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if !timestampField.MatchString(f) {
			return 0, fmt.Errorf("invalid timestamp %q", s)
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(f, ",", "."), 64)
		if err != nil || v > maxTimestampField {
			return 0, fmt.Errorf("invalid timestamp %q: field out of range", s)
		}
		parts = append(parts, v)
	}

	h, m, sec := parts[0], parts[1], parts[2]
	return int(h)*3600 + int(m)*60 + int(sec), nil
}

// DeepLink returns a URL that starts playback of videoID at start seconds.
func DeepLink(watchURL, videoID string, start int) string {
	return fmt.Sprintf("%s%s&t=%ds", watchURL, videoID, start)
}

// Normalize parses the timings of a raw track and drops cues with no text.
// An empty track yields an empty slice. A malformed timing fails the track.
func Normalize(track domain.CaptionTrack, watchURL string) ([]domain.Cue, error) {
	cues := make([]domain.Cue, 0, len(track.Cues))
	for i, raw := range track.Cues {
		text := strings.TrimSpace(raw.Text)
		if text == "" {
			continue
		}

		start, err := ParseTimestamp(raw.Start)
		if err != nil {
			return nil, fmt.Errorf("cue %d start: %w", i+1, err)
		}
		end, err := ParseTimestamp(raw.End)
		if err != nil {
			return nil, fmt.Errorf("cue %d end: %w", i+1, err)
		}
		if end < start {
			end = start
		}

		cues = append(cues, domain.Cue{
			VideoID: track.VideoID,
			Start:   start,
			End:     end,
			Text:    text,
			URL:     DeepLink(watchURL, track.VideoID, start),
		})
	}
	return cues, nil
}
