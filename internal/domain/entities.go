package domain

import "time"

// VideoRef identifies one video of a playlist.
type VideoRef struct {
	ID    string
	URL   string
	Title string
	Path  string // caption file, set by file-backed sources
}

// RawCue is a single caption cue as read from a track, timings still unparsed.
type RawCue struct {
	Start string
	End   string
	Text  string
}

type CaptionTrack struct {
	VideoID string
	Cues    []RawCue
}

// Cue is a normalized caption cue. Start and End are whole seconds.
type Cue struct {
	VideoID string
	Start   int
	End     int
	Text    string
	URL     string
}

// Chunk is a token-bounded group of consecutive cues from one video.
type Chunk struct {
	VideoID  string
	Start    int
	End      int
	Text     string
	URL      string
	CueCount int
}

type RecordMetadata struct {
	VideoID string `json:"video_id"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	URL     string `json:"url"`
}

// Record is what the indexer writes to the vector store for one chunk.
type Record struct {
	ID       string
	Vector   []float32
	Document string
	Metadata RecordMetadata
}

// Candidate is a nearest-neighbour hit returned for one question.
type Candidate struct {
	ID       string
	Document string
	Metadata RecordMetadata
	Score    float64
}

type Relevance string

const (
	RelevanceHigh    Relevance = "High"
	RelevanceMedium  Relevance = "Medium"
	RelevanceLow     Relevance = "Low"
	RelevanceUnknown Relevance = "Unknown"
)

type Validation struct {
	Relevance Relevance `json:"relevance"`
	Comment   string    `json:"comment"`
}

// Source is a citation shown next to an answer.
type Source struct {
	Text         string      `json:"text"`
	URL          string      `json:"url"`
	Start        int         `json:"start"`
	End          int         `json:"end"`
	VideoID      string      `json:"video_id"`
	ThumbnailURL string      `json:"thumbnail_url,omitempty"`
	Validation   *Validation `json:"validation,omitempty"`
}

type Answer struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// VideoRecord is the ingest ledger entry for a video.
type VideoRecord struct {
	VideoID      string    `json:"video_id"`
	Title        string    `json:"title,omitempty"`
	URL          string    `json:"url,omitempty"`
	Cues         int       `json:"cues"`
	Chunks       int       `json:"chunks"`
	Ingests      int       `json:"ingests"`
	LastIngested time.Time `json:"last_ingested"`
}

type Stats struct {
	Records int
	Videos  int
}
