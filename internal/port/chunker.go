package port

import "captionrag/internal/domain"

type Chunker interface {
	Chunk(cues []domain.Cue) []domain.Chunk
}
