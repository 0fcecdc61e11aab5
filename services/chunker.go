package services

import "strings"

// Chunk is one passage: the atomic unit of embedding and retrieval. Page is
// inherited from the source unit; Order is the position within the file.
type Chunk struct {
	Text  string
	Page  int
	Order int
}

// ChunkSplitter splits extracted text into overlapping fixed-size passages.
// Sizes are in characters (runes), matching the configured chunk settings.
type ChunkSplitter struct {
	chunkSize int
	overlap   int
}

func NewChunkSplitter(chunkSize, overlap int) *ChunkSplitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = chunkSize / 5
	}
	return &ChunkSplitter{chunkSize: chunkSize, overlap: overlap}
}

// Split chunks every unit independently so no passage straddles a page
// boundary; each passage keeps its unit's page number.
func (cs *ChunkSplitter) Split(units []DocumentUnit) []Chunk {
	var chunks []Chunk
	order := 0
	for _, unit := range units {
		for _, text := range cs.splitText(unit.Text) {
			chunks = append(chunks, Chunk{Text: text, Page: unit.Page, Order: order})
			order++
		}
	}
	return chunks
}

func (cs *ChunkSplitter) splitText(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= cs.chunkSize {
		return []string{text}
	}

	step := cs.chunkSize - cs.overlap
	var parts []string
	for start := 0; start < len(runes); start += step {
		end := start + cs.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		part := strings.TrimSpace(string(runes[start:end]))
		if part != "" {
			parts = append(parts, part)
		}
		if end == len(runes) {
			break
		}
	}
	return parts
}
