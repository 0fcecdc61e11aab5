package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitShortUnitSingleChunk(t *testing.T) {
	cs := NewChunkSplitter(100, 20)
	chunks := cs.Split([]DocumentUnit{{Text: "hello world", Page: 1}})

	require.Len(t, chunks, 1)
	assert.Equal(t, "hello world", chunks[0].Text)
	assert.Equal(t, 1, chunks[0].Page)
	assert.Equal(t, 0, chunks[0].Order)
}

func TestSplitOverlappingWindows(t *testing.T) {
	cs := NewChunkSplitter(10, 4)
	text := strings.Repeat("abcdef", 5) // 30 chars
	chunks := cs.Split([]DocumentUnit{{Text: text, Page: 1}})

	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c.Text), 10)
	}
	// Each window starts chunkSize-overlap runes after the previous one.
	first := []rune(chunks[0].Text)
	second := []rune(chunks[1].Text)
	assert.Equal(t, string(first[6:]), string(second[:4]))
}

func TestSplitNeverCrossesPageBoundary(t *testing.T) {
	cs := NewChunkSplitter(1000, 200)
	units := []DocumentUnit{
		{Text: "page one text", Page: 1},
		{Text: "page two text", Page: 2},
	}
	chunks := cs.Split(units)

	require.Len(t, chunks, 2)
	assert.Equal(t, 1, chunks[0].Page)
	assert.Equal(t, 2, chunks[1].Page)
	assert.NotContains(t, chunks[0].Text, "page two")
}

func TestSplitOrderIsGlobalAcrossUnits(t *testing.T) {
	cs := NewChunkSplitter(5, 0)
	units := []DocumentUnit{
		{Text: "aaaaabbbbb", Page: 1},
		{Text: "ccccc", Page: 2},
	}
	chunks := cs.Split(units)

	require.Len(t, chunks, 3)
	for i, c := range chunks {
		assert.Equal(t, i, c.Order)
	}
}

func TestSplitSkipsEmptyUnits(t *testing.T) {
	cs := NewChunkSplitter(100, 10)
	chunks := cs.Split([]DocumentUnit{
		{Text: "   ", Page: 1},
		{Text: "real content", Page: 2},
	})

	require.Len(t, chunks, 1)
	assert.Equal(t, 2, chunks[0].Page)
}

func TestNewChunkSplitterRejectsBadOverlap(t *testing.T) {
	cs := NewChunkSplitter(100, 100)
	// Overlap equal to the chunk size would loop forever; the constructor
	// clamps it.
	chunks := cs.Split([]DocumentUnit{{Text: strings.Repeat("x", 250), Page: 1}})
	assert.NotEmpty(t, chunks)
}
