package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"docchat-platform/internal/ai"
	"docchat-platform/internal/vectorstore"
)

type vectorSearcher interface {
	Search(ctx context.Context, collection string, vector []float32, chatID string, limit int) ([]vectorstore.Hit, error)
}

// RetrievalCoordinator runs the document and history searches for a query.
// Both searches use the same query vector and both are filtered to the chat,
// so one tenant's passages can never appear in another tenant's context.
type RetrievalCoordinator struct {
	embedder          ai.Embedder
	search            vectorSearcher
	docCollection     string
	historyCollection string
	docLimit          int
	historyLimit      int
}

func NewRetrievalCoordinator(embedder ai.Embedder, search vectorSearcher, docCollection, historyCollection string, docLimit, historyLimit int) *RetrievalCoordinator {
	if docLimit <= 0 {
		docLimit = 10
	}
	if historyLimit <= 0 {
		historyLimit = 2
	}
	return &RetrievalCoordinator{
		embedder:          embedder,
		search:            search,
		docCollection:     docCollection,
		historyCollection: historyCollection,
		docLimit:          docLimit,
		historyLimit:      historyLimit,
	}
}

// Retrieve embeds the query once, fans out to both collections, and renders
// the combined context block. History memories come before document passages.
// A failure in either search fails the whole retrieval; answering from a
// silently truncated context is worse than an error.
func (r *RetrievalCoordinator) Retrieve(ctx context.Context, chatID, query string) (string, error) {
	vector, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		return "", fmt.Errorf("%w: embed query: %v", ErrIndex, err)
	}

	var docHits, historyHits []vectorstore.Hit
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hits, err := r.search.Search(gctx, r.docCollection, vector, chatID, r.docLimit)
		if err != nil {
			return fmt.Errorf("%w: document search: %v", ErrIndex, err)
		}
		docHits = hits
		return nil
	})
	g.Go(func() error {
		hits, err := r.search.Search(gctx, r.historyCollection, vector, chatID, r.historyLimit)
		if err != nil {
			return fmt.Errorf("%w: history search: %v", ErrIndex, err)
		}
		historyHits = hits
		return nil
	})
	if err := g.Wait(); err != nil {
		return "", err
	}

	var blocks []string
	for _, hit := range historyHits {
		content, ok := hit.Payload["chunk_content"].(string)
		if !ok || content == "" {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("[Memory from past conversation]: %s", content))
	}
	for _, hit := range docHits {
		content, ok := hit.Payload["chunk_content"].(string)
		if !ok || content == "" {
			continue
		}
		blocks = append(blocks, formatDocumentBlock(hit.Payload, content))
	}
	return strings.Join(blocks, "\n\n"), nil
}

func formatDocumentBlock(payload map[string]any, content string) string {
	filename := "unknown"
	page := any("unknown")
	if meta, ok := payload["metadata"].(map[string]any); ok {
		if name, ok := meta["original_filename"].(string); ok && name != "" {
			filename = name
		}
		if p, ok := meta["page_number"]; ok {
			page = p
		}
	}
	return fmt.Sprintf("[FILE: %s | PAGE: %v]\n%s", filename, page, content)
}
