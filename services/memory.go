package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"docchat-platform/internal/ai"
	"docchat-platform/internal/vectorstore"
	"docchat-platform/models"
)

type messageRecords interface {
	InsertMessage(ctx context.Context, msg *models.Message) error
	RecentMessages(ctx context.Context, chatID string, limit int) ([]models.Message, error)
}

// MemoryManager persists conversation turns twice: the durable transcript in
// MongoDB and a semantic copy in the history vector collection. Both writes
// run concurrently and both must succeed for the turn to count as recorded.
type MemoryManager struct {
	records    messageRecords
	embedder   ai.Embedder
	index      chunkIndex
	collection string
}

func NewMemoryManager(records messageRecords, embedder ai.Embedder, index chunkIndex, collection string) *MemoryManager {
	return &MemoryManager{
		records:    records,
		embedder:   embedder,
		index:      index,
		collection: collection,
	}
}

// RecordTurn stores one message under both representations.
func (m *MemoryManager) RecordTurn(ctx context.Context, chatID, role, content string) error {
	now := time.Now().UTC()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		msg := &models.Message{
			ChatID:    chatID,
			Role:      role,
			Content:   content,
			Timestamp: now,
		}
		if err := m.records.InsertMessage(gctx, msg); err != nil {
			return fmt.Errorf("%w: insert message: %v", ErrPersistence, err)
		}
		return nil
	})
	g.Go(func() error {
		vector, err := m.embedder.EmbedText(gctx, content)
		if err != nil {
			return fmt.Errorf("%w: embed turn: %v", ErrIndex, err)
		}
		point := vectorstore.Point{
			ID:     uuid.NewString(),
			Vector: vector,
			Payload: map[string]any{
				"chat_id":       chatID,
				"chunk_content": content,
				"role":          role,
				"timestamp":     now.Format(time.RFC3339),
				"type":          "history_memory",
			},
		}
		if err := m.index.Upsert(gctx, m.collection, []vectorstore.Point{point}); err != nil {
			return fmt.Errorf("%w: index turn: %v", ErrIndex, err)
		}
		return nil
	})
	return g.Wait()
}

// RecentTurns returns the last turns of a chat, oldest first, each rendered
// as a "User:" or "Assistant:" line ready for prompt assembly.
func (m *MemoryManager) RecentTurns(ctx context.Context, chatID string, limit int) ([]string, error) {
	messages, err := m.records.RecentMessages(ctx, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: load recent messages: %v", ErrPersistence, err)
	}
	turns := make([]string, 0, len(messages))
	for _, msg := range messages {
		label := "User"
		if msg.Role == models.RoleAssistant {
			label = "Assistant"
		}
		turns = append(turns, fmt.Sprintf("%s: %s", label, msg.Content))
	}
	return turns, nil
}
