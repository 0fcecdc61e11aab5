package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"docchat-platform/models"
)

func TestChatUpsertLocksPersonaOnInsert(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	filter, update := chatUpsert("c1", "Helper", "Answer like a pirate.", createdAt)

	assert.Equal(t, bson.M{"chat_id": "c1"}, filter)

	// Only $setOnInsert: an upsert that matches an existing chat must not
	// touch any field, whatever persona the caller sent.
	require.Len(t, update, 1)
	onInsert, ok := update["$setOnInsert"].(bson.M)
	require.True(t, ok)
	assert.NotContains(t, update, "$set")

	assert.Equal(t, "c1", onInsert["chat_id"])
	assert.Equal(t, "Helper", onInsert["persona_name"])
	assert.Equal(t, "Answer like a pirate.", onInsert["persona_instructions"])
	assert.Equal(t, createdAt, onInsert["created_at"])
}

func TestChatUpsertSecondPersonaCannotOverwrite(t *testing.T) {
	_, first := chatUpsert("c1", "Helper", "Answer like a pirate.", time.Now().UTC())
	_, second := chatUpsert("c1", "Lawyer", "Cite every clause.", time.Now().UTC())

	// Both updates carry their persona exclusively under $setOnInsert, so
	// whichever lands second is a no-op against the stored chat.
	for _, update := range []bson.M{first, second} {
		require.Len(t, update, 1)
		_, ok := update["$setOnInsert"]
		assert.True(t, ok)
	}
}

func TestReverseMessagesRestoresChronologicalOrder(t *testing.T) {
	now := time.Now().UTC()
	// As fetched: newest first.
	messages := []models.Message{
		{Role: models.RoleAssistant, Content: "second answer", Timestamp: now},
		{Role: models.RoleUser, Content: "second question", Timestamp: now.Add(-1 * time.Minute)},
		{Role: models.RoleAssistant, Content: "first answer", Timestamp: now.Add(-2 * time.Minute)},
		{Role: models.RoleUser, Content: "first question", Timestamp: now.Add(-3 * time.Minute)},
	}

	reverseMessages(messages)

	require.Len(t, messages, 4)
	assert.Equal(t, "first question", messages[0].Content)
	assert.Equal(t, "first answer", messages[1].Content)
	assert.Equal(t, "second question", messages[2].Content)
	assert.Equal(t, "second answer", messages[3].Content)
	for i := 1; i < len(messages); i++ {
		assert.False(t, messages[i].Timestamp.Before(messages[i-1].Timestamp))
	}
}

func TestReverseMessagesShortWindows(t *testing.T) {
	reverseMessages(nil)

	one := []models.Message{{Content: "only"}}
	reverseMessages(one)
	assert.Equal(t, "only", one[0].Content)
}
