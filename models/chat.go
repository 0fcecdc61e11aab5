package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Chat is one conversation. The persona fields are written exactly once, by
// the first successful creation for a chat_id; later creations with the same
// chat_id never overwrite them.
type Chat struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ChatID              string             `bson:"chat_id" json:"chat_id"`
	PersonaName         string             `bson:"persona_name" json:"persona_name"`
	PersonaInstructions string             `bson:"persona_instructions" json:"persona_instructions"`
	CreatedAt           time.Time          `bson:"created_at" json:"created_at"`
}

// ChatFile is the chat-scoped view of an uploaded file. It lives in its own
// collection keyed by (chat_id, file_id) so status updates are independent
// row writes rather than positional array mutations.
type ChatFile struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ChatID   string             `bson:"chat_id" json:"chat_id"`
	FileID   string             `bson:"file_id" json:"file_id"`
	Filename string             `bson:"filename" json:"filename"`
	Status   FileStatus         `bson:"status" json:"status"`
	AddedAt  time.Time          `bson:"added_at" json:"added_at"`
}

type CreateChatRequest struct {
	ChatID              string `json:"chat_id" binding:"required"`
	PersonaName         string `json:"persona_name"`
	PersonaInstructions string `json:"persona_instructions"`
}

type AskRequest struct {
	Question string `json:"question" binding:"required,min=1,max=4000"`
}

type AskResponse struct {
	Answer    string    `json:"answer"`
	ChatID    string    `json:"chat_id"`
	Timestamp time.Time `json:"timestamp"`
}
