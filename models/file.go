package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FileStatus is the per-file processing state. The sequence is linear:
// uploaded -> processing -> indexed on success, processing -> failed on any
// ingestion error. indexed and failed are terminal; nothing re-enters the
// machine automatically.
type FileStatus string

const (
	StatusUploaded   FileStatus = "uploaded"
	StatusProcessing FileStatus = "processing"
	StatusIndexed    FileStatus = "indexed"
	StatusFailed     FileStatus = "failed"
)

// File is the global registry entry for an uploaded document.
type File struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FileID           string             `bson:"file_id" json:"file_id"`
	ChatID           string             `bson:"chat_id" json:"chat_id"`
	OriginalFilename string             `bson:"original_filename" json:"original_filename"`
	FilePath         string             `bson:"file_path" json:"file_path"`
	Status           FileStatus         `bson:"status" json:"status"`
	Error            string             `bson:"error,omitempty" json:"error,omitempty"`
	UploadedAt       time.Time          `bson:"uploaded_at" json:"uploaded_at"`
}

// IngestReport is the per-chat batch result: one entry per file, successes
// and failures collected separately so one bad file never hides its siblings.
type IngestReport struct {
	ChatID  string        `json:"chat_id"`
	Indexed []IndexedFile `json:"indexed"`
	Failed  []FailedFile  `json:"failed"`
}

type IndexedFile struct {
	FileID string `json:"file_id"`
	Chunks int    `json:"chunks"`
}

type FailedFile struct {
	FileID string `json:"file_id"`
	Reason string `json:"reason"`
}
