package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"docchat-platform/internal/logger"
)

const TaskIngestFile = "file:ingest"

type IngestFilePayload struct {
	ChatID string `json:"chat_id"`
	FileID string `json:"file_id"`
}

// NewIngestFileTask builds the background ingestion task for one file.
// MaxRetry is zero: a failed file stays failed until an operator re-uploads
// it, it is never silently re-run.
func NewIngestFileTask(chatID, fileID string) (*asynq.Task, error) {
	payload, err := json.Marshal(IngestFilePayload{ChatID: chatID, FileID: fileID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(
		TaskIngestFile,
		payload,
		asynq.MaxRetry(0),
		asynq.Timeout(10*time.Minute),
		asynq.Queue("critical"),
	), nil
}

// Ingestor is the piece of the ingestion pipeline the worker needs.
type Ingestor interface {
	Ingest(ctx context.Context, fileID string) (int, error)
}

type TaskProcessor struct {
	pipeline Ingestor
}

func NewTaskProcessor(pipeline Ingestor) *TaskProcessor {
	return &TaskProcessor{pipeline: pipeline}
}

// HandleIngestFile runs one queued ingestion. The pipeline already records
// the failure on the file itself, so errors are returned for logging only.
func (p *TaskProcessor) HandleIngestFile(ctx context.Context, t *asynq.Task) error {
	var payload IngestFilePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	logger.Info("ingesting file", "chat_id", payload.ChatID, "file_id", payload.FileID)
	chunks, err := p.pipeline.Ingest(ctx, payload.FileID)
	if err != nil {
		logger.Error("background ingestion failed", "file_id", payload.FileID, "error", err)
		return err
	}
	logger.Info("background ingestion finished", "file_id", payload.FileID, "chunks", chunks)
	return nil
}
