package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIngestor struct {
	fileIDs []string
	err     error
}

func (f *fakeIngestor) Ingest(ctx context.Context, fileID string) (int, error) {
	f.fileIDs = append(f.fileIDs, fileID)
	if f.err != nil {
		return 0, f.err
	}
	return 3, nil
}

func TestNewIngestFileTaskPayload(t *testing.T) {
	task, err := NewIngestFileTask("c1", "f1")
	require.NoError(t, err)
	assert.Equal(t, TaskIngestFile, task.Type())

	var payload IngestFilePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, "c1", payload.ChatID)
	assert.Equal(t, "f1", payload.FileID)
}

func TestHandleIngestFile(t *testing.T) {
	ingestor := &fakeIngestor{}
	processor := NewTaskProcessor(ingestor)

	task, err := NewIngestFileTask("c1", "f1")
	require.NoError(t, err)

	require.NoError(t, processor.HandleIngestFile(context.Background(), task))
	assert.Equal(t, []string{"f1"}, ingestor.fileIDs)
}

func TestHandleIngestFileSurfacesError(t *testing.T) {
	ingestor := &fakeIngestor{err: errors.New("extract failed")}
	processor := NewTaskProcessor(ingestor)

	task, err := NewIngestFileTask("c1", "f1")
	require.NoError(t, err)

	err = processor.HandleIngestFile(context.Background(), task)
	require.Error(t, err)
}

func TestHandleIngestFileBadPayload(t *testing.T) {
	processor := NewTaskProcessor(&fakeIngestor{})

	err := processor.HandleIngestFile(context.Background(), asynq.NewTask(TaskIngestFile, []byte("not json")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}
