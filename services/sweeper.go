package services

import (
	"context"
	"errors"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/hibiken/asynq"

	"docchat-platform/internal/logger"
	"docchat-platform/internal/queue"
	"docchat-platform/models"
)

type pendingLister interface {
	AllPendingFiles(ctx context.Context, limit int64) ([]models.File, error)
}

// UploadSweeper periodically re-enqueues files that are still uploaded.
// These are files whose enqueue was lost (a crash between upload and
// enqueue, or Redis being down at upload time). It never touches processing
// or failed files.
type UploadSweeper struct {
	records   pendingLister
	client    *asynq.Client
	scheduler *gocron.Scheduler
	interval  time.Duration
}

func NewUploadSweeper(records pendingLister, client *asynq.Client, interval time.Duration) *UploadSweeper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &UploadSweeper{
		records:   records,
		client:    client,
		scheduler: gocron.NewScheduler(time.UTC),
		interval:  interval,
	}
}

func (s *UploadSweeper) Start() error {
	if _, err := s.scheduler.Every(s.interval).Tag("upload-sweep").Do(s.sweep); err != nil {
		return err
	}
	s.scheduler.StartAsync()
	return nil
}

func (s *UploadSweeper) Stop() {
	s.scheduler.Stop()
}

func (s *UploadSweeper) sweep() error {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	files, err := s.records.AllPendingFiles(ctx, 100)
	if err != nil {
		logger.Error("upload sweep failed to list files", "error", err)
		return err
	}
	for _, file := range files {
		task, err := queue.NewIngestFileTask(file.ChatID, file.FileID)
		if err != nil {
			logger.Error("upload sweep task build failed", "file_id", file.FileID, "error", err)
			continue
		}
		// Unique window keeps the sweeper from stacking duplicates while a
		// previous delivery is still queued.
		if _, err := s.client.EnqueueContext(ctx, task, asynq.Unique(10*time.Minute)); err != nil {
			if !errors.Is(err, asynq.ErrDuplicateTask) {
				logger.Error("upload sweep enqueue failed", "file_id", file.FileID, "error", err)
			}
			continue
		}
		logger.Info("re-enqueued stale upload", "chat_id", file.ChatID, "file_id", file.FileID)
	}
	return nil
}
