package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"docchat-platform/internal/ai"
	"docchat-platform/internal/logger"
	"docchat-platform/internal/telemetry"
	"docchat-platform/internal/vectorstore"
	"docchat-platform/models"
)

// fileRecords is the slice of RecordStore the ingestion pipeline needs.
type fileRecords interface {
	GetFile(ctx context.Context, fileID string) (*models.File, error)
	SetFileStatus(ctx context.Context, chatID, fileID string, status models.FileStatus, reason string) error
	PendingFiles(ctx context.Context, chatID string) ([]models.File, error)
}

// chunkIndex writes embedded passages into the vector store.
type chunkIndex interface {
	Upsert(ctx context.Context, collection string, points []vectorstore.Point) error
}

// FileIngestionPipeline drives one file from uploaded to indexed: extract,
// chunk, embed, upsert, then flip the status records. Each step failure marks
// the file failed with the reason; nothing is retried automatically.
type FileIngestionPipeline struct {
	records    fileRecords
	loader     *DocumentLoader
	splitter   *ChunkSplitter
	embedder   ai.Embedder
	index      chunkIndex
	collection string
	metrics    *telemetry.Metrics
}

func NewFileIngestionPipeline(records fileRecords, loader *DocumentLoader, splitter *ChunkSplitter, embedder ai.Embedder, index chunkIndex, collection string, metrics *telemetry.Metrics) *FileIngestionPipeline {
	return &FileIngestionPipeline{
		records:    records,
		loader:     loader,
		splitter:   splitter,
		embedder:   embedder,
		index:      index,
		collection: collection,
		metrics:    metrics,
	}
}

// Ingest processes a single file end to end. It returns the number of chunks
// indexed. The file must currently be uploaded or processing; a repeated
// delivery of the same file id after it reached a terminal status is a no-op
// error, not a re-index.
func (p *FileIngestionPipeline) Ingest(ctx context.Context, fileID string) (int, error) {
	started := time.Now()

	file, err := p.records.GetFile(ctx, fileID)
	if err != nil {
		return 0, err
	}
	if file.Status != models.StatusUploaded && file.Status != models.StatusProcessing {
		return 0, fmt.Errorf("%w: file %s is %s, not ingestable", ErrNotFound, fileID, file.Status)
	}

	if err := p.records.SetFileStatus(ctx, file.ChatID, fileID, models.StatusProcessing, ""); err != nil {
		return 0, fmt.Errorf("%w: mark processing: %v", ErrPersistence, err)
	}

	chunks, err := p.buildIndex(ctx, file)
	if err != nil {
		// Best effort: the ingestion error is the caller's result, the
		// status write failure is only logged.
		if serr := p.records.SetFileStatus(ctx, file.ChatID, fileID, models.StatusFailed, err.Error()); serr != nil {
			logger.Error("failed to record failed status", "file_id", fileID, "error", serr)
		}
		p.metrics.RecordIngestion(ctx, "failed", 0, time.Since(started).Seconds())
		return 0, err
	}

	if err := p.records.SetFileStatus(ctx, file.ChatID, fileID, models.StatusIndexed, ""); err != nil {
		return 0, fmt.Errorf("%w: mark indexed: %v", ErrPersistence, err)
	}

	p.metrics.RecordIngestion(ctx, "indexed", chunks, time.Since(started).Seconds())
	logger.Info("file indexed", "file_id", fileID, "chat_id", file.ChatID, "chunks", chunks)
	return chunks, nil
}

// buildIndex runs extract -> chunk -> embed -> upsert and returns the chunk
// count. It does not touch file status.
func (p *FileIngestionPipeline) buildIndex(ctx context.Context, file *models.File) (int, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(file.OriginalFilename)), ".")
	units, err := p.loader.Load(file.FilePath, ext)
	if err != nil {
		return 0, err
	}

	chunks := p.splitter.Split(units)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("%w: no extractable text in %s", ErrIndex, file.OriginalFilename)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("%w: embed %s: %v", ErrIndex, file.FileID, err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("%w: embedding count mismatch for %s", ErrIndex, file.FileID)
	}

	points := make([]vectorstore.Point, len(chunks))
	for i, c := range chunks {
		points[i] = vectorstore.Point{
			ID:     uuid.NewString(),
			Vector: vectors[i],
			Payload: map[string]any{
				"chat_id":       file.ChatID,
				"chunk_content": c.Text,
				"type":          "document_chunk",
				"metadata": map[string]any{
					"original_filename": file.OriginalFilename,
					"page_number":       c.Page,
					"chunk_order":       c.Order,
				},
			},
		}
	}

	if err := p.index.Upsert(ctx, p.collection, points); err != nil {
		return 0, fmt.Errorf("%w: upsert %s: %v", ErrIndex, file.FileID, err)
	}
	return len(points), nil
}

// IngestPending processes every uploaded file of a chat in upload order. One
// file's failure never aborts the batch; the report carries both outcomes.
func (p *FileIngestionPipeline) IngestPending(ctx context.Context, chatID string) (*models.IngestReport, error) {
	pending, err := p.records.PendingFiles(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("%w: list pending files: %v", ErrPersistence, err)
	}

	report := &models.IngestReport{ChatID: chatID}
	for _, file := range pending {
		chunks, err := p.Ingest(ctx, file.FileID)
		if err != nil {
			logger.Warn("file ingestion failed", "file_id", file.FileID, "chat_id", chatID, "error", err)
			report.Failed = append(report.Failed, models.FailedFile{
				FileID: file.FileID,
				Reason: err.Error(),
			})
			continue
		}
		report.Indexed = append(report.Indexed, models.IndexedFile{
			FileID: file.FileID,
			Chunks: chunks,
		})
	}
	return report, nil
}
