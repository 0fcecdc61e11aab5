package routes

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"docchat-platform/internal/config"
	"docchat-platform/internal/logger"
	"docchat-platform/internal/queue"
	"docchat-platform/models"
	"docchat-platform/services"
	"docchat-platform/utils"
)

// HandleFileUpload accepts one multipart file for a chat and records it as
// uploaded. With ?async=1 the ingestion task is enqueued and the request
// returns 202; otherwise the file waits for an explicit ingest call or the
// sweeper.
func HandleFileUpload(cfg *config.Config, records *services.RecordStore, queueClient *asynq.Client) gin.HandlerFunc {
	allowed := map[string]bool{}
	for _, ext := range cfg.AllowedExts {
		allowed[strings.TrimSpace(strings.ToLower(ext))] = true
	}

	return func(c *gin.Context) {
		chatID := c.Param("chat_id")

		if _, err := records.GetChat(c.Request.Context(), chatID); err != nil {
			utils.RespondWithServiceError(c, err)
			return
		}

		if err := c.Request.ParseMultipartForm(cfg.MaxFileSize); err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "file_too_large", "File size exceeds maximum limit", nil)
			return
		}

		file, header, err := c.Request.FormFile("file")
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "no_file", "No file provided under field 'file'", nil)
			return
		}
		defer file.Close()

		if header.Size > cfg.MaxFileSize {
			utils.RespondWithError(c, http.StatusBadRequest, "file_too_large", "File size exceeds maximum limit", nil)
			return
		}

		ext := utils.FileExt(header.Filename)
		if !allowed[ext] {
			utils.RespondWithError(c, http.StatusUnsupportedMediaType, "unsupported_file_type",
				"Unsupported file extension", gin.H{"extension": ext, "allowed": cfg.AllowedExts})
			return
		}

		uploadDir := filepath.Join(cfg.FileStorageDir, chatID)
		if err := os.MkdirAll(uploadDir, 0o755); err != nil {
			utils.RespondWithInternalError(c, "Failed to create upload directory", err.Error())
			return
		}

		filePath := filepath.Join(uploadDir, utils.StorageName(header.Filename))
		dst, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to open destination", err.Error())
			return
		}
		defer dst.Close()
		if _, err := io.Copy(dst, io.LimitReader(file, cfg.MaxFileSize)); err != nil {
			utils.RespondWithInternalError(c, "Failed to save file", err.Error())
			return
		}

		record := &models.File{
			FileID:           uuid.NewString(),
			ChatID:           chatID,
			OriginalFilename: header.Filename,
			FilePath:         filePath,
			Status:           models.StatusUploaded,
			UploadedAt:       time.Now().UTC(),
		}
		if err := records.InsertFile(c.Request.Context(), record); err != nil {
			os.Remove(filePath)
			utils.RespondWithInternalError(c, "Failed to create file record", err.Error())
			return
		}

		if c.Query("async") == "1" {
			task, err := queue.NewIngestFileTask(chatID, record.FileID)
			if err != nil {
				utils.RespondWithInternalError(c, "Failed to build ingestion task", err.Error())
				return
			}
			if _, err := queueClient.Enqueue(task); err != nil {
				// The record stays uploaded; the sweeper will pick it up.
				logger.Error("enqueue failed, leaving file for sweeper", "file_id", record.FileID, "error", err)
			}
			c.JSON(http.StatusAccepted, gin.H{
				"file_id":  record.FileID,
				"chat_id":  chatID,
				"filename": header.Filename,
				"status":   models.StatusUploaded,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"file_id":  record.FileID,
			"chat_id":  chatID,
			"filename": header.Filename,
			"status":   models.StatusUploaded,
		})
	}
}

// HandleIngest processes every uploaded file of the chat synchronously and
// returns the per-file report.
func HandleIngest(records *services.RecordStore, pipeline *services.FileIngestionPipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		chatID := c.Param("chat_id")

		if _, err := records.GetChat(c.Request.Context(), chatID); err != nil {
			utils.RespondWithServiceError(c, err)
			return
		}

		report, err := pipeline.IngestPending(c.Request.Context(), chatID)
		if err != nil {
			utils.RespondWithServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, report)
	}
}

// HandleListFiles returns the chat's file roster with per-file status.
func HandleListFiles(records *services.RecordStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		chatID := c.Param("chat_id")

		if _, err := records.GetChat(c.Request.Context(), chatID); err != nil {
			utils.RespondWithServiceError(c, err)
			return
		}

		files, err := records.ChatFiles(c.Request.Context(), chatID)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to list files", err.Error())
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"chat_id": chatID,
			"files":   files,
			"count":   len(files),
		})
	}
}
