package services

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"docchat-platform/models"
)

const exportMessageLimit = 5000

// TranscriptExport is the JSON export payload.
type TranscriptExport struct {
	ChatID      string            `json:"chat_id"`
	PersonaName string            `json:"persona_name"`
	ExportedAt  time.Time         `json:"exported_at"`
	Messages    []models.Message  `json:"messages"`
	Files       []models.ChatFile `json:"files"`
}

type exportRecords interface {
	GetChat(ctx context.Context, chatID string) (*models.Chat, error)
	ChatFiles(ctx context.Context, chatID string) ([]models.ChatFile, error)
	RecentMessages(ctx context.Context, chatID string, limit int) ([]models.Message, error)
}

// ExportService renders a chat's transcript and file roster for download.
type ExportService struct {
	records exportRecords
}

func NewExportService(records exportRecords) *ExportService {
	return &ExportService{records: records}
}

// Export gathers the full transcript, oldest first.
func (es *ExportService) Export(ctx context.Context, chatID string) (*TranscriptExport, error) {
	chat, err := es.records.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	messages, err := es.records.RecentMessages(ctx, chatID, exportMessageLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: load transcript: %v", ErrPersistence, err)
	}
	files, err := es.records.ChatFiles(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("%w: load file roster: %v", ErrPersistence, err)
	}
	return &TranscriptExport{
		ChatID:      chatID,
		PersonaName: chat.PersonaName,
		ExportedAt:  time.Now().UTC(),
		Messages:    messages,
		Files:       files,
	}, nil
}

// ExportExcel renders the transcript as an xlsx workbook with one sheet for
// messages and one for files.
func (es *ExportService) ExportExcel(ctx context.Context, chatID string) (*bytes.Buffer, error) {
	data, err := es.Export(ctx, chatID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const messagesSheet = "Messages"
	f.SetSheetName("Sheet1", messagesSheet)
	headers := []string{"Timestamp", "Role", "Content"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(messagesSheet, cell, h)
	}
	for row, msg := range data.Messages {
		f.SetCellValue(messagesSheet, "A"+strconv.Itoa(row+2), msg.Timestamp.Format(time.RFC3339))
		f.SetCellValue(messagesSheet, "B"+strconv.Itoa(row+2), msg.Role)
		f.SetCellValue(messagesSheet, "C"+strconv.Itoa(row+2), msg.Content)
	}

	const filesSheet = "Files"
	if _, err := f.NewSheet(filesSheet); err != nil {
		return nil, fmt.Errorf("export workbook: %w", err)
	}
	fileHeaders := []string{"File ID", "Filename", "Status", "Added At"}
	for i, h := range fileHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(filesSheet, cell, h)
	}
	for row, file := range data.Files {
		f.SetCellValue(filesSheet, "A"+strconv.Itoa(row+2), file.FileID)
		f.SetCellValue(filesSheet, "B"+strconv.Itoa(row+2), file.Filename)
		f.SetCellValue(filesSheet, "C"+strconv.Itoa(row+2), string(file.Status))
		f.SetCellValue(filesSheet, "D"+strconv.Itoa(row+2), file.AddedAt.Format(time.RFC3339))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("export workbook: %w", err)
	}
	return &buf, nil
}
