package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"docchat-platform/models"
)

type fakeExportRecords struct {
	chat     *models.Chat
	messages []models.Message
	files    []models.ChatFile
}

func (r *fakeExportRecords) GetChat(ctx context.Context, chatID string) (*models.Chat, error) {
	if r.chat == nil {
		return nil, ErrNotFound
	}
	return r.chat, nil
}

func (r *fakeExportRecords) ChatFiles(ctx context.Context, chatID string) ([]models.ChatFile, error) {
	return r.files, nil
}

func (r *fakeExportRecords) RecentMessages(ctx context.Context, chatID string, limit int) ([]models.Message, error) {
	return r.messages, nil
}

func TestExportJSON(t *testing.T) {
	records := &fakeExportRecords{
		chat: &models.Chat{ChatID: "c1", PersonaName: "Helper"},
		messages: []models.Message{
			{Role: models.RoleUser, Content: "hi", Timestamp: time.Now()},
			{Role: models.RoleAssistant, Content: "hello", Timestamp: time.Now()},
		},
		files: []models.ChatFile{{FileID: "f1", Filename: "doc.pdf", Status: models.StatusIndexed}},
	}

	data, err := NewExportService(records).Export(context.Background(), "c1")
	require.NoError(t, err)

	assert.Equal(t, "c1", data.ChatID)
	assert.Equal(t, "Helper", data.PersonaName)
	assert.Len(t, data.Messages, 2)
	assert.Len(t, data.Files, 1)
}

func TestExportUnknownChat(t *testing.T) {
	_, err := NewExportService(&fakeExportRecords{}).Export(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestExportExcelWorkbook(t *testing.T) {
	records := &fakeExportRecords{
		chat: &models.Chat{ChatID: "c1"},
		messages: []models.Message{
			{Role: models.RoleUser, Content: "what is this?", Timestamp: time.Now()},
		},
		files: []models.ChatFile{{FileID: "f1", Filename: "doc.pdf", Status: models.StatusIndexed}},
	}

	buf, err := NewExportService(records).ExportExcel(context.Background(), "c1")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Messages")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "what is this?", rows[1][2])

	fileRows, err := f.GetRows("Files")
	require.NoError(t, err)
	require.Len(t, fileRows, 2)
	assert.Equal(t, "doc.pdf", fileRows[1][1])
}
