package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"docchat-platform/models"
)

// RecordStore owns the durable chat/file/message records in MongoDB.
// Constructed once at startup and shared; it holds only client handles.
type RecordStore struct {
	chats     *mongo.Collection
	chatFiles *mongo.Collection
	files     *mongo.Collection
	messages  *mongo.Collection
}

func NewRecordStore(db *mongo.Database) *RecordStore {
	return &RecordStore{
		chats:     db.Collection("chats"),
		chatFiles: db.Collection("chat_files"),
		files:     db.Collection("files"),
		messages:  db.Collection("messages"),
	}
}

// CreateChatIfAbsent creates the chat exactly once. The persona fields ride
// on $setOnInsert, so a second call with a different persona is a no-op:
// whatever the first successful creation stored stays.
func (rs *RecordStore) CreateChatIfAbsent(ctx context.Context, chatID, personaName, personaInstructions string) (*models.Chat, error) {
	filter, update := chatUpsert(chatID, personaName, personaInstructions, time.Now().UTC())
	opts := options.Update().SetUpsert(true)
	if _, err := rs.chats.UpdateOne(ctx, filter, update, opts); err != nil {
		return nil, fmt.Errorf("%w: create chat %s: %v", ErrPersistence, chatID, err)
	}
	return rs.GetChat(ctx, chatID)
}

// chatUpsert builds the filter and update for CreateChatIfAbsent. Every
// field rides on $setOnInsert, so an upsert against an existing chat writes
// nothing and the first persona stays locked in.
func chatUpsert(chatID, personaName, personaInstructions string, createdAt time.Time) (bson.M, bson.M) {
	filter := bson.M{"chat_id": chatID}
	update := bson.M{
		"$setOnInsert": bson.M{
			"chat_id":              chatID,
			"persona_name":         personaName,
			"persona_instructions": personaInstructions,
			"created_at":           createdAt,
		},
	}
	return filter, update
}

func (rs *RecordStore) GetChat(ctx context.Context, chatID string) (*models.Chat, error) {
	var chat models.Chat
	err := rs.chats.FindOne(ctx, bson.M{"chat_id": chatID}).Decode(&chat)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: chat %s", ErrNotFound, chatID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get chat %s: %v", ErrPersistence, chatID, err)
	}
	return &chat, nil
}

// InsertFile registers an uploaded file: the global registry entry and the
// chat-scoped row, both at status uploaded.
func (rs *RecordStore) InsertFile(ctx context.Context, file *models.File) error {
	if _, err := rs.files.InsertOne(ctx, file); err != nil {
		return fmt.Errorf("%w: insert file %s: %v", ErrPersistence, file.FileID, err)
	}
	chatFile := models.ChatFile{
		ChatID:   file.ChatID,
		FileID:   file.FileID,
		Filename: file.OriginalFilename,
		Status:   file.Status,
		AddedAt:  file.UploadedAt,
	}
	if _, err := rs.chatFiles.InsertOne(ctx, chatFile); err != nil {
		return fmt.Errorf("%w: insert chat file %s: %v", ErrPersistence, file.FileID, err)
	}
	return nil
}

func (rs *RecordStore) GetFile(ctx context.Context, fileID string) (*models.File, error) {
	var file models.File
	err := rs.files.FindOne(ctx, bson.M{"file_id": fileID}).Decode(&file)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: file %s", ErrNotFound, fileID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get file %s: %v", ErrPersistence, fileID, err)
	}
	return &file, nil
}

// SetFileStatus writes the status to the global File record and the
// chat-scoped ChatFile row. The two updates are independent writes with no
// transaction; each is idempotent, so a retry of either side converges.
func (rs *RecordStore) SetFileStatus(ctx context.Context, chatID, fileID string, status models.FileStatus, reason string) error {
	fileUpdate := bson.M{"status": status}
	if reason != "" {
		fileUpdate["error"] = reason
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := rs.files.UpdateOne(gctx, bson.M{"file_id": fileID}, bson.M{"$set": fileUpdate})
		return err
	})
	g.Go(func() error {
		_, err := rs.chatFiles.UpdateOne(gctx,
			bson.M{"chat_id": chatID, "file_id": fileID},
			bson.M{"$set": bson.M{"status": status}})
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("%w: set status %s for file %s: %v", ErrPersistence, status, fileID, err)
	}
	return nil
}

// PendingFiles returns the chat's files still at status uploaded, oldest
// first.
func (rs *RecordStore) PendingFiles(ctx context.Context, chatID string) ([]models.File, error) {
	opts := options.Find().SetSort(bson.M{"uploaded_at": 1})
	cursor, err := rs.files.Find(ctx, bson.M{"chat_id": chatID, "status": models.StatusUploaded}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: pending files for chat %s: %v", ErrPersistence, chatID, err)
	}
	defer cursor.Close(ctx)

	var files []models.File
	if err := cursor.All(ctx, &files); err != nil {
		return nil, fmt.Errorf("%w: decode pending files: %v", ErrPersistence, err)
	}
	return files, nil
}

// AllPendingFiles returns uploaded files across all chats, for the sweeper.
func (rs *RecordStore) AllPendingFiles(ctx context.Context, limit int64) ([]models.File, error) {
	opts := options.Find().SetSort(bson.M{"uploaded_at": 1}).SetLimit(limit)
	cursor, err := rs.files.Find(ctx, bson.M{"status": models.StatusUploaded}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: pending files: %v", ErrPersistence, err)
	}
	defer cursor.Close(ctx)

	var files []models.File
	if err := cursor.All(ctx, &files); err != nil {
		return nil, fmt.Errorf("%w: decode pending files: %v", ErrPersistence, err)
	}
	return files, nil
}

// ChatFiles returns the chat-scoped file rows, oldest first.
func (rs *RecordStore) ChatFiles(ctx context.Context, chatID string) ([]models.ChatFile, error) {
	opts := options.Find().SetSort(bson.M{"added_at": 1})
	cursor, err := rs.chatFiles.Find(ctx, bson.M{"chat_id": chatID}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: chat files for %s: %v", ErrPersistence, chatID, err)
	}
	defer cursor.Close(ctx)

	var files []models.ChatFile
	if err := cursor.All(ctx, &files); err != nil {
		return nil, fmt.Errorf("%w: decode chat files: %v", ErrPersistence, err)
	}
	return files, nil
}

func (rs *RecordStore) InsertMessage(ctx context.Context, msg *models.Message) error {
	if _, err := rs.messages.InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("%w: insert message for chat %s: %v", ErrPersistence, msg.ChatID, err)
	}
	return nil
}

// RecentMessages returns the last limit messages for a chat in ascending
// timestamp order (oldest first within the window).
func (rs *RecordStore) RecentMessages(ctx context.Context, chatID string, limit int) ([]models.Message, error) {
	opts := options.Find().SetSort(bson.M{"timestamp": -1}).SetLimit(int64(limit))
	cursor, err := rs.messages.Find(ctx, bson.M{"chat_id": chatID}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: recent messages for chat %s: %v", ErrPersistence, chatID, err)
	}
	defer cursor.Close(ctx)

	var messages []models.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("%w: decode messages: %v", ErrPersistence, err)
	}
	reverseMessages(messages)
	return messages, nil
}

// reverseMessages flips a newest-first window into chronological order in
// place.
func reverseMessages(messages []models.Message) {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
}

// DeleteChat removes the chat and everything scoped to it: chat-file rows,
// file registry entries, and messages.
func (rs *RecordStore) DeleteChat(ctx context.Context, chatID string) error {
	filter := bson.M{"chat_id": chatID}
	if _, err := rs.messages.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("%w: delete messages for chat %s: %v", ErrPersistence, chatID, err)
	}
	if _, err := rs.chatFiles.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("%w: delete chat files for chat %s: %v", ErrPersistence, chatID, err)
	}
	if _, err := rs.files.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("%w: delete files for chat %s: %v", ErrPersistence, chatID, err)
	}
	if _, err := rs.chats.DeleteOne(ctx, filter); err != nil {
		return fmt.Errorf("%w: delete chat %s: %v", ErrPersistence, chatID, err)
	}
	return nil
}
