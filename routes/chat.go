package routes

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"docchat-platform/internal/logger"
	"docchat-platform/models"
	"docchat-platform/services"
	"docchat-platform/utils"
)

// HandleCreateChat registers a chat. Creation is idempotent per chat_id: the
// first request locks the persona, repeats return the stored chat unchanged.
func HandleCreateChat(records *services.RecordStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CreateChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request body", err.Error())
			return
		}

		chat, err := records.CreateChatIfAbsent(c.Request.Context(), req.ChatID, req.PersonaName, req.PersonaInstructions)
		if err != nil {
			utils.RespondWithServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, chat)
	}
}

// HandleAsk answers one question within a chat.
func HandleAsk(pipeline *services.ConversationPipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		chatID := c.Param("chat_id")

		var req models.AskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request body", err.Error())
			return
		}

		answer, err := pipeline.Ask(c.Request.Context(), chatID, req.Question)
		if err != nil {
			logger.Error("ask failed", "chat_id", chatID, "error", err)
			utils.RespondWithServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.AskResponse{
			Answer:    answer,
			ChatID:    chatID,
			Timestamp: time.Now().UTC(),
		})
	}
}

// HandleGetMessages returns the most recent turns of the transcript, oldest
// first.
func HandleGetMessages(records *services.RecordStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		chatID := c.Param("chat_id")

		if _, err := records.GetChat(c.Request.Context(), chatID); err != nil {
			utils.RespondWithServiceError(c, err)
			return
		}

		limit := 50
		if raw := c.Query("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 || parsed > 500 {
				utils.RespondWithBadRequest(c, "limit must be an integer between 1 and 500", nil)
				return
			}
			limit = parsed
		}

		messages, err := records.RecentMessages(c.Request.Context(), chatID, limit)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to load messages", err.Error())
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"chat_id":  chatID,
			"messages": messages,
			"count":    len(messages),
		})
	}
}

// HandleDeleteChat removes a chat and everything derived from it: transcript,
// file records, and both vector collections' points.
func HandleDeleteChat(records *services.RecordStore, index *services.VectorIndex) gin.HandlerFunc {
	return func(c *gin.Context) {
		chatID := c.Param("chat_id")

		if _, err := records.GetChat(c.Request.Context(), chatID); err != nil {
			utils.RespondWithServiceError(c, err)
			return
		}

		if err := index.PurgeChat(c.Request.Context(), chatID); err != nil {
			utils.RespondWithServiceError(c, err)
			return
		}
		if err := records.DeleteChat(c.Request.Context(), chatID); err != nil {
			utils.RespondWithInternalError(c, "Failed to delete chat records", err.Error())
			return
		}

		logger.Info("chat deleted", "chat_id", chatID)
		c.JSON(http.StatusOK, gin.H{"chat_id": chatID, "deleted": true})
	}
}
