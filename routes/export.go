package routes

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"docchat-platform/services"
	"docchat-platform/utils"
)

// HandleExport downloads the chat transcript. ?format=excel returns an xlsx
// workbook, anything else returns JSON.
func HandleExport(exporter *services.ExportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		chatID := c.Param("chat_id")

		if c.Query("format") == "excel" {
			buf, err := exporter.ExportExcel(c.Request.Context(), chatID)
			if err != nil {
				utils.RespondWithServiceError(c, err)
				return
			}
			filename := fmt.Sprintf("chat_%s_%s.xlsx", chatID, time.Now().Format("20060102"))
			c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
			c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
			return
		}

		data, err := exporter.Export(c.Request.Context(), chatID)
		if err != nil {
			utils.RespondWithServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, data)
	}
}
