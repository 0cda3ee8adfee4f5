package delivery

import (
	"net/http"

	analysisdto "github.com/Zer-0ne/secufi-backend/internal/analysis/dto"
	"github.com/Zer-0ne/secufi-backend/internal/analysis/usecase"

	"github.com/gin-gonic/gin"
)

type AnalysisHandler struct {
	analysisUsecase usecase.AnalysisUsecase
}

func NewAnalysisHandler(analysisUsecase usecase.AnalysisUsecase) *AnalysisHandler {
	return &AnalysisHandler{
		analysisUsecase: analysisUsecase,
	}
}

// Process runs the batch pipeline over the user's recent messages.
func (h *AnalysisHandler) Process(c *gin.Context) {
	userID := c.GetString("userID")

	summary, err := h.analysisUsecase.ProcessRecentMessages(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *AnalysisHandler) GetRecords(c *gin.Context) {
	userID := c.GetString("userID")

	var query analysisdto.RecordsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	records, err := h.analysisUsecase.GetRecords(userID, query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"records": records,
		"count":   len(records),
	})
}

func (h *AnalysisHandler) GetStats(c *gin.Context) {
	userID := c.GetString("userID")

	stats, err := h.analysisUsecase.GetStats(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// DeleteRecord removes the whole document triple for an attachment.
func (h *AnalysisHandler) DeleteRecord(c *gin.Context) {
	userID := c.GetString("userID")
	attachmentID := c.Param("attachmentId")
	if attachmentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "attachment id is required"})
		return
	}

	if err := h.analysisUsecase.DeleteByAttachment(userID, attachmentID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": attachmentID})
}
