package api

import (
	"net/http"

	analysisDelivery "github.com/Zer-0ne/secufi-backend/internal/analysis/delivery"
	analysisUsecase "github.com/Zer-0ne/secufi-backend/internal/analysis/usecase"
	"github.com/Zer-0ne/secufi-backend/internal/auth/delivery"
	"github.com/Zer-0ne/secufi-backend/pkg/config"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, analysisUc analysisUsecase.AnalysisUsecase, cfg *config.Config) {
	analysisHandler := analysisDelivery.NewAnalysisHandler(analysisUc)

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Analysis routes (protected)
		analysis := api.Group("/analysis")
		analysis.Use(delivery.AuthMiddleware(cfg.JWTSecret))
		{
			analysis.POST("/process", analysisHandler.Process)
			analysis.GET("/records", analysisHandler.GetRecords)
			analysis.GET("/records/stats", analysisHandler.GetStats)
			analysis.DELETE("/records/:attachmentId", analysisHandler.DeleteRecord)
		}
	}
}
