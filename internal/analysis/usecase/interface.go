package usecase

import (
	"context"

	analysisdomain "github.com/Zer-0ne/secufi-backend/internal/analysis/domain"
	analysisdto "github.com/Zer-0ne/secufi-backend/internal/analysis/dto"
	"github.com/Zer-0ne/secufi-backend/internal/analysis/repository"
)

// AnalysisUsecase defines the interface for the analysis pipeline
type AnalysisUsecase interface {
	// ProcessRecentMessages runs the batch pipeline for one user
	ProcessRecentMessages(ctx context.Context, userID string) (*analysisdto.ProcessResponse, error)
	GetRecords(userID string, query analysisdto.RecordsQuery) ([]analysisdomain.FinancialRecord, error)
	GetStats(userID string) ([]repository.CategoryStat, error)
	DeleteByAttachment(userID, attachmentID string) error
}
