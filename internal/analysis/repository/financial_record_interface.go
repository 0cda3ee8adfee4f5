package repository

import (
	"time"

	analysisdomain "github.com/Zer-0ne/secufi-backend/internal/analysis/domain"
)

// RecordFilter narrows a record listing. Zero values mean "no filter".
type RecordFilter struct {
	Category string
	Type     string
	From     time.Time
	To       time.Time
	Limit    int
	Offset   int
}

// CategoryStat is one row of the per-category aggregate.
type CategoryStat struct {
	Category    string  `json:"category"`
	Count       int64   `json:"count"`
	TotalAmount float64 `json:"total_amount"`
}

// FinancialRecordRepository defines persistence for extracted records.
type FinancialRecordRepository interface {
	// Save upserts by (user_id, attachment_id) so re-processing an
	// attachment replaces its record instead of duplicating it.
	Save(record *analysisdomain.FinancialRecord) error
	FindByUser(userID string, filter RecordFilter) ([]analysisdomain.FinancialRecord, error)
	Stats(userID string) ([]CategoryStat, error)
	DeleteByAttachment(userID, attachmentID string) error
}
