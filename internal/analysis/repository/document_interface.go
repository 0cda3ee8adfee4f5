package repository

import (
	analysisdomain "github.com/Zer-0ne/secufi-backend/internal/analysis/domain"
)

// DocumentRepository persists the raw/processed document pair for an
// attachment. Together with FinancialRecordRepository.Save it forms the
// per-attachment document triple.
type DocumentRepository interface {
	// SaveRaw upserts by (user_id, attachment_id)
	SaveRaw(doc *analysisdomain.RawDocument) error
	// SaveProcessed upserts by (user_id, attachment_id)
	SaveProcessed(doc *analysisdomain.ProcessedDocument) error
	// DeleteByAttachment removes both document rows for an attachment
	DeleteByAttachment(userID, attachmentID string) error
}
