package repository

import (
	"errors"
	"time"

	analysisdomain "github.com/Zer-0ne/secufi-backend/internal/analysis/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// documentRepository implements DocumentRepository interface
type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository creates a new instance of documentRepository
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{
		db: db,
	}
}

func (r *documentRepository) SaveRaw(doc *analysisdomain.RawDocument) error {
	now := time.Now()

	var existing analysisdomain.RawDocument
	err := r.db.Where("user_id = ? AND attachment_id = ?", doc.UserID, doc.AttachmentID).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		doc.ID = uuid.New().String()
		doc.CreatedAt = now
		doc.UpdatedAt = now
		return r.db.Create(doc).Error
	} else if err != nil {
		return err
	}

	doc.ID = existing.ID
	doc.CreatedAt = existing.CreatedAt
	doc.UpdatedAt = now
	return r.db.Save(doc).Error
}

func (r *documentRepository) SaveProcessed(doc *analysisdomain.ProcessedDocument) error {
	now := time.Now()

	var existing analysisdomain.ProcessedDocument
	err := r.db.Where("user_id = ? AND attachment_id = ?", doc.UserID, doc.AttachmentID).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		doc.ID = uuid.New().String()
		doc.CreatedAt = now
		doc.UpdatedAt = now
		return r.db.Create(doc).Error
	} else if err != nil {
		return err
	}

	doc.ID = existing.ID
	doc.CreatedAt = existing.CreatedAt
	doc.UpdatedAt = now
	return r.db.Save(doc).Error
}

func (r *documentRepository) DeleteByAttachment(userID, attachmentID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND attachment_id = ?", userID, attachmentID).
			Delete(&analysisdomain.RawDocument{}).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ? AND attachment_id = ?", userID, attachmentID).
			Delete(&analysisdomain.ProcessedDocument{}).Error
	})
}
