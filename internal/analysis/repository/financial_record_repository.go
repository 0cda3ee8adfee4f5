package repository

import (
	"errors"
	"time"

	analysisdomain "github.com/Zer-0ne/secufi-backend/internal/analysis/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// financialRecordRepository implements FinancialRecordRepository interface
type financialRecordRepository struct {
	db *gorm.DB
}

// NewFinancialRecordRepository creates a new instance of financialRecordRepository
func NewFinancialRecordRepository(db *gorm.DB) FinancialRecordRepository {
	return &financialRecordRepository{
		db: db,
	}
}

func (r *financialRecordRepository) Save(record *analysisdomain.FinancialRecord) error {
	now := time.Now()

	// Body-only records have no attachment id; always insert those fresh.
	if record.AttachmentID == "" {
		record.ID = uuid.New().String()
		record.CreatedAt = now
		record.UpdatedAt = now
		return r.db.Create(record).Error
	}

	var existing analysisdomain.FinancialRecord
	err := r.db.Where("user_id = ? AND attachment_id = ?", record.UserID, record.AttachmentID).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		record.ID = uuid.New().String()
		record.CreatedAt = now
		record.UpdatedAt = now
		return r.db.Create(record).Error
	} else if err != nil {
		return err
	}

	record.ID = existing.ID
	record.CreatedAt = existing.CreatedAt
	record.UpdatedAt = now
	return r.db.Save(record).Error
}

func (r *financialRecordRepository) FindByUser(userID string, filter RecordFilter) ([]analysisdomain.FinancialRecord, error) {
	query := r.db.Where("user_id = ?", userID)

	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if !filter.From.IsZero() {
		query = query.Where("transaction_date >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where("transaction_date <= ?", filter.To)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query = query.Order("created_at DESC").Limit(limit)
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var records []analysisdomain.FinancialRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *financialRecordRepository) Stats(userID string) ([]CategoryStat, error) {
	var stats []CategoryStat
	err := r.db.Model(&analysisdomain.FinancialRecord{}).
		Select("category, COUNT(*) as count, SUM(amount) as total_amount").
		Where("user_id = ?", userID).
		Group("category").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *financialRecordRepository) DeleteByAttachment(userID, attachmentID string) error {
	return r.db.Where("user_id = ? AND attachment_id = ?", userID, attachmentID).
		Delete(&analysisdomain.FinancialRecord{}).Error
}
