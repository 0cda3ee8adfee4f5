package repository

import (
	"errors"
	"time"

	analysisdomain "github.com/Zer-0ne/secufi-backend/internal/analysis/domain"

	"gorm.io/gorm"
)

// throttleRepository implements ThrottleRepository interface
type throttleRepository struct {
	db *gorm.DB
}

// NewThrottleRepository creates a new instance of throttleRepository
func NewThrottleRepository(db *gorm.DB) ThrottleRepository {
	return &throttleRepository{
		db: db,
	}
}

func (r *throttleRepository) Get(userID string) (*analysisdomain.AnalysisThrottle, error) {
	var throttle analysisdomain.AnalysisThrottle
	err := r.db.Where("user_id = ?", userID).First(&throttle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &throttle, nil
}

func (r *throttleRepository) Advance(userID string, window time.Duration) error {
	now := time.Now()
	newExpiry := now.Add(window)

	return r.db.Transaction(func(tx *gorm.DB) error {
		var throttle analysisdomain.AnalysisThrottle
		err := tx.Where("user_id = ?", userID).First(&throttle).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			throttle = analysisdomain.AnalysisThrottle{
				UserID:    userID,
				ExpiresAt: newExpiry,
				LastRunAt: now,
				UpdatedAt: now,
			}
			return tx.Create(&throttle).Error
		} else if err != nil {
			return err
		}

		throttle.LastRunAt = now
		throttle.UpdatedAt = now
		if newExpiry.After(throttle.ExpiresAt) {
			throttle.ExpiresAt = newExpiry
		}
		return tx.Save(&throttle).Error
	})
}
