package domain

import "time"

// ThrottleWindowDays is the cooldown between batch runs for one user.
const ThrottleWindowDays = 90

// AnalysisThrottle is the per-user cooldown row. ExpiresAt only moves
// forward; a batch run that completes advances it by the fixed window.
type AnalysisThrottle struct {
	UserID    string    `json:"user_id" gorm:"primaryKey"`
	ExpiresAt time.Time `json:"expires_at"`
	LastRunAt time.Time `json:"last_run_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (AnalysisThrottle) TableName() string {
	return "analysis_throttles"
}

// Active reports whether the cooldown is still in force at now.
func (t *AnalysisThrottle) Active(now time.Time) bool {
	return t != nil && now.Before(t.ExpiresAt)
}

// RemainingDays is the whole number of days until expiry, rounded up.
func (t *AnalysisThrottle) RemainingDays(now time.Time) int {
	if !t.Active(now) {
		return 0
	}
	remaining := t.ExpiresAt.Sub(now)
	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) > 0 {
		days++
	}
	return days
}
