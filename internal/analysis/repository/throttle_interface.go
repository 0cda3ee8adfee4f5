package repository

import (
	"time"

	analysisdomain "github.com/Zer-0ne/secufi-backend/internal/analysis/domain"
)

// ThrottleRepository manages the per-user reprocessing cooldown.
type ThrottleRepository interface {
	// Get returns the user's throttle row, or nil if none exists yet
	Get(userID string) (*analysisdomain.AnalysisThrottle, error)
	// Advance moves the expiry forward by window from now. The expiry
	// never moves backward: if the stored expiry is already later than
	// the new one, it is kept.
	Advance(userID string, window time.Duration) error
}
