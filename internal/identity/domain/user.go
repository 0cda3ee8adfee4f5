package domain

import (
	"time"

	"github.com/Zer-0ne/secufi-backend/pkg/passwords"
)

type User struct {
	ID    string `json:"id" gorm:"primaryKey"`
	Email string `json:"email" gorm:"uniqueIndex;not null"`
	Name  string `json:"name"`

	// Identity attributes used for password candidate generation.
	// All optional; stored as entered by the user.
	Phone         string `json:"phone,omitempty"`
	DateOfBirth   string `json:"date_of_birth,omitempty"` // YYYY-MM-DD
	PANNumber     string `json:"pan_number,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
	CustomerID    string `json:"customer_id,omitempty"`

	Provider     string    `json:"provider"` // "email" or "google"
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PasswordIdentity projects the user's identity attributes into the shape
// the candidate generator consumes.
func (u *User) PasswordIdentity() passwords.Identity {
	return passwords.Identity{
		Name:          u.Name,
		Phone:         u.Phone,
		DateOfBirth:   u.DateOfBirth,
		AccountNumber: u.AccountNumber,
		CustomerID:    u.CustomerID,
		PANNumber:     u.PANNumber,
	}
}
