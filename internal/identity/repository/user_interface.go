package repository

import (
	identitydomain "github.com/Zer-0ne/secufi-backend/internal/identity/domain"
)

// UserRepository defines read/write access to user identity records.
// The analysis pipeline only reads; writes belong to account management.
type UserRepository interface {
	Create(user *identitydomain.User) error
	FindByID(id string) (*identitydomain.User, error)
	FindByEmail(email string) (*identitydomain.User, error)
	Update(user *identitydomain.User) error
	// UpdateTokens persists refreshed OAuth tokens for a user
	UpdateTokens(userID, accessToken, refreshToken string) error
}
