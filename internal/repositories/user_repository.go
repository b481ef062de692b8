package repositories

import (
	"time"

	"storemaster/internal/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(user *models.User) error
	GetByUsername(username string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByID(id string) (*models.User, error)
	Update(user *models.User) error
	Delete(id string) error
	SetPin(id string, pin models.TemporalPin) error
	// ResetPassword swaps the password hash and clears the pin only while
	// pinCode is still the user's unexpired pin. It reports whether it did.
	ResetPassword(id, pinCode, passwordHash string, now time.Time) (bool, error)
}
