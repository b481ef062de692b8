package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storemaster/internal/apperror"
	"storemaster/internal/models"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create creates a new user in the database.
func (r *GORMUserRepository) Create(user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if err := r.db.Create(user).Error; err != nil {
		return writeError("create user", err)
	}
	return nil
}

// GetByUsername retrieves a user by their username from the database.
func (r *GORMUserRepository) GetByUsername(username string) (*models.User, error) {
	return r.first("username = ?", username, "user with username %s %w")
}

// GetByEmail retrieves a user by their email from the database.
func (r *GORMUserRepository) GetByEmail(email string) (*models.User, error) {
	return r.first("email = ?", email, "user with email %s %w")
}

// GetByID retrieves a user by their ID from the database.
func (r *GORMUserRepository) GetByID(id string) (*models.User, error) {
	return r.first("id = ?", id, "user with ID %s %w")
}

// Update saves the profile and role details of an existing user.
func (r *GORMUserRepository) Update(user *models.User) error {
	res := r.db.Model(&models.User{}).Where("id = ?", user.ID).
		Select("*").Omit("id", "password", "pin_code", "pin_expires_at", "created_at").
		Updates(user)
	if res.Error != nil {
		return writeError("update user", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user with ID %s %w for update", user.ID, apperror.ErrNotFound)
	}
	return nil
}

// Delete removes a user by their ID.
func (r *GORMUserRepository) Delete(id string) error {
	res := r.db.Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user with ID %s %w for deletion", id, apperror.ErrNotFound)
	}
	return nil
}

// SetPin stores a fresh verification pin for the user.
func (r *GORMUserRepository) SetPin(id string, pin models.TemporalPin) error {
	res := r.db.Model(&models.User{}).Where("id = ?", id).Updates(map[string]any{
		"pin_code":       pin.Code,
		"pin_expires_at": pin.ExpiresAt,
		"updated_at":     time.Now(),
	})
	if res.Error != nil {
		return fmt.Errorf("failed to set pin: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user with ID %s %w", id, apperror.ErrNotFound)
	}
	return nil
}

// ResetPassword replaces the password only while pinCode is still valid.
func (r *GORMUserRepository) ResetPassword(id, pinCode, passwordHash string, now time.Time) (bool, error) {
	res := r.db.Model(&models.User{}).
		Where("id = ? AND pin_code = ? AND pin_expires_at > ?", id, pinCode, now).
		Updates(map[string]any{
			"password":       passwordHash,
			"pin_code":       "",
			"pin_expires_at": nil,
			"updated_at":     now,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to reset password: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *GORMUserRepository) first(query, arg, notFound string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf(notFound, arg, apperror.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}
