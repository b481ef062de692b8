package repositories

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"storemaster/internal/apperror"
	"storemaster/internal/models"
)

// MockUserRepository is an in-memory implementation of UserRepository.
type MockUserRepository struct {
	users map[string]models.User
	mu    sync.RWMutex
}

// NewMockUserRepository creates a new instance of MockUserRepository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]models.User),
	}
}

// Create adds a new user, enforcing unique email and username.
func (r *MockUserRepository) Create(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return fmt.Errorf("email '%s' %w", user.Email, apperror.ErrConflict)
		}
		if u.Username == user.Username {
			return fmt.Errorf("username '%s' %w", user.Username, apperror.ErrConflict)
		}
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = cloneUser(*user)
	return nil
}

// GetByUsername returns a user by username.
func (r *MockUserRepository) GetByUsername(username string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Username == username }, "user with username %s %w", username)
}

// GetByEmail returns a user by email.
func (r *MockUserRepository) GetByEmail(email string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Email == email }, "user with email %s %w", email)
}

// GetByID returns a user by ID.
func (r *MockUserRepository) GetByID(id string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.ID == id }, "user with ID %s %w", id)
}

// Update saves profile and role details, keeping credentials untouched.
func (r *MockUserRepository) Update(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[user.ID]
	if !ok {
		return fmt.Errorf("user with ID %s %w for update", user.ID, apperror.ErrNotFound)
	}
	updated := cloneUser(*user)
	updated.Password = existing.Password
	updated.Pin = existing.Pin
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now()
	r.users[user.ID] = updated
	return nil
}

// Delete removes a user by ID.
func (r *MockUserRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return fmt.Errorf("user with ID %s %w for deletion", id, apperror.ErrNotFound)
	}
	delete(r.users, id)
	return nil
}

// SetPin stores a fresh verification pin for the user.
func (r *MockUserRepository) SetPin(id string, pin models.TemporalPin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return fmt.Errorf("user with ID %s %w", id, apperror.ErrNotFound)
	}
	user.Pin = pin
	user.UpdatedAt = time.Now()
	r.users[id] = user
	return nil
}

// ResetPassword replaces the password only while pinCode is still valid.
func (r *MockUserRepository) ResetPassword(id, pinCode, passwordHash string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok || !user.Pin.Valid(pinCode, now) {
		return false, nil
	}
	user.Password = passwordHash
	user.Pin = models.TemporalPin{}
	user.UpdatedAt = now
	r.users[id] = user
	return true, nil
}

func (r *MockUserRepository) find(match func(models.User) bool, notFound, arg string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if match(u) {
			clone := cloneUser(u)
			return &clone, nil
		}
	}
	return nil, fmt.Errorf(notFound, arg, apperror.ErrNotFound)
}

func cloneUser(u models.User) models.User {
	if u.StoreOwnerDetails != nil {
		d := *u.StoreOwnerDetails
		d.SetupGuide = append([]models.SetupStep(nil), d.SetupGuide...)
		u.StoreOwnerDetails = &d
	}
	if u.EmployeeDetails != nil {
		d := *u.EmployeeDetails
		d.Permissions = append([]string(nil), d.Permissions...)
		u.EmployeeDetails = &d
	}
	if u.AppStaffDetails != nil {
		d := *u.AppStaffDetails
		u.AppStaffDetails = &d
	}
	if u.CustomerDetails != nil {
		d := *u.CustomerDetails
		u.CustomerDetails = &d
	}
	return u
}
