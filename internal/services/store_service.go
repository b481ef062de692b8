package services

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"

	"storemaster/internal/apperror"
	"storemaster/internal/models"
	"storemaster/internal/repositories"
)

var storePhonePattern = regexp.MustCompile(`^[0-9+\-\s]{8,19}$`)

// UpdateStoreRequest is a partial store profile update.
type UpdateStoreRequest struct {
	Name        *string         `json:"name" validate:"omitempty,min=1,max=200"`
	Email       *string         `json:"email" validate:"omitempty,email"`
	Phone       *string         `json:"phone" validate:"omitempty,storephone"`
	Logo        *string         `json:"logo" validate:"omitempty,url"`
	Description *string         `json:"description" validate:"omitempty,max=2000"`
	Address     *models.Address `json:"address"`
	Categories  *[]string       `json:"categories" validate:"omitempty,dive,storecategory"`
}

func (r UpdateStoreRequest) empty() bool {
	return r.Name == nil && r.Email == nil && r.Phone == nil && r.Logo == nil &&
		r.Description == nil && r.Address == nil && r.Categories == nil
}

// StoreService handles business logic related to store profiles.
type StoreService struct {
	storeRepo repositories.StoreRepository
	validate  *validator.Validate
}

// NewStoreService creates a new StoreService.
func NewStoreService(storeRepo repositories.StoreRepository) *StoreService {
	return &StoreService{
		storeRepo: storeRepo,
		validate:  newStoreValidator(),
	}
}

func newStoreValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("storephone", func(fl validator.FieldLevel) bool {
		return storePhonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("storecategory", func(fl validator.FieldLevel) bool {
		return models.IsStoreCategory(fl.Field().String())
	})
	return v
}

// GetStore returns a store owned by the caller.
func (s *StoreService) GetStore(identity Identity, id string) (*models.Store, error) {
	store, err := s.storeRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !OwnsStore(identity, store) {
		return nil, fmt.Errorf("store %s %w", id, apperror.ErrForbidden)
	}
	return store, nil
}

// UpdateStore applies a partial update to a store owned by the caller.
func (s *StoreService) UpdateStore(identity Identity, id string, req UpdateStoreRequest) (*models.Store, error) {
	if req.empty() {
		return nil, apperror.Validation("at least one field is required")
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, apperror.FromValidator(err)
	}

	store, err := s.GetStore(identity, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		store.Name = *req.Name
	}
	if req.Email != nil {
		store.Email = *req.Email
	}
	if req.Phone != nil {
		store.Phone = *req.Phone
	}
	if req.Logo != nil {
		store.Logo = *req.Logo
	}
	if req.Description != nil {
		store.Description = *req.Description
	}
	if req.Address != nil {
		store.Address = *req.Address
	}
	if req.Categories != nil {
		store.Categories = append([]string{}, (*req.Categories)...)
	}

	if err := s.storeRepo.Update(store); err != nil {
		return nil, err
	}
	return store, nil
}
