package services

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"storemaster/internal/apperror"
	"storemaster/internal/models"
	"storemaster/internal/repositories"
)

// SubmitApplicationRequest is the body of a job application.
type SubmitApplicationRequest struct {
	ApplicantName string `json:"applicantName" validate:"required,max=200"`
	JobPosition   string `json:"jobPosition" validate:"required,max=200"`
	StoreOwnerID  string `json:"storeOwnerId" validate:"required"`
	CoverLetter   string `json:"coverLetter" validate:"max=5000"`
}

// ApplicationService handles job applications sent to store owners.
type ApplicationService struct {
	appRepo  repositories.ApplicationRepository
	userRepo repositories.UserRepository
	validate *validator.Validate
}

// NewApplicationService creates a new ApplicationService.
func NewApplicationService(appRepo repositories.ApplicationRepository, userRepo repositories.UserRepository) *ApplicationService {
	return &ApplicationService{
		appRepo:  appRepo,
		userRepo: userRepo,
		validate: validator.New(),
	}
}

// Submit records an application addressed to an existing store owner.
func (s *ApplicationService) Submit(req SubmitApplicationRequest) (*models.Application, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperror.FromValidator(err)
	}

	owner, err := s.userRepo.GetByID(req.StoreOwnerID)
	if err != nil {
		return nil, err
	}
	if owner.Role != models.RoleStoreOwner {
		return nil, fmt.Errorf("store owner %s %w", req.StoreOwnerID, apperror.ErrNotFound)
	}

	app := &models.Application{
		ID:            uuid.New().String(),
		ApplicantName: strings.TrimSpace(req.ApplicantName),
		JobPosition:   strings.TrimSpace(req.JobPosition),
		StoreOwnerID:  owner.ID,
		CoverLetter:   req.CoverLetter,
	}
	if err := s.appRepo.Create(app); err != nil {
		return nil, err
	}
	return app, nil
}

// ListForOwner returns the applications addressed to the caller.
func (s *ApplicationService) ListForOwner(identity Identity) ([]models.Application, error) {
	if identity.Role != models.RoleStoreOwner {
		return nil, fmt.Errorf("applications are only visible to store owners: %w", apperror.ErrForbidden)
	}
	return s.appRepo.GetByStoreOwner(identity.ID)
}
