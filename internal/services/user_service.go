package services

import (
	"fmt"

	"storemaster/internal/apperror"
	"storemaster/internal/models"
	"storemaster/internal/repositories"
)

// SetupGuideStep is an onboarding step with its display title.
type SetupGuideStep struct {
	StepID      int    `json:"stepId"`
	Title       string `json:"title"`
	IsCompleted bool   `json:"isCompleted"`
}

// UserService serves the signed-in user's own account data.
type UserService struct {
	userRepo repositories.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repositories.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// Me returns the caller's account.
func (s *UserService) Me(identity Identity) (*models.User, error) {
	return s.userRepo.GetByID(identity.ID)
}

// SetupGuide returns the caller's onboarding checklist.
func (s *UserService) SetupGuide(identity Identity) ([]SetupGuideStep, error) {
	user, err := s.storeOwner(identity)
	if err != nil {
		return nil, err
	}
	return guideSteps(user.StoreOwnerDetails.SetupGuide), nil
}

// UpdateSetupStep marks one onboarding step as completed or pending.
func (s *UserService) UpdateSetupStep(identity Identity, stepID int, completed bool) ([]SetupGuideStep, error) {
	user, err := s.storeOwner(identity)
	if err != nil {
		return nil, err
	}

	guide := user.StoreOwnerDetails.SetupGuide
	found := false
	for i := range guide {
		if guide[i].StepID == stepID {
			guide[i].IsCompleted = completed
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("setup step %d %w", stepID, apperror.ErrNotFound)
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return guideSteps(guide), nil
}

func (s *UserService) storeOwner(identity Identity) (*models.User, error) {
	user, err := s.userRepo.GetByID(identity.ID)
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleStoreOwner || user.StoreOwnerDetails == nil {
		return nil, fmt.Errorf("setup guide is only available to store owners: %w", apperror.ErrForbidden)
	}
	return user, nil
}

func guideSteps(guide []models.SetupStep) []SetupGuideStep {
	steps := make([]SetupGuideStep, 0, len(guide))
	for _, step := range guide {
		steps = append(steps, SetupGuideStep{
			StepID:      step.StepID,
			Title:       models.SetupStepTitles[step.StepID],
			IsCompleted: step.IsCompleted,
		})
	}
	return steps
}
