package repositories

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storemaster/internal/models"
)

// GORMApplicationRepository is a GORM implementation of ApplicationRepository.
type GORMApplicationRepository struct {
	db *gorm.DB
}

// NewGORMApplicationRepository creates a new instance of GORMApplicationRepository.
func NewGORMApplicationRepository(db *gorm.DB) *GORMApplicationRepository {
	return &GORMApplicationRepository{db: db}
}

// Create stores a job application.
func (r *GORMApplicationRepository) Create(app *models.Application) error {
	if app.ID == "" {
		app.ID = uuid.New().String()
	}
	if err := r.db.Create(app).Error; err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	return nil
}

// GetByStoreOwner lists applications addressed to ownerID, newest first.
func (r *GORMApplicationRepository) GetByStoreOwner(ownerID string) ([]models.Application, error) {
	var apps []models.Application
	if err := r.db.Where("store_owner_id = ?", ownerID).Order("created_at DESC").Find(&apps).Error; err != nil {
		return nil, fmt.Errorf("failed to get applications: %w", err)
	}
	return apps, nil
}
