package repositories

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storemaster/internal/apperror"
	"storemaster/internal/models"
)

// GORMSubscriptionRepository is a GORM implementation of SubscriptionRepository.
type GORMSubscriptionRepository struct {
	db *gorm.DB
}

// NewGORMSubscriptionRepository creates a new instance of GORMSubscriptionRepository.
func NewGORMSubscriptionRepository(db *gorm.DB) *GORMSubscriptionRepository {
	return &GORMSubscriptionRepository{db: db}
}

// Create inserts a new subscription.
func (r *GORMSubscriptionRepository) Create(sub *models.Subscription) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	if err := r.db.Create(sub).Error; err != nil {
		return writeError("create subscription", err)
	}
	return nil
}

// GetByID retrieves a subscription by its ID.
func (r *GORMSubscriptionRepository) GetByID(id string) (*models.Subscription, error) {
	return r.first(r.db.Where("id = ?", id), "subscription with ID %s %w", id)
}

// GetByOrderID retrieves the subscription paid through a gateway order.
func (r *GORMSubscriptionRepository) GetByOrderID(orderID string) (*models.Subscription, error) {
	return r.first(r.db.Where("order_id = ?", orderID), "subscription for order %s %w", orderID)
}

// GetLatestByUser retrieves the most recent subscription of a user.
func (r *GORMSubscriptionRepository) GetLatestByUser(userID string) (*models.Subscription, error) {
	return r.first(r.db.Where("user_id = ?", userID).Order("created_at DESC"), "subscription for user %s %w", userID)
}

// AttachOrder records the gateway order of an unpaid subscription.
func (r *GORMSubscriptionRepository) AttachOrder(id, orderID, approvalURL string) error {
	res := r.db.Model(&models.Subscription{}).
		Where("id = ? AND status = ?", id, models.SubscriptionUnpaid).
		Updates(map[string]any{
			"order_id":     orderID,
			"approval_url": approvalURL,
			"status":       models.SubscriptionPendingCapture,
		})
	if res.Error != nil {
		return writeError("attach order", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("unpaid subscription with ID %s %w", id, apperror.ErrNotFound)
	}
	return nil
}

// TransitionStatus moves a subscription between statuses as a compare-and-set.
func (r *GORMSubscriptionRepository) TransitionStatus(id string, from []models.SubscriptionStatus, to models.SubscriptionStatus) (bool, error) {
	res := r.db.Model(&models.Subscription{}).
		Where("id = ? AND status IN ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, fmt.Errorf("failed to update subscription status for %s: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *GORMSubscriptionRepository) first(q *gorm.DB, notFound, arg string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := q.First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf(notFound, arg, apperror.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return &sub, nil
}
