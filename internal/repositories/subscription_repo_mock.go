package repositories

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"storemaster/internal/apperror"
	"storemaster/internal/models"
)

// MockSubscriptionRepository is an in-memory implementation of SubscriptionRepository.
type MockSubscriptionRepository struct {
	subs map[string]models.Subscription
	mu   sync.RWMutex
}

// NewMockSubscriptionRepository creates a new instance of MockSubscriptionRepository.
func NewMockSubscriptionRepository() *MockSubscriptionRepository {
	return &MockSubscriptionRepository{
		subs: make(map[string]models.Subscription),
	}
}

// Create adds a new subscription.
func (r *MockSubscriptionRepository) Create(sub *models.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	now := time.Now()
	sub.CreatedAt = now
	sub.UpdatedAt = now
	r.subs[sub.ID] = *sub
	return nil
}

// GetByID returns a subscription by its ID.
func (r *MockSubscriptionRepository) GetByID(id string) (*models.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sub, ok := r.subs[id]
	if !ok {
		return nil, fmt.Errorf("subscription with ID %s %w", id, apperror.ErrNotFound)
	}
	return &sub, nil
}

// GetByOrderID returns the subscription paid through orderID.
func (r *MockSubscriptionRepository) GetByOrderID(orderID string) (*models.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, sub := range r.subs {
		if sub.OrderID != nil && *sub.OrderID == orderID {
			return &sub, nil
		}
	}
	return nil, fmt.Errorf("subscription for order %s %w", orderID, apperror.ErrNotFound)
}

// GetLatestByUser returns the most recent subscription of a user.
func (r *MockSubscriptionRepository) GetLatestByUser(userID string) (*models.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *models.Subscription
	for _, sub := range r.subs {
		if sub.UserID != userID {
			continue
		}
		if latest == nil || sub.CreatedAt.After(latest.CreatedAt) {
			s := sub
			latest = &s
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("subscription for user %s %w", userID, apperror.ErrNotFound)
	}
	return latest, nil
}

// AttachOrder records the gateway order of an unpaid subscription.
func (r *MockSubscriptionRepository) AttachOrder(id, orderID, approvalURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.subs[id]
	if !ok || sub.Status != models.SubscriptionUnpaid {
		return fmt.Errorf("unpaid subscription with ID %s %w", id, apperror.ErrNotFound)
	}
	for _, other := range r.subs {
		if other.OrderID != nil && *other.OrderID == orderID {
			return fmt.Errorf("order %s %w", orderID, apperror.ErrConflict)
		}
	}
	sub.OrderID = &orderID
	sub.ApprovalURL = approvalURL
	sub.Status = models.SubscriptionPendingCapture
	sub.UpdatedAt = time.Now()
	r.subs[id] = sub
	return nil
}

// TransitionStatus moves a subscription between statuses as a compare-and-set.
func (r *MockSubscriptionRepository) TransitionStatus(id string, from []models.SubscriptionStatus, to models.SubscriptionStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.subs[id]
	if !ok {
		return false, nil
	}
	for _, status := range from {
		if sub.Status == status {
			sub.Status = to
			sub.UpdatedAt = time.Now()
			r.subs[id] = sub
			return true, nil
		}
	}
	return false, nil
}
