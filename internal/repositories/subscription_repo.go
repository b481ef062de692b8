package repositories

import (
	"storemaster/internal/models"
)

// SubscriptionRepository defines the interface for subscription data access.
type SubscriptionRepository interface {
	Create(sub *models.Subscription) error
	GetByID(id string) (*models.Subscription, error)
	GetByOrderID(orderID string) (*models.Subscription, error)
	GetLatestByUser(userID string) (*models.Subscription, error)
	// AttachOrder records the gateway order and moves Unpaid to PendingCapture.
	AttachOrder(id, orderID, approvalURL string) error
	// TransitionStatus moves the subscription to `to` only if its current
	// status is one of `from`. It reports whether the transition happened.
	TransitionStatus(id string, from []models.SubscriptionStatus, to models.SubscriptionStatus) (bool, error)
}
