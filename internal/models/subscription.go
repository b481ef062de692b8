package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubscriptionStatus tracks a plan payment through the gateway.
type SubscriptionStatus string

const (
	SubscriptionUnpaid         SubscriptionStatus = "Unpaid"
	SubscriptionPendingCapture SubscriptionStatus = "PendingCapture"
	SubscriptionCompleted      SubscriptionStatus = "Completed"
	SubscriptionFailed         SubscriptionStatus = "Failed"
)

// Terminal reports whether no further transition is possible.
func (s SubscriptionStatus) Terminal() bool {
	return s == SubscriptionCompleted || s == SubscriptionFailed
}

// Subscription is a store owner's paid plan and its gateway order.
type Subscription struct {
	ID          string             `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID      string             `json:"userId" gorm:"index;type:varchar(36);not null"`
	Plan        Plan               `json:"plan" gorm:"type:varchar(16)"`
	Amount      decimal.Decimal    `json:"amount" gorm:"type:decimal(12,2)"`
	Currency    string             `json:"currency" gorm:"type:varchar(3)"`
	OrderID     *string            `json:"orderId,omitempty" gorm:"uniqueIndex;type:varchar(64)"`
	ApprovalURL string             `json:"approvalUrl,omitempty"`
	Status      SubscriptionStatus `json:"status" gorm:"type:varchar(16);not null"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}
