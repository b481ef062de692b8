// Package payment talks to the payment provider that charges plan subscriptions.
package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"storemaster/internal/apperror"
)

// CaptureStatus is the outcome of settling an approved order.
type CaptureStatus string

const (
	CaptureCompleted CaptureStatus = "Completed"
	CapturePending   CaptureStatus = "Pending"
	CaptureFailed    CaptureStatus = "Failed"
)

// OrderRequest describes the charge to create.
type OrderRequest struct {
	ReferenceID string
	PayerEmail  string
	Description string
	Amount      decimal.Decimal
	Currency    string
}

// Order is a created gateway order awaiting payer approval.
type Order struct {
	ID          string
	ApprovalURL string
}

// Gateway is the payment provider used by the subscription flow. Failures are
// returned as *apperror.UpstreamError.
type Gateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
	CaptureOrder(ctx context.Context, orderID string) (CaptureStatus, error)
}

// DisabledGateway rejects every call. It stands in when no PayPal
// credentials are configured, so Premium signups fail instead of hanging.
type DisabledGateway struct{}

func (DisabledGateway) CreateOrder(context.Context, OrderRequest) (*Order, error) {
	return nil, &apperror.UpstreamError{Op: "paypal create order", Err: errNotConfigured}
}

func (DisabledGateway) CaptureOrder(context.Context, string) (CaptureStatus, error) {
	return "", &apperror.UpstreamError{Op: "paypal capture order", Err: errNotConfigured}
}

var errNotConfigured = errors.New("payment gateway is not configured")
