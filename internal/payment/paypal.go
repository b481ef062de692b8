package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/plutov/paypal/v4"

	"storemaster/internal/apperror"
)

// PayPal order statuses, as reported by the Orders v2 API.
const (
	orderCreated         = "CREATED"
	orderSaved           = "SAVED"
	orderApproved        = "APPROVED"
	orderVoided          = "VOIDED"
	orderCompleted       = "COMPLETED"
	orderPayerActionReqd = "PAYER_ACTION_REQUIRED"
)

// ordersAPI is the part of *paypal.Client the adapter uses.
type ordersAPI interface {
	CreateOrder(ctx context.Context, intent string, purchaseUnits []paypal.PurchaseUnitRequest, paymentSource *paypal.PaymentSource, appContext *paypal.ApplicationContext) (*paypal.Order, error)
	GetOrder(ctx context.Context, orderID string) (*paypal.Order, error)
	CaptureOrder(ctx context.Context, orderID string, captureOrderRequest paypal.CaptureOrderRequest) (*paypal.CaptureOrderResponse, error)
}

var _ ordersAPI = (*paypal.Client)(nil)

// PayPalConfig holds the credentials and redirect URLs of the PayPal app.
type PayPalConfig struct {
	ClientID  string
	Secret    string
	Live      bool
	ReturnURL string
	CancelURL string
	Timeout   time.Duration
}

// PayPalGateway implements Gateway on top of the PayPal Orders API.
type PayPalGateway struct {
	api       ordersAPI
	returnURL string
	cancelURL string
	timeout   time.Duration
}

// NewPayPalGateway creates a PayPal client for the sandbox or live environment.
func NewPayPalGateway(cfg PayPalConfig) (*PayPalGateway, error) {
	base := paypal.APIBaseSandBox
	if cfg.Live {
		base = paypal.APIBaseLive
	}
	client, err := paypal.NewClient(cfg.ClientID, cfg.Secret, base)
	if err != nil {
		return nil, fmt.Errorf("failed to create PayPal client: %w", err)
	}
	client.Client = &http.Client{Timeout: cfg.Timeout}
	return newPayPalGateway(client, cfg), nil
}

func newPayPalGateway(api ordersAPI, cfg PayPalConfig) *PayPalGateway {
	return &PayPalGateway{
		api:       api,
		returnURL: cfg.ReturnURL,
		cancelURL: cfg.CancelURL,
		timeout:   cfg.Timeout,
	}
}

// CreateOrder creates a CAPTURE order and returns its payer approval link.
func (g *PayPalGateway) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	unit := paypal.PurchaseUnitRequest{
		ReferenceID: req.ReferenceID,
		Description: req.Description,
		Amount: &paypal.PurchaseUnitAmount{
			Currency: req.Currency,
			Value:    req.Amount.StringFixed(2),
		},
	}
	if req.PayerEmail != "" {
		unit.Payee = &paypal.PayeeForOrders{EmailAddress: req.PayerEmail}
	}
	appCtx := &paypal.ApplicationContext{
		ReturnURL:  g.returnURL,
		CancelURL:  g.cancelURL,
		UserAction: paypal.UserActionPayNow,
	}

	order, err := g.api.CreateOrder(ctx, paypal.OrderIntentCapture, []paypal.PurchaseUnitRequest{unit}, nil, appCtx)
	if err != nil {
		return nil, upstream("paypal create order", err)
	}
	approval := approvalLink(order.Links)
	if approval == "" {
		return nil, &apperror.UpstreamError{
			Op:  "paypal create order",
			Err: fmt.Errorf("order %s has no approval link", order.ID),
		}
	}
	return &Order{ID: order.ID, ApprovalURL: approval}, nil
}

// CaptureOrder settles an approved order. An order PayPal already completed
// is reported as completed without a second capture.
func (g *PayPalGateway) CaptureOrder(ctx context.Context, orderID string) (CaptureStatus, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	order, err := g.api.GetOrder(ctx, orderID)
	if err != nil {
		return "", upstream("paypal get order", err)
	}

	switch order.Status {
	case orderCompleted:
		return CaptureCompleted, nil
	case orderApproved:
		captured, err := g.api.CaptureOrder(ctx, orderID, paypal.CaptureOrderRequest{})
		if err != nil {
			return "", upstream("paypal capture order", err)
		}
		return captureStatus(captured.Status), nil
	default:
		return captureStatus(order.Status), nil
	}
}

func (g *PayPalGateway) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

func captureStatus(status string) CaptureStatus {
	switch status {
	case orderCompleted:
		return CaptureCompleted
	case orderCreated, orderSaved, orderApproved, orderPayerActionReqd:
		return CapturePending
	default:
		return CaptureFailed
	}
}

func approvalLink(links []paypal.Link) string {
	for _, l := range links {
		if l.Rel == "approve" || l.Rel == "payer-action" {
			return l.Href
		}
	}
	return ""
}

// upstream wraps a PayPal failure. Client errors (4xx) are not worth retrying.
func upstream(op string, err error) error {
	retryable := true
	var apiErr *paypal.ErrorResponse
	if errors.As(err, &apiErr) && apiErr.Response != nil &&
		apiErr.Response.StatusCode >= 400 && apiErr.Response.StatusCode < 500 {
		retryable = false
	}
	return &apperror.UpstreamError{Op: op, Retryable: retryable, Err: err}
}
