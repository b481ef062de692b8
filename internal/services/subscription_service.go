package services

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storemaster/internal/models"
	"storemaster/internal/payment"
	"storemaster/internal/repositories"
	"storemaster/pkg/rabbitmq"
)

// PaymentResult is the outcome of a gateway callback.
type PaymentResult struct {
	Subscription *models.Subscription `json:"subscription"`
	Token        string               `json:"token,omitempty"`
}

// SubscriptionService runs the plan payment state machine:
// Unpaid -> PendingCapture -> Completed or Failed.
type SubscriptionService struct {
	subRepo  repositories.SubscriptionRepository
	userRepo repositories.UserRepository
	gateway  payment.Gateway
	tokens   *TokenManager
	events   EventPublisher
	price    decimal.Decimal
	currency string
}

// NewSubscriptionService creates a new SubscriptionService. events may be nil.
func NewSubscriptionService(subRepo repositories.SubscriptionRepository, userRepo repositories.UserRepository, gateway payment.Gateway, tokens *TokenManager, events EventPublisher, price decimal.Decimal, currency string) *SubscriptionService {
	return &SubscriptionService{
		subRepo:  subRepo,
		userRepo: userRepo,
		gateway:  gateway,
		tokens:   tokens,
		events:   events,
		price:    price,
		currency: currency,
	}
}

// Start opens a gateway order for the user's Premium plan and returns the
// subscription awaiting payer approval.
func (s *SubscriptionService) Start(ctx context.Context, user *models.User, payerEmail string) (*models.Subscription, error) {
	sub := &models.Subscription{
		ID:       uuid.New().String(),
		UserID:   user.ID,
		Plan:     models.PlanPremium,
		Amount:   s.price,
		Currency: s.currency,
		Status:   models.SubscriptionUnpaid,
	}

	order, err := s.gateway.CreateOrder(ctx, payment.OrderRequest{
		ReferenceID: sub.ID,
		PayerEmail:  payerEmail,
		Description: fmt.Sprintf("StoreMaster %s plan", sub.Plan),
		Amount:      sub.Amount,
		Currency:    sub.Currency,
	})
	if err != nil {
		return nil, err
	}

	if err := s.subRepo.Create(sub); err != nil {
		return nil, err
	}
	if err := s.subRepo.AttachOrder(sub.ID, order.ID, order.ApprovalURL); err != nil {
		return nil, err
	}

	sub.OrderID = &order.ID
	sub.ApprovalURL = order.ApprovalURL
	sub.Status = models.SubscriptionPendingCapture
	log.Printf("Subscription %s for user %s awaiting approval of order %s", sub.ID, user.ID, order.ID)
	return sub, nil
}

// HandleReturn settles the order the payer approved. Repeated callbacks for
// a completed order return the stored result without contacting the gateway.
func (s *SubscriptionService) HandleReturn(ctx context.Context, orderID string) (*PaymentResult, error) {
	sub, err := s.subRepo.GetByOrderID(orderID)
	if err != nil {
		return nil, err
	}

	if !sub.Status.Terminal() {
		status, err := s.gateway.CaptureOrder(ctx, orderID)
		if err != nil {
			return nil, err
		}

		var to models.SubscriptionStatus
		switch status {
		case payment.CaptureCompleted:
			to = models.SubscriptionCompleted
		case payment.CaptureFailed:
			to = models.SubscriptionFailed
		default:
			return &PaymentResult{Subscription: sub}, nil
		}

		moved, err := s.subRepo.TransitionStatus(sub.ID, []models.SubscriptionStatus{models.SubscriptionUnpaid, models.SubscriptionPendingCapture}, to)
		if err != nil {
			return nil, err
		}
		// A concurrent callback may have settled it first; report what is stored.
		if sub, err = s.subRepo.GetByID(sub.ID); err != nil {
			return nil, err
		}
		if moved && sub.Status == models.SubscriptionCompleted {
			publishEvent(s.events, rabbitmq.SubscriptionCompleted, map[string]any{
				"subscriptionId": sub.ID,
				"userId":         sub.UserID,
				"plan":           sub.Plan,
				"amount":         sub.Amount.String(),
				"currency":       sub.Currency,
			})
		}
	}

	user, err := s.syncUser(sub)
	if err != nil {
		return nil, err
	}

	result := &PaymentResult{Subscription: sub}
	if sub.Status == models.SubscriptionCompleted {
		if result.Token, err = s.tokens.Issue(user); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// HandleCancel marks the subscription of an abandoned order as failed.
func (s *SubscriptionService) HandleCancel(ctx context.Context, orderID string) (*models.Subscription, error) {
	sub, err := s.subRepo.GetByOrderID(orderID)
	if err != nil {
		return nil, err
	}
	if _, err := s.subRepo.TransitionStatus(sub.ID, []models.SubscriptionStatus{models.SubscriptionUnpaid, models.SubscriptionPendingCapture}, models.SubscriptionFailed); err != nil {
		return nil, err
	}
	if sub, err = s.subRepo.GetByID(sub.ID); err != nil {
		return nil, err
	}
	if _, err := s.syncUser(sub); err != nil {
		return nil, err
	}
	log.Printf("Subscription %s for order %s cancelled by payer, status %s", sub.ID, orderID, sub.Status)
	return sub, nil
}

// syncUser copies a settled subscription status onto its owner, which is
// what gates Premium sign-in. It only writes when the status differs.
func (s *SubscriptionService) syncUser(sub *models.Subscription) (*models.User, error) {
	user, err := s.userRepo.GetByID(sub.UserID)
	if err != nil {
		return nil, err
	}
	if user.StoreOwnerDetails == nil || !sub.Status.Terminal() || user.StoreOwnerDetails.PaymentStatus == sub.Status {
		return user, nil
	}
	user.StoreOwnerDetails.PaymentStatus = sub.Status
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}
