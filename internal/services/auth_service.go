package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"storemaster/internal/apperror"
	"storemaster/internal/mailer"
	"storemaster/internal/models"
	"storemaster/internal/repositories"
)

// SignUpRequest is the body of an account registration.
type SignUpRequest struct {
	FirstName       string           `json:"firstName" validate:"max=100"`
	LastName        string           `json:"lastName" validate:"max=100"`
	Username        string           `json:"username" validate:"required,min=3,max=50,alphanum"`
	Email           string           `json:"email" validate:"required,email"`
	Password        string           `json:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string           `json:"confirmPassword" validate:"required,eqfield=Password"`
	Role            models.Role      `json:"role" validate:"required,oneof=StoreOwner StoreEmployee AppStaff Customer"`
	Phone           string           `json:"phone" validate:"max=32"`
	Country         string           `json:"country" validate:"max=100"`
	Condition       models.Condition `json:"condition" validate:"omitempty,oneof=normal colorBlind visualDisabilities elderly notSee"`
	Plan            models.Plan      `json:"plan" validate:"omitempty,oneof=Basic Premium"`
	PaymentMethod   string           `json:"paymentMethod" validate:"omitempty,oneof=PayPal"`
	PaypalEmail     string           `json:"paypalEmail" validate:"omitempty,email"`
	StoreID         string           `json:"storeId"`
	JobTitle        string           `json:"jobTitle" validate:"max=100"`
}

// SignUpResult carries a token for active accounts or the payment approval
// URL for Premium store owners that still have to pay.
type SignUpResult struct {
	User        *models.User `json:"user"`
	Token       string       `json:"token,omitempty"`
	ApprovalURL string       `json:"approvalUrl,omitempty"`
}

// ResetPasswordRequest is the body of a pin-authorised password change.
type ResetPasswordRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Pin             string `json:"pin" validate:"required,len=4,numeric"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	userRepo      repositories.UserRepository
	storeRepo     repositories.StoreRepository
	subscriptions *SubscriptionService
	mailer        mailer.Mailer
	tokens        *TokenManager
	validate      *validator.Validate
	pinTTL        time.Duration
	now           func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, storeRepo repositories.StoreRepository, subscriptions *SubscriptionService, mail mailer.Mailer, tokens *TokenManager, pinTTL time.Duration) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		storeRepo:     storeRepo,
		subscriptions: subscriptions,
		mailer:        mail,
		tokens:        tokens,
		validate:      validator.New(),
		pinTTL:        pinTTL,
		now:           time.Now,
	}
}

// SignUp registers an account. Store owners get their store and setup guide;
// Premium owners are sent to the payment gateway before they can sign in.
func (s *AuthService) SignUp(ctx context.Context, req SignUpRequest) (*SignUpResult, error) {
	if err := s.checkSignUp(req); err != nil {
		return nil, err
	}
	if err := s.ensureAvailable(req.Email, req.Username); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	condition := req.Condition
	if condition == "" {
		condition = models.ConditionNormal
	}
	user := &models.User{
		ID:        uuid.New().String(),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
		Email:     strings.ToLower(req.Email),
		Password:  string(hashedPassword),
		Role:      req.Role,
		Phone:     req.Phone,
		Country:   req.Country,
		Condition: condition,
	}

	var store *models.Store
	switch req.Role {
	case models.RoleStoreOwner:
		store = &models.Store{
			ID:         uuid.New().String(),
			OwnerID:    user.ID,
			Name:       fmt.Sprintf("%s's Store", req.Username),
			Email:      user.Email,
			Categories: []string{},
		}
		plan := req.Plan
		if plan == "" {
			plan = models.PlanBasic
		}
		details := &models.StoreOwnerDetails{
			StoreID:    store.ID,
			Plan:       plan,
			SetupGuide: models.DefaultSetupGuide(),
		}
		if plan == models.PlanPremium {
			details.PaymentMethod = req.PaymentMethod
			details.PaypalEmail = req.PaypalEmail
			details.PaymentStatus = models.SubscriptionUnpaid
		}
		user.StoreOwnerDetails = details
	case models.RoleStoreEmployee:
		if _, err := s.storeRepo.GetByID(req.StoreID); err != nil {
			return nil, err
		}
		user.EmployeeDetails = &models.StoreEmployeeDetails{StoreID: req.StoreID, JobTitle: req.JobTitle, Permissions: []string{}}
	case models.RoleAppStaff:
		user.AppStaffDetails = &models.AppStaffDetails{}
	case models.RoleCustomer:
		user.CustomerDetails = &models.CustomerDetails{
			OrderHistory: []map[string]any{},
			Wishlist:     []map[string]any{},
		}
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	if store != nil {
		if err := s.storeRepo.Create(store); err != nil {
			s.rollbackSignUp(user, nil)
			return nil, err
		}
	}

	result := &SignUpResult{User: user}
	if !user.IsActivated() {
		sub, err := s.subscriptions.Start(ctx, user, req.PaypalEmail)
		if err != nil {
			s.rollbackSignUp(user, store)
			return nil, err
		}
		result.ApprovalURL = sub.ApprovalURL
		log.Printf("User %s registered, awaiting Premium payment", user.ID)
		return result, nil
	}

	if result.Token, err = s.tokens.Issue(user); err != nil {
		return nil, err
	}
	log.Printf("User %s registered as %s", user.ID, user.Role)
	return result, nil
}

// Login authenticates by email or username and returns a token.
func (s *AuthService) Login(identifier, password string) (string, *models.User, error) {
	var (
		user *models.User
		err  error
	)
	if strings.Contains(identifier, "@") {
		user, err = s.userRepo.GetByEmail(strings.ToLower(identifier))
	} else {
		user, err = s.userRepo.GetByUsername(identifier)
	}
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return "", nil, fmt.Errorf("invalid credentials: %w", apperror.ErrUnauthorized)
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, fmt.Errorf("invalid credentials: %w", apperror.ErrUnauthorized)
	}
	if !user.IsActivated() {
		return "", nil, fmt.Errorf("account is not active until the subscription payment completes: %w", apperror.ErrForbidden)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// ValidateToken parses and validates a JWT token, returning the caller identity.
func (s *AuthService) ValidateToken(tokenString string) (Identity, error) {
	return s.tokens.Validate(tokenString)
}

// RequestPin mails a fresh 4-digit pin to the account holder.
func (s *AuthService) RequestPin(ctx context.Context, email string) error {
	if err := s.validate.Var(email, "required,email"); err != nil {
		return apperror.FromValidator(err)
	}
	user, err := s.userRepo.GetByEmail(strings.ToLower(email))
	if err != nil {
		return err
	}

	code, err := newPinCode()
	if err != nil {
		return err
	}
	expires := s.now().Add(s.pinTTL)
	if err := s.userRepo.SetPin(user.ID, models.TemporalPin{Code: code, ExpiresAt: &expires}); err != nil {
		return err
	}

	body := fmt.Sprintf("Your StoreMaster verification pin is %s. It expires in %d minutes.", code, int(s.pinTTL.Minutes()))
	return s.mailer.Send(ctx, user.Email, "Your StoreMaster verification pin", body)
}

// VerifyPin checks a pin without consuming it.
func (s *AuthService) VerifyPin(email, code string) error {
	user, err := s.userRepo.GetByEmail(strings.ToLower(email))
	if err != nil {
		return err
	}
	if !user.Pin.Valid(code, s.now()) {
		return apperror.Validation("invalid or expired pin")
	}
	return nil
}

// ResetPassword replaces the password of an account holding a valid pin.
// The pin is consumed.
func (s *AuthService) ResetPassword(req ResetPasswordRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return apperror.FromValidator(err)
	}
	user, err := s.userRepo.GetByEmail(strings.ToLower(req.Email))
	if err != nil {
		return err
	}
	now := s.now()
	if !user.Pin.Valid(req.Pin, now) {
		return apperror.Validation("invalid or expired pin")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.NewPassword)) == nil {
		return apperror.Validation("new password must differ from the current one")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	reset, err := s.userRepo.ResetPassword(user.ID, req.Pin, string(hashedPassword), now)
	if err != nil {
		return err
	}
	if !reset {
		return apperror.Validation("invalid or expired pin")
	}
	log.Printf("Password reset for user %s", user.ID)
	return nil
}

func (s *AuthService) checkSignUp(req SignUpRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return apperror.FromValidator(err)
	}
	if req.Role != models.RoleStoreOwner && req.Plan != "" {
		return apperror.Validation("only store owners choose a plan")
	}
	if req.Role == models.RoleStoreEmployee && req.StoreID == "" {
		return apperror.FieldErrors{"StoreID": "Field 'StoreID' failed on the 'required' tag"}
	}
	if req.Plan == models.PlanPremium {
		fields := apperror.FieldErrors{}
		if req.PaymentMethod == "" {
			fields["PaymentMethod"] = "Field 'PaymentMethod' failed on the 'required' tag"
		}
		if req.PaypalEmail == "" {
			fields["PaypalEmail"] = "Field 'PaypalEmail' failed on the 'required' tag"
		}
		if len(fields) > 0 {
			return fields
		}
	}
	return nil
}

func (s *AuthService) ensureAvailable(email, username string) error {
	if _, err := s.userRepo.GetByEmail(strings.ToLower(email)); err == nil {
		return fmt.Errorf("email '%s' %w", email, apperror.ErrConflict)
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return err
	}
	if _, err := s.userRepo.GetByUsername(username); err == nil {
		return fmt.Errorf("username '%s' %w", username, apperror.ErrConflict)
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return err
	}
	return nil
}

// rollbackSignUp removes what a failed registration already wrote.
func (s *AuthService) rollbackSignUp(user *models.User, store *models.Store) {
	if store != nil {
		if err := s.storeRepo.Delete(store.ID); err != nil {
			log.Printf("Error rolling back store %s: %v", store.ID, err)
		}
	}
	if err := s.userRepo.Delete(user.ID); err != nil {
		log.Printf("Error rolling back user %s: %v", user.ID, err)
	}
}

func newPinCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", fmt.Errorf("failed to generate pin: %w", err)
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}
