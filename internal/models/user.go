package models

import "time"

// Role determines which detail record of a User is populated.
type Role string

const (
	RoleStoreOwner    Role = "StoreOwner"
	RoleStoreEmployee Role = "StoreEmployee"
	RoleAppStaff      Role = "AppStaff"
	RoleCustomer      Role = "Customer"
)

// Condition is the accessibility profile a user chose at signup.
type Condition string

const (
	ConditionNormal             Condition = "normal"
	ConditionColorBlind         Condition = "colorBlind"
	ConditionVisualDisabilities Condition = "visualDisabilities"
	ConditionElderly            Condition = "elderly"
	ConditionNotSee             Condition = "notSee"
)

// Plan is the subscription tier of a store owner.
type Plan string

const (
	PlanBasic   Plan = "Basic"
	PlanPremium Plan = "Premium"
)

// SetupStep is one entry of the store owner onboarding checklist.
type SetupStep struct {
	StepID      int  `json:"stepId"`
	IsCompleted bool `json:"isCompleted"`
}

// SetupStepTitles names the onboarding steps by id.
var SetupStepTitles = map[int]string{
	1: "Name your store",
	2: "Add your products",
	3: "Customize your online store",
	4: "Shipment and delivery",
}

// DefaultSetupGuide returns a fresh checklist with every step pending.
func DefaultSetupGuide() []SetupStep {
	guide := make([]SetupStep, 0, len(SetupStepTitles))
	for id := 1; id <= len(SetupStepTitles); id++ {
		guide = append(guide, SetupStep{StepID: id})
	}
	return guide
}

type StoreOwnerDetails struct {
	StoreID       string             `json:"storeId"`
	Plan          Plan               `json:"plan"`
	PaymentMethod string             `json:"paymentMethod,omitempty"`
	PaypalEmail   string             `json:"paypalEmail,omitempty"`
	PaymentStatus SubscriptionStatus `json:"paymentStatus,omitempty"`
	SetupGuide    []SetupStep        `json:"setupGuide"`
}

type StoreEmployeeDetails struct {
	StoreID     string   `json:"storeId"`
	JobTitle    string   `json:"jobTitle"`
	Permissions []string `json:"permissions"`
}

type AppStaffDetails struct {
	WorkLocation string `json:"workLocation"`
	Department   string `json:"department"`
}

type CustomerLocation struct {
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
}

type CustomerDetails struct {
	OrderHistory           []map[string]any `json:"orderHistory"`
	Wishlist               []map[string]any `json:"wishlist"`
	PreferredPaymentMethod string           `json:"preferredPaymentMethod,omitempty"`
	Location               CustomerLocation `json:"location"`
}

// TemporalPin is a one-time verification code used for password resets.
type TemporalPin struct {
	Code      string     `json:"-" gorm:"column:pin_code;type:varchar(8)"`
	ExpiresAt *time.Time `json:"-" gorm:"column:pin_expires_at"`
}

// Valid reports whether code matches an unexpired pin.
func (p TemporalPin) Valid(code string, now time.Time) bool {
	return p.Code != "" && p.Code == code && p.ExpiresAt != nil && now.Before(*p.ExpiresAt)
}

// User represents any account: store staff, app staff or customer.
type User struct {
	ID                string                `json:"id" gorm:"primaryKey;type:varchar(36)"`
	FirstName         string                `json:"firstName" gorm:"type:varchar(100)"`
	LastName          string                `json:"lastName" gorm:"type:varchar(100)"`
	Username          string                `json:"username" gorm:"uniqueIndex;type:varchar(100)"`
	Email             string                `json:"email" gorm:"uniqueIndex;type:varchar(255)"`
	Password          string                `json:"-" gorm:"type:varchar(255)"`
	Role              Role                  `json:"role" gorm:"type:varchar(32);not null"`
	Phone             string                `json:"phone,omitempty" gorm:"type:varchar(32)"`
	Country           string                `json:"country,omitempty" gorm:"type:varchar(100)"`
	Condition         Condition             `json:"condition" gorm:"type:varchar(32)"`
	StoreOwnerDetails *StoreOwnerDetails    `json:"storeOwnerDetails,omitempty" gorm:"type:jsonb;serializer:json"`
	EmployeeDetails   *StoreEmployeeDetails `json:"storeEmployeeDetails,omitempty" gorm:"type:jsonb;serializer:json"`
	AppStaffDetails   *AppStaffDetails      `json:"appStaffDetails,omitempty" gorm:"type:jsonb;serializer:json"`
	CustomerDetails   *CustomerDetails      `json:"customerDetails,omitempty" gorm:"type:jsonb;serializer:json"`
	Pin               TemporalPin           `json:"-" gorm:"embedded"`
	CreatedAt         time.Time             `json:"createdAt"`
	UpdatedAt         time.Time             `json:"updatedAt"`
}

// IsActivated reports whether the account may sign in. Premium store owners
// are activated only once their subscription payment completed.
func (u *User) IsActivated() bool {
	if u.Role != RoleStoreOwner || u.StoreOwnerDetails == nil {
		return true
	}
	if u.StoreOwnerDetails.Plan != PlanPremium {
		return true
	}
	return u.StoreOwnerDetails.PaymentStatus == SubscriptionCompleted
}
