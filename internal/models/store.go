package models

import "time"

// StoreCategories is the closed set of categories a store may list under.
var StoreCategories = []string{
	"Fashion & Apparel",
	"Electronics",
	"Food & Beverage",
	"Health & Fitness",
	"Handmade & Crafts",
	"Home & Living",
	"Beauty & Personal Care",
	"Toys & Kids",
	"Automotive & Accessories",
	"Books & Stationery",
}

// Address is the postal address of a store.
type Address struct {
	City    string `json:"city"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

// Store is the profile of a single owner's shop.
type Store struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OwnerID     string    `json:"ownerId" gorm:"uniqueIndex;type:varchar(36);not null"`
	Name        string    `json:"name" gorm:"type:varchar(200)"`
	Email       string    `json:"email" gorm:"type:varchar(255)"`
	Phone       string    `json:"phone" gorm:"type:varchar(32)"`
	Logo        string    `json:"logo"`
	Description string    `json:"description" gorm:"type:text"`
	Address     Address   `json:"address" gorm:"embedded;embeddedPrefix:address_"`
	Categories  []string  `json:"categories" gorm:"type:jsonb;serializer:json"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// IsStoreCategory reports whether category belongs to StoreCategories.
func IsStoreCategory(category string) bool {
	for _, c := range StoreCategories {
		if c == category {
			return true
		}
	}
	return false
}
