package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"storemaster/internal/variants"
)

// ProductStatus controls product visibility in the storefront.
type ProductStatus string

const (
	ProductActive ProductStatus = "Active"
	ProductDraft  ProductStatus = "Draft"
	ProductHidden ProductStatus = "Hidden"
)

// VariantCombination is one sellable tuple across all variant axes.
type VariantCombination struct {
	Attributes variants.Attributes `json:"attributes"`
	Price      decimal.Decimal     `json:"price"`
	Stock      int                 `json:"stock"`
	SKU        string              `json:"sku"`
	Image      *string             `json:"image"`
}

// Product represents a product listed by a store. Combinations are embedded
// in the product row, so a product and its combinations are always written together.
type Product struct {
	ID           string               `json:"id" gorm:"primaryKey;type:varchar(36)"`
	StoreID      string               `json:"storeId" gorm:"index;type:varchar(36);not null"`
	Title        string               `json:"title" gorm:"type:varchar(200);not null"`
	Description  string               `json:"description" gorm:"type:text"`
	Category     string               `json:"category" gorm:"type:varchar(100);not null"`
	Price        decimal.Decimal      `json:"price" gorm:"type:decimal(12,2);not null"`
	Images       []string             `json:"images" gorm:"type:jsonb;serializer:json"`
	Status       ProductStatus        `json:"status" gorm:"type:varchar(16);default:Active"`
	TotalStock   int                  `json:"totalStock" gorm:"not null;default:0"`
	Variants     []variants.Axis      `json:"variants" gorm:"type:jsonb;serializer:json"`
	Combinations []VariantCombination `json:"variantCombinations" gorm:"type:jsonb;serializer:json"`
	CreatedAt    time.Time            `json:"createdAt"`
	UpdatedAt    time.Time            `json:"updatedAt"`
}

// ProductSKU reserves a SKU for a product. Its primary key is the global
// uniqueness guarantee for combination SKUs.
type ProductSKU struct {
	SKU       string `gorm:"primaryKey;type:varchar(255)"`
	ProductID string `gorm:"index;type:varchar(36);not null"`
}

// RecomputeTotalStock sets TotalStock to the sum of combination stock.
func (p *Product) RecomputeTotalStock() {
	total := 0
	for _, c := range p.Combinations {
		total += c.Stock
	}
	p.TotalStock = total
}

// SKUs lists the SKUs of every combination in order.
func (p *Product) SKUs() []string {
	skus := make([]string, 0, len(p.Combinations))
	for _, c := range p.Combinations {
		skus = append(skus, c.SKU)
	}
	return skus
}

// BeforeSave keeps TotalStock consistent on every write.
func (p *Product) BeforeSave(tx *gorm.DB) error {
	p.RecomputeTotalStock()
	return nil
}

// Clone returns a deep copy so callers cannot mutate repository state.
func (p *Product) Clone() Product {
	out := *p
	out.Images = append([]string(nil), p.Images...)
	if p.Variants != nil {
		out.Variants = make([]variants.Axis, len(p.Variants))
		for i, axis := range p.Variants {
			values := make([]string, len(axis.Values))
			copy(values, axis.Values)
			out.Variants[i] = variants.Axis{Name: axis.Name, Values: values}
		}
	}
	if p.Combinations != nil {
		out.Combinations = make([]VariantCombination, len(p.Combinations))
		for i, c := range p.Combinations {
			attrs := make(variants.Attributes, len(c.Attributes))
			for k, v := range c.Attributes {
				attrs[k] = v
			}
			c.Attributes = attrs
			if c.Image != nil {
				img := *c.Image
				c.Image = &img
			}
			out.Combinations[i] = c
		}
	}
	return out
}
