package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ProductType splits the catalog into its two storefronts.
type ProductType string

const (
	ProductTypeClothing ProductType = "clothing"
	ProductTypeOrnament ProductType = "ornament"
)

// Valid reports whether t is a known product type.
func (t ProductType) Valid() bool {
	return t == ProductTypeClothing || t == ProductTypeOrnament
}

// Product is a catalog entry.
type Product struct {
	// ID is the unique identifier for the product.
	ID int64 `json:"id"`
	// Name is the display name.
	Name string `json:"name" validate:"required,max=200"`
	// Price is the current selling price.
	Price decimal.Decimal `json:"price" validate:"gte=0"`
	// OriginalPrice is the struck-through price shown for items on sale.
	OriginalPrice *decimal.Decimal `json:"originalPrice"`
	Image         string           `json:"image" validate:"required"`
	Description   string           `json:"description"`
	Category      string           `json:"category" validate:"required,max=100"`
	Type          ProductType      `json:"type" validate:"required,oneof=clothing ornament"`
	IsNew         bool             `json:"isNew"`
	IsSale        bool             `json:"isSale"`
	Stock         int              `json:"stock" validate:"gte=0"`
	Material      string           `json:"material"`
	Occasion      string           `json:"occasion"`
	Color         string           `json:"color"`
	Tags          []string         `json:"tags"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	// Type restricts results to one storefront.
	Type ProductType
	// Query matches name or category, case-insensitively.
	Query string
}

// Matches applies the filter in memory.
func (f Filter) Matches(p *Product) bool {
	if f.Type != "" && p.Type != f.Type {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Category), q)
}

// Patch is a partial update; nil fields are left unchanged.
type Patch struct {
	Name          *string          `json:"name"`
	Price         *decimal.Decimal `json:"price"`
	OriginalPrice *decimal.Decimal `json:"originalPrice"`
	Image         *string          `json:"image"`
	Description   *string          `json:"description"`
	Category      *string          `json:"category"`
	Type          *ProductType     `json:"type"`
	IsNew         *bool            `json:"isNew"`
	IsSale        *bool            `json:"isSale"`
	Stock         *int             `json:"stock"`
	Material      *string          `json:"material"`
	Occasion      *string          `json:"occasion"`
	Color         *string          `json:"color"`
	Tags          *[]string        `json:"tags"`
}

// Apply copies the set fields onto p.
func (pt Patch) Apply(p *Product, now time.Time) {
	setIf(&p.Name, pt.Name)
	setIf(&p.Price, pt.Price)
	if pt.OriginalPrice != nil {
		v := *pt.OriginalPrice
		p.OriginalPrice = &v
	}
	setIf(&p.Image, pt.Image)
	setIf(&p.Description, pt.Description)
	setIf(&p.Category, pt.Category)
	setIf(&p.Type, pt.Type)
	setIf(&p.IsNew, pt.IsNew)
	setIf(&p.IsSale, pt.IsSale)
	setIf(&p.Stock, pt.Stock)
	setIf(&p.Material, pt.Material)
	setIf(&p.Occasion, pt.Occasion)
	setIf(&p.Color, pt.Color)
	if pt.Tags != nil {
		p.Tags = append([]string(nil), (*pt.Tags)...)
	}
	p.UpdatedAt = now
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
