package models

import (
	"time"

	"github.com/gocql/gocql"
)

// Catégories de parfums
const (
	CategoryMen     = "men"
	CategoryWomen   = "women"
	CategoryUnisex  = "unisex"
	CategoryGiftSet = "gift-set"
)

// Types de variantes (format / concentration)
const (
	VariantEauDeParfum   = "eau-de-parfum"
	VariantEauDeToilette = "eau-de-toilette"
	VariantParfum        = "parfum"
	VariantAttar         = "attar"
	VariantBodyMist      = "body-mist"
	VariantTester        = "tester"
	VariantDecant        = "decant"
)

var productCategories = map[string]bool{
	CategoryMen: true, CategoryWomen: true, CategoryUnisex: true, CategoryGiftSet: true,
}

var variantTypes = map[string]bool{
	VariantEauDeParfum: true, VariantEauDeToilette: true, VariantParfum: true,
	VariantAttar: true, VariantBodyMist: true, VariantTester: true, VariantDecant: true,
}

func IsValidCategory(c string) bool { return productCategories[c] }

func IsValidVariantType(t string) bool { return variantTypes[t] }

type Product struct {
	ID                gocql.UUID `json:"id" db:"product_id"`
	Name              string     `json:"name" db:"name"`
	Category          string     `json:"category" db:"category"`
	Notes             []string   `json:"notes" db:"notes"`
	Image             string     `json:"image" db:"image"`
	ImageURL          string     `json:"image_url,omitempty" db:"-"`
	Variants          []Variant  `json:"variants" db:"-"`
	IsActive          bool       `json:"is_active" db:"is_active"`
	LowStockThreshold int        `json:"low_stock_threshold" db:"low_stock_threshold"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}

// Variant - configuration vendable d'un produit (taille / format), avec son prix et son stock
type Variant struct {
	ID        gocql.UUID `json:"id" db:"variant_id"`
	ProductID gocql.UUID `json:"product_id" db:"product_id"`
	Name      string     `json:"name" db:"name"`
	Type      string     `json:"type" db:"type"`
	Price     float64    `json:"price" db:"price"`
	Stock     int        `json:"stock" db:"stock"`
	SKU       string     `json:"sku" db:"sku"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// FindVariant retourne la variante correspondant à l'ID, ou nil
func (p *Product) FindVariant(id gocql.UUID) *Variant {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i]
		}
	}
	return nil
}

// TotalStock additionne le stock de toutes les variantes
func (p *Product) TotalStock() int {
	total := 0
	for _, v := range p.Variants {
		total += v.Stock
	}
	return total
}
