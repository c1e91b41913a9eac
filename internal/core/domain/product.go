package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrProductNotFound = errors.New("product not found")

type ProductType string

const (
	ProductTypeNew         ProductType = "new"
	ProductTypeRefurbished ProductType = "refurbished"
	ProductTypeRental      ProductType = "rental"
)

type Product struct {
	ID            string
	Name          string
	Slug          string
	SKU           string
	Brand         string
	Category      Category
	Subcategory   string
	Type          ProductType
	Price         float64
	OriginalPrice *float64
	Description   string
	Image         string
	StockCount    int
	InStock       bool
	Rating        float64
	Reviews       int
	Featured      bool
}

// DiscountPercent returns the whole-number discount against OriginalPrice,
// or 0 when the product is not discounted.
func (p Product) DiscountPercent() int {
	if p.OriginalPrice == nil || *p.OriginalPrice <= 0 || *p.OriginalPrice <= p.Price {
		return 0
	}
	return int(math.Round((1 - p.Price / *p.OriginalPrice) * 100))
}

// ValidateProducts checks the static dataset invariants. All violations are
// reported together.
func ValidateProducts(ps []Product) error {
	var errs []error
	seen := make(map[string]struct{}, len(ps))

	for i, p := range ps {
		if strings.TrimSpace(p.ID) == "" {
			errs = append(errs, fmt.Errorf("product[%d]: empty id", i))
		} else if _, ok := seen[p.ID]; ok {
			errs = append(errs, fmt.Errorf("product[%d]: duplicate id %q", i, p.ID))
		}
		seen[p.ID] = struct{}{}

		if strings.TrimSpace(p.Name) == "" {
			errs = append(errs, fmt.Errorf("product %q: empty name", p.ID))
		}
		if !p.Category.Valid() {
			errs = append(errs, fmt.Errorf(
				"product %q: %w: %q", p.ID, ErrUnknownCategory, p.Category,
			))
		}
		if p.Price < 0 {
			errs = append(errs, fmt.Errorf("product %q: negative price", p.ID))
		}
		if !wholeCents(p.Price) {
			errs = append(errs, fmt.Errorf("product %q: price has more than 2 decimals", p.ID))
		}
		if p.OriginalPrice != nil && *p.OriginalPrice < p.Price {
			errs = append(errs, fmt.Errorf(
				"product %q: original price below price", p.ID,
			))
		}
	}
	return errors.Join(errs...)
}

// wholeCents reports whether v has at most 2 decimal places in its
// shortest decimal form. Quote messages print amounts with 2 decimals.
func wholeCents(v float64) bool {
	return decimal.NewFromFloat(v).Exponent() >= -2
}
