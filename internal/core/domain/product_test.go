package domain_test

import (
	"testing"

	"github.com/niksmo/office-storefront/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want domain.Category
	}{
		{"Office Supplies", domain.CategoryOfficeSupplies},
		{"office-supplies", domain.CategoryOfficeSupplies},
		{"PAPER-PRODUCTS", domain.CategoryPaperProducts},
		{"ink-& toner", domain.CategoryInkToner},
		{"ink-&-toner", domain.CategoryInkToner},
		{" technology ", domain.CategoryTechnology},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := domain.ParseCategory(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("Unknown", func(t *testing.T) {
		_, err := domain.ParseCategory("groceries")
		assert.ErrorIs(t, err, domain.ErrUnknownCategory)
	})
}

func TestParseSortKey(t *testing.T) {
	tests := map[string]domain.SortKey{
		"":                 domain.SortFeatured,
		"featured":         domain.SortFeatured,
		"price-low":        domain.SortPriceAsc,
		"price-ascending":  domain.SortPriceAsc,
		"price-high":       domain.SortPriceDesc,
		"price-descending": domain.SortPriceDesc,
		"newest":           domain.SortNewestFirst,
		"Newest-First":     domain.SortNewestFirst,
	}
	for in, want := range tests {
		got, err := domain.ParseSortKey(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := domain.ParseSortKey("rating")
	assert.ErrorIs(t, err, domain.ErrUnknownSortKey)
}

func TestProductDiscountPercent(t *testing.T) {
	p := domain.Product{Price: 75, OriginalPrice: ptr(100)}
	assert.Equal(t, 25, p.DiscountPercent())

	p.OriginalPrice = nil
	assert.Equal(t, 0, p.DiscountPercent())

	p.OriginalPrice = ptr(75)
	assert.Equal(t, 0, p.DiscountPercent())
}

func TestValidateProducts(t *testing.T) {
	valid := domain.Product{
		ID: "1", Name: "Stapler", Category: domain.CategoryOfficeSupplies, Price: 10,
	}

	t.Run("Valid", func(t *testing.T) {
		assert.NoError(t, domain.ValidateProducts([]domain.Product{valid}))
	})

	t.Run("AllViolationsReported", func(t *testing.T) {
		dup := valid
		bad := domain.Product{
			ID: "2", Category: "Groceries", Price: -1,
		}
		err := domain.ValidateProducts([]domain.Product{valid, dup, bad})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrUnknownCategory)
		assert.Contains(t, err.Error(), `duplicate id "1"`)
		assert.Contains(t, err.Error(), "empty name")
		assert.Contains(t, err.Error(), "negative price")
	})

	t.Run("PriceInWholeCents", func(t *testing.T) {
		p := valid
		for _, price := range []float64{0, 15, 15.9, 15.99, 349.99} {
			p.Price = price
			assert.NoError(t, domain.ValidateProducts([]domain.Product{p}), price)
		}

		p.Price = 1.005
		err := domain.ValidateProducts([]domain.Product{p})
		assert.ErrorContains(t, err, "more than 2 decimals")
	})

	t.Run("OriginalPriceBelowPrice", func(t *testing.T) {
		p := valid
		p.OriginalPrice = ptr(5)
		err := domain.ValidateProducts([]domain.Product{p})
		assert.ErrorContains(t, err, "original price below price")
	})
}
