package service

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/niksmo/office-storefront/internal/core/domain"
)

// ApplyFilter returns the products matching spec in the order spec.Sort
// asks for. The input slice is never modified.
//
// Price sorting is stable so equal prices keep their catalog order.
// [domain.SortNewestFirst] reverses the filtered order, it does not look
// at any date.
func ApplyFilter(
	products []domain.Product, spec domain.FilterSpec,
) []domain.Product {
	selected := make(map[domain.Category]struct{}, len(spec.Categories))
	for _, c := range spec.Categories {
		selected[c] = struct{}{}
	}

	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if len(selected) != 0 {
			if _, ok := selected[p.Category]; !ok {
				continue
			}
		}
		if p.Price > spec.MaxPrice {
			continue
		}
		out = append(out, p)
	}

	switch spec.Sort {
	case domain.SortPriceAsc:
		slices.SortStableFunc(out, func(a, b domain.Product) int {
			return cmp.Compare(a.Price, b.Price)
		})
	case domain.SortPriceDesc:
		slices.SortStableFunc(out, func(a, b domain.Product) int {
			return cmp.Compare(b.Price, a.Price)
		})
	case domain.SortNewestFirst:
		slices.Reverse(out)
	}
	return out
}

type CategoryCount struct {
	Category domain.Category
	Count    int
}

// A Catalog is the read-only product dataset loaded at start-up.
type Catalog struct {
	products []domain.Product
	byID     map[string]int
	maxPrice float64
}

func NewCatalog(products []domain.Product, maxPrice float64) (Catalog, error) {
	const op = "NewCatalog"

	if err := domain.ValidateProducts(products); err != nil {
		return Catalog{}, fmt.Errorf("%s: %w", op, err)
	}
	if maxPrice <= 0 {
		return Catalog{}, fmt.Errorf("%s: max price must be positive", op)
	}

	c := Catalog{
		products: slices.Clone(products),
		byID:     make(map[string]int, len(products)),
		maxPrice: maxPrice,
	}
	for i, p := range c.products {
		c.byID[p.ID] = i
	}
	return c, nil
}

func (c Catalog) Products() []domain.Product {
	return slices.Clone(c.products)
}

func (c Catalog) Product(id string) (domain.Product, error) {
	const op = "Catalog.Product"
	i, ok := c.byID[id]
	if !ok {
		return domain.Product{}, fmt.Errorf(
			"%s: %w: %q", op, domain.ErrProductNotFound, id,
		)
	}
	return c.products[i], nil
}

func (c Catalog) Filter(spec domain.FilterSpec) []domain.Product {
	return ApplyFilter(c.products, spec)
}

// DefaultFilter is the state a reset-filters action returns to.
func (c Catalog) DefaultFilter() domain.FilterSpec {
	return domain.FilterSpec{MaxPrice: c.maxPrice, Sort: domain.SortFeatured}
}

func (c Catalog) MaxPrice() float64 {
	return c.maxPrice
}

// Featured returns up to limit products flagged as featured. When the
// dataset flags none, the first limit products are used.
func (c Catalog) Featured(limit int) []domain.Product {
	if limit <= 0 {
		return nil
	}

	var out []domain.Product
	for _, p := range c.products {
		if len(out) == limit {
			break
		}
		if p.Featured {
			out = append(out, p)
		}
	}
	if len(out) != 0 {
		return out
	}
	return slices.Clone(c.products[:min(limit, len(c.products))])
}

func (c Catalog) Categories() []CategoryCount {
	counts := make(map[domain.Category]int, len(domain.Categories))
	for _, p := range c.products {
		counts[p.Category]++
	}
	out := make([]CategoryCount, len(domain.Categories))
	for i, cat := range domain.Categories {
		out[i] = CategoryCount{Category: cat, Count: counts[cat]}
	}
	return out
}
