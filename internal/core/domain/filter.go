package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownSortKey = errors.New("unknown sort key")

type SortKey string

const (
	SortFeatured    SortKey = "featured"
	SortPriceAsc    SortKey = "price-ascending"
	SortPriceDesc   SortKey = "price-descending"
	SortNewestFirst SortKey = "newest-first"
)

// ParseSortKey also accepts the short values sent by the storefront
// select box: price-low, price-high and newest. Empty means featured.
func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(SortFeatured):
		return SortFeatured, nil
	case string(SortPriceAsc), "price-low":
		return SortPriceAsc, nil
	case string(SortPriceDesc), "price-high":
		return SortPriceDesc, nil
	case string(SortNewestFirst), "newest":
		return SortNewestFirst, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSortKey, s)
}

// FilterSpec selects and orders catalog products. Categories has set
// semantics: duplicates and order are irrelevant, empty means no restriction.
type FilterSpec struct {
	Categories []Category
	MaxPrice   float64
	Sort       SortKey
}
