package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownCategory = errors.New("unknown category")

type Category string

const (
	CategoryOfficeSupplies  Category = "Office Supplies"
	CategoryPaperProducts   Category = "Paper Products"
	CategoryInkToner        Category = "Ink & Toner"
	CategoryTechnology      Category = "Technology"
	CategoryOfficeFurniture Category = "Office Furniture"
	CategoryOfficeMachines  Category = "Office Machines"
)

// Categories lists the enumerated set in navigation order.
var Categories = []Category{
	CategoryOfficeSupplies,
	CategoryPaperProducts,
	CategoryInkToner,
	CategoryTechnology,
	CategoryOfficeFurniture,
	CategoryOfficeMachines,
}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// ParseCategory accepts a display name ("Ink & Toner") or the form used in
// navigation links ("office-supplies", "ink-&-toner").
func ParseCategory(s string) (Category, error) {
	want := categoryKey(s)
	for _, c := range Categories {
		if categoryKey(string(c)) == want {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

func categoryKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", " ")
	return strings.Join(strings.Fields(s), " ")
}
