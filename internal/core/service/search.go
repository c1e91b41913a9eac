package service

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/niksmo/office-storefront/internal/core/domain"
)

const (
	MinQueryLen      = 2
	MaxSearchResults = 8
)

var popularSearches = []string{
	"Office Chair",
	"Printer Paper",
	"Desk Organizer",
	"Wireless Mouse",
	"Stapler",
}

func PopularSearches() []string {
	return slices.Clone(popularSearches)
}

// QueryActive reports whether the trimmed query is long enough to search.
func QueryActive(query string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(query)) >= MinQueryLen
}

// Matches returns every product containing the query in its name,
// category, brand, description or SKU, ignoring case. Products whose name
// starts with the query come first; both groups keep catalog order.
func Matches(query string, products []domain.Product) []domain.Product {
	if !QueryActive(query) {
		return nil
	}

	q := strings.ToLower(query)

	var prefixed, rest []domain.Product
	for _, p := range products {
		if !productContains(p, q) {
			continue
		}
		if strings.HasPrefix(strings.ToLower(p.Name), q) {
			prefixed = append(prefixed, p)
			continue
		}
		rest = append(rest, p)
	}
	return append(prefixed, rest...)
}

// Search is [Matches] capped at [MaxSearchResults].
func Search(query string, products []domain.Product) []domain.Product {
	ms := Matches(query, products)
	if len(ms) > MaxSearchResults {
		ms = ms[:MaxSearchResults]
	}
	return ms
}

func productContains(p domain.Product, lowerQuery string) bool {
	fields := [...]string{
		p.Name, string(p.Category), p.Brand, p.Description, p.SKU,
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), lowerQuery) {
			return true
		}
	}
	return false
}

// A SearchResult is what the search dropdown renders for a query.
type SearchResult struct {
	Query    string
	Products []domain.Product
	Open     bool
	NotFound bool
	Popular  []string
}

func Suggest(query string, products []domain.Product) SearchResult {
	if !QueryActive(query) {
		return SearchResult{Query: query, Popular: PopularSearches()}
	}
	ps := Search(query, products)
	return SearchResult{
		Query:    query,
		Products: ps,
		Open:     true,
		NotFound: len(ps) == 0,
	}
}
