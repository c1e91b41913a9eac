package service

import (
	"fmt"
	"testing"

	"github.com/niksmo/office-storefront/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryActive(t *testing.T) {
	assert.False(t, QueryActive(""))
	assert.False(t, QueryActive("a"))
	assert.False(t, QueryActive("  a  "))
	assert.False(t, QueryActive("é"))
	assert.True(t, QueryActive("ab"))
	assert.True(t, QueryActive(" ab "))
}

func TestMatches(t *testing.T) {
	products := testProducts()

	t.Run("CaseInsensitiveName", func(t *testing.T) {
		got := ids(Matches("CHAIR", products))
		assert.Contains(t, got, "1")
	})

	t.Run("NamePrefixFirst", func(t *testing.T) {
		assert.Equal(t, []string{"4", "1"}, ids(Matches("chair", products)))
		assert.Equal(t, []string{"7", "2", "3"}, ids(Matches("paper", products)))
	})

	t.Run("Fields", func(t *testing.T) {
		tests := []struct {
			name  string
			query string
			want  []string
		}{
			{"Brand", "logitech", []string{"5"}},
			{"SKU", "tec-ms", []string{"5"}},
			{"Description", "cross cut", []string{"7"}},
			{"Category", "ink & toner", []string{"6"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				assert.Equal(t, tt.want, ids(Matches(tt.query, products)))
			})
		}
	})

	t.Run("ShortQuery", func(t *testing.T) {
		assert.Empty(t, Matches("c", products))
		assert.Empty(t, Matches(" c ", products))
	})

	t.Run("NoMatch", func(t *testing.T) {
		assert.Empty(t, Matches("zzz", products))
	})

	t.Run("Uncapped", func(t *testing.T) {
		assert.Len(t, Matches("pen", manyPens(12)), 12)
	})
}

func TestSearch(t *testing.T) {
	pens := manyPens(12)

	got := Search("pen", pens)
	require.Len(t, got, MaxSearchResults)
	assert.Equal(t, pens[:MaxSearchResults], got)

	for _, p := range Search("chair", testProducts()) {
		assert.Contains(t, p.Name, "Chair")
	}
}

func TestSuggest(t *testing.T) {
	products := testProducts()

	t.Run("InactiveShowsPopular", func(t *testing.T) {
		res := Suggest("o", products)
		assert.False(t, res.Open)
		assert.False(t, res.NotFound)
		assert.Empty(t, res.Products)
		assert.Equal(t, PopularSearches(), res.Popular)
	})

	t.Run("Found", func(t *testing.T) {
		res := Suggest("mouse", products)
		assert.True(t, res.Open)
		assert.False(t, res.NotFound)
		assert.Equal(t, []string{"5"}, ids(res.Products))
		assert.Empty(t, res.Popular)
	})

	t.Run("NotFound", func(t *testing.T) {
		res := Suggest("laminator", products)
		assert.True(t, res.Open)
		assert.True(t, res.NotFound)
		assert.Empty(t, res.Products)
	})
}

func TestPopularSearches(t *testing.T) {
	ps := PopularSearches()
	assert.Equal(t, []string{
		"Office Chair", "Printer Paper", "Desk Organizer", "Wireless Mouse", "Stapler",
	}, ps)

	ps[0] = "changed"
	assert.Equal(t, "Office Chair", PopularSearches()[0])
}

func manyPens(n int) []domain.Product {
	ps := make([]domain.Product, n)
	for i := range ps {
		ps[i] = domain.Product{
			ID:       fmt.Sprint(i),
			Name:     fmt.Sprintf("Pen %d", i),
			Category: domain.CategoryOfficeSupplies,
			Price:    1,
		}
	}
	return ps
}
