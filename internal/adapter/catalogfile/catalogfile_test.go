package catalogfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/niksmo/office-storefront/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoaderEmbedded(t *testing.T) {
	ps, err := NewLoader("").LoadProducts()
	require.NoError(t, err)
	require.NotEmpty(t, ps)
	require.NoError(t, domain.ValidateProducts(ps))

	seen := make(map[domain.Category]bool)
	featured := 0
	for _, p := range ps {
		seen[p.Category] = true
		assert.LessOrEqual(t, p.Price, 400.0, p.Name)
		if p.Featured {
			featured++
		}
	}
	for _, c := range domain.Categories {
		assert.True(t, seen[c], "no products in %q", c)
	}
	assert.Equal(t, 6, featured)
}

func TestLoaderFile(t *testing.T) {
	t.Run("Override", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "products.yaml")
		data := `
- id: p1
  name: Desk Lamp
  category: office-furniture
  price: 45
  original_price: 60
`
		require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

		ps, err := NewLoader(path).LoadProducts()
		require.NoError(t, err)
		require.Len(t, ps, 1)
		assert.Equal(t, domain.CategoryOfficeFurniture, ps[0].Category)
		assert.Equal(t, domain.ProductTypeNew, ps[0].Type)
		require.NotNil(t, ps[0].OriginalPrice)
		assert.Equal(t, 25, ps[0].DiscountPercent())
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := NewLoader(filepath.Join(t.TempDir(), "none.yaml")).LoadProducts()
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"Empty", "", "empty dataset"},
		{"UnknownField", "- id: a\n  colour: red\n", "colour"},
		{"UnknownCategory", "- id: a\n  category: Food\n", "unknown category"},
		{"UnknownType", "- id: a\n  category: Technology\n  type: lease\n", "unknown product type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.data))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
