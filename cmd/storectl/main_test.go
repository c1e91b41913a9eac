package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/niksmo/office-storefront/config"
	"github.com/niksmo/office-storefront/internal/core/domain"
	"github.com/niksmo/office-storefront/internal/core/port"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testCatalog = `
- id: "1"
  name: "Ergonomic Office Chair"
  sku: FUR-CH-001
  brand: Steelcase
  category: "Office Furniture"
  price: 350
  featured: true
- id: "2"
  name: "Ballpoint Pen Blue"
  sku: OS-PEN-001
  brand: PaperMate
  category: "Office Supplies"
  price: 15.99
- id: "3"
  name: "Chair Mat"
  sku: FUR-MAT-002
  brand: Floortex
  category: "Office Furniture"
  price: 120
- id: "4"
  name: "Wireless Mouse"
  sku: TEC-MS-010
  brand: Logitech
  category: "Technology"
  price: 25
`

type MockArchive struct {
	mock.Mock
}

func (m *MockArchive) ReadQuote(ctx context.Context, id string) (domain.StoredQuote, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.StoredQuote), args.Error(1)
}

func (m *MockArchive) ListQuotes(ctx context.Context, limit int) ([]domain.StoredQuote, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.StoredQuote), args.Error(1)
}

type MockEmitter struct {
	mock.Mock
}

func (m *MockEmitter) EmitQuoteStatus(
	ctx context.Context, quoteID string, st domain.QuoteStatus,
) error {
	return m.Called(ctx, quoteID, st).Error(0)
}

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "products.yaml")
	require.NoError(t, os.WriteFile(catalogPath, []byte(testCatalog), 0o600))

	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := "catalog:\n  file: " + catalogPath + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))
	return cfgPath
}

func run(t *testing.T, d deps, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(d)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--config", writeTestConfig(t)}, args...))
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func rowIDs(t *testing.T, out string) []string {
	t.Helper()
	var rows []productRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows), out)
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids
}

func TestProductsCmd(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"All", nil, []string{"1", "2", "3", "4"}},
		{"Category", []string{"--category", "office-furniture"}, []string{"1", "3"}},
		{"PriceLow", []string{"--sort", "price-low"}, []string{"2", "4", "3", "1"}},
		{"MaxPrice", []string{"--max-price", "25"}, []string{"2", "4"}},
		{"Newest", []string{"--sort", "newest", "--category", "technology,office-supplies"}, []string{"4", "2"}},
		{"Search", []string{"--search", "chair"}, []string{"3", "1"}},
		{"Featured", []string{"--featured"}, []string{"1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, deps{}, append([]string{"products", "--json"}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rowIDs(t, out))
		})
	}

	t.Run("Table", func(t *testing.T) {
		out, err := run(t, deps{}, "products", "--category", "technology")
		require.NoError(t, err)
		assert.Contains(t, out, "ID")
		assert.Contains(t, out, "Wireless Mouse")
		assert.Contains(t, out, "25.00")
	})

	t.Run("NoResults", func(t *testing.T) {
		out, err := run(t, deps{}, "products", "--category", "ink-&-toner")
		require.NoError(t, err)
		assert.Contains(t, out, "No products found")
	})

	t.Run("InvalidFilter", func(t *testing.T) {
		_, err := run(t, deps{}, "products", "--sort", "cheapest", "--category", "food")
		assert.ErrorIs(t, err, domain.ErrUnknownSortKey)
		assert.ErrorIs(t, err, domain.ErrUnknownCategory)
	})
}

func TestSearchCmd(t *testing.T) {
	t.Run("Popular", func(t *testing.T) {
		out, err := run(t, deps{}, "search", "c")
		require.NoError(t, err)
		assert.Contains(t, out, "Popular searches:")
		assert.Contains(t, out, "Office Chair")
	})

	t.Run("Matches", func(t *testing.T) {
		out, err := run(t, deps{}, "search", "chair")
		require.NoError(t, err)
		assert.Less(t, strings.Index(out, "Chair Mat"), strings.Index(out, "Ergonomic"))
	})

	t.Run("NotFound", func(t *testing.T) {
		out, err := run(t, deps{}, "search", "laminator")
		require.NoError(t, err)
		assert.Contains(t, out, `No products found for "laminator"`)
	})
}

func TestParseItem(t *testing.T) {
	it, err := parseItem("12")
	require.NoError(t, err)
	assert.Equal(t, itemArg{"12", 1}, it)

	it, err = parseItem("12:3")
	require.NoError(t, err)
	assert.Equal(t, itemArg{"12", 3}, it)

	for _, bad := range []string{"", ":2", "12:0", "12:x"} {
		_, err := parseItem(bad)
		assert.Error(t, err, bad)
	}
}

func TestQuoteCmd(t *testing.T) {
	t.Run("Message", func(t *testing.T) {
		out, err := run(t, deps{}, "quote",
			"--item", "2:3", "--item", "4", "--item", "4",
			"--name", "Jane", "--phone", "12345", "--company", "Acme")
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(out, "*Request for Quotation*\n\nName: Jane\n"))
		assert.Contains(t, out, "Company: Acme\n")
		assert.Contains(t, out, "1. Ballpoint Pen Blue\n   Quantity: 3\n")
		assert.Contains(t, out, "2. Wireless Mouse\n   Quantity: 2\n")
		assert.Contains(t, out, "*Total: AED 97.97*")
	})

	t.Run("WhatsApp", func(t *testing.T) {
		out, err := run(t, deps{}, "quote", "--item", "1",
			"--name", "Jane", "--phone", "12345", "--whatsapp")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "https://wa.me/971445222261?text="))
	})

	t.Run("WhatsAppNeedsContact", func(t *testing.T) {
		_, err := run(t, deps{}, "quote", "--item", "1", "--whatsapp")
		assert.ErrorIs(t, err, domain.ErrContactRequired)
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := run(t, deps{}, "quote", "--name", "Jane")
		assert.ErrorIs(t, err, domain.ErrEmptyQuote)
	})

	t.Run("UnknownProduct", func(t *testing.T) {
		_, err := run(t, deps{}, "quote", "--item", "99")
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
	})
}

func archiveDeps(a *MockArchive) deps {
	return deps{
		openArchive: func(context.Context, config.Config) (port.QuotesReader, func(), error) {
			return a, func() {}, nil
		},
	}
}

func storedQuote() domain.StoredQuote {
	return domain.StoredQuote{
		QuoteRequest: domain.QuoteRequest{
			ID:      "quote-1",
			Channel: domain.QuoteChannelEmail,
			Contact: domain.Contact{Name: "Jane", Phone: "12345"},
			Items: []domain.QuoteItem{
				{ProductID: "4", Name: "Wireless Mouse", Price: 25, Quantity: 2},
			},
			Currency:  "AED",
			Total:     decimal.NewFromInt(50),
			CreatedAt: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
		},
		Status: domain.QuoteStatusSent,
	}
}

func TestQuotesCmd(t *testing.T) {
	t.Run("List", func(t *testing.T) {
		a := new(MockArchive)
		a.On("ListQuotes", mock.Anything, 5).
			Return([]domain.StoredQuote{storedQuote()}, nil)

		out, err := run(t, archiveDeps(a), "quotes", "list", "--limit", "5")
		require.NoError(t, err)
		assert.Contains(t, out, "quote-1")
		assert.Contains(t, out, "AED 50.00")
		assert.Contains(t, out, "sent")
		a.AssertExpectations(t)
	})

	t.Run("Show", func(t *testing.T) {
		a := new(MockArchive)
		a.On("ReadQuote", mock.Anything, "quote-1").Return(storedQuote(), nil)

		out, err := run(t, archiveDeps(a), "quotes", "show", "quote-1")
		require.NoError(t, err)
		assert.Contains(t, out, "Quote quote-1 (email, sent)")
		assert.Contains(t, out, "*Total: AED 50.00*")
	})

	t.Run("ShowJSON", func(t *testing.T) {
		a := new(MockArchive)
		a.On("ReadQuote", mock.Anything, "quote-1").Return(storedQuote(), nil)

		out, err := run(t, archiveDeps(a), "quotes", "show", "quote-1", "--json")
		require.NoError(t, err)
		var row quoteRow
		require.NoError(t, json.Unmarshal([]byte(out), &row))
		assert.Equal(t, "50.00", row.Total)
		assert.Equal(t, 1, row.Items)
	})

	t.Run("NotFound", func(t *testing.T) {
		a := new(MockArchive)
		a.On("ReadQuote", mock.Anything, "nope").
			Return(domain.StoredQuote{}, domain.ErrQuoteNotFound)

		_, err := run(t, archiveDeps(a), "quotes", "show", "nope")
		assert.ErrorIs(t, err, domain.ErrQuoteNotFound)
	})

	t.Run("NoDatabase", func(t *testing.T) {
		_, err := run(t, defaultDeps(), "quotes", "list")
		assert.ErrorContains(t, err, "sql_db: required")
	})
}

func TestStatusCmd(t *testing.T) {
	emitterDeps := func(e *MockEmitter) deps {
		return deps{
			openEmitter: func(config.Config) (port.QuoteStatusEmitter, func(), error) {
				return e, func() {}, nil
			},
		}
	}

	t.Run("Set", func(t *testing.T) {
		e := new(MockEmitter)
		e.On("EmitQuoteStatus", mock.Anything, "quote-1", domain.QuoteStatusProcessing).
			Return(nil)

		out, err := run(t, emitterDeps(e), "status", "set", "quote-1", "Processing")
		require.NoError(t, err)
		assert.Equal(t, "quote quote-1: processing\n", out)
		e.AssertExpectations(t)
	})

	t.Run("UnknownStatus", func(t *testing.T) {
		e := new(MockEmitter)
		_, err := run(t, emitterDeps(e), "status", "set", "quote-1", "lost")
		assert.ErrorIs(t, err, domain.ErrUnknownStatus)
		e.AssertNotCalled(t, "EmitQuoteStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("EmitFails", func(t *testing.T) {
		e := new(MockEmitter)
		e.On("EmitQuoteStatus", mock.Anything, mock.Anything, mock.Anything).
			Return(errors.New("broker unavailable"))

		_, err := run(t, emitterDeps(e), "status", "set", "quote-1", "sent")
		assert.Error(t, err)
	})

	t.Run("NoBroker", func(t *testing.T) {
		_, err := run(t, defaultDeps(), "status", "set", "quote-1", "sent")
		assert.ErrorContains(t, err, "broker.seed_brokers: required")
	})
}
