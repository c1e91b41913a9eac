package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrContactRequired = errors.New("please fill in name and phone number")
	ErrEmptyQuote      = errors.New("quote list is empty")
	ErrQuoteNotFound   = errors.New("quote not found")
	ErrUnknownStatus   = errors.New("unknown quote status")
)

type QuoteItem struct {
	ProductID string
	Name      string
	Category  Category
	Image     string
	Price     float64
	Quantity  int
}

func (i QuoteItem) Subtotal() decimal.Decimal {
	return decimal.NewFromFloat(i.Price).Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// A Quote is the mutable list of selected products of a single session.
//
// It holds at most one item per product ID and keeps insertion order.
// The zero value is an empty quote ready to use.
type Quote struct {
	items []QuoteItem
}

// Add inserts the product with quantity 1 or increments the quantity of
// the existing item.
func (q *Quote) Add(p Product) {
	if i := q.index(p.ID); i >= 0 {
		q.items[i].Quantity++
		return
	}
	q.items = append(q.items, QuoteItem{
		ProductID: p.ID,
		Name:      p.Name,
		Category:  p.Category,
		Image:     p.Image,
		Price:     p.Price,
		Quantity:  1,
	})
}

// Remove reports whether an item was deleted.
func (q *Quote) Remove(productID string) bool {
	i := q.index(productID)
	if i < 0 {
		return false
	}
	q.items = append(q.items[:i], q.items[i+1:]...)
	return true
}

// SetQuantity sets the quantity of an existing item. A quantity below 1
// removes the item. It reports whether the product was in the quote.
func (q *Quote) SetQuantity(productID string, quantity int) bool {
	i := q.index(productID)
	if i < 0 {
		return false
	}
	if quantity < 1 {
		q.items = append(q.items[:i], q.items[i+1:]...)
		return true
	}
	q.items[i].Quantity = quantity
	return true
}

func (q *Quote) Clear() {
	q.items = nil
}

// Items returns a copy of the items in insertion order.
func (q *Quote) Items() []QuoteItem {
	out := make([]QuoteItem, len(q.items))
	copy(out, q.items)
	return out
}

func (q *Quote) Item(productID string) (QuoteItem, bool) {
	i := q.index(productID)
	if i < 0 {
		return QuoteItem{}, false
	}
	return q.items[i], true
}

func (q *Quote) Total() decimal.Decimal {
	return ItemsTotal(q.items)
}

func (q *Quote) ItemCount() int {
	return len(q.items)
}

func (q *Quote) TotalQuantity() (n int) {
	for _, it := range q.items {
		n += it.Quantity
	}
	return n
}

func (q *Quote) Empty() bool {
	return len(q.items) == 0
}

func (q *Quote) index(productID string) int {
	for i := range q.items {
		if q.items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func ItemsTotal(items []QuoteItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// Contact is the requester form submitted along with a quote.
type Contact struct {
	Name    string
	Email   string
	Phone   string
	Company string
	Message string
}

func (c Contact) Validate() error {
	if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Phone) == "" {
		return ErrContactRequired
	}
	return nil
}

type QuoteChannel string

const (
	QuoteChannelWhatsApp QuoteChannel = "whatsapp"
	QuoteChannelEmail    QuoteChannel = "email"
)

type QuoteStatus string

const (
	QuoteStatusPending    QuoteStatus = "pending"
	QuoteStatusProcessing QuoteStatus = "processing"
	QuoteStatusSent       QuoteStatus = "sent"
	QuoteStatusCompleted  QuoteStatus = "completed"
	QuoteStatusCancelled  QuoteStatus = "cancelled"
)

func ParseQuoteStatus(s string) (QuoteStatus, error) {
	switch st := QuoteStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case QuoteStatusPending, QuoteStatusProcessing, QuoteStatusSent,
		QuoteStatusCompleted, QuoteStatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// A QuoteRequest is a submitted quote handed to an outbound channel.
type QuoteRequest struct {
	ID        string
	Channel   QuoteChannel
	Contact   Contact
	Items     []QuoteItem
	Currency  string
	Total     decimal.Decimal
	CreatedAt time.Time
}

// StoredQuote is a quote request as kept by the quote archive.
type StoredQuote struct {
	QuoteRequest
	Status QuoteStatus
}
