package service

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/niksmo/office-storefront/internal/core/domain"
	"github.com/shopspring/decimal"
)

const whatsAppBaseURL = "https://wa.me/"

// FormatQuoteMessage renders the plain-text quotation request sent to the
// sales channel. Field order and labels are read by people on the other
// side, keep them stable.
func FormatQuoteMessage(
	c domain.Contact, items []domain.QuoteItem, currency string,
) string {
	var b strings.Builder

	b.WriteString("*Request for Quotation*\n\n")
	fmt.Fprintf(&b, "Name: %s\n", c.Name)
	fmt.Fprintf(&b, "Email: %s\n", c.Email)
	fmt.Fprintf(&b, "Phone: %s\n", c.Phone)
	if c.Company != "" {
		fmt.Fprintf(&b, "Company: %s\n", c.Company)
	}

	b.WriteString("\n*Products:*\n\n")
	for i, it := range items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, it.Name)
		fmt.Fprintf(&b, "   Quantity: %d\n", it.Quantity)
		fmt.Fprintf(&b, "   Price: %s %s\n",
			currency, decimal.NewFromFloat(it.Price).StringFixed(2))
		fmt.Fprintf(&b, "   Subtotal: %s %s\n\n",
			currency, it.Subtotal().StringFixed(2))
	}

	fmt.Fprintf(&b, "*Total: %s %s*\n\n",
		currency, domain.ItemsTotal(items).StringFixed(2))

	if c.Message != "" {
		fmt.Fprintf(&b, "Additional Message:\n%s", c.Message)
	}
	return b.String()
}

// WhatsAppURL returns the click-to-chat link carrying message to number.
func WhatsAppURL(number, message string) string {
	return whatsAppBaseURL + number + "?text=" + encodeURIComponent(message)
}

// uriComponentReplacer turns url.QueryEscape output into what browsers
// produce with encodeURIComponent.
var uriComponentReplacer = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

func encodeURIComponent(s string) string {
	return uriComponentReplacer.Replace(url.QueryEscape(s))
}
