package httphandler

import (
	"github.com/niksmo/office-storefront/internal/core/domain"
	"github.com/niksmo/office-storefront/internal/core/service"
)

type (
	Product struct {
		ID              string   `json:"id"`
		Name            string   `json:"name"`
		Slug            string   `json:"slug,omitempty"`
		SKU             string   `json:"sku"`
		Brand           string   `json:"brand"`
		Category        string   `json:"category"`
		Subcategory     string   `json:"subcategory,omitempty"`
		Type            string   `json:"product_type"`
		Price           float64  `json:"price"`
		OriginalPrice   *float64 `json:"original_price,omitempty"`
		DiscountPercent int      `json:"discount_percentage,omitempty"`
		Description     string   `json:"description"`
		Image           string   `json:"image"`
		StockCount      int      `json:"stock_count"`
		InStock         bool     `json:"in_stock"`
		Rating          float64  `json:"rating"`
		Reviews         int      `json:"reviews"`
		Featured        bool     `json:"is_featured"`
	}

	ProductList struct {
		Count    int       `json:"count"`
		MaxPrice float64   `json:"max_price"`
		Sort     string    `json:"sort"`
		Products []Product `json:"products"`
	}

	CategoryCount struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	SearchResult struct {
		Query    string    `json:"query"`
		Open     bool      `json:"open"`
		NotFound bool      `json:"not_found"`
		Products []Product `json:"products"`
		Popular  []string  `json:"popular,omitempty"`
		Recent   []string  `json:"recent,omitempty"`
	}

	RecentSearches struct {
		Terms []string `json:"terms"`
	}

	SearchTerm struct {
		Term string `json:"term"`
	}
)

type (
	QuoteItem struct {
		ProductID string  `json:"product_id"`
		Name      string  `json:"name"`
		Category  string  `json:"category"`
		Image     string  `json:"image,omitempty"`
		Price     float64 `json:"price"`
		Quantity  int     `json:"quantity"`
		Subtotal  string  `json:"subtotal"`
	}

	Quote struct {
		Items         []QuoteItem `json:"items"`
		ItemCount     int         `json:"item_count"`
		TotalQuantity int         `json:"total_quantity"`
		Total         string      `json:"total"`
		Currency      string      `json:"currency"`
	}

	AddItem struct {
		ProductID string `json:"product_id"`
	}

	SetQuantity struct {
		Quantity *int `json:"quantity"`
	}

	Contact struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Phone   string `json:"phone"`
		Company string `json:"company"`
		Message string `json:"message"`
	}

	WhatsAppLink struct {
		URL string `json:"url"`
	}

	QuoteRequest struct {
		ID        string `json:"id"`
		Channel   string `json:"channel"`
		Total     string `json:"total"`
		Currency  string `json:"currency"`
		CreatedAt string `json:"created_at"`
	}

	QuoteStatus struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}

	Error struct {
		Error string `json:"error"`
	}
)

func fromProduct(p domain.Product) Product {
	return Product{
		ID:              p.ID,
		Name:            p.Name,
		Slug:            p.Slug,
		SKU:             p.SKU,
		Brand:           p.Brand,
		Category:        string(p.Category),
		Subcategory:     p.Subcategory,
		Type:            string(p.Type),
		Price:           p.Price,
		OriginalPrice:   p.OriginalPrice,
		DiscountPercent: p.DiscountPercent(),
		Description:     p.Description,
		Image:           p.Image,
		StockCount:      p.StockCount,
		InStock:         p.InStock,
		Rating:          p.Rating,
		Reviews:         p.Reviews,
		Featured:        p.Featured,
	}
}

func fromProducts(ps []domain.Product) []Product {
	out := make([]Product, len(ps))
	for i, p := range ps {
		out[i] = fromProduct(p)
	}
	return out
}

func fromSnapshot(s service.QuoteSnapshot, currency string) Quote {
	items := make([]QuoteItem, len(s.Items))
	for i, it := range s.Items {
		items[i] = QuoteItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Category:  string(it.Category),
			Image:     it.Image,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Subtotal:  it.Subtotal().StringFixed(2),
		}
	}
	return Quote{
		Items:         items,
		ItemCount:     s.ItemCount,
		TotalQuantity: s.TotalQuantity,
		Total:         s.Total.StringFixed(2),
		Currency:      currency,
	}
}

func (c Contact) toDomain() domain.Contact {
	return domain.Contact{
		Name:    c.Name,
		Email:   c.Email,
		Phone:   c.Phone,
		Company: c.Company,
		Message: c.Message,
	}
}

func fromContact(c domain.Contact) Contact {
	return Contact{
		Name:    c.Name,
		Email:   c.Email,
		Phone:   c.Phone,
		Company: c.Company,
		Message: c.Message,
	}
}
