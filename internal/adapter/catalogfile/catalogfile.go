package catalogfile

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/niksmo/office-storefront/internal/core/domain"
	"github.com/niksmo/office-storefront/internal/core/port"
	"gopkg.in/yaml.v3"
)

//go:embed products.yaml
var embedded []byte

var _ port.ProductsLoader = Loader{}

// Loader reads the product dataset from a YAML file, or from the dataset
// compiled into the binary when path is empty.
type Loader struct {
	path string
}

func NewLoader(path string) Loader {
	return Loader{path}
}

func (l Loader) LoadProducts() ([]domain.Product, error) {
	const op = "Loader.LoadProducts"
	log := slog.With("op", op)

	data := embedded
	source := "embedded"
	if l.path != "" {
		b, err := os.ReadFile(l.path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		data = b
		source = l.path
	}

	ps, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", op, source, err)
	}

	log.Info("products loaded", "source", source, "nProducts", len(ps))
	return ps, nil
}

type product struct {
	ID            string   `yaml:"id"`
	Name          string   `yaml:"name"`
	Slug          string   `yaml:"slug"`
	SKU           string   `yaml:"sku"`
	Brand         string   `yaml:"brand"`
	Category      string   `yaml:"category"`
	Subcategory   string   `yaml:"subcategory"`
	Type          string   `yaml:"type"`
	Price         float64  `yaml:"price"`
	OriginalPrice *float64 `yaml:"original_price"`
	Description   string   `yaml:"description"`
	Image         string   `yaml:"image"`
	StockCount    int      `yaml:"stock_count"`
	InStock       bool     `yaml:"in_stock"`
	Rating        float64  `yaml:"rating"`
	Reviews       int      `yaml:"reviews"`
	Featured      bool     `yaml:"featured"`
}

// Decode parses a YAML sequence of products. Unknown fields are rejected.
func Decode(r io.Reader) ([]domain.Product, error) {
	const op = "catalogfile.Decode"

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var ps []product
	if err := dec.Decode(&ps); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: empty dataset", op)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]domain.Product, 0, len(ps))
	for _, p := range ps {
		dp, err := p.toDomain()
		if err != nil {
			return nil, fmt.Errorf("%s: product %q: %w", op, p.ID, err)
		}
		out = append(out, dp)
	}
	return out, nil
}

func (p product) toDomain() (domain.Product, error) {
	category, err := domain.ParseCategory(p.Category)
	if err != nil {
		return domain.Product{}, err
	}

	typ := domain.ProductType(p.Type)
	switch typ {
	case "":
		typ = domain.ProductTypeNew
	case domain.ProductTypeNew, domain.ProductTypeRefurbished, domain.ProductTypeRental:
	default:
		return domain.Product{}, fmt.Errorf("unknown product type %q", p.Type)
	}

	return domain.Product{
		ID:            p.ID,
		Name:          p.Name,
		Slug:          p.Slug,
		SKU:           p.SKU,
		Brand:         p.Brand,
		Category:      category,
		Subcategory:   p.Subcategory,
		Type:          typ,
		Price:         p.Price,
		OriginalPrice: p.OriginalPrice,
		Description:   p.Description,
		Image:         p.Image,
		StockCount:    p.StockCount,
		InStock:       p.InStock,
		Rating:        p.Rating,
		Reviews:       p.Reviews,
		Featured:      p.Featured,
	}, nil
}
