package schema

import (
	"time"

	"github.com/hamba/avro/v2"
)

const QuoteRequestSchemaTextV1 = `{
	"type": "record",
	"namespace": "storefront.quotes",
	"name": "quote_request",
	"fields": [
		{"name": "id", "type": "string"},
		{"name": "channel", "type": "string"},
		{"name": "name", "type": "string"},
		{"name": "email", "type": "string"},
		{"name": "phone", "type": "string"},
		{"name": "company", "type": "string"},
		{"name": "message", "type": "string"},
		{"name": "items", "type": {
			"type": "array",
			"items": {
				"type": "record",
				"name": "quote_item",
				"fields": [
					{"name": "product_id", "type": "string"},
					{"name": "name", "type": "string"},
					{"name": "category", "type": "string"},
					{"name": "price", "type": "double"},
					{"name": "quantity", "type": "long"}
				]
			}
		}},
		{"name": "currency", "type": "string"},
		{"name": "total", "type": "string"},
		{"name": "created_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`

type (
	QuoteRequestV1 struct {
		ID        string        `avro:"id"`
		Channel   string        `avro:"channel"`
		Name      string        `avro:"name"`
		Email     string        `avro:"email"`
		Phone     string        `avro:"phone"`
		Company   string        `avro:"company"`
		Message   string        `avro:"message"`
		Items     []QuoteItemV1 `avro:"items"`
		Currency  string        `avro:"currency"`
		Total     string        `avro:"total"`
		CreatedAt time.Time     `avro:"created_at"`
	}

	QuoteItemV1 struct {
		ProductID string  `avro:"product_id"`
		Name      string  `avro:"name"`
		Category  string  `avro:"category"`
		Price     float64 `avro:"price"`
		Quantity  int64   `avro:"quantity"`
	}
)

// QuoteRequestV1Avro panics on an invalid schema text.
func QuoteRequestV1Avro() avro.Schema {
	return avro.MustParse(QuoteRequestSchemaTextV1)
}
