package schema

import (
	"testing"
	"time"

	"github.com/hamba/avro/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteRequestV1(t *testing.T) {
	var quoteSchema avro.Schema
	require.NotPanics(t, func() {
		quoteSchema = QuoteRequestV1Avro()
	})

	t.Run("EmptyItems", func(t *testing.T) {
		v := QuoteRequestV1{
			ID:        "quote-1",
			Channel:   "whatsapp",
			Total:     "0",
			CreatedAt: time.UnixMilli(1714554000000).UTC(),
		}
		data, err := avro.Marshal(quoteSchema, v)
		require.NoError(t, err)

		var got QuoteRequestV1
		require.NoError(t, avro.Unmarshal(quoteSchema, data, &got))
		assert.Equal(t, v.ID, got.ID)
		assert.Empty(t, got.Items)
		assert.Equal(t, v.CreatedAt.UnixMilli(), got.CreatedAt.UnixMilli())
	})

	t.Run("WrongType", func(t *testing.T) {
		_, err := avro.Marshal(quoteSchema, struct{ ID int }{1})
		assert.Error(t, err)
	})
}
