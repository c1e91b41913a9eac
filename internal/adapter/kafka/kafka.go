package kafka

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/lovoo/goka"
	"github.com/niksmo/office-storefront/internal/core/domain"
	"github.com/niksmo/office-storefront/pkg/schema"
	"github.com/shopspring/decimal"
	"github.com/twmb/franz-go/pkg/kgo"
)

var (
	ErrTooFewOpts       = errors.New("too few options")
	ErrInvalidValueType = errors.New("invalid value type")
)

type ProducerClient interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

type ConsumerClient interface {
	PollFetches(context.Context) kgo.Fetches
	CommitUncommittedOffsets(context.Context) error
	Close()
}

type Encoder interface {
	Encode(v any) ([]byte, error)
}

type Decoder interface {
	Decode(b []byte, v any) error
}

type Serde interface {
	Encoder
	Decoder
}

// BrokerConfig is shared by every client of the package.
// TLSConfig is optional.
type BrokerConfig struct {
	SeedBrokers []string
	TLSConfig   *tls.Config
}

func (c BrokerConfig) kgoOpts(opts ...kgo.Opt) []kgo.Opt {
	out := []kgo.Opt{kgo.SeedBrokers(c.SeedBrokers...)}
	if c.TLSConfig != nil {
		out = append(out, kgo.DialTLSConfig(c.TLSConfig))
	}
	return append(out, opts...)
}

// ApplyGokaTLS enables TLS for processors, views and emitters created
// afterwards. It is a no-op for nil config.
func ApplyGokaTLS(tlsConfig *tls.Config) {
	if tlsConfig == nil {
		return
	}
	cfg := goka.DefaultConfig()
	cfg.Net.TLS.Enable = true
	cfg.Net.TLS.Config = tlsConfig
	goka.ReplaceGlobalConfig(cfg)
}

func withNonlogProcOpt() goka.ProcessorOption {
	return goka.WithLogger(log.New(io.Discard, "", 0))
}

func makeOp(s ...string) string {
	return strings.Join(s, ".")
}

func opErr(err error, op ...string) error {
	return fmt.Errorf("%s: %w", makeOp(op...), err)
}

func quoteToSchemaV1(v domain.QuoteRequest) (s schema.QuoteRequestV1) {
	s.ID = v.ID
	s.Channel = string(v.Channel)
	s.Name = v.Contact.Name
	s.Email = v.Contact.Email
	s.Phone = v.Contact.Phone
	s.Company = v.Contact.Company
	s.Message = v.Contact.Message
	s.Currency = v.Currency
	s.Total = v.Total.String()
	s.CreatedAt = v.CreatedAt

	s.Items = make([]schema.QuoteItemV1, len(v.Items))
	for i, it := range v.Items {
		s.Items[i] = schema.QuoteItemV1{
			ProductID: it.ProductID,
			Name:      it.Name,
			Category:  string(it.Category),
			Price:     it.Price,
			Quantity:  int64(it.Quantity),
		}
	}
	return
}

func schemaV1ToQuote(s schema.QuoteRequestV1) (domain.QuoteRequest, error) {
	total, err := decimal.NewFromString(s.Total)
	if err != nil {
		return domain.QuoteRequest{}, fmt.Errorf("invalid total: %w", err)
	}

	v := domain.QuoteRequest{
		ID:      s.ID,
		Channel: domain.QuoteChannel(s.Channel),
		Contact: domain.Contact{
			Name:    s.Name,
			Email:   s.Email,
			Phone:   s.Phone,
			Company: s.Company,
			Message: s.Message,
		},
		Currency:  s.Currency,
		Total:     total,
		CreatedAt: s.CreatedAt.UTC(),
	}

	v.Items = make([]domain.QuoteItem, len(s.Items))
	for i, it := range s.Items {
		v.Items[i] = domain.QuoteItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Category:  domain.Category(it.Category),
			Price:     it.Price,
			Quantity:  int(it.Quantity),
		}
	}
	return v, nil
}
