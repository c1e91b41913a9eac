package port

import (
	"context"
	"errors"
	"sync"

	"github.com/niksmo/office-storefront/internal/core/domain"
)

var ErrKeyNotFound = errors.New("key not found")

type (
	runnerContextWg interface {
		Run(context.Context, context.CancelFunc, *sync.WaitGroup)
	}

	closer interface {
		Close()
	}
)

// KVStorage is a durable key-value store. Get returns [ErrKeyNotFound]
// for absent keys.
type KVStorage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

type ProductsLoader interface {
	LoadProducts() ([]domain.Product, error)
}

// QuoteNotifier hands a submitted quote to an outbound channel.
type QuoteNotifier interface {
	NotifyQuote(context.Context, domain.QuoteRequest) error
}

type QuotesSaver interface {
	SaveQuotes(context.Context, []domain.QuoteRequest) error
}

type QuotesStorage interface {
	StoreQuotes(context.Context, []domain.QuoteRequest) error
}

type QuotesReader interface {
	ReadQuote(ctx context.Context, id string) (domain.StoredQuote, error)
	ListQuotes(ctx context.Context, limit int) ([]domain.StoredQuote, error)
}

// QuoteStatusStorage keeps the status of archived quotes. A status may
// arrive before its quote is stored.
type QuoteStatusStorage interface {
	StoreQuoteStatus(ctx context.Context, quoteID string, st domain.QuoteStatus) error
}

type QuoteStatusReader interface {
	QuoteStatus(quoteID string) (domain.QuoteStatus, error)
}

type QuoteStatusEmitter interface {
	EmitQuoteStatus(ctx context.Context, quoteID string, st domain.QuoteStatus) error
}

type QuoteStatusProcessor interface {
	runnerContextWg
	closer
}
