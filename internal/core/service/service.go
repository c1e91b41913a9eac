package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/niksmo/office-storefront/internal/core/domain"
	"github.com/niksmo/office-storefront/internal/core/port"
)

var _ port.QuotesSaver = (*QuoteArchive)(nil)

// QuoteArchive is the quote worker core: it stores submitted quote
// requests and runs the quote status processor.
type QuoteArchive struct {
	quotesStorage port.QuotesStorage
	statusProc    port.QuoteStatusProcessor
}

func NewQuoteArchive(
	quotesStorage port.QuotesStorage,
	statusProc port.QuoteStatusProcessor,
) QuoteArchive {
	return QuoteArchive{quotesStorage, statusProc}
}

// Run runs the status processor in a separate goroutine.
//
// Blocks current goroutine while the processor is preparing to ready state.
func (s QuoteArchive) Run(ctx context.Context, stopFn context.CancelFunc) {
	if s.statusProc == nil {
		return
	}
	var wg sync.WaitGroup
	wg.Add(1)
	go s.statusProc.Run(ctx, stopFn, &wg)
	wg.Wait()
}

func (s QuoteArchive) Close() {
	if s.statusProc != nil {
		s.statusProc.Close()
	}
}

func (s QuoteArchive) SaveQuotes(
	ctx context.Context, qs []domain.QuoteRequest,
) error {
	const op = "QuoteArchive.SaveQuotes"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if len(qs) == 0 {
		return nil
	}

	err := s.quotesStorage.StoreQuotes(ctx, qs)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
