package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lovoo/goka"
	"github.com/niksmo/office-storefront/internal/core/domain"
	"github.com/niksmo/office-storefront/internal/core/port"
)

var _ port.QuoteStatusReader = QuoteStatusView{}

// A QuoteStatusView reads the group table of [QuoteStatusProcessor].
type QuoteStatusView struct {
	gv *goka.View
}

func NewQuoteStatusView(
	seedBrokers []string, group string, opts ...goka.ViewOption,
) (QuoteStatusView, error) {
	const op = "NewQuoteStatusView"

	gv, err := goka.NewView(
		seedBrokers,
		goka.GroupTable(goka.Group(group)),
		statusCodec{},
		opts...,
	)
	if err != nil {
		return QuoteStatusView{}, opErr(err, op)
	}
	return QuoteStatusView{gv}, nil
}

// Run blocks until ctx is done or the view fails; stopFn is called on exit.
func (v QuoteStatusView) Run(ctx context.Context, stopFn context.CancelFunc) {
	const op = "QuoteStatusView.Run"
	log := slog.With("op", op)

	defer stopFn()

	log.Info("running")
	err := v.gv.Run(ctx)
	if err != nil {
		log.Error("unexpected fail on run", "err", err)
		return
	}
	log.Info("stopped")
}

func (v QuoteStatusView) QuoteStatus(quoteID string) (domain.QuoteStatus, error) {
	const op = "QuoteStatusView.QuoteStatus"

	value, err := v.gv.Get(quoteID)
	if err != nil {
		return "", opErr(err, op)
	}
	if value == nil {
		return "", opErr(domain.ErrQuoteNotFound, op)
	}

	st, ok := value.(domain.QuoteStatus)
	if !ok {
		return "", opErr(
			fmt.Errorf("%w: %T", ErrInvalidValueType, value), op,
		)
	}
	return st, nil
}
