package kafka

import (
	"context"
	"log/slog"

	"github.com/lovoo/goka"
	"github.com/lovoo/goka/codec"
	"github.com/niksmo/office-storefront/internal/core/domain"
	"github.com/niksmo/office-storefront/internal/core/port"
)

var _ port.QuoteStatusEmitter = QuoteStatusEmitter{}

// A QuoteStatusEmitter emits status update events consumed by
// [QuoteStatusProcessor].
type QuoteStatusEmitter struct {
	ge *goka.Emitter
}

func NewQuoteStatusEmitter(
	seedBrokers []string, topic string, opts ...goka.EmitterOption,
) (QuoteStatusEmitter, error) {
	const op = "NewQuoteStatusEmitter"

	ge, err := goka.NewEmitter(
		seedBrokers, goka.Stream(topic), new(codec.String), opts...,
	)
	if err != nil {
		return QuoteStatusEmitter{}, opErr(err, op)
	}
	return QuoteStatusEmitter{ge}, nil
}

func (e QuoteStatusEmitter) EmitQuoteStatus(
	ctx context.Context, quoteID string, st domain.QuoteStatus,
) error {
	const op = "QuoteStatusEmitter.EmitQuoteStatus"

	if err := ctx.Err(); err != nil {
		return opErr(err, op)
	}
	if _, err := domain.ParseQuoteStatus(string(st)); err != nil {
		return opErr(err, op)
	}

	if err := e.ge.EmitSync(quoteID, string(st)); err != nil {
		return opErr(err, op)
	}
	return nil
}

func (e QuoteStatusEmitter) Close() {
	const op = "QuoteStatusEmitter.Close"
	log := slog.With("op", op)

	log.Info("closing emitter...")
	if err := e.ge.Finish(); err != nil {
		log.Error("failed to finish gracefully", "err", err)
		return
	}
	log.Info("emitter is closed")
}
