package notifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/niksmo/office-storefront/internal/core/domain"
	"github.com/niksmo/office-storefront/internal/core/port"
)

var _ port.QuoteNotifier = Log{}

// Log accepts quote requests by writing them to the structured log. It is
// used when no broker is configured.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) Log {
	if logger == nil {
		logger = slog.Default()
	}
	return Log{logger}
}

func (n Log) NotifyQuote(ctx context.Context, req domain.QuoteRequest) error {
	const op = "Log.NotifyQuote"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n.logger.InfoContext(ctx, "quote request",
		"op", op,
		"quoteID", req.ID,
		"channel", req.Channel,
		"name", req.Contact.Name,
		"email", req.Contact.Email,
		"phone", req.Contact.Phone,
		"company", req.Contact.Company,
		"nItems", len(req.Items),
		"total", req.Total.StringFixed(2),
	)
	return nil
}
