package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/niksmo/office-storefront/internal/core/domain"
	"github.com/niksmo/office-storefront/internal/core/port"
)

type QuoteServiceConfig struct {
	WhatsAppNumber string
	Currency       string
}

// QuoteService submits session quote lists to the outbound channels.
type QuoteService struct {
	notifier       port.QuoteNotifier
	whatsAppNumber string
	currency       string
	now            func() time.Time
	newID          func() string
}

func NewQuoteService(
	notifier port.QuoteNotifier, cfg QuoteServiceConfig,
) QuoteService {
	return QuoteService{
		notifier:       notifier,
		whatsAppNumber: cfg.WhatsAppNumber,
		currency:       cfg.Currency,
		now:            time.Now,
		newID:          uuid.NewString,
	}
}

func (s QuoteService) Currency() string {
	return s.currency
}

// Message renders the outbound message for the current session state
// without submitting it.
func (s QuoteService) Message(sess *Session) string {
	var msg string
	_ = sess.submit(func(q *domain.Quote, form *domain.Contact) error {
		msg = FormatQuoteMessage(*form, q.Items(), s.currency)
		return nil
	})
	return msg
}

// SubmitWhatsApp returns the WhatsApp link carrying the quote message, then
// clears the quote list and the contact form.
func (s QuoteService) SubmitWhatsApp(
	ctx context.Context, sess *Session,
) (string, error) {
	const op = "QuoteService.SubmitWhatsApp"

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	var link string
	err := sess.submit(func(q *domain.Quote, form *domain.Contact) error {
		if err := s.checkSubmittable(q, form); err != nil {
			return err
		}
		msg := FormatQuoteMessage(*form, q.Items(), s.currency)
		link = WhatsAppURL(s.whatsAppNumber, msg)
		q.Clear()
		*form = domain.Contact{}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	slog.Info("quote handed to whatsapp", "op", op, "session", sess.ID())
	return link, nil
}

// SubmitEmail hands the quote to the notifier. The quote list and the
// form are reset only when the notifier accepts the request.
func (s QuoteService) SubmitEmail(
	ctx context.Context, sess *Session,
) (domain.QuoteRequest, error) {
	const op = "QuoteService.SubmitEmail"

	if err := ctx.Err(); err != nil {
		return domain.QuoteRequest{}, fmt.Errorf("%s: %w", op, err)
	}

	var req domain.QuoteRequest
	err := sess.submit(func(q *domain.Quote, form *domain.Contact) error {
		if err := s.checkSubmittable(q, form); err != nil {
			return err
		}
		req = s.newRequest(domain.QuoteChannelEmail, *form, q)
		if err := s.notifier.NotifyQuote(ctx, req); err != nil {
			return err
		}
		q.Clear()
		*form = domain.Contact{}
		return nil
	})
	if err != nil {
		return domain.QuoteRequest{}, fmt.Errorf("%s: %w", op, err)
	}

	slog.Info("quote request sent", "op", op, "quoteID", req.ID)
	return req, nil
}

func (s QuoteService) checkSubmittable(
	q *domain.Quote, form *domain.Contact,
) error {
	if err := form.Validate(); err != nil {
		return err
	}
	if q.Empty() {
		return domain.ErrEmptyQuote
	}
	return nil
}

func (s QuoteService) newRequest(
	ch domain.QuoteChannel, c domain.Contact, q *domain.Quote,
) domain.QuoteRequest {
	return domain.QuoteRequest{
		ID:        s.newID(),
		Channel:   ch,
		Contact:   c,
		Items:     q.Items(),
		Currency:  s.currency,
		Total:     q.Total(),
		CreatedAt: s.now().UTC(),
	}
}
