package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/niksmo/office-storefront/internal/core/domain"
	"github.com/niksmo/office-storefront/internal/core/port"
	"github.com/niksmo/office-storefront/pkg/retry"
	"github.com/niksmo/office-storefront/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
)

type ConsumerOpt func(*consumerOpts) error

func ConsumerClientOpt(
	broker BrokerConfig, topic, group string,
) ConsumerOpt {
	return func(co *consumerOpts) error {
		cl, err := kgo.NewClient(broker.kgoOpts(
			kgo.ConsumeTopics(topic),
			kgo.ConsumerGroup(group),
			kgo.DisableAutoCommit(),
		)...)
		if err != nil {
			return err
		}
		co.cl = cl
		return nil
	}
}

// ConsumerWithClientOpt uses an already created client.
func ConsumerWithClientOpt(cl ConsumerClient) ConsumerOpt {
	return func(co *consumerOpts) error {
		if cl == nil {
			return errors.New("consumer client is nil")
		}
		co.cl = cl
		return nil
	}
}

func ConsumerDecoderOpt(decoder Decoder) ConsumerOpt {
	return func(co *consumerOpts) error {
		if decoder == nil {
			return errors.New("decoder is nil")
		}
		co.decoder = decoder
		return nil
	}
}

func ConsumerQuotesSaverOpt(s port.QuotesSaver) ConsumerOpt {
	return func(co *consumerOpts) error {
		if s == nil {
			return errors.New("quotes saver is nil")
		}
		co.quotesSaver = s
		return nil
	}
}

type consumerOpts struct {
	cl          ConsumerClient
	decoder     Decoder
	quotesSaver port.QuotesSaver
}

func (co *consumerOpts) apply(opts ...ConsumerOpt) error {
	for _, opt := range opts {
		if err := opt(co); err != nil {
			return err
		}
	}
	return nil
}

type consumerParent interface {
	processFetches(context.Context, kgo.Fetches) error
}

// A consumer is used for composition.
//
// Fetching records from kafka broker and closing underlying [kgo.Client].
type consumer struct {
	opPrefix      string
	parent        consumerParent
	cl            ConsumerClient
	commitRetry   retry.RetryConfig
	processRetry  retry.RetryConfig
	slowDownDelay time.Duration
}

func (c consumer) run(ctx context.Context) {
	const op = "run"
	log := slog.With("op", makeOp(c.opPrefix, op))

	log.Info("running")

	for {
		select {
		case <-ctx.Done():
			log.Info("stopped")
			return
		default:
			err := c.consume(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					continue
				}
				log.Error("failed to consume", "err", err)
				c.slowDown(ctx)
			}
		}
	}
}

func (c consumer) consume(ctx context.Context) error {
	const op = "consume"

	fetches, err := c.pollFetches(ctx)
	if err != nil {
		return opErr(err, c.opPrefix, op)
	}

	if fetches.Empty() {
		return nil
	}

	// The fetch position is already past this batch, retry until it is saved.
	err = retry.Do(ctx, c.processRetry, func() error {
		return c.parent.processFetches(ctx, fetches)
	})
	if err != nil {
		return opErr(err, c.opPrefix, op)
	}

	err = c.commit(ctx)
	if err != nil {
		return opErr(err, c.opPrefix, op)
	}
	return nil
}

func (c consumer) pollFetches(ctx context.Context) (kgo.Fetches, error) {
	const op = "pollFetches"

	fetches := c.cl.PollFetches(ctx)
	if err := fetches.Err0(); err != nil {
		return nil, opErr(err, c.opPrefix, op)
	}

	err := c.handleFetchesErrs(fetches)
	if err != nil {
		return nil, opErr(err, c.opPrefix, op)
	}

	return fetches, nil
}

func (c consumer) handleFetchesErrs(fetches kgo.Fetches) error {
	var errsMessages []string
	fetches.EachError(func(t string, p int32, err error) {
		if err != nil {
			errMsg := fmt.Sprintf(
				"topic %q partition %d: %q", t, p, err,
			)
			errsMessages = append(errsMessages, errMsg)
		}
	})

	if len(errsMessages) != 0 {
		return errors.New(strings.Join(errsMessages, "; "))
	}
	return nil
}

func (c consumer) slowDown(ctx context.Context) {
	t := time.NewTimer(c.slowDownDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (c consumer) commit(ctx context.Context) error {
	const op = "commit"

	err := retry.Do(ctx, c.commitRetry, func() error {
		return c.cl.CommitUncommittedOffsets(ctx)
	})
	if err != nil {
		return opErr(err, c.opPrefix, op)
	}
	return nil
}

func (c consumer) close() {
	const op = "close"
	log := slog.With("op", makeOp(c.opPrefix, op))

	log.Info("closing consumer...")
	c.cl.Close()
	log.Info("consumer is closed")
}

// A QuoteRequestsConsumer consumes submitted quote requests
// then sends them to the core service for save.
type QuoteRequestsConsumer struct {
	opPrefix string
	consumer consumer
	saver    port.QuotesSaver
	decoder  Decoder
}

func NewQuoteRequestsConsumer(
	opts ...ConsumerOpt,
) (c QuoteRequestsConsumer, err error) {
	const op = "NewQuoteRequestsConsumer"

	var options consumerOpts
	if err := options.apply(opts...); err != nil {
		return c, opErr(err, op)
	}
	if options.cl == nil || options.decoder == nil || options.quotesSaver == nil {
		if options.cl != nil {
			options.cl.Close()
		}
		return c, opErr(ErrTooFewOpts, op)
	}

	opPrefix := "QuoteRequestsConsumer"

	c.opPrefix = opPrefix
	c.saver = options.quotesSaver
	c.decoder = options.decoder
	c.consumer = consumer{
		opPrefix: opPrefix,
		parent:   c,
		cl:       options.cl,
		commitRetry: retry.RetryConfig{
			MaxAttempts: 3,
			Backoff:     retry.ExponentialBackoff(100 * time.Millisecond),
			MaxDelay:    2 * time.Second,
			OnRetry: func(attempt int, err error) {
				slog.Warn("commit failed, retrying",
					"op", makeOp(opPrefix, "commit"), "attempt", attempt, "err", err)
			},
		},
		processRetry: retry.RetryConfig{
			MaxAttempts: math.MaxInt,
			Backoff:     retry.ExponentialBackoff(200 * time.Millisecond),
			MaxDelay:    30 * time.Second,
			ShouldRetry: func(err error) bool {
				return !errors.Is(err, context.Canceled)
			},
			OnRetry: func(attempt int, err error) {
				slog.Error("failed to process batch, retrying",
					"op", makeOp(opPrefix, "consume"), "attempt", attempt, "err", err)
			},
		},
		slowDownDelay: time.Second,
	}
	return c, nil
}

func (c QuoteRequestsConsumer) Run(ctx context.Context) {
	c.consumer.run(ctx)
}

func (c QuoteRequestsConsumer) Close() {
	c.consumer.close()
}

func (c QuoteRequestsConsumer) processFetches(
	ctx context.Context, fetches kgo.Fetches,
) error {
	const op = "processFetches"

	values := c.toDomain(fetches)
	if len(values) == 0 {
		return nil
	}

	err := c.saver.SaveQuotes(ctx, values)
	if err != nil {
		return opErr(err, c.opPrefix, op)
	}
	return nil
}

// toDomain skips records that cannot be decoded.
func (c QuoteRequestsConsumer) toDomain(
	fetches kgo.Fetches,
) (vs []domain.QuoteRequest) {
	const op = "toDomain"
	log := slog.With("op", makeOp(c.opPrefix, op))

	fetches.EachRecord(func(r *kgo.Record) {
		v, err := c.decodeRecValue(r)
		if err != nil {
			log.Error(
				"failed to decode value",
				"err", opErr(err, c.opPrefix, op),
				"partition", r.Partition,
				"offset", r.Offset,
			)
			return
		}
		vs = append(vs, v)
	})
	return vs
}

func (c QuoteRequestsConsumer) decodeRecValue(
	r *kgo.Record,
) (domain.QuoteRequest, error) {
	var s schema.QuoteRequestV1
	err := c.decoder.Decode(r.Value, &s)
	if err != nil {
		return domain.QuoteRequest{}, err
	}
	return schemaV1ToQuote(s)
}
