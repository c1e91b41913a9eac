package kafka

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/lovoo/goka"
	"github.com/lovoo/goka/codec"
	"github.com/niksmo/office-storefront/internal/core/domain"
	"github.com/niksmo/office-storefront/internal/core/port"
	"github.com/niksmo/office-storefront/pkg/retry"
	"github.com/niksmo/office-storefront/pkg/schema"
)

// A processor is used for composition.
//
// Running and closing the underlying [goka.Processor]
type processor struct {
	opPrefix string
	gp       *goka.Processor
}

func (p *processor) run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	const op = "run"
	log := slog.With("op", makeOp(p.opPrefix, op))

	defer wg.Done()

	go p.runProc(ctx, stopFn)

	log.Info("preparing...")
	p.waitForReady(ctx)
	log.Info("running")
}

func (p *processor) runProc(ctx context.Context, stopFn context.CancelFunc) {
	const op = "runProc"
	log := slog.With("op", makeOp(p.opPrefix, op))

	defer stopFn()

	err := p.gp.Run(ctx)
	if err != nil {
		log.Error("stopped", "err", err)
		return
	}
	log.Info("stopped")
}

func (p *processor) waitForReady(ctx context.Context) {
	const op = "waitForReady"
	log := slog.With("op", makeOp(p.opPrefix, op))

	err := p.gp.WaitForReadyContext(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Error("fall down while preparing", "err", err)
		return
	}
}

func (p *processor) close() {
	const op = "close"
	log := slog.With("op", makeOp(p.opPrefix, op))

	log.Info("closing processor...")
	p.gp.Stop()
	log.Info("processor is closed")
}

// A quoteRequestCodec used for serde [schema.QuoteRequestV1]
type quoteRequestCodec struct {
	serde Serde
}

func newQuoteRequestCodec(s Serde) quoteRequestCodec {
	return quoteRequestCodec{s}
}

func (c quoteRequestCodec) Encode(v any) ([]byte, error) {
	const op = "quoteRequestCodec.Encode"
	if _, ok := v.(schema.QuoteRequestV1); !ok {
		return nil, opErr(ErrInvalidValueType, op)
	}
	return c.serde.Encode(v)
}

func (c quoteRequestCodec) Decode(data []byte) (any, error) {
	const op = "quoteRequestCodec.Decode"
	var s schema.QuoteRequestV1
	err := c.serde.Decode(data, &s)
	if err != nil {
		return nil, opErr(err, op)
	}
	return s, nil
}

// A statusCodec used for serde [domain.QuoteStatus] table values
type statusCodec struct{}

func (statusCodec) Encode(v any) ([]byte, error) {
	const op = "statusCodec.Encode"
	st, ok := v.(domain.QuoteStatus)
	if !ok {
		return nil, opErr(ErrInvalidValueType, op)
	}
	return []byte(st), nil
}

func (statusCodec) Decode(data []byte) (any, error) {
	const op = "statusCodec.Decode"
	st, err := domain.ParseQuoteStatus(string(data))
	if err != nil {
		return nil, opErr(err, op)
	}
	return st, nil
}

// QuoteStatusProcConfig used for setup [QuoteStatusProcessor].
//
// All fields except StatusStorage are required.
type QuoteStatusProcConfig struct {
	SeedBrokers        []string
	Group              string
	QuoteRequestsTopic string
	StatusUpdatesTopic string
	QuoteRequestSerde  Serde

	// StatusStorage receives every applied status update.
	StatusStorage port.QuoteStatusStorage
}

var _ port.QuoteStatusProcessor = (*QuoteStatusProcessor)(nil)

// A QuoteStatusProcessor keeps the status of every submitted quote in
// the group table. New quote requests start as pending, status update
// events move known quotes to the given status.
type QuoteStatusProcessor struct {
	opPrefix      string
	proc          processor
	statusStorage port.QuoteStatusStorage
	storeRetry    retry.RetryConfig
}

func NewQuoteStatusProc(
	config QuoteStatusProcConfig, opts ...goka.ProcessorOption,
) (*QuoteStatusProcessor, error) {
	const op = "NewQuoteStatusProc"

	p := QuoteStatusProcessor{
		opPrefix:      "QuoteStatusProcessor",
		statusStorage: config.StatusStorage,
		storeRetry: retry.RetryConfig{
			MaxAttempts: 5,
			Backoff:     retry.ExponentialBackoff(100 * time.Millisecond),
			MaxDelay:    2 * time.Second,
		},
	}

	gg := goka.DefineGroup(goka.Group(config.Group),
		goka.Input(
			goka.Stream(config.QuoteRequestsTopic),
			newQuoteRequestCodec(config.QuoteRequestSerde),
			p.onQuoteRequest,
		),
		goka.Input(
			goka.Stream(config.StatusUpdatesTopic),
			new(codec.String),
			p.onStatusUpdate,
		),
		goka.Persist(statusCodec{}),
	)

	opts = append([]goka.ProcessorOption{withNonlogProcOpt()}, opts...)
	gp, err := goka.NewProcessor(config.SeedBrokers, gg, opts...)
	if err != nil {
		return nil, opErr(err, op)
	}

	p.proc = processor{opPrefix: p.opPrefix, gp: gp}
	return &p, nil
}

func (p *QuoteStatusProcessor) Run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	p.proc.run(ctx, stopFn, wg)
}

func (p *QuoteStatusProcessor) Close() {
	p.proc.close()
}

func (p *QuoteStatusProcessor) onQuoteRequest(ctx goka.Context, msg any) {
	const op = "onQuoteRequest"
	log := slog.With("op", makeOp(p.opPrefix, op), "quoteID", ctx.Key())

	if ctx.Value() != nil {
		log.Debug("quote is already tracked")
		return
	}
	ctx.SetValue(domain.QuoteStatusPending)
	log.Info("quote is pending")
}

func (p *QuoteStatusProcessor) onStatusUpdate(ctx goka.Context, msg any) {
	const op = "onStatusUpdate"
	log := slog.With("op", makeOp(p.opPrefix, op), "quoteID", ctx.Key())

	raw, _ := msg.(string)
	st, err := domain.ParseQuoteStatus(raw)
	if err != nil {
		log.Warn("skip status update", "err", err)
		return
	}
	if ctx.Value() == nil {
		log.Warn("skip status update of unknown quote", "status", st)
		return
	}

	if p.statusStorage != nil {
		err := retry.Do(ctx.Context(), p.storeRetry, func() error {
			return p.statusStorage.StoreQuoteStatus(ctx.Context(), ctx.Key(), st)
		})
		if err != nil {
			// stops the processor, the update is consumed again on restart
			ctx.Fail(opErr(err, p.opPrefix, op))
		}
	}

	ctx.SetValue(st)
	log.Info("status updated", "status", st)
}
