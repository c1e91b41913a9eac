package app

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"

	"github.com/niksmo/office-storefront/config"
	"github.com/niksmo/office-storefront/internal/adapter/kafka"
	"github.com/niksmo/office-storefront/internal/adapter/storage"
	"github.com/niksmo/office-storefront/internal/core/service"
)

// Worker is the quote worker: it archives submitted quote requests into
// the SQL database and tracks their status in the group table.
type Worker struct {
	ctx       context.Context
	cfg       config.Config
	tlsConfig *tls.Config
	sqldb     storage.SQLDB
	archive   service.QuoteArchive
	consumer  kafka.QuoteRequestsConsumer
}

func NewWorker(ctx context.Context, cfg config.Config) *Worker {
	w := &Worker{ctx: ctx, cfg: cfg}

	initLogger(cfg.LogLevel)
	w.checkConfig()
	w.initTLS()
	w.initStorage()
	w.initArchive()
	w.initConsumer()

	return w
}

func (w *Worker) checkConfig() {
	const op = "Worker.checkConfig"

	var errs []error
	if !w.cfg.Broker.Enabled() {
		errs = append(errs, errors.New("broker.seed_brokers: required"))
	}
	if w.cfg.SQLDB == "" {
		errs = append(errs, errors.New("sql_db: required"))
	}
	if err := errors.Join(errs...); err != nil {
		w.fallDown(op, err)
	}
}

func (w *Worker) initTLS() {
	const op = "Worker.initTLS"

	tlsConfig, err := makeBrokerTLS(w.cfg)
	if err != nil {
		w.fallDown(op, err)
	}
	w.tlsConfig = tlsConfig
}

func (w *Worker) initStorage() {
	const op = "Worker.initStorage"

	if err := storage.Migrate(w.cfg.SQLDB); err != nil {
		w.fallDown(op, err)
	}

	sqldb, err := storage.NewSQLDB(w.ctx, w.cfg.SQLDB)
	if err != nil {
		w.fallDown(op, err)
	}
	w.sqldb = sqldb
}

func (w *Worker) initArchive() {
	const op = "Worker.initArchive"

	serde, err := newQuoteRequestSerde(w.ctx, w.cfg, w.tlsConfig)
	if err != nil {
		w.fallDown(op, err)
	}

	repo := storage.NewQuoteRepository(w.sqldb)

	broker := w.cfg.Broker
	proc, err := kafka.NewQuoteStatusProc(kafka.QuoteStatusProcConfig{
		SeedBrokers:        broker.SeedBrokers,
		Group:              broker.Consumers.QuoteStatusGroup,
		QuoteRequestsTopic: broker.Topics.QuoteRequests,
		StatusUpdatesTopic: broker.Topics.QuoteStatus,
		QuoteRequestSerde:  serde,
		StatusStorage:      repo,
	})
	if err != nil {
		w.fallDown(op, err)
	}

	w.archive = service.NewQuoteArchive(repo, proc)
}

func (w *Worker) initConsumer() {
	const op = "Worker.initConsumer"

	serde, err := newQuoteRequestSerde(w.ctx, w.cfg, w.tlsConfig)
	if err != nil {
		w.fallDown(op, err)
	}

	broker := w.cfg.Broker
	c, err := kafka.NewQuoteRequestsConsumer(
		kafka.ConsumerClientOpt(
			kafka.BrokerConfig{
				SeedBrokers: broker.SeedBrokers,
				TLSConfig:   w.tlsConfig,
			},
			broker.Topics.QuoteRequests,
			broker.Consumers.QuoteSaverGroup,
		),
		kafka.ConsumerDecoderOpt(serde),
		kafka.ConsumerQuotesSaverOpt(w.archive),
	)
	if err != nil {
		w.fallDown(op, err)
	}
	w.consumer = c
}

// Run blocks until the status processor is ready, then starts consuming.
func (w *Worker) Run(stopFn context.CancelFunc) {
	w.archive.Run(w.ctx, stopFn)
	go w.consumer.Run(w.ctx)

	slog.Info("worker is running")
}

func (w *Worker) Close() {
	slog.Info("worker is closing...")

	w.consumer.Close()
	w.archive.Close()
	w.sqldb.Close()

	slog.Info("worker is closed")
}

func (w *Worker) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}
