package app

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/niksmo/office-storefront/config"
	"github.com/niksmo/office-storefront/internal/adapter"
	"github.com/niksmo/office-storefront/internal/adapter/catalogfile"
	"github.com/niksmo/office-storefront/internal/adapter/httphandler"
	"github.com/niksmo/office-storefront/internal/adapter/kafka"
	"github.com/niksmo/office-storefront/internal/adapter/kvstore"
	"github.com/niksmo/office-storefront/internal/adapter/notifier"
	"github.com/niksmo/office-storefront/internal/core/port"
	"github.com/niksmo/office-storefront/internal/core/service"
	"github.com/niksmo/office-storefront/pkg/schema"
)

type outbound struct {
	kvStorage  port.KVStorage
	redis      *kvstore.Redis
	notifier   port.QuoteNotifier
	producer   *kafka.QuoteRequestsProducer
	statusView *kafka.QuoteStatusView
}

type coreService struct {
	catalog  service.Catalog
	sessions *service.SessionStore
	quotes   service.QuoteService
}

// App is the storefront HTTP service.
type App struct {
	ctx        context.Context
	cfg        config.Config
	tlsConfig  *tls.Config
	outbound   outbound
	service    coreService
	handler    http.Handler
	httpServer httphandler.HTTPServer
}

func New(ctx context.Context, cfg config.Config) *App {
	app := &App{ctx: ctx, cfg: cfg}

	app.initLogger()
	app.initTLS()
	app.initOutboundAdapters()
	app.initCoreService()
	app.initInboundAdapters()

	return app
}

func (app *App) initLogger() {
	initLogger(app.cfg.LogLevel)
}

func (app *App) initTLS() {
	const op = "App.initTLS"

	tlsConfig, err := makeBrokerTLS(app.cfg)
	if err != nil {
		app.fallDown(op, err)
	}
	app.tlsConfig = tlsConfig
}

func (app *App) initOutboundAdapters() {
	app.initKVStorage()
	app.initNotifier()
	app.initStatusView()
}

func (app *App) initKVStorage() {
	const op = "App.initKVStorage"

	if app.cfg.Redis.Addr == "" {
		slog.Info("recent searches are kept in memory", "op", op)
		app.outbound.kvStorage = kvstore.NewMemory()
		return
	}

	r, err := kvstore.NewRedis(app.ctx, kvstore.RedisConfig{
		Addr:     app.cfg.Redis.Addr,
		Password: app.cfg.Redis.Password,
		DB:       app.cfg.Redis.DB,
		Prefix:   app.cfg.Redis.Prefix,
		KeyTTL:   app.cfg.Redis.KeyTTL,
	})
	if err != nil {
		app.fallDown(op, err)
	}
	app.outbound.redis = &r
	app.outbound.kvStorage = r
}

func (app *App) initNotifier() {
	const op = "App.initNotifier"

	broker := app.cfg.Broker
	if !broker.Enabled() {
		slog.Info("quote requests are written to the log", "op", op)
		app.outbound.notifier = notifier.NewLog(slog.Default())
		return
	}

	serde, err := newQuoteRequestSerde(app.ctx, app.cfg, app.tlsConfig)
	if err != nil {
		app.fallDown(op, err)
	}

	p, err := kafka.NewQuoteRequestsProducer(
		kafka.ProducerClientOpt(
			app.ctx, app.brokerConfig(), broker.Topics.QuoteRequests,
		),
		kafka.ProducerEncoderOpt(serde),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.outbound.producer = &p
	app.outbound.notifier = p
}

func (app *App) initStatusView() {
	const op = "App.initStatusView"

	broker := app.cfg.Broker
	if !broker.Enabled() {
		return
	}

	v, err := kafka.NewQuoteStatusView(
		broker.SeedBrokers, broker.Consumers.QuoteStatusGroup,
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.outbound.statusView = &v
}

func (app *App) initCoreService() {
	const op = "App.initCoreService"

	products, err := catalogfile.NewLoader(app.cfg.Catalog.File).LoadProducts()
	if err != nil {
		app.fallDown(op, err)
	}

	catalog, err := service.NewCatalog(products, app.cfg.Catalog.MaxPrice)
	if err != nil {
		app.fallDown(op, err)
	}

	app.service.catalog = catalog
	app.service.sessions = service.NewSessionStore(service.SessionStoreConfig{
		Storage:       app.outbound.kvStorage,
		IdleTTL:       app.cfg.Session.IdleTTL,
		SweepInterval: app.cfg.Session.SweepInterval,
	})
	app.service.quotes = service.NewQuoteService(
		app.outbound.notifier,
		service.QuoteServiceConfig{
			WhatsAppNumber: app.cfg.Quote.WhatsAppNumber,
			Currency:       app.cfg.Quote.Currency,
		},
	)
}

func (app *App) initInboundAdapters() {
	cfg := httphandler.RouterConfig{
		Catalog:       app.service.catalog,
		Quotes:        app.service.quotes,
		Sessions:      app.service.sessions,
		CookieName:    app.cfg.Session.CookieName,
		FeaturedLimit: app.cfg.Catalog.FeaturedLimit,
	}
	if app.outbound.statusView != nil {
		cfg.StatusReader = *app.outbound.statusView
	}

	app.handler = httphandler.NewRouter(cfg)
	app.httpServer = httphandler.NewHTTPServer(app.cfg.HTTPServerAddr, app.handler)
}

// Handler returns the router without the server timeout wrapper.
func (app *App) Handler() http.Handler {
	return app.handler
}

func (app *App) Run(stopFn context.CancelFunc) {
	go app.service.sessions.Run(app.ctx)

	if app.outbound.statusView != nil {
		go app.outbound.statusView.Run(app.ctx, stopFn)
	}

	go app.httpServer.Run(stopFn)

	slog.Info("application is running")
}

func (app *App) Close(ctx context.Context) {
	slog.Info("application is closing...")

	app.httpServer.Close(ctx)
	if app.outbound.producer != nil {
		app.outbound.producer.Close()
	}
	if app.outbound.redis != nil {
		app.outbound.redis.Close()
	}

	slog.Info("application is closed")
}

func (app *App) brokerConfig() kafka.BrokerConfig {
	return kafka.BrokerConfig{
		SeedBrokers: app.cfg.Broker.SeedBrokers,
		TLSConfig:   app.tlsConfig,
	}
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}

func initLogger(level slog.Level) {
	opts := &slog.HandlerOptions{Level: level}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger)
}

func makeBrokerTLS(cfg config.Config) (*tls.Config, error) {
	t := cfg.Broker.TLS
	tlsConfig, err := adapter.MakeTLSConfig(t.CA, t.Cert, t.Key)
	if err != nil {
		return nil, err
	}
	kafka.ApplyGokaTLS(tlsConfig)
	return tlsConfig, nil
}

func newQuoteRequestSerde(
	ctx context.Context, cfg config.Config, tlsConfig *tls.Config,
) (schema.Serde, error) {
	ri, err := schema.NewRegistryIdentifier(
		cfg.Broker.SchemaRegistryURLs, tlsConfig,
	)
	if err != nil {
		return nil, err
	}
	return schema.NewSerdeQuoteRequestV1(
		ctx,
		schema.SubjectOpt(schema.SubjectName(cfg.Broker.Topics.QuoteRequests)),
		schema.SchemaIdentifierOpt(ri),
	)
}
