package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/niksmo/office-storefront/config"
	"github.com/niksmo/office-storefront/internal/adapter"
	"github.com/niksmo/office-storefront/internal/adapter/catalogfile"
	"github.com/niksmo/office-storefront/internal/adapter/kafka"
	"github.com/niksmo/office-storefront/internal/adapter/storage"
	"github.com/niksmo/office-storefront/internal/core/port"
	"github.com/niksmo/office-storefront/internal/core/service"
	"github.com/spf13/cobra"
)

// deps opens the outbound adapters lazily, so offline commands work
// without a database or a broker.
type deps struct {
	openArchive func(ctx context.Context, cfg config.Config) (port.QuotesReader, func(), error)
	openEmitter func(cfg config.Config) (port.QuoteStatusEmitter, func(), error)
}

func defaultDeps() deps {
	return deps{
		openArchive: openSQLArchive,
		openEmitter: openStatusEmitter,
	}
}

type cli struct {
	deps       deps
	cfgFile    string
	outputJSON bool
	verbose    bool
	cfg        config.Config
}

func newRootCmd(d deps) *cobra.Command {
	c := &cli{deps: d}

	root := &cobra.Command{
		Use:   "storectl",
		Short: "Office storefront catalog, search and quote tooling",
		Long: `storectl runs the storefront catalog filter, smart search and quote
message builder from the command line. The quotes and status commands
work with the quote archive database and the broker.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(c.cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			c.cfg = cfg

			level := slog.LevelWarn
			if c.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(
				cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level},
			)))
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&c.cfgFile, "config", "c", "", "config file path (default: defaults and env vars)")
	root.PersistentFlags().BoolVar(&c.outputJSON, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose output")

	root.AddCommand(c.newProductsCmd())
	root.AddCommand(c.newSearchCmd())
	root.AddCommand(c.newQuoteCmd())
	root.AddCommand(c.newQuotesCmd())
	root.AddCommand(c.newStatusCmd())
	return root
}

func (c *cli) catalog() (service.Catalog, error) {
	products, err := catalogfile.NewLoader(c.cfg.Catalog.File).LoadProducts()
	if err != nil {
		return service.Catalog{}, err
	}
	return service.NewCatalog(products, c.cfg.Catalog.MaxPrice)
}

func (c *cli) writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func openSQLArchive(
	ctx context.Context, cfg config.Config,
) (port.QuotesReader, func(), error) {
	if cfg.SQLDB == "" {
		return nil, nil, fmt.Errorf("sql_db: required")
	}
	db, err := storage.NewSQLDB(ctx, cfg.SQLDB)
	if err != nil {
		return nil, nil, err
	}
	return storage.NewQuoteRepository(db), db.Close, nil
}

func openStatusEmitter(
	cfg config.Config,
) (port.QuoteStatusEmitter, func(), error) {
	if !cfg.Broker.Enabled() {
		return nil, nil, fmt.Errorf("broker.seed_brokers: required")
	}
	t := cfg.Broker.TLS
	tlsConfig, err := adapter.MakeTLSConfig(t.CA, t.Cert, t.Key)
	if err != nil {
		return nil, nil, err
	}
	kafka.ApplyGokaTLS(tlsConfig)

	e, err := kafka.NewQuoteStatusEmitter(
		cfg.Broker.SeedBrokers, cfg.Broker.Topics.QuoteStatus,
	)
	if err != nil {
		return nil, nil, err
	}
	return e, e.Close, nil
}
