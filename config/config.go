package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configFileEnvName = "STOREFRONT_CONFIG_FILE"
	envPrefix         = "STOREFRONT"
)

type catalog struct {
	File          string  `mapstructure:"file"`
	MaxPrice      float64 `mapstructure:"max_price"`
	FeaturedLimit int     `mapstructure:"featured_limit"`
}

type session struct {
	CookieName    string        `mapstructure:"cookie_name"`
	IdleTTL       time.Duration `mapstructure:"idle_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type quote struct {
	WhatsAppNumber string `mapstructure:"whatsapp_number"`
	Currency       string `mapstructure:"currency"`
}

type redis struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	KeyTTL   time.Duration `mapstructure:"key_ttl"`
}

type tls struct {
	CA   string `mapstructure:"ca"`
	Cert string `mapstructure:"cert"`
	Key  string `mapstructure:"key"`
}

type topics struct {
	QuoteRequests string `mapstructure:"quote_requests"`
	QuoteStatus   string `mapstructure:"quote_status"`
}

type consumers struct {
	QuoteSaverGroup  string `mapstructure:"quote_saver_group"`
	QuoteStatusGroup string `mapstructure:"quote_status_group"`
}

type broker struct {
	SeedBrokers        []string  `mapstructure:"seed_brokers"`
	SchemaRegistryURLs []string  `mapstructure:"schema_registry_urls"`
	TLS                tls       `mapstructure:"tls"`
	Topics             topics    `mapstructure:"topics"`
	Consumers          consumers `mapstructure:"consumers"`
}

// Enabled reports whether quote events go through the broker.
func (b broker) Enabled() bool {
	return len(b.SeedBrokers) != 0
}

type Config struct {
	LogLevel       slog.Level `mapstructure:"log_level"`
	HTTPServerAddr string     `mapstructure:"http_server_addr"`
	SQLDB          string     `mapstructure:"sql_db"`
	Catalog        catalog    `mapstructure:"catalog"`
	Session        session    `mapstructure:"session"`
	Quote          quote      `mapstructure:"quote"`
	Redis          redis      `mapstructure:"redis"`
	Broker         broker     `mapstructure:"broker"`
}

var defaults = map[string]any{
	"log_level":        "info",
	"http_server_addr": ":8080",
	"sql_db":           "",

	"catalog.file":           "",
	"catalog.max_price":      400,
	"catalog.featured_limit": 6,

	"session.cookie_name":    "sid",
	"session.idle_ttl":       "30m",
	"session.sweep_interval": "1m",

	"quote.whatsapp_number": "971445222261",
	"quote.currency":        "AED",

	"redis.addr":     "",
	"redis.password": "",
	"redis.db":       0,
	"redis.prefix":   "storefront:",
	"redis.key_ttl":  "168h",

	"broker.seed_brokers":                 []string{},
	"broker.schema_registry_urls":         []string{},
	"broker.tls.ca":                       "",
	"broker.tls.cert":                     "",
	"broker.tls.key":                      "",
	"broker.topics.quote_requests":        "quote-requests",
	"broker.topics.quote_status":          "quote-status-updates",
	"broker.consumers.quote_saver_group":  "quote-saver",
	"broker.consumers.quote_status_group": "quote-status",
}

// Load reads the config file given by --config or STOREFRONT_CONFIG_FILE.
// Without a file the defaults apply. Every key can be overridden by an
// environment variable, e.g. STOREFRONT_REDIS_ADDR.
func Load() Config {
	_ = godotenv.Load()

	cfg, err := LoadFile(getConfigFilepath(os.Args[1:]))
	if err != nil {
		die(err)
	}
	return cfg
}

func LoadFile(path string) (Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	err := v.UnmarshalExact(&cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error

	if c.Catalog.MaxPrice <= 0 {
		errs = append(errs, errors.New("catalog.max_price: must be positive"))
	}
	if c.Catalog.FeaturedLimit < 1 {
		errs = append(errs, errors.New("catalog.featured_limit: must be positive"))
	}
	if c.Session.CookieName == "" {
		errs = append(errs, errors.New("session.cookie_name: required"))
	}
	if !digitsOnly(c.Quote.WhatsAppNumber) {
		errs = append(errs, errors.New("quote.whatsapp_number: digits only"))
	}
	if c.Quote.Currency == "" {
		errs = append(errs, errors.New("quote.currency: required"))
	}
	if ttl := c.Redis.KeyTTL; ttl != 0 && ttl < c.Session.IdleTTL {
		errs = append(errs, errors.New("redis.key_ttl: must be 0 or at least session.idle_ttl"))
	}

	if c.Broker.Enabled() {
		if len(c.Broker.SchemaRegistryURLs) == 0 {
			errs = append(errs, errors.New("broker.schema_registry_urls: required"))
		}
		if c.Broker.Topics.QuoteRequests == "" {
			errs = append(errs, errors.New("broker.topics.quote_requests: required"))
		}
		if c.Broker.Topics.QuoteStatus == "" {
			errs = append(errs, errors.New("broker.topics.quote_status: required"))
		}
	}
	return errors.Join(errs...)
}

func digitsOnly(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func getConfigFilepath(args []string) string {
	cmdLine := pflag.NewFlagSet("config", pflag.ContinueOnError)
	cmdLine.ParseErrorsWhitelist.UnknownFlags = true
	cmdLine.Usage = func() {}
	arg := cmdLine.String("config", "", "config file")
	_ = cmdLine.Parse(args)
	env, ok := os.LookupEnv(configFileEnvName)
	if ok {
		return env
	}
	return *arg
}

func die(err error) {
	fmt.Printf("failed to load config: %v\n", err)
	os.Exit(2)
}

func (c Config) Print() {
	tamplate := `
	General:
	LogLevel=%q
	HTTPServerAddr=%q
	SQLDB=%q

	Catalog:
	File=%q
	MaxPrice=%v
	FeaturedLimit=%d

	Session:
	CookieName=%q
	IdleTTL=%s
	SweepInterval=%s

	Quote:
	WhatsAppNumber=%q
	Currency=%q

	Redis:
	Addr=%q
	DB=%d
	Prefix=%q
	KeyTTL=%s

	BrokerConfig:
	SeedBrokers=%q
	SchemaRegistryURLs=%q
	TLS=%t
	Topics:
		QuoteRequests=%q
		QuoteStatus=%q
	Consumers:
		QuoteSaverGroup=%q
		QuoteStatusGroup=%q

`
	fmt.Println("Loaded config:")
	fmt.Printf(
		strings.TrimLeft(tamplate, "\n"),
		c.LogLevel,
		c.HTTPServerAddr,
		redactDSN(c.SQLDB),
		c.Catalog.File,
		c.Catalog.MaxPrice,
		c.Catalog.FeaturedLimit,
		c.Session.CookieName,
		c.Session.IdleTTL,
		c.Session.SweepInterval,
		c.Quote.WhatsAppNumber,
		c.Quote.Currency,
		c.Redis.Addr,
		c.Redis.DB,
		c.Redis.Prefix,
		c.Redis.KeyTTL,
		c.Broker.SeedBrokers,
		c.Broker.SchemaRegistryURLs,
		c.Broker.TLS.CA != "",
		c.Broker.Topics.QuoteRequests,
		c.Broker.Topics.QuoteStatus,
		c.Broker.Consumers.QuoteSaverGroup,
		c.Broker.Consumers.QuoteStatusGroup,
	)
}

// redactDSN hides the password of a postgres url.
func redactDSN(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	creds, host, ok := strings.Cut(rest, "@")
	if !ok {
		return dsn
	}
	user, _, hasPass := strings.Cut(creds, ":")
	if !hasPass {
		return dsn
	}
	return scheme + "://" + user + ":xxxxx@" + host
}
