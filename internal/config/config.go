package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the full runtime configuration of the rate provider plugin.
type Config struct {
	HTTPServer HTTPServer `yaml:"http_server"`
	RateAPI    RateAPI    `yaml:"rate_api"`
	Quoting    Quoting    `yaml:"quoting"`
	Journal    Journal    `yaml:"journal"`
	Log        Log        `yaml:"log"`
}

type HTTPServer struct {
	Addr string `yaml:"addr" env:"FX_HTTP_ADDR" env-default:":8080"`
}

type RateAPI struct {
	URL            string `yaml:"url" env:"FX_RATE_API_URL" env-default:"https://query.yahooapis.com/v1/public/yql"`
	BaseCurrency   string `yaml:"base_currency" env:"FX_BASE_CURRENCY" env-default:"USD"`
	TimeoutSeconds int    `yaml:"timeout_seconds" env:"FX_RATE_API_TIMEOUT_SECONDS" env-default:"10"`
}

type Quoting struct {
	// Spread is the fractional markup applied to raw rates, e.g. "0.002".
	Spread string `yaml:"spread" env:"FX_SPREAD" env-default:"0"`

	// Currencies lists tradable currency codes for the code-only variant.
	Currencies []string `yaml:"currencies" env:"FX_CURRENCIES"`

	// Pairs lists authorized ledger pairs as "sourceAsset>destinationAsset",
	// e.g. "EUR@https://eu.ledger.example>USD@https://us.ledger.example".
	Pairs []string `yaml:"pairs" env:"FX_PAIRS"`

	// UseProbeParam makes curves honor the caller-supplied source amount;
	// otherwise the fixed ProbeAmount is used for the second curve point.
	UseProbeParam bool   `yaml:"use_probe_param" env:"FX_USE_PROBE_PARAM" env-default:"false"`
	ProbeAmount   string `yaml:"probe_amount" env:"FX_PROBE_AMOUNT" env-default:"100000000"`
}

type Journal struct {
	// Path is the BadgerDB directory for the quote journal. Empty means an
	// in-memory journal that does not outlive the process.
	Path string `yaml:"path" env:"FX_JOURNAL_PATH" env-default:""`
}

type Log struct {
	Level string `yaml:"level" env:"FX_LOG_LEVEL" env-default:"info"`
}

// Load reads configuration from FX_CONFIG_PATH when set, falling back to
// environment variables only.
func Load() (*Config, error) {
	var cfg Config

	if path := os.Getenv("FX_CONFIG_PATH"); path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("failed to find config file: %w", err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		return &cfg, nil
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment config: %w", err)
	}
	return &cfg, nil
}

// MustLoad is Load for main(): any configuration error is fatal.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("%v\n", err)
	}
	return cfg
}

// SplitPair splits a configured "sourceAsset>destinationAsset" entry.
func SplitPair(pair string) (source, destination string, err error) {
	parts := strings.SplitN(pair, ">", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("pair %q must have the form sourceAsset>destinationAsset", pair)
	}
	return parts[0], parts[1], nil
}
