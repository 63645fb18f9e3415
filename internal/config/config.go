// Package config loads runtime settings from the environment.
//
// Values come from TIFFIN_* environment variables, optionally seeded from a
// .env file. Variables already set in the environment win over the file.
package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Prefix is prepended to every variable name.
const Prefix = "tiffin"

// Config holds every runtime setting.
type Config struct {
	BusinessName string          `split_words:"true" default:"HOTEL BISMI"`
	DB           string          `default:"tiffin.db"`
	TaxRate      decimal.Decimal `split_words:"true" default:"0"`
	Currency     string          `default:"₹"`
	WalkInName   string          `split_words:"true" default:"Walk-in"`
	PaymentImage string          `split_words:"true" default:"images/QRpay.jpg"`
	Payee        string          `desc:"UPI payee for pay links"`
	Timezone     string          `default:"Local"`
	LogLevel     string          `split_words:"true" default:"info"`
	LogFormat    string          `split_words:"true" default:"text"`
	Listen       string          `default:"127.0.0.1:8080"`
}

// Load reads envFile (when non-empty and present) and then the environment.
// A missing envFile is not an error.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return Config{}, errors.Wrapf(err, "load %s", envFile)
		}
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "read environment")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values envconfig cannot.
func (c Config) Validate() error {
	if c.TaxRate.IsNegative() {
		return errors.Errorf("TIFFIN_TAX_RATE must not be negative, got %s", c.TaxRate)
	}
	if c.DB == "" {
		return errors.New("TIFFIN_DB must not be empty")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone. "Local" and "" mean the host zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "TIFFIN_TIMEZONE %q", c.Timezone)
	}
	return loc, nil
}
