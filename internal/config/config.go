package config

import (
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const envPrefix = "pos"

// DefaultSessionSecret is only fit for local runs.
const DefaultSessionSecret = "change-me"

// Config holds all settings of the POS service. Every field is read from a
// POS_* environment variable.
type Config struct {
	HTTPAddress   string `envconfig:"http_address" default:":8080"`
	LogLevel      string `envconfig:"log_level" default:"info"`
	SessionSecret string `envconfig:"session_secret" default:"change-me"`

	Database DatabaseConfig `envconfig:"db"`
	Tax      TaxConfig      `envconfig:"tax"`
	Receipt  ReceiptConfig  `envconfig:"receipt"`
	OIDC     OIDCConfig     `envconfig:"oidc"`
	SMS      SMSConfig      `envconfig:"sms"`
}

type DatabaseConfig struct {
	// Driver is either "postgres" or "sqlite".
	Driver string `envconfig:"driver" default:"postgres"`
	DSN    string `envconfig:"dsn" default:"host=localhost user=postgres password=postgres dbname=restaurant port=5432 sslmode=disable"`
}

type TaxConfig struct {
	SGSTRate string `envconfig:"sgst_rate" default:"0.025"`
	CGSTRate string `envconfig:"cgst_rate" default:"0.025"`
}

type ReceiptConfig struct {
	Name    string `envconfig:"name" default:"GASTROGENIUS RESTAURANT"`
	Tagline string `envconfig:"tagline" default:"Pure Veg"`
	Address string `envconfig:"address" default:"Mumbai, India"`
	FSSAI   string `envconfig:"fssai" default:"12345678901234"`
}

type OIDCConfig struct {
	Issuer    string `envconfig:"issuer"`
	ClientID  string `envconfig:"client_id"`
	RoleClaim string `envconfig:"role_claim" default:"role"`
}

// SMSConfig points at an Africa's Talking style messaging gateway. An empty
// URL keeps bills in the log only.
type SMSConfig struct {
	URL      string `envconfig:"url"`
	Username string `envconfig:"username"`
	APIKey   string `envconfig:"api_key"`
	SenderID string `envconfig:"sender_id"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse env")
	}
	if _, _, err := cfg.Tax.Rates(); err != nil {
		return nil, err
	}
	if cfg.Database.Driver != "postgres" && cfg.Database.Driver != "sqlite" {
		return nil, errors.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
	return cfg, nil
}

// UsesDefaultSessionSecret reports whether cookies would be signed with the
// well-known default key.
func (c *Config) UsesDefaultSessionSecret() bool {
	return c.SessionSecret == "" || c.SessionSecret == DefaultSessionSecret
}

// CheckServe rejects settings that are unsafe for a shared deployment. The
// default session secret is tolerated only against a local sqlite database.
func (c *Config) CheckServe() error {
	if c.UsesDefaultSessionSecret() && c.Database.Driver != "sqlite" {
		return errors.New("POS_SESSION_SECRET must be set when serving from postgres")
	}
	return nil
}

// Rates returns SGST and CGST as decimals.
func (t TaxConfig) Rates() (sgst, cgst decimal.Decimal, err error) {
	sgst, err = decimal.NewFromString(t.SGSTRate)
	if err != nil {
		return sgst, cgst, errors.Wrapf(err, "invalid sgst rate %q", t.SGSTRate)
	}
	cgst, err = decimal.NewFromString(t.CGSTRate)
	if err != nil {
		return sgst, cgst, errors.Wrapf(err, "invalid cgst rate %q", t.CGSTRate)
	}
	return sgst, cgst, nil
}
