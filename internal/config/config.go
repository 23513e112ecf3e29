// Package config defines the sync job configuration and its loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers .env, an optional YAML file and STARSYNC_ env vars on top.
// - External errors must be wrapped via this package's sentinel errors.
package config

import "time"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// LogFile receives a copy of every log record; empty disables the file.
	LogFile string `koanf:"log_file"`

	// BaseURL is the source catalog API root, e.g. "https://swapi.dev/api/".
	BaseURL string `koanf:"base_url" validate:"required,url"`

	// PictureURLTemplate formats a character ID into its portrait URL via "{}" or "%s".
	PictureURLTemplate string `koanf:"picture_url_template" validate:"required"`

	// DestinationURL is the XML-RPC server root, e.g. "http://localhost:8069".
	DestinationURL string `koanf:"destination_url" validate:"required,url"`

	// Database, Username and Password are the destination credentials.
	Database string `koanf:"database" validate:"required"`
	Username string `koanf:"username" validate:"required"`
	Password string `koanf:"password"`

	// PlanetModel and ContactModel name the destination record kinds.
	PlanetModel  string `koanf:"planet_model" validate:"required"`
	ContactModel string `koanf:"contact_model" validate:"required"`

	// ImageField and PlanetField name the contact attributes for portrait and planet reference.
	ImageField  string `koanf:"image_field" validate:"required"`
	PlanetField string `koanf:"planet_field" validate:"required"`

	// HTTPTimeoutMS bounds each source request; 0 means no timeout.
	HTTPTimeoutMS int `koanf:"http_timeout_ms" validate:"gte=0"`

	// SourceRateLimitRPS throttles source requests; <= 0 disables throttling.
	SourceRateLimitRPS float64 `koanf:"source_rate_limit_rps"`
	SourceRateBurst    int     `koanf:"source_rate_burst" validate:"gte=0"`

	// FetchWorkers bounds concurrent homeworld fetches; 1 keeps them sequential.
	FetchWorkers int `koanf:"fetch_workers" validate:"gte=1"`

	// MetricsPushgatewayURL, when set, receives the run metrics at exit.
	MetricsPushgatewayURL string `koanf:"metrics_pushgateway_url" validate:"omitempty,url"`

	// MetricsTextfile, when set, receives the run metrics in text exposition format.
	MetricsTextfile string `koanf:"metrics_textfile"`

	// MetricsJob is the Pushgateway job label.
	MetricsJob string `koanf:"metrics_job"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFile:            "starsync.log",
		BaseURL:            "https://swapi.dev/api/",
		PictureURLTemplate: "https://starwars-visualguide.com/assets/img/characters/{}.jpg",
		DestinationURL:     "http://localhost:8069",
		Database:           "odoo16",
		Username:           "admin",
		Password:           "admin",
		PlanetModel:        "res.planet",
		ContactModel:       "res.partner",
		ImageField:         "image_1920",
		PlanetField:        "planet",
		HTTPTimeoutMS:      30_000,
		SourceRateLimitRPS: 5,
		SourceRateBurst:    5,
		FetchWorkers:       1,
		MetricsJob:         "starsync",
	}
}

// HTTPTimeout returns HTTPTimeoutMS as a duration.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutMS) * time.Millisecond
}
