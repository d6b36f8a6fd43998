package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/caarlos0/env/v11"

	"gitlab.com/dirk.krummacker/contact-book/internal/report"
)

// The supported storage backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Backends are the allowed values for the storage backend.
var Backends = []string{BackendJSON, BackendSQLite}

// The storage locations used when none is configured.
const (
	DefaultJSONPath   = "contacts.json"
	DefaultSQLitePath = "contacts.db"
)

var (
	ErrInvalidBackend = errors.New("config: invalid storage backend")
	ErrInvalidFormat  = errors.New("config: invalid export format")
)

// Config contains the settings of the contact book.
type Config struct {
	LogLevel string  `env:"LOG_LEVEL" envDefault:"warn"`
	Storage  Storage `envPrefix:"STORAGE_"`
	Export   Export  `envPrefix:"EXPORT_"`
}

// Storage describes where the contacts are kept between runs.
type Storage struct {
	Backend string `env:"BACKEND" envDefault:"json"`
	// Path is the file of the backend. If empty, a default file name for the backend is used.
	Path string `env:"PATH"`
}

// Export contains the defaults offered when exporting contacts.
type Export struct {
	File   string `env:"FILE" envDefault:"contacts.csv"`
	Format string `env:"FORMAT" envDefault:"csv"`
}

// NewConfig loads configuration from environment variables prefixed with CONTACTS_ and validates
// it.
//
// Usage example:
//
//	> CONTACTS_STORAGE_BACKEND=sqlite CONTACTS_STORAGE_PATH=/tmp/contacts.db contacts list
func NewConfig() (*Config, error) {
	cfg := Config{}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "CONTACTS_"}); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values that are restricted to a fixed set. Backend and format are compared
// case-insensitively and normalized to lower case.
func (c *Config) Validate() error {
	c.Storage.Backend = strings.ToLower(c.Storage.Backend)
	if !slices.Contains(Backends, c.Storage.Backend) {
		return fmt.Errorf("%w: %q", ErrInvalidBackend, c.Storage.Backend)
	}
	c.Export.Format = strings.ToLower(c.Export.Format)
	if !slices.Contains(report.Formats, c.Export.Format) {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.Export.Format)
	}
	return nil
}

// StoragePath returns the configured storage file, or the default file of the backend.
func (c *Config) StoragePath() string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	if c.Storage.Backend == BackendSQLite {
		return DefaultSQLitePath
	}
	return DefaultJSONPath
}
