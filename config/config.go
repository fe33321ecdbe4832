// Package config loads engine settings from defaults, an optional YAML
// file and LOOM_* environment variables, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/syssam/loom/dialect/sql"
)

// Settings carries everything needed to open a driver and bind models.
type Settings struct {
	// Driver is the database/sql driver name (sqlite, postgres, mysql,
	// sqlserver, odbc, ...).
	Driver string `koanf:"driver"`
	// DSN is the driver-specific data source string.
	DSN string `koanf:"dsn"`
	// Database qualifies table names in joined queries on backends that
	// need it.
	Database string `koanf:"database"`
	// Debug logs every generated statement before execution.
	Debug bool `koanf:"debug"`
}

var defaults = map[string]any{
	"driver":   "sqlite",
	"dsn":      "file:loom.db?_pragma=foreign_keys(1)",
	"database": "",
	"debug":    false,
}

// Load reads settings from the given YAML file, if any, layered over the
// defaults and under LOOM_* environment variables (LOOM_DSN, LOOM_DEBUG,
// ...).
func Load(path string) (*Settings, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("config: defaults: %w", err)
	}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("config: %s: %w", path, err)
			}
		}
	}
	if err := k.Load(env.Provider("LOOM_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "LOOM_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}
	var s Settings
	if err := k.Unmarshal("", &s); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks that a driver name and data source are present. Driver
// names outside the known families are allowed; they run as the default
// dialect family.
func (s *Settings) Validate() error {
	if s.Driver == "" {
		return fmt.Errorf("config: driver is required")
	}
	if s.DSN == "" {
		return fmt.Errorf("config: dsn is required")
	}
	return nil
}

// Open opens a dialect driver from the settings.
func (s *Settings) Open() (*sql.Driver, error) {
	return sql.Open(s.Driver, s.DSN)
}
