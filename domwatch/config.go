package domwatch

import (
	"context"
	"database/sql"

	"github.com/hazyhaar/timewatch/domwatch/internal/config"
)

// Config is the top-level timewatch configuration. Re-exported from internal.
type Config = config.Config

// RendererConfig controls which elements are rendered and how.
type RendererConfig = config.RendererConfig

// BrowserConfig controls Chrome lifecycle.
type BrowserConfig = config.BrowserConfig

// PageConfig defines a page to render.
type PageConfig = config.PageConfig

// SinkConfig defines an output backend.
type SinkConfig = config.SinkConfig

// Page modes.
const (
	ModeStatic = config.ModeStatic
	ModeLive   = config.ModeLive
	ModeAuto   = config.ModeAuto
)

// PagesSchema creates the watch_pages table read by LoadPages.
const PagesSchema = config.Schema

// LoadConfigFile reads a YAML configuration file.
func LoadConfigFile(path string) (*Config, error) {
	return config.LoadFile(path)
}

// ParseConfig decodes YAML configuration and applies defaults.
func ParseConfig(data []byte) (*Config, error) {
	return config.Parse(data)
}

// DefaultConfig returns a configuration with every default applied and no
// pages or sinks.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// LoadPages reads the active pages of the watch_pages table.
func LoadPages(ctx context.Context, db *sql.DB) ([]PageConfig, error) {
	return config.LoadPages(ctx, db)
}
