// Package config handles timewatch configuration from YAML files or SQLite.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Page modes.
const (
	ModeStatic = "static" // HTTP fetch, render once in process
	ModeLive   = "live"   // browser tab, observed until stopped
	ModeAuto   = "auto"   // fetch, escalate to live when the page updates itself
)

// Config is the top-level configuration.
type Config struct {
	Renderer RendererConfig `yaml:"renderer"`
	Browser  BrowserConfig  `yaml:"browser"`
	Pages    []PageConfig   `yaml:"pages"`
	Sinks    []SinkConfig   `yaml:"sinks"`
}

// RendererConfig controls which elements are rendered and how.
type RendererConfig struct {
	Selector       string `yaml:"selector"`
	Attribute      string `yaml:"attribute"`
	Marker         string `yaml:"marker"`
	TitleAttribute string `yaml:"title_attribute"`
	FragmentEvent  string `yaml:"fragment_event"`
	Locale         string `yaml:"locale"`   // empty = environment default
	Timezone       string `yaml:"timezone"` // IANA name, empty = local
}

// Location resolves Timezone.
func (r RendererConfig) Location() (*time.Location, error) {
	if r.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", r.Timezone, err)
	}
	return loc, nil
}

// BrowserConfig controls Chrome lifecycle.
type BrowserConfig struct {
	Remote           string        `yaml:"remote"`
	RecycleInterval  time.Duration `yaml:"recycle_interval"`
	ResourceBlocking []string      `yaml:"resource_blocking"`
	Stealth          string        `yaml:"stealth"` // headless | headful
	XvfbDisplay      string        `yaml:"xvfb_display"`
}

// PageConfig defines a page to render.
type PageConfig struct {
	ID   string `yaml:"id"`
	URL  string `yaml:"url"`
	Mode string `yaml:"mode"` // static | live | auto
}

// SinkConfig defines an output backend.
type SinkConfig struct {
	Type string `yaml:"type"` // stdout | webhook | sqlite
	URL  string `yaml:"url"`  // for webhook
	Path string `yaml:"path"` // for sqlite
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML configuration and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Renderer.Selector == "" {
		c.Renderer.Selector = "time[datetime]"
	}
	if c.Renderer.Attribute == "" {
		c.Renderer.Attribute = "datetime"
	}
	if c.Renderer.Marker == "" {
		c.Renderer.Marker = "x-transformed"
	}
	if c.Renderer.TitleAttribute == "" {
		c.Renderer.TitleAttribute = "title"
	}
	if c.Renderer.FragmentEvent == "" {
		c.Renderer.FragmentEvent = "up:fragment:inserted"
	}
	if c.Browser.RecycleInterval <= 0 {
		c.Browser.RecycleInterval = 4 * time.Hour
	}
	if c.Browser.XvfbDisplay == "" {
		c.Browser.XvfbDisplay = ":99"
	}
	if c.Browser.Stealth == "" {
		c.Browser.Stealth = "headless"
	}
	for i := range c.Pages {
		if c.Pages[i].Mode == "" {
			c.Pages[i].Mode = ModeAuto
		}
		if c.Pages[i].ID == "" {
			c.Pages[i].ID = c.Pages[i].URL
		}
	}
}

func (c *Config) validate() error {
	for _, p := range c.Pages {
		if p.URL == "" {
			return fmt.Errorf("config: page %q: url is required", p.ID)
		}
		switch p.Mode {
		case ModeStatic, ModeLive, ModeAuto:
		default:
			return fmt.Errorf("config: page %q: unknown mode %q", p.ID, p.Mode)
		}
	}
	for _, s := range c.Sinks {
		switch s.Type {
		case "stdout":
		case "webhook":
			if s.URL == "" {
				return fmt.Errorf("config: webhook sink needs url")
			}
		case "sqlite":
			if s.Path == "" {
				return fmt.Errorf("config: sqlite sink needs path")
			}
		default:
			return fmt.Errorf("config: unknown sink type %q", s.Type)
		}
	}
	return nil
}
