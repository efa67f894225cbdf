// Package config loads the command-line host's configuration from a YAML file,
// .env files and environment variables.
package config

import (
	"fmt"
	"reflect"
	"time"

	"github.com/jonesrussell/north-cloud/usage-tracker/pkg/tracker"
)

// Transport modes.
const (
	TransportHTTP   = "http"
	TransportBeacon = "beacon"
)

// Default configuration values.
const (
	defaultServiceName     = "usage-tracker"
	defaultVersion         = "0.1.0"
	defaultTransportMode   = TransportHTTP
	defaultBeaconQueueSize = 64
	defaultLoggingLevel    = "info"
	defaultLoggingFmt      = "json"
)

// Config holds the application configuration.
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Tracker   TrackerConfig   `yaml:"tracker"`
	Transport TransportConfig `yaml:"transport"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServiceConfig holds process-level configuration.
type ServiceConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Debug   bool   `env:"APP_DEBUG" yaml:"debug"`
}

// TrackerConfig mirrors tracker.Config.
type TrackerConfig struct {
	AccessKey         string   `env:"TRACKER_ACCESS_KEY"        yaml:"access_key"`
	APIEndpoint       string   `env:"TRACKER_API_ENDPOINT"      yaml:"api_endpoint"`
	DefaultEventName  string   `env:"TRACKER_DEFAULT_EVENT"     yaml:"default_event_name"`
	MarkerAttributes  []string `env:"TRACKER_MARKER_ATTRIBUTES" yaml:"marker_attributes"`
	NameKeys          []string `env:"TRACKER_NAME_KEYS"         yaml:"name_keys"`
	DisablePageView   bool     `env:"TRACKER_DISABLE_PAGE_VIEW" yaml:"disable_page_view"`
	DisableVisibility bool     `yaml:"disable_visibility"`
}

// TransportConfig selects and tunes the delivery primitive.
type TransportConfig struct {
	Mode string `env:"TRACKER_TRANSPORT" yaml:"mode"`
	// Timeout bounds each POST. Zero sets no deadline.
	Timeout         time.Duration `env:"TRACKER_TIMEOUT" yaml:"timeout"`
	BeaconQueueSize int           `yaml:"beacon_queue_size"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL"  yaml:"level"`
	Format string `env:"LOG_FORMAT" yaml:"format"`
}

// Load reads configuration from dotenv files, the YAML file at path and the
// environment, in increasing priority, then fills in defaults. A missing file
// is not an error.
func Load(path string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	cfg := &Config{}
	if err := readYAML(path, cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := applyEnv(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	setDefaults(cfg)

	return cfg, nil
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setTrackerDefaults(&cfg.Tracker)
	setTransportDefaults(&cfg.Transport)
	setLoggingDefaults(&cfg.Logging)
}

func setServiceDefaults(svc *ServiceConfig) {
	if svc.Name == "" {
		svc.Name = defaultServiceName
	}
	if svc.Version == "" {
		svc.Version = defaultVersion
	}
}

func setTrackerDefaults(t *TrackerConfig) {
	if t.APIEndpoint == "" {
		t.APIEndpoint = tracker.DefaultAPIEndpoint
	}
	if t.DefaultEventName == "" {
		t.DefaultEventName = tracker.DefaultEventName
	}
}

func setTransportDefaults(tr *TransportConfig) {
	if tr.Mode == "" {
		tr.Mode = defaultTransportMode
	}
	if tr.BeaconQueueSize == 0 {
		tr.BeaconQueueSize = defaultBeaconQueueSize
	}
}

func setLoggingDefaults(log *LoggingConfig) {
	if log.Level == "" {
		log.Level = defaultLoggingLevel
	}
	if log.Format == "" {
		log.Format = defaultLoggingFmt
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validateRequired("tracker.access_key", c.Tracker.AccessKey); err != nil {
		return err
	}
	if err := validateURL("tracker.api_endpoint", c.Tracker.APIEndpoint); err != nil {
		return err
	}
	if err := validateTransportMode(c.Transport.Mode); err != nil {
		return err
	}
	if c.Transport.Timeout < 0 {
		return &ValidationError{Field: "transport.timeout", Message: "must not be negative"}
	}
	return validateLogLevel(c.Logging.Level)
}

// ToTrackerConfig converts the loaded settings into a tracker.Config.
func (c *Config) ToTrackerConfig() tracker.Config {
	return tracker.Config{
		AccessKey:         c.Tracker.AccessKey,
		APIEndpoint:       c.Tracker.APIEndpoint,
		DefaultEventName:  c.Tracker.DefaultEventName,
		MarkerAttributes:  c.Tracker.MarkerAttributes,
		NameKeys:          c.Tracker.NameKeys,
		DisablePageView:   c.Tracker.DisablePageView,
		DisableVisibility: c.Tracker.DisableVisibility,
	}
}
