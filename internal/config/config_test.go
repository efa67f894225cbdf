package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/usage-tracker/pkg/tracker"
)

func TestSetDefaults(t *testing.T) {
	t.Helper()

	cfg := &Config{}
	setDefaults(cfg)

	assertStringEqual(t, "service.name", defaultServiceName, cfg.Service.Name)
	assertStringEqual(t, "service.version", defaultVersion, cfg.Service.Version)
	assertStringEqual(t, "tracker.api_endpoint", tracker.DefaultAPIEndpoint, cfg.Tracker.APIEndpoint)
	assertStringEqual(t, "tracker.default_event_name", tracker.DefaultEventName, cfg.Tracker.DefaultEventName)
	assertStringEqual(t, "transport.mode", defaultTransportMode, cfg.Transport.Mode)
	assertIntEqual(t, "transport.beacon_queue_size", defaultBeaconQueueSize, cfg.Transport.BeaconQueueSize)
	assertStringEqual(t, "logging.level", defaultLoggingLevel, cfg.Logging.Level)
	assertStringEqual(t, "logging.format", defaultLoggingFmt, cfg.Logging.Format)

	if cfg.Transport.Timeout != 0 {
		t.Errorf("transport.timeout: got %v, want no deadline", cfg.Transport.Timeout)
	}
}

func TestValidate_MissingAccessKey(t *testing.T) {
	t.Helper()

	cfg := &Config{}
	setDefaults(cfg)

	err := cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, "tracker.access_key: is required", err.Error())
}

func TestValidate_Fields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"relative endpoint", func(c *Config) { c.Tracker.APIEndpoint = "/events" }, "tracker.api_endpoint: must be an absolute http(s) URL"},
		{"ftp endpoint", func(c *Config) { c.Tracker.APIEndpoint = "ftp://x.example.com" }, "tracker.api_endpoint: must be an absolute http(s) URL"},
		{"unknown transport", func(c *Config) { c.Transport.Mode = "carrier-pigeon" }, "transport.mode: must be one of: http, beacon"},
		{"negative timeout", func(c *Config) { c.Transport.Timeout = -time.Second }, "transport.timeout: must not be negative"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level: must be one of: debug, info, warn, error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			setDefaults(cfg)
			cfg.Tracker.AccessKey = "key"
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ENV_FILE", "")
	t.Setenv("TRACKER_ACCESS_KEY", "key_from_env")
	t.Setenv("TRACKER_MARKER_ATTRIBUTES", "data-analytics, data-track")

	path := filepath.Join(t.TempDir(), "config.yml")
	yml := `
tracker:
  access_key: key_from_file
  api_endpoint: https://collect.example.com/events
  disable_page_view: true
transport:
  mode: beacon
  timeout: 5s
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "key_from_env", cfg.Tracker.AccessKey, "env wins over file")
	assert.Equal(t, "https://collect.example.com/events", cfg.Tracker.APIEndpoint)
	assert.Equal(t, []string{"data-analytics", "data-track"}, cfg.Tracker.MarkerAttributes)
	assert.True(t, cfg.Tracker.DisablePageView)
	assert.Equal(t, TransportBeacon, cfg.Transport.Mode)
	assert.Equal(t, 5*time.Second, cfg.Transport.Timeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, tracker.DefaultEventName, cfg.Tracker.DefaultEventName)
	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ENV_FILE", "")
	t.Setenv("TRACKER_ACCESS_KEY", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	assert.Equal(t, tracker.DefaultAPIEndpoint, cfg.Tracker.APIEndpoint)
	assert.Equal(t, TransportHTTP, cfg.Transport.Mode)
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("ENV_FILE", "")
	// godotenv never overrides a variable that is present, even when empty.
	t.Setenv("TRACKER_DEFAULT_EVENT", "")
	require.NoError(t, os.Unsetenv("TRACKER_DEFAULT_EVENT"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TRACKER_DEFAULT_EVENT=interaction\n"), 0o600))

	cfg, err := Load(filepath.Join(dir, "config.yml"))
	require.NoError(t, err)
	assert.Equal(t, "interaction", cfg.Tracker.DefaultEventName)
}

func TestLoad_InvalidYAML(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ENV_FILE", "")

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("tracker: [unterminated"), 0o600))

	_, err := Load(path)
	assert.ErrorContains(t, err, "parse "+path)
}

func TestLoad_InvalidEnvValueReported(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ENV_FILE", "")
	t.Setenv("TRACKER_DISABLE_PAGE_VIEW", "sometimes")

	_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "TRACKER_DISABLE_PAGE_VIEW", vErr.Field)
}

func TestToTrackerConfig(t *testing.T) {
	t.Helper()

	cfg := &Config{Tracker: TrackerConfig{
		AccessKey:         "key",
		APIEndpoint:       "https://collect.example.com",
		DefaultEventName:  "interaction",
		MarkerAttributes:  []string{"data-analytics"},
		NameKeys:          []string{"analyticsEvent"},
		DisablePageView:   true,
		DisableVisibility: true,
	}}

	assert.Equal(t, tracker.Config{
		AccessKey:         "key",
		APIEndpoint:       "https://collect.example.com",
		DefaultEventName:  "interaction",
		MarkerAttributes:  []string{"data-analytics"},
		NameKeys:          []string{"analyticsEvent"},
		DisablePageView:   true,
		DisableVisibility: true,
	}, cfg.ToTrackerConfig())
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	assert.Equal(t, "config.yml", GetConfigPath("config.yml"))

	t.Setenv("CONFIG_PATH", "/etc/usage-tracker.yml")
	assert.Equal(t, "/etc/usage-tracker.yml", GetConfigPath("config.yml"))
}

// assertStringEqual is a test helper that checks string equality.
func assertStringEqual(t *testing.T, field, want, got string) {
	t.Helper()

	if got != want {
		t.Errorf("%s: got %q, want %q", field, got, want)
	}
}

// assertIntEqual is a test helper that checks int equality.
func assertIntEqual(t *testing.T, field string, want, got int) {
	t.Helper()

	if got != want {
		t.Errorf("%s: got %d, want %d", field, got, want)
	}
}
