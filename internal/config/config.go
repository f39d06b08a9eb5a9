package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// EndpointEnv names the environment variable that overrides Config.Endpoint.
// The endpoint is the one setting the deployed site actually depends on, so it
// can be supplied without touching the YAML file.
const EndpointEnv = "CRAFTCAL_ENDPOINT"

// SnapshotConfig controls the headless-browser preview of the calendar page.
type SnapshotConfig struct {
	// Cron is a cron-style schedule (e.g. "*/30 * * * *"). Empty disables
	// periodic capture; `craftcal snapshot` still works.
	Cron string `yaml:"cron" json:"cron"`
	// Output is the PNG path served at /preview.png.
	Output string `yaml:"output" json:"output"`
	Width  int    `yaml:"width" json:"width"`
	Height int    `yaml:"height" json:"height"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the web UI.
	Listen string `yaml:"listen" json:"listen"`

	// Endpoint is the event feed URL. The same URL receives submissions.
	Endpoint string `yaml:"endpoint" json:"endpoint"`

	// Timezone is the IANA zone that decides what "today" is for the
	// calendar cursor and the date picker.
	Timezone string `yaml:"timezone" json:"timezone"`

	// RequestTimeoutSeconds bounds feed and submission HTTP calls.
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds" json:"request_timeout_seconds"`

	// LogLevel is one of debug, info, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// CSRFKey, when 32 bytes long, enables CSRF protection on the submit form.
	CSRFKey string `yaml:"csrf_key,omitempty" json:"-"`

	Snapshot SnapshotConfig `yaml:"snapshot" json:"snapshot"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:                "127.0.0.1:8080",
		Endpoint:              "",
		Timezone:              "America/New_York",
		RequestTimeoutSeconds: 15,
		LogLevel:              "info",
		Snapshot: SnapshotConfig{
			Cron:   "",
			Output: "./cache/preview.png",
			Width:  1280,
			Height: 1024,
		},
	}
}

// Normalize fills in missing/zero values with defaults so that partially
// filled configs still behave.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.RequestTimeoutSeconds <= 0 {
		c.RequestTimeoutSeconds = def.RequestTimeoutSeconds
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "error":
		c.LogLevel = strings.ToLower(c.LogLevel)
	default:
		c.LogLevel = def.LogLevel
	}
	if c.Snapshot.Output == "" {
		c.Snapshot.Output = def.Snapshot.Output
	}
	if c.Snapshot.Width <= 0 {
		c.Snapshot.Width = def.Snapshot.Width
	}
	if c.Snapshot.Height <= 0 {
		c.Snapshot.Height = def.Snapshot.Height
	}
}

// ApplyEnv overrides file values with environment settings.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EndpointEnv)); v != "" {
		c.Endpoint = v
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     permissions and returned.
//   - Otherwise the YAML is read, normalized and the environment override
//     is applied.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				cfg.ApplyEnv()
				return cfg, err
			}
			cfg.ApplyEnv()
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	cfg.ApplyEnv()

	return &cfg, nil
}

// Save writes the configuration atomically (temp file + rename) with 0600
// permissions, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".craftcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// Save is a convenience method that delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
