// Package config loads the viewer configuration from YAML with environment
// overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/csheth/runreport/internal/logging"
	"github.com/csheth/runreport/internal/prefs"
)

const (
	EnvConfig        = "RUNREPORT_CONFIG"
	EnvPrefsBackend  = "RUNREPORT_PREFS_BACKEND"
	EnvLogLevel      = "RUNREPORT_LOG_LEVEL"
	EnvLogFile       = "RUNREPORT_LOG_FILE"
	defaultFrameRate = 16 * time.Millisecond
	maxFrameInterval = time.Second
)

var ErrInvalid = errors.New("config: invalid value")

type Config struct {
	TOC    TOCConfig      `yaml:"toc"`
	Prefs  PrefsConfig    `yaml:"prefs"`
	Render RenderConfig   `yaml:"render"`
	Log    logging.Config `yaml:"log"`
	Watch  bool           `yaml:"watch"`
}

type TOCConfig struct {
	// ThresholdRows is how many rows below the top of the report the
	// activation line sits.
	ThresholdRows int           `yaml:"threshold_rows"`
	FrameInterval time.Duration `yaml:"frame_interval"`
	PanelWidth    int           `yaml:"panel_width"`
	SmoothScroll  bool          `yaml:"smooth_scroll"`
}

type PrefsConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

type RenderConfig struct {
	// Style is a glamour style name used for the report header.
	Style string `yaml:"style"`
	// Wrap caps the content width; 0 follows the terminal.
	Wrap int `yaml:"wrap"`
}

func Default() Config {
	return Config{
		TOC: TOCConfig{
			ThresholdRows: 3,
			FrameInterval: defaultFrameRate,
			PanelWidth:    40,
			SmoothScroll:  true,
		},
		Prefs:  PrefsConfig{Backend: prefs.BackendFile},
		Render: RenderConfig{Style: "dark"},
		Log:    logging.Config{Level: "info"},
		Watch:  true,
	}
}

// Path resolves the configuration file location.
func Path() string {
	if env := os.Getenv(EnvConfig); env != "" {
		return env
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "runreport", "config.yaml")
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Read is Load without validation, for callers that layer more overrides
// on top and validate once at the end.
func Read(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if len(bytes.TrimSpace(data)) > 0 {
				if err := yaml.Unmarshal(data, &cfg); err != nil {
					return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
				}
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overrides fields from RUNREPORT_* variables.
func (c *Config) ApplyEnv() {
	if env := os.Getenv(EnvPrefsBackend); env != "" {
		c.Prefs.Backend = env
	}
	if env := os.Getenv(EnvLogLevel); env != "" {
		c.Log.Level = env
	}
	if env := os.Getenv(EnvLogFile); env != "" {
		c.Log.File = env
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.TOC.ThresholdRows < 1 {
		errs = append(errs, fmt.Errorf("%w: toc.threshold_rows must be at least 1, got %d", ErrInvalid, c.TOC.ThresholdRows))
	}
	if c.TOC.FrameInterval <= 0 || c.TOC.FrameInterval > maxFrameInterval {
		errs = append(errs, fmt.Errorf("%w: toc.frame_interval must be in (0, %s], got %s", ErrInvalid, maxFrameInterval, c.TOC.FrameInterval))
	}
	if c.TOC.PanelWidth < 16 {
		errs = append(errs, fmt.Errorf("%w: toc.panel_width must be at least 16, got %d", ErrInvalid, c.TOC.PanelWidth))
	}
	switch c.Prefs.Backend {
	case prefs.BackendFile, prefs.BackendSQLite, prefs.BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("%w: prefs.backend %q", ErrInvalid, c.Prefs.Backend))
	}
	if c.Render.Wrap < 0 {
		errs = append(errs, fmt.Errorf("%w: render.wrap must not be negative, got %d", ErrInvalid, c.Render.Wrap))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("%w: log.level: %v", ErrInvalid, err))
	}
	return errors.Join(errs...)
}
