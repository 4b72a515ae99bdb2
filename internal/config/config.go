package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// ProjectFile is the per-directory config file name.
const ProjectFile = ".clicktrailconfig"

// Config holds all configurable clicktrail settings.
type Config struct {
	OutputDir      string `json:"output_dir"`
	DefaultFormat  string `json:"default_format"` // "pdf" | "json" | "markdown"
	DwellMS        int    `json:"dwell_ms"`       // overlay time before each screenshot
	Headless       *bool  `json:"headless,omitempty"`
	ListenAddr     string `json:"listen_addr"` // serve command
	ViewportWidth  int    `json:"viewport_width"`
	ViewportHeight int    `json:"viewport_height"`
	LogLevel       string `json:"log_level"`
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	headless := false
	return Config{
		OutputDir:      ".",
		DefaultFormat:  "pdf",
		DwellMS:        100,
		Headless:       &headless,
		ListenAddr:     "127.0.0.1:8765",
		ViewportWidth:  1280,
		ViewportHeight: 800,
		LogLevel:       "info",
	}
}

// Dwell returns the dwell time, falling back to the default for values <= 0.
func (c Config) Dwell() time.Duration {
	if c.DwellMS <= 0 {
		return time.Duration(Defaults().DwellMS) * time.Millisecond
	}
	return time.Duration(c.DwellMS) * time.Millisecond
}

// IsHeadless reports whether the browser should run without a window.
func (c Config) IsHeadless() bool {
	return c.Headless != nil && *c.Headless
}

// GlobalPath returns ~/.config/clicktrail/config.json.
func GlobalPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "clicktrail", "config.json"), nil
}

// LoadGlobal reads the global config file.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	path, err := GlobalPath()
	if err != nil {
		return nil, err
	}
	return loadFile(path, true)
}

// LoadProject reads .clicktrailconfig in the current working directory.
// Returns nil (no error) if the file is absent.
func LoadProject() (*Config, error) {
	return loadFile(ProjectFile, false)
}

// Load reads and merges the global and project files.
func Load() (Config, error) {
	global, err := LoadGlobal()
	if err != nil {
		return Config{}, err
	}
	project, err := LoadProject()
	if err != nil {
		return Config{}, err
	}
	return Merge(global, project), nil
}

// loadFile reads and parses a JSON config file at path.
// If returnDefaults is true, returns defaults when the file is absent.
// If returnDefaults is false, returns nil when the file is absent.
func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Merge combines global and project configs, with project taking precedence.
// Missing keys fall back to global, then defaults.
func Merge(global, project *Config) Config {
	result := Defaults()
	for _, c := range []*Config{global, project} {
		if c != nil {
			apply(&result, c)
		}
	}
	return result
}

// apply copies every set field of src over dst.
func apply(dst, src *Config) {
	if src.OutputDir != "" {
		dst.OutputDir = src.OutputDir
	}
	if src.DefaultFormat != "" {
		dst.DefaultFormat = src.DefaultFormat
	}
	if src.DwellMS > 0 {
		dst.DwellMS = src.DwellMS
	}
	if src.Headless != nil {
		h := *src.Headless
		dst.Headless = &h
	}
	if src.ListenAddr != "" {
		dst.ListenAddr = src.ListenAddr
	}
	if src.ViewportWidth > 0 {
		dst.ViewportWidth = src.ViewportWidth
	}
	if src.ViewportHeight > 0 {
		dst.ViewportHeight = src.ViewportHeight
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
