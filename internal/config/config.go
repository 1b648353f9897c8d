// Package config handles configuration loading, validation, and management for keyjournal.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"keyjournal/internal/logging"
)

// Version is the current configuration schema version.
const Version = 1

// Config holds the complete keyjournal configuration.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version" yaml:"version"`

	// Capture controls how raw events become records.
	Capture CaptureConfig `toml:"capture" json:"capture" yaml:"capture"`

	// Storage configures where records are persisted.
	Storage StorageConfig `toml:"storage" json:"storage" yaml:"storage"`

	// Persistence configures how records reach storage.
	Persistence PersistenceConfig `toml:"persistence" json:"persistence" yaml:"persistence"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`
}

// CaptureConfig holds engine options.
type CaptureConfig struct {
	// Layout names the symbol layout used by the decoder. Only "us" ships.
	Layout string `toml:"layout" json:"layout" yaml:"layout"`

	// TriggerButtons lists the mouse buttons that close a session:
	// "left", "right", "middle".
	TriggerButtons []string `toml:"trigger_buttons" json:"trigger_buttons" yaml:"trigger_buttons"`

	// AuditKeystrokes writes one keystroke record per key-down in addition
	// to the click records.
	AuditKeystrokes bool `toml:"audit_keystrokes" json:"audit_keystrokes" yaml:"audit_keystrokes"`

	// ChordsToTranscript keeps keys pressed while Ctrl is held out of the
	// visible text.
	ChordsToTranscript bool `toml:"chords_to_transcript" json:"chords_to_transcript" yaml:"chords_to_transcript"`

	// Screenshots enables frame capture on click.
	Screenshots bool `toml:"screenshots" json:"screenshots" yaml:"screenshots"`

	// ScreenshotDir is where captured frames are written.
	ScreenshotDir string `toml:"screenshot_dir" json:"screenshot_dir" yaml:"screenshot_dir"`

	// MaxWidth scales wider frames down before saving. Zero keeps the
	// original size.
	MaxWidth int `toml:"max_width" json:"max_width" yaml:"max_width"`
}

// StorageConfig holds persistence targets.
type StorageConfig struct {
	// Sinks lists enabled sinks: "sqlite", "csv".
	Sinks []string `toml:"sinks" json:"sinks" yaml:"sinks"`

	// DatabasePath is the SQLite database file.
	DatabasePath string `toml:"database_path" json:"database_path" yaml:"database_path"`

	// CSVPath is the CSV log file.
	CSVPath string `toml:"csv_path" json:"csv_path" yaml:"csv_path"`
}

// PersistenceConfig holds dispatch options.
type PersistenceConfig struct {
	// Async hands records to a background writer instead of persisting on
	// the input path.
	Async bool `toml:"async" json:"async" yaml:"async"`

	// QueueSize bounds the async queue. Submitters block when it is full.
	QueueSize int `toml:"queue_size" json:"queue_size" yaml:"queue_size"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is the log format: "text" or "json".
	Format string `toml:"format" json:"format" yaml:"format"`

	// Output is "stdout", "stderr", "file", or "both".
	Output string `toml:"output" json:"output" yaml:"output"`

	// FilePath is the log file used when Output includes a file.
	FilePath string `toml:"file_path" json:"file_path" yaml:"file_path"`

	// MaxSizeMB is the maximum log file size before rotation.
	MaxSizeMB int `toml:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`

	// MaxBackups is the number of old log files to keep.
	MaxBackups int `toml:"max_backups" json:"max_backups" yaml:"max_backups"`

	// Compress determines whether to compress rotated logs.
	Compress bool `toml:"compress" json:"compress" yaml:"compress"`

	// CrashDir is where crash reports are written.
	CrashDir string `toml:"crash_dir" json:"crash_dir" yaml:"crash_dir"`

	// CrashRetentionDays prunes older crash reports when a session starts.
	// Zero keeps every report.
	CrashRetentionDays int `toml:"crash_retention_days" json:"crash_retention_days" yaml:"crash_retention_days"`
}

// DefaultConfig returns a configuration with platform defaults.
func DefaultConfig() *Config {
	data := DataDir()
	return &Config{
		Version: Version,
		Capture: CaptureConfig{
			Layout:             "us",
			TriggerButtons:     []string{"left", "right"},
			ChordsToTranscript: true,
			Screenshots:        true,
			ScreenshotDir:      filepath.Join(data, "Screenshots"),
		},
		Storage: StorageConfig{
			Sinks:        []string{"sqlite", "csv"},
			DatabasePath: filepath.Join(data, "keyboard_log.db"),
			CSVPath:      filepath.Join(data, "keyboard_log.csv"),
		},
		Persistence: PersistenceConfig{
			Async:     false,
			QueueSize: 256,
		},
		Logging: LoggingConfig{
			Level:              "info",
			Format:             "text",
			Output:             "stderr",
			FilePath:           logging.DefaultLogPath(),
			MaxSizeMB:          10,
			MaxBackups:         5,
			Compress:           true,
			CrashDir:           logging.DefaultCrashDir(),
			CrashRetentionDays: 30,
		},
	}
}

// DataDir returns the keyjournal data directory. KEYJOURNAL_DATA_DIR
// overrides the platform default.
func DataDir() string {
	if envDir := os.Getenv("KEYJOURNAL_DATA_DIR"); envDir != "" {
		return envDir
	}
	return PlatformDataDir()
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(PlatformConfigDir(), "config.toml")
}

// Load reads configuration from path. A missing file yields the defaults.
// The format follows the extension: .toml, .json, .yaml/.yml; anything else
// is read as TOML. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg, err := loadConfigFromFile(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnvOverrides()
	return cfg, nil
}

func loadConfigFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode YAML: %w", err)
		}
	default:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("decode TOML: %w", err)
		}
	}
	return cfg, nil
}

// ApplyEnvOverrides applies KEYJOURNAL_* environment variables.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("KEYJOURNAL_DB_PATH"); v != "" {
		c.Storage.DatabasePath = v
	}
	if v := os.Getenv("KEYJOURNAL_CSV_PATH"); v != "" {
		c.Storage.CSVPath = v
	}
	if v := os.Getenv("KEYJOURNAL_SCREENSHOT_DIR"); v != "" {
		c.Capture.ScreenshotDir = v
	}
	if v := os.Getenv("KEYJOURNAL_SINKS"); v != "" {
		c.Storage.Sinks = splitList(v)
	}
	if v := os.Getenv("KEYJOURNAL_ASYNC"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Persistence.Async = b
		}
	}
	if v := os.Getenv("KEYJOURNAL_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("KEYJOURNAL_LOG_PATH"); v != "" {
		c.Logging.FilePath = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Capture.TriggerButtons = append([]string(nil), c.Capture.TriggerButtons...)
	clone.Storage.Sinks = append([]string(nil), c.Storage.Sinks...)
	return &clone
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}

// SinkEnabled reports whether the named sink is listed.
func (c *Config) SinkEnabled(name string) bool {
	for _, s := range c.Storage.Sinks {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

// LoggerConfig converts the logging section for logging.New. Invalid level
// or format strings fall back to the logging defaults; Validate reports them.
func (c *Config) LoggerConfig() *logging.Config {
	lc := logging.DefaultConfig()
	if lvl, err := logging.ParseLevel(c.Logging.Level); err == nil {
		lc.Level = lvl
	}
	if f, err := logging.ParseFormat(c.Logging.Format); err == nil {
		lc.Format = f
	}
	lc.Output = c.Logging.Output
	if c.Logging.FilePath != "" {
		lc.FilePath = c.Logging.FilePath
	}
	lc.MaxSize = int64(c.Logging.MaxSizeMB)
	lc.MaxBackups = c.Logging.MaxBackups
	lc.Compress = c.Logging.Compress
	return lc
}

// SaveConfig writes cfg to path, choosing the format from the extension
// (TOML by default).
func SaveConfig(cfg *Config, path string) error {
	var (
		data []byte
		err  error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(cfg, "", "  ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	default:
		var buf strings.Builder
		err = toml.NewEncoder(&buf).Encode(cfg)
		data = []byte(buf.String())
	}
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
