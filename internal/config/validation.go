package config

import (
	"fmt"
	"strings"

	"keyjournal/internal/keystroke"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Has reports whether a field failed validation.
func (e ValidationErrors) Has(field string) bool {
	for _, err := range e {
		if err.Field == field {
			return true
		}
	}
	return false
}

// ValidateConfig validates every section and returns ValidationErrors, or
// nil when the configuration is usable.
func ValidateConfig(c *Config) error {
	var errs ValidationErrors

	if c.Version < 1 || c.Version > Version {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (current: %d)", c.Version, Version),
		})
	}

	errs = append(errs, validateCapture(&c.Capture)...)
	errs = append(errs, validateStorage(&c.Storage)...)
	errs = append(errs, validatePersistence(&c.Persistence)...)
	errs = append(errs, validateLogging(&c.Logging)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

var validButtons = map[string]bool{"left": true, "right": true, "middle": true}

func validateCapture(c *CaptureConfig) ValidationErrors {
	var errs ValidationErrors

	if _, err := keystroke.LayoutByName(c.Layout); err != nil {
		errs = append(errs, ValidationError{
			Field:   "capture.layout",
			Message: fmt.Sprintf("unknown layout: %s (valid: %s)", c.Layout, strings.Join(keystroke.LayoutNames(), ", ")),
		})
	}

	if len(c.TriggerButtons) == 0 {
		errs = append(errs, ValidationError{
			Field:   "capture.trigger_buttons",
			Message: "at least one trigger button is required",
		})
	}
	for _, b := range c.TriggerButtons {
		if !validButtons[strings.ToLower(b)] {
			errs = append(errs, ValidationError{
				Field:   "capture.trigger_buttons",
				Message: fmt.Sprintf("invalid button: %s (valid: left, right, middle)", b),
			})
		}
	}

	if c.MaxWidth < 0 {
		errs = append(errs, ValidationError{
			Field:   "capture.max_width",
			Message: "must not be negative",
		})
	}

	if c.Screenshots && c.ScreenshotDir == "" {
		errs = append(errs, ValidationError{
			Field:   "capture.screenshot_dir",
			Message: "screenshot directory is required when screenshots are enabled",
		})
	}

	return errs
}

func validateStorage(s *StorageConfig) ValidationErrors {
	var errs ValidationErrors

	for _, sink := range s.Sinks {
		switch strings.ToLower(sink) {
		case "sqlite":
			if s.DatabasePath == "" {
				errs = append(errs, ValidationError{
					Field:   "storage.database_path",
					Message: "database path is required when the sqlite sink is enabled",
				})
			}
		case "csv":
			if s.CSVPath == "" {
				errs = append(errs, ValidationError{
					Field:   "storage.csv_path",
					Message: "csv path is required when the csv sink is enabled",
				})
			}
		default:
			errs = append(errs, ValidationError{
				Field:   "storage.sinks",
				Message: fmt.Sprintf("unknown sink: %s (valid: sqlite, csv)", sink),
			})
		}
	}

	return errs
}

func validatePersistence(p *PersistenceConfig) ValidationErrors {
	var errs ValidationErrors
	if p.Async && p.QueueSize < 1 {
		errs = append(errs, ValidationError{
			Field:   "persistence.queue_size",
			Message: "queue size must be at least 1 when async persistence is enabled",
		})
	}
	return errs
}

func validateLogging(l *LoggingConfig) ValidationErrors {
	var errs ValidationErrors

	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid log level: %s (valid: debug, info, warn, error)", l.Level),
		})
	}

	switch l.Format {
	case "text", "json":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid log format: %s (valid: text, json)", l.Format),
		})
	}

	switch l.Output {
	case "stdout", "stderr":
	case "file", "both":
		if l.FilePath == "" {
			errs = append(errs, ValidationError{
				Field:   "logging.file_path",
				Message: "file path is required when output includes a file",
			})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.output",
			Message: fmt.Sprintf("invalid log output: %s (valid: stdout, stderr, file, both)", l.Output),
		})
	}

	if l.MaxSizeMB < 1 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_size_mb",
			Message: "max size must be at least 1 MB",
		})
	}

	if l.MaxBackups < 0 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_backups",
			Message: "max backups cannot be negative",
		})
	}

	if l.CrashRetentionDays < 0 {
		errs = append(errs, ValidationError{
			Field:   "logging.crash_retention_days",
			Message: "retention cannot be negative",
		})
	}

	return errs
}
