// =============================================================================
// Telemetry XLSX Converter - Configuration Module
// =============================================================================
//
// This module is responsible for loading the converter configuration. A run
// is configured from three layers, applied in order:
//
//   1. Built-in defaults (see applyDefaults)
//   2. An optional YAML file (--config flag)
//   3. Environment variables (CSV_OUT_DIR, TELEMETRY_*), which always win
//
// The scan directory is the only setting most deployments touch; it is
// selected by CSV_OUT_DIR and defaults to /data/csv.
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// DEFAULTS
// =============================================================================

const (
	// DefaultScanDir is used when neither the config file nor CSV_OUT_DIR
	// names a scan directory.
	DefaultScanDir = "/data/csv"

	// DefaultFilePattern matches the telemetry exports of the legacy logger.
	DefaultFilePattern = "telemetry_*.csv"

	// DefaultOutputExt is the extension given to converted workbooks.
	DefaultOutputExt = ".xlsx"

	// DefaultSheetName is the title of the single worksheet in each workbook.
	DefaultSheetName = "Telemetry Data"

	// BindingName applies display formats by recognized column name.
	BindingName = "name"

	// BindingPositional applies display formats by column position (1..5),
	// matching the behaviour of the original export script.
	BindingPositional = "positional"

	maxSheetNameLength = 31
)

// =============================================================================
// CONFIGURATION STRUCTURES
// =============================================================================

// Config holds the converter configuration.
type Config struct {
	// ScanDir is the directory scanned (non-recursively) for input files.
	ScanDir string `yaml:"scan_dir"`

	// FilePattern is the glob matched against file names in ScanDir.
	FilePattern string `yaml:"file_pattern"`

	// OutputExt replaces the input extension to form the output path.
	OutputExt string `yaml:"output_ext"`

	// SheetName is the worksheet title.
	SheetName string `yaml:"sheet_name"`

	// FormatBinding selects how display formats are chosen: "name" or
	// "positional".
	FormatBinding string `yaml:"format_binding"`

	// LockFile, when set, is an advisory lock held for the duration of a
	// scan so that two runs never overlap. Empty disables locking.
	LockFile string `yaml:"lock_file"`

	CSV     CSVSettings   `yaml:"csv"`
	Logging LoggingConfig `yaml:"logging"`
}

// CSVSettings contains settings for parsing the input files.
type CSVSettings struct {
	// Delimiter separates fields. Accepts a single character or one of the
	// names "tab", "pipe", "semicolon".
	// Default: ","
	Delimiter string `yaml:"delimiter"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is one of text, json, auto.
	Format string `yaml:"format"`
}

// envOverrides mirrors the settings that may be supplied through the
// environment. Fields are left empty when the variable is unset so they
// can be layered over file values.
type envOverrides struct {
	ScanDir       string `envconfig:"CSV_OUT_DIR"`
	FilePattern   string `envconfig:"TELEMETRY_FILE_PATTERN"`
	OutputExt     string `envconfig:"TELEMETRY_OUTPUT_EXT"`
	SheetName     string `envconfig:"TELEMETRY_SHEET_NAME"`
	FormatBinding string `envconfig:"TELEMETRY_FORMAT_BINDING"`
	LockFile      string `envconfig:"TELEMETRY_LOCK_FILE"`
	Delimiter     string `envconfig:"TELEMETRY_CSV_DELIMITER"`
	LogLevel      string `envconfig:"TELEMETRY_LOG_LEVEL"`
	LogFormat     string `envconfig:"TELEMETRY_LOG_FORMAT"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns a configuration with every field set to its default.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load builds the configuration from defaults, the YAML file at configPath
// (skipped when configPath is empty) and the environment.
//
// PARAMETERS:
//   - configPath: Path to a YAML configuration file, or "".
//
// RETURNS:
//   - A pointer to the validated Config.
//   - An error if the file cannot be read or parsed, the environment cannot
//     be processed, or the result fails validation.
//
// The scan directory is NOT checked for existence here; a missing scan
// directory is reported by the scanner as a configuration error with its
// own exit status.
func Load(configPath string) (*Config, error) {
	var cfg Config

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyDefaults(&cfg)

	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	mergeEnv(&cfg, env)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(cfg *Config) {
	if cfg.ScanDir == "" {
		cfg.ScanDir = DefaultScanDir
	}
	if cfg.FilePattern == "" {
		cfg.FilePattern = DefaultFilePattern
	}
	if cfg.OutputExt == "" {
		cfg.OutputExt = DefaultOutputExt
	}
	if cfg.SheetName == "" {
		cfg.SheetName = DefaultSheetName
	}
	if cfg.FormatBinding == "" {
		cfg.FormatBinding = BindingName
	}
	if cfg.CSV.Delimiter == "" {
		cfg.CSV.Delimiter = ","
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

// mergeEnv copies every non-empty environment value over cfg.
func mergeEnv(cfg *Config, env envOverrides) {
	overlay := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}

	overlay(&cfg.ScanDir, env.ScanDir)
	overlay(&cfg.FilePattern, env.FilePattern)
	overlay(&cfg.OutputExt, env.OutputExt)
	overlay(&cfg.SheetName, env.SheetName)
	overlay(&cfg.FormatBinding, env.FormatBinding)
	overlay(&cfg.LockFile, env.LockFile)
	overlay(&cfg.CSV.Delimiter, env.Delimiter)
	overlay(&cfg.Logging.Level, env.LogLevel)
	overlay(&cfg.Logging.Format, env.LogFormat)
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the configuration for values the converter cannot use.
func (c *Config) Validate() error {
	if _, err := filepath.Match(c.FilePattern, ""); err != nil {
		return fmt.Errorf("file_pattern %q is not a valid glob: %w", c.FilePattern, err)
	}
	if strings.ContainsRune(c.FilePattern, filepath.Separator) {
		return fmt.Errorf("file_pattern %q must not contain a path separator", c.FilePattern)
	}

	if !strings.HasPrefix(c.OutputExt, ".") || len(c.OutputExt) < 2 {
		return fmt.Errorf("output_ext %q must start with '.'", c.OutputExt)
	}
	if strings.EqualFold(c.OutputExt, c.InputExt()) {
		return fmt.Errorf("output_ext %q must differ from the input extension", c.OutputExt)
	}

	if err := validateSheetName(c.SheetName); err != nil {
		return err
	}

	switch c.FormatBinding {
	case BindingName, BindingPositional:
	default:
		return fmt.Errorf("format_binding %q must be %q or %q", c.FormatBinding, BindingName, BindingPositional)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json", "auto":
	default:
		return fmt.Errorf("logging.format %q is not one of text, json, auto", c.Logging.Format)
	}

	return nil
}

// InputExt returns the extension of the file pattern, e.g. ".csv".
func (c *Config) InputExt() string {
	return filepath.Ext(c.FilePattern)
}

func validateSheetName(name string) error {
	if name == "" || len([]rune(name)) > maxSheetNameLength {
		return fmt.Errorf("sheet_name %q must be 1 to %d characters", name, maxSheetNameLength)
	}
	if strings.ContainsAny(name, `[]:*?/\`) {
		return fmt.Errorf("sheet_name %q contains a character not allowed by Excel", name)
	}
	return nil
}
