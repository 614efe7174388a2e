// Package config provides configuration loading for the chunkjson command.
//
// Configuration is layered: built-in defaults, then a single file named by
// the --config flag or the CHUNKJSON_CONFIG environment variable, then
// CHUNKJSON_* environment variables. Command-line flags are applied last by
// the command itself. There is no automatic file discovery.
//
// The file format follows the extension: .yaml/.yml (YAML), .json/.jsonc
// (JSON with comments and trailing commas) or .toml.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	j "github.com/goccy/go-json"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/reoring/chunkjson"
)

// EnvConfig names the environment variable holding the config file path.
const EnvConfig = "CHUNKJSON_CONFIG"

// Config is the complete configuration of a decode run.
type Config struct {
	// MaxDepth bounds fragment decoding depth; negative disables the bound.
	MaxDepth int `yaml:"max_depth" json:"max_depth" toml:"max_depth"`
	// MaxNesting bounds the JSON nesting of one input line; 0 disables.
	MaxNesting int `yaml:"max_nesting" json:"max_nesting" toml:"max_nesting"`
	// MaxLineBytes bounds the length of one input line; 0 disables.
	MaxLineBytes int64 `yaml:"max_line_bytes" json:"max_line_bytes" toml:"max_line_bytes"`
	// MaxPatches bounds the number of patch lines; 0 disables.
	MaxPatches int `yaml:"max_patches" json:"max_patches" toml:"max_patches"`
	// OnDuplicateKey is one of "ignore", "warn", "reject".
	OnDuplicateKey string `yaml:"on_duplicate_key" json:"on_duplicate_key" toml:"on_duplicate_key"`

	SortKeys bool   `yaml:"sort_keys" json:"sort_keys" toml:"sort_keys"`
	Indent   string `yaml:"indent" json:"indent" toml:"indent"`
	Compact  bool   `yaml:"compact" json:"compact" toml:"compact"`

	// Driver is "go-json" or "encoding/json".
	Driver string `yaml:"driver" json:"driver" toml:"driver"`
	// Decompress is "auto" (sniff gzip/zstd/lz4) or "none".
	Decompress string `yaml:"decompress" json:"decompress" toml:"decompress"`
	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level" json:"log_level" toml:"log_level"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		MaxDepth:       chunkjson.DefaultMaxDepth,
		OnDuplicateKey: "ignore",
		Indent:         chunkjson.DefaultIndent,
		Driver:         chunkjson.DriverGoJSON,
		Decompress:     "auto",
		LogLevel:       "warn",
	}
}

// Load builds the configuration from defaults, the file at path (or the
// file named by CHUNKJSON_CONFIG when path is empty) and the environment.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads defaults merged with a single file, without consulting the
// environment.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	case ".json", ".jsonc":
		err = j.Unmarshal(jsonc.ToJSON(data), c)
	case ".toml":
		err = toml.Unmarshal(data, c)
	default:
		return fmt.Errorf("config %s: unsupported extension %q (want .yaml, .yml, .json, .jsonc or .toml)", path, ext)
	}
	if err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from CHUNKJSON_* variables found via lookup.
// Every field has a variable named after its key, upper-cased. Empty
// values are ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	intVar := func(name string, dst *int) {
		if v, ok := lookup(name); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = n
		}
	}
	stringVar := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	int64Var := func(name string, dst *int64) {
		if v, ok := lookup(name); ok && v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = n
		}
	}
	boolVar := func(name string, dst *bool) {
		if v, ok := lookup(name); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = b
		}
	}
	intVar("CHUNKJSON_MAX_DEPTH", &c.MaxDepth)
	intVar("CHUNKJSON_MAX_NESTING", &c.MaxNesting)
	int64Var("CHUNKJSON_MAX_LINE_BYTES", &c.MaxLineBytes)
	intVar("CHUNKJSON_MAX_PATCHES", &c.MaxPatches)
	stringVar("CHUNKJSON_ON_DUPLICATE_KEY", &c.OnDuplicateKey)
	boolVar("CHUNKJSON_SORT_KEYS", &c.SortKeys)
	stringVar("CHUNKJSON_INDENT", &c.Indent)
	boolVar("CHUNKJSON_COMPACT", &c.Compact)
	stringVar("CHUNKJSON_DRIVER", &c.Driver)
	stringVar("CHUNKJSON_DECOMPRESS", &c.Decompress)
	stringVar("CHUNKJSON_LOG_LEVEL", &c.LogLevel)
	return errors.Join(errs...)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error
	if c.MaxNesting < 0 {
		errs = append(errs, fmt.Errorf("max_nesting must not be negative"))
	}
	if c.MaxLineBytes < 0 {
		errs = append(errs, fmt.Errorf("max_line_bytes must not be negative"))
	}
	if c.MaxPatches < 0 {
		errs = append(errs, fmt.Errorf("max_patches must not be negative"))
	}
	if _, err := parseSeverity(c.OnDuplicateKey); err != nil {
		errs = append(errs, err)
	}
	if _, err := chunkjson.DriverByName(c.Driver); err != nil {
		errs = append(errs, err)
	}
	if c.Decompress != "auto" && c.Decompress != "none" {
		errs = append(errs, fmt.Errorf("decompress must be one of: auto, none"))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

// Options projects the configuration onto decoder options.
func (c *Config) Options(logger *slog.Logger) (chunkjson.Options, error) {
	sev, err := parseSeverity(c.OnDuplicateKey)
	if err != nil {
		return chunkjson.Options{}, err
	}
	driver, err := chunkjson.DriverByName(c.Driver)
	if err != nil {
		return chunkjson.Options{}, err
	}
	return chunkjson.Options{
		MaxDepth:       c.MaxDepth,
		MaxNesting:     c.MaxNesting,
		MaxLineBytes:   c.MaxLineBytes,
		MaxPatches:     c.MaxPatches,
		OnDuplicateKey: sev,
		Driver:         driver,
		Logger:         logger,
	}, nil
}

// WriteOptions projects the configuration onto output options.
func (c *Config) WriteOptions() chunkjson.WriteOptions {
	return chunkjson.WriteOptions{Indent: c.Indent, SortKeys: c.SortKeys, Compact: c.Compact}
}

func parseSeverity(s string) (chunkjson.Severity, error) {
	switch s {
	case "", "ignore":
		return chunkjson.Ignore, nil
	case "warn":
		return chunkjson.Warn, nil
	case "reject":
		return chunkjson.Reject, nil
	default:
		return 0, fmt.Errorf("on_duplicate_key must be one of: ignore, warn, reject")
	}
}
