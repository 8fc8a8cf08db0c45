// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/karasu256/kcapi/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete host configuration.
type Config struct {
	// Shell settings for the interactive console
	Shell ShellConfig `toml:"shell" json:"shell"`

	// Dispatch settings for the command registry
	Dispatch DispatchConfig `toml:"dispatch" json:"dispatch"`

	// Log settings
	Log LogConfig `toml:"log" json:"log"`

	// Audit settings for the invocation log
	Audit AuditConfig `toml:"audit" json:"audit"`
}

// ShellConfig contains console settings.
type ShellConfig struct {
	// Prompt is printed before each line
	Prompt string `toml:"prompt" json:"prompt"`
	// HistoryFile stores entered lines between runs (empty = no history)
	HistoryFile string `toml:"history_file" json:"history_file"`
	// HistoryLimit caps the number of remembered lines (0 = unlimited)
	HistoryLimit int `toml:"history_limit" json:"history_limit"`
	// Color is "auto", "always" or "never"
	Color string `toml:"color" json:"color"`
	// SenderName identifies the console sender
	SenderName string `toml:"sender_name" json:"sender_name"`
}

// DispatchConfig contains command registry settings.
type DispatchConfig struct {
	// Prefix is an optional leading token such as "/"
	Prefix string `toml:"prefix" json:"prefix"`
	// Suggest enables "did you mean" hints for unknown commands
	Suggest bool `toml:"suggest" json:"suggest"`
	// Normalize folds full-width input with NFKC before parsing
	Normalize bool `toml:"normalize" json:"normalize"`
	// CooldownRate is the allowed commands per second per sender (0 = off)
	CooldownRate float64 `toml:"cooldown_rate" json:"cooldown_rate"`
	// CooldownBurst is the number of commands allowed back to back
	CooldownBurst int `toml:"cooldown_burst" json:"cooldown_burst"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is a logrus level name: "debug", "info", "warn", "error"
	Level string `toml:"level" json:"level"`
	// Format is "text" or "json"
	Format string `toml:"format" json:"format"`
	// File receives log output (empty = stderr)
	File string `toml:"file" json:"file"`
}

// AuditConfig contains invocation log settings.
type AuditConfig struct {
	// Enabled records every dispatched command
	Enabled bool `toml:"enabled" json:"enabled"`
	// Path is the SQLite database file
	Path string `toml:"path" json:"path"`
	// Keep is the number of most recent entries retained (0 = unlimited)
	Keep int `toml:"keep" json:"keep"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a new Config with all default values.
func Default() *Config {
	return &Config{
		Shell: ShellConfig{
			Prompt:       "kcapi> ",
			HistoryFile:  DefaultHistoryPath(),
			HistoryLimit: 500,
			Color:        "auto",
			SenderName:   "console",
		},
		Dispatch: DispatchConfig{
			Prefix:        "/",
			Suggest:       true,
			Normalize:     true,
			CooldownRate:  0,
			CooldownBurst: 1,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Audit: AuditConfig{
			Enabled: false,
			Path:    DefaultAuditPath(),
			Keep:    1000,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the path to the config directory (~/.kcapi).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".kcapi"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// DefaultHistoryPath returns ~/.kcapi/history.
func DefaultHistoryPath() string {
	dir, err := ConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "history")
}

// DefaultAuditPath returns ~/.kcapi/audit.db.
func DefaultAuditPath() string {
	dir, err := ConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "audit.db")
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the default location.
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last. The returned path is the file
// that was read, or "" when only defaults were used.
func Load() (*Config, string, error) {
	for _, pathFn := range []func() (string, error){ConfigPathTOML, ConfigPathJSON} {
		path, err := pathFn()
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(path); statErr != nil {
			continue
		}
		cfg, err := LoadFromPath(path)
		return cfg, path, err
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid config: %w", err)
	}
	return cfg, "", nil
}

// LoadFromPath loads configuration from a specific file path with full
// validation. Files ending in .json are read as JSON, anything else as TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if isJSONPath(path) {
		if err := loadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := loadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadTOML(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		fmt.Fprintf(os.Stderr, "Warning: ignoring unknown keys in %s: %s\n", path, strings.Join(keys, ", "))
	}
	return nil
}

func loadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// SaveTOML writes the configuration to path with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var sb strings.Builder
	sb.WriteString("# kcapi configuration\n\n")
	if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, []byte(sb.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON writes the configuration to path as indented JSON.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, append(data, '\n'), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// save writes cfg in the format implied by the extension of path.
func save(cfg *Config, path string) error {
	if isJSONPath(path) {
		return SaveJSON(cfg, path)
	}
	return SaveTOML(cfg, path)
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidateErrors collects multiple validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return "config validation failed:\n  - " + strings.Join(msgs, "\n  - ")
}

var (
	validColors     = []string{"auto", "always", "never"}
	validLogLevels  = []string{"trace", "debug", "info", "warn", "warning", "error", "fatal", "panic"}
	validLogFormats = []string{"text", "json"}
)

// Validate checks every field and returns all problems at once.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if !contains(validColors, c.Shell.Color) {
		errs = append(errs, ValidationError{Field: "shell.color", Value: c.Shell.Color, Message: "must be one of " + strings.Join(validColors, ", ")})
	}
	if c.Shell.HistoryLimit < 0 {
		errs = append(errs, ValidationError{Field: "shell.history_limit", Value: c.Shell.HistoryLimit, Message: "must not be negative"})
	}
	if strings.TrimSpace(c.Shell.SenderName) == "" {
		errs = append(errs, ValidationError{Field: "shell.sender_name", Value: c.Shell.SenderName, Message: "must not be empty"})
	}
	if strings.ContainsAny(c.Dispatch.Prefix, " \t\"'") {
		errs = append(errs, ValidationError{Field: "dispatch.prefix", Value: c.Dispatch.Prefix, Message: "must not contain whitespace or quotes"})
	}
	if c.Dispatch.CooldownRate < 0 {
		errs = append(errs, ValidationError{Field: "dispatch.cooldown_rate", Value: c.Dispatch.CooldownRate, Message: "must not be negative"})
	}
	if c.Dispatch.CooldownBurst < 1 {
		errs = append(errs, ValidationError{Field: "dispatch.cooldown_burst", Value: c.Dispatch.CooldownBurst, Message: "must be at least 1"})
	}
	if !contains(validLogLevels, strings.ToLower(c.Log.Level)) {
		errs = append(errs, ValidationError{Field: "log.level", Value: c.Log.Level, Message: "unknown log level"})
	}
	if !contains(validLogFormats, c.Log.Format) {
		errs = append(errs, ValidationError{Field: "log.format", Value: c.Log.Format, Message: "must be one of " + strings.Join(validLogFormats, ", ")})
	}
	if c.Audit.Enabled && c.Audit.Path == "" {
		errs = append(errs, ValidationError{Field: "audit.path", Value: c.Audit.Path, Message: "required when audit is enabled"})
	}
	if c.Audit.Keep < 0 {
		errs = append(errs, ValidationError{Field: "audit.keep", Value: c.Audit.Keep, Message: "must not be negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills zero values that have no meaningful zero state.
func (c *Config) SetDefaults() {
	defaults := Default()
	if c.Shell.Prompt == "" {
		c.Shell.Prompt = defaults.Shell.Prompt
	}
	if c.Shell.Color == "" {
		c.Shell.Color = defaults.Shell.Color
	}
	if c.Shell.SenderName == "" {
		c.Shell.SenderName = defaults.Shell.SenderName
	}
	if c.Dispatch.CooldownBurst == 0 {
		c.Dispatch.CooldownBurst = defaults.Dispatch.CooldownBurst
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides.
//
// Supported variables:
//   - KCAPI_PREFIX: overrides dispatch.prefix
//   - KCAPI_PROMPT: overrides shell.prompt
//   - KCAPI_HISTORY: overrides shell.history_file
//   - KCAPI_SUGGEST: overrides dispatch.suggest
//   - KCAPI_COOLDOWN_RATE: overrides dispatch.cooldown_rate
//   - KCAPI_LOG_LEVEL: overrides log.level
//   - KCAPI_LOG_FORMAT: overrides log.format
//   - KCAPI_AUDIT: overrides audit.enabled
func (c *Config) ApplyEnvOverrides() {
	if prefix, ok := os.LookupEnv("KCAPI_PREFIX"); ok {
		c.Dispatch.Prefix = prefix
	}
	if prompt := os.Getenv("KCAPI_PROMPT"); prompt != "" {
		c.Shell.Prompt = prompt
	}
	if history := os.Getenv("KCAPI_HISTORY"); history != "" {
		c.Shell.HistoryFile = history
	}
	if suggest := os.Getenv("KCAPI_SUGGEST"); suggest != "" {
		c.Dispatch.Suggest = suggest == "1" || strings.ToLower(suggest) == "true"
	}
	if raw := os.Getenv("KCAPI_COOLDOWN_RATE"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			c.Dispatch.CooldownRate = v
		}
	}
	if level := os.Getenv("KCAPI_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if format := os.Getenv("KCAPI_LOG_FORMAT"); format != "" {
		c.Log.Format = format
	}
	if audit := os.Getenv("KCAPI_AUDIT"); audit != "" {
		c.Audit.Enabled = audit == "1" || strings.ToLower(audit) == "true"
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "log.level").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set parses value into the field named by key. The change is not
// validated; call Validate afterwards.
func (c *Config) Set(key, value string) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: expected true or false, got %q", key, value)
		}
		field.SetBool(b)
	case reflect.Int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: expected an integer, got %q", key, value)
		}
		field.SetInt(int64(n))
	case reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%s: expected a number, got %q", key, value)
		}
		field.SetFloat(f)
	default:
		return fmt.Errorf("%s: unsupported field type %s", key, field.Kind())
	}
	return nil
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	parts := strings.Split(key, ".")
	if len(parts) != 2 {
		return reflect.Value{}, fmt.Errorf("invalid key %q: expected section.field", key)
	}

	section, ok := fieldByTag(reflect.ValueOf(c).Elem(), parts[0])
	if !ok || section.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("unknown config section: %s", parts[0])
	}
	field, ok := fieldByTag(section, parts[1])
	if !ok {
		return reflect.Value{}, fmt.Errorf("unknown config key: %s", key)
	}
	return field, nil
}

func fieldByTag(v reflect.Value, tag string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Tag.Get("toml") == tag {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// GetAllKeys returns all valid configuration keys in dot notation, sorted.
func GetAllKeys() []string {
	var keys []string
	root := reflect.TypeOf(Config{})
	for i := 0; i < root.NumField(); i++ {
		section := root.Field(i)
		prefix := section.Tag.Get("toml")
		for j := 0; j < section.Type.NumField(); j++ {
			keys = append(keys, prefix+"."+section.Type.Field(j).Tag.Get("toml"))
		}
	}
	sort.Strings(keys)
	return keys
}

// KeyValues returns the accepted values for enum-like keys, or nil when the
// key takes free-form input.
func KeyValues(key string) []string {
	switch key {
	case "shell.color":
		return validColors
	case "log.level":
		return []string{"debug", "info", "warn", "error"}
	case "log.format":
		return validLogFormats
	case "dispatch.suggest", "dispatch.normalize", "audit.enabled":
		return []string{"true", "false"}
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// ErrNoConfigFile is returned by operations that need a backing file when
// the configuration came from defaults only.
var ErrNoConfigFile = errors.New("no configuration file loaded")

func isJSONPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
