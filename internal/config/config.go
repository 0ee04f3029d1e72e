// Package config provides Viper-based configuration loading for the word race server.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds top-level server settings.
type ServerConfig struct {
	// Name identifies this instance in logs.
	Name string `mapstructure:"name"`
	// ShutdownTimeout bounds how long teardown of live sessions may take.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// GameConfig holds match rules shared by every session.
type GameConfig struct {
	// DefaultUserLimit is used when a create request does not name a limit.
	DefaultUserLimit int `mapstructure:"default_user_limit"`
	// MaxUserLimit caps the roster size a creator may request.
	MaxUserLimit int `mapstructure:"max_user_limit"`
	MinLength    int `mapstructure:"min_length"`
	MaxLength    int `mapstructure:"max_length"`
	// DefaultLength and DefaultLanguage fill in omitted create arguments.
	DefaultLength   int    `mapstructure:"default_length"`
	DefaultLanguage string `mapstructure:"default_language"`
	// TransientErrorTTL is how long rejected-guess notices stay visible.
	TransientErrorTTL time.Duration `mapstructure:"transient_error_ttl"`
	// DefaultTheme is the renderer theme assigned to new players.
	DefaultTheme string `mapstructure:"default_theme"`
	// ResultScript optionally points at a Lua file defining format_result.
	ResultScript string `mapstructure:"result_script"`
	// ScriptInstructionLimit bounds each Lua call; 0 uses the package default.
	ScriptInstructionLimit int `mapstructure:"script_instruction_limit"`
}

// DictionaryConfig selects where answers and valid guesses come from.
type DictionaryConfig struct {
	// Source is "yaml" (word lists on disk) or "postgres" (words table).
	Source string `mapstructure:"source"`
	// Dir holds one YAML word list per language.
	Dir string `mapstructure:"dir"`
}

// LocaleConfig holds message catalog settings.
type LocaleConfig struct {
	Dir     string `mapstructure:"dir"`
	Default string `mapstructure:"default"`
}

// DiscordConfig holds chat transport settings.
type DiscordConfig struct {
	Token         string `mapstructure:"token"`
	CommandPrefix string `mapstructure:"command_prefix"`
}

// RetryConfig bounds retries of outbound messaging calls.
type RetryConfig struct {
	MaxAttempts     int           `mapstructure:"max_attempts"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
}

// Config is the top-level application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Game       GameConfig       `mapstructure:"game"`
	Dictionary DictionaryConfig `mapstructure:"dictionary"`
	Locale     LocaleConfig     `mapstructure:"locale"`
	Discord    DiscordConfig    `mapstructure:"discord"`
	Retry      RetryConfig      `mapstructure:"retry"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	for _, err := range []error{
		validateServer(c.Server),
		validateDatabase(c.Database),
		validateLogging(c.Logging),
		validateGame(c.Game),
		validateDictionary(c.Dictionary),
		validateLocale(c.Locale),
		validateRetry(c.Retry),
	} {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateServer(s ServerConfig) error {
	if s.Name == "" {
		return errors.New("server.name must not be empty")
	}
	if s.ShutdownTimeout < 0 {
		return errors.New("server.shutdown_timeout must not be negative")
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateGame(g GameConfig) error {
	var errs []string
	if g.MaxUserLimit < 1 {
		errs = append(errs, fmt.Sprintf("game.max_user_limit must be >= 1, got %d", g.MaxUserLimit))
	}
	if g.DefaultUserLimit < 1 || g.DefaultUserLimit > g.MaxUserLimit {
		errs = append(errs, fmt.Sprintf("game.default_user_limit must be 1-%d, got %d", g.MaxUserLimit, g.DefaultUserLimit))
	}
	if g.MinLength < 1 {
		errs = append(errs, fmt.Sprintf("game.min_length must be >= 1, got %d", g.MinLength))
	}
	if g.MaxLength < g.MinLength {
		errs = append(errs, "game.max_length must not be below game.min_length")
	}
	if g.DefaultLength < g.MinLength || g.DefaultLength > g.MaxLength {
		errs = append(errs, fmt.Sprintf("game.default_length must be %d-%d, got %d", g.MinLength, g.MaxLength, g.DefaultLength))
	}
	if g.DefaultLanguage == "" {
		errs = append(errs, "game.default_language must not be empty")
	}
	if g.TransientErrorTTL <= 0 {
		errs = append(errs, "game.transient_error_ttl must be positive")
	}
	if g.ScriptInstructionLimit < 0 {
		errs = append(errs, "game.script_instruction_limit must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDictionary(d DictionaryConfig) error {
	switch d.Source {
	case "yaml":
		if d.Dir == "" {
			return errors.New("dictionary.dir must not be empty when dictionary.source is yaml")
		}
	case "postgres":
	default:
		return fmt.Errorf("dictionary.source must be one of [yaml, postgres], got %q", d.Source)
	}
	return nil
}

func validateLocale(l LocaleConfig) error {
	if l.Default == "" {
		return errors.New("locale.default must not be empty")
	}
	return nil
}

func validateRetry(r RetryConfig) error {
	var errs []string
	if r.MaxAttempts < 1 {
		errs = append(errs, fmt.Sprintf("retry.max_attempts must be >= 1, got %d", r.MaxAttempts))
	}
	if r.InitialInterval < 0 || r.MaxInterval < 0 {
		errs = append(errs, "retry intervals must not be negative")
	}
	if r.MaxInterval < r.InitialInterval {
		errs = append(errs, "retry.max_interval must not be below retry.initial_interval")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with WORDRACE_ prefix
	v.SetEnvPrefix("WORDRACE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns a Viper instance holding only the built-in defaults.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.name", "wordrace")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "wordrace")
	v.SetDefault("database.password", "wordrace")
	v.SetDefault("database.name", "wordrace")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("game.default_user_limit", 2)
	v.SetDefault("game.max_user_limit", 8)
	v.SetDefault("game.min_length", 4)
	v.SetDefault("game.max_length", 8)
	v.SetDefault("game.default_length", 5)
	v.SetDefault("game.default_language", "en")
	v.SetDefault("game.transient_error_ttl", "5s")
	v.SetDefault("game.default_theme", "dark")
	v.SetDefault("game.result_script", "")
	v.SetDefault("game.script_instruction_limit", 0)

	v.SetDefault("dictionary.source", "yaml")
	v.SetDefault("dictionary.dir", "content/words")

	v.SetDefault("locale.dir", "content/locales")
	v.SetDefault("locale.default", "en-US")

	v.SetDefault("discord.command_prefix", "!wr")

	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_interval", "200ms")
	v.SetDefault("retry.max_interval", "2s")
}
