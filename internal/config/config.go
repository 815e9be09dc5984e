// Package config provides Viper-based configuration loading for the fight module host.
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

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

// StorageConfig selects the character and scene persistence backend.
type StorageConfig struct {
	// Driver is one of "postgres", "sqlite", or "memory".
	Driver string `mapstructure:"driver"`
	// SQLitePath is the database file used when Driver is "sqlite".
	SQLitePath string `mapstructure:"sqlite_path"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// ScriptingConfig holds Lua hook subscriber settings.
type ScriptingConfig struct {
	// Dir is the directory of *.lua hook scripts; empty disables scripting.
	Dir string `mapstructure:"dir"`
	// InstructionLimit caps Lua opcodes per hook call; 0 uses the sandbox default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// FightConfig holds the tunables of the fight module.
type FightConfig struct {
	// TurnsPerDay is the number of fights granted on a new day.
	TurnsPerDay int `mapstructure:"turns_per_day"`
	// DeathTurnPenalty is subtracted from TurnsPerDay when the character died the day before.
	DeathTurnPenalty int `mapstructure:"death_turn_penalty"`
	// ExperiencePerLevel is multiplied by the enemy level to compute a victory reward.
	ExperiencePerLevel int `mapstructure:"experience_per_level"`
	// DeathExperienceFactor scales current experience when the character is defeated.
	DeathExperienceFactor float64 `mapstructure:"death_experience_factor"`
}

// ContentConfig points at the YAML content loaded at startup.
type ContentConfig struct {
	// EnemiesDir is the directory of enemy template YAML files.
	EnemiesDir string `mapstructure:"enemies_dir"`
	// ScenesFile is the YAML file of host scenes (village, forest, ...).
	ScenesFile string `mapstructure:"scenes_file"`
}

// TracingConfig holds OpenTelemetry export settings.
type TracingConfig struct {
	// Enabled turns span export on; spans are no-ops otherwise.
	Enabled bool `mapstructure:"enabled"`
	// Endpoint is the OTLP/HTTP collector URL.
	Endpoint string `mapstructure:"endpoint"`
	// ServiceName is reported as the resource service.name.
	ServiceName string `mapstructure:"service_name"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Scripting ScriptingConfig `mapstructure:"scripting"`
	Fight     FightConfig     `mapstructure:"fight"`
	Content   ContentConfig   `mapstructure:"content"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

// Validate checks all configuration invariants. The database section is
// only checked when the postgres driver is selected.
//
// Postcondition: Returns nil if configuration is valid, or one error naming
// every offending key.
func (c Config) Validate() error {
	var p problems
	p.oneOf("logging.level", c.Logging.Level, "debug", "info", "warn", "error")
	p.oneOf("logging.format", c.Logging.Format, "json", "console")

	p.oneOf("storage.driver", c.Storage.Driver, "postgres", "sqlite", "memory")
	p.check(c.Storage.Driver != "sqlite" || c.Storage.SQLitePath != "",
		"storage.sqlite_path", "must not be empty when storage.driver is sqlite")
	if c.Storage.Driver == "postgres" {
		c.Database.validate(&p)
	}

	p.check(c.Scripting.InstructionLimit >= 0, "scripting.instruction_limit", "must be >= 0, got %d", c.Scripting.InstructionLimit)

	f := c.Fight
	p.check(f.TurnsPerDay >= 1, "fight.turns_per_day", "must be >= 1, got %d", f.TurnsPerDay)
	p.check(f.DeathTurnPenalty >= 0 && f.DeathTurnPenalty <= f.TurnsPerDay,
		"fight.death_turn_penalty", "must be in [0, turns_per_day], got %d", f.DeathTurnPenalty)
	p.check(f.ExperiencePerLevel >= 0, "fight.experience_per_level", "must be >= 0, got %d", f.ExperiencePerLevel)
	p.check(f.DeathExperienceFactor >= 0 && f.DeathExperienceFactor <= 1,
		"fight.death_experience_factor", "must be in [0, 1], got %g", f.DeathExperienceFactor)

	p.check(!c.Tracing.Enabled || c.Tracing.Endpoint != "", "tracing.endpoint", "must not be empty when tracing is enabled")
	return p.err()
}

func (d DatabaseConfig) validate(p *problems) {
	p.check(d.Host != "", "database.host", "must not be empty")
	p.check(d.Port >= 1 && d.Port <= 65535, "database.port", "must be 1-65535, got %d", d.Port)
	p.check(d.User != "", "database.user", "must not be empty")
	p.check(d.Name != "", "database.name", "must not be empty")
	p.oneOf("database.sslmode", d.SSLMode, "disable", "require", "verify-ca", "verify-full")
	p.check(d.MaxConns >= 1, "database.max_conns", "must be >= 1, got %d", d.MaxConns)
	p.check(d.MinConns >= 0 && d.MinConns <= d.MaxConns, "database.min_conns", "must be in [0, max_conns], got %d", d.MinConns)
}

// problems collects validation failures keyed by config path.
type problems []string

func (p *problems) check(ok bool, key, format string, args ...any) {
	if !ok {
		*p = append(*p, key+" "+fmt.Sprintf(format, args...))
	}
}

func (p *problems) oneOf(key, got string, allowed ...string) {
	p.check(slices.Contains(allowed, got), key, "must be one of [%s], got %q", strings.Join(allowed, ", "), got)
}

func (p problems) err() error {
	if len(p) == 0 {
		return nil
	}
	return fmt.Errorf("configuration validation failed: %s", strings.Join(p, "; "))
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with MUD_ prefix
	v.SetEnvPrefix("MUD")
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

// Defaults returns a Viper instance populated only with default values.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "mud")
	v.SetDefault("database.password", "mud")
	v.SetDefault("database.name", "mud")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.sqlite_path", "resfight.db")

	v.SetDefault("scripting.dir", "")
	v.SetDefault("scripting.instruction_limit", 0)

	v.SetDefault("fight.turns_per_day", 20)
	v.SetDefault("fight.death_turn_penalty", 5)
	v.SetDefault("fight.experience_per_level", 25)
	v.SetDefault("fight.death_experience_factor", 0.9)

	v.SetDefault("content.enemies_dir", "content/enemies")
	v.SetDefault("content.scenes_file", "content/scenes.yaml")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "resfight")
}
