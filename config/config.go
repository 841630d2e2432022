// Package config provides YAML-based configuration loading for the request board service.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Record Store backends
const (
	BackendSQL  = "sql"
	BackendREST = "rest"
)

// Environment variables overriding the config file
const (
	EnvSupabaseURL     = "SUPABASE_URL"
	EnvSupabaseAnonKey = "SUPABASE_ANON_KEY"
	EnvListen          = "REQUESTBOARD_LISTEN"
	EnvLogLevel        = "REQUESTBOARD_LOG_LEVEL"
	EnvStoreBackend    = "REQUESTBOARD_STORE"
)

// Config is the top-level service configuration, loaded from config.yaml.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	Store  StoreConfig  `yaml:"store"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	// Listen address the server binds to
	Listen string `yaml:"listen" validate:"required"`
	// MaxSessions number of browser sessions whose boards are kept in memory
	MaxSessions int `yaml:"max_sessions" validate:"gte=1"`
	// ShutdownTimeout grace period for in-flight requests on shutdown
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// AccessLogLevel level of the per request access log lines
	AccessLogLevel string `yaml:"access_log_level" validate:"oneof=debug info warn"`
}

// LogConfig holds the logging settings.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error fatal"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// StoreConfig selects and configures the Record Store.
type StoreConfig struct {
	Backend string     `yaml:"backend" validate:"oneof=sql rest"`
	SQL     SQLConfig  `yaml:"sql" validate:"-"`
	REST    RESTConfig `yaml:"rest" validate:"-"`
}

// SQLConfig holds the database settings of the SQL Record Store.
type SQLConfig struct {
	Dialect string `yaml:"dialect" validate:"oneof=sqlite postgres mysql"`
	DSN     string `yaml:"dsn" validate:"required"`
	// LogLevel GORM logger level
	LogLevel string `yaml:"log_level" validate:"oneof=silent error warn info"`
	// SkipMigration don't create the tables on startup
	SkipMigration bool `yaml:"skip_migration"`
}

// RESTConfig holds the hosted table settings of the REST Record Store.
type RESTConfig struct {
	URL     string        `yaml:"url" validate:"required,url"`
	APIKey  string        `yaml:"api_key" validate:"required"`
	Table   string        `yaml:"table" validate:"required"`
	Timeout time.Duration `yaml:"timeout"`
}

// Load reads a YAML config file from path and returns a validated Config.
// An empty path yields the defaults plus environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		return Parse(nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s [%w]", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse [%w]", err)
	}
	cfg.applyEnv(os.LookupEnv)
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv overrides settings from the environment.
func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	overrides := map[string]*string{
		EnvSupabaseURL:     &c.Store.REST.URL,
		EnvSupabaseAnonKey: &c.Store.REST.APIKey,
		EnvListen:          &c.Server.Listen,
		EnvLogLevel:        &c.Log.Level,
		EnvStoreBackend:    &c.Store.Backend,
	}
	for name, target := range overrides {
		if value, ok := lookup(name); ok && strings.TrimSpace(value) != "" {
			*target = strings.TrimSpace(value)
		}
	}
}

// applyDefaults fills in default values.
func (c *Config) applyDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}
	if c.Server.MaxSessions == 0 {
		c.Server.MaxSessions = 1024
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = time.Second * 10
	}
	if c.Server.AccessLogLevel == "" {
		c.Server.AccessLogLevel = "debug"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Store.Backend == "" {
		// A hosted table given through the environment is picked up without a config file
		if c.Store.REST.URL != "" {
			c.Store.Backend = BackendREST
		} else {
			c.Store.Backend = BackendSQL
		}
	}
	if c.Store.SQL.Dialect == "" {
		c.Store.SQL.Dialect = "sqlite"
	}
	if c.Store.SQL.DSN == "" && c.Store.SQL.Dialect == "sqlite" {
		c.Store.SQL.DSN = "requestboard.db"
	}
	if c.Store.SQL.LogLevel == "" {
		c.Store.SQL.LogLevel = "warn"
	}
	if c.Store.REST.Table == "" {
		c.Store.REST.Table = "requests"
	}
	if c.Store.REST.Timeout == 0 {
		c.Store.REST.Timeout = time.Second * 10
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: validation failed [%w]", err)
	}
	switch c.Store.Backend {
	case BackendSQL:
		if err := validate.Struct(&c.Store.SQL); err != nil {
			return fmt.Errorf("config: store.sql validation failed [%w]", err)
		}
	case BackendREST:
		if err := validate.Struct(&c.Store.REST); err != nil {
			return fmt.Errorf("config: store.rest validation failed [%w]", err)
		}
	}
	if c.Server.ShutdownTimeout < 0 || c.Store.REST.Timeout < 0 {
		return fmt.Errorf("config: validation failed [negative timeout]")
	}
	return nil
}

/*
SetupLogging install the log handler and level

	@param output io.Writer - where the log lines are written
*/
func (l LogConfig) SetupLogging(output io.Writer) error {
	level, err := log.ParseLevel(l.Level)
	if err != nil {
		return fmt.Errorf("config: log level '%s' [%w]", l.Level, err)
	}
	switch l.Format {
	case "json":
		log.SetHandler(json.New(output))
	default:
		log.SetHandler(text.New(output))
	}
	log.SetLevel(level)
	return nil
}
