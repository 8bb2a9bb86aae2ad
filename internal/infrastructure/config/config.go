package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Slack   SlackConfig   `yaml:"slack"`
	Session SessionConfig `yaml:"session"`
	History HistoryConfig `yaml:"history"`
	Fortune FortuneConfig `yaml:"fortune"`
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

// SlackConfig holds workspace connection settings.
type SlackConfig struct {
	// TokenFile is the path to a file containing the bot API token.
	TokenFile string `yaml:"token_file"`
	// Token overrides TokenFile when set (normally via environment).
	Token string `yaml:"token"`
	// CommandSentinel is the leading character marking a message as a
	// command invocation.
	CommandSentinel string `yaml:"command_sentinel"`
}

// SessionConfig holds real-time session loop settings.
type SessionConfig struct {
	// TickInterval is the pause between event reads.
	TickInterval time.Duration `yaml:"tick_interval"`
	// ReadTimeout bounds one blocking read on the stream.
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

// HistoryConfig holds conversation backfill settings.
type HistoryConfig struct {
	// PreDelay is applied before the first page fetch.
	PreDelay time.Duration `yaml:"pre_delay"`
	// PageLimit is the maximum messages requested per page.
	PageLimit int `yaml:"page_limit"`
}

// FortuneConfig holds the external adage command settings.
type FortuneConfig struct {
	Command string        `yaml:"command"`
	Timeout time.Duration `yaml:"timeout"`
}

// StorageConfig holds transcript archive storage settings.
type StorageConfig struct {
	Type   string       `yaml:"type"` // "memory", "sqlite", or "mysql"
	SQLite SQLiteConfig `yaml:"sqlite"`
	MySQL  MySQLConfig  `yaml:"mysql"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path string `yaml:"path"` // Database file path, use ":memory:" for in-memory
}

// MySQLConfig holds MySQL-specific settings.
type MySQLConfig struct {
	Host      string          `yaml:"host"`
	Port      int             `yaml:"port"`
	Database  string          `yaml:"database"`
	Username  string          `yaml:"username"`
	Password  string          `yaml:"password"`
	Pool      MySQLPoolConfig `yaml:"pool"`
	Timeout   time.Duration   `yaml:"timeout"`
	ParseTime bool            `yaml:"parse_time"`
	Charset   string          `yaml:"charset"`
}

// MySQLPoolConfig holds MySQL connection pool settings.
type MySQLPoolConfig struct {
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// ServerConfig holds the operational HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"` // "stderr", "stdout", or a file path
}

// Load reads configuration from file and environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	// Load from file if exists
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err == nil {
			// Expand environment variables in YAML
			expandedData := os.ExpandEnv(string(data))
			if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Apply defaults
	cfg.applyDefaults()

	// Validate
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// overrideFromEnv overrides config values from environment variables.
func (c *Config) overrideFromEnv() {
	// Slack
	if v := os.Getenv("SLACK_TOKEN_FILE"); v != "" {
		c.Slack.TokenFile = v
	}
	if v := os.Getenv("SLACK_BOT_TOKEN"); v != "" {
		c.Slack.Token = v
	}
	if v := os.Getenv("COMMAND_SENTINEL"); v != "" {
		c.Slack.CommandSentinel = v
	}

	// Server
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}

	// Logging
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("LOG_OUTPUT"); v != "" {
		c.Logging.Output = v
	}

	// Storage
	if v := os.Getenv("STORAGE_TYPE"); v != "" {
		c.Storage.Type = v
	}
	if v := os.Getenv("SQLITE_DATABASE_PATH"); v != "" {
		c.Storage.SQLite.Path = v
	}

	// MySQL
	if v := os.Getenv("MYSQL_HOST"); v != "" {
		c.Storage.MySQL.Host = v
	}
	if v := os.Getenv("MYSQL_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Storage.MySQL.Port = port
		}
	}
	if v := os.Getenv("MYSQL_DATABASE"); v != "" {
		c.Storage.MySQL.Database = v
	}
	if v := os.Getenv("MYSQL_USERNAME"); v != "" {
		c.Storage.MySQL.Username = v
	}
	if v := os.Getenv("MYSQL_PASSWORD"); v != "" {
		c.Storage.MySQL.Password = v
	}
}

// applyDefaults sets default values for unset config options.
func (c *Config) applyDefaults() {
	// Slack defaults
	if c.Slack.TokenFile == "" {
		c.Slack.TokenFile = "slack_api_token"
	}
	if c.Slack.CommandSentinel == "" {
		c.Slack.CommandSentinel = "."
	}

	// Session defaults
	if c.Session.TickInterval == 0 {
		c.Session.TickInterval = 1 * time.Second
	}
	if c.Session.ReadTimeout == 0 {
		c.Session.ReadTimeout = 70 * time.Second
	}

	// History defaults
	if c.History.PreDelay == 0 {
		c.History.PreDelay = 500 * time.Millisecond
	}
	if c.History.PageLimit == 0 {
		c.History.PageLimit = 200
	}

	// Fortune defaults
	if c.Fortune.Command == "" {
		c.Fortune.Command = "fortune"
	}
	if c.Fortune.Timeout == 0 {
		c.Fortune.Timeout = 5 * time.Second
	}

	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = 8081
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 5 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 10 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 30 * time.Second
	}

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stderr"
	}

	// Storage defaults
	if c.Storage.Type == "" {
		c.Storage.Type = "memory"
	}
	if c.Storage.SQLite.Path == "" {
		c.Storage.SQLite.Path = "./data/rtmbot.db"
	}

	// MySQL defaults
	if c.Storage.MySQL.Port == 0 {
		c.Storage.MySQL.Port = 3306
	}
	if c.Storage.MySQL.Pool.MaxOpenConns == 0 {
		c.Storage.MySQL.Pool.MaxOpenConns = 25
	}
	if c.Storage.MySQL.Pool.MaxIdleConns == 0 {
		c.Storage.MySQL.Pool.MaxIdleConns = 5
	}
	if c.Storage.MySQL.Pool.ConnMaxLifetime == 0 {
		c.Storage.MySQL.Pool.ConnMaxLifetime = 3 * time.Minute
	}
	if c.Storage.MySQL.Pool.ConnMaxIdleTime == 0 {
		c.Storage.MySQL.Pool.ConnMaxIdleTime = 1 * time.Minute
	}
	if c.Storage.MySQL.Timeout == 0 {
		c.Storage.MySQL.Timeout = 5 * time.Second
	}
	if !c.Storage.MySQL.ParseTime {
		c.Storage.MySQL.ParseTime = true
	}
	if c.Storage.MySQL.Charset == "" {
		c.Storage.MySQL.Charset = "utf8mb4"
	}
}

// validate checks that required configuration is present.
func (c *Config) validate() error {
	if c.Slack.Token == "" && c.Slack.TokenFile == "" {
		return fmt.Errorf("slack.token_file is required")
	}

	if err := ValidateLogLevel(strings.ToLower(c.Logging.Level)); err != nil {
		return err
	}
	if err := ValidateLogFormat(strings.ToLower(c.Logging.Format)); err != nil {
		return err
	}
	if err := ValidateStorageType(strings.ToLower(c.Storage.Type)); err != nil {
		return err
	}

	if err := ValidateDuration(c.Session.TickInterval, "session.tick_interval"); err != nil {
		return err
	}
	if err := ValidateDuration(c.Session.ReadTimeout, "session.read_timeout"); err != nil {
		return err
	}
	if err := ValidateDuration(c.History.PreDelay, "history.pre_delay"); err != nil {
		return err
	}
	if err := ValidateDuration(c.Fortune.Timeout, "fortune.timeout"); err != nil {
		return err
	}

	if strings.ToLower(c.Storage.Type) == "sqlite" && c.Storage.SQLite.Path == "" {
		return fmt.Errorf("storage.sqlite.path is required when storage type is sqlite")
	}

	if strings.ToLower(c.Storage.Type) == "mysql" {
		if c.Storage.MySQL.Host == "" {
			return fmt.Errorf("storage.mysql.host is required when storage type is mysql")
		}
		if c.Storage.MySQL.Database == "" {
			return fmt.Errorf("storage.mysql.database is required when storage type is mysql")
		}
		if c.Storage.MySQL.Username == "" {
			return fmt.Errorf("storage.mysql.username is required when storage type is mysql")
		}
	}

	return nil
}

// ResolveToken returns the bot API token, reading the token file when no
// direct token was configured. A missing or empty credential is a
// startup-fatal condition.
func (c *SlackConfig) ResolveToken() (string, error) {
	if c.Token != "" {
		return c.Token, nil
	}

	data, err := os.ReadFile(c.TokenFile)
	if err != nil {
		return "", fmt.Errorf("reading token file %s: %w", c.TokenFile, err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("token file %s is empty", c.TokenFile)
	}

	return token, nil
}
