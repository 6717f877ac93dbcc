package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/dori/todoql/internal/db"
	"github.com/dori/todoql/internal/model"
)

// Config is the client configuration
type Config struct {
	Endpoint       string        `yaml:"endpoint" env:"TODOQL_ENDPOINT" env-default:"http://localhost:4000/graphql" env-description:"GraphQL endpoint"`
	DataDir        string        `yaml:"data_dir" env:"TODOQL_DATA_DIR" env-description:"directory for the database, log and lock files"`
	Completion     string        `yaml:"completion" env:"TODOQL_COMPLETION" env-default:"local" env-description:"completion strategy: local or server"`
	WeekStart      string        `yaml:"week_start" env:"TODOQL_WEEK_START" env-default:"sunday" env-description:"first day of the week"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"TODOQL_REQUEST_TIMEOUT" env-default:"30s" env-description:"per request timeout, 0 for none"`
	LogLevel       string        `yaml:"log_level" env:"TODOQL_LOG_LEVEL" env-default:"info"`
	Debug          bool          `yaml:"debug" env:"TODOQL_DEBUG"`
	Theme          string        `yaml:"theme" env:"TODOQL_THEME" env-default:"nord"`
}

// DefaultPath returns the config file location under the user config dir
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.yml"
	}
	return filepath.Join(dir, "todoql", "config.yml")
}

// Load reads .env, then the YAML file at path, then TODOQL_* variables. A
// missing file is not an error; the environment and defaults are used.
func Load(path string) (*Config, error) {
	_ = godotenv.Load(".env")

	if path == "" {
		path = DefaultPath()
	}

	cfg := new(Config)
	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		var pe *os.PathError
		if !errors.As(err, &pe) {
			return nil, fmt.Errorf("cannot read config %q: %w", path, err)
		}
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("cannot read env: %w", err)
		}
	}

	if cfg.DataDir == "" {
		cfg.DataDir = db.DefaultDataDir()
	}
	cfg.Completion = strings.ToLower(strings.TrimSpace(cfg.Completion))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values cleanenv cannot check on its own
func (c *Config) Validate() error {
	u, err := url.Parse(c.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid endpoint %q", c.Endpoint)
	}
	switch c.Completion {
	case "local", "server":
	default:
		return fmt.Errorf("invalid completion %q: want local or server", c.Completion)
	}
	if _, ok := model.ParseWeekday(c.WeekStart); !ok {
		return fmt.Errorf("invalid week_start %q", c.WeekStart)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative")
	}
	return nil
}

// WeekStartDay returns the configured first day of the week
func (c *Config) WeekStartDay() time.Weekday {
	day, _ := model.ParseWeekday(c.WeekStart)
	return day
}

// DBPath is the SQLite file holding the session and settings
func (c *Config) DBPath() string { return filepath.Join(c.DataDir, "todoql.db") }

// LogPath is the log file
func (c *Config) LogPath() string { return filepath.Join(c.DataDir, "todoql.log") }

// LockPath is the single-instance lock file
func (c *Config) LockPath() string { return filepath.Join(c.DataDir, "todoql.lock") }

// Usage describes the environment variables for --help
func Usage() string {
	var cfg Config
	text, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return ""
	}
	return text
}
