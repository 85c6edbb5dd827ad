package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const defaultDBName = "bulk-user-management"

type Config struct {
	MongoURI        string   `env:"MONGODB_URI" env-default:"mongodb://localhost:27017/bulk-user-management" env-description:"MongoDB connection string"`
	DBName          string   `env:"DB_NAME" env-description:"Database name, defaults to the database in MONGODB_URI"`
	UsersCollection string   `env:"COLLECTION_USERS" env-default:"users"`
	Port            string   `env:"PORT" env-default:"5000"`
	ReadTimeout     Duration `env:"SERVER_READ_TIMEOUT" env-default:"10s" env-description:"Seconds (10) or a duration (10s, 1m)"`
	WriteTimeout    Duration `env:"SERVER_WRITE_TIMEOUT" env-default:"10s" env-description:"Seconds (10) or a duration (10s, 1m)"`
	ShutdownTimeout Duration `env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
	ConnectTimeout  Duration `env:"MONGO_CONNECT_TIMEOUT" env-default:"10s"`
	BodyLimit       string   `env:"BODY_LIMIT" env-default:"10M"`
	MaxPageLimit    int      `env:"MAX_PAGE_LIMIT" env-default:"100"`
	LogLevel        string   `env:"LOG_LEVEL" env-default:"info"`
}

// Duration is a timeout read from the environment. A bare integer is a
// number of seconds; anything else must parse with time.ParseDuration.
type Duration time.Duration

func (d *Duration) SetValue(s string) error {
	s = strings.TrimSpace(s)
	if secs, err := strconv.Atoi(s); err == nil {
		*d = Duration(time.Duration(secs) * time.Second)
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q", s)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// LoadConfig reads the environment, after loading ENV_FILE (default .env) if
// it exists. Variables already set in the environment win over the file.
func LoadConfig() (*Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	if cfg.DBName == "" {
		cfg.DBName = databaseFromURI(cfg.MongoURI)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.MongoURI == "" {
		return fmt.Errorf("MONGODB_URI is required")
	}
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.UsersCollection == "" {
		return fmt.Errorf("COLLECTION_USERS is required")
	}
	if c.MaxPageLimit < 0 {
		return fmt.Errorf("MAX_PAGE_LIMIT must not be negative")
	}
	return nil
}

// Usage describes the supported environment variables.
func Usage() (string, error) {
	var cfg Config
	return cleanenv.GetDescription(&cfg, nil)
}

// databaseFromURI returns the database named in the URI path, or the default.
func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return defaultDBName
	}
	if name := strings.Trim(u.Path, "/"); name != "" {
		return name
	}
	return defaultDBName
}
