package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

const (
	SequenceBackendPostgres = "postgres"
	SequenceBackendRedis    = "redis"
)

type Config struct {
	DBHost     string `mapstructure:"db_host"`
	DBPort     string `mapstructure:"db_port"`
	DBUser     string `mapstructure:"db_user"`
	DBPassword string `mapstructure:"db_password"`
	DBName     string `mapstructure:"db_name"`
	DBSSLMode  string `mapstructure:"db_sslmode"`
	DBMigrate  bool   `mapstructure:"db_migrate"`

	ServerPort string `mapstructure:"server_port"`

	SequenceBackend     string `mapstructure:"sequence_backend"`
	SequenceMaxAttempts int    `mapstructure:"sequence_max_attempts"`
	RedisAddr           string `mapstructure:"redis_addr"`
	RedisPassword       string `mapstructure:"redis_password"`
	RedisDB             int    `mapstructure:"redis_db"`

	TransferMaxAttempts int `mapstructure:"transfer_max_attempts"`
}

var defaults = map[string]interface{}{
	"db_host":               "localhost",
	"db_port":               "5432",
	"db_user":               "postgres",
	"db_password":           "postgres",
	"db_name":               "ledger",
	"db_sslmode":            "disable",
	"db_migrate":            true,
	"server_port":           "8080",
	"sequence_backend":      SequenceBackendPostgres,
	"sequence_max_attempts": 3,
	"redis_addr":            "localhost:6379",
	"redis_password":        "",
	"redis_db":              0,
	"transfer_max_attempts": 3,
}

// Load reads defaults, then the optional YAML file named by CONFIG_FILE,
// then environment variables (DB_HOST, SERVER_PORT, ...), later sources
// winning.
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.SequenceBackend {
	case SequenceBackendPostgres, SequenceBackendRedis:
	default:
		return fmt.Errorf("sequence_backend must be %q or %q, got %q",
			SequenceBackendPostgres, SequenceBackendRedis, c.SequenceBackend)
	}
	if c.TransferMaxAttempts < 1 {
		return fmt.Errorf("transfer_max_attempts must be at least 1, got %d", c.TransferMaxAttempts)
	}
	if c.SequenceMaxAttempts < 1 {
		return fmt.Errorf("sequence_max_attempts must be at least 1, got %d", c.SequenceMaxAttempts)
	}
	return nil
}

// GetDBConnectionString returns a lib/pq URL DSN.
func (c *Config) GetDBConnectionString() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}
