package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "CMCS"

type Config struct {
	App         AppConfig         `mapstructure:"app"`
	DB          DBConfig          `mapstructure:"db"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Idempotency IdempotencyConfig `mapstructure:"idempotency"`
	Log         LogConfig         `mapstructure:"log"`
	Documents   DocumentsConfig   `mapstructure:"documents"`
}

type AppConfig struct {
	Port string `mapstructure:"port"`
}

type DBConfig struct {
	Driver      string `mapstructure:"driver"` // mysql | postgres | sqlite
	Host        string `mapstructure:"host"`
	Port        string `mapstructure:"port"`
	Name        string `mapstructure:"name"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	SSLMode     string `mapstructure:"sslmode"`
	SQLitePath  string `mapstructure:"sqlite_path"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
	Seed        bool   `mapstructure:"seed"`
	Debug       bool   `mapstructure:"debug"`
}

type RedisConfig struct {
	Addr string `mapstructure:"addr"`
	DB   int    `mapstructure:"db"`
}

type IdempotencyConfig struct {
	TTLSeconds int `mapstructure:"ttl_seconds"`
}

func (c IdempotencyConfig) TTL() time.Duration { return time.Duration(c.TTLSeconds) * time.Second }

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json | console
}

type DocumentsConfig struct {
	Backend    string `mapstructure:"backend"` // fs | s3
	Dir        string `mapstructure:"dir"`
	S3Bucket   string `mapstructure:"s3_bucket"`
	S3Region   string `mapstructure:"s3_region"`
	S3Endpoint string `mapstructure:"s3_endpoint"`
	S3Prefix   string `mapstructure:"s3_prefix"`
	MaxBytes   int64  `mapstructure:"max_bytes"`
	Passphrase string `mapstructure:"passphrase"`
	Salt       string `mapstructure:"salt"`
	// LegacyRead accepts ciphertexts written by the fixed-IV scheme.
	LegacyRead bool `mapstructure:"legacy_read"`
	// LegacyWrite emits fixed-IV ciphertexts for tools that still need them.
	LegacyWrite bool `mapstructure:"legacy_write"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")

	v.SetDefault("db.driver", "mysql")
	v.SetDefault("db.host", "mysql")
	v.SetDefault("db.port", "3306")
	v.SetDefault("db.name", "cmcs")
	v.SetDefault("db.user", "cmcs")
	v.SetDefault("db.password", "cmcs")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.sqlite_path", "cmcs.db")
	v.SetDefault("db.auto_migrate", true)
	v.SetDefault("db.seed", false)
	v.SetDefault("db.debug", false)

	v.SetDefault("redis.addr", "redis:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("idempotency.ttl_seconds", 300)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("documents.backend", "fs")
	v.SetDefault("documents.dir", "./data/documents")
	v.SetDefault("documents.s3_bucket", "")
	v.SetDefault("documents.s3_region", "us-east-1")
	v.SetDefault("documents.s3_endpoint", "")
	v.SetDefault("documents.s3_prefix", "documents/")
	v.SetDefault("documents.max_bytes", 5<<20)
	v.SetDefault("documents.passphrase", "")
	v.SetDefault("documents.salt", "S@ltKey")
	v.SetDefault("documents.legacy_read", true)
	v.SetDefault("documents.legacy_write", false)
}

// Load reads defaults, then the optional YAML file at path (or ./config.yaml),
// then CMCS_* environment variables, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if c.App.Port == "" {
		return errors.New("missing app.port (CMCS_APP_PORT)")
	}
	if _, err := net.LookupPort("tcp", c.App.Port); err != nil {
		return fmt.Errorf("invalid app.port %q: %w", c.App.Port, err)
	}

	switch c.DB.Driver {
	case "mysql", "postgres":
		if c.DB.Host == "" || c.DB.Port == "" || c.DB.Name == "" || c.DB.User == "" {
			return errors.New("missing db config (CMCS_DB_HOST/PORT/NAME/USER)")
		}
		// ensure port is valid
		if _, err := net.LookupPort("tcp", c.DB.Port); err != nil {
			return fmt.Errorf("invalid db.port %q: %w", c.DB.Port, err)
		}
	case "sqlite":
		if c.DB.SQLitePath == "" {
			return errors.New("missing db.sqlite_path")
		}
	default:
		return fmt.Errorf("unsupported db.driver %q", c.DB.Driver)
	}

	switch c.Documents.Backend {
	case "fs":
		if c.Documents.Dir == "" {
			return errors.New("missing documents.dir")
		}
	case "s3":
		if c.Documents.S3Bucket == "" {
			return errors.New("missing documents.s3_bucket")
		}
	default:
		return fmt.Errorf("unsupported documents.backend %q", c.Documents.Backend)
	}
	if c.Documents.Passphrase == "" {
		return errors.New("missing documents.passphrase (CMCS_DOCUMENTS_PASSPHRASE)")
	}
	if c.Documents.MaxBytes <= 0 {
		return errors.New("documents.max_bytes must be positive")
	}
	if c.Idempotency.TTLSeconds <= 0 {
		return errors.New("idempotency.ttl_seconds must be positive")
	}
	return nil
}

func (c *DBConfig) addr() string { return net.JoinHostPort(c.Host, c.Port) }

func (c *DBConfig) MySQLDSN() string {
	// multiStatements=true is handy for migrations; parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&charset=utf8mb4,utf8",
		c.User, c.Password, c.addr(), c.Name)
}

func (c *DBConfig) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}
