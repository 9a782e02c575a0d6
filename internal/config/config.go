package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type LogConfig struct {
	Level     string `mapstructure:"level" validate:"oneof=debug info warn warning error"`
	Format    string `mapstructure:"format" validate:"omitempty,oneof=json text"`
	Component string `mapstructure:"component"`
	Source    bool   `mapstructure:"source"`
}

type DBConfig struct {
	DSN         string `mapstructure:"dsn" validate:"required"`
	Host        string `mapstructure:"host"`
	Port        string `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	Name        string `mapstructure:"name"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr" validate:"required"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"min=0"`
}

type GRPCConfig struct {
	Host string `mapstructure:"host" validate:"required"`
	Port string `mapstructure:"port" validate:"required,numeric"`
}

type MetricsConfig struct {
	// Addr empty disables the /metrics listener.
	Addr string `mapstructure:"addr"`
}

type MatchingConfig struct {
	DedupeWindow     time.Duration `mapstructure:"dedupe_window" validate:"min=0,max=1m"`
	CountCacheTTL    time.Duration `mapstructure:"count_cache_ttl" validate:"min=1s"`
	IncomingPageSize int           `mapstructure:"incoming_page_size" validate:"min=1,max=100"`
}

type SessionConfig struct {
	TTL time.Duration `mapstructure:"ttl" validate:"min=1m"`
}

type OperatorConfig struct {
	// TokenHash is a bcrypt hash of the operator token. Empty disables operator RPCs.
	TokenHash string `mapstructure:"token_hash"`
}

type SchedulerConfig struct {
	Enabled              bool          `mapstructure:"enabled"`
	SyntheticReplayCron  string        `mapstructure:"synthetic_replay_cron" validate:"required_if=Enabled true"`
	SyntheticReplayAfter time.Duration `mapstructure:"synthetic_replay_after" validate:"min=0"`
}

type Config struct {
	App struct {
		ENV string `mapstructure:"env" validate:"oneof=development staging production test"`
	} `mapstructure:"app"`

	Log       LogConfig       `mapstructure:"log"`
	DB        DBConfig        `mapstructure:"db"`
	Redis     RedisConfig     `mapstructure:"redis"`
	GRPC      GRPCConfig      `mapstructure:"grpc"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Matching  MatchingConfig  `mapstructure:"matching"`
	Session   SessionConfig   `mapstructure:"session"`
	Operator  OperatorConfig  `mapstructure:"operator"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// envBindings keeps the flat environment variable names used by deployments.
var envBindings = map[string]string{
	"app.env": "APP_ENV",

	"log.level":     "LOG_LEVEL",
	"log.format":    "LOG_FORMAT",
	"log.component": "LOG_COMPONENT",
	"log.source":    "LOG_SOURCE",

	"db.dsn":          "MYSQL_DSN",
	"db.host":         "DB_HOST",
	"db.port":         "DB_PORT",
	"db.user":         "DB_USER",
	"db.password":     "DB_PASSWORD",
	"db.name":         "DB_NAME",
	"db.auto_migrate": "DB_AUTO_MIGRATE",

	"redis.addr":     "REDIS_ADDR",
	"redis.password": "REDIS_PASSWORD",
	"redis.db":       "REDIS_DB",

	"grpc.host": "GRPC_HOST",
	"grpc.port": "GRPC_PORT",

	"metrics.addr": "METRICS_ADDR",

	"matching.dedupe_window":      "DEDUPE_WINDOW",
	"matching.count_cache_ttl":    "COUNT_CACHE_TTL",
	"matching.incoming_page_size": "INCOMING_PAGE_SIZE",

	"session.ttl": "SESSION_TTL",

	"operator.token_hash": "OPERATOR_TOKEN_HASH",

	"scheduler.enabled":                "SCHEDULER_ENABLED",
	"scheduler.synthetic_replay_cron":  "SYNTHETIC_REPLAY_CRON",
	"scheduler.synthetic_replay_after": "SYNTHETIC_REPLAY_AFTER",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")

	v.SetDefault("log.level", "info")
	// empty lets the logger choose by app.env
	v.SetDefault("log.format", "")
	v.SetDefault("log.component", "grpc_server")
	v.SetDefault("log.source", false)

	v.SetDefault("db.dsn", "")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "3306")
	v.SetDefault("db.user", "root")
	v.SetDefault("db.password", "root")
	v.SetDefault("db.name", "campus_match")
	v.SetDefault("db.auto_migrate", true)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("grpc.host", "127.0.0.1")
	v.SetDefault("grpc.port", "50051")

	v.SetDefault("metrics.addr", ":9090")

	v.SetDefault("matching.dedupe_window", 3*time.Second)
	v.SetDefault("matching.count_cache_ttl", time.Hour)
	v.SetDefault("matching.incoming_page_size", 5)

	v.SetDefault("session.ttl", 24*time.Hour)

	v.SetDefault("operator.token_hash", "")

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.synthetic_replay_cron", "0 * * * *")
	v.SetDefault("scheduler.synthetic_replay_after", 72*time.Hour)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}
	return v
}

// New builds a Config from defaults and environment variables only.
// It never fails; values are not validated.
func New() *Config {
	cfg, err := decode(newViper())
	if err != nil {
		// malformed env value: fall back to plain defaults
		defaults := viper.New()
		setDefaults(defaults)
		cfg, _ = decode(defaults)
	}
	return cfg
}

// Load reads defaults, the optional YAML file at path, and environment variables
// (highest precedence), then validates the result.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks struct constraints on a fully decoded Config.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if strings.TrimSpace(cfg.DB.DSN) == "" {
		cfg.DB.DSN = fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
		)
	}
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))
	return cfg, nil
}

// GRPCAddr joins host and port.
func (c *Config) GRPCAddr() string {
	return c.GRPC.Host + ":" + c.GRPC.Port
}
