package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	// Dataset layout
	DatasetRoot     string `mapstructure:"dataset_root" validate:"required"`
	LabeledIDsPath  string `mapstructure:"labeled_ids_path" validate:"required"`
	ActivityIDsPath string `mapstructure:"activity_ids_path" validate:"required"`

	// Admission rules for trajectory files
	HeaderLines int `mapstructure:"header_lines" validate:"gte=0"`
	MaxPoints   int `mapstructure:"max_points" validate:"gt=0"`

	// Storage
	DBPath string `mapstructure:"db_path" validate:"required"`

	// HTTP API
	Port      string        `mapstructure:"port" validate:"required"`
	JWTSecret string        `mapstructure:"jwt_secret"`
	JWTIssuer string        `mapstructure:"jwt_issuer"`
	RateLimit int           `mapstructure:"rate_limit" validate:"gte=0"` // 每分钟每个IP的最大请求数, 0 表示不限制
	CacheTTL  time.Duration `mapstructure:"cache_ttl" validate:"gte=0"`  // keyed on the dataset version too, 0 disables caching

	LogLevel string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
}

// envBindings maps config keys to the environment variables that override them.
var envBindings = map[string]string{
	"dataset_root":      "FILEPATH",
	"labeled_ids_path":  "FILEPATH_LABELED_IDS",
	"activity_ids_path": "FILEPATH_ACTIVITY_IDS",
	"header_lines":      "HEADER_LINES",
	"max_points":        "MAX_POINTS",
	"db_path":           "DB_PATH",
	"port":              "PORT",
	"jwt_secret":        "JWT_SECRET",
	"jwt_issuer":        "JWT_ISSUER",
	"rate_limit":        "RATE_LIMIT",
	"cache_ttl":         "CACHE_TTL",
	"log_level":         "LOG_LEVEL",
}

// SetDefaults registers the default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("dataset_root", "./dataset/Data")
	v.SetDefault("labeled_ids_path", "./dataset/labeled_ids.txt")
	v.SetDefault("activity_ids_path", "./data/activity_ids.json")
	v.SetDefault("header_lines", 6)
	v.SetDefault("max_points", 2500)
	v.SetDefault("db_path", "./data/geolife.db")
	v.SetDefault("port", ":8080")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("jwt_issuer", "geolife-backend")
	v.SetDefault("rate_limit", 120)
	v.SetDefault("cache_ttl", 10*time.Minute)
	v.SetDefault("log_level", "info")
}

// Load 加载配置
// Values come from defaults, then the optional YAML file at path, then the environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	if path != "" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return nil, fmt.Errorf("failed to expand config path: %w", err)
		}
		v.SetConfigFile(expanded)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", expanded, err)
		}
	}

	return FromViper(v)
}

// FromViper decodes and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.DatasetRoot, &c.LabeledIDsPath, &c.ActivityIDsPath, &c.DBPath} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("failed to expand path %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}
