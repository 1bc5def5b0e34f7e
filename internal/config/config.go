package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/gookit/validate"
	"github.com/spf13/viper"
)

const (
	EnvConfigPath = "SBM_APPSETTINGS"
	DefaultPath   = "./appsettings.json"
)

type Config struct {
	Path              string
	ConnectionStrings ConnectionStrings   `mapstructure:"connectionstrings"`
	Database          DatabaseConfig      `mapstructure:"database"`
	LiteDB            map[string][]string `mapstructure:"-"`
	Logging           LoggingConfig       `mapstructure:"logging"`
	Tracing           TracingConfig       `mapstructure:"tracing"`
}

type ConnectionStrings struct {
	SahneeBotModelContext string `mapstructure:"sahneebotmodelcontext" validate:"required"`
}

type DatabaseConfig struct {
	Provider string        `mapstructure:"provider" validate:"required|in:postgres,postgresql,mysql,sqlite"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"required|min:1"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level" validate:"required|in:debug,info,warn,error"`
	Mode  string `mapstructure:"mode" validate:"in:development,production"`
}

type TracingConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// DBConfig describes how to reach the target database.
type DBConfig struct {
	Provider string
	DSN      string
}

func (c Config) DB() DBConfig {
	return DBConfig{Provider: c.Database.Provider, DSN: c.ConnectionStrings.SahneeBotModelContext}
}

// ResolvePath picks the config file: an explicit path wins, then the
// SBM_APPSETTINGS variable, then ./appsettings.json.
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if v := os.Getenv(EnvConfigPath); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads and validates the JSON settings file at path.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	v.SetDefault("database.provider", "postgres")
	v.SetDefault("database.timeout", "10m")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.mode", "production")

	_ = v.BindEnv("connectionstrings.sahneebotmodelcontext", "SBM_CONNECTION_STRING")
	_ = v.BindEnv("database.provider", "SBM_DB_PROVIDER")
	_ = v.BindEnv("logging.level", "SBM_LOG_LEVEL")

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode into config struct: %w", err)
	}
	files, err := liteDBFiles(v.Get("litedb"))
	if err != nil {
		return Config{}, err
	}
	cfg.LiteDB = files
	cfg.Path = path
	cfg.Database.Provider = strings.ToLower(strings.TrimSpace(cfg.Database.Provider))
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
	cfg.Logging.Mode = strings.ToLower(strings.TrimSpace(cfg.Logging.Mode))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	for _, section := range []any{&c.ConnectionStrings, &c.Database, &c.Logging} {
		v := validate.Struct(section)
		if !v.Validate() {
			return fmt.Errorf("invalid config: %w", v.Errors)
		}
	}
	if len(c.LiteDB) == 0 {
		return errors.New("invalid config: LiteDb lists no collections")
	}
	return nil
}

// Collections returns the configured collection names in sorted order.
func (c Config) Collections() []string {
	names := make([]string, 0, len(c.LiteDB))
	for name := range c.LiteDB {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// liteDBFiles accepts either a single path or a list of paths per collection.
func liteDBFiles(raw any) (map[string][]string, error) {
	if raw == nil {
		return map[string][]string{}, nil
	}
	section, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid config: LiteDb must be an object, got %T", raw)
	}
	out := make(map[string][]string, len(section))
	for name, value := range section {
		switch v := value.(type) {
		case nil:
			out[name] = nil
		case string:
			out[name] = []string{v}
		case []any:
			paths := make([]string, 0, len(v))
			for _, p := range v {
				s, ok := p.(string)
				if !ok {
					return nil, fmt.Errorf("invalid config: LiteDb.%s contains non-string path %v", name, p)
				}
				paths = append(paths, s)
			}
			out[name] = paths
		default:
			return nil, fmt.Errorf("invalid config: LiteDb.%s must be a path or a list of paths", name)
		}
	}
	return out, nil
}
