// Package config loads u2spool configuration from a file, the environment
// and command line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/go-viper/mapstructure/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. U2SPOOL_SPOOL_DIR.
const EnvPrefix = "U2SPOOL"

var ErrConfigInvalid = errors.New("u2spool: invalid configuration")

type Config struct {
	Spool    SpoolConfig    `mapstructure:"spool"`
	Bookmark BookmarkConfig `mapstructure:"bookmark"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type SpoolConfig struct {
	Dir          string        `mapstructure:"dir"`
	Prefix       string        `mapstructure:"prefix"`
	Tail         bool          `mapstructure:"tail"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Watch        bool          `mapstructure:"watch"`
}

type BookmarkConfig struct {
	// Empty disables bookmarking
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level  string     `mapstructure:"level"`
	Format string     `mapstructure:"format"`
	File   FileConfig `mapstructure:"file"`
}

type FileConfig struct {
	// Empty disables file output
	Path       string            `mapstructure:"path"`
	MaxSize    datasize.ByteSize `mapstructure:"max_size"`
	MaxBackups int               `mapstructure:"max_backups"`
	MaxAgeDays int               `mapstructure:"max_age_days"`
	Compress   bool              `mapstructure:"compress"`
}

type MetricsConfig struct {
	// Empty disables the metrics listener
	Listen string `mapstructure:"listen"`
}

// flagKeys maps command line flag names to configuration keys.
var flagKeys = map[string]string{
	"dir":           "spool.dir",
	"prefix":        "spool.prefix",
	"follow":        "spool.tail",
	"poll-interval": "spool.poll_interval",
	"watch":         "spool.watch",
	"bookmark":      "bookmark.path",
	"log-level":     "log.level",
	"log-format":    "log.format",
	"log-file":      "log.file.path",
	"metrics":       "metrics.listen",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("spool.dir", "")
	v.SetDefault("spool.prefix", "unified2.log")
	v.SetDefault("spool.tail", false)
	v.SetDefault("spool.poll_interval", "10ms")
	v.SetDefault("spool.watch", false)
	v.SetDefault("bookmark.path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file.path", "")
	v.SetDefault("log.file.max_size", "100MB")
	v.SetDefault("log.file.max_backups", 3)
	v.SetDefault("log.file.max_age_days", 28)
	v.SetDefault("log.file.compress", false)
	v.SetDefault("metrics.listen", "")
}

// Load reads the configuration. path may be empty, in which case only
// defaults, environment variables and flags apply. Flags that were set
// explicitly take precedence over everything else.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if flag := flags.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("could not bind flag %s: %w", name, err)
				}
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.TextUnmarshallerHookFunc(),
	)))
	if err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings needed to read a spool.
func (cfg *Config) Validate() error {
	if cfg.Spool.Dir == "" {
		return fmt.Errorf("%w: spool.dir is required", ErrConfigInvalid)
	}
	if cfg.Spool.Prefix == "" {
		return fmt.Errorf("%w: spool.prefix is required", ErrConfigInvalid)
	}
	if cfg.Spool.PollInterval < 0 {
		return fmt.Errorf("%w: spool.poll_interval must not be negative", ErrConfigInvalid)
	}
	if _, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("%w: %s", ErrConfigInvalid, err)
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unsupported log format %q (must be json or text)", ErrConfigInvalid, cfg.Log.Format)
	}
	return nil
}
