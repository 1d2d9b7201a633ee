package config

import (
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/turtacn/additive-lens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/additive-lens/pkg/errors"
)

// envPrefix is the environment variable prefix of every setting.
const envPrefix = "ADDITIVELENS"

// newViper builds a Viper instance with YAML files, the ADDITIVELENS_ env
// prefix and a "." → "_" key replacer, so "cache.redis.addr" resolves to
// ADDITIVELENS_CACHE_REDIS_ADDR.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// Load reads the YAML file at configPath, applies ADDITIVELENS_* overrides and
// defaults, and validates the result. An empty configPath loads from the
// environment alone.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return LoadFromEnv()
	}
	v := newViper()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, errors.CodeValidation, "config: failed to read config file %q", configPath)
	}
	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config from ADDITIVELENS_* variables and defaults.
//
//	ADDITIVELENS_<SECTION>_<FIELD>   e.g.  ADDITIVELENS_ASSETS_DIR, ADDITIVELENS_CACHE_REDIS_ADDR
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, errors.CodeValidation, "config: failed to unmarshal configuration")
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Watch re-reads configPath whenever fsnotify reports a write and hands the
// new Config to onChange. A change that fails to parse or validate is logged
// and skipped. Callers apply only the settings that are safe to change at
// runtime.
func Watch(configPath string, log logging.Logger, onChange func(*Config)) error {
	if log == nil {
		log = logging.NewNopLogger()
	}
	v := newViper()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, errors.CodeValidation, "config: failed to read config file %q", configPath)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			log.Warn("Ignoring invalid config change", logging.String("file", e.Name), logging.Err(err))
			return
		}
		log.Info("Config reloaded", logging.String("file", e.Name))
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

// WatchLogLevel applies log.level edits in configPath to logger when it
// supports runtime level changes.
func WatchLogLevel(configPath string, logger logging.Logger) error {
	setter, ok := logger.(logging.LevelSetter)
	if !ok {
		return nil
	}
	return Watch(configPath, logger, func(cfg *Config) {
		setter.SetLevel(cfg.Log.Level)
		logger.Info("Log level changed", logging.String("level", cfg.Log.Level))
	})
}

// MustLoad is Load for main(), where a config failure is fatal.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic("config: MustLoad failed: " + err.Error())
	}
	return cfg
}
