// Package config resolves worker settings and logging configuration using Viper
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/redqueue/foreman/pkg/worker"
)

// ForemanConfig holds supervisor-level values from a settings file.
type ForemanConfig struct {
	Workers int `mapstructure:"workers"`
}

// Config is the full shape of a settings file.
type Config struct {
	LogLevel string          `mapstructure:"log_level"`
	Worker   worker.Settings `mapstructure:"worker"`
	Foreman  ForemanConfig   `mapstructure:"foreman"`
}

// LogConfig is the shape of a --custom-log-dict settings file.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var (
	regMu    sync.RWMutex
	registry = make(map[string]*worker.Settings)
)

// RegisterSettings makes a named settings object resolvable without a
// settings file. This is the explicit seam for embedding applications and
// tests; Resolve checks it before touching the filesystem.
func RegisterSettings(name string, s *worker.Settings) {
	regMu.Lock()
	defer regMu.Unlock()
	registry[name] = s
}

func registered(name string) *worker.Settings {
	regMu.RLock()
	defer regMu.RUnlock()
	return registry[name]
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")

	v.SetDefault("foreman.workers", 1)

	v.SetDefault("worker.redis_addr", worker.DefaultRedisAddr)
	v.SetDefault("worker.queue_name", worker.DefaultQueueName)
	v.SetDefault("worker.max_jobs", worker.DefaultMaxJobs)
	v.SetDefault("worker.poll_interval", worker.DefaultPollInterval)
	v.SetDefault("worker.job_timeout", worker.DefaultJobTimeout)
	v.SetDefault("worker.health_check_interval", worker.DefaultHealthCheckInterval)
	v.SetDefault("worker.result_ttl", worker.DefaultResultTTL)
	v.SetDefault("worker.watch_debounce", worker.DefaultWatchDebounce)
}

func ConfigureViper() {
	// We can pull config from env variables with a `FOREMAN_` prefix if we want
	viper.SetEnvPrefix("FOREMAN")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(viper.GetViper())
}

func init() {
	ConfigureViper()
}

// Resolve turns a worker-settings locator into resolved settings. The
// locator is either a name previously passed to RegisterSettings or the
// path of a TOML settings file. overrideStr applies comma-separated
// key:value pairs on top of the file with highest precedence.
func Resolve(locator string, overrideStr string) (*worker.Settings, error) {
	if s := registered(locator); s != nil {
		cp := *s
		return &cp, nil
	}

	if _, err := os.Stat(locator); err != nil {
		return nil, fmt.Errorf("worker settings %q is neither a registered name nor a settings file: %w", locator, err)
	}

	viper.SetConfigFile(locator)
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read settings file %s: %w", locator, err)
	}
	slog.Info("loaded settings file", "path", viper.ConfigFileUsed())

	if err := applyOverrides(overrideStr); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings file %s: %w", locator, err)
	}
	return &cfg.Worker, nil
}

// applyOverrides processes override pairs (after loading config to ensure highest precedence)
func applyOverrides(overrideStr string) error {
	if overrideStr == "" {
		return nil
	}
	for _, pair := range strings.Split(overrideStr, ",") {
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid override %q, expected key:value", pair)
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		viper.Set(key, value)
	}
	return nil
}

// Workers returns the effective worker process count, honouring bound
// flags, env, settings file, and the default, in that order.
func Workers() int {
	return viper.GetInt("foreman.workers")
}

// LogLevel returns the log level from the loaded settings file.
func LogLevel() string {
	return viper.GetString("log_level")
}

// LoadLogConfig resolves a --custom-log-dict locator into a logging
// configuration. It uses its own Viper instance so it cannot disturb the
// worker settings.
func LoadLogConfig(locator string) (*LogConfig, error) {
	v := viper.New()
	v.SetDefault("level", "info")
	v.SetDefault("format", "json")
	v.SetConfigFile(locator)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read log settings file %s: %w", locator, err)
	}
	var lc LogConfig
	if err := v.Unmarshal(&lc); err != nil {
		return nil, fmt.Errorf("unmarshal log settings file %s: %w", locator, err)
	}
	return &lc, nil
}

// BindFlags binds pflags to viper keys. bindFlags is a map of pflag names to viper keys.
func BindFlags(bindFlags map[string]string) {
	for flagName, viperKey := range bindFlags {
		if err := viper.BindPFlag(viperKey, pflag.Lookup(flagName)); err != nil {
			slog.Error("Failed to bind flag", "flag", flagName, "error", err)
			os.Exit(1)
		}
	}
}
