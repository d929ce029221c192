package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete servloc configuration
type Config struct {
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Stress  StressConfig  `mapstructure:"stress" yaml:"stress"`
	Watch   WatchConfig   `mapstructure:"watch" yaml:"watch"`
	Audio   AudioConfig   `mapstructure:"audio" yaml:"audio"`
}

// LoggingConfig controls diagnostic logging
type LoggingConfig struct {
	// Level is the minimum level written: "debug", "info", "warn" or "error"
	Level string `mapstructure:"level" yaml:"level"`
	// Dir is the directory holding servloc.log. Empty logs to stderr.
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// StressConfig controls the stress harness
type StressConfig struct {
	// Readers is the number of goroutines taking shared access
	Readers int `mapstructure:"readers" yaml:"readers"`
	// Writers is the number of goroutines taking exclusive access
	Writers int `mapstructure:"writers" yaml:"writers"`
	// Iterations is how many acquisitions each goroutine performs
	Iterations int `mapstructure:"iterations" yaml:"iterations"`
	// SwapEvery re-registers the service after this many writer acquisitions (0 = never)
	SwapEvery int `mapstructure:"swap_every" yaml:"swap_every"`
}

// WatchConfig controls the provider file watcher
type WatchConfig struct {
	// ProviderFile is the YAML file naming the audio driver to provide.
	// Empty means provider.yaml in the config directory.
	ProviderFile string `mapstructure:"provider_file" yaml:"provider_file"`
	// DebounceMs is how long to wait after the last change before reloading
	DebounceMs int `mapstructure:"debounce_ms" yaml:"debounce_ms"`
}

// AudioConfig controls the audio capability used by the demo
type AudioConfig struct {
	// DefaultDriver is registered before the provider file is first read
	DefaultDriver string `mapstructure:"default_driver" yaml:"default_driver"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level: "info",
			Dir:   "", // Empty means stderr
		},
		Stress: StressConfig{
			Readers:    8,
			Writers:    2,
			Iterations: 10000,
			SwapEvery:  500,
		},
		Watch: WatchConfig{
			ProviderFile: "",
			DebounceMs:   200,
		},
		Audio: AudioConfig{
			DefaultDriver: "null",
		},
	}
}

// Debounce returns the watcher debounce as a time.Duration
func (c *WatchConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// ProviderPath returns the provider file to watch, falling back to
// provider.yaml in the config directory.
func (c *WatchConfig) ProviderPath() string {
	if c.ProviderFile != "" {
		return c.ProviderFile
	}
	return filepath.Join(ConfigDir(), "provider.yaml")
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Logging defaults
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)

	// Stress defaults
	viper.SetDefault("stress.readers", defaults.Stress.Readers)
	viper.SetDefault("stress.writers", defaults.Stress.Writers)
	viper.SetDefault("stress.iterations", defaults.Stress.Iterations)
	viper.SetDefault("stress.swap_every", defaults.Stress.SwapEvery)

	// Watch defaults
	viper.SetDefault("watch.provider_file", defaults.Watch.ProviderFile)
	viper.SetDefault("watch.debounce_ms", defaults.Watch.DebounceMs)

	// Audio defaults
	viper.SetDefault("audio.default_driver", defaults.Audio.DefaultDriver)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate the configuration
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "servloc")
	}
	// Fall back to ~/.config/servloc
	home, err := os.UserHomeDir()
	if err != nil {
		return ".servloc"
	}
	return filepath.Join(home, ".config", "servloc")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
