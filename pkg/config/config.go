package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides (SUBCLIP_SERVER_PORT, ...)
const EnvPrefix = "SUBCLIP"

var (
	once    sync.Once
	initErr error
)

// Init initializes the configuration system
// This should be called once at application startup
func Init() error {
	once.Do(func() {
		// A missing .env is normal outside of development
		_ = godotenv.Load()

		setDefaults()

		viper.SetEnvPrefix(EnvPrefix)
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.AutomaticEnv()

		configPath := filepath.Clean(configFile())
		viper.SetConfigFile(configPath)

		if err := viper.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !os.IsNotExist(err) && !errors.As(err, &notFound) {
				initErr = fmt.Errorf("error reading config file %s: %w", configPath, err)
				return
			}
		}

		if err := validate(); err != nil {
			initErr = fmt.Errorf("invalid configuration: %w", err)
		}
	})

	return initErr
}

// configFile returns the settings file location, overridable with SUBCLIP_CONFIG
func configFile() string {
	if p := os.Getenv(EnvPrefix + "_CONFIG"); p != "" {
		return p
	}
	return "./config/settings.yaml"
}

// reset clears viper state so Init can run again; used by tests
func reset() {
	viper.Reset()
	once = sync.Once{}
	initErr = nil
}

// GetConfig returns the current configuration as a struct
// Init() must be called before using this
func GetConfig() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &config, nil
}

// GetStringSlice returns a string slice config value
func GetStringSlice(key string) []string {
	return viper.GetStringSlice(key)
}

// GetInt returns an int config value
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetFloat64 returns a float config value
func GetFloat64(key string) float64 {
	return viper.GetFloat64(key)
}

// GetDuration returns a time.Duration config value
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

// validate validates the configuration using Viper values
func validate() error {
	port := viper.GetInt("server.port")
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid server port: %d", port)
	}

	if viper.GetString("database.path") == "" {
		return fmt.Errorf("database.path must be set")
	}

	if viper.GetString("clips.output_dir") == "" {
		return fmt.Errorf("clips.output_dir must be set")
	}

	if p := viper.GetFloat64("clips.default_padding"); p < 0 {
		return fmt.Errorf("invalid clips.default_padding: %v", p)
	}

	// Auto-correct invalid worker counts
	if viper.GetInt("processing.workers") <= 0 {
		viper.Set("processing.workers", 2)
	}
	if viper.GetInt("corpus.index_workers") <= 0 {
		viper.Set("corpus.index_workers", 4)
	}

	if pr := viper.GetInt("clips.default_priority"); pr < 1 || pr > 10 {
		viper.Set("clips.default_priority", 5)
	}

	return nil
}

// Validate validates a Config struct (for testing)
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path must be set")
	}

	if c.Clips.DefaultPadding < 0 {
		return fmt.Errorf("invalid clips.default_padding: %v", c.Clips.DefaultPadding)
	}

	if c.Processing.Workers <= 0 {
		c.Processing.Workers = 2
	}

	if c.Corpus.IndexWorkers <= 0 {
		c.Corpus.IndexWorkers = 4
	}

	if c.Clips.DefaultPriority < 1 || c.Clips.DefaultPriority > 10 {
		c.Clips.DefaultPriority = 5
	}

	return nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)
	viper.SetDefault("server.shutdown_timeout", 10*time.Second)
	viper.SetDefault("server.max_header_bytes", 1048576)

	// Database defaults
	viper.SetDefault("database.path", "./data/subtitles.db")
	viper.SetDefault("database.max_connections", 10)
	viper.SetDefault("database.max_idle_connections", 5)
	viper.SetDefault("database.busy_timeout", 5*time.Second)
	viper.SetDefault("database.verbose", false)

	// Corpus defaults
	viper.SetDefault("corpus.roots", []string{})
	viper.SetDefault("corpus.index_workers", 4)
	viper.SetDefault("corpus.batch_size", 500)

	// Search defaults
	viper.SetDefault("search.default_limit", 50)
	viper.SetDefault("search.max_limit", 500)
	viper.SetDefault("search.cache_ttl", 10*time.Minute)

	// Clip defaults
	viper.SetDefault("clips.output_dir", "./clips")
	viper.SetDefault("clips.ffmpeg_path", "ffmpeg")
	viper.SetDefault("clips.ffprobe_path", "ffprobe")
	viper.SetDefault("clips.transcode_timeout", 300*time.Second)
	viper.SetDefault("clips.default_padding", 2.0)
	viper.SetDefault("clips.default_priority", 5)

	// Processing defaults
	viper.SetDefault("processing.workers", 2)
	viper.SetDefault("processing.poll_interval", 10*time.Second)
	viper.SetDefault("processing.stale_after", 15*time.Minute)
	viper.SetDefault("processing.heartbeat_interval", 15*time.Second)

	// Cleanup defaults
	viper.SetDefault("cleanup.interval", 1*time.Hour)
	viper.SetDefault("cleanup.temp_max_age", 24*time.Hour)
	viper.SetDefault("cleanup.purge_failed_after", time.Duration(0))

	// Rate limiting defaults
	viper.SetDefault("rate_limiting.enabled", true)
	viper.SetDefault("rate_limiting.endpoints", map[string]int{
		"search":  60,
		"clips":   30,
		"default": 120,
	})

	// Security defaults
	viper.SetDefault("security.enable_cors", true)
	viper.SetDefault("security.cors_origins", []string{"*"})

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}
