package config

import "time"

// Config represents the complete application configuration
type Config struct {
	Server       ServerConfig     `mapstructure:"server"`
	Database     DatabaseConfig   `mapstructure:"database"`
	Corpus       CorpusConfig     `mapstructure:"corpus"`
	Search       SearchConfig     `mapstructure:"search"`
	Clips        ClipsConfig      `mapstructure:"clips"`
	Processing   ProcessingConfig `mapstructure:"processing"`
	Cleanup      CleanupConfig    `mapstructure:"cleanup"`
	RateLimiting RateLimitConfig  `mapstructure:"rate_limiting"`
	Security     SecurityConfig   `mapstructure:"security"`
	Logging      LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxHeaderBytes  int           `mapstructure:"max_header_bytes"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path               string        `mapstructure:"path"`
	MaxConnections     int           `mapstructure:"max_connections"`
	MaxIdleConnections int           `mapstructure:"max_idle_connections"`
	BusyTimeout        time.Duration `mapstructure:"busy_timeout"`
	Verbose            bool          `mapstructure:"verbose"`
}

// CorpusConfig describes where the media library lives and how it is indexed
type CorpusConfig struct {
	Roots        []string `mapstructure:"roots"`
	IndexWorkers int      `mapstructure:"index_workers"`
	BatchSize    int      `mapstructure:"batch_size"`
}

// SearchConfig contains search defaults. Ranking by full-text relevance is
// not a setting: it depends on building with -tags sqlite_fts5.
type SearchConfig struct {
	DefaultLimit int           `mapstructure:"default_limit"`
	MaxLimit     int           `mapstructure:"max_limit"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
}

// ClipsConfig contains clip extraction settings
type ClipsConfig struct {
	OutputDir        string        `mapstructure:"output_dir"`
	FFmpegPath       string        `mapstructure:"ffmpeg_path"`
	FFprobePath      string        `mapstructure:"ffprobe_path"`
	TranscodeTimeout time.Duration `mapstructure:"transcode_timeout"`
	DefaultPadding   float64       `mapstructure:"default_padding"`
	DefaultPriority  int           `mapstructure:"default_priority"`
}

// ProcessingConfig contains background fulfilment settings
type ProcessingConfig struct {
	Workers           int           `mapstructure:"workers"`
	PollInterval      time.Duration `mapstructure:"poll_interval"`
	StaleAfter        time.Duration `mapstructure:"stale_after"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
}

// CleanupConfig contains maintenance settings
type CleanupConfig struct {
	Interval         time.Duration `mapstructure:"interval"`
	TempMaxAge       time.Duration `mapstructure:"temp_max_age"`
	PurgeFailedAfter time.Duration `mapstructure:"purge_failed_after"`
}

// RateLimitConfig contains rate limiting settings
type RateLimitConfig struct {
	Enabled   bool           `mapstructure:"enabled"`
	Endpoints map[string]int `mapstructure:"endpoints"`
}

// SecurityConfig contains security settings
type SecurityConfig struct {
	EnableCORS  bool     `mapstructure:"enable_cors"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
