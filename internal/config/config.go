package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the importer.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Import    ImportConfig    `yaml:"import"`
	Inference InferenceConfig `yaml:"inference"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port                int      `yaml:"port"`
	Host                string   `yaml:"host"`
	AllowedOrigins      []string `yaml:"allowed_origins"`
	ReadTimeoutSeconds  int      `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int      `yaml:"write_timeout_seconds"`
	MaxUploadMB         int      `yaml:"max_upload_mb"`
}

// GetHost returns the listen host. Containers listen on all interfaces.
func (c ServerConfig) GetHost() string {
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// MaxUploadBytes is the multipart size limit for spreadsheet uploads.
func (c ServerConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// DatabaseConfig holds the PostgreSQL connection settings.
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// RedisConfig holds the Redis settings used for import runs and locks.
// An empty Addr disables Redis; runs are then kept in memory and locks
// fall back to PostgreSQL advisory locks.
type RedisConfig struct {
	Addr        string `yaml:"addr"`
	Password    string `yaml:"password"`
	DB          int    `yaml:"db"`
	RunTTLHours int    `yaml:"run_ttl_hours"`
}

// RunTTL is how long a stored run stays retryable.
func (c RedisConfig) RunTTL() time.Duration {
	return time.Duration(c.RunTTLHours) * time.Hour
}

// ImportConfig holds the import pipeline limits.
type ImportConfig struct {
	BatchSize          int    `yaml:"batch_size"`
	MaxRows            int    `yaml:"max_rows"`
	CallTimeoutSeconds int    `yaml:"call_timeout_seconds"`
	DedupWindowHours   int    `yaml:"dedup_window_hours"`
	TrackingPrefix     string `yaml:"tracking_prefix"`
	LockTTLSeconds     int    `yaml:"lock_ttl_seconds"`
}

// CallTimeout bounds each collaborator call.
func (c ImportConfig) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutSeconds) * time.Second
}

// DedupWindow is how far back duplicate detection looks.
func (c ImportConfig) DedupWindow() time.Duration {
	return time.Duration(c.DedupWindowHours) * time.Hour
}

// LockTTL bounds how long a per-sender commit lock may be held.
func (c ImportConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

// InferenceConfig selects the location inferrer: "keyword" (local),
// "remote" (HTTP service at URL) or "off".
type InferenceConfig struct {
	Mode           string `yaml:"mode"`
	URL            string `yaml:"url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
}

// Timeout returns the configured timeout as a duration
func (c InferenceConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ArchiveConfig holds where uploaded spreadsheets are kept: "s3",
// "local" or "" to disable archiving.
type ArchiveConfig struct {
	Type       string `yaml:"type"`
	LocalPath  string `yaml:"local_path"`
	S3Bucket   string `yaml:"s3_bucket"`
	S3Prefix   string `yaml:"s3_prefix"`
	AWSRegion  string `yaml:"aws_region"`
	AWSProfile string `yaml:"aws_profile"` // Empty string uses default credential chain (IAM role on ECS)
	Endpoint   string `yaml:"endpoint"`    // S3-compatible endpoint, e.g. MinIO
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
}

// GetAWSProfile returns the AWS profile, with environment variable override
func (c ArchiveConfig) GetAWSProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return ""
		}
		return envProfile
	}
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return ""
	}
	return c.AWSProfile
}

// LoggingConfig controls the logger. PII is redacted unless LogPII is set.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
	LogPII      bool   `yaml:"log_pii"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.ReadTimeoutSeconds == 0 {
		cfg.Server.ReadTimeoutSeconds = 30
	}
	if cfg.Server.WriteTimeoutSeconds == 0 {
		// commits of 500 rows run inside one request
		cfg.Server.WriteTimeoutSeconds = 300
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 10
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 20
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Redis.RunTTLHours == 0 {
		cfg.Redis.RunTTLHours = 7 * 24
	}
	if cfg.Import.BatchSize == 0 {
		cfg.Import.BatchSize = 25
	}
	if cfg.Import.MaxRows == 0 {
		cfg.Import.MaxRows = 500
	}
	if cfg.Import.CallTimeoutSeconds == 0 {
		cfg.Import.CallTimeoutSeconds = 10
	}
	if cfg.Import.DedupWindowHours == 0 {
		cfg.Import.DedupWindowHours = 72
	}
	if cfg.Import.TrackingPrefix == "" {
		cfg.Import.TrackingPrefix = "UY"
	}
	if cfg.Import.LockTTLSeconds == 0 {
		cfg.Import.LockTTLSeconds = 600
	}
	if cfg.Inference.Mode == "" {
		cfg.Inference.Mode = "keyword"
	}
	if cfg.Inference.TimeoutSeconds == 0 {
		cfg.Inference.TimeoutSeconds = 5
	}
	if cfg.Inference.MaxRetries == 0 {
		cfg.Inference.MaxRetries = 2
	}
	if cfg.Archive.LocalPath == "" {
		cfg.Archive.LocalPath = "./data/uploads"
	}
	if cfg.Archive.S3Prefix == "" {
		cfg.Archive.S3Prefix = "imports"
	}
	if cfg.Archive.AWSRegion == "" {
		cfg.Archive.AWSRegion = "us-east-1"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on ECS.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("INFERENCE_URL"); v != "" {
		cfg.Inference.URL = v
		cfg.Inference.Mode = "remote"
	}
	if v := os.Getenv("ARCHIVE_S3_BUCKET"); v != "" {
		cfg.Archive.S3Bucket = v
		cfg.Archive.Type = "s3"
	}
	if v := os.Getenv("ARCHIVE_S3_REGION"); v != "" {
		cfg.Archive.AWSRegion = v
	}
	if v := os.Getenv("ARCHIVE_S3_ENDPOINT"); v != "" {
		cfg.Archive.Endpoint = v
	}
	if v := os.Getenv("ARCHIVE_ACCESS_KEY"); v != "" {
		cfg.Archive.AccessKey = v
	}
	if v := os.Getenv("ARCHIVE_SECRET_KEY"); v != "" {
		cfg.Archive.SecretKey = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	return cfg, nil
}
