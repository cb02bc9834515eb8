package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "GALLERY"

// Config aggregates runtime configuration for the gallery API.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Metadata MetadataConfig `mapstructure:"metadata"`
	Blob     BlobConfig     `mapstructure:"blob"`
	Media    MediaConfig    `mapstructure:"media"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// ServerConfig parameterizes the HTTP server.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// Address returns the listen address in host:port form.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// MetadataConfig selects and configures the metadata store.
type MetadataConfig struct {
	Driver      string         `mapstructure:"driver"`
	AutoMigrate bool           `mapstructure:"auto_migrate"`
	Postgres    PostgresConfig `mapstructure:"postgres"`
	SQLite      SQLiteConfig   `mapstructure:"sqlite"`
}

// PostgresConfig contains PostgreSQL connection details.
type PostgresConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`

	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// DSN returns the PostgreSQL DSN string. An explicit URL wins over the discrete fields.
func (p PostgresConfig) DSN() string {
	if p.URL != "" {
		return p.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, strings.ToLower(p.SSLMode))
}

// SQLiteConfig holds the embedded database location.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// BlobConfig selects where uploaded bytes live.
type BlobConfig struct {
	Driver         string      `mapstructure:"driver"`
	RootDir        string      `mapstructure:"root_dir"`
	PublicPrefix   string      `mapstructure:"public_prefix"`
	MaxUploadBytes int64       `mapstructure:"max_upload_bytes"`
	MinIO          MinIOConfig `mapstructure:"minio"`
}

// MinIOConfig carries MinIO connection and bucket information.
type MinIOConfig struct {
	Endpoint        string        `mapstructure:"endpoint"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	Bucket          string        `mapstructure:"bucket"`
	UseSSL          bool          `mapstructure:"use_ssl"`
	Region          string        `mapstructure:"region"`
	PresignTTL      time.Duration `mapstructure:"presign_ttl"`
}

// MediaConfig tunes media operations.
type MediaConfig struct {
	// BatchDeleteWidth bounds concurrent deletes in a batch; 0 means unbounded.
	BatchDeleteWidth int `mapstructure:"batch_delete_width"`
}

// LogConfig groups logger settings.
type LogConfig struct {
	Level    string            `mapstructure:"level"`
	File     string            `mapstructure:"file"`
	Console  bool              `mapstructure:"console"`
	Rotation LogRotationConfig `mapstructure:"rotation"`
}

// LogRotationConfig is passed through to lumberjack when File is set.
type LogRotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// MetricsConfig groups observability settings.
type MetricsConfig struct {
	PrometheusPath string `mapstructure:"prometheus_path"`
}

// NewViper prepares a viper instance bound to GALLERY_* environment variables,
// .env files and an optional config file.
func NewViper(path string) (*viper.Viper, error) {
	envFiles := []string{".env", ".env.local"}
	for _, envFile := range envFiles {
		// missing .env files are fine
		_ = godotenv.Load(envFile)
	}

	v := viper.New()
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		for _, envFile := range envFiles {
			_ = godotenv.Load(filepath.Join(filepath.Dir(path), envFile))
		}
	} else {
		v.SetConfigName("gallery")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/gallery")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	return v, nil
}

// Load decodes configuration from the viper instance and validates it.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	cfg.Metadata.Driver = strings.ToLower(strings.TrimSpace(cfg.Metadata.Driver))
	cfg.Blob.Driver = strings.ToLower(strings.TrimSpace(cfg.Blob.Driver))
	cfg.Blob.PublicPrefix = "/" + strings.Trim(cfg.Blob.PublicPrefix, "/")

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports configuration values the service cannot start with.
func (c Config) Validate() error {
	switch c.Metadata.Driver {
	case "postgres":
	case "sqlite":
		if c.Metadata.SQLite.Path == "" {
			return errors.New("metadata.sqlite.path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unsupported metadata driver %q", c.Metadata.Driver)
	}

	switch c.Blob.Driver {
	case "fs":
		if c.Blob.RootDir == "" {
			return errors.New("blob.root_dir is required for the fs driver")
		}
	case "minio":
		if c.Blob.MinIO.Bucket == "" {
			return errors.New("blob.minio.bucket is required for the minio driver")
		}
	default:
		return fmt.Errorf("unsupported blob driver %q", c.Blob.Driver)
	}

	if c.Blob.PublicPrefix == "/" {
		return errors.New("blob.public_prefix must not be the site root")
	}
	if c.Blob.MaxUploadBytes <= 0 {
		return errors.New("blob.max_upload_bytes must be positive")
	}
	if c.Media.BatchDeleteWidth < 0 {
		return errors.New("media.batch_delete_width must not be negative")
	}
	return nil
}
