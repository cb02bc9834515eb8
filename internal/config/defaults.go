package config

import "github.com/spf13/viper"

// SetDefaults registers every known key so that AutomaticEnv can resolve it
// and `config generate` can emit a complete file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 6000)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("metadata.driver", "postgres")
	v.SetDefault("metadata.auto_migrate", true)
	v.SetDefault("metadata.postgres.url", "")
	v.SetDefault("metadata.postgres.host", "localhost")
	v.SetDefault("metadata.postgres.port", 5432)
	v.SetDefault("metadata.postgres.user", "gallery")
	v.SetDefault("metadata.postgres.password", "change-me")
	v.SetDefault("metadata.postgres.database", "gallery")
	v.SetDefault("metadata.postgres.ssl_mode", "disable")
	v.SetDefault("metadata.postgres.max_conns", 10)
	v.SetDefault("metadata.postgres.min_conns", 0)
	v.SetDefault("metadata.postgres.max_conn_idle_time", "5m")
	v.SetDefault("metadata.sqlite.path", "data/gallery.db")

	v.SetDefault("blob.driver", "fs")
	v.SetDefault("blob.root_dir", "uploads")
	v.SetDefault("blob.public_prefix", "/uploads")
	v.SetDefault("blob.max_upload_bytes", 50*1024*1024)
	v.SetDefault("blob.minio.endpoint", "localhost:9000")
	v.SetDefault("blob.minio.access_key_id", "gallery")
	v.SetDefault("blob.minio.secret_access_key", "change-me-strong-password")
	v.SetDefault("blob.minio.bucket", "gallery")
	v.SetDefault("blob.minio.use_ssl", false)
	v.SetDefault("blob.minio.region", "")
	v.SetDefault("blob.minio.presign_ttl", "15m")

	v.SetDefault("media.batch_delete_width", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.console", true)
	v.SetDefault("log.rotation.max_size", 128)
	v.SetDefault("log.rotation.max_backups", 5)
	v.SetDefault("log.rotation.max_age", 16)
	v.SetDefault("log.rotation.compress", false)

	v.SetDefault("metrics.prometheus_path", "/metrics")
}
