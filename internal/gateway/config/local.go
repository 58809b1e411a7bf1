package config

import "strconv"

// applyLocalDefaults fills development defaults that differ from production:
// the docker-compose MinIO for catalog objects and verbose logs. Explicit
// environment values always win.
func applyLocalDefaults(cfg *Config, r *reader) {
	if r.raw("S3_ENDPOINT") == "" {
		cfg.S3.Endpoint = "minio:" + strconv.Itoa(r.integer("MINIO_API_PORT", 9000))
	}
	if r.raw("S3_USE_SSL") == "" {
		cfg.S3.UseSSL = false
	}
	if r.raw("S3_ACCESS_KEY") == "" {
		cfg.S3.AccessKey = r.str("MINIO_ROOT_USER", "")
	}
	if r.raw("S3_SECRET_KEY") == "" {
		cfg.S3.SecretKey = r.str("MINIO_ROOT_PASSWORD", "")
	}
	if r.raw("LOG_LEVEL") == "" {
		cfg.Log.Level = "debug"
	}
}
