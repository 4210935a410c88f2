package config

import (
	"errors"
	"time"

	"github.com/joho/godotenv"

	pkgconfig "github.com/Skotchmaster/storefront/pkg/config"
)

type Config struct {
	ServiceName string
	Port        string
	LogLevel    string

	DatabaseURL string

	JWTAccessSecret  []byte
	JWTRefreshSecret []byte
	AccessTTL        time.Duration
	RefreshTTL       time.Duration

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	RedisURL string
	CacheTTL time.Duration

	CORSOrigins []string
	CSRFEnabled bool
}

// LoadDotenv reads the given .env files if present; missing files are not an error.
func LoadDotenv(files ...string) {
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

func Load() Config {
	return Config{
		ServiceName: pkgconfig.EnvDefault("SERVICE_NAME", "storefront"),
		Port:        pkgconfig.EnvDefault("SERVER_PORT", "8080"),
		LogLevel:    pkgconfig.EnvDefault("LOG_LEVEL", "info"),

		DatabaseURL: pkgconfig.EnvDefault("DATABASE_URL", ""),

		JWTAccessSecret:  []byte(pkgconfig.EnvDefault("JWT_SECRET", "")),
		JWTRefreshSecret: []byte(pkgconfig.EnvDefault("REFRESH_SECRET", "")),
		AccessTTL:        pkgconfig.EnvDurationDefault("ACCESS_TTL", 15*time.Minute),
		RefreshTTL:       pkgconfig.EnvDurationDefault("REFRESH_TTL", 7*24*time.Hour),

		KafkaBrokers: pkgconfig.CSV(pkgconfig.EnvDefault("KAFKA_BROKERS", "")),

		ESURL:      pkgconfig.EnvDefault("ES_URL", ""),
		ESUser:     pkgconfig.EnvDefault("ES_USER", ""),
		ESPassword: pkgconfig.EnvDefault("ES_PASSWORD", ""),
		ESIndex:    pkgconfig.EnvDefault("ES_INDEX", "products"),

		MinioEndpoint:  pkgconfig.EnvDefault("MINIO_ENDPOINT", ""),
		MinioAccessKey: pkgconfig.EnvDefault("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: pkgconfig.EnvDefault("MINIO_SECRET_KEY", ""),
		MinioBucket:    pkgconfig.EnvDefault("MINIO_BUCKET", "product-images"),
		MinioUseSSL:    pkgconfig.EnvBoolDefault("MINIO_USE_SSL", false),

		RedisURL: pkgconfig.EnvDefault("REDIS_URL", ""),
		CacheTTL: pkgconfig.EnvDurationDefault("CACHE_TTL", time.Minute),

		CORSOrigins: pkgconfig.CSV(pkgconfig.EnvDefault("CORS_ORIGINS", "")),
		CSRFEnabled: pkgconfig.EnvBoolDefault("CSRF_ENABLED", false),
	}
}

// Validate checks the settings serve cannot start without.
func (c Config) Validate() error {
	return errors.Join(
		pkgconfig.MustNonEmpty(c.DatabaseURL, "DATABASE_URL"),
		pkgconfig.MustNonEmptyBytes(c.JWTAccessSecret, "JWT_SECRET"),
		pkgconfig.MustNonEmptyBytes(c.JWTRefreshSecret, "REFRESH_SECRET"),
	)
}
