package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the application.
type Config struct {
	Server    ServerConfig
	DB        DBConfig
	Log       LogConfig
	Auth      AuthConfig
	Redis     RedisConfig
	Storage   StorageConfig
	Maps      MapsConfig
	Claims    ClaimsConfig
	Scheduler SchedulerConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port            string `envconfig:"SERVER_PORT" default:"3000"`
	ShutdownTimeout int    `envconfig:"SHUTDOWN_TIMEOUT" default:"30"` // seconds
	BodyLimitMB     int    `envconfig:"BODY_LIMIT_MB" default:"6"`     // uploads included
	CORSOrigins     string `envconfig:"CORS_ORIGINS" default:"http://localhost:3001"`
}

// DBConfig holds database-related configuration.
// WARNING: Default password is for local development only.
// In production, always set DB_PASSWORD via environment variable.
// In production, set DB_SSLMODE to "require" or "verify-full".
type DBConfig struct {
	Host           string `envconfig:"DB_HOST" default:"localhost"`
	Port           int    `envconfig:"DB_PORT" default:"5432"`
	User           string `envconfig:"DB_USER" default:"postgres"`
	Password       string `envconfig:"DB_PASSWORD" default:"postgres"` // CHANGE IN PRODUCTION
	Name           string `envconfig:"DB_NAME" default:"marketplace_db"`
	SSLMode        string `envconfig:"DB_SSLMODE" default:"disable"` // Use "require" in production
	MaxConns       int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns       int    `envconfig:"DB_MIN_CONNS" default:"5"`
	MigrateOnStart bool   `envconfig:"DB_MIGRATE_ON_START" default:"true"`
}

// DSN returns the PostgreSQL connection string.
func (c DBConfig) DSN() string {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
	if c.MaxConns > 0 {
		dsn += fmt.Sprintf("&pool_max_conns=%d", c.MaxConns)
	}
	if c.MinConns > 0 {
		dsn += fmt.Sprintf("&pool_min_conns=%d", c.MinConns)
	}
	return dsn
}

// MigrationURL returns the connection string understood by the pgx/v5 migrate driver.
func (c DBConfig) MigrationURL() string {
	return fmt.Sprintf("pgx5://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Pretty bool   `envconfig:"LOG_PRETTY" default:"false"`
}

// AuthConfig holds identity and cookie settings.
// WARNING: Default secrets are for local development only; set
// AUTH_ACCESS_SECRET and AUTH_REFRESH_SECRET in production.
type AuthConfig struct {
	AccessSecret      string        `envconfig:"AUTH_ACCESS_SECRET" default:"dev-access-secret"`
	RefreshSecret     string        `envconfig:"AUTH_REFRESH_SECRET" default:"dev-refresh-secret"`
	Issuer            string        `envconfig:"AUTH_ISSUER" default:"offer-marketplace"`
	AccessTTL         time.Duration `envconfig:"AUTH_ACCESS_TTL" default:"1h"`
	RefreshTTL        time.Duration `envconfig:"AUTH_REFRESH_TTL" default:"720h"`
	ResetTTL          time.Duration `envconfig:"AUTH_RESET_TTL" default:"1h"`
	ResetURL          string        `envconfig:"AUTH_RESET_URL" default:"http://localhost:3001/reset-password"`
	GuestSessionTTL   time.Duration `envconfig:"GUEST_SESSION_TTL" default:"720h"`
	CookieDomain      string        `envconfig:"COOKIE_DOMAIN" default:""`
	CookieSecure      bool          `envconfig:"COOKIE_SECURE" default:"false"`
	AccessCookieName  string        `envconfig:"ACCESS_COOKIE_NAME" default:"access_token"`
	RefreshCookieName string        `envconfig:"REFRESH_COOKIE_NAME" default:"refresh_token"`
	GuestCookieName   string        `envconfig:"GUEST_COOKIE_NAME" default:"guest_session"`
	BcryptCost        int           `envconfig:"BCRYPT_COST" default:"12"`
}

// RedisConfig holds the token store connection. An empty Addr selects the
// in-process store, which is only suitable for a single instance.
type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:""`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// StorageConfig holds S3-compatible object storage settings.
type StorageConfig struct {
	Endpoint      string `envconfig:"STORAGE_ENDPOINT" default:""`
	Region        string `envconfig:"STORAGE_REGION" default:"us-east-1"`
	Bucket        string `envconfig:"STORAGE_BUCKET" default:"marketplace-media"`
	AccessKey     string `envconfig:"STORAGE_ACCESS_KEY" default:""`
	SecretKey     string `envconfig:"STORAGE_SECRET_KEY" default:""`
	UsePathStyle  bool   `envconfig:"STORAGE_PATH_STYLE" default:"true"`
	PublicBaseURL string `envconfig:"STORAGE_PUBLIC_URL" default:""`
	MaxUploadMB   int    `envconfig:"STORAGE_MAX_UPLOAD_MB" default:"5"`
}

// Enabled reports whether uploads can be served.
func (c StorageConfig) Enabled() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// MapsConfig holds the geocoding provider settings.
type MapsConfig struct {
	APIKey  string        `envconfig:"MAPS_API_KEY" default:""`
	BaseURL string        `envconfig:"MAPS_BASE_URL" default:"https://maps.googleapis.com"`
	Timeout time.Duration `envconfig:"MAPS_TIMEOUT" default:"5s"`
}

// ClaimsConfig controls how derived claim expiry is surfaced.
type ClaimsConfig struct {
	// PersistExpiryOnRead writes derived expiry back while listing claims.
	// When false, listing is side-effect free and the sweep persists expiry.
	PersistExpiryOnRead bool `envconfig:"CLAIMS_PERSIST_EXPIRY_ON_READ" default:"false"`
}

// SchedulerConfig controls background jobs.
type SchedulerConfig struct {
	Enabled         bool   `envconfig:"SCHEDULER_ENABLED" default:"true"`
	ExpirySweepSpec string `envconfig:"EXPIRY_SWEEP_SPEC" default:"@every 5m"`
}

// Load parses environment variables into the Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
