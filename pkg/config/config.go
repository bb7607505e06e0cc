package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Auth         AuthConfig
	RateLimit    RateLimitConfig
	Orders       OrdersConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if cfg.Orders.LowStockThreshold < 0 {
		return nil, fmt.Errorf("%s must not be negative", EnvOrdersLowStockThreshold)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"KRISHI_APP_ENV" required:"true"`
	Port         string `envconfig:"KRISHI_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"KRISHI_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"KRISHI_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"KRISHI_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"KRISHI_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"KRISHI_DB_DSN"`
	Driver string `envconfig:"KRISHI_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"KRISHI_DB_HOST"`
	LegacyPort     int    `envconfig:"KRISHI_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"KRISHI_DB_USER"`
	LegacyPassword string `envconfig:"KRISHI_DB_PASSWORD"`
	LegacyName     string `envconfig:"KRISHI_DB_NAME"`
	LegacySSLMode  string `envconfig:"KRISHI_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"KRISHI_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"KRISHI_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"KRISHI_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"KRISHI_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the sqlite dialector was selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), "sqlite")
}

type RedisConfig struct {
	URL          string        `envconfig:"KRISHI_REDIS_URL" required:"true"`
	Address      string        `envconfig:"KRISHI_REDIS_ADDR"`
	Password     string        `envconfig:"KRISHI_REDIS_PASSWORD"`
	DB           int           `envconfig:"KRISHI_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"KRISHI_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"KRISHI_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"KRISHI_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KRISHI_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"KRISHI_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"KRISHI_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"KRISHI_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"KRISHI_JWT_EXPIRATION_MINUTES" default:"60"`
}

// AuthConfig controls how access tokens minted by the identity provider are trusted.
type AuthConfig struct {
	SessionCheck bool `envconfig:"KRISHI_AUTH_SESSION_CHECK" default:"false"`
}

type RateLimitConfig struct {
	Window time.Duration `envconfig:"KRISHI_RATE_LIMIT_WINDOW" default:"1m"`
	Limit  int           `envconfig:"KRISHI_RATE_LIMIT_LIMIT" default:"120"`
}

type OrdersConfig struct {
	StrictTransitions bool `envconfig:"KRISHI_ORDERS_STRICT_TRANSITIONS" default:"true"`
	LowStockThreshold int  `envconfig:"KRISHI_ORDERS_LOW_STOCK_THRESHOLD" default:"5"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"KRISHI_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = "file:krishi.db?cache=shared"
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
