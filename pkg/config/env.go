package config

const EnvPrefix = "KRISHI"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "KRISHI_APP_ENV"
	EnvPort     = "KRISHI_APP_PORT"
	EnvLogLevel = "KRISHI_LOG_LEVEL"

	EnvDBDSN    = "KRISHI_DB_DSN"
	EnvDBDriver = "KRISHI_DB_DRIVER"
	EnvDBHost   = "KRISHI_DB_HOST"
	EnvDBUser   = "KRISHI_DB_USER"
	EnvDBName   = "KRISHI_DB_NAME"

	EnvRedisURL = "KRISHI_REDIS_URL"

	EnvJWTSecret  = "KRISHI_JWT_SECRET"
	EnvJWTIssuer  = "KRISHI_JWT_ISSUER"
	EnvJWTExpMins = "KRISHI_JWT_EXPIRATION_MINUTES"

	EnvAuthSessionCheck = "KRISHI_AUTH_SESSION_CHECK"

	EnvOrdersStrictTransitions = "KRISHI_ORDERS_STRICT_TRANSITIONS"
	EnvOrdersLowStockThreshold = "KRISHI_ORDERS_LOW_STOCK_THRESHOLD"
)

// legacyDBEnvVars must all be present when no DSN is configured.
var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
