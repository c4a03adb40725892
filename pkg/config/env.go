package config

const EnvPrefix = "MACA"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "MACA_APP_ENV"
	EnvPort     = "MACA_APP_PORT"
	EnvLogLevel = "MACA_LOG_LEVEL"

	EnvDBDSN  = "MACA_DB_DSN"
	EnvDBHost = "MACA_DB_HOST"
	EnvDBUser = "MACA_DB_USER"
	EnvDBName = "MACA_DB_NAME"

	EnvRedisURL = "MACA_REDIS_URL"

	EnvJWTSecret  = "MACA_JWT_SECRET"
	EnvJWTIssuer  = "MACA_JWT_ISSUER"
	EnvJWTExpMins = "MACA_JWT_EXPIRATION_MINUTES"

	EnvUseSQLite = "MACA_USE_SQLITE"

	EnvPricingTaxPercent       = "MACA_PRICING_TAX_PERCENT"
	EnvPricingMaxBasicDiscount = "MACA_PRICING_MAX_BASIC_DISCOUNT"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
