package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	APIRateLimit  APIRateLimitConfig
	Pricing       PricingConfig
	Cart          CartConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Pricing.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MACA_APP_ENV" required:"true"`
	Port         string `envconfig:"MACA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MACA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MACA_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"MACA_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MACA_DB_DSN"`
	Driver string `envconfig:"MACA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MACA_DB_HOST"`
	LegacyPort     int    `envconfig:"MACA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MACA_DB_USER"`
	LegacyPassword string `envconfig:"MACA_DB_PASSWORD"`
	LegacyName     string `envconfig:"MACA_DB_NAME"`
	LegacySSLMode  string `envconfig:"MACA_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"MACA_DB_SQLITE_PATH" default:"maca.db"`

	MaxOpenConns    int           `envconfig:"MACA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MACA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MACA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MACA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MACA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MACA_REDIS_ADDR"`
	Password     string        `envconfig:"MACA_REDIS_PASSWORD"`
	DB           int           `envconfig:"MACA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MACA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MACA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MACA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MACA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MACA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"MACA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MACA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"MACA_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenHours int    `envconfig:"MACA_JWT_REFRESH_TOKEN_HOURS" default:"168"`
}

// AccessTTL returns the access token lifetime.
func (j JWTConfig) AccessTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns how long a login session may be refreshed.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenHours <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenHours) * time.Hour
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"MACA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"MACA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"MACA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"MACA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"MACA_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow          time.Duration `envconfig:"MACA_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit      int           `envconfig:"MACA_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit         int           `envconfig:"MACA_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	ApplicationWindow    time.Duration `envconfig:"MACA_AUTH_RATE_LIMIT_APPLICATION_WINDOW" default:"5m"`
	ApplicationIPLimit   int           `envconfig:"MACA_AUTH_RATE_LIMIT_APPLICATION_IP_LIMIT" default:"10"`
	ApplicationMailLimit int           `envconfig:"MACA_AUTH_RATE_LIMIT_APPLICATION_EMAIL_LIMIT" default:"3"`
}

// APIRateLimitConfig throttles authenticated traffic per user in fixed windows.
type APIRateLimitConfig struct {
	Window time.Duration `envconfig:"MACA_API_RATE_LIMIT_WINDOW" default:"1m"`
	Limit  int           `envconfig:"MACA_API_RATE_LIMIT" default:"120"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"MACA_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"MACA_AUTO_MIGRATE" default:"false"`
}

// PricingConfig holds the order-level pricing knobs. Percent values are whole or fractional
// percentages, never ratios.
type PricingConfig struct {
	TaxPercent         float64 `envconfig:"MACA_PRICING_TAX_PERCENT" default:"10"`
	MaxBasicDiscount   float64 `envconfig:"MACA_PRICING_MAX_BASIC_DISCOUNT" default:"50"`
	DefaultPaymentDays int     `envconfig:"MACA_PRICING_DEFAULT_PAYMENT_DAYS" default:"30"`
}

func (p PricingConfig) validate() error {
	if p.TaxPercent < 0 || p.TaxPercent > 100 {
		return fmt.Errorf("%s must be within [0,100], got %v", EnvPricingTaxPercent, p.TaxPercent)
	}
	if p.MaxBasicDiscount < 0 || p.MaxBasicDiscount > 100 {
		return fmt.Errorf("%s must be within [0,100], got %v", EnvPricingMaxBasicDiscount, p.MaxBasicDiscount)
	}
	return nil
}

type CartConfig struct {
	TTL time.Duration `envconfig:"MACA_CART_TTL" default:"720h"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" || useSQLite {
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
