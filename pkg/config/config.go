package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv         = "STOREFRONT_APP_ENV"
	EnvPort           = "STOREFRONT_APP_PORT"
	EnvDBDSN          = "STOREFRONT_DB_DSN"
	EnvDBHost         = "STOREFRONT_DB_HOST"
	EnvDBUser         = "STOREFRONT_DB_USER"
	EnvDBName         = "STOREFRONT_DB_NAME"
	EnvRedisURL       = "STOREFRONT_REDIS_URL"
	EnvJWTSecret      = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer      = "STOREFRONT_JWT_ISSUER"
	EnvJWTExpMins     = "STOREFRONT_JWT_EXPIRATION_MINUTES"
	EnvUseSQLite      = "STOREFRONT_USE_SQLITE"
	EnvShippingAmount = "STOREFRONT_CHECKOUT_SHIPPING_AMOUNT"
	EnvPostalBaseURL  = "STOREFRONT_POSTAL_BASE_URL"
	EnvDocumentsURL   = "STOREFRONT_DOCUMENTS_BASE_URL"
	EnvOrdersURL      = "STOREFRONT_ORDERS_BASE_URL"
	EnvPaymentKeyID   = "STOREFRONT_PAYMENT_KEY_ID"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Checkout     CheckoutConfig
	Postal       PostalConfig
	Documents    DocumentsConfig
	OrdersAPI    OrdersAPIConfig
	Payment      PaymentConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if _, err := cfg.Checkout.Shipping(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"STOREFRONT_LOG_FORMAT"`

	CORSAllowedOrigins []string `envconfig:"STOREFRONT_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN        string `envconfig:"STOREFRONT_DB_DSN"`
	SQLitePath string `envconfig:"STOREFRONT_DB_SQLITE_PATH" default:"storefront.db"`

	LegacyHost     string `envconfig:"STOREFRONT_DB_HOST"`
	LegacyPort     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOREFRONT_DB_USER"`
	LegacyPassword string `envconfig:"STOREFRONT_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOREFRONT_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"STOREFRONT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"STOREFRONT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"STOREFRONT_JWT_EXPIRATION_MINUTES" required:"true"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STOREFRONT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
}

// CheckoutConfig carries the business constants of the checkout engine.
type CheckoutConfig struct {
	QuoteLineThreshold  int           `envconfig:"STOREFRONT_CHECKOUT_QUOTE_LINE_THRESHOLD" default:"3"`
	DefaultTaxPercent   int           `envconfig:"STOREFRONT_CHECKOUT_DEFAULT_TAX_PERCENT" default:"18"`
	ShippingAmount      string        `envconfig:"STOREFRONT_CHECKOUT_SHIPPING_AMOUNT" default:"0"`
	Currency            string        `envconfig:"STOREFRONT_CHECKOUT_CURRENCY" default:"INR"`
	PostalCodeLength    int           `envconfig:"STOREFRONT_CHECKOUT_POSTAL_CODE_LENGTH" default:"6"`
	SubmissionLockTTL   time.Duration `envconfig:"STOREFRONT_CHECKOUT_SUBMISSION_LOCK_TTL" default:"15m"`
	SessionIdleLifetime time.Duration `envconfig:"STOREFRONT_CHECKOUT_SESSION_IDLE_LIFETIME" default:"24h"`
}

// Shipping parses the configured flat shipping amount.
func (c CheckoutConfig) Shipping() (decimal.Decimal, error) {
	raw := strings.TrimSpace(c.ShippingAmount)
	if raw == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing %s: %w", EnvShippingAmount, err)
	}
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative", EnvShippingAmount)
	}
	return amount, nil
}

type PostalConfig struct {
	BaseURL string        `envconfig:"STOREFRONT_POSTAL_BASE_URL" default:"https://api.postalpincode.in"`
	Timeout time.Duration `envconfig:"STOREFRONT_POSTAL_TIMEOUT" default:"5s"`
}

type DocumentsConfig struct {
	BaseURL string        `envconfig:"STOREFRONT_DOCUMENTS_BASE_URL"`
	APIKey  string        `envconfig:"STOREFRONT_DOCUMENTS_API_KEY"`
	Timeout time.Duration `envconfig:"STOREFRONT_DOCUMENTS_TIMEOUT" default:"20s"`
}

type OrdersAPIConfig struct {
	BaseURL string        `envconfig:"STOREFRONT_ORDERS_BASE_URL"`
	APIKey  string        `envconfig:"STOREFRONT_ORDERS_API_KEY"`
	Timeout time.Duration `envconfig:"STOREFRONT_ORDERS_TIMEOUT" default:"15s"`
}

// PaymentConfig identifies the hosted payment provider; an empty key id means the channel is unavailable.
type PaymentConfig struct {
	KeyID string `envconfig:"STOREFRONT_PAYMENT_KEY_ID"`
}

func (p PaymentConfig) Enabled() bool {
	return strings.TrimSpace(p.KeyID) != ""
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
