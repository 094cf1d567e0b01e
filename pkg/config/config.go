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
	Stripe       StripeConfig
	Imports      ImportConfig
	Lookup       LookupConfig
	FeatureFlags FeatureFlagsConfig
	CORS         CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"RINKSIDE_APP_ENV" required:"true"`
	Port         string `envconfig:"RINKSIDE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"RINKSIDE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"RINKSIDE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"RINKSIDE_DB_DSN"`
	Driver string `envconfig:"RINKSIDE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"RINKSIDE_DB_HOST"`
	LegacyPort     int    `envconfig:"RINKSIDE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"RINKSIDE_DB_USER"`
	LegacyPassword string `envconfig:"RINKSIDE_DB_PASSWORD"`
	LegacyName     string `envconfig:"RINKSIDE_DB_NAME"`
	LegacySSLMode  string `envconfig:"RINKSIDE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"RINKSIDE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"RINKSIDE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"RINKSIDE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RINKSIDE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"RINKSIDE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"RINKSIDE_REDIS_ADDR"`
	Password     string        `envconfig:"RINKSIDE_REDIS_PASSWORD"`
	DB           int           `envconfig:"RINKSIDE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RINKSIDE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RINKSIDE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RINKSIDE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RINKSIDE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RINKSIDE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"RINKSIDE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"RINKSIDE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"RINKSIDE_JWT_EXPIRATION_MINUTES" required:"true"`
}

// AccessTokenTTL returns the access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type StripeConfig struct {
	APIKey string `envconfig:"RINKSIDE_STRIPE_API_KEY"`
	Env    string `envconfig:"RINKSIDE_STRIPE_ENV" default:"test"`
	// PortalReturnURL is appended to billing-portal sessions so Stripe can send
	// the operator back to the billing page.
	PortalReturnURL string `envconfig:"RINKSIDE_STRIPE_PORTAL_RETURN_URL" default:"http://localhost:3000/billing"`
	InvoicePageSize int    `envconfig:"RINKSIDE_STRIPE_INVOICE_PAGE_SIZE" default:"10"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type ImportConfig struct {
	MaxCSVBytes     int64 `envconfig:"RINKSIDE_IMPORT_MAX_CSV_BYTES" default:"1048576"`
	OverfetchFactor int   `envconfig:"RINKSIDE_AUDIT_OVERFETCH_FACTOR" default:"3"`
}

// LookupConfig bounds latency-sensitive store lookups (membership/org checks).
type LookupConfig struct {
	Timeout time.Duration `envconfig:"RINKSIDE_LOOKUP_TIMEOUT" default:"4s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"RINKSIDE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"RINKSIDE_AUTO_MIGRATE" default:"false"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"RINKSIDE_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
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
