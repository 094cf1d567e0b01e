package config

// EnvPrefix is applied by envconfig when processing the environment.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Environment variable names referenced outside struct tags (tests, error messages).
const (
	EnvAppEnv     = "RINKSIDE_APP_ENV"
	EnvPort       = "RINKSIDE_APP_PORT"
	EnvDBDSN      = "RINKSIDE_DB_DSN"
	EnvDBHost     = "RINKSIDE_DB_HOST"
	EnvDBUser     = "RINKSIDE_DB_USER"
	EnvDBName     = "RINKSIDE_DB_NAME"
	EnvRedisURL   = "RINKSIDE_REDIS_URL"
	EnvJWTSecret  = "RINKSIDE_JWT_SECRET"
	EnvJWTIssuer  = "RINKSIDE_JWT_ISSUER"
	EnvJWTExpMins = "RINKSIDE_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
