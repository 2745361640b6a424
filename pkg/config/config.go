package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "PIXCHECKOUT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv      = "PIXCHECKOUT_APP_ENV"
	EnvPort        = "PIXCHECKOUT_APP_PORT"
	EnvLogLevel    = "PIXCHECKOUT_LOG_LEVEL"
	EnvLogFormat   = "PIXCHECKOUT_LOG_FORMAT"
	EnvDBDSN       = "PIXCHECKOUT_DB_DSN"
	EnvDBDriver    = "PIXCHECKOUT_DB_DRIVER"
	EnvRedisURL    = "PIXCHECKOUT_REDIS_URL"
	EnvJWTSecret   = "PIXCHECKOUT_JWT_SECRET"
	EnvJWTIssuer   = "PIXCHECKOUT_JWT_ISSUER"
	EnvElevated    = "PIXCHECKOUT_ROLES_ELEVATED"
	EnvRoleTTL     = "PIXCHECKOUT_ROLES_CACHE_TTL"
	EnvCopyReset   = "PIXCHECKOUT_PIX_COPY_RESET"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	App   AppConfig
	DB    DBConfig
	Redis RedisConfig
	JWT   JWTConfig
	Roles RolesConfig
	Pix   PixConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch strings.ToLower(c.DB.Driver) {
	case DriverPostgres:
		if c.DB.DSN == "" {
			return fmt.Errorf("%s is required for the postgres driver", EnvDBDSN)
		}
	case DriverSQLite:
		if c.DB.DSN == "" {
			c.DB.DSN = "file::memory:?cache=shared"
		}
	default:
		return fmt.Errorf("unsupported %s %q", EnvDBDriver, c.DB.Driver)
	}
	if c.Pix.CopyResetDelay <= 0 {
		return fmt.Errorf("%s must be positive", EnvCopyReset)
	}
	if strings.TrimSpace(c.Roles.ElevatedRole) == "" {
		return fmt.Errorf("%s must not be empty", EnvElevated)
	}
	return nil
}

type AppConfig struct {
	Env          string `envconfig:"PIXCHECKOUT_APP_ENV" required:"true"`
	Port         string `envconfig:"PIXCHECKOUT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"PIXCHECKOUT_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"PIXCHECKOUT_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"PIXCHECKOUT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN         string `envconfig:"PIXCHECKOUT_DB_DSN"`
	Driver      string `envconfig:"PIXCHECKOUT_DB_DRIVER" default:"postgres"`
	AutoMigrate bool   `envconfig:"PIXCHECKOUT_DB_AUTO_MIGRATE" default:"false"`

	MaxOpenConns    int           `envconfig:"PIXCHECKOUT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PIXCHECKOUT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PIXCHECKOUT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PIXCHECKOUT_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"PIXCHECKOUT_DB_SLOW_QUERY" default:"200ms"`
}

func (d DBConfig) IsSQLite() bool {
	return strings.EqualFold(d.Driver, DriverSQLite)
}

// RedisConfig is optional; leaving both URL and Address empty disables the role cache.
type RedisConfig struct {
	URL          string        `envconfig:"PIXCHECKOUT_REDIS_URL"`
	Address      string        `envconfig:"PIXCHECKOUT_REDIS_ADDR"`
	Password     string        `envconfig:"PIXCHECKOUT_REDIS_PASSWORD"`
	DB           int           `envconfig:"PIXCHECKOUT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PIXCHECKOUT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PIXCHECKOUT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PIXCHECKOUT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PIXCHECKOUT_REDIS_READ_TIMEOUT" default:"2s"`
	WriteTimeout time.Duration `envconfig:"PIXCHECKOUT_REDIS_WRITE_TIMEOUT" default:"2s"`
}

func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"PIXCHECKOUT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PIXCHECKOUT_JWT_ISSUER" default:"pixcheckout"`
	ExpirationMinutes int    `envconfig:"PIXCHECKOUT_JWT_EXPIRATION_MINUTES" default:"60"`
	// Audience is checked only when set.
	Audience string        `envconfig:"PIXCHECKOUT_JWT_AUDIENCE"`
	Leeway   time.Duration `envconfig:"PIXCHECKOUT_JWT_LEEWAY" default:"30s"`
}

type RolesConfig struct {
	ElevatedRole  string        `envconfig:"PIXCHECKOUT_ROLES_ELEVATED" default:"admin"`
	CacheTTL      time.Duration `envconfig:"PIXCHECKOUT_ROLES_CACHE_TTL" default:"30s"`
	LookupTimeout time.Duration `envconfig:"PIXCHECKOUT_ROLES_LOOKUP_TIMEOUT" default:"5s"`
}

type PixConfig struct {
	CopyResetDelay time.Duration `envconfig:"PIXCHECKOUT_PIX_COPY_RESET" default:"3s"`
}
