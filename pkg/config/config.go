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
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	OTP          OTPConfig
	Razorpay     RazorpayConfig
	PhonePe      PhonePeConfig
	SMS          SMSConfig
	Cron         CronConfig
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
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"STOREFRONT_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"STOREFRONT_DB_DSN"`
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"postgres"`

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
	Secret         string `envconfig:"STOREFRONT_JWT_SECRET" required:"true"`
	Issuer         string `envconfig:"STOREFRONT_JWT_ISSUER" required:"true"`
	ExpirationDays int    `envconfig:"STOREFRONT_JWT_EXPIRATION_DAYS" default:"7"`
	CookieName     string `envconfig:"STOREFRONT_JWT_COOKIE_NAME" default:"sf_session"`
	CookieSecure   bool   `envconfig:"STOREFRONT_JWT_COOKIE_SECURE" default:"true"`
}

// SessionTTL returns the configured session lifetime.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.ExpirationDays <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationDays) * 24 * time.Hour
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"STOREFRONT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"STOREFRONT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"STOREFRONT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"STOREFRONT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"STOREFRONT_ARGON_KEY_LEN" default:"32"`
}

type OTPConfig struct {
	TTL            time.Duration `envconfig:"STOREFRONT_OTP_TTL" default:"5m"`
	ResendInterval time.Duration `envconfig:"STOREFRONT_OTP_RESEND_INTERVAL" default:"30s"`
	MaxAttempts    int           `envconfig:"STOREFRONT_OTP_MAX_ATTEMPTS" default:"5"`
}

type RazorpayConfig struct {
	KeyID     string `envconfig:"STOREFRONT_RAZORPAY_KEY_ID"`
	KeySecret string `envconfig:"STOREFRONT_RAZORPAY_KEY_SECRET"`
}

type PhonePeConfig struct {
	BaseURL      string        `envconfig:"STOREFRONT_PHONEPE_BASE_URL" default:"https://api.phonepe.com/apis/pg"`
	AuthBaseURL  string        `envconfig:"STOREFRONT_PHONEPE_AUTH_BASE_URL" default:"https://api.phonepe.com/apis/identity-manager"`
	ClientID     string        `envconfig:"STOREFRONT_PHONEPE_CLIENT_ID"`
	ClientSecret string        `envconfig:"STOREFRONT_PHONEPE_CLIENT_SECRET"`
	RedirectURL  string        `envconfig:"STOREFRONT_PHONEPE_REDIRECT_URL"`
	Timeout      time.Duration `envconfig:"STOREFRONT_PHONEPE_TIMEOUT" default:"15s"`
}

type SMSConfig struct {
	ProviderURL string `envconfig:"STOREFRONT_SMS_PROVIDER_URL"`
	APIKey      string `envconfig:"STOREFRONT_SMS_API_KEY"`
	SenderID    string `envconfig:"STOREFRONT_SMS_SENDER_ID" default:"STFRNT"`
}

type CronConfig struct {
	Interval      time.Duration `envconfig:"STOREFRONT_CRON_INTERVAL" default:"15m"`
	StaleOrderTTL time.Duration `envconfig:"STOREFRONT_CRON_STALE_ORDER_TTL" default:"24h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
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
