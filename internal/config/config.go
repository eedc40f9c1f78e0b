package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Server    ServerConfig   `env:",prefix=SERVER_"`
	Postgres  PostgresConfig `env:",prefix=POSTGRES_"`
	Redis     RedisConfig    `env:",prefix=REDIS_"`
	Auth      AuthConfig     `env:",prefix=AUTH_"`
	Mailer    MailerConfig   `env:",prefix=MAILER_"`
	Security  SecurityConfig `env:",prefix="`
	CORS      CORSConfig     `env:",prefix=CORS_"`
	ClientURL string         `env:"CLIENT_URL,default=http://localhost:3000"`
	APIURL    string         `env:"API_URL,default=http://localhost:8080"`
	Env       string         `env:"ENV,default=development"`
}

type ServerConfig struct {
	Port         string   `env:"PORT,default=8080"`
	Host         string   `env:"HOST,default=0.0.0.0"`
	ReadTimeout  Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout Duration `env:"WRITE_TIMEOUT,default=15s"`
}

type PostgresConfig struct {
	Host           string `env:"HOST,default=localhost"`
	Port           string `env:"PORT,default=5432"`
	User           string `env:"USER,default=auth_service"`
	Password       string `env:"PASSWORD,default=auth_service_password"`
	DBName         string `env:"DB,default=auth_service_db"`
	SSLMode        string `env:"SSLMODE,default=disable"`
	MigrationsPath string `env:"MIGRATIONS_PATH,default=migrations"`
}

type RedisConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=6379"`
	Password string `env:"PASSWORD,default="`
	DB       int    `env:"DB,default=0"`
}

type AuthConfig struct {
	JWTSecret            string   `env:"JWT_SECRET,required"`
	CookieName           string   `env:"COOKIE_NAME,default=session"`
	SessionTTL           Duration `env:"SESSION_TTL,default=30d"`
	ConfirmationTokenTTL Duration `env:"CONFIRMATION_TOKEN_TTL,default=1d"`
	EmailChangeTokenTTL  Duration `env:"EMAIL_CHANGE_TOKEN_TTL,default=1d"`
	ResetTokenTTL        Duration `env:"RESET_TOKEN_TTL,default=1h"`
}

type MailerConfig struct {
	ResendToken string `env:"RESEND_TOKEN,default="`
	From        string `env:"FROM,default=auth@localhost"`
}

type SecurityConfig struct {
	BCryptCost        int      `env:"BCRYPT_COST,default=10"`
	RateLimitRequests int      `env:"RATE_LIMIT_REQUESTS,default=10"`
	RateLimitWindow   Duration `env:"RATE_LIMIT_WINDOW,default=1m"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS,default=http://localhost:3000"`
	AllowedMethods []string `env:"ALLOWED_METHODS,default=GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders []string `env:"ALLOWED_HEADERS,default=Content-Type,Authorization"`
}

// DSN returns PostgreSQL connection string
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// URL returns the PostgreSQL connection URL used by the migration runner
func (p PostgresConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DBName, p.SSLMode)
}

// Address returns Redis connection address
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// IsProduction reports whether the service runs with production hardening
// (secure cookies, strict SameSite, Resend delivery).
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	var config Config

	if err := envconfig.Process(ctx, &config); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if len(config.Auth.JWTSecret) < 32 {
		return nil, fmt.Errorf("AUTH_JWT_SECRET must be at least 32 characters long")
	}
	if config.IsProduction() && config.Mailer.ResendToken == "" {
		return nil, fmt.Errorf("MAILER_RESEND_TOKEN is required in production")
	}

	return &config, nil
}

// LoadWithDefaults loads configuration with default context
func LoadWithDefaults() (*Config, error) {
	return Load(context.Background())
}
