package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

type Config struct {
	AppPort     int
	AppTimezone string
	LogFile     string
	LogLevel    string
	CORSOrigins []string

	JWTSecret  string
	SessionTTL time.Duration

	// StoreBackend is "postgres" or "memory".
	StoreBackend string
	Database     DatabaseConfig

	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int

	// MailBackend is "smtp", "ses" or "log".
	MailBackend  string
	MailFrom     string
	SupportEmail string
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	AWSRegion    string

	DefaultTenantName    string
	DefaultTenantTaxID   string
	DefaultTenantAddress string
	DefaultTenantPhone   string
	DefaultTenantEmail   string

	VerificationCodeTTL time.Duration
}

// Load reads .env when present, then the environment.
func Load() Config {
	_ = godotenv.Load(".env")

	cfg := Config{}

	cfg.AppPort = cast.ToInt(getOrReturnDefault("APP_PORT", 8080))
	cfg.AppTimezone = cast.ToString(getOrReturnDefault("APP_TIMEZONE", "America/Bogota"))
	cfg.LogFile = cast.ToString(getOrReturnDefault("LOG_FILE", "./logs/app.log"))
	cfg.LogLevel = cast.ToString(getOrReturnDefault("LOG_LEVEL", "info"))
	cfg.CORSOrigins = splitList(cast.ToString(getOrReturnDefault("CORS_ORIGINS", "")))

	cfg.JWTSecret = cast.ToString(getOrReturnDefault("JWT_SECRET", "supersecret"))
	cfg.SessionTTL = cast.ToDuration(getOrReturnDefault("SESSION_TTL", "12h"))

	cfg.StoreBackend = strings.ToLower(cast.ToString(getOrReturnDefault("STORE_BACKEND", "postgres")))
	cfg.Database = DatabaseConfig{
		Host:     cast.ToString(getOrReturnDefault("DB_HOST", "localhost")),
		Port:     cast.ToInt(getOrReturnDefault("DB_PORT", 5432)),
		User:     cast.ToString(getOrReturnDefault("DB_USER", "postgres")),
		Password: cast.ToString(getOrReturnDefault("DB_PASSWORD", "password")),
		DBName:   cast.ToString(getOrReturnDefault("DB_NAME", "fleetops")),
		SSLMode:  cast.ToString(getOrReturnDefault("DB_SSLMODE", "disable")),
		TimeZone: cast.ToString(getOrReturnDefault("DB_TIMEZONE", "UTC")),
	}

	cfg.RedisHost = cast.ToString(getOrReturnDefault("REDIS_HOST", ""))
	cfg.RedisPort = cast.ToInt(getOrReturnDefault("REDIS_PORT", 6379))
	cfg.RedisPassword = cast.ToString(getOrReturnDefault("REDIS_PASSWORD", ""))
	cfg.RedisDB = cast.ToInt(getOrReturnDefault("REDIS_DB", 0))

	cfg.MailBackend = strings.ToLower(cast.ToString(getOrReturnDefault("MAIL_BACKEND", "log")))
	cfg.MailFrom = cast.ToString(getOrReturnDefault("MAIL_FROM", "no-reply@rutek.tours"))
	cfg.SupportEmail = cast.ToString(getOrReturnDefault("SUPPORT_EMAIL", "contacto@rutek.tours"))
	cfg.SMTPHost = cast.ToString(getOrReturnDefault("SMTP_HOST", "smtp.gmail.com"))
	cfg.SMTPPort = cast.ToInt(getOrReturnDefault("SMTP_PORT", 587))
	cfg.SMTPUser = cast.ToString(getOrReturnDefault("SMTP_USER", ""))
	cfg.SMTPPassword = cast.ToString(getOrReturnDefault("SMTP_PASSWORD", ""))
	cfg.AWSRegion = cast.ToString(getOrReturnDefault("AWS_REGION", "us-east-1"))

	cfg.DefaultTenantName = cast.ToString(getOrReturnDefault("DEFAULT_TENANT_NAME", "Rutek Tours"))
	cfg.DefaultTenantTaxID = cast.ToString(getOrReturnDefault("DEFAULT_TENANT_TAX_ID", "901000000-0"))
	cfg.DefaultTenantAddress = cast.ToString(getOrReturnDefault("DEFAULT_TENANT_ADDRESS", "Bogotá, Colombia"))
	cfg.DefaultTenantPhone = cast.ToString(getOrReturnDefault("DEFAULT_TENANT_PHONE", "3000000000"))
	cfg.DefaultTenantEmail = cast.ToString(getOrReturnDefault("DEFAULT_TENANT_EMAIL", "contacto@rutek.tours"))

	cfg.VerificationCodeTTL = cast.ToDuration(getOrReturnDefault("VERIFICATION_CODE_TTL", "0s"))

	return cfg
}

// Location resolves AppTimezone, falling back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.AppTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getOrReturnDefault(key string, defaultValue interface{}) interface{} {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
