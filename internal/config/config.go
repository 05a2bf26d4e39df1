package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Lock backends.
const (
	LockMemory = "memory"
	LockRedis  = "redis"
	LockNone   = "none"
)

const defaultJWTSecret = "change-me-jwt-secret"

type Config struct {
	AppEnv         string `mapstructure:"APP_ENV"`
	HTTPAddr       string `mapstructure:"HTTP_ADDR"`
	LogLevel       string `mapstructure:"LOG_LEVEL"`
	DatabaseURL    string `mapstructure:"DATABASE_URL"`
	DBMaxOpenConns int    `mapstructure:"DB_MAX_OPEN_CONNS"`

	JWTSecret string        `mapstructure:"JWT_SECRET"`
	JWTTTL    time.Duration `mapstructure:"JWT_TTL"`

	TenantTimezone string        `mapstructure:"TENANT_TIMEZONE"`
	ReminderLead   time.Duration `mapstructure:"REMINDER_LEAD"`

	PublicEnforceAvailability bool `mapstructure:"PUBLIC_ENFORCE_AVAILABILITY"`
	StaffEnforceAvailability  bool `mapstructure:"STAFF_ENFORCE_AVAILABILITY"`

	LockBackend string        `mapstructure:"LOCK_BACKEND"`
	LockTTL     time.Duration `mapstructure:"LOCK_TTL"`
	LockWait    time.Duration `mapstructure:"LOCK_WAIT"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	WSAllowedOrigins []string `mapstructure:"-"`

	location *time.Location
}

var keys = []string{
	"APP_ENV", "HTTP_ADDR", "LOG_LEVEL", "DATABASE_URL", "DB_MAX_OPEN_CONNS",
	"JWT_SECRET", "JWT_TTL", "TENANT_TIMEZONE", "REMINDER_LEAD",
	"PUBLIC_ENFORCE_AVAILABILITY", "STAFF_ENFORCE_AVAILABILITY",
	"LOCK_BACKEND", "LOCK_TTL", "LOCK_WAIT",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "WS_ALLOWED_ORIGINS",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("DATABASE_URL", "file:clinicbook.db?_pragma=busy_timeout(5000)")
	v.SetDefault("DB_MAX_OPEN_CONNS", 20)
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_TTL", "15m")
	v.SetDefault("TENANT_TIMEZONE", "UTC")
	v.SetDefault("REMINDER_LEAD", "24h")
	v.SetDefault("PUBLIC_ENFORCE_AVAILABILITY", true)
	v.SetDefault("STAFF_ENFORCE_AVAILABILITY", false)
	v.SetDefault("LOCK_BACKEND", LockMemory)
	v.SetDefault("LOCK_TTL", "10s")
	v.SetDefault("LOCK_WAIT", "5s")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("WS_ALLOWED_ORIGINS", "")
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	setDefaults(v)
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.AppEnv = strings.ToLower(strings.TrimSpace(cfg.AppEnv))
	cfg.LockBackend = strings.ToLower(strings.TrimSpace(cfg.LockBackend))
	cfg.WSAllowedOrigins = splitList(v.GetString("WS_ALLOWED_ORIGINS"))

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if c.DBMaxOpenConns <= 0 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be > 0")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}
	if c.ReminderLead < 0 {
		return fmt.Errorf("REMINDER_LEAD must be >= 0")
	}
	if c.LockTTL <= 0 || c.LockWait <= 0 {
		return fmt.Errorf("LOCK_TTL and LOCK_WAIT must be > 0")
	}
	switch c.LockBackend {
	case LockMemory, LockNone:
	case LockRedis:
		if strings.TrimSpace(c.RedisAddr) == "" {
			return fmt.Errorf("REDIS_ADDR must be set when LOCK_BACKEND=redis")
		}
	default:
		return fmt.Errorf("LOCK_BACKEND must be one of: memory, redis, none")
	}

	loc, err := time.LoadLocation(c.TenantTimezone)
	if err != nil {
		return fmt.Errorf("invalid TENANT_TIMEZONE %q: %w", c.TenantTimezone, err)
	}
	c.location = loc

	if c.IsProdLike() {
		if isEmptyOrDefault(c.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if c.UsesSQLite() {
			return fmt.Errorf("in prod/release DATABASE_URL must point at PostgreSQL")
		}
	}
	return nil
}

// Location is the tenant timezone.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

func (c *Config) IsProdLike() bool {
	return c.AppEnv == "prod" || c.AppEnv == "production" || c.AppEnv == "release"
}

// UsesSQLite reports whether DATABASE_URL points at a SQLite file.
func (c *Config) UsesSQLite() bool {
	dsn := strings.ToLower(c.DatabaseURL)
	return strings.HasPrefix(dsn, "file:") || strings.HasSuffix(dsn, ".db") || strings.Contains(dsn, ".db?")
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
