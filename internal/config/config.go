package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port               string        `mapstructure:"PORT"`
	Env                string        `mapstructure:"ENV"`
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
	DatabaseURL        string        `mapstructure:"DATABASE_URL"`
	DBMaxConns         int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns         int32         `mapstructure:"DB_MIN_CONNS"`
	JWTSecret          string        `mapstructure:"JWT_SECRET"`
	JWTIssuer          string        `mapstructure:"JWT_ISSUER"`
	JWTTTL             time.Duration `mapstructure:"JWT_TTL"`
	CORSOrigins        []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS       float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst     int           `mapstructure:"RATE_LIMIT_BURST"`
	NLUProjectID       string        `mapstructure:"NLU_PROJECT_ID"`
	NLUCredentialsFile string        `mapstructure:"NLU_CREDENTIALS_FILE"`
	NLULanguage        string        `mapstructure:"NLU_LANGUAGE"`
	JobsEnabled        bool          `mapstructure:"JOBS_ENABLED"`
	ReminderSchedule   string        `mapstructure:"REMINDER_SCHEDULE"`
	AutoMigrate        bool          `mapstructure:"AUTO_MIGRATE"`
	ClinicTimezone     string        `mapstructure:"CLINIC_TIMEZONE"`
}

// devJWTSecret signs session tokens when ENV=development and no secret is set.
const devJWTSecret = "clinic-development-secret-do-not-use"

func Load() (*Config, error) {
	// A missing .env is fine; real deployments inject the environment.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("JWT_ISSUER", "clinic-server")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("NLU_LANGUAGE", "en")
	v.SetDefault("JOBS_ENABLED", true)
	v.SetDefault("REMINDER_SCHEDULE", "0 7 * * *")
	v.SetDefault("AUTO_MIGRATE", false)
	v.SetDefault("CLINIC_TIMEZONE", "UTC")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range []string{
		"PORT", "ENV", "LOG_LEVEL", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
		"JWT_SECRET", "JWT_ISSUER", "JWT_TTL", "CORS_ORIGINS",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
		"NLU_PROJECT_ID", "NLU_CREDENTIALS_FILE", "NLU_LANGUAGE",
		"JOBS_ENABLED", "REMINDER_SCHEDULE", "AUTO_MIGRATE", "CLINIC_TIMEZONE",
	} {
		_ = v.BindEnv(key)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// mapstructure splits on commas without trimming, so split the raw value
	cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" && cfg.IsDev() {
		cfg.JWTSecret = devJWTSecret
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// NLUEnabled reports whether the Dialogflow fallback has enough settings to run.
func (c *Config) NLUEnabled() bool {
	return c.NLUProjectID != ""
}

// Location resolves CLINIC_TIMEZONE. "tomorrow" and the reminder jobs are
// evaluated in this zone.
func (c *Config) Location() (*time.Location, error) {
	if c.ClinicTimezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.ClinicTimezone)
	if err != nil {
		return nil, fmt.Errorf("CLINIC_TIMEZONE %q: %w", c.ClinicTimezone, err)
	}
	return loc, nil
}

// Validate checks that the configuration is safe to run. Outside development
// JWT_SECRET must be set explicitly and be long enough for HS256.
func (c *Config) Validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be \"development\", \"staging\", or \"production\", got %q", c.Env)
	}
	if !c.IsDev() {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required when ENV=%s", c.Env)
		}
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 bytes, got %d", len(c.JWTSecret))
		}
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.JWTTTL)
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.NLUCredentialsFile != "" && c.NLUProjectID == "" {
		return fmt.Errorf("NLU_PROJECT_ID is required when NLU_CREDENTIALS_FILE is set")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}
