package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Data modes
const (
	DataModePostgres = "postgres"
	DataModeMemory   = "memory"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Billing   BillingConfig
	Report    ReportConfig
	Seed      SeedConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	DataMode       string
	MigrationsDir  string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host                   string
	Port                   string
	User                   string
	Password               string
	Database               string
	Schema                 string
	SSLMode                string
	MaxOpenConns           int
	MaxIdleConns           int
	ConnMaxLifetimeMinutes int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret       string
	AccessExpiry int // in minutes
}

type RateLimitConfig struct {
	RequestsPerMinute int
	LoginPerMinute    int
}

// TaxConfig is one configurable tax. Kind is "percent" or "fixed".
type TaxConfig struct {
	Enabled bool
	Kind    string
	Value   float64
}

type BillingConfig struct {
	GST  TaxConfig
	CGST TaxConfig
}

type ReportConfig struct {
	TimeZone string
}

// Location resolves the report time zone
func (c ReportConfig) Location() (*time.Location, error) {
	if c.TimeZone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid REPORT_TIMEZONE %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

// IsDevelopment reports whether the server runs in development mode
func (c ServerConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// Addr returns the Redis address
func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// SeedConfig holds the demo account passwords used in memory mode
type SeedConfig struct {
	AdminPassword string
	UserPassword  string
}

// Load reads configuration from the environment after loading an optional .env file
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not read .env file: %v", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_ENV", "development")
	v.SetDefault("SERVER_DATA_MODE", DataModePostgres)
	v.SetDefault("SERVER_MIGRATIONS_DIR", "migrations")
	v.SetDefault("SERVER_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SCHEMA", "public")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", 30)
	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_ACCESS_EXPIRY", 720)
	v.SetDefault("RATE_LIMIT_RPM", 300)
	v.SetDefault("RATE_LIMIT_LOGIN_RPM", 10)
	v.SetDefault("BILLING_GST_ENABLED", false)
	v.SetDefault("BILLING_GST_KIND", "percent")
	v.SetDefault("BILLING_GST_VALUE", 9)
	v.SetDefault("BILLING_CGST_ENABLED", false)
	v.SetDefault("BILLING_CGST_KIND", "percent")
	v.SetDefault("BILLING_CGST_VALUE", 9)
	v.SetDefault("REPORT_TIMEZONE", "UTC")
	v.SetDefault("SEED_ADMIN_PASSWORD", "admin123")
	v.SetDefault("SEED_USER_PASSWORD", "user123")
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Env:            v.GetString("SERVER_ENV"),
			DataMode:       strings.ToLower(v.GetString("SERVER_DATA_MODE")),
			MigrationsDir:  v.GetString("SERVER_MIGRATIONS_DIR"),
			AllowedOrigins: splitList(v.GetString("SERVER_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:                   v.GetString("DB_HOST"),
			Port:                   v.GetString("DB_PORT"),
			User:                   v.GetString("DB_USER"),
			Password:               v.GetString("DB_PASSWORD"),
			Database:               v.GetString("DB_DATABASE"),
			Schema:                 v.GetString("DB_SCHEMA"),
			SSLMode:                v.GetString("DB_SSLMODE"),
			MaxOpenConns:           v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:           v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetimeMinutes: v.GetInt("DB_CONN_MAX_LIFETIME"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("REDIS_ENABLED"),
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:       v.GetString("JWT_SECRET"),
			AccessExpiry: v.GetInt("JWT_ACCESS_EXPIRY"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: v.GetInt("RATE_LIMIT_RPM"),
			LoginPerMinute:    v.GetInt("RATE_LIMIT_LOGIN_RPM"),
		},
		Billing: BillingConfig{
			GST: TaxConfig{
				Enabled: v.GetBool("BILLING_GST_ENABLED"),
				Kind:    v.GetString("BILLING_GST_KIND"),
				Value:   v.GetFloat64("BILLING_GST_VALUE"),
			},
			CGST: TaxConfig{
				Enabled: v.GetBool("BILLING_CGST_ENABLED"),
				Kind:    v.GetString("BILLING_CGST_KIND"),
				Value:   v.GetFloat64("BILLING_CGST_VALUE"),
			},
		},
		Report: ReportConfig{
			TimeZone: v.GetString("REPORT_TIMEZONE"),
		},
		Seed: SeedConfig{
			AdminPassword: v.GetString("SEED_ADMIN_PASSWORD"),
			UserPassword:  v.GetString("SEED_USER_PASSWORD"),
		},
	}
}

func splitList(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
