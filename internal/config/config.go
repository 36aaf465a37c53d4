package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port        string `yaml:"port" env:"SERVER_PORT"`
		Mode        string `yaml:"mode" env:"SERVER_MODE"`
		PublicURL   string `yaml:"public_url" env:"SERVER_PUBLIC_URL"`
		CORSOrigins string `yaml:"cors_origins" env:"SERVER_CORS_ORIGINS"`
	} `yaml:"server"`

	Database struct {
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MinConns        int    `yaml:"min_conns" env:"DB_MIN_CONNS"`
		MaxConns        int    `yaml:"max_conns" env:"DB_MAX_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		ConnectTimeout  string `yaml:"connect_timeout" env:"DB_CONNECT_TIMEOUT"`
		MigrationsDir   string `yaml:"migrations_dir" env:"DB_MIGRATIONS_DIR"`
	} `yaml:"database"`

	JWT struct {
		Secret                 string `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration  string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		RefreshTokenExpiration string `yaml:"refresh_token_expiration" env:"JWT_REFRESH_TOKEN_EXPIRATION"`
		Issuer                 string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	Redis struct {
		Enabled  bool   `yaml:"enabled" env:"REDIS_ENABLED"`
		Addr     string `yaml:"addr" env:"REDIS_ADDR"`
		Password string `yaml:"password" env:"REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"REDIS_DB"`
	} `yaml:"redis"`

	Cache struct {
		DashboardTTL  string `yaml:"dashboard_ttl" env:"CACHE_DASHBOARD_TTL"`
		PurgeSchedule string `yaml:"purge_schedule" env:"CACHE_PURGE_SCHEDULE"`
	} `yaml:"cache"`

	Analytics struct {
		Enabled      bool    `yaml:"enabled" env:"ANALYTICS_ENABLED"`
		CronSchedule string  `yaml:"cron_schedule" env:"ANALYTICS_CRON_SCHEDULE"`
		AtRiskBelow  float64 `yaml:"at_risk_below" env:"ANALYTICS_AT_RISK_BELOW"`
		ExcelAtLeast float64 `yaml:"excel_at_least" env:"ANALYTICS_EXCEL_AT_LEAST"`
	} `yaml:"analytics"`

	Storage struct {
		Driver    string `yaml:"driver" env:"STORAGE_DRIVER"`
		LocalPath string `yaml:"local_path" env:"STORAGE_LOCAL_PATH"`
		S3Bucket  string `yaml:"s3_bucket" env:"STORAGE_S3_BUCKET"`
		S3Region  string `yaml:"s3_region" env:"STORAGE_S3_REGION"`
		S3Prefix  string `yaml:"s3_prefix" env:"STORAGE_S3_PREFIX"`
	} `yaml:"storage"`

	SMTP struct {
		Host      string `yaml:"host" env:"SMTP_HOST"`
		Port      int    `yaml:"port" env:"SMTP_PORT"`
		Username  string `yaml:"username" env:"SMTP_USERNAME"`
		Password  string `yaml:"password" env:"SMTP_PASSWORD"`
		FromName  string `yaml:"from_name" env:"SMTP_FROM_NAME"`
		FromEmail string `yaml:"from_email" env:"SMTP_FROM_EMAIL"`
		UseTLS    bool   `yaml:"use_tls" env:"SMTP_USE_TLS"`
	} `yaml:"smtp"`

	// Seed describes the administrator account created on first start
	Seed struct {
		AdminEmail    string `yaml:"admin_email" env:"SEED_ADMIN_EMAIL"`
		AdminPassword string `yaml:"admin_password" env:"SEED_ADMIN_PASSWORD"`
	} `yaml:"seed"`
}

// LoadConfig loads configuration from a file, an optional .env file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// .env never overrides variables that are already set in the process
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.PublicURL = "http://localhost:8080"
	config.Server.CORSOrigins = "*"

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "crms"
	config.Database.SSLMode = "disable"
	config.Database.MinConns = 2
	config.Database.MaxConns = 20
	config.Database.ConnMaxLifetime = "1h"
	config.Database.ConnectTimeout = "10s"
	config.Database.MigrationsDir = "migrations"

	config.JWT.AccessTokenExpiration = "1h"
	config.JWT.RefreshTokenExpiration = "720h"
	config.JWT.Issuer = "crms.app"

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.Redis.Addr = "localhost:6379"

	config.Cache.DashboardTTL = "5m"
	config.Cache.PurgeSchedule = "@every 30m"

	config.Analytics.Enabled = true
	config.Analytics.CronSchedule = "0 */6 * * *"
	config.Analytics.AtRiskBelow = 75
	config.Analytics.ExcelAtLeast = 90

	config.Storage.Driver = "local"
	config.Storage.LocalPath = "reports"
	config.Storage.S3Prefix = "class-records"

	config.SMTP.Port = 587
	config.SMTP.FromName = "CRMS"

	config.Seed.AdminEmail = "admin@crms.local"
	config.Seed.AdminPassword = "Admin123!"
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	return processStructFields(config)
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if config.Database.MaxConns <= 0 || config.Database.MinConns < 0 || config.Database.MinConns > config.Database.MaxConns {
		return fmt.Errorf("invalid database pool bounds: min=%d max=%d", config.Database.MinConns, config.Database.MaxConns)
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	for name, value := range map[string]string{
		"JWT access token expiration":  config.JWT.AccessTokenExpiration,
		"JWT refresh token expiration": config.JWT.RefreshTokenExpiration,
		"dashboard cache TTL":          config.Cache.DashboardTTL,
		"database connect timeout":     config.Database.ConnectTimeout,
		"database conn max lifetime":   config.Database.ConnMaxLifetime,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s format: %w", name, err)
		}
	}

	switch strings.ToLower(config.Storage.Driver) {
	case "local":
		if config.Storage.LocalPath == "" {
			return fmt.Errorf("storage local_path is required for the local driver")
		}
	case "s3":
		if config.Storage.S3Bucket == "" {
			return fmt.Errorf("storage s3_bucket is required for the s3 driver")
		}
	default:
		return fmt.Errorf("unsupported storage driver %q", config.Storage.Driver)
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}

// GetEnv gets an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetEnvAsInt gets an environment variable as an integer or returns a default value
func GetEnvAsInt(key string, defaultValue int) int {
	valueStr := GetEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
