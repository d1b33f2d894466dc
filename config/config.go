package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application's configuration values.
type Config struct {
	AppName string `mapstructure:"APPNAME"`
	AppEnv  string `mapstructure:"APPENV"`
	AppPort uint16 `mapstructure:"APPPORT"`
	GinMode string `mapstructure:"GINMODE"`

	DBDriver string `mapstructure:"DBDRIVER"`
	DBHost   string `mapstructure:"DBHOST"`
	DBPort   uint16 `mapstructure:"DBPORT"`
	DBName   string `mapstructure:"DBNAME"`
	DBUser   string `mapstructure:"DBUSER"`
	DBPass   string `mapstructure:"DBPASS"`

	JWTSecret       string        `mapstructure:"JWTSECRET"`
	JWTAlgorithm    string        `mapstructure:"JWTALGORITHM"`
	AccessTokenTTL  time.Duration `mapstructure:"JWT_ACCESS_TTL"`
	RefreshTokenTTL time.Duration `mapstructure:"JWT_REFRESH_TTL"`

	CookieSecure bool   `mapstructure:"COOKIE_SECURE"`
	CookieDomain string `mapstructure:"COOKIE_DOMAIN"`

	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	RedisAddr string `mapstructure:"REDIS_ADDR"`
	RedisPass string `mapstructure:"REDIS_PASS"`
	RedisDB   int    `mapstructure:"REDIS_DB"`

	LoginRateLimit  int           `mapstructure:"LOGIN_RATE_LIMIT"`
	LoginRateWindow time.Duration `mapstructure:"LOGIN_RATE_WINDOW"`

	GeoIPDBPath string `mapstructure:"GEOIP_DB_PATH"`
	LogLevel    string `mapstructure:"LOGLEVEL"`
}

var defaults = map[string]interface{}{
	"APPNAME":           "CareSync",
	"APPENV":            "development",
	"APPPORT":           8000,
	"GINMODE":           "debug",
	"DBDRIVER":          "postgres",
	"DBHOST":            "localhost",
	"DBPORT":            5432,
	"DBNAME":            "caresync",
	"DBUSER":            "",
	"DBPASS":            "",
	"JWTSECRET":         "",
	"JWTALGORITHM":      "HS256",
	"JWT_ACCESS_TTL":    "30m",
	"JWT_REFRESH_TTL":   "168h",
	"COOKIE_SECURE":     true,
	"COOKIE_DOMAIN":     "",
	"CORS_ORIGINS":      "http://localhost:3000",
	"REDIS_ADDR":        "",
	"REDIS_PASS":        "",
	"REDIS_DB":          0,
	"LOGIN_RATE_LIMIT":  5,
	"LOGIN_RATE_WINDOW": "15m",
	"GEOIP_DB_PATH":     "",
	"LOGLEVEL":          "info",
}

// LoadConfig reads the optional .env file into the process environment and
// binds every known key into a Config. The result is meant to be built once in
// main and passed down explicitly.
func LoadConfig() (*Config, error) {
	// A missing .env file is fine, the environment may already be populated.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.CORSOrigins = splitOrigins(cfg.CORSOrigins)
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	cfg.JWTAlgorithm = strings.ToUpper(strings.TrimSpace(cfg.JWTAlgorithm))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// splitOrigins flattens comma separated entries and drops blanks.
func splitOrigins(raw []string) []string {
	var origins []string
	for _, entry := range raw {
		for _, o := range strings.Split(entry, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}
	return origins
}

// IsTest reports whether the process runs against the in-memory test database.
func (c *Config) IsTest() bool {
	return c.AppEnv == "test"
}

// IsDev reports whether the process runs in development mode.
func (c *Config) IsDev() bool {
	return c.AppEnv == "development"
}

// Validate checks the settings the server cannot run without.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWTSECRET is required")
	}
	switch c.JWTAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("JWTALGORITHM must be one of HS256, HS384, HS512, got %q", c.JWTAlgorithm)
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}
	if !c.IsTest() {
		switch c.DBDriver {
		case "postgres", "mysql":
		default:
			return fmt.Errorf("DBDRIVER must be postgres or mysql, got %q", c.DBDriver)
		}
	}
	return nil
}
