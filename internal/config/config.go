// Package config loads server settings from the environment, an optional
// .env file and an optional YAML file, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gookit/validate"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/sakif/wellwishers/internal/gate"
)

// ConfigFileEnv names the environment variable holding the YAML file path.
const ConfigFileEnv = "WELLWISHERS_CONFIG"

// Config is every server setting. Keys are the lower-cased environment
// variable names, so PORT in the environment and port: in YAML are the same
// setting.
type Config struct {
	Port       int           `mapstructure:"port" validate:"required|min:1|max:65535"`
	DBPath     string        `mapstructure:"db_path" validate:"required"`
	JWTSecret  string        `mapstructure:"jwt_secret" validate:"required|minLen:16"`
	SessionTTL time.Duration `mapstructure:"session_ttl" validate:"required"`

	PublicOrigin string `mapstructure:"public_origin" validate:"required|fullUrl"`

	GoogleClientID     string `mapstructure:"google_client_id"`
	GoogleClientSecret string `mapstructure:"google_client_secret"`
	GoogleCallbackURL  string `mapstructure:"google_callback_url"`

	// AdminEmails is a comma-separated list.
	AdminEmails string `mapstructure:"admin_emails"`

	RevealMonth    int           `mapstructure:"reveal_month" validate:"min:1|max:12"`
	RevealDay      int           `mapstructure:"reveal_day" validate:"min:1|max:31"`
	RevealYear     int           `mapstructure:"reveal_year" validate:"min:0"`
	RevealLength   time.Duration `mapstructure:"reveal_length" validate:"required"`
	RevealTimezone string        `mapstructure:"reveal_timezone"`
	RevealRollover bool          `mapstructure:"reveal_rollover"`

	CacheSizeMB int           `mapstructure:"cache_size_mb" validate:"min:0"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`

	RateLimitRPS   float64 `mapstructure:"rate_limit_rps" validate:"min:0"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst" validate:"min:1"`

	MetricsEnabled bool `mapstructure:"metrics_enabled"`
}

var defaults = map[string]any{
	"port":                 8080,
	"db_path":              "data/wellwishers.db",
	"jwt_secret":           "",
	"session_ttl":          "720h",
	"public_origin":        "http://localhost:3000",
	"google_client_id":     "",
	"google_client_secret": "",
	"google_callback_url":  "http://localhost:8080/auth/google/callback",
	"admin_emails":         "",
	"reveal_month":         12,
	"reveal_day":           25,
	"reveal_year":          0,
	"reveal_length":        "24h",
	"reveal_timezone":      "Local",
	"reveal_rollover":      true,
	"cache_size_mb":        8,
	"cache_ttl":            "30s",
	"rate_limit_rps":       2.0,
	"rate_limit_burst":     10,
	"metrics_enabled":      true,
}

// Load reads ./.env and the file named by WELLWISHERS_CONFIG. Both are
// optional.
func Load() (*Config, error) {
	return LoadFiles(".env", os.Getenv(ConfigFileEnv))
}

// LoadFiles is Load with explicit paths. An empty path, or a .env file
// that does not exist, is skipped; a named YAML file that cannot be read is
// an error.
//
// Precedence, highest first: process environment, .env, YAML, defaults.
func LoadFiles(envFile, yamlFile string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	if yamlFile != "" {
		v.SetConfigFile(yamlFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", yamlFile, err)
		}
	}

	if envFile != "" {
		dotenv, err := godotenv.Read(envFile)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: reading %s: %w", envFile, err)
		}
		// The real environment wins over .env, so only unset keys are applied.
		for k, val := range dotenv {
			if _, set := os.LookupEnv(k); !set {
				v.Set(strings.ToLower(k), val)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the struct tags plus the rules tags cannot express.
func (c *Config) Validate() error {
	vd := validate.Struct(c)
	if !vd.Validate() {
		return fmt.Errorf("config: %w", vd.Errors)
	}
	if c.SessionTTL < 0 || c.RevealLength < 0 || c.CacheTTL < 0 {
		return fmt.Errorf("config: durations must not be negative")
	}
	if err := c.validateRevealDate(); err != nil {
		return err
	}
	if _, err := c.location(); err != nil {
		return err
	}
	return nil
}

// validateRevealDate rejects days the month does not have, which time.Date
// would otherwise roll into the next month. Without a pinned year the date
// must exist every year, so February 29 needs REVEAL_YEAR set to a leap year.
func (c *Config) validateRevealDate() error {
	year := c.RevealYear
	if year == 0 {
		year = 2025
	}
	month := time.Month(c.RevealMonth)
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if c.RevealDay > last {
		return fmt.Errorf("config: reveal_day %d does not exist in %s %d", c.RevealDay, month, year)
	}
	return nil
}

// GoogleEnabled reports whether Google sign-in is fully configured.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleCallbackURL != ""
}

// Admins splits AdminEmails, dropping blanks.
func (c *Config) Admins() []string {
	var out []string
	for _, e := range strings.Split(c.AdminEmails, ",") {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}

// SecureCookies is true when the frontend is served over https.
func (c *Config) SecureCookies() bool {
	return strings.HasPrefix(c.PublicOrigin, "https://")
}

// Schedule builds the reveal schedule. Validate has already checked the
// time zone, so the error is only possible on a Config built by hand.
func (c *Config) Schedule() (gate.Schedule, error) {
	loc, err := c.location()
	if err != nil {
		return gate.Schedule{}, err
	}
	return gate.Schedule{
		Month:    time.Month(c.RevealMonth),
		Day:      c.RevealDay,
		Year:     c.RevealYear,
		Length:   c.RevealLength,
		Location: loc,
		Rollover: c.RevealRollover,
	}, nil
}

func (c *Config) location() (*time.Location, error) {
	switch c.RevealTimezone {
	case "", "Local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.RevealTimezone)
	if err != nil {
		return nil, fmt.Errorf("config: reveal_timezone: %w", err)
	}
	return loc, nil
}
