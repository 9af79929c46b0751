package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "a-very-long-test-secret"

// clearEnv unsets every config key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for k := range defaults {
		key := strings.ToUpper(k)
		if old, ok := os.LookupEnv(key); ok {
			require.NoError(t, os.Unsetenv(key))
			t.Cleanup(func() { os.Setenv(key, old) })
		}
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := LoadFiles("", "")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "data/wellwishers.db", cfg.DBPath)
	assert.Equal(t, 720*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "http://localhost:3000", cfg.PublicOrigin)
	assert.Equal(t, 12, cfg.RevealMonth)
	assert.Equal(t, 25, cfg.RevealDay)
	assert.Zero(t, cfg.RevealYear)
	assert.Equal(t, 24*time.Hour, cfg.RevealLength)
	assert.True(t, cfg.RevealRollover)
	assert.Equal(t, 8, cfg.CacheSizeMB)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, 2.0, cfg.RateLimitRPS)
	assert.Equal(t, 10, cfg.RateLimitBurst)
	assert.True(t, cfg.MetricsEnabled)
	assert.False(t, cfg.GoogleEnabled())
	assert.False(t, cfg.SecureCookies())
	assert.Empty(t, cfg.Admins())
}

func TestLoadRequiresSecret(t *testing.T) {
	clearEnv(t)

	_, err := LoadFiles("", "")
	require.Error(t, err)

	t.Setenv("JWT_SECRET", "short")
	_, err = LoadFiles("", "")
	require.Error(t, err)
}

func TestLoadPrecedence(t *testing.T) {
	clearEnv(t)

	yaml := writeFile(t, "config.yaml", "port: 9000\ndb_path: /tmp/from-yaml.db\njwt_secret: "+testSecret+"\nreveal_day: 24\n")
	dotenv := writeFile(t, ".env", "PORT=9100\nADMIN_EMAILS=kiti@example.com, boss@example.com\n")
	t.Setenv("PORT", "9200")

	cfg, err := LoadFiles(dotenv, yaml)
	require.NoError(t, err)

	assert.Equal(t, 9200, cfg.Port, "environment beats .env and YAML")
	assert.Equal(t, "/tmp/from-yaml.db", cfg.DBPath)
	assert.Equal(t, 24, cfg.RevealDay)
	assert.Equal(t, []string{"kiti@example.com", "boss@example.com"}, cfg.Admins())
}

func TestLoadMissingFiles(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", testSecret)

	_, err := LoadFiles(filepath.Join(t.TempDir(), "absent.env"), "")
	require.NoError(t, err, "a missing .env is fine")

	_, err = LoadFiles("", filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err, "a named YAML file must exist")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:           8080,
			DBPath:         "x.db",
			JWTSecret:      testSecret,
			SessionTTL:     time.Hour,
			PublicOrigin:   "https://ww.example",
			RevealMonth:    12,
			RevealDay:      25,
			RevealLength:   24 * time.Hour,
			RevealTimezone: "UTC",
			RateLimitBurst: 1,
		}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"port out of range", func(c *Config) { c.Port = 70000 }},
		{"month 13", func(c *Config) { c.RevealMonth = 13 }},
		{"day 32", func(c *Config) { c.RevealDay = 32 }},
		{"february 30", func(c *Config) { c.RevealMonth, c.RevealDay = 2, 30 }},
		{"april 31", func(c *Config) { c.RevealMonth, c.RevealDay = 4, 31 }},
		{"february 29 without a pinned year", func(c *Config) { c.RevealMonth, c.RevealDay = 2, 29 }},
		{"february 29 in a common year", func(c *Config) { c.RevealMonth, c.RevealDay, c.RevealYear = 2, 29, 2027 }},
		{"origin not a URL", func(c *Config) { c.PublicOrigin = "not a url" }},
		{"unknown time zone", func(c *Config) { c.RevealTimezone = "Mars/Olympus" }},
		{"negative cache ttl", func(c *Config) { c.CacheTTL = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestValidateRevealDateEdges(t *testing.T) {
	c := &Config{
		Port:           8080,
		DBPath:         "x.db",
		JWTSecret:      testSecret,
		SessionTTL:     time.Hour,
		PublicOrigin:   "https://ww.example",
		RevealMonth:    2,
		RevealDay:      29,
		RevealYear:     2028,
		RevealLength:   24 * time.Hour,
		RevealTimezone: "UTC",
		RateLimitBurst: 1,
	}
	assert.NoError(t, c.Validate(), "february 29 exists in 2028")

	c.RevealYear, c.RevealMonth, c.RevealDay = 0, 12, 31
	assert.NoError(t, c.Validate())

	c.RevealMonth, c.RevealDay = 2, 30
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reveal_day 30 does not exist in February")
}

func TestSchedule(t *testing.T) {
	c := &Config{
		RevealMonth:    12,
		RevealDay:      24,
		RevealYear:     2025,
		RevealLength:   12 * time.Hour,
		RevealTimezone: "UTC",
		RevealRollover: false,
	}
	s, err := c.Schedule()
	require.NoError(t, err)

	w := s.Window(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 12, 24, 0, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2025, 12, 24, 12, 0, 0, 0, time.UTC), w.End)
}

func TestHelpers(t *testing.T) {
	c := &Config{
		PublicOrigin:       "https://ww.example",
		GoogleClientID:     "id",
		GoogleClientSecret: "secret",
		GoogleCallbackURL:  "https://api.ww.example/auth/google/callback",
		AdminEmails:        " , a@example.com,,",
	}
	assert.True(t, c.SecureCookies())
	assert.True(t, c.GoogleEnabled())
	assert.Equal(t, []string{"a@example.com"}, c.Admins())
}
