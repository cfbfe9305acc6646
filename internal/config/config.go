package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "SURVEYOR"

// Config holds runtime settings. Every key can be overridden by a
// SURVEYOR_<KEY> environment variable or by the file named in SURVEYOR_CONFIG.
type Config struct {
	Addr            string
	Store           string
	SQLitePath      string
	DatabaseURL     string
	MigrationsDir   string
	JWTSecret       string
	SessionTTL      time.Duration
	Timezone        string
	AdminEmail      string
	AdminPassword   string
	TurnstileSecret string
	TurnstileURL    string
	ReportFont      string
	CORSOrigins     []string
	SecureCookies   bool
	Commit          string
	BuildTime       string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8080")
	v.SetDefault("store", "memory")
	v.SetDefault("sqlite_path", "./data/surveyor.db")
	v.SetDefault("database_url", "")
	v.SetDefault("migrations_dir", "")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("session_ttl", "168h")
	v.SetDefault("timezone", "Local")
	v.SetDefault("admin_email", "")
	v.SetDefault("admin_password", "")
	v.SetDefault("turnstile_secret", "")
	v.SetDefault("turnstile_url", "")
	v.SetDefault("report_font", "")
	v.SetDefault("cors", "")
	v.SetDefault("secure_cookies", false)
	v.SetDefault("commit", "")
	v.SetDefault("build_time", "")
	v.SetDefault("config", "")
}

// Load reads defaults, an optional config file and the environment.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}
	cfg := &Config{
		Addr:            v.GetString("addr"),
		Store:           strings.ToLower(strings.TrimSpace(v.GetString("store"))),
		SQLitePath:      v.GetString("sqlite_path"),
		DatabaseURL:     v.GetString("database_url"),
		MigrationsDir:   v.GetString("migrations_dir"),
		JWTSecret:       v.GetString("jwt_secret"),
		SessionTTL:      v.GetDuration("session_ttl"),
		Timezone:        v.GetString("timezone"),
		AdminEmail:      v.GetString("admin_email"),
		AdminPassword:   v.GetString("admin_password"),
		TurnstileSecret: v.GetString("turnstile_secret"),
		TurnstileURL:    v.GetString("turnstile_url"),
		ReportFont:      v.GetString("report_font"),
		CORSOrigins:     splitList(v.GetString("cors")),
		SecureCookies:   v.GetBool("secure_cookies"),
		Commit:          v.GetString("commit"),
		BuildTime:       v.GetString("build_time"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
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

func (c *Config) Validate() error {
	switch c.Store {
	case "memory":
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("sqlite_path required for sqlite store")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("database_url required for postgres store")
		}
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	// The development signing secret is only acceptable for the memory store.
	if c.Store != "memory" && strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("jwt_secret required for %s store", c.Store)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be positive, got %s", c.SessionTTL)
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return errors.New("admin_email and admin_password must be set together")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the timezone used for date filters and day buckets.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
