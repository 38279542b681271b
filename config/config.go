package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	str2duration "github.com/xhit/go-str2duration/v2"
	"gopkg.in/yaml.v3"
)

// Config represents the complete service configuration
type Config struct {
	Server   ServerConfig   `json:"server" yaml:"server"`
	Session  SessionConfig  `json:"session" yaml:"session"`
	Redis    RedisConfig    `json:"redis" yaml:"redis"`
	Identity IdentityConfig `json:"identity" yaml:"identity"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
	Feed     FeedConfig     `json:"feed" yaml:"feed"`
	Analysis AnalysisConfig `json:"analysis" yaml:"analysis"`
	Log      LogConfig      `json:"log" yaml:"log"`
}

// ServerConfig contains HTTP listener parameters
type ServerConfig struct {
	Addr           string   `json:"addr" yaml:"addr"`
	AllowedOrigins []string `json:"allowed_origins,omitempty" yaml:"allowed_origins,omitempty"`
	SecureCookies  bool     `json:"secure_cookies" yaml:"secure_cookies"`
	// DevNav opens protected pages without a session, as the demo user.
	DevNav bool `json:"dev_nav" yaml:"dev_nav"`
}

// SessionConfig contains session lifetime and signing parameters
type SessionConfig struct {
	Secret string `json:"secret" yaml:"secret"`
	Issuer string `json:"issuer" yaml:"issuer"`
	TTL    string `json:"ttl" yaml:"ttl"`     // e.g. "7d", "12h"
	Store  string `json:"store" yaml:"store"` // "memory" or "redis"
}

type RedisConfig struct {
	Addr     string `json:"addr" yaml:"addr"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	DB       int    `json:"db" yaml:"db"`
}

// IdentityConfig selects the identity provider
type IdentityConfig struct {
	Provider   string `json:"provider" yaml:"provider"` // "local" or "remote"
	BaseURL    string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	APIKey     string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BcryptCost int    `json:"bcrypt_cost,omitempty" yaml:"bcrypt_cost,omitempty"`
}

// JournalConfig contains analysis history parameters
type JournalConfig struct {
	DBPath string `json:"db_path" yaml:"db_path"`
	Seed   bool   `json:"seed" yaml:"seed"`
}

// FeedConfig contains market board timer parameters
type FeedConfig struct {
	Seed          int64  `json:"seed,omitempty" yaml:"seed,omitempty"`
	TickInterval  string `json:"tick_interval" yaml:"tick_interval"`
	SlideInterval string `json:"slide_interval" yaml:"slide_interval"`
}

// AnalysisConfig contains analysis workflow parameters
type AnalysisConfig struct {
	QuickDelay         string  `json:"quick_delay" yaml:"quick_delay"`
	ComprehensiveDelay string  `json:"comprehensive_delay" yaml:"comprehensive_delay"`
	AdvancedDelay      string  `json:"advanced_delay" yaml:"advanced_delay"`
	Candles            int     `json:"candles" yaml:"candles"`
	MaxUploadMB        int     `json:"max_upload_mb" yaml:"max_upload_mb"`
	Equity             float64 `json:"equity" yaml:"equity"`
	RiskPercent        float64 `json:"risk_percent" yaml:"risk_percent"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // "text" or "json"
}

// ParseDuration accepts Go durations plus day and week units ("7d", "2w").
// An empty string is zero.
func ParseDuration(s string) (time.Duration, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	d, err := str2duration.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return d, nil
}

// Load reads .env if present, then the config file (defaults when path
// is empty), then applies environment overrides and validates.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = readFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a file (YAML first, JSON fallback)
func LoadFromFile(path string) (*Config, error) {
	cfg, err := readFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func readFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Unset fields keep their defaults
	cfg := Default()

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		cfg = Default()
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}
	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from the environment. lookup is usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("FOREXAI_ADDR", &c.Server.Addr)
	if port, ok := lookup("PORT"); ok && port != "" {
		c.Server.Addr = ":" + port
	}
	if v, ok := lookup("FOREXAI_ALLOWED_ORIGINS"); ok && v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}
	str("FOREXAI_LOG_LEVEL", &c.Log.Level)
	str("FOREXAI_LOG_FORMAT", &c.Log.Format)
	str("FOREXAI_DB", &c.Journal.DBPath)
	str("FOREXAI_SESSION_TTL", &c.Session.TTL)
	str("FOREXAI_SESSION_STORE", &c.Session.Store)
	str("SESSION_SECRET", &c.Session.Secret)
	str("FOREXAI_IDENTITY", &c.Identity.Provider)
	str("IDENTITY_BASE_URL", &c.Identity.BaseURL)
	str("IDENTITY_API_KEY", &c.Identity.APIKey)
	str("REDIS_ADDR", &c.Redis.Addr)
	str("REDIS_PASSWORD", &c.Redis.Password)

	for key, dst := range map[string]*bool{
		"FOREXAI_DEV_NAV":        &c.Server.DevNav,
		"FOREXAI_SECURE_COOKIES": &c.Server.SecureCookies,
		"FOREXAI_SEED_HISTORY":   &c.Journal.Seed,
	} {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = b
		}
	}
	if v, ok := lookup("REDIS_DB"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REDIS_DB: %w", err)
		}
		c.Redis.DB = n
	}
	return nil
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

// SessionTTL is the parsed session lifetime.
func (c *Config) SessionTTL() time.Duration {
	d, _ := ParseDuration(c.Session.TTL)
	return d
}

// Delays returns the parsed analysis delays keyed by depth name.
func (c *Config) Delays() map[string]time.Duration {
	out := make(map[string]time.Duration, 3)
	for name, s := range map[string]string{
		"quick":         c.Analysis.QuickDelay,
		"comprehensive": c.Analysis.ComprehensiveDelay,
		"advanced":      c.Analysis.AdvancedDelay,
	} {
		d, _ := ParseDuration(s)
		out[name] = d
	}
	return out
}

// Intervals returns the parsed quote tick and candle slide intervals.
func (c *Config) Intervals() (tick, slide time.Duration) {
	tick, _ = ParseDuration(c.Feed.TickInterval)
	slide, _ = ParseDuration(c.Feed.SlideInterval)
	return tick, slide
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if len(c.Session.Secret) < 16 {
		return fmt.Errorf("session.secret must be at least 16 characters")
	}
	ttl, err := ParseDuration(c.Session.TTL)
	if err != nil {
		return fmt.Errorf("session.ttl: %w", err)
	}
	if ttl <= 0 {
		return fmt.Errorf("session.ttl must be positive")
	}
	switch c.Session.Store {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr required for redis session store")
		}
	default:
		return fmt.Errorf("session.store must be 'memory' or 'redis'")
	}
	switch c.Identity.Provider {
	case "local":
	case "remote":
		if c.Identity.APIKey == "" {
			return fmt.Errorf("identity.api_key required for remote provider")
		}
	default:
		return fmt.Errorf("identity.provider must be 'local' or 'remote'")
	}
	if c.Journal.DBPath == "" {
		return fmt.Errorf("journal.db_path is required")
	}
	for name, s := range map[string]string{
		"feed.tick_interval":           c.Feed.TickInterval,
		"feed.slide_interval":          c.Feed.SlideInterval,
		"analysis.quick_delay":         c.Analysis.QuickDelay,
		"analysis.comprehensive_delay": c.Analysis.ComprehensiveDelay,
		"analysis.advanced_delay":      c.Analysis.AdvancedDelay,
	} {
		d, err := ParseDuration(s)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if d < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	if tick, slide := c.Intervals(); (tick > 0 && tick < time.Second) || (slide > 0 && slide < time.Second) {
		return fmt.Errorf("feed intervals must be at least 1s")
	}
	if c.Analysis.Candles < 0 {
		return fmt.Errorf("analysis.candles must not be negative")
	}
	if c.Analysis.MaxUploadMB <= 0 {
		return fmt.Errorf("analysis.max_upload_mb must be positive")
	}
	if c.Analysis.Equity <= 0 {
		return fmt.Errorf("analysis.equity must be positive")
	}
	if c.Analysis.RiskPercent <= 0 || c.Analysis.RiskPercent > 1 {
		return fmt.Errorf("analysis.risk_percent must be between 0 and 1")
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be 'text' or 'json'")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:5173"},
		},
		Session: SessionConfig{
			Secret: "change-me-forexai-dev-secret",
			Issuer: "forexai",
			TTL:    "7d",
			Store:  "memory",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Identity: IdentityConfig{
			Provider: "local",
		},
		Journal: JournalConfig{
			DBPath: "./forexai.db",
			Seed:   true,
		},
		Feed: FeedConfig{
			TickInterval:  "3s",
			SlideInterval: "5s",
		},
		Analysis: AnalysisConfig{
			QuickDelay:         "3s",
			ComprehensiveDelay: "8s",
			AdvancedDelay:      "15s",
			Candles:            120,
			MaxUploadMB:        10,
			Equity:             10000,
			RiskPercent:        0.01,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
