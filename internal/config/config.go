package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hnrobert/pagegate/internal/pages"
)

// DefaultPages is the page identifier universe used when none is configured.
var DefaultPages = []string{"Home", "Info", "Customers", "Page 1", "Page 2", "Admin", "Profile"}

const (
	DefaultListenAddr = ":14393"
	DefaultDataDir    = "/pagegate_data"
	DefaultCookieName = "pagegate_session"
	DefaultSessionTTL = 24 * time.Hour
)

type Config struct {
	ListenAddr string        `yaml:"listen_addr"`
	DataDir    string        `yaml:"data_dir"`
	StorePath  string        `yaml:"store_path"`
	AuditDB    *string       `yaml:"audit_db"`
	Session    SessionConfig `yaml:"session"`
	Pages      []string      `yaml:"pages"`
	Logging    LoggingConfig `yaml:"logging"`
}

type SessionConfig struct {
	// Secret signs session cookies. Base64url or raw text; random when empty.
	Secret     string        `yaml:"secret"`
	CookieName string        `yaml:"cookie_name"`
	TTL        time.Duration `yaml:"ttl"`
	Secure     bool          `yaml:"secure_cookie"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  *bool  `yaml:"file"`
}

// Default returns a Config with every field populated.
func Default() Config {
	cfg := Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the YAML file at path (if non-empty), applies PAGEGATE_*
// environment overrides and fills in defaults.
func Load(path string) (Config, error) {
	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// AuditPath returns the audit database path; empty means auditing is off.
func (c Config) AuditPath() string {
	if c.AuditDB == nil {
		return filepath.Join(c.DataDir, "audit.db")
	}
	return *c.AuditDB
}

// FileLogging reports whether daily log files should be written.
func (c Config) FileLogging() bool {
	return c.Logging.File == nil || *c.Logging.File
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PAGEGATE_LISTEN"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("PAGEGATE_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("PAGEGATE_STORE"); v != "" {
		c.StorePath = v
	}
	if v, ok := os.LookupEnv("PAGEGATE_AUDIT_DB"); ok {
		c.AuditDB = &v
	}
	if v := os.Getenv("PAGEGATE_SESSION_SECRET"); v != "" {
		c.Session.Secret = v
	}
	if v := os.Getenv("PAGEGATE_SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("PAGEGATE_SESSION_TTL: %w", err)
		}
		c.Session.TTL = d
	}
	if v := os.Getenv("PAGEGATE_SECURE_COOKIE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("PAGEGATE_SECURE_COOKIE: %w", err)
		}
		c.Session.Secure = b
	}
	if v := os.Getenv("PAGEGATE_PAGES"); v != "" {
		var ids []string
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				ids = append(ids, p)
			}
		}
		c.Pages = ids
	}
	if v := os.Getenv("PAGEGATE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	if c.StorePath == "" {
		c.StorePath = filepath.Join(c.DataDir, "credentials.yaml")
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = DefaultCookieName
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = DefaultSessionTTL
	}
	if len(c.Pages) == 0 {
		c.Pages = append([]string(nil), DefaultPages...)
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	if c.Session.TTL < 0 {
		return errors.New("session.ttl must not be negative")
	}
	if len(c.Pages) == 0 {
		return errors.New("pages must not be empty")
	}
	seen := map[string]string{}
	hasHome := false
	for _, p := range c.Pages {
		if strings.TrimSpace(p) == "" {
			return errors.New("pages must not contain empty identifiers")
		}
		if p == pages.HomePage {
			hasHome = true
		}
		key := pages.Key(p)
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("pages %q and %q resolve to the same handler", prev, p)
		}
		seen[key] = p
	}
	if !hasHome {
		return fmt.Errorf("pages must include %q", pages.HomePage)
	}
	return nil
}
