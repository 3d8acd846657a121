// Package config loads the service configuration from YAML and environment.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env     string `yaml:"app_env"`
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Server struct {
		Addr            string `yaml:"addr"`
		ReadTimeout     string `yaml:"read_timeout"`
		WriteTimeout    string `yaml:"write_timeout"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	// Brokers by name (loginza, rpxnow).
	Brokers map[string]Broker `yaml:"brokers"`

	OpenID struct {
		PasswordLength int    `yaml:"password_length"`
		PendingTTL     string `yaml:"pending_ttl"`
		TicketSecret   string `yaml:"ticket_secret"`
	} `yaml:"openid"`

	Storage struct {
		Driver   string `yaml:"driver"` // memory | postgres
		DSN      string `yaml:"dsn"`
		MaxConns int    `yaml:"max_conns"`
	} `yaml:"storage"`

	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL string `yaml:"default_ttl"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	WebDAV struct {
		Servers       map[string]DAVServer `yaml:"servers"`
		DefaultServer string               `yaml:"default_server"`
		PicturesDir   string               `yaml:"pictures_dir"`
	} `yaml:"webdav"`

	SMTP struct {
		Enabled            bool   `yaml:"enabled"`
		Host               string `yaml:"host"`
		Port               int    `yaml:"port"`
		From               string `yaml:"from"`
		User               string `yaml:"user"`
		Pass               string `yaml:"pass"`
		TLSMode            string `yaml:"tls_mode"`
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
	} `yaml:"smtp"`

	Rate struct {
		Enabled     bool   `yaml:"enabled"`
		Window      string `yaml:"window"`
		MaxRequests int    `yaml:"max_requests"`
	} `yaml:"rate"`
}

// Broker overrides one brokerage endpoint. Params are appended to the
// query after the brokerage's own parameters.
type Broker struct {
	Enabled  *bool             `yaml:"enabled"`
	Protocol string            `yaml:"protocol"`
	Host     string            `yaml:"host"`
	APIKey   string            `yaml:"api_key"`
	Params   map[string]string `yaml:"params"`
}

func (b Broker) IsEnabled() bool { return b.Enabled == nil || *b.Enabled }

type DAVServer struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Protocol string `yaml:"protocol"`
}

// Load reads path (optional: "" skips the file), applies defaults and env
// overrides, then validates.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	c.applyEnvOverrides()
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// sane defaults
func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.Name == "" {
		c.App.Name = "openidgate"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = "10s"
	}
	if c.Server.WriteTimeout == "" {
		// the callback waits on the brokerage (30s) and an avatar fetch (30s)
		c.Server.WriteTimeout = "75s"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "15s"
	}
	if len(c.Brokers) == 0 {
		c.Brokers = map[string]Broker{"loginza": {}}
	}
	if c.OpenID.PasswordLength == 0 {
		c.OpenID.PasswordLength = 8
	}
	if c.OpenID.PendingTTL == "" {
		c.OpenID.PendingTTL = "30m"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
		if c.Storage.DSN != "" {
			c.Storage.Driver = "postgres"
		}
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "openidgate"
	}
	if c.WebDAV.PicturesDir == "" {
		c.WebDAV.PicturesDir = "/uploads/pictures"
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.Rate.Window == "" {
		c.Rate.Window = "1m"
	}
	if c.Rate.MaxRequests == 0 {
		c.Rate.MaxRequests = 30
	}
}

// Validate checks the values the service cannot start without.
func (c *Config) Validate() error {
	var errs []error
	for _, d := range []struct{ name, v string }{
		{"server.read_timeout", c.Server.ReadTimeout},
		{"server.write_timeout", c.Server.WriteTimeout},
		{"server.shutdown_timeout", c.Server.ShutdownTimeout},
		{"openid.pending_ttl", c.OpenID.PendingTTL},
		{"rate.window", c.Rate.Window},
	} {
		if _, err := time.ParseDuration(d.v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", d.name, err))
		}
	}
	if c.Cache.Memory.DefaultTTL != "" {
		if _, err := time.ParseDuration(c.Cache.Memory.DefaultTTL); err != nil {
			errs = append(errs, fmt.Errorf("cache.memory.default_ttl: %w", err))
		}
	}
	for name := range c.Brokers {
		if name != "loginza" && name != "rpxnow" {
			errs = append(errs, fmt.Errorf("brokers: unknown brokerage %q", name))
		}
	}
	if c.OpenID.PasswordLength < 6 {
		errs = append(errs, errors.New("openid.password_length must be >= 6"))
	}
	if c.OpenID.TicketSecret == "" {
		errs = append(errs, errors.New("openid.ticket_secret is required (TICKET_SECRET)"))
	}
	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if c.Storage.DSN == "" {
			errs = append(errs, errors.New("storage.dsn is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver: unknown %q", c.Storage.Driver))
	}
	if c.Cache.Kind != "memory" && c.Cache.Kind != "redis" {
		errs = append(errs, fmt.Errorf("cache.kind: unknown %q", c.Cache.Kind))
	}
	if c.Rate.Enabled && c.Rate.MaxRequests <= 0 {
		errs = append(errs, errors.New("rate.max_requests must be > 0"))
	}
	if c.SMTP.Enabled && (c.SMTP.Host == "" || c.SMTP.From == "") {
		errs = append(errs, errors.New("smtp.host and smtp.from are required when smtp is enabled"))
	}
	if c.WebDAV.DefaultServer != "" {
		if _, ok := c.WebDAV.Servers[c.WebDAV.DefaultServer]; !ok {
			errs = append(errs, fmt.Errorf("webdav.default_server %q is not in webdav.servers", c.WebDAV.DefaultServer))
		}
	}
	return errors.Join(errs...)
}

// Duration parses a validated duration field.
func Duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

// applyEnvOverrides lets environment variables win over config.yaml
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = v
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("TICKET_SECRET"); ok {
		c.OpenID.TicketSecret = v
	}
	if v, ok := getEnvInt("PASSWORD_LENGTH"); ok {
		c.OpenID.PasswordLength = v
	}
	if v, ok := getEnvStr("PENDING_TTL"); ok {
		c.OpenID.PendingTTL = v
	}
	if v, ok := getEnvStr("RPXNOW_API_KEY"); ok {
		if c.Brokers == nil {
			c.Brokers = map[string]Broker{}
		}
		b := c.Brokers["rpxnow"]
		b.APIKey = v
		c.Brokers["rpxnow"] = b
	}
	// WEBDAV_SERVERS="static=static.local:80,backup=dav.local:8443"
	if kv, ok := getEnvKVList("WEBDAV_SERVERS", ","); ok {
		servers := make(map[string]DAVServer, len(kv))
		for k, hp := range kv {
			s := DAVServer{Host: hp}
			if h, p, err := net.SplitHostPort(hp); err == nil {
				s.Host = h
				s.Port, _ = strconv.Atoi(p)
			}
			servers[k] = s
		}
		c.WebDAV.Servers = servers
	}
	if v, ok := getEnvStr("WEBDAV_DEFAULT_SERVER"); ok {
		c.WebDAV.DefaultServer = v
	}
	if v, ok := getEnvBool("SMTP_ENABLED"); ok {
		c.SMTP.Enabled = v
	}
	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_FROM"); ok {
		c.SMTP.From = v
	}
	if v, ok := getEnvStr("SMTP_USER"); ok {
		c.SMTP.User = v
	}
	if v, ok := getEnvStr("SMTP_PASS"); ok {
		c.SMTP.Pass = v
	}
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvInt("RATE_MAX_REQUESTS"); ok {
		c.Rate.MaxRequests = v
	}
	if v, ok := getEnvStr("RATE_WINDOW"); ok {
		c.Rate.Window = v
	}
}

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

// parse env of form "k1=v1<sep>k2=v2" into map
func parseKVList(s, sep string) map[string]string {
	s = strings.TrimSpace(s)
	if s == "" {
		return map[string]string{}
	}
	items := strings.Split(s, sep)
	out := make(map[string]string, len(items))
	for _, it := range items {
		k, v, ok := strings.Cut(strings.TrimSpace(it), "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if ok && k != "" && v != "" {
			out[k] = v
		}
	}
	return out
}

func getEnvKVList(key, sep string) (map[string]string, bool) {
	if s, ok := getEnvStr(key); ok {
		return parseKVList(s, sep), true
	}
	return nil, false
}
