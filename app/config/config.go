// Package config loads cmsgo settings from a TOML file, a .env file and
// CMSGO_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cmsgo/app/models"
	"cmsgo/app/repositories"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"pkt.systems/pslog"
)

const (
	EnvPrefix         = "CMSGO"
	DefaultConfigFile = "cmsgo_config.toml"
	redacted          = "REDACTED"
)

// Config mirrors the TOML file. Keys are snake_case.
type Config struct {
	DatabaseURL      string `mapstructure:"database_url"`
	DatabaseAddress  string `mapstructure:"database_address"`
	DatabasePort     int    `mapstructure:"database_port"`
	DatabaseUser     string `mapstructure:"database_user"`
	DatabasePassword string `mapstructure:"database_password"`
	DatabaseName     string `mapstructure:"database_name"`

	WebserverPort int `mapstructure:"webserver_port"`
	AdminPort     int `mapstructure:"admin_port"`

	// Accepted for compatibility with existing config files. Nothing reads
	// them yet: there is no image storage, caching or captcha.
	ImageDir         string `mapstructure:"image_dir"`
	CacheEnabled     bool   `mapstructure:"cache_enabled"`
	RecaptchaSiteKey string `mapstructure:"recaptcha_sitekey"`
	RecaptchaSecret  string `mapstructure:"recaptcha_secret"`

	Navbar models.NavbarConfig `mapstructure:"navbar"`

	Store               string   `mapstructure:"store"`
	BadgerPath          string   `mapstructure:"badger_path"`
	ViewsDir            string   `mapstructure:"views_dir"`
	SitePageSize        int      `mapstructure:"site_page_size"`
	AdminNotFoundStatus int      `mapstructure:"admin_not_found_status"`
	SiteNotFoundStatus  int      `mapstructure:"site_not_found_status"`
	MaxBody             string   `mapstructure:"max_body"`
	CORSOrigins         []string `mapstructure:"cors_origins"`

	PoolMaxConns       int32         `mapstructure:"pool_max_conns"`
	PoolMinConns       int32         `mapstructure:"pool_min_conns"`
	PoolConnectTimeout time.Duration `mapstructure:"pool_connect_timeout"`
	PoolAcquireTimeout time.Duration `mapstructure:"pool_acquire_timeout"`
	PoolIdleTimeout    time.Duration `mapstructure:"pool_idle_timeout"`
	PoolMaxLifetime    time.Duration `mapstructure:"pool_max_lifetime"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	LogLevel        string        `mapstructure:"log_level"`

	// MaxBodyBytes is MaxBody parsed by Validate.
	MaxBodyBytes int64 `mapstructure:"-"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database_url", "")
	v.SetDefault("database_address", "localhost")
	v.SetDefault("database_port", 5432)
	v.SetDefault("database_user", "cmsgo")
	v.SetDefault("database_password", "")
	v.SetDefault("database_name", "cmsgo")
	v.SetDefault("webserver_port", 8080)
	v.SetDefault("admin_port", 8081)
	v.SetDefault("image_dir", "images")
	v.SetDefault("cache_enabled", false)
	v.SetDefault("recaptcha_sitekey", "")
	v.SetDefault("recaptcha_secret", "")
	v.SetDefault("navbar.links", []map[string]string{})
	v.SetDefault("store", repositories.BackendBadger)
	v.SetDefault("badger_path", "data")
	v.SetDefault("views_dir", "views")
	v.SetDefault("site_page_size", 0)
	v.SetDefault("admin_not_found_status", 400)
	v.SetDefault("site_not_found_status", 404)
	v.SetDefault("max_body", "1MB")
	v.SetDefault("cors_origins", []string{"*"})
	v.SetDefault("pool_max_conns", 100)
	v.SetDefault("pool_min_conns", 5)
	v.SetDefault("pool_connect_timeout", 8*time.Second)
	v.SetDefault("pool_acquire_timeout", 8*time.Second)
	v.SetDefault("pool_idle_timeout", 8*time.Second)
	v.SetDefault("pool_max_lifetime", 8*time.Second)
	v.SetDefault("shutdown_timeout", 10*time.Second)
	v.SetDefault("log_level", "info")
}

// Default returns the built-in settings.
func Default() (*Config, error) {
	return decode(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads envFile (skipped when missing) then path. An empty path uses
// only defaults and the environment. The result is validated.
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Validate checks ranges and fills derived fields.
func (c *Config) Validate() error {
	var errs []error

	c.Store = strings.ToLower(strings.TrimSpace(c.Store))
	switch c.Store {
	case repositories.BackendBadger:
		if c.BadgerPath == "" {
			errs = append(errs, errors.New("badger_path is required for the badger store"))
		}
	case repositories.BackendPostgres:
		if c.DatabaseURL == "" && c.DatabaseName == "" {
			errs = append(errs, errors.New("database_name or database_url is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: %q", repositories.ErrUnknownBackend, c.Store))
	}

	for name, port := range map[string]int{"webserver_port": c.WebserverPort, "admin_port": c.AdminPort, "database_port": c.DatabasePort} {
		if port < 1 || port > 65535 {
			errs = append(errs, fmt.Errorf("%s %d out of range", name, port))
		}
	}
	if c.WebserverPort == c.AdminPort {
		errs = append(errs, fmt.Errorf("webserver_port and admin_port are both %d", c.AdminPort))
	}

	for name, status := range map[string]int{"admin_not_found_status": c.AdminNotFoundStatus, "site_not_found_status": c.SiteNotFoundStatus} {
		if status < 400 || status > 599 {
			errs = append(errs, fmt.Errorf("%s %d is not an error status", name, status))
		}
	}

	if c.SitePageSize < 0 {
		errs = append(errs, errors.New("site_page_size cannot be negative"))
	}

	size, err := humanize.ParseBytes(c.MaxBody)
	if err != nil || size == 0 {
		errs = append(errs, fmt.Errorf("invalid max_body %q", c.MaxBody))
	} else {
		c.MaxBodyBytes = int64(size)
	}

	if c.PoolMinConns < 0 || c.PoolMaxConns < 1 || c.PoolMinConns > c.PoolMaxConns {
		errs = append(errs, fmt.Errorf("invalid pool bounds min=%d max=%d", c.PoolMinConns, c.PoolMaxConns))
	}

	if _, ok := pslog.ParseLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("invalid log_level %q", c.LogLevel))
	}

	return errors.Join(errs...)
}

// PostgresDSN returns database_url or one built from the discrete fields.
func (c *Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.DatabaseAddress, strconv.Itoa(c.DatabasePort)),
		Path:   "/" + c.DatabaseName,
	}
	if c.DatabasePassword != "" {
		u.User = url.UserPassword(c.DatabaseUser, c.DatabasePassword)
	} else if c.DatabaseUser != "" {
		u.User = url.User(c.DatabaseUser)
	}
	return u.String()
}

// StoreOptions translates the config into repository options.
func (c *Config) StoreOptions(logger pslog.Logger) repositories.Options {
	return repositories.Options{
		Backend:    c.Store,
		BadgerPath: c.BadgerPath,
		Postgres: repositories.PoolConfig{
			DSN:            c.PostgresDSN(),
			MaxConns:       c.PoolMaxConns,
			MinConns:       c.PoolMinConns,
			ConnectTimeout: c.PoolConnectTimeout,
			AcquireTimeout: c.PoolAcquireTimeout,
			IdleTimeout:    c.PoolIdleTimeout,
			MaxLifetime:    c.PoolMaxLifetime,
		},
		Logger: logger,
	}
}

// Redacted is a copy safe to log.
func (c *Config) Redacted() Config {
	out := *c
	if out.DatabasePassword != "" {
		out.DatabasePassword = redacted
	}
	if out.RecaptchaSecret != "" {
		out.RecaptchaSecret = redacted
	}
	if out.DatabaseURL != "" {
		if u, err := url.Parse(out.DatabaseURL); err == nil {
			out.DatabaseURL = u.Redacted()
		} else {
			out.DatabaseURL = redacted
		}
	}
	return out
}
