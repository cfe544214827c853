package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// ErrInvalidConfig is returned when the merged configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// EnvPrefix namespaces environment overrides, e.g. CRAWLER_MAXDEPTH or CRAWLER_FRONTIER_BACKEND.
const EnvPrefix = "CRAWLER"

// Config holds the application configuration.
type Config struct {
	StartURLs          []string           `mapstructure:"startUrls" validate:"dive,url"`
	InputFile          string             `mapstructure:"inputFile"`
	OutputFile         string             `mapstructure:"outputFile" validate:"required"`
	MaxDepth           int                `mapstructure:"maxDepth" validate:"gte=0"`
	MaxLinksPerPage    int                `mapstructure:"maxLinksPerPage" validate:"gte=0"`
	DelayMs            int                `mapstructure:"delayMs" validate:"gte=0"`
	MaxPages           int                `mapstructure:"maxPages" validate:"gte=0"`
	UserAgent          string             `mapstructure:"userAgent"`
	Viewport           Viewport           `mapstructure:"viewport"`
	Cookies            []Cookie           `mapstructure:"cookies" validate:"dive"`
	ProxyConfiguration ProxyConfiguration `mapstructure:"proxyConfiguration"`
	BlockResources     []string           `mapstructure:"blockResources"`
	PageFunctionFile   string             `mapstructure:"pageFunctionFile"`

	Renderer RendererConfig `mapstructure:"renderer"`
	Frontier FrontierConfig `mapstructure:"frontier"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
}

type Viewport struct {
	Width  int `mapstructure:"width" validate:"gte=0"`
	Height int `mapstructure:"height" validate:"gte=0"`
}

// Cookie is set on every page before navigation. Expires is in Unix seconds; 0 means a session cookie.
type Cookie struct {
	Name     string `mapstructure:"name" validate:"required"`
	Value    string `mapstructure:"value"`
	Domain   string `mapstructure:"domain" validate:"required"`
	Path     string `mapstructure:"path"`
	Secure   bool   `mapstructure:"secure"`
	HTTPOnly bool   `mapstructure:"httpOnly"`
	Expires  int64  `mapstructure:"expires" validate:"gte=0"`
}

type ProxyConfiguration struct {
	ProxyURLs []string `mapstructure:"proxyUrls" validate:"dive,url"`
}

type RendererConfig struct {
	Kind              string        `mapstructure:"kind" validate:"oneof=chromedp static"`
	ExecPath          string        `mapstructure:"execPath"`
	Headless          bool          `mapstructure:"headless"`
	NavigationTimeout time.Duration `mapstructure:"navigationTimeout" validate:"gt=0"`
	RequestTimeout    time.Duration `mapstructure:"requestTimeout" validate:"gt=0"`
}

type FrontierConfig struct {
	Backend       string `mapstructure:"backend" validate:"oneof=memory redis"`
	RedisAddr     string `mapstructure:"redisAddr" validate:"required_if=Backend redis"`
	RedisPassword string `mapstructure:"redisPassword"`
	RedisDB       int    `mapstructure:"redisDb" validate:"gte=0"`
}

// PostgresConfig enables the PostgreSQL result sink when URL is set.
type PostgresConfig struct {
	URL string `mapstructure:"url"`
}

// ServerConfig enables the status server when Addr is set.
type ServerConfig struct {
	Addr string `mapstructure:"addr" validate:"omitempty,hostname_port"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
	File   string `mapstructure:"file"`
}

var defaults = map[string]any{
	"startUrls":                    []string{},
	"inputFile":                    "data/input_urls.txt",
	"outputFile":                   "data/output.json",
	"maxDepth":                     0,
	"maxLinksPerPage":              10,
	"delayMs":                      0,
	"maxPages":                     0,
	"userAgent":                    "",
	"viewport.width":               0,
	"viewport.height":              0,
	"cookies":                      []any{},
	"proxyConfiguration.proxyUrls": []string{},
	"blockResources":               []string{},
	"pageFunctionFile":             "",
	"renderer.kind":                "chromedp",
	"renderer.execPath":            "",
	"renderer.headless":            true,
	"renderer.navigationTimeout":   "60s",
	"renderer.requestTimeout":      "30s",
	"frontier.backend":             "memory",
	"frontier.redisAddr":           "localhost:6379",
	"frontier.redisPassword":       "",
	"frontier.redisDb":             0,
	"postgres.url":                 "",
	"server.addr":                  "",
	"log.level":                    "info",
	"log.format":                   "json",
	"log.file":                     "",
}

// New returns a viper instance carrying the defaults and reading CRAWLER_* environment overrides.
func New() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load merges the optional config file (YAML or JSON) into v, then decodes and validates the result.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and reports every violation at once.
func Validate(cfg *Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	msgs := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}
