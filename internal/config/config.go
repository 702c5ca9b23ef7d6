package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds exporter configuration loaded from the environment.
type Config struct {
	AppEnv string `validate:"required"`

	CatalogDriver string `validate:"oneof=mysql postgres sqlite"`
	CatalogDSN    string `validate:"required"`
	DBPrefix      string

	// Lang is the ISO code of the feed language; LangID wins when set.
	Lang        string
	LangID      int64 `validate:"gte=0"`
	ShopID      int64 `validate:"gte=0"`
	ShopGroupID int64 `validate:"gte=0"` // 0 resolves to the exported shop's group
	CountryID   int64 `validate:"gte=0"`

	SpecificPrice  bool
	PriceBuy       bool
	PricePrecision int32 `validate:"gte=0,lte=6"`

	// PrestaShop order state ids reported as canceled or finished in the
	// orders feed. Other states are reported as created.
	OrderCancelled []int64
	OrderFinished  []int64

	OutputDir           string `validate:"required"`
	ProductURLTemplate  string
	CategoryURLTemplate string
	ImageURLBase        string

	RedisURL         string
	ExportSchedule   string
	ExportQueue      string
	LockTTL          time.Duration
	LockRetryBackoff time.Duration
	SettingsCacheTTL time.Duration
	OpsPort          string

	LogFormat        string `validate:"oneof=json console text"`
	LogLevel         string
	MetricsNamespace string

	TracingEnabled       bool
	TracingEndpoint      string
	TracingSamplingRatio float64 `validate:"gte=0,lte=1"`
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:               valueOrDefault(k.String("APP_ENV"), "development"),
		CatalogDriver:        strings.ToLower(valueOrDefault(k.String("CATALOG_DB_DRIVER"), "mysql")),
		CatalogDSN:           strings.TrimSpace(k.String("CATALOG_DSN")),
		DBPrefix:             valueOrDefault(k.String("DB_PREFIX"), "ps_"),
		Lang:                 strings.TrimSpace(k.String("LANG_ISO")),
		LangID:               parseInt(k.String("LANG_ID")),
		ShopID:               parseInt(k.String("SHOP_ID")),
		ShopGroupID:          parseInt(k.String("SHOP_GROUP_ID")),
		CountryID:            parseInt(k.String("COUNTRY_ID")),
		SpecificPrice:        parseBoolDefault(k.String("SPECIFIC_PRICE"), true),
		PriceBuy:             parseBool(k.String("PRICE_BUY")),
		PricePrecision:       int32(parseInt(valueOrDefault(k.String("PRICE_PRECISION"), "2"))),
		OrderCancelled:       parseIntList(valueOrDefault(k.String("ORDER_CANCELLED"), "6,7,8")),
		OrderFinished:        parseIntList(valueOrDefault(k.String("ORDER_FINISHED"), "5")),
		OutputDir:            valueOrDefault(k.String("OUTPUT_DIR"), "out"),
		ProductURLTemplate:   strings.TrimSpace(k.String("PRODUCT_URL_TEMPLATE")),
		CategoryURLTemplate:  strings.TrimSpace(k.String("CATEGORY_URL_TEMPLATE")),
		ImageURLBase:         strings.TrimSpace(k.String("IMAGE_URL_BASE")),
		RedisURL:             strings.TrimSpace(k.String("REDIS_URL")),
		ExportSchedule:       valueOrDefault(k.String("EXPORT_SCHEDULE"), "@every 1h"),
		ExportQueue:          valueOrDefault(k.String("EXPORT_QUEUE"), "feeds"),
		LockTTL:              parseDuration(k.String("LOCK_TTL"), "30m"),
		LockRetryBackoff:     parseDuration(k.String("LOCK_RETRY_BACKOFF"), "1s"),
		SettingsCacheTTL:     parseDuration(k.String("SETTINGS_CACHE_TTL"), "5m"),
		OpsPort:              valueOrDefault(k.String("OPS_PORT"), "9090"),
		LogFormat:            strings.ToLower(valueOrDefault(k.String("OBS_LOG_FORMAT"), "json")),
		LogLevel:             valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
		MetricsNamespace:     valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "samba_exporter"),
		TracingEnabled:       parseBool(k.String("OTEL_ENABLED")),
		TracingEndpoint:      strings.TrimSpace(k.String("OTEL_EXPORTER_OTLP_ENDPOINT")),
		TracingSamplingRatio: parseFloat(k.String("OTEL_SAMPLING_RATIO"), 1),
	}

	if cfg.CatalogDSN == "" {
		return nil, errors.New("CATALOG_DSN is required")
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// OpsAddr returns the address the operational HTTP server should bind to.
func (c *Config) OpsAddr() string {
	port := strings.TrimSpace(c.OpsPort)
	if port == "" {
		port = "9090"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// RequireRedis reports an error when worker mode lacks a Redis URL.
func (c *Config) RequireRedis() error {
	if strings.TrimSpace(c.RedisURL) == "" {
		return errors.New("REDIS_URL is required")
	}
	return nil
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string) bool {
	return parseBoolDefault(value, false)
}

func parseBoolDefault(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func parseInt(value string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseIntList(value string) []int64 {
	var out []int64
	for _, part := range strings.Split(value, ",") {
		v, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

func parseFloat(value string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return v
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
