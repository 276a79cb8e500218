package config

import (
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Server    ServerConfig      `yaml:"server" mapstructure:"server"`
	Store     StoreConfig       `yaml:"store" mapstructure:"store"`
	Log       LogConfig         `yaml:"log" mapstructure:"log"`
	Site      SiteConfig        `yaml:"site" mapstructure:"site"`
	Funnels   map[string]string `yaml:"funnels" mapstructure:"funnels"`
	Delivery  DeliveryConfig    `yaml:"delivery" mapstructure:"delivery"`
	GHL       GHLConfig         `yaml:"ghl" mapstructure:"ghl"`
	GA4       GA4Config         `yaml:"ga4" mapstructure:"ga4"`
	Meta      MetaConfig        `yaml:"meta" mapstructure:"meta"`
	Mail      MailConfig        `yaml:"mail" mapstructure:"mail"`
	RabbitMQ  RabbitMQConfig    `yaml:"rabbitmq" mapstructure:"rabbitmq"`
	Property  PropertyConfig    `yaml:"property" mapstructure:"property"`
	Retention RetentionConfig   `yaml:"retention" mapstructure:"retention"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port               int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins     []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	RateLimitPerMinute int      `yaml:"rate_limit_per_minute" mapstructure:"rate_limit_per_minute"`
}

// StoreConfig configures the Postgres connection pool.
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// SiteConfig holds defaults applied to submissions that omit them.
type SiteConfig struct {
	DefaultKey    string `yaml:"default_key" mapstructure:"default_key"`
	DefaultFunnel string `yaml:"default_funnel" mapstructure:"default_funnel"`
	PhoneRegion   string `yaml:"phone_region" mapstructure:"phone_region"`
	DefaultNext   string `yaml:"default_next_url" mapstructure:"default_next_url"`
}

// DeliveryConfig selects how verified leads reach the sinks.
type DeliveryConfig struct {
	Mode        string `yaml:"mode" mapstructure:"mode"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

const (
	DeliveryInline = "inline"
	DeliveryQueue  = "queue"
)

func (d DeliveryConfig) Timeout() time.Duration {
	if d.TimeoutSecs <= 0 {
		return 5 * time.Second
	}
	return time.Duration(d.TimeoutSecs) * time.Second
}

// GHLConfig holds the CRM inbound webhook.
type GHLConfig struct {
	WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`
}

// GA4Config holds Measurement Protocol credentials.
type GA4Config struct {
	MeasurementID string `yaml:"measurement_id" mapstructure:"measurement_id"`
	APISecret     string `yaml:"api_secret" mapstructure:"api_secret"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
}

// MetaConfig holds Conversions API credentials.
type MetaConfig struct {
	PixelID     string `yaml:"pixel_id" mapstructure:"pixel_id"`
	AccessToken string `yaml:"access_token" mapstructure:"access_token"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	APIVersion  string `yaml:"api_version" mapstructure:"api_version"`
	TestCode    string `yaml:"test_event_code" mapstructure:"test_event_code"`
}

// MailConfig holds the SMTP settings for sales alerts.
type MailConfig struct {
	Host     string   `yaml:"host" mapstructure:"host"`
	Port     int      `yaml:"port" mapstructure:"port"`
	User     string   `yaml:"user" mapstructure:"user"`
	Password string   `yaml:"password" mapstructure:"password"`
	From     string   `yaml:"from" mapstructure:"from"`
	To       []string `yaml:"to" mapstructure:"to"`
}

// RabbitMQConfig holds the broker DSN. Empty disables the lead event bus.
type RabbitMQConfig struct {
	URL string `yaml:"url" mapstructure:"url"`
}

// PropertyConfig configures the property-data lookup proxy.
type PropertyConfig struct {
	BaseURL         string `yaml:"base_url" mapstructure:"base_url"`
	APIKey          string `yaml:"api_key" mapstructure:"api_key"`
	TimeoutSecs     int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	CacheSize       int    `yaml:"cache_size" mapstructure:"cache_size"`
	CacheTTLMinutes int    `yaml:"cache_ttl_minutes" mapstructure:"cache_ttl_minutes"`
}

// RetentionConfig bounds how long raw attribution events are kept.
type RetentionConfig struct {
	AttributionDays int `yaml:"attribution_days" mapstructure:"attribution_days"`
}

// NextURL returns the post-submit redirect for a funnel. Viper lowercases
// map keys, so the lookup is case-insensitive.
func (c *Config) NextURL(funnelType string) string {
	key := strings.ToLower(strings.TrimSpace(funnelType))
	if u, ok := c.Funnels[key]; ok && u != "" {
		return u
	}
	return c.Site.DefaultNext
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("LEADS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.rate_limit_per_minute", 10)
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("site.default_key", "main")
	v.SetDefault("site.default_funnel", "retirement-income")
	v.SetDefault("site.phone_region", "US")
	v.SetDefault("site.default_next_url", "/thank-you")
	v.SetDefault("delivery.mode", DeliveryInline)
	v.SetDefault("delivery.timeout_secs", 5)
	v.SetDefault("ga4.base_url", "https://www.google-analytics.com")
	v.SetDefault("meta.base_url", "https://graph.facebook.com")
	v.SetDefault("meta.api_version", "v18.0")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.to", []string{})
	v.SetDefault("property.timeout_secs", 8)
	v.SetDefault("property.cache_size", 512)
	v.SetDefault("property.cache_ttl_minutes", 60)
	v.SetDefault("retention.attribution_days", 90)

	// Bare env names used by existing deployments.
	_ = v.BindEnv("store.database_url", "LEADS_STORE_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("ghl.webhook_url", "LEADS_GHL_WEBHOOK_URL", "GHL_WEBHOOK_URL")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	// Env values such as LEADS_MAIL_TO=a@x.com,b@x.com arrive as one string.
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.TextUnmarshallerHookFunc(),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if cfg.Delivery.Mode != DeliveryInline && cfg.Delivery.Mode != DeliveryQueue {
		return nil, eris.Errorf("config: unknown delivery.mode %q", cfg.Delivery.Mode)
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
