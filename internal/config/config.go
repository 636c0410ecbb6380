package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppCfg struct {
	Env                 string `mapstructure:"env"`
	Port                string `mapstructure:"port"`
	BodyLimitMB         int    `mapstructure:"body_limit_mb"`
	ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds"`
}

type MongoCfg struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type RedisCfg struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type KafkaCfg struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

type S3Cfg struct {
	Region            string `mapstructure:"region"`
	Bucket            string `mapstructure:"bucket"`
	PublicRead        bool   `mapstructure:"public_read"`
	PresignTTLMinutes int    `mapstructure:"presign_ttl_minutes"`
}

type JWTCfg struct {
	Secret string `mapstructure:"secret"`
}

type CORSCfg struct {
	Origins []string `mapstructure:"origins"`
}

type WSCfg struct {
	PingIntervalSeconds  int     `mapstructure:"ping_interval_seconds"`
	WriteDeadlineSeconds int     `mapstructure:"write_deadline_seconds"`
	MaxMessageBytes      int64   `mapstructure:"max_message_bytes"`
	EventsPerSecond      float64 `mapstructure:"events_per_second"`
	EventBurst           int     `mapstructure:"event_burst"`
}

type RateLimitCfg struct {
	Limit         int `mapstructure:"limit"`
	WindowSeconds int `mapstructure:"window_seconds"`
}

type Config struct {
	App       AppCfg       `mapstructure:"app"`
	Mongo     MongoCfg     `mapstructure:"mongo"`
	Redis     RedisCfg     `mapstructure:"redis"`
	Kafka     KafkaCfg     `mapstructure:"kafka"`
	S3        S3Cfg        `mapstructure:"s3"`
	JWT       JWTCfg       `mapstructure:"jwt"`
	CORS      CORSCfg      `mapstructure:"cors"`
	WS        WSCfg        `mapstructure:"ws"`
	RateLimit RateLimitCfg `mapstructure:"ratelimit"`

	// Derived
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	PingInterval  time.Duration
	WriteDeadline time.Duration
	PresignTTL    time.Duration
	RateWindow    time.Duration
}

func (c *Config) Development() bool { return c.App.Env != "production" }

// Load reads the yaml config at path. Any key can be overridden through the
// environment, e.g. APP_MONGO_URI.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.App.BodyLimitMB == 0 {
		cfg.App.BodyLimitMB = 10
	}
	if cfg.App.ReadTimeoutSeconds == 0 {
		cfg.App.ReadTimeoutSeconds = 15
	}
	if cfg.App.WriteTimeoutSeconds == 0 {
		cfg.App.WriteTimeoutSeconds = 15
	}
	if cfg.WS.PingIntervalSeconds == 0 {
		cfg.WS.PingIntervalSeconds = 30
	}
	if cfg.WS.WriteDeadlineSeconds == 0 {
		cfg.WS.WriteDeadlineSeconds = 10
	}
	if cfg.WS.MaxMessageBytes == 0 {
		cfg.WS.MaxMessageBytes = 64 * 1024
	}
	if cfg.WS.EventsPerSecond == 0 {
		cfg.WS.EventsPerSecond = 20
	}
	if cfg.WS.EventBurst == 0 {
		cfg.WS.EventBurst = 40
	}
	if cfg.S3.PresignTTLMinutes == 0 {
		cfg.S3.PresignTTLMinutes = 60
	}
	if cfg.RateLimit.Limit == 0 {
		cfg.RateLimit.Limit = 30
	}
	if cfg.RateLimit.WindowSeconds == 0 {
		cfg.RateLimit.WindowSeconds = 60
	}
	if cfg.Redis.Prefix == "" {
		cfg.Redis.Prefix = "safecity"
	}

	cfg.ReadTimeout = time.Duration(cfg.App.ReadTimeoutSeconds) * time.Second
	cfg.WriteTimeout = time.Duration(cfg.App.WriteTimeoutSeconds) * time.Second
	cfg.PingInterval = time.Duration(cfg.WS.PingIntervalSeconds) * time.Second
	cfg.WriteDeadline = time.Duration(cfg.WS.WriteDeadlineSeconds) * time.Second
	cfg.PresignTTL = time.Duration(cfg.S3.PresignTTLMinutes) * time.Minute
	cfg.RateWindow = time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
	return &cfg, nil
}
