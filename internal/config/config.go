package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Redis     RedisConfig
	AI        AIConfig
	Scrape    ScrapeConfig    `mapstructure:"scrape"`
	Search    SearchConfig    `mapstructure:"search"`
	Push      PushConfig      `mapstructure:"push"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool `mapstructure:"-"`
	MigrateOnly  bool `mapstructure:"-"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type AIConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	APIKey      string `mapstructure:"api_key"`
	Model       string `mapstructure:"model"`
	TimeoutSecs int    `mapstructure:"timeout_seconds"`
}

// ScrapeConfig 抓取管线的超时与节流参数，全部为秒
type ScrapeConfig struct {
	FetchTimeoutSecs    int  `mapstructure:"fetch_timeout_seconds"`
	RenderTimeoutSecs   int  `mapstructure:"render_timeout_seconds"`
	QueryDelaySecs      int  `mapstructure:"query_delay_seconds"`
	BackendDelaySecs    int  `mapstructure:"backend_delay_seconds"`
	RetryCooldownSecs   int  `mapstructure:"retry_cooldown_seconds"`
	UseRenderedFallback bool `mapstructure:"use_rendered_fallback"`
}

type SearchConfig struct {
	SerpAPIKey      string `mapstructure:"serpapi_key"`
	GoogleCSEAPIKey string `mapstructure:"google_cse_api_key"`
	GoogleCSEID     string `mapstructure:"google_cse_id"`
	BingAPIKey      string `mapstructure:"bing_api_key"`
	Region          string `mapstructure:"region"`
}

type PushConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("JOURNEY")
	viper.AutomaticEnv()

	// Database
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	viper.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	viper.BindEnv("server.mode", "SERVER_MODE")

	// AI
	viper.BindEnv("ai.base_url", "AI_BASE_URL")
	viper.BindEnv("ai.api_key", "AI_API_KEY")
	viper.BindEnv("ai.model", "AI_MODEL")

	// Search providers
	viper.BindEnv("search.serpapi_key", "SERPAPI_KEY")
	viper.BindEnv("search.google_cse_api_key", "GOOGLE_CSE_API_KEY")
	viper.BindEnv("search.google_cse_id", "GOOGLE_CSE_ID")
	viper.BindEnv("search.bing_api_key", "BING_API_KEY")

	// Push
	viper.BindEnv("push.webhook_url", "PUSH_WEBHOOK_URL")

	// Storage
	viper.BindEnv("storage.type", "STORAGE_TYPE")
	viper.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	viper.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	viper.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	viper.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour

	// 生产环境校验 JWT Secret 强度
	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	applyScrapeDefaults(&cfg.Scrape)
	if cfg.AI.TimeoutSecs <= 0 {
		cfg.AI.TimeoutSecs = 120
	}

	return &cfg, nil
}

func applyScrapeDefaults(sc *ScrapeConfig) {
	if sc.FetchTimeoutSecs <= 0 {
		sc.FetchTimeoutSecs = 30
	}
	if sc.RenderTimeoutSecs <= 0 {
		sc.RenderTimeoutSecs = 15
	}
	if sc.QueryDelaySecs <= 0 {
		sc.QueryDelaySecs = 10
	}
	if sc.BackendDelaySecs <= 0 {
		sc.BackendDelaySecs = 2
	}
	if sc.RetryCooldownSecs <= 0 {
		sc.RetryCooldownSecs = 15
	}
}
