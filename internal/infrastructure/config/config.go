package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// 推薦策略
const (
	StrategyTwoStage   = "two_stage"
	StrategySingleCall = "single_call"
)

// Config 應用配置
type Config struct {
	App         AppConfig        `mapstructure:"app"`
	Server      ServerConfig     `mapstructure:"server"`
	AI          AIConfig         `mapstructure:"ai"`
	OpenRouter  OpenRouterConfig `mapstructure:"openrouter"`
	Ark         ArkConfig        `mapstructure:"ark"`
	Database    DatabaseConfig   `mapstructure:"database"`
	Cache       CacheConfig      `mapstructure:"cache"`
	Queue       QueueConfig      `mapstructure:"queue"`
	RateLimit   RateLimitConfig  `mapstructure:"rate_limit"`
	Recommend   RecommendConfig  `mapstructure:"recommend"`
	DedupWindow time.Duration    `mapstructure:"dedup_window"`
	LogLevel    string           `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// AIConfig 文字生成設定
type AIConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Provider    string        `mapstructure:"provider"` // openrouter | ark
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
}

// OpenRouterConfig OpenRouter 配置
type OpenRouterConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// ArkConfig 火山方舟模型配置
type ArkConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// DatabaseConfig 花卉目錄資料來源
type DatabaseConfig struct {
	Driver         string        `mapstructure:"driver"` // postgres | memory
	URL            string        `mapstructure:"url"`
	MaxConnections int           `mapstructure:"max_connections"`
	MaxIdle        int           `mapstructure:"max_idle"`
	ConnMaxLife    time.Duration `mapstructure:"conn_max_life"`
}

// CacheConfig 緩存配置
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Backend         string        `mapstructure:"backend"` // memory | redis
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
}

// QueueConfig 模型呼叫並行上限
type QueueConfig struct {
	Workers int `mapstructure:"workers"`
	MaxSize int `mapstructure:"max_size"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// RecommendConfig 花束推薦流程參數
type RecommendConfig struct {
	Strategy        string `mapstructure:"strategy"`
	IdeationCount   int    `mapstructure:"ideation_count"`
	MinMatches      int    `mapstructure:"min_matches"`
	TopUpLimit      int    `mapstructure:"top_up_limit"`
	CandidateCap    int    `mapstructure:"candidate_cap"`
	CandidateStores int    `mapstructure:"candidate_stores"`
	MinStoreVariety int    `mapstructure:"min_store_variety"`
	RandomSeed      int64  `mapstructure:"random_seed"` // 0 表示以時間為種子
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	v := viper.New()

	// 設定預設值
	setDefaults(v)

	// 設定環境變數前綴
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定環境變量
	bindings := map[string]string{
		"openrouter.api_key":  "OPENROUTER_API_KEY",
		"openrouter.model":    "OPENROUTER_MODEL",
		"ark.api_key":         "ARK_API_KEY",
		"ark.model":           "ARK_MODEL",
		"ark.base_url":        "ARK_BASE_URL",
		"ai.enabled":          "AI_ENABLED",
		"ai.provider":         "AI_PROVIDER",
		"ai.max_tokens":       "MODEL_MAX_TOKENS",
		"database.driver":     "DATABASE_DRIVER",
		"database.url":        "DATABASE_URL",
		"cache.enabled":       "CACHE_ENABLED",
		"cache.backend":       "CACHE_BACKEND",
		"cache.redis_addr":    "REDIS_ADDR",
		"rate_limit.enabled":  "RATE_LIMIT_ENABLED",
		"rate_limit.requests": "RATE_LIMIT_REQUESTS",
		"rate_limit.window":   "RATE_LIMIT_WINDOW",
		"recommend.strategy":  "RECOMMEND_STRATEGY",
		"dedup_window":        "DEDUP_WINDOW",
		"log_level":           "LOG_LEVEL",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	// 設定設定檔名稱和路徑
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")

	// 讀取設定檔
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 解析設定
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 驗證必要設定
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// MaskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "bouquet-recommender")

	// 伺服器設定
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "180s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "150s")
	v.SetDefault("server.max_body_bytes", 1<<20)

	// 文字生成設定
	v.SetDefault("ai.enabled", true)
	v.SetDefault("ai.provider", "openrouter")
	v.SetDefault("ai.timeout", "60s")
	v.SetDefault("ai.max_tokens", 1500)
	v.SetDefault("ai.temperature", 0.7)

	v.SetDefault("openrouter.model", "google/gemini-2.5-flash")
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")

	v.SetDefault("ark.base_url", "https://ark.cn-beijing.volces.com/api/v3")

	// 資料來源
	v.SetDefault("database.driver", "memory")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.max_idle", 5)
	v.SetDefault("database.conn_max_life", "5m")

	// 快取設定
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.max_size", 1000)
	v.SetDefault("cache.ttl", "1h")
	v.SetDefault("cache.cleanup_interval", "10m")
	v.SetDefault("cache.redis_addr", "localhost:6379")

	// 隊列設定
	v.SetDefault("queue.workers", 5)
	v.SetDefault("queue.max_size", 100)

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 60)
	v.SetDefault("rate_limit.window", "1m")

	// 推薦流程
	v.SetDefault("recommend.strategy", StrategyTwoStage)
	v.SetDefault("recommend.ideation_count", 20)
	v.SetDefault("recommend.min_matches", 2)
	v.SetDefault("recommend.top_up_limit", 5)
	v.SetDefault("recommend.candidate_cap", 8)
	v.SetDefault("recommend.candidate_stores", 5)
	v.SetDefault("recommend.min_store_variety", 3)
	v.SetDefault("recommend.random_seed", 0)

	v.SetDefault("dedup_window", "1s")
	v.SetDefault("log_level", "info")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	// 驗證伺服器設定
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	// 驗證生成設定
	if config.AI.Enabled {
		switch config.AI.Provider {
		case "openrouter":
			if config.OpenRouter.Model == "" {
				return fmt.Errorf("openrouter model is required")
			}
		case "ark":
			if config.Ark.Model == "" {
				return fmt.Errorf("ark model is required")
			}
		default:
			return fmt.Errorf("unknown ai provider: %s", config.AI.Provider)
		}
	}

	// 驗證資料來源
	switch config.Database.Driver {
	case "memory":
	case "postgres":
		if config.Database.URL == "" {
			return fmt.Errorf("database url is required for postgres driver")
		}
	default:
		return fmt.Errorf("unknown database driver: %s", config.Database.Driver)
	}

	// 驗證快取設定
	if config.Cache.Enabled {
		if config.Cache.Backend != "memory" && config.Cache.Backend != "redis" {
			return fmt.Errorf("unknown cache backend: %s", config.Cache.Backend)
		}
		if config.Cache.MaxSize <= 0 {
			return fmt.Errorf("invalid cache max size")
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
		if config.Cache.CleanupInterval <= 0 {
			return fmt.Errorf("invalid cache cleanup interval")
		}
	}

	// 驗證隊列設定
	if config.Queue.Workers <= 0 {
		return fmt.Errorf("invalid queue workers")
	}
	if config.Queue.MaxSize <= 0 {
		return fmt.Errorf("invalid queue max size")
	}

	// 驗證推薦參數
	r := config.Recommend
	if r.Strategy != StrategyTwoStage && r.Strategy != StrategySingleCall {
		return fmt.Errorf("unknown recommend strategy: %s", r.Strategy)
	}
	if r.CandidateCap <= 0 || r.MinMatches < 0 || r.TopUpLimit < 0 {
		return fmt.Errorf("invalid recommend candidate limits")
	}
	if r.CandidateStores <= 0 {
		return fmt.Errorf("invalid recommend candidate stores")
	}

	return nil
}

// Default 返回全部採用預設值的設定，主要供測試使用
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var config Config
	_ = v.Unmarshal(&config)
	return &config
}
