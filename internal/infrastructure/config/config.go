package config

import (
	"fmt"
	"strings"
	"time"

	"menu-lens/internal/pkg/common"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig       `mapstructure:"app"`
	Server      ServerConfig    `mapstructure:"server"`
	Vision      VisionConfig    `mapstructure:"vision"`
	Search      SearchConfig    `mapstructure:"search"`
	Menu        MenuConfig      `mapstructure:"menu"`
	Store       StoreConfig     `mapstructure:"store"`
	Cache       CacheConfig     `mapstructure:"cache"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	Image       ImageConfig     `mapstructure:"image"`
	DedupWindow time.Duration   `mapstructure:"dedup_window"`
	LogLevel    string          `mapstructure:"log_level"`
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

// VisionConfig 視覺模型設定
type VisionConfig struct {
	// Provider: openrouter | openai | gemini
	Provider string `mapstructure:"provider"`
	// Variant: menu（price 為價格）| fridge（price 為難度）
	Variant   string        `mapstructure:"variant"`
	Model     string        `mapstructure:"model"`
	APIKey    string        `mapstructure:"api_key"`
	BaseURL   string        `mapstructure:"base_url"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// SearchConfig Google Custom Search 設定
type SearchConfig struct {
	Endpoint   string        `mapstructure:"endpoint"`
	APIKey     string        `mapstructure:"api_key"`
	EngineID   string        `mapstructure:"engine_id"`
	ImageCount int           `mapstructure:"image_count"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// MenuConfig 目錄快取與圖片補充設定
type MenuConfig struct {
	Expiry     time.Duration `mapstructure:"expiry"`
	Workers    int           `mapstructure:"workers"`
	QueueSize  int           `mapstructure:"queue_size"`
	StorageKey string        `mapstructure:"storage_key"`
}

// StoreConfig 目錄持久化設定
type StoreConfig struct {
	// Driver: memory | file | redis | minio
	Driver string      `mapstructure:"driver"`
	Dir    string      `mapstructure:"dir"`
	Redis  RedisConfig `mapstructure:"redis"`
	Minio  MinioConfig `mapstructure:"minio"`
}

// RedisConfig Redis 連線設定
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// MinioConfig S3 相容儲存設定
type MinioConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// CacheConfig AI 回應緩存配置
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// ImageConfig 圖片配置
type ImageConfig struct {
	MaxSizeBytes int64 `mapstructure:"max_size_bytes"`
}

// LoadConfig 載入設定；.env 不存在時只使用環境變數與預設值
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	// 設定環境變數前綴
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定常用的環境變量
	bindings := map[string][]string{
		"vision.provider":        {"APP_VISION_PROVIDER", "VISION_PROVIDER"},
		"vision.variant":         {"APP_VISION_VARIANT", "VISION_VARIANT"},
		"vision.model":           {"APP_VISION_MODEL", "VISION_MODEL", "OPENROUTER_MODEL"},
		"vision.api_key":         {"APP_VISION_API_KEY", "VISION_API_KEY", "OPENROUTER_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY"},
		"vision.max_tokens":      {"APP_VISION_MAX_TOKENS", "MODEL_MAX_TOKENS"},
		"search.api_key":         {"APP_SEARCH_API_KEY", "GOOGLE_SEARCH_API_KEY"},
		"search.engine_id":       {"APP_SEARCH_ENGINE_ID", "GOOGLE_SEARCH_CX"},
		"store.driver":           {"APP_STORE_DRIVER", "STORE_DRIVER"},
		"store.redis.addr":       {"APP_STORE_REDIS_ADDR", "REDIS_ADDR"},
		"store.redis.password":   {"APP_STORE_REDIS_PASSWORD", "REDIS_PASSWORD"},
		"store.minio.endpoint":   {"APP_STORE_MINIO_ENDPOINT", "MINIO_ENDPOINT"},
		"store.minio.access_key": {"APP_STORE_MINIO_ACCESS_KEY", "MINIO_ACCESS_KEY"},
		"store.minio.secret_key": {"APP_STORE_MINIO_SECRET_KEY", "MINIO_SECRET_KEY"},
		"store.minio.use_ssl":    {"APP_STORE_MINIO_USE_SSL", "MINIO_USE_SSL"},
		"vision.base_url":        {"APP_VISION_BASE_URL", "VISION_BASE_URL"},
		"cache.enabled":          {"APP_CACHE_ENABLED", "CACHE_ENABLED"},
		"rate_limit.enabled":     {"APP_RATE_LIMIT_ENABLED", "RATE_LIMIT_ENABLED"},
		"rate_limit.requests":    {"APP_RATE_LIMIT_REQUESTS", "RATE_LIMIT_REQUESTS"},
		"rate_limit.window":      {"APP_RATE_LIMIT_WINDOW", "RATE_LIMIT_WINDOW"},
		"dedup_window":           {"APP_DEDUP_WINDOW", "DEDUP_WINDOW"},
		"log_level":              {"APP_LOG_LEVEL", "LOG_LEVEL"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", key, err)
		}
	}

	// 設定設定檔名稱和路徑
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// logger 尚未初始化，改用 fmt.Println
	fmt.Println("Loading configuration",
		"vision_provider:", v.GetString("vision.provider"),
		"vision_api_key:", common.MaskAPIKey(v.GetString("vision.api_key")),
		"vision_model:", v.GetString("vision.model"),
		"store_driver:", v.GetString("store.driver"),
	)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "menu-lens")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "150s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "120s")
	v.SetDefault("server.max_body_bytes", 12<<20)

	// 視覺模型設定
	v.SetDefault("vision.provider", "openrouter")
	v.SetDefault("vision.variant", "menu")
	v.SetDefault("vision.model", "qwen/qwen2.5-vl-72b-instruct:free")
	v.SetDefault("vision.max_tokens", 4096)
	v.SetDefault("vision.timeout", "90s")

	// 圖片搜尋設定
	v.SetDefault("search.endpoint", "https://www.googleapis.com/customsearch/v1")
	v.SetDefault("search.image_count", 6)
	v.SetDefault("search.timeout", "15s")

	// 目錄設定
	v.SetDefault("menu.expiry", "24h")
	v.SetDefault("menu.workers", 4)
	v.SetDefault("menu.queue_size", 64)
	v.SetDefault("menu.storage_key", "menu_data_cache")

	// 持久化設定
	v.SetDefault("store.driver", "file")
	v.SetDefault("store.dir", "data")
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.minio.bucket", "menu-lens")
	v.SetDefault("store.minio.region", "us-east-1")

	// 快取設定
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.max_size", 100)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_interval", "10m")

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 60)
	v.SetDefault("rate_limit.window", "1m")

	// 圖片設定
	v.SetDefault("image.max_size_bytes", 10*1024*1024) // 10MB

	v.SetDefault("dedup_window", "1s")
	v.SetDefault("log_level", "info")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	switch config.Vision.Provider {
	case "openrouter", "openai", "gemini":
	default:
		return fmt.Errorf("unsupported vision provider %q", config.Vision.Provider)
	}

	switch config.Vision.Variant {
	case "menu", "fridge":
	default:
		return fmt.Errorf("unsupported vision variant %q", config.Vision.Variant)
	}

	if config.Menu.Expiry <= 0 {
		return fmt.Errorf("invalid menu expiry")
	}
	if config.Menu.Workers <= 0 {
		return fmt.Errorf("invalid menu workers")
	}
	if config.Menu.QueueSize <= 0 {
		return fmt.Errorf("invalid menu queue size")
	}
	if config.Menu.StorageKey == "" {
		return fmt.Errorf("menu storage key is required")
	}
	if config.Search.ImageCount <= 0 {
		return fmt.Errorf("invalid search image count")
	}

	switch config.Store.Driver {
	case "memory", "file", "redis":
	case "minio":
		if config.Store.Minio.Endpoint == "" {
			return fmt.Errorf("minio endpoint is required")
		}
	default:
		return fmt.Errorf("unsupported store driver %q", config.Store.Driver)
	}

	if config.Cache.Enabled {
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

	if config.RateLimit.Enabled && (config.RateLimit.Requests <= 0 || config.RateLimit.Window <= 0) {
		return fmt.Errorf("invalid rate limit")
	}

	return nil
}
