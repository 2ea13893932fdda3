package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	SQLite    SQLiteConfig
	Redis     RedisConfig
	Market    MarketConfig
	Pricing   PricingConfig
	Fraud     FraudConfig
	Recommend RecommendConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type MarketConfig struct {
	DefaultAverage  float64
	DefaultMedian   float64
	QueryTimeoutSec int
}

type PricingConfig struct {
	ModelPath         string
	CacheTTLSec       int
	BreakerTimeoutSec int
}

type FraudConfig struct {
	ClassificationThreshold float64
	StorageThreshold        float64
	ContentWeight           float64
	PriceWeight             float64
	LandlordWeight          float64
	KeywordPatterns         []string
	PersistMaxAttempts      int
}

type RecommendConfig struct {
	CandidateCap           int
	DefaultLimit           int
	ContentWeight          float64
	ColdStartContentWeight float64
	CacheTTLSec            int
}

type RateLimitConfig struct {
	MaxRequestsPerMinute int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/rentradar")

	viper.SetEnvPrefix("RENTRADAR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 30)
	viper.SetDefault("server.bodyLimit", 1048576)

	viper.SetDefault("sqlite.path", "./data/rentradar.db")

	viper.SetDefault("redis.enabled", true)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("market.defaultAverage", 1200)
	viper.SetDefault("market.defaultMedian", 1150)
	viper.SetDefault("market.queryTimeoutSec", 5)

	viper.SetDefault("pricing.modelPath", "./data/models/price_model.json")
	viper.SetDefault("pricing.cacheTTLSec", 600)
	viper.SetDefault("pricing.breakerTimeoutSec", 30)

	viper.SetDefault("fraud.classificationThreshold", 0.55)
	viper.SetDefault("fraud.storageThreshold", 0.3)
	viper.SetDefault("fraud.contentWeight", 0.40)
	viper.SetDefault("fraud.priceWeight", 0.35)
	viper.SetDefault("fraud.landlordWeight", 0.25)
	viper.SetDefault("fraud.keywordPatterns", []string{})
	viper.SetDefault("fraud.persistMaxAttempts", 3)

	viper.SetDefault("recommend.candidateCap", 500)
	viper.SetDefault("recommend.defaultLimit", 10)
	viper.SetDefault("recommend.contentWeight", 0.6)
	viper.SetDefault("recommend.coldStartContentWeight", 0.9)
	viper.SetDefault("recommend.cacheTTLSec", 300)

	viper.SetDefault("ratelimit.maxRequestsPerMinute", 120)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
