package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	SQLite   SQLiteConfig
	Redis    RedisConfig
	Source   SourceConfig
	Pipeline PipelineConfig
	Insights InsightsConfig
	Logging  LoggingConfig
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
	TTLSec   int
}

type SourceConfig struct {
	Country      string
	TimeoutSec   int
	RetryCount   int
	RetryBackoff time.Duration
}

type PipelineConfig struct {
	FetchLimit         int
	SentimentThreshold float64
	Workers            int
}

type InsightsConfig struct {
	KeywordTopK   int
	FontPath      string
	CloudWidth    int
	CloudHeight   int
	CloudMaxWords int
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
	viper.AddConfigPath("/etc/nebula")

	viper.SetEnvPrefix("NEBULA")
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
	viper.SetDefault("server.port", 8001)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 120)
	viper.SetDefault("server.bodyLimit", 1048576)

	viper.SetDefault("sqlite.path", "./data/reviews.db")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.ttlSec", 600)

	viper.SetDefault("source.country", "us")
	viper.SetDefault("source.timeoutSec", 10)
	viper.SetDefault("source.retryCount", 3)
	viper.SetDefault("source.retryBackoff", 500*time.Millisecond)

	viper.SetDefault("pipeline.fetchLimit", 100)
	viper.SetDefault("pipeline.sentimentThreshold", 0.0)
	viper.SetDefault("pipeline.workers", 4)

	viper.SetDefault("insights.keywordTopK", 10)
	viper.SetDefault("insights.fontPath", "./assets/fonts/Roboto-Regular.ttf")
	viper.SetDefault("insights.cloudWidth", 1024)
	viper.SetDefault("insights.cloudHeight", 768)
	viper.SetDefault("insights.cloudMaxWords", 50)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
