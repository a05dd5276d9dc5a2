// internal/config/config.go
package config

import (
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Order    OrderConfig
	Cache    CacheConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// OrderConfig holds the reorder-engine tunables.
type OrderConfig struct {
	SafetyStockFactor      float64
	LearningRate           float64
	HighValueThreshold     float64
	SafeVarianceCeiling    float64
	AdjustmentWindowMonths int
	InsertBatchSize        int
	SuggestionWorkers      int
	ExportDir              string
}

type CacheConfig struct {
	Enabled              bool
	RedisURL             string
	RedisHost            string
	RedisPort            string
	RedisPassword        string
	RedisDB              int
	StatisticsTTLSeconds int
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 15)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 15)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "reorder")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("ORDER_SAFETY_STOCK_FACTOR", 1.5)
		viper.SetDefault("ORDER_LEARNING_RATE", 0.7)
		viper.SetDefault("ORDER_HIGH_VALUE_THRESHOLD", 50.0)
		viper.SetDefault("ORDER_SAFE_VARIANCE_CEILING", 0.3)
		viper.SetDefault("ORDER_ADJUSTMENT_WINDOW_MONTHS", 3)
		viper.SetDefault("ORDER_INSERT_BATCH_SIZE", 100)
		viper.SetDefault("ORDER_SUGGESTION_WORKERS", 1)
		viper.SetDefault("ORDER_EXPORT_DIR", "./data/exports")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_STATISTICS_TTL_SECONDS", 60)

		viper.AutomaticEnv()

		ensureDir(viper.GetString("ORDER_EXPORT_DIR"))

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			Order: OrderConfig{
				SafetyStockFactor:      viper.GetFloat64("ORDER_SAFETY_STOCK_FACTOR"),
				LearningRate:           viper.GetFloat64("ORDER_LEARNING_RATE"),
				HighValueThreshold:     viper.GetFloat64("ORDER_HIGH_VALUE_THRESHOLD"),
				SafeVarianceCeiling:    viper.GetFloat64("ORDER_SAFE_VARIANCE_CEILING"),
				AdjustmentWindowMonths: viper.GetInt("ORDER_ADJUSTMENT_WINDOW_MONTHS"),
				InsertBatchSize:        viper.GetInt("ORDER_INSERT_BATCH_SIZE"),
				SuggestionWorkers:      viper.GetInt("ORDER_SUGGESTION_WORKERS"),
				ExportDir:              viper.GetString("ORDER_EXPORT_DIR"),
			},
			Cache: CacheConfig{
				Enabled:              viper.GetBool("CACHE_ENABLED"),
				RedisURL:             viper.GetString("REDIS_URL"),
				RedisHost:            viper.GetString("REDIS_HOST"),
				RedisPort:            viper.GetString("REDIS_PORT"),
				RedisPassword:        viper.GetString("REDIS_PASSWORD"),
				RedisDB:              viper.GetInt("REDIS_DB"),
				StatisticsTTLSeconds: viper.GetInt("CACHE_STATISTICS_TTL_SECONDS"),
			},
		}
	})

	return instance
}

func ensureDir(dir string) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
