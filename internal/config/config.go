package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Cache     CacheConfig
	Inventory InventoryConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type CacheConfig struct {
	Capacity        int
	TTL             time.Duration
	RefreshInterval time.Duration
}

type InventoryConfig struct {
	ReserveTimeout time.Duration
	UpdateRetries  int
	DedupWindow    time.Duration
	BuyRateLimit   int // requests per client per window on the buy endpoint
	BuyRateWindow  time.Duration
}

func Load() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("CACHE_CAPACITY", 1024)
	viper.SetDefault("CACHE_TTL_SECONDS", 60)
	viper.SetDefault("CACHE_REFRESH_SECONDS", 30)
	viper.SetDefault("INVENTORY_RESERVE_TIMEOUT_MS", 5000)
	viper.SetDefault("INVENTORY_UPDATE_RETRIES", 5)
	viper.SetDefault("INVENTORY_DEDUP_WINDOW_SECONDS", 300)
	viper.SetDefault("BUY_RATE_LIMIT", 30)
	viper.SetDefault("BUY_RATE_WINDOW_SECONDS", 60)

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
			Env:  viper.GetString("SERVER_ENV"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Database: viper.GetString("DB_DATABASE"),
			Schema:   viper.GetString("DB_SCHEMA"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Cache: CacheConfig{
			Capacity:        viper.GetInt("CACHE_CAPACITY"),
			TTL:             time.Duration(viper.GetInt("CACHE_TTL_SECONDS")) * time.Second,
			RefreshInterval: time.Duration(viper.GetInt("CACHE_REFRESH_SECONDS")) * time.Second,
		},
		Inventory: InventoryConfig{
			ReserveTimeout: time.Duration(viper.GetInt("INVENTORY_RESERVE_TIMEOUT_MS")) * time.Millisecond,
			UpdateRetries:  viper.GetInt("INVENTORY_UPDATE_RETRIES"),
			DedupWindow:    time.Duration(viper.GetInt("INVENTORY_DEDUP_WINDOW_SECONDS")) * time.Second,
			BuyRateLimit:   viper.GetInt("BUY_RATE_LIMIT"),
			BuyRateWindow:  time.Duration(viper.GetInt("BUY_RATE_WINDOW_SECONDS")) * time.Second,
		},
	}
}
