// config/config.go
package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Configuration stores all the configurations
type Configuration struct {
	Neo4j         DatabaseConfiguration
	Redis         RedisConfiguration
	Elasticsearch ElasticsearchConfiguration
	Sync          SyncConfiguration
	Access        AccessConfiguration
}

// DatabaseConfiguration stores data for database connection
type DatabaseConfiguration struct {
	URI      string
	Username string
	Password string
}

// RedisConfiguration stores data for Redis connection
type RedisConfiguration struct {
	Addr     string
	Password string
	DB       int
}

// ElasticsearchConfiguration stores data for Elasticsearch connection
type ElasticsearchConfiguration struct {
	URL string
}

// SyncConfiguration stores lease and heartbeat tunables
type SyncConfiguration struct {
	PresenceTTL       time.Duration
	CursorTTL         time.Duration
	LockTTL           time.Duration
	ConflictRetention time.Duration
	HeartbeatInterval time.Duration
}

// AccessConfiguration stores access-control tunables
type AccessConfiguration struct {
	DecisionCacheTTL time.Duration
	AuditRetention   int
}

var config *Configuration

func InitConfig() error {
	viper.AddConfigPath("config")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()

	viper.SetDefault("neo4j.uri", "bolt://localhost:7687")
	viper.SetDefault("neo4j.username", "neo4j")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.dialTimeout", "5s")
	viper.SetDefault("redis.readTimeout", "3s")
	viper.SetDefault("redis.writeTimeout", "3s")
	viper.SetDefault("redis.poolSize", 10)
	viper.SetDefault("elasticsearch.url", "http://localhost:9200")

	viper.SetDefault("sync.presenceTTL", "300s")
	viper.SetDefault("sync.cursorTTL", "30s")
	viper.SetDefault("sync.lockTTL", "300s")
	viper.SetDefault("sync.conflictRetention", "24h")
	viper.SetDefault("sync.heartbeatInterval", "60s")

	viper.SetDefault("access.decisionCacheTTL", "300s")
	viper.SetDefault("access.auditRetention", 10000)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found. Using default settings and environment variables.")
		} else {
			return err
		}
	}

	if err := viper.Unmarshal(&config); err != nil {
		return err
	}

	return nil
}

// GetConfig returns the loaded configuration
func GetConfig() *Configuration {
	return config
}

// GetString retrieves a string value from the configuration
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt retrieves an integer value from the configuration
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetDuration retrieves a duration value from the configuration
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}
