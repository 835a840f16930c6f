package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Search   SearchConfig   `mapstructure:"search"`
	Indexing IndexingConfig `mapstructure:"indexing"`
	Rebuild  RebuildConfig  `mapstructure:"rebuild"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

type ServerConfig struct {
	Port            int    `mapstructure:"port"`
	Host            string `mapstructure:"host"`
	ReadTimeout     int    `mapstructure:"read_timeout"`
	WriteTimeout    int    `mapstructure:"write_timeout"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Name         string `mapstructure:"name"`
	SSLMode      string `mapstructure:"ssl_mode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Brokers       []string `mapstructure:"brokers"`
	Topic         string   `mapstructure:"topic"`
	ConsumerGroup string   `mapstructure:"consumer_group"`
}

// SearchConfig holds the credentials and destination for the search
// engine. An empty AppID or APIKey disables all outbound indexing.
type SearchConfig struct {
	AppID          string   `mapstructure:"app_id"`
	APIKey         string   `mapstructure:"api_key"`
	Hosts          []string `mapstructure:"hosts"`
	Index          string   `mapstructure:"index"`
	RequestsPerSec int      `mapstructure:"requests_per_sec"`
}

// Configured reports whether search credentials are present.
func (c SearchConfig) Configured() bool {
	return c.AppID != "" && c.APIKey != ""
}

// IndexingConfig selects what gets indexed and how the index is ranked.
type IndexingConfig struct {
	Types            []string `mapstructure:"types"`
	SearchableFields []string `mapstructure:"searchable_fields"`
	Facets           []string `mapstructure:"facets"`
	CustomRanking    []string `mapstructure:"custom_ranking"`
}

type RebuildConfig struct {
	// Schedule is a cron expression for periodic atomic rebuilds.
	// Empty disables scheduled rebuilds.
	Schedule string `mapstructure:"schedule"`
}

type LoggerConfig struct {
	Level     string `mapstructure:"level"`
	Format    string `mapstructure:"format"`
	Output    string `mapstructure:"output"`
	AddCaller bool   `mapstructure:"add_caller"`
}

func Load(name string) (*Config, error) {
	viper.SetConfigName(name)
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("/etc/searchsync")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.SetEnvPrefix("SEARCHSYNC")

	if err := viper.ReadInConfig(); err != nil {
		// Defaults plus env vars are enough; only a malformed file is fatal.
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
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", 30)
	viper.SetDefault("server.write_timeout", 30)
	viper.SetDefault("server.shutdown_timeout", 30)

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "searchsync")
	viper.SetDefault("database.name", "cms")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.max_open_conns", 10)
	viper.SetDefault("database.max_idle_conns", 5)

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("kafka.brokers", []string{"localhost:9092"})
	viper.SetDefault("kafka.topic", "content.lifecycle")
	viper.SetDefault("kafka.consumer_group", "searchsync")

	viper.SetDefault("search.hosts", []string{"http://localhost:7700"})
	viper.SetDefault("search.index", "content")
	viper.SetDefault("search.requests_per_sec", 20)

	viper.SetDefault("indexing.types", []string{"post", "page"})
	viper.SetDefault("indexing.searchable_fields", []string{"title", "content", "excerpt", "author"})
	viper.SetDefault("indexing.facets", []string{"type_label", "author.name"})
	viper.SetDefault("indexing.custom_ranking", []string{"desc(created_at)"})

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "json")
	viper.SetDefault("logger.output", "stdout")
	viper.SetDefault("logger.add_caller", true)
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
