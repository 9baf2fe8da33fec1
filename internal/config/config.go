package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	RabbitMQ       RabbitMQConfig       `mapstructure:"rabbitmq"`
	Postgres       PostgresConfig       `mapstructure:"postgres"`
	ClickHouse     ClickHouseConfig     `mapstructure:"clickhouse"`
	Qdrant         QdrantConfig         `mapstructure:"qdrant"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Embedding      EmbeddingConfig      `mapstructure:"embedding"`
	Recommendation RecommendationConfig `mapstructure:"recommendation"`
}

type ServerConfig struct {
	Mode           string `mapstructure:"mode"`
	MonitoringPort string `mapstructure:"monitoring_port"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type RabbitMQConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	// Prefetch bounds how many unacknowledged messages a channel may
	// hold; it is the global request-concurrency cap.
	Prefetch int `mapstructure:"prefetch"`
}

type PostgresConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConnections int           `mapstructure:"max_connections"`
	MaxIdleTime    time.Duration `mapstructure:"max_idle_time"`
	MaxLifetime    time.Duration `mapstructure:"max_lifetime"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type ClickHouseConfig struct {
	Addr     string `mapstructure:"addr"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type QdrantConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type RedisConfig struct {
	Addr       string        `mapstructure:"addr"`
	MaxRetries int           `mapstructure:"max_retries"`
	PoolSize   int           `mapstructure:"pool_size"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type EmbeddingConfig struct {
	URL        string        `mapstructure:"url"`
	Dimensions int           `mapstructure:"dimensions"`
	Timeout    time.Duration `mapstructure:"timeout"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`
}

type RecommendationConfig struct {
	Limit               int           `mapstructure:"limit"`
	MinByGroup          int           `mapstructure:"min_by_group"`
	ExplicitCoefficient int           `mapstructure:"explicit_coefficient"`
	MaxInteractions     int           `mapstructure:"max_interactions"`
	InteractionWindow   time.Duration `mapstructure:"interaction_window"`
	RecommendWindow     time.Duration `mapstructure:"recommend_window"`
	DecayRate           float64       `mapstructure:"decay_rate"`
	JitterAmplitude     float64       `mapstructure:"jitter_amplitude"`
	GeneratorTimeout    time.Duration `mapstructure:"generator_timeout"`
}

func Load() (*Config, error) {
	viper.SetConfigName("app")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional, continue with env vars and defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.mode", "development")
	viper.SetDefault("server.monitoring_port", "9090")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")

	viper.SetDefault("rabbitmq.host", "localhost")
	viper.SetDefault("rabbitmq.port", 5672)
	viper.SetDefault("rabbitmq.prefetch", 10)

	viper.SetDefault("postgres.max_connections", 25)
	viper.SetDefault("postgres.max_idle_time", "15m")
	viper.SetDefault("postgres.max_lifetime", "1h")
	viper.SetDefault("postgres.connect_timeout", "10s")

	viper.SetDefault("clickhouse.addr", "localhost:9000")
	viper.SetDefault("clickhouse.database", "default")

	viper.SetDefault("qdrant.host", "localhost")
	viper.SetDefault("qdrant.port", 6334)

	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.max_retries", 3)
	viper.SetDefault("redis.pool_size", 10)
	viper.SetDefault("redis.timeout", "5s")

	viper.SetDefault("embedding.url", "http://localhost:8081/embed")
	viper.SetDefault("embedding.dimensions", 384)
	viper.SetDefault("embedding.timeout", "10s")
	viper.SetDefault("embedding.cache_ttl", "24h")

	viper.SetDefault("recommendation.limit", 10)
	viper.SetDefault("recommendation.min_by_group", 2)
	viper.SetDefault("recommendation.explicit_coefficient", 5)
	viper.SetDefault("recommendation.max_interactions", 100)
	viper.SetDefault("recommendation.interaction_window", "168h")
	viper.SetDefault("recommendation.recommend_window", "4320h")
	viper.SetDefault("recommendation.decay_rate", 0.002)
	viper.SetDefault("recommendation.jitter_amplitude", 0.03)
	viper.SetDefault("recommendation.generator_timeout", "5s")
}
