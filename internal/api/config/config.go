package config

// Config 配置主体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	DB       DBConfig       `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Logstash LogstashConfig `mapstructure:"logstash"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Slack    SlackConfig    `mapstructure:"slack"`
	Tracker  TrackerConfig  `mapstructure:"tracker"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
}

// ServerConfig Server配置
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// DBConfig 数据库配置
type DBConfig struct {
	Driver      string `mapstructure:"driver"`
	DSN         string `mapstructure:"dsn"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxLifetime int    `mapstructure:"max_lifetime"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type LogstashConfig struct {
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
	Token   string `mapstructure:"token"`
}

// UpstreamConfig 社交图谱 API 配置
type UpstreamConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	ApiKey   string `mapstructure:"api_key"`
	Timeout  int    `mapstructure:"timeout"`
	PageSize int    `mapstructure:"page_size"`
}

// SlackConfig Slack Webhook 配置
type SlackConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
	Timeout    int    `mapstructure:"timeout"`
}

// TrackerConfig 轮询调度配置
type TrackerConfig struct {
	Interval       string   `mapstructure:"interval"`
	AccountPause   int      `mapstructure:"account_pause"`
	FullPagination bool     `mapstructure:"full_pagination"`
	DefaultHandles []string `mapstructure:"default_handles"`
	LockTTL        int      `mapstructure:"lock_ttl"`
	StopTimeout    int      `mapstructure:"stop_timeout"`
}

type KafkaConfig struct {
	Enable     bool       `mapstructure:"enable"`
	Brokers    []string   `mapstructure:"brokers"`
	Sasl       SaslConfig `mapstructure:"sasl"`
	DeltaTopic string     `mapstructure:"delta_topic"`
}

type SaslConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}
