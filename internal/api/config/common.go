package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Cfg 全局可访问的配置实例
var Cfg *Config

// LoadConfig 从文件加载配置并填充到 Cfg
func LoadConfig() error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")

	cfg, err := load(v)
	if err != nil {
		return err
	}
	Cfg = cfg

	return nil
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	// 环境变量覆盖，如 SLACK_WEBHOOK_URL / UPSTREAM_API_KEY
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("upstream.api_key", "UPSTREAM_API_KEY", "TWITTER_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "following_tracker.db")
	v.SetDefault("database.max_idle", 2)
	v.SetDefault("database.max_open", 4)
	v.SetDefault("database.max_lifetime", 30)

	v.SetDefault("upstream.base_url", "https://api.apidance.pro")
	v.SetDefault("upstream.timeout", 15)
	v.SetDefault("upstream.page_size", 200)

	v.SetDefault("slack.webhook_url", "")
	v.SetDefault("slack.timeout", 10)

	v.SetDefault("tracker.interval", "24h")
	v.SetDefault("tracker.account_pause", 1000)
	v.SetDefault("tracker.full_pagination", false)
	v.SetDefault("tracker.default_handles", []string{})
	v.SetDefault("tracker.lock_ttl", 120)
	v.SetDefault("tracker.stop_timeout", 30)

	v.SetDefault("kafka.enable", false)
	v.SetDefault("kafka.delta_topic", "following-deltas")
}
