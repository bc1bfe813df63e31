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

	// PARLEY_DATABASE_DSN 覆盖 database.dsn
	v.SetEnvPrefix("parley")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	Cfg = &cfg

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "parley.db")
	v.SetDefault("database.max_idle", 2)
	v.SetDefault("database.max_open", 4)
	v.SetDefault("database.max_lifetime", 60)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("realtime.driver", "local")
	v.SetDefault("realtime.channel", "parley:realtime")
	v.SetDefault("postgres.channel", "parley_changes")
	v.SetDefault("mongo.collection", "messages")
	v.SetDefault("store.driver", "gorm")
	v.SetDefault("store.messages", "sql")
	v.SetDefault("presence.spec", "@every 30s")
	v.SetDefault("postgrest.timeout", 10)
	v.SetDefault("minio.presign_expire", 3600)
	v.SetDefault("profile_cache.ttl", 60)
	v.SetDefault("jwt.issuer", "Parley")
}
