package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// App holds application configuration.
type App struct {
	Name     string `mapstructure:"name"`
	Env      string `mapstructure:"env"`
	Version  string `mapstructure:"version"`
	TimeZone string `mapstructure:"time_zone"`
}

// Logger holds logger configuration.
type Logger struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

// Redis holds Redis configuration.
type Redis struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// Addr returns host:port for the Redis client.
func (r Redis) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Telegram holds configuration for the Telegram notifier.
type Telegram struct {
	BotToken    string        `mapstructure:"bot_token"`
	ChatID      string        `mapstructure:"chat_id"`
	APIEndpoint string        `mapstructure:"api_endpoint"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// CommonDefaults are shared by every service config.
var CommonDefaults = map[string]interface{}{
	"app.env":            "production",
	"app.time_zone":      "Asia/Kolkata",
	"logger.level":       "info",
	"logger.encoding":    "json",
	"redis.host":         "localhost",
	"redis.port":         6379,
	"redis.password":     "",
	"redis.db":           0,
	"redis.pool_size":    4,
	"telegram.bot_token": "",
	"telegram.chat_id":   "",
	"telegram.timeout":   "30s",
	// An empty endpoint selects the public Bot API.
	"telegram.api_endpoint": "",
}

// Load reads a YAML file into config. Every key registered in defaults (or present in the
// file) can be overridden from the environment, with "." replaced by "_" and upper-cased:
// telegram.bot_token -> TELEGRAM_BOT_TOKEN. A missing file is not an error so deployments
// can run from the environment alone.
func Load(path string, config interface{}, defaults ...map[string]interface{}) error {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, set := range append([]map[string]interface{}{CommonDefaults}, defaults...) {
		for key, value := range set {
			v.SetDefault(key, value)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("failed to read config file %s: %w", path, err)
			}
		}
	}

	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	return nil
}
