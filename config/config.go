// Ininicializing common application configuration
package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// EnvPrefix namespaces environment overrides, e.g. CARTOON_SERVER_PORT.
	EnvPrefix = "CARTOON"
	// ConfigPathEnv points LoadConfig at another directory holding config.yaml.
	ConfigPathEnv = "CARTOON_CONFIG_PATH"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	App    AppConfig    `mapstructure:"app"`
	Kafka  KafkaConfig  `mapstructure:"kafka"`
	Log    LogConfig    `mapstructure:"log"`
}

type ServerConfig struct {
	AppVersion   string        `mapstructure:"appVersion"`
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Idle_timeout time.Duration `mapstructure:"idle_timeout"`
	Env          string        `mapstructure:"environment"`
	Mode         string        `mapstructure:"mode"`
}

type AppConfig struct {
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
	MaxPixels      int64         `mapstructure:"max_pixels"`
	Parallel       bool          `mapstructure:"parallel"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	TemplatesDir   string        `mapstructure:"templates_dir"`
	// Seed fixes k-means initialisation; 0 draws a fresh seed per run.
	Seed uint64 `mapstructure:"seed"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// LoadConfig reads config.yaml from $CARTOON_CONFIG_PATH (./config by
// default) when present. Defaults and
// CARTOON_* environment variables apply either way.
func LoadConfig() (*viper.Viper, error) {

	viperInstance := viper.New()

	viperInstance.AddConfigPath(GetEnv(ConfigPathEnv, "./config"))
	viperInstance.SetConfigName("config")
	viperInstance.SetConfigType("yaml")

	setDefaults(viperInstance)
	viperInstance.SetEnvPrefix(EnvPrefix)
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperInstance.AutomaticEnv()

	err := viperInstance.ReadInConfig()

	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}
	return viperInstance, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {

	var c Config

	err := v.Unmarshal(&c)
	if err != nil {
		return nil, err
	}
	// env overrides arrive as a single comma separated string
	if len(c.Kafka.Brokers) == 1 && strings.Contains(c.Kafka.Brokers[0], ",") {
		c.Kafka.Brokers = strings.Split(c.Kafka.Brokers[0], ",")
	}
	return &c, nil
}

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.appVersion", "1.0.0")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.timeout", 60*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.mode", "debug")

	v.SetDefault("app.max_upload_bytes", 20<<20)
	v.SetDefault("app.max_pixels", 16_000_000)
	v.SetDefault("app.parallel", true)
	v.SetDefault("app.request_timeout", 45*time.Second)
	v.SetDefault("app.templates_dir", "./web/templates")
	v.SetDefault("app.seed", 0)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9094"})
	v.SetDefault("kafka.topic", "cartoon-conversions")

	v.SetDefault("log.level", "info")
}
