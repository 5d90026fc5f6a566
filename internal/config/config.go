package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type TurnConfig struct {
	Secret string `mapstructure:"secret"`
	Realm  string `mapstructure:"realm"`
	Host   string `mapstructure:"host"`
	TTL    int    `mapstructure:"ttl"`
}

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	PublicURL  string        `mapstructure:"public_url"`
	Turn       TurnConfig    `mapstructure:"turn"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("public_url", "http://localhost:8080")
	v.SetDefault("turn.realm", "signalhub")
	v.SetDefault("turn.host", "localhost")
	v.SetDefault("turn.ttl", 86400)

	// Deployment material comes from the environment.
	_ = v.BindEnv("port", "PORT")
	_ = v.BindEnv("public_url", "PUBLIC_URL")
	_ = v.BindEnv("turn.secret", "TURN_SECRET")
	_ = v.BindEnv("turn.realm", "TURN_REALM")
	_ = v.BindEnv("turn.host", "TURN_HOST")
	_ = v.BindEnv("turn.ttl", "TURN_TTL")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | Realm: %s\n", cfg.Mode, cfg.Port, cfg.Turn.Realm)
	return &cfg, nil
}
