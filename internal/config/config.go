package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel   string        `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort   string        `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort string        `yaml:"socket-port" env:"SOCKET_PORT" env-default:"8080"`
	Redis      Redis         `yaml:"redis"`
	GameTTL    time.Duration `yaml:"game-ttl" env:"GAME_TTL" env-default:"24h"`
	PlayerTTL  time.Duration `yaml:"player-ttl" env:"PLAYER_TTL" env-default:"720h"`
	Search     Search        `yaml:"search"`
}

type Redis struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type Search struct {
	Parallel   bool          `yaml:"parallel" env:"SEARCH_PARALLEL" env-default:"false"`
	NodeBudget int64         `yaml:"node-budget" env:"SEARCH_NODE_BUDGET" env-default:"0"`
	Timeout    time.Duration `yaml:"timeout" env:"SEARCH_TIMEOUT" env-default:"2s"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

// Load reads the YAML file at path and applies environment overrides.
func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	return config, nil
}

func (that *Redis) GetRedisAddr() string {
	if that.Host == "" {
		return ""
	}

	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
