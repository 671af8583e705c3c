package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

const (
	// AnyOrigin - accept websocket upgrades from every origin. Only used when configured explicitly.
	AnyOrigin = "*"
	// DefaultOrigin - the frontend dev server.
	DefaultOrigin = "http://localhost:5173"
)

type Config struct {
	LogLevel      string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info" validate:"oneof=debug info warn error"`
	HTTPPort      string `yaml:"http-port" env:"HTTP_PORT" env-default:"9090" validate:"required,numeric"`
	SocketPort    string `yaml:"socket-port" env:"SOCKET_PORT" env-default:"3000" validate:"required,numeric"`
	AllowedOrigin string `yaml:"allowed-origin" env:"ALLOWED_ORIGIN" env-default:"http://localhost:5173" validate:"required"`
	Redis         Redis  `yaml:"redis"`
}

type Redis struct {
	Enabled bool   `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Host    string `yaml:"host" env:"REDIS_HOST" env-default:"localhost" validate:"required_if=Enabled true"`
	Port    string `yaml:"port" env:"REDIS_PORT" env-default:"6379" validate:"required_if=Enabled true,omitempty,numeric"`
}

var validate = validator.New()

// Load - reads the yml file at path with environment overrides. A missing file means environment only.
func Load(path string) (*Config, error) {
	config := &Config{}

	err := cleanenv.ReadConfig(path, config)
	if errors.Is(err, fs.ErrNotExist) {
		err = cleanenv.ReadEnv(config)
	}

	if err != nil {
		return nil, fmt.Errorf("unable to load config: %w", err)
	}

	if err = validate.Struct(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	return net.JoinHostPort(that.Host, that.Port)
}

func (that *Config) AllowsOrigin(origin string) bool {
	return that.AllowedOrigin == AnyOrigin || that.AllowedOrigin == origin
}

// Source - describes where the configuration was read from.
func Source(path string) string {
	if _, err := os.Stat(path); err != nil {
		return "environment"
	}
	return path
}
