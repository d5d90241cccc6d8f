package config

import (
	"os"

	"github.com/go-yaml/yaml"
)

type Config struct {
	Server Server `yaml:"server"`
}

type Server struct {
	ListenAddr    string `yaml:"listenAddr"`
	PostgresDsn   string `yaml:"postgresDsn"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDB"`
	MemcachedAddr string `yaml:"memcachedAddr"`
	JwtSecret     string `yaml:"jwtSecret"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`

	// StatsIntervalSeconds is the period of the staff live-stat snapshot.
	StatsIntervalSeconds int `yaml:"statsIntervalSeconds"`
	// ChatReplayLimit bounds the chat history replay on room join.
	ChatReplayLimit int `yaml:"chatReplayLimit"`
}

func Load(path string) (Config, error) {

	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, err
	}

	if config.Server.ListenAddr == "" {
		config.Server.ListenAddr = ":8000"
	}
	if config.Server.StatsIntervalSeconds <= 0 {
		config.Server.StatsIntervalSeconds = 30
	}
	if config.Server.ChatReplayLimit <= 0 {
		config.Server.ChatReplayLimit = 50
	}

	return config, nil
}
