package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	HTTPAddr      string        `yaml:"http_addr" env:"GOMOKU_HTTP_ADDR" env-default:":8080" json:"http_addr"`
	LogLevel      string        `yaml:"log_level" env:"GOMOKU_LOG_LEVEL" env-default:"info" json:"log_level"`
	LogFormat     string        `yaml:"log_format" env:"GOMOKU_LOG_FORMAT" env-default:"console" json:"log_format"`
	BoardSize     int           `yaml:"board_size" env:"GOMOKU_BOARD_SIZE" env-default:"20" json:"board_size"`
	AiDepth       int           `yaml:"ai_depth" env:"GOMOKU_AI_DEPTH" env-default:"3" json:"ai_depth"`
	TurnTimeLimit time.Duration `yaml:"turn_time_limit" env:"GOMOKU_TURN_TIME_LIMIT" env-default:"5s" json:"turn_time_limit"`
	TickInterval  time.Duration `yaml:"tick_interval" env:"GOMOKU_TICK_INTERVAL" env-default:"50ms" json:"tick_interval"`
	Player1Name   string        `yaml:"player1_name" env:"GOMOKU_PLAYER1_NAME" env-default:"Player 1" json:"player1_name"`
	Player2Name   string        `yaml:"player2_name" env:"GOMOKU_PLAYER2_NAME" env-default:"Computer" json:"player2_name"`
	Player1AI     bool          `yaml:"player1_ai" env:"GOMOKU_PLAYER1_AI" env-default:"false" json:"player1_ai"`
	Player2AI     bool          `yaml:"player2_ai" env:"GOMOKU_PLAYER2_AI" env-default:"true" json:"player2_ai"`
}

type ConfigStore struct {
	mu     sync.RWMutex
	config Config
}

var errInvalidConfig = errors.New("invalid config")

func DefaultConfig() Config {
	return Config{
		HTTPAddr:      ":8080",
		LogLevel:      "info",
		LogFormat:     "console",
		BoardSize:     20,
		AiDepth:       3,
		TurnTimeLimit: 5 * time.Second,
		TickInterval:  50 * time.Millisecond,
		Player1Name:   "Player 1",
		Player2Name:   "Computer",
		Player1AI:     false,
		Player2AI:     true,
	}
}

// LoadConfig reads path when it exists and falls back to the environment
// otherwise. Defaults come from the env-default tags.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, &cfg); err != nil {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
			return cfg, cfg.Validate()
		} else if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("stat config %s: %w", path, err)
		}
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read config from env: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.BoardSize < minPlayableBoardSize {
		return fmt.Errorf("%w: board_size %d is below %d", errInvalidConfig, c.BoardSize, minPlayableBoardSize)
	}
	if c.AiDepth < 1 {
		return fmt.Errorf("%w: ai_depth %d is below 1", errInvalidConfig, c.AiDepth)
	}
	if c.TurnTimeLimit < 0 {
		return fmt.Errorf("%w: turn_time_limit must not be negative", errInvalidConfig)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("%w: tick_interval must be positive", errInvalidConfig)
	}
	return nil
}

var configStore = &ConfigStore{config: DefaultConfig()}

func GetConfig() Config {
	return configStore.Get()
}

func (c *ConfigStore) Get() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

func (c *ConfigStore) Update(newConfig Config) {
	c.mu.Lock()
	c.config = newConfig
	c.mu.Unlock()
}
