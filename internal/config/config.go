package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"

	"bennystab/internal/game"
)

// Config 是伺服器程序的設定；環境變數先載入，命令列參數再覆寫
type Config struct {
	Addr            string        `env:"ADDR" envDefault:":8080"`
	WebDir          string        `env:"WEB_DIR" envDefault:"web"`
	DataDir         string        `env:"DATA_DIR" envDefault:"data"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	SessionTTL      time.Duration `env:"SESSION_TTL" envDefault:"168h"`
	CleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"1h"`

	Rules game.Rules `envPrefix:"GAME_"`
}

// ParseEnv 從環境變數載入設定
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load 解析環境變數與命令列參數
func Load(args []string) (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP 服務監聽位址")
	fs.StringVar(&cfg.WebDir, "web", cfg.WebDir, "前端靜態資源目錄")
	fs.StringVar(&cfg.DataDir, "data", cfg.DataDir, "資料存放目錄")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "日誌等級")
	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("parse flags: %w", err)
	}

	if err := cfg.Rules.Validate(); err != nil {
		return Config{}, err
	}
	if _, err := cfg.Level(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Level 解析日誌等級
func (c Config) Level() (zerolog.Level, error) {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}
