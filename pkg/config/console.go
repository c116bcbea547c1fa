package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// ConsoleConfig configures the heavenctl admin console. It is loaded on its own so
// the CLI does not need any of the server's secrets.
type ConsoleConfig struct {
	BaseURL        string        `envconfig:"HEAVEN_CONSOLE_BASE_URL" default:"http://localhost:8080"`
	Token          string        `envconfig:"HEAVEN_CONSOLE_TOKEN"`
	RequestTimeout time.Duration `envconfig:"HEAVEN_CONSOLE_REQUEST_TIMEOUT" default:"15s"`
	ActionTimeout  time.Duration `envconfig:"HEAVEN_CONSOLE_ACTION_TIMEOUT" default:"45s"`
	PageSize       int           `envconfig:"HEAVEN_CONSOLE_PAGE_SIZE" default:"20"`
	SearchMode     string        `envconfig:"HEAVEN_CONSOLE_SEARCH_MODE" default:"server"`
	LogLevel       string        `envconfig:"HEAVEN_LOG_LEVEL" default:"warn"`
	LogFormat      string        `envconfig:"HEAVEN_CONSOLE_LOG_FORMAT" default:"console"`
}

func LoadConsole() (*ConsoleConfig, error) {
	var cfg ConsoleConfig
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing console config: %w", err)
	}
	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("%s must be positive", EnvConsolePageSize)
	}
	return &cfg, nil
}
