package app

import (
	"fmt"
	"os"

	"github.com/apex/log"
	"github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"

	"modelarena/internal/gateway/config"
)

// NewLogger builds the process logger and installs it as the apex default.
func NewLogger(cfg config.LogConfig) (*log.Logger, error) {
	level := log.InfoLevel
	if cfg.Level != "" {
		l, err := log.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.Level, err)
		}
		level = l
	}

	var h log.Handler
	switch cfg.Format {
	case "", "text":
		h = text.New(os.Stderr)
	case "json":
		h = json.New(os.Stderr)
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT %q: want text or json", cfg.Format)
	}

	log.SetHandler(h)
	log.SetLevel(level)
	return &log.Logger{Handler: h, Level: level}, nil
}
