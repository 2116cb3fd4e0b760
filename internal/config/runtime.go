package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Runtime holds process settings that come from the environment rather than
// scoreline.yml. CLI flags override them.
type Runtime struct {
	Addr            string        `env:"SCORELINE_ADDR" envDefault:"127.0.0.1:8080"`
	BasePath        string        `env:"SCORELINE_BASE_PATH" envDefault:"/api"`
	InMemory        bool          `env:"SCORELINE_IN_MEMORY" envDefault:"false"`
	WebhookInterval time.Duration `env:"SCORELINE_WEBHOOK_INTERVAL" envDefault:"2s"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ParseRuntime reads Runtime from the environment.
func ParseRuntime() (Runtime, error) {
	var rt Runtime
	if err := ParseEnv(&rt); err != nil {
		return Runtime{}, err
	}
	if rt.WebhookInterval <= 0 {
		return Runtime{}, fmt.Errorf("SCORELINE_WEBHOOK_INTERVAL must be positive")
	}
	return rt, nil
}
