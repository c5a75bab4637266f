package leads

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/chative-lead-qualifier/agent/contract"
)

const (
	BackendCSV      = "csv"
	BackendPostgres = "postgres"

	DefaultTimeout = 5 * time.Second
)

type Config struct {
	Backend     string        `envconfig:"BACKEND" default:"csv"`
	File        string        `envconfig:"FILE" default:"leads.csv"`
	PostgresDSN string        `envconfig:"POSTGRES_DSN" split_words:"true"`
	Source      string        `envconfig:"SOURCE" default:"telegram"`
	Timeout     time.Duration `envconfig:"TIMEOUT" default:"5s"`
}

func (c Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Backend)) {
	case BackendCSV:
		if strings.TrimSpace(c.File) == "" {
			return fmt.Errorf("%w: leads file is required for csv backend", contractx.ErrValidation)
		}
	case BackendPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return fmt.Errorf("%w: leads postgres dsn is required for postgres backend", contractx.ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown leads backend %q", contractx.ErrValidation, c.Backend)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: leads timeout must be positive, got %s", contractx.ErrValidation, c.Timeout)
	}
	return nil
}
