package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/chative-lead-qualifier/agent/contract"
	openaicompatx "github.com/tanpawarit/chative-lead-qualifier/pkg/openaicompat"
)

const (
	ClientEino   = "eino"
	ClientOpenAI = "openai"
)

type Config struct {
	Client       string        `envconfig:"CLIENT" default:"eino"`
	BaseURL      string        `envconfig:"BASE_URL" split_words:"true" required:"true"`
	APIKey       string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model        string        `envconfig:"MODEL" split_words:"true" default:"gpt-3.5-turbo"`
	MaxTokens    int           `envconfig:"MAX_TOKENS" split_words:"true" default:"500"`
	Temperature  float64       `envconfig:"TEMPERATURE" split_words:"true" default:"0.7"`
	Timeout      time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL      string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName     string        `envconfig:"SITE_NAME" split_words:"true"`
	FallbackText string        `envconfig:"FALLBACK_TEXT" split_words:"true"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("%w: llm base url is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: llm api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: llm model is required", contractx.ErrValidation)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("%w: llm max tokens must be positive, got %d", contractx.ErrValidation, c.MaxTokens)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: llm temperature %.2f out of range [0,2]", contractx.ErrValidation, c.Temperature)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: llm timeout must be positive, got %s", contractx.ErrValidation, c.Timeout)
	}
	switch c.clientKind() {
	case ClientEino, ClientOpenAI:
	default:
		return fmt.Errorf("%w: unknown llm client %q", contractx.ErrValidation, c.Client)
	}
	return nil
}

// clientKind defaults to the eino chat model when unset.
func (c Config) clientKind() string {
	kind := strings.ToLower(strings.TrimSpace(c.Client))
	if kind == "" {
		return ClientEino
	}
	return kind
}

// ClientConfig is the transport-level subset handed to the SDK client.
func (c Config) ClientConfig() openaicompatx.Config {
	return openaicompatx.Config{
		BaseURL:  strings.TrimSpace(c.BaseURL),
		APIKey:   strings.TrimSpace(c.APIKey),
		Timeout:  c.Timeout,
		SiteURL:  strings.TrimSpace(c.SiteURL),
		SiteName: strings.TrimSpace(c.SiteName),
	}
}

// ModelConfig is the eino chat model view of the same endpoint.
func (c Config) ModelConfig() openaicompatx.ModelConfig {
	return openaicompatx.ModelConfig{
		Config:      c.ClientConfig(),
		Model:       strings.TrimSpace(c.Model),
		MaxTokens:   c.MaxTokens,
		Temperature: float32(c.Temperature),
	}
}
