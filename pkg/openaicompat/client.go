package openaicompat

import (
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Config addresses any OpenAI-compatible chat completion endpoint.
type Config struct {
	BaseURL  string        `envconfig:"BASE_URL" split_words:"true" required:"true"`
	APIKey   string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Timeout  time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL  string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName string        `envconfig:"SITE_NAME" split_words:"true"`
}

// NewClient creates an OpenAI SDK client for the configured endpoint.
// Retries are disabled: a failed call is reported to the caller once.
func NewClient(cfg Config, extra ...option.RequestOption) *openaisdk.Client {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil
	}

	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
		option.WithMaxRetries(0),
	}

	if base := normalizeBaseURL(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	// OpenRouter attribution headers, ignored by other providers
	if cfg.SiteURL != "" {
		opts = append(opts, option.WithHeader("HTTP-Referer", cfg.SiteURL))
	}
	if cfg.SiteName != "" {
		opts = append(opts, option.WithHeader("X-Title", cfg.SiteName))
	}

	opts = append(opts, extra...)
	client := openaisdk.NewClient(opts...)
	return &client
}

// normalizeBaseURL keeps exactly one trailing slash so relative endpoint paths resolve under it.
func normalizeBaseURL(raw string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return ""
	}
	return trimmed + "/"
}
