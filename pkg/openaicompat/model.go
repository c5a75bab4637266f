package openaicompat

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	openaimodel "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
)

type LLMBuilder interface {
	New(ctx context.Context) (model.ToolCallingChatModel, error)
}

var _ LLMBuilder = ModelConfig{}

// ModelConfig addresses one model on the endpoint described by Config.
type ModelConfig struct {
	Config
	Model       string
	MaxTokens   int
	Temperature float32
}

func (c ModelConfig) New(ctx context.Context) (model.ToolCallingChatModel, error) {
	apiKey := strings.TrimSpace(c.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("openaicompat: api key is required")
	}

	maxTokens := c.MaxTokens
	temperature := c.Temperature
	conf := &openaimodel.ChatModelConfig{
		BaseURL:     strings.TrimRight(strings.TrimSpace(c.BaseURL), "/"),
		APIKey:      apiKey,
		Model:       strings.TrimSpace(c.Model),
		Temperature: &temperature,
		Timeout:     c.Timeout,
		HTTPClient:  c.httpClient(),
	}
	if maxTokens > 0 {
		conf.MaxTokens = &maxTokens
	}

	m, err := openaimodel.NewChatModel(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("openaicompat: create chat model: %w", err)
	}
	return m, nil
}

func (c ModelConfig) httpClient() *http.Client {
	headers := make(map[string]string, 2)
	if c.SiteURL != "" {
		headers["HTTP-Referer"] = c.SiteURL
	}
	if c.SiteName != "" {
		headers["X-Title"] = c.SiteName
	}

	var transport http.RoundTripper = http.DefaultTransport
	if len(headers) > 0 {
		transport = headerTransport{base: transport, headers: headers}
	}
	return &http.Client{Timeout: c.Timeout, Transport: transport}
}

type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t headerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	for k, v := range t.headers {
		r.Header.Set(k, v)
	}
	return t.base.RoundTrip(r)
}
