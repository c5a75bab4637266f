package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	openaisdk "github.com/openai/openai-go"
	contractx "github.com/tanpawarit/chative-lead-qualifier/agent/contract"
)

// Completer performs one system+user chat completion and returns the first candidate's text.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

type chatCompleter struct {
	client      *openaisdk.Client
	model       string
	maxTokens   int64
	temperature float64
}

func newChatCompleter(client *openaisdk.Client, cfg Config) *chatCompleter {
	return &chatCompleter{
		client:      client,
		model:       strings.TrimSpace(cfg.Model),
		maxTokens:   int64(cfg.MaxTokens),
		temperature: cfg.Temperature,
	}
}

func (c *chatCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	if c == nil || c.client == nil {
		return "", fmt.Errorf("%w: client is not configured", contractx.ErrModelInvoke)
	}

	resp, err := c.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(c.model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(system),
			openaisdk.UserMessage(user),
		},
		MaxTokens:   openaisdk.Int(c.maxTokens),
		Temperature: openaisdk.Float(c.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", contractx.ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

// modelCompleter runs the exchange through an eino chat model.
type modelCompleter struct {
	model model.BaseChatModel
}

func newModelCompleter(m model.BaseChatModel) *modelCompleter {
	return &modelCompleter{model: m}
}

func (c *modelCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	if c == nil || c.model == nil {
		return "", fmt.Errorf("%w: chat model is not configured", contractx.ErrModelInvoke)
	}

	msg, err := c.model.Generate(ctx, []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(user),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", contractx.ErrEmptyCompletion
	}
	return msg.Content, nil
}
