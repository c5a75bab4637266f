package telegram

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Config struct {
	BotToken    string        `envconfig:"BOT_TOKEN" split_words:"true" required:"true"`
	PollTimeout time.Duration `envconfig:"POLL_TIMEOUT" split_words:"true" default:"30s"`
	Debug       bool          `envconfig:"DEBUG" default:"false"`
	APIEndpoint string        `envconfig:"API_ENDPOINT" split_words:"true"`
}

// NewBot authorizes against the Bot API. APIEndpoint overrides the public
// endpoint and must contain the %s/%s token and method placeholders.
func NewBot(cfg Config) (*tgbotapi.BotAPI, error) {
	token := strings.TrimSpace(cfg.BotToken)
	if token == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}

	endpoint := strings.TrimSpace(cfg.APIEndpoint)
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}

	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("authorize telegram bot: %w", err)
	}
	bot.Debug = cfg.Debug
	return bot, nil
}

// PollTimeoutSeconds converts the poll timeout to the Bot API's whole-second unit.
func (c Config) PollTimeoutSeconds() int {
	secs := int(c.PollTimeout / time.Second)
	if secs <= 0 {
		return 30
	}
	return secs
}
