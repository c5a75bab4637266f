package telegram

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/chative-lead-qualifier/agent/contract"
	dialoguex "github.com/tanpawarit/chative-lead-qualifier/agent/dialogue"
	dedupex "github.com/tanpawarit/chative-lead-qualifier/pkg/dedupe"
	metricsx "github.com/tanpawarit/chative-lead-qualifier/pkg/metrics"
)

const (
	pongText        = "pong"
	askPromptText   = "Пожалуйста, задайте вопрос после команды /ask"
	askProgressText = "🤔 Думаю над вашим вопросом..."
)

// Sender delivers one outbound Bot API request. *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Dialogue is the engine surface the transport drives.
type Dialogue interface {
	Handle(ctx context.Context, in dialoguex.Inbound) ([]contractx.Reply, error)
	Ask(ctx context.Context, question string) contractx.Reply
}

type Handler struct {
	sender     Sender
	dialogue   Dialogue
	seen       dedupex.Store
	metrics    *metricsx.BotMetrics
	dispatcher *dispatcher
}

type Option func(*Handler)

// WithDedupe drops updates whose id was already seen.
func WithDedupe(store dedupex.Store) Option {
	return func(h *Handler) {
		h.seen = store
	}
}

func WithMetrics(m *metricsx.BotMetrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

func NewHandler(sender Sender, dialogue Dialogue, opts ...Option) *Handler {
	h := &Handler{
		sender:     sender,
		dialogue:   dialogue,
		dispatcher: newDispatcher(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Run consumes updates until ctx is done or the channel closes, then waits
// for queued chat work to finish.
func (h *Handler) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	defer h.dispatcher.wait()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			h.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate queues the update's message on its chat. It does not block on processing.
func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	if !h.firstSeen(ctx, update.UpdateID) {
		log.Debug().Int("update_id", update.UpdateID).Int64("chat_id", msg.Chat.ID).Msg("duplicate update dropped")
		h.metrics.ObserveDuplicateUpdate()
		return
	}

	jobCtx := context.WithoutCancel(ctx)
	h.dispatcher.submit(msg.Chat.ID, func() {
		h.process(jobCtx, msg)
	})
}

// Wait blocks until all queued chat work has been processed.
func (h *Handler) Wait() {
	h.dispatcher.wait()
}

func (h *Handler) firstSeen(ctx context.Context, updateID int) bool {
	if h.seen == nil {
		return true
	}
	ok, err := h.seen.FirstSeen(ctx, strconv.Itoa(updateID))
	if err != nil {
		log.Warn().Err(err).Int("update_id", updateID).Msg("dedupe lookup failed, processing update")
		return true
	}
	return ok
}

func (h *Handler) process(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	in := dialoguex.Inbound{
		ChatID:     chatID,
		Text:       msg.Text,
		ClientName: clientName(msg.From),
	}

	if msg.IsCommand() {
		switch strings.ToLower(msg.Command()) {
		case "ping":
			h.send(chatID, contractx.Reply{Text: pongText})
			return
		case "ask":
			h.ask(ctx, chatID, msg.CommandArguments())
			return
		case "start":
			in.Command, in.Text = contractx.CommandStart, ""
		case "reset":
			in.Command, in.Text = contractx.CommandReset, ""
		}
	}

	replies, err := h.dialogue.Handle(ctx, in)
	if err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("dialogue turn failed, no reply sent")
		return
	}
	for _, r := range replies {
		h.send(chatID, r)
	}
}

func (h *Handler) ask(ctx context.Context, chatID int64, question string) {
	question = strings.TrimSpace(question)
	if question == "" {
		h.send(chatID, contractx.Reply{Text: askPromptText})
		return
	}

	log.Info().Int64("chat_id", chatID).Int("question_length", len([]rune(question))).Msg("/ask received")
	h.send(chatID, contractx.Reply{Text: askProgressText})
	h.send(chatID, h.dialogue.Ask(ctx, question))
}

func (h *Handler) send(chatID int64, r contractx.Reply) {
	if _, err := h.sender.Send(renderReply(chatID, r)); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("send message failed")
	}
}

func renderReply(chatID int64, r contractx.Reply) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, r.Text)
	switch {
	case len(r.Keyboard) > 0:
		msg.ReplyMarkup = replyKeyboard(r.Keyboard)
	case r.RemoveKeyboard:
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	}
	return msg
}

func replyKeyboard(rows [][]string) tgbotapi.ReplyKeyboardMarkup {
	kbRows := make([][]tgbotapi.KeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, text := range row {
			buttons = append(buttons, tgbotapi.NewKeyboardButton(text))
		}
		kbRows = append(kbRows, tgbotapi.NewKeyboardButtonRow(buttons...))
	}
	kb := tgbotapi.NewReplyKeyboard(kbRows...)
	kb.ResizeKeyboard = true
	return kb
}

func clientName(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
