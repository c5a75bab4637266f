package nodes

import (
	"strings"
	"time"
)

func ValidateRequest(in GraphInput, now func() time.Time) (*GraphState, error) {
	if in.ChatID == 0 {
		return nil, ErrInvalidChatID
	}

	text := strings.TrimSpace(in.Text)
	if text == "" && in.Command == "" {
		return nil, ErrEmptyMessage
	}

	return &GraphState{
		ChatID:     in.ChatID,
		Command:    in.Command,
		Text:       text,
		ClientName: strings.TrimSpace(in.ClientName),
		Now:        now().UTC(),
	}, nil
}
