package nodes

import (
	"errors"
	"time"

	contractx "github.com/tanpawarit/chative-lead-qualifier/agent/contract"
	statex "github.com/tanpawarit/chative-lead-qualifier/agent/state"
)

var (
	ErrInvalidChatID = errors.New("chat id is required")
	ErrEmptyMessage  = errors.New("message text is empty")
)

// GraphInput is one inbound turn for a chat.
type GraphInput struct {
	ChatID     int64
	Command    contractx.Command
	Text       string
	ClientName string
}

// GraphState is threaded through every node of a turn.
type GraphState struct {
	ChatID     int64
	Command    contractx.Command
	Text       string
	ClientName string
	Now        time.Time

	Session   *statex.Session
	FromStage statex.Stage
	Fresh     bool

	Replies []contractx.Reply
}

type GraphOutput struct {
	Replies []contractx.Reply
	Stage   statex.Stage
}

func (g *GraphState) reply(r contractx.Reply) {
	g.Replies = append(g.Replies, r)
}
