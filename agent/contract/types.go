package contract

import "time"

type Command string

const (
	CommandNone  Command = ""
	CommandStart Command = "start"
	CommandReset Command = "reset"
)

// Reply is one outbound message. Keyboard rows are rendered by the transport.
type Reply struct {
	Text           string     `json:"text"`
	Keyboard       [][]string `json:"keyboard,omitempty"`
	RemoveKeyboard bool       `json:"remove_keyboard,omitempty"`
}

type Recommendation struct {
	Text     string `json:"text"`
	Fallback bool   `json:"fallback"`
}

const LeadStatusNew = "new"

// Lead columns, in persisted order.
var LeadColumns = []string{
	"timestamp",
	"chat_id",
	"client_name",
	"contact",
	"intent",
	"notes",
	"source",
	"status",
}

type Lead struct {
	Timestamp  time.Time `json:"timestamp"`
	ChatID     int64     `json:"chat_id"`
	ClientName string    `json:"client_name"`
	Contact    string    `json:"contact"`
	Intent     string    `json:"intent"`
	Notes      string    `json:"notes"`
	Source     string    `json:"source"`
	Status     string    `json:"status"`
}
