package nodes

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/chative-lead-qualifier/agent/contract"
)

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil || in.Session == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	replies := make([]contractx.Reply, 0, len(in.Replies))
	for _, r := range in.Replies {
		if strings.TrimSpace(r.Text) == "" {
			continue
		}
		replies = append(replies, r)
	}
	if len(replies) == 0 {
		return GraphOutput{}, fmt.Errorf("%w: turn produced no reply", contractx.ErrValidation)
	}
	return GraphOutput{Replies: replies, Stage: in.Session.Stage}, nil
}
