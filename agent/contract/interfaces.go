package contract

import "context"

// Gateway never returns an error: transport failures resolve to the fallback.
type Gateway interface {
	RequestRecommendation(ctx context.Context, contextText string) Recommendation
	AnswerFreeform(ctx context.Context, question string) string
}

// LeadSink reports false on any persistence failure instead of an error.
type LeadSink interface {
	Append(ctx context.Context, lead Lead) bool
}

type LeadCounter interface {
	Count(ctx context.Context) int
}
