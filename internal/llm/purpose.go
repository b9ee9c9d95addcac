package llm

import "context"

// Purpose labels a call in the event log.
type Purpose string

const (
	PurposeSummarize Purpose = "summarize"
	PurposeQuizGen   Purpose = "quiz-gen"
	PurposeUnknown   Purpose = "unknown"
)

type purposeKey struct{}

// WithPurpose labels every call made with ctx.
func WithPurpose(ctx context.Context, p Purpose) context.Context {
	return context.WithValue(ctx, purposeKey{}, p)
}

// PurposeFrom returns the label set by WithPurpose, or PurposeUnknown.
func PurposeFrom(ctx context.Context) Purpose {
	if p, ok := ctx.Value(purposeKey{}).(Purpose); ok {
		return p
	}
	return PurposeUnknown
}
