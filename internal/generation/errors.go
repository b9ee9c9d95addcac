package generation

import (
	"context"
	"errors"

	"github.com/ssai/ssquiz/internal/apperr"
	"github.com/ssai/ssquiz/internal/llm"
	"github.com/ssai/ssquiz/internal/quizgen"
)

const genericFailure = "quiz generation failed"

// FailureMessage turns a workflow error into the short text shown to
// pollers. Provider bodies, raw model output and internal ids never appear
// in it.
func FailureMessage(err error) string {
	if err == nil {
		return ""
	}
	var ae *apperr.Error
	if errors.As(err, &ae) && ae.Kind != apperr.KindInternal {
		return ae.Message
	}
	if kind, ok := llm.KindOf(err); ok {
		switch kind {
		case llm.KindRateLimited:
			return "the quiz provider is rate limiting requests, try again later"
		case llm.KindQuotaExhausted:
			return "the quiz provider quota is exhausted"
		case llm.KindUnavailable:
			return "the quiz provider is unavailable"
		default:
			return "the quiz provider failed, try again later"
		}
	}
	var perr *quizgen.ParseError
	if errors.As(err, &perr) {
		return "the quiz provider returned an unreadable response"
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "quiz generation was interrupted"
	}
	return apperr.UserMessage(err, genericFailure)
}
