package quizgen

import (
	"fmt"
	"strings"
	"time"
)

const quizSystemPrompt = `You are a sports scientist writing review quizzes for a learner.

Rules:
- Base every question on the conversation summary you are given. Write in the language of the summary.
- Each item is multiple choice with exactly 4 options and exactly one correct option.
- Wrong options should reflect common misconceptions, not absurd values.
- The explanation covers why the correct option is right and why the others are wrong.
- reference names the papers or videos the item relies on.
- Set "verified" to true and fill "link" only when the item cites a real, checkable source. Otherwise leave link empty.
- Do not repeat or paraphrase any question from the "avoid" list.

Answer with JSON only, in this form:
{"questions": [{"question": "...", "choices": ["...", "...", "...", "..."], "answer_index": 0, "explanation": "...", "reference": "...", "link": "", "verified": false}]}`

const summarySystemPrompt = `Summarize the following conversation log for one day. Keep only the key concepts and learning points, concisely.`

// buildQuizMessage constructs the user message for one batch request.
func buildQuizMessage(input GenerateInput, cfg Config) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Number of questions: %d\n", max(1, cfg.BatchSize))
	b.WriteString("\nSummary:\n")
	b.WriteString(strings.TrimSpace(input.Summary))
	b.WriteString("\n\nAvoid:\n")
	b.WriteString(buildAvoid(input.Avoid, cfg.MaxAvoid))

	return b.String()
}

// buildAvoid formats the avoid-list, keeping the first limit entries.
func buildAvoid(questions []string, limit int) string {
	if len(questions) == 0 {
		return "None"
	}
	if limit > 0 && len(questions) > limit {
		questions = questions[:limit]
	}

	var b strings.Builder
	for i, q := range questions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, strings.TrimSpace(q))
	}
	return strings.TrimRight(b.String(), "\n")
}

func buildSummaryMessage(content string, asOf time.Time) string {
	return fmt.Sprintf("Date: %s\nConversation:\n%s", asOf.Format(time.DateOnly), content)
}
