package llm

import "context"

// Provider sends one prompt to a text model and returns its reply.
// Summaries and quiz batches are both single-turn text calls; the reply is
// parsed by the caller.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID is the configured model, used for event records and pricing.
	ModelID() string
}

// Request is one prompt.
type Request struct {
	System   string
	Messages []Message

	// MaxTokens bounds the reply. Zero leaves the provider default.
	MaxTokens int

	// Temperature is sent only when positive.
	Temperature float64
}

// Prompt builds a request with a system prompt and a single user turn.
func Prompt(system, user string) Request {
	return Request{
		System:   system,
		Messages: []Message{{Role: RoleUser, Content: user}},
	}
}

// Message is one conversation turn.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// StopReason is why the model stopped, normalized across providers.
type StopReason string

const (
	StopEnd       StopReason = "end"
	StopMaxTokens StopReason = "max_tokens"
)

// Response is the model reply.
type Response struct {
	// Content is the raw model text. It may wrap JSON in prose or fences.
	Content string
	Usage   Usage

	// Model is the model that served the request, which for routed
	// providers may differ from the configured one.
	Model string
	Stop  StopReason
}

// Text returns the reply text; nil-safe.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	return r.Content
}

// Truncated reports whether the reply hit MaxTokens.
func (r *Response) Truncated() bool {
	return r != nil && r.Stop == StopMaxTokens
}

// Usage is token consumption of one call.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Total is input plus output tokens.
func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens
}
