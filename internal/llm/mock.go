package llm

import (
	"context"
	"errors"
	"sync"
)

// MockResponse is one canned reply of a MockProvider.
type MockResponse struct {
	Content string
	Usage   Usage
	Stop    StopReason
	Err     error
}

// TextResponse is a canned plain-text reply.
func TextResponse(text string) MockResponse {
	return MockResponse{Content: text}
}

// TruncatedResponse is a canned reply cut off at the token limit.
func TruncatedResponse(text string) MockResponse {
	return MockResponse{Content: text, Stop: StopMaxTokens}
}

// ErrorResponse is a canned failure of the given kind.
func ErrorResponse(kind ErrorKind) MockResponse {
	return MockResponse{Err: &ProviderError{Kind: kind, Err: errors.New("mock " + string(kind))}}
}

// MockProvider replays canned responses in FIFO order and records every
// request. Selected with SSQUIZ_LLM_PROVIDER=mock and used by tests.
type MockProvider struct {
	mu        sync.Mutex
	responses []MockResponse
	Calls     []Request
}

func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{responses: responses}
}

// Generate returns the next canned response, or an unavailable
// ProviderError once the queue is drained.
func (m *MockProvider) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)
	if len(m.responses) == 0 {
		return nil, unavailable(errors.New("mock: no canned responses left"))
	}
	next := m.responses[0]
	m.responses = m.responses[1:]
	if next.Err != nil {
		return nil, next.Err
	}
	stop := next.Stop
	if stop == "" {
		stop = StopEnd
	}
	return &Response{Content: next.Content, Usage: next.Usage, Model: "mock", Stop: stop}, nil
}

func (m *MockProvider) ModelID() string { return "mock" }

// CallCount returns the number of Generate calls made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
