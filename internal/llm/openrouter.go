package llm

import (
	"errors"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// NewOpenRouterProvider returns an OpenAI-compatible provider pointed at
// OpenRouter. Model ids carry the vendor prefix ("openai/gpt-4o-mini").
func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openrouter API key is required")
	}
	conf := openai.DefaultConfig(cfg.APIKey)
	conf.BaseURL = cfg.BaseURL
	if conf.BaseURL == "" {
		conf.BaseURL = defaultOpenRouterBaseURL
	}
	if cfg.AppURL != "" || cfg.AppTitle != "" {
		conf.HTTPClient = &http.Client{Transport: attribution{
			base:  http.DefaultTransport,
			url:   cfg.AppURL,
			title: cfg.AppTitle,
		}}
	}
	return newOpenAIWithConfig(conf, cfg.Model), nil
}

// attribution adds the headers OpenRouter uses to credit the calling app.
type attribution struct {
	base       http.RoundTripper
	url, title string
}

func (a attribution) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	if a.url != "" {
		r.Header.Set("HTTP-Referer", a.url)
	}
	if a.title != "" {
		r.Header.Set("X-Title", a.title)
	}
	return a.base.RoundTrip(r)
}
