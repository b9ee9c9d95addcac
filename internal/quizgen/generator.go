package quizgen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ssai/ssquiz/internal/llm"
	"github.com/ssai/ssquiz/internal/logger"
)

// Generator produces one batch of candidates per call.
type Generator interface {
	Generate(ctx context.Context, input GenerateInput) (*Batch, error)
}

// Summarizer condenses a raw conversation log.
type Summarizer interface {
	Summarize(ctx context.Context, content string, asOf time.Time) (string, error)
}

// LLMGenerator implements Generator and Summarizer on top of an LLM
// provider. Provider failures pass through unchanged, so callers see the
// *llm.ProviderError the resilient layer produced.
type LLMGenerator struct {
	provider   llm.Provider
	config     Config
	normalizer *ChoiceNormalizer
	diag       *logger.Logger
}

// GeneratorOption customizes an LLMGenerator.
type GeneratorOption func(*LLMGenerator)

// WithShuffler fixes the randomness used for choice order.
func WithShuffler(s Shuffler) GeneratorOption {
	return func(g *LLMGenerator) { g.normalizer = NewChoiceNormalizer(s) }
}

// WithDiagnostics sends unparseable model output to the side log.
func WithDiagnostics(l *logger.Logger) GeneratorOption {
	return func(g *LLMGenerator) {
		if l != nil {
			g.diag = l
		}
	}
}

// New creates a new LLMGenerator with the given provider and config.
func New(provider llm.Provider, cfg Config, opts ...GeneratorOption) *LLMGenerator {
	g := &LLMGenerator{
		provider:   provider,
		config:     cfg,
		normalizer: NewChoiceNormalizer(nil),
		diag:       logger.Nop(),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Generate asks for one batch of quiz items and normalizes each of them.
// Output that no extraction strategy can decode is a *ParseError; items
// that decode but fail the schema or validators land in Batch.Rejected.
func (g *LLMGenerator) Generate(ctx context.Context, input GenerateInput) (*Batch, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeQuizGen)

	req := llm.Prompt(quizSystemPrompt, buildQuizMessage(input, g.config))
	req.MaxTokens = g.config.MaxTokens
	req.Temperature = g.config.Temperature

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("LLM generation failed: %w", err)
	}

	payload, err := ExtractPayloads(resp.Text())
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			perr.Truncated = resp.Truncated()
		}
		g.diag.Error("unparseable model output",
			"purpose", string(llm.PurposeQuizGen),
			"model", g.provider.ModelID(),
			"truncated", resp.Truncated(),
			"raw_response", resp.Text(),
		)
		return nil, err
	}

	batch := &Batch{}
	for i, item := range payload.Items {
		c, err := g.candidate(item)
		if err != nil {
			batch.Rejected = append(batch.Rejected, fmt.Errorf("item %d: %w", i, err))
			continue
		}
		batch.Candidates = append(batch.Candidates, c)
	}
	return batch, nil
}

func (g *LLMGenerator) candidate(item map[string]any) (Candidate, error) {
	if item != nil {
		if err := llm.Validate(ItemSchema, item); err != nil {
			return Candidate{}, &ValidationError{Validator: "schema", Message: err.Error(), Retryable: true}
		}
	}
	c, err := g.normalizer.Normalize(item)
	if err != nil {
		return Candidate{}, err
	}
	for _, v := range g.config.Validators {
		if verr := v.Validate(&c); verr != nil {
			return Candidate{}, verr
		}
	}
	return c, nil
}

// Summarize condenses one conversation log as of the given date.
func (g *LLMGenerator) Summarize(ctx context.Context, content string, asOf time.Time) (string, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeSummarize)

	req := llm.Prompt(summarySystemPrompt, buildSummaryMessage(content, asOf))
	req.MaxTokens = g.config.SummaryMaxTokens
	req.Temperature = 0.3

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return "", fmt.Errorf("LLM summary failed: %w", err)
	}
	summary := strings.TrimSpace(resp.Text())
	if summary == "" {
		return "", errors.New("LLM summary is empty")
	}
	return summary, nil
}
