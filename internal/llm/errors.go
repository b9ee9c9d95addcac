package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies a failed provider call.
type ErrorKind string

const (
	KindRateLimited    ErrorKind = "rate_limited"
	KindQuotaExhausted ErrorKind = "quota_exhausted"
	KindTransient      ErrorKind = "transient"
	KindUnavailable    ErrorKind = "unavailable"
)

// ProviderError is returned for every failed call to the external provider.
type ProviderError struct {
	Kind ErrorKind
	Err  error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("LLM provider %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("LLM provider %s", e.Kind)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func rateLimited(err error) error    { return &ProviderError{Kind: KindRateLimited, Err: err} }
func quotaExhausted(err error) error { return &ProviderError{Kind: KindQuotaExhausted, Err: err} }
func unavailable(err error) error    { return &ProviderError{Kind: KindUnavailable, Err: err} }
func transient(err error) error      { return &ProviderError{Kind: KindTransient, Err: err} }

// KindOf returns the kind of a *ProviderError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return "", false
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
