package feed

import "fmt"

// FeedError classifies fetch failures so callers can tell transient
// network trouble from budget exhaustion or provider-side errors.
type FeedError struct {
	Type    string // "network", "rate_limit", "budget", "provider_error", "bad_payload"
	Symbol  string
	Message string
	Cause   error
}

func (e *FeedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error for %s: %s (%v)", e.Type, e.Symbol, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error for %s: %s", e.Type, e.Symbol, e.Message)
}

func (e *FeedError) Unwrap() error { return e.Cause }

func NewNetworkError(symbol, message string, cause error) *FeedError {
	return &FeedError{Type: "network", Symbol: symbol, Message: message, Cause: cause}
}

func NewRateLimitError(symbol, message string) *FeedError {
	return &FeedError{Type: "rate_limit", Symbol: symbol, Message: message}
}

func NewBudgetError(symbol, message string) *FeedError {
	return &FeedError{Type: "budget", Symbol: symbol, Message: message}
}

func NewProviderError(symbol, message string, cause error) *FeedError {
	return &FeedError{Type: "provider_error", Symbol: symbol, Message: message, Cause: cause}
}

func NewBadPayloadError(symbol, message string, cause error) *FeedError {
	return &FeedError{Type: "bad_payload", Symbol: symbol, Message: message, Cause: cause}
}
