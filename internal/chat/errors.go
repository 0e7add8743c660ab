package chat

import (
	"errors"
	"net/http"
)

// ErrIdleTimeout is returned when the endpoint sends nothing for longer than the
// client's idle timeout.
var ErrIdleTimeout = errors.New("chat stream idle timeout")

const (
	MessageRateLimited      = "Rate limit exceeded. Please try again in a moment."
	MessageCreditsExhausted = "AI credits exhausted. Please add credits."
	MessageUnavailable      = "AI service temporarily unavailable."
)

// StatusError is a non-2xx answer from the chat endpoint. Message is safe to show
// to the visitor.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return e.Message
}

func (e *StatusError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

func (e *StatusError) CreditsExhausted() bool {
	return e.StatusCode == http.StatusPaymentRequired
}

// DefaultMessage is used when the endpoint gives no readable reason.
func DefaultMessage(statusCode int) string {
	switch statusCode {
	case http.StatusTooManyRequests:
		return MessageRateLimited
	case http.StatusPaymentRequired:
		return MessageCreditsExhausted
	default:
		return MessageUnavailable
	}
}
