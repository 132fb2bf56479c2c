package provider

import (
	"fmt"
	"strings"
)

// FailoverReason categorizes why a provider request failed, grounded on the
// teacher's providers.FailoverReason classification.
type FailoverReason string

const (
	FailoverRateLimit    FailoverReason = "rate_limit"
	FailoverAuth         FailoverReason = "auth"
	FailoverTimeout      FailoverReason = "timeout"
	FailoverServerError  FailoverReason = "server_error"
	FailoverInvalid      FailoverReason = "invalid_request"
	FailoverUnknown      FailoverReason = "unknown"
)

// IsRetryable reports whether Client.Stream retries the same request.
func (r FailoverReason) IsRetryable() bool {
	switch r {
	case FailoverRateLimit, FailoverTimeout, FailoverServerError:
		return true
	default:
		return false
	}
}

// Error is a structured error from the provider (spec §7 "Provider error or
// stream failure"): the Agent Loop displays Message via the renderer and
// terminates the current turn with the transcript untouched.
type Error struct {
	Reason   FailoverReason
	Status   int
	Message  string
	Provider string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (status %d)", e.Provider, e.Message, e.Status)
}

// classifyStatus maps an HTTP status to a FailoverReason.
func classifyStatus(status int) FailoverReason {
	switch {
	case status == 401 || status == 403:
		return FailoverAuth
	case status == 429:
		return FailoverRateLimit
	case status == 408:
		return FailoverTimeout
	case status >= 500:
		return FailoverServerError
	case status >= 400:
		return FailoverInvalid
	default:
		return FailoverUnknown
	}
}

func classifyMessage(msg string) FailoverReason {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "rate limit"):
		return FailoverRateLimit
	case strings.Contains(lower, "timeout"), strings.Contains(lower, "deadline exceeded"):
		return FailoverTimeout
	case strings.Contains(lower, "unauthorized"), strings.Contains(lower, "invalid api key"):
		return FailoverAuth
	default:
		return FailoverUnknown
	}
}
