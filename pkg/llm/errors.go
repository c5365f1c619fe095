package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// Completion failures fall into four classes. Callers are expected to
// degrade to a search-only answer on any of them rather than fail the
// request.
var (
	ErrUnauthorized = errors.New("llm: unauthorized")
	ErrProvider     = errors.New("llm: provider error")
	ErrMalformed    = errors.New("llm: malformed response")
	ErrTimeout      = errors.New("llm: request timed out")
)

// classifyError maps transport and API errors onto the failure classes
// above. Every path wraps so errors.Is keeps working for callers.
func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrUnauthorized, err)
		default:
			return fmt.Errorf("%w: %v", ErrProvider, err)
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		switch reqErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrUnauthorized, err)
		default:
			return fmt.Errorf("%w: %v", ErrProvider, err)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	return fmt.Errorf("%w: %v", ErrProvider, err)
}
