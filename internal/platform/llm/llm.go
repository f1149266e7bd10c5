// Package llm defines the embedding and generation contracts the advisor
// depends on, and the typed failure every provider returns.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/yungbote/competency-advisor/internal/pkg/httpx"
)

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Op string

const (
	OpEmbed    Op = "embed"
	OpGenerate Op = "generate"
)

// ServiceError is an upstream failure of an embedding or generation provider.
type ServiceError struct {
	Provider   string
	Op         Op
	StatusCode int
	Body       string
	Timeout    bool
	Err        error
}

func (e *ServiceError) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Timeout:
		return fmt.Sprintf("%s %s: timed out", e.Provider, e.Op)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s %s: http %d: %s", e.Provider, e.Op, e.StatusCode, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
	default:
		return fmt.Sprintf("%s %s: failed", e.Provider, e.Op)
	}
}

func (e *ServiceError) Unwrap() error { return e.Err }

// HTTPStatusCode is the upstream status, used by httpx retry classification.
func (e *ServiceError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

// ResponseStatus is the status this failure maps to for our own callers.
func (e *ServiceError) ResponseStatus() int {
	if e.Timeout {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

// Wrap converts any provider failure into a *ServiceError. Existing
// ServiceErrors pass through; caller cancellation stays untouched.
func Wrap(provider string, op Op, err error) error {
	if err == nil {
		return nil
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return &ServiceError{
		Provider: provider,
		Op:       op,
		Timeout:  httpx.IsTimeout(err),
		Err:      err,
	}
}

// AsServiceError unwraps err into a *ServiceError if one is present.
func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
