package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/yungbote/competency-advisor/internal/platform/apierr"
	"github.com/yungbote/competency-advisor/internal/platform/llm"
)

var (
	errCompetencyNotFound = errors.New("competency not found")
	errPrerequisite       = errors.New("prerequisite not completed")
	errAlreadyCompleted   = errors.New("competency already completed")
	errNotStarted         = errors.New("competency not started")
	errInvalidProgress    = errors.New("progress must be between 0 and 100")
	errUnauthorized       = errors.New("unauthorized")
)

// upstreamError maps embedding and generation failures onto 502/504 so
// handlers never fabricate an answer for them.
func upstreamError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return apierr.New(499, "request_canceled", err)
	}
	if se, ok := llm.AsServiceError(err); ok {
		code := "upstream_unavailable"
		if se.Timeout {
			code = "upstream_timeout"
		}
		return apierr.New(se.ResponseStatus(), code, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apierr.New(http.StatusGatewayTimeout, "upstream_timeout", err)
	}
	return apierr.New(http.StatusBadGateway, "upstream_unavailable", err)
}

func internalError(code string, err error) error {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apierr.New(http.StatusInternalServerError, code, err)
}
