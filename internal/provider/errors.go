package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/ollama/ollama/api"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/api/googleapi"
)

// ErrEmptyResponse is returned when a backend answers without any text.
var ErrEmptyResponse = errors.New("backend returned an empty response")

// BackendError is a failed backend call with its HTTP status when known.
type BackendError struct {
	Provider   string
	StatusCode int
	Retryable  bool
	Err        error
}

func (e *BackendError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s backend failed (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s backend failed: %v", e.Provider, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// classify wraps err in a BackendError, extracting the status code from
// SDK error types.
func classify(provider string, err error) error {
	if err == nil {
		return nil
	}
	var be *BackendError
	if errors.As(err, &be) {
		return err
	}

	status := statusCode(err)
	retryable := status == http.StatusTooManyRequests || status >= 500 ||
		errors.Is(err, context.DeadlineExceeded)

	return &BackendError{
		Provider:   provider,
		StatusCode: status,
		Retryable:  retryable,
		Err:        err,
	}
}

func statusCode(err error) int {
	var oaiErr *openai.APIError
	if errors.As(err, &oaiErr) {
		return oaiErr.HTTPStatusCode
	}
	var oaiReq *openai.RequestError
	if errors.As(err, &oaiReq) {
		return oaiReq.HTTPStatusCode
	}
	var antErr *anthropic.Error
	if errors.As(err, &antErr) {
		return antErr.StatusCode
	}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code
	}
	var olErr api.StatusError
	if errors.As(err, &olErr) {
		return olErr.StatusCode
	}
	return 0
}
