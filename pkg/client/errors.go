package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Kind classifies a client failure so callers can branch on the failure
// class instead of parsing message strings.
type Kind string

const (
	// KindTimeout means the request exceeded the configured deadline.
	KindTimeout Kind = "timeout"

	// KindNetwork means the request could not be sent or no response was
	// received (DNS failure, connection refused, aborted).
	KindNetwork Kind = "network"

	// KindHTTP means a response was received with a non-2xx status.
	KindHTTP Kind = "http"

	// KindParse means a 2xx response body was not valid JSON.
	KindParse Kind = "parse"
)

// Error is the single error type returned by every client operation.
// Status is only set for KindHTTP.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Kind {
	case KindHTTP:
		return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
	case KindTimeout:
		return "request timed out: " + e.Message
	case KindParse:
		return "parsing response: " + e.Message
	default:
		return "network error: " + e.Message
	}
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// ErrKind returns the Kind of err when it is a client Error, or "" otherwise.
func ErrKind(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// IsTimeout reports whether err is a timeout-kind client error.
func IsTimeout(err error) bool {
	return ErrKind(err) == KindTimeout
}

// IsNotFound reports whether err is an HTTP-kind client error with status 404.
func IsNotFound(err error) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == KindHTTP && ce.Status == http.StatusNotFound
}

// StatusCode returns the HTTP status carried by err, or 0 when err is not an
// HTTP-kind client error.
func StatusCode(err error) int {
	var ce *Error
	if errors.As(err, &ce) && ce.Kind == KindHTTP {
		return ce.Status
	}
	return 0
}

// classifyTransportError turns an http.Client.Do failure into a timeout or
// network error. Context deadline expiry means our per-request timeout fired.
func classifyTransportError(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Message: "deadline exceeded, check your connection", cause: err}
	}
	return &Error{Kind: KindNetwork, Message: err.Error(), cause: err}
}

// decodeAPIError builds an HTTP-kind error from a non-2xx response. The body
// is read defensively: a body that cannot be read or parsed still yields a
// usable error with the status's standard reason phrase.
func decodeAPIError(resp *http.Response) *Error {
	apiErr := &Error{Kind: KindHTTP, Status: resp.StatusCode}

	data, err := io.ReadAll(resp.Body)
	if err != nil || len(data) == 0 {
		apiErr.Message = fallbackMessage(resp.StatusCode)
		return apiErr
	}

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		switch {
		case payload.Message != "":
			apiErr.Message = payload.Message
		case payload.Error != "":
			apiErr.Message = payload.Error
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	if apiErr.Message == "" {
		apiErr.Message = fallbackMessage(resp.StatusCode)
	}
	return apiErr
}

func fallbackMessage(status int) string {
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP %d", status)
}
