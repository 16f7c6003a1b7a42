package acl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jsamuelsen/quotebook/internal/adapters/clients"
	"github.com/jsamuelsen/quotebook/internal/domain"
)

const maxErrorBody = 64 << 10

// ErrorResponse is an error body from a remote. Both the nested
// {"error":{"code","message"}} and the flat {"code","message"} shapes decode.
type ErrorResponse struct {
	Error   ErrorDetail `json:"error"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
}

type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func (e *ErrorResponse) GetCode() string {
	return firstNonEmpty(e.Error.Code, e.Code)
}

func (e *ErrorResponse) GetMessage() string {
	return firstNonEmpty(e.Error.Message, e.Message)
}

// ParseErrorResponse returns nil unless body is JSON with a code or message.
func ParseErrorResponse(body io.Reader) *ErrorResponse {
	if body == nil {
		return nil
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(io.LimitReader(body, maxErrorBody)).Decode(&errResp); err != nil {
		return nil
	}

	if errResp.GetCode() == "" && errResp.GetMessage() == "" {
		return nil
	}

	return &errResp
}

// transportCause strips the client's ErrRequestFailed marker so the
// underlying failure (dial error, deadline, cancellation) is reported.
func transportCause(err error) error {
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return err
	}

	for _, e := range joined.Unwrap() {
		if !errors.Is(e, clients.ErrRequestFailed) {
			return e
		}
	}

	return err
}

// MapHTTPError turns the outcome of a remote call into a domain error, or nil
// for a 2xx. A transport failure (clientErr) and a missing response are both
// unavailable; the remaining statuses map as:
//
//	404            not found, naming entityID
//	401, 403       forbidden
//	429, 5xx       unavailable
//	any other 4xx  validation, using the first field detail when present
func MapHTTPError(resp *http.Response, clientErr error, serviceName, operation, entityID string) error {
	switch {
	case clientErr != nil:
		return fmt.Errorf("%w: %w", domain.NewUnavailableError(serviceName, operation), transportCause(clientErr))

	case resp == nil:
		return domain.NewUnavailableError(serviceName, "no response received")

	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	}

	var body *ErrorResponse
	if resp.Body != nil {
		body = ParseErrorResponse(resp.Body)
	}

	message := fmt.Sprintf("%s: %s", operation, statusText(resp.StatusCode))
	if body != nil && body.GetMessage() != "" {
		message = body.GetMessage()
	}

	status := resp.StatusCode

	switch {
	case status == http.StatusNotFound:
		return domain.NewNotFoundError(serviceName, entityID)

	case status == http.StatusUnauthorized:
		return domain.NewForbiddenError(operation, "authentication required")

	case status == http.StatusForbidden:
		return domain.NewForbiddenError(operation, message)

	case status == http.StatusTooManyRequests:
		return domain.NewUnavailableError(serviceName, "rate limit exceeded")

	case status >= http.StatusInternalServerError:
		return domain.NewUnavailableError(serviceName, message)
	}

	if body != nil {
		for field, msg := range body.Error.Details {
			return domain.NewValidationError(field, msg)
		}
	}

	return domain.NewValidationError("", message)
}

func statusText(status int) string {
	if text := http.StatusText(status); text != "" {
		return fmt.Sprintf("%d %s", status, text)
	}

	return fmt.Sprintf("status %d", status)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
