package acl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotebook/internal/adapters/clients"
	"github.com/jsamuelsen/quotebook/internal/domain"
)

func response(status int, body string) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body))}
}

// --- Error Mapping Tests ---

func TestMapHTTPError_StatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{"bad request", http.StatusBadRequest, `{}`, domain.IsValidation},
		{"unprocessable", http.StatusUnprocessableEntity, `{"message":"bad title"}`, domain.IsValidation},
		{"teapot", http.StatusTeapot, ``, domain.IsValidation},
		{"forbidden", http.StatusForbidden, `{"error":{"message":"insufficient permissions"}}`, domain.IsForbidden},
		{"unauthorized", http.StatusUnauthorized, `{}`, domain.IsForbidden},
		{"rate limited", http.StatusTooManyRequests, `{}`, domain.IsUnavailable},
		{"server error", http.StatusInternalServerError, `{"error":{"message":"internal error"}}`, domain.IsUnavailable},
		{"bad gateway", http.StatusBadGateway, `<html>`, domain.IsUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapHTTPError(response(tt.status, tt.body), nil, PlaceholderServiceName, "fetch quotes", "")

			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error kind: %v", err)
		})
	}
}

func TestMapHTTPError_NotFound(t *testing.T) {
	err := MapHTTPError(response(http.StatusNotFound, `{}`), nil, PlaceholderServiceName, "get post", "post-1")

	var notFoundErr *domain.NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
	assert.Equal(t, "post-1", notFoundErr.ID)
}

func TestMapHTTPError_ValidationWithDetails(t *testing.T) {
	body := `{"error":{"code":"VALIDATION_ERROR","message":"validation failed","details":{"title":"is required"}}}`

	err := MapHTTPError(response(http.StatusBadRequest, body), nil, PlaceholderServiceName, "push quote", "")

	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "title", validationErr.Field)
	assert.Equal(t, "is required", validationErr.Message)
}

func TestMapHTTPError_MessageFromBody(t *testing.T) {
	err := MapHTTPError(response(http.StatusServiceUnavailable, `{"message":"maintenance"}`), nil, PlaceholderServiceName, "fetch quotes", "")

	assert.Contains(t, err.Error(), "maintenance")
}

func TestMapHTTPError_DefaultMessageNamesStatus(t *testing.T) {
	err := MapHTTPError(response(http.StatusConflict, ``), nil, PlaceholderServiceName, "push quote", "")

	require.True(t, domain.IsValidation(err))
	assert.Contains(t, err.Error(), "push quote: 409 Conflict")
}

func TestMapHTTPError_ClientError(t *testing.T) {
	cause := fmt.Errorf("%w: %w", clients.ErrRequestFailed, errors.New("connection refused"))

	err := MapHTTPError(nil, cause, PlaceholderServiceName, "fetch quotes", "")

	require.Error(t, err)
	assert.True(t, domain.IsUnavailable(err))
	assert.Equal(t, `service "placeholder-api" unavailable: fetch quotes: connection refused`, err.Error())
}

func TestMapHTTPError_ClientErrorKeepsCause(t *testing.T) {
	cause := fmt.Errorf("%w: %w", clients.ErrRequestFailed, context.Canceled)

	err := MapHTTPError(nil, cause, PlaceholderServiceName, "push quote", "")

	assert.True(t, domain.IsUnavailable(err))
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, clients.ErrRequestFailed)
	assert.NotContains(t, err.Error(), "<nil>")
}

func TestMapHTTPError_SuccessReturnsNil(t *testing.T) {
	assert.NoError(t, MapHTTPError(response(http.StatusCreated, `{}`), nil, PlaceholderServiceName, "push quote", ""))
}

func TestMapHTTPError_NilResponse(t *testing.T) {
	err := MapHTTPError(nil, nil, PlaceholderServiceName, "fetch quotes", "")

	require.Error(t, err)
	assert.True(t, domain.IsUnavailable(err))
}

// --- Decode and Translate Tests ---

func TestDecodeResponse(t *testing.T) {
	type post struct {
		ID    int    `json:"id"`
		Title string `json:"title"`
	}

	result, err := DecodeResponse[post](io.NopCloser(strings.NewReader(`{"id":7,"title":"hi"}`)))
	require.NoError(t, err)
	assert.Equal(t, post{ID: 7, Title: "hi"}, *result)

	_, err = DecodeResponse[post](io.NopCloser(strings.NewReader(`invalid json`)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding response")

	_, err = DecodeResponse[post](nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil")
}

func TestDecodeResponseForService_Error(t *testing.T) {
	_, err := DecodeResponseForService[[]placeholderPost](io.NopCloser(strings.NewReader(`{"not":"a list"}`)), PlaceholderServiceName)

	require.Error(t, err)
	assert.True(t, domain.IsUnavailable(err), "expected UnavailableError for decode failure")
}

func TestTranslateSlice(t *testing.T) {
	evens := func(n *int) (string, bool) {
		return fmt.Sprint(*n), *n%2 == 0
	}

	assert.Equal(t, []string{"2", "4"}, TranslateSlice([]int{1, 2, 3, 4}, evens))
	assert.Empty(t, TranslateSlice([]int{}, evens))
}

func TestTranslatePost(t *testing.T) {
	quote, ok := translatePost(&placeholderPost{ID: 1, Title: "  sunt aut facere  "})
	require.True(t, ok)
	assert.Equal(t, domain.Quote{Text: "sunt aut facere", Category: domain.SyncCategory}, quote)

	_, ok = translatePost(&placeholderPost{ID: 2, Title: "   "})
	assert.False(t, ok)
}

// --- ParseErrorResponse Tests ---

func TestParseErrorResponse(t *testing.T) {
	nested := ParseErrorResponse(strings.NewReader(`{"error":{"code":"NOT_FOUND","message":"not found"}}`))
	require.NotNil(t, nested)
	assert.Equal(t, "NOT_FOUND", nested.GetCode())
	assert.Equal(t, "not found", nested.GetMessage())

	flat := ParseErrorResponse(strings.NewReader(`{"code":"LIMIT","message":"slow down"}`))
	require.NotNil(t, flat)
	assert.Equal(t, "LIMIT", flat.GetCode())
	assert.Equal(t, "slow down", flat.GetMessage())

	assert.Nil(t, ParseErrorResponse(strings.NewReader(`not json`)))
	assert.Nil(t, ParseErrorResponse(strings.NewReader(`{}`)))
	assert.Nil(t, ParseErrorResponse(nil))
}
