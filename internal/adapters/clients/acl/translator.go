package acl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jsamuelsen/quotebook/internal/adapters/clients"
	"github.com/jsamuelsen/quotebook/internal/domain"
)

// maxResponseBody bounds decoded response bodies.
const maxResponseBody = 1 << 20

// BaseAdapter provides common functionality for ACL adapters.
// Embed it in service-specific adapters.
type BaseAdapter struct {
	client      *clients.Client
	serviceName string
}

// NewBaseAdapter creates a new base adapter with the given client and service name.
func NewBaseAdapter(client *clients.Client, serviceName string) BaseAdapter {
	return BaseAdapter{
		client:      client,
		serviceName: serviceName,
	}
}

// ServiceName returns the name of the external service.
func (a *BaseAdapter) ServiceName() string {
	return a.serviceName
}

// Get performs a GET request. On success it returns the open response body
// (caller must close); on failure a mapped domain error.
func (a *BaseAdapter) Get(ctx context.Context, path, operation string) (io.ReadCloser, int, error) {
	resp, err := a.client.Get(ctx, path)

	return a.handle(resp, err, operation)
}

// Post performs a POST request with a JSON-encoded payload.
func (a *BaseAdapter) Post(ctx context.Context, path string, payload any, operation string) (io.ReadCloser, int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("encoding %s payload: %w", operation, err)
	}

	resp, err := a.client.Post(ctx, path, bytes.NewReader(body))

	return a.handle(resp, err, operation)
}

func (a *BaseAdapter) handle(resp *http.Response, err error, operation string) (io.ReadCloser, int, error) {
	if err != nil {
		return nil, 0, MapHTTPError(nil, err, a.serviceName, operation, "")
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		defer func() { _ = resp.Body.Close() }()

		return nil, resp.StatusCode, MapHTTPError(resp, nil, a.serviceName, operation, "")
	}

	return resp.Body, resp.StatusCode, nil
}

// DecodeResponse reads and decodes a JSON response body into the target type.
// Closes the body after reading.
func DecodeResponse[T any](body io.ReadCloser) (*T, error) {
	if body == nil {
		return nil, errors.New("response body is nil")
	}
	defer func() { _ = body.Close() }()

	var result T
	if err := json.NewDecoder(io.LimitReader(body, maxResponseBody)).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &result, nil
}

// DecodeResponseForService decodes body and maps a malformed payload to
// domain.ErrUnavailable for serviceName.
func DecodeResponseForService[T any](body io.ReadCloser, serviceName string) (*T, error) {
	result, err := DecodeResponse[T](body)
	if err != nil {
		return nil, domain.NewUnavailableError(serviceName, err.Error())
	}

	return result, nil
}

// Translator converts an external DTO to a domain value. ok is false when the
// item carries nothing usable and should be skipped.
type Translator[External any, Domain any] func(ext *External) (value Domain, ok bool)

// TranslateSlice applies translate to every item, skipping the ones it rejects.
func TranslateSlice[E any, D any](items []E, translate Translator[E, D]) []D {
	result := make([]D, 0, len(items))

	for i := range items {
		if value, ok := translate(&items[i]); ok {
			result = append(result, value)
		}
	}

	return result
}
