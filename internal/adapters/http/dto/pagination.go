package dto

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strconv"
)

// DefaultLimit is the default number of items per page.
const DefaultLimit = 20

// MaxLimit is the maximum allowed items per page.
const MaxLimit = 100

// cursorField names the position encoded in list cursors.
const cursorField = "offset"

// ErrInvalidCursor is returned when cursor decoding fails.
var ErrInvalidCursor = errors.New("invalid cursor")

// PaginationRequest represents pagination parameters from the request.
type PaginationRequest struct {
	// Cursor is an opaque string from a previous response's NextCursor.
	Cursor string `form:"cursor"`

	// Limit is the maximum number of items to return (1-100, default 20).
	Limit int `form:"limit" validate:"omitempty,gte=1,lte=100"`
}

// GetLimit returns the limit with defaults applied.
func (p *PaginationRequest) GetLimit() int {
	if p.Limit <= 0 {
		return DefaultLimit
	}

	return min(p.Limit, MaxLimit)
}

// Offset returns the list position encoded in the cursor; 0 without one.
func (p *PaginationRequest) Offset() (int, error) {
	if p.Cursor == "" {
		return 0, nil
	}

	data, err := DecodeCursor(p.Cursor)
	if err != nil {
		return 0, err
	}

	offset, err := strconv.Atoi(data.Value)
	if data.Field != cursorField || err != nil || offset < 0 {
		return 0, ErrInvalidCursor
	}

	return offset, nil
}

// PaginatedResponse is a generic paginated response structure.
type PaginatedResponse[T any] struct {
	// Items is the array of items for this page.
	Items []T `json:"items"`

	// NextCursor is the cursor for the next page. Empty on the last page.
	NextCursor string `json:"nextCursor,omitempty"`

	// HasMore indicates whether there are more items after this page.
	HasMore bool `json:"hasMore"`

	// Total is the number of items across all pages.
	Total int `json:"total"`
}

// Paginate slices all into the page described by offset and limit.
func Paginate[T any](all []T, offset, limit int) *PaginatedResponse[T] {
	start := min(offset, len(all))
	end := min(start+limit, len(all))

	resp := &PaginatedResponse[T]{
		Items:   all[start:end],
		HasMore: end < len(all),
		Total:   len(all),
	}

	if resp.HasMore {
		resp.NextCursor = EncodeCursor(&CursorData{Field: cursorField, Value: strconv.Itoa(end)})
	}

	return resp
}

// CursorData contains the data encoded in a pagination cursor.
type CursorData struct {
	// Field is the name of the position field.
	Field string `json:"f"`

	// Value is the position.
	Value string `json:"v"`
}

// EncodeCursor encodes cursor data to a base64 string.
func EncodeCursor(data *CursorData) string {
	if data == nil {
		return ""
	}

	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return ""
	}

	return base64.URLEncoding.EncodeToString(jsonBytes)
}

// DecodeCursor decodes a base64 cursor string to cursor data.
func DecodeCursor(encoded string) (*CursorData, error) {
	jsonBytes, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	var data CursorData
	if err := json.Unmarshal(jsonBytes, &data); err != nil {
		return nil, ErrInvalidCursor
	}

	return &data, nil
}
