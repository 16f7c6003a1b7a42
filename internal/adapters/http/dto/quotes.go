package dto

import (
	"time"

	"github.com/jsamuelsen/quotebook/internal/domain"
	"github.com/jsamuelsen/quotebook/internal/ports"
)

// AddQuoteRequest is the body of POST /api/v1/quotes.
type AddQuoteRequest struct {
	Text     string `json:"text" validate:"notempty,max=2000"`
	Category string `json:"category" validate:"max=100"`
}

// SelectCategoryRequest is the body of PUT /api/v1/categories/selected.
// A blank category selects "all".
type SelectCategoryRequest struct {
	Category string `json:"category" validate:"max=100"`
}

// CategoryQuery carries the optional category filter of quote reads.
type CategoryQuery struct {
	Category string `form:"category" validate:"max=100"`
}

// ListQuotesQuery is the query of GET /api/v1/quotes.
type ListQuotesQuery struct {
	CategoryQuery
	PaginationRequest
}

// QuoteResponse is the HTTP representation of a quote.
type QuoteResponse struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

// NewQuoteResponse converts a domain quote.
func NewQuoteResponse(q domain.Quote) QuoteResponse {
	return QuoteResponse{Text: q.Text, Category: q.Category}
}

// NewQuoteResponses converts a slice of domain quotes. Never returns nil.
func NewQuoteResponses(quotes []domain.Quote) []QuoteResponse {
	out := make([]QuoteResponse, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, NewQuoteResponse(q))
	}

	return out
}

// PickResponse is returned by the random and current endpoints. Quote is nil
// and Message holds the empty state when no quote matches.
type PickResponse struct {
	Quote   *QuoteResponse `json:"quote"`
	Message string         `json:"message,omitempty"`
}

// NewPickResponse builds the response for a selection result.
func NewPickResponse(q domain.Quote, ok bool) PickResponse {
	if !ok {
		return PickResponse{Message: domain.EmptyMessage}
	}

	resp := NewQuoteResponse(q)

	return PickResponse{Quote: &resp}
}

// CategoriesResponse lists categories, the filter options and the current selection.
type CategoriesResponse struct {
	Categories []string `json:"categories"`
	Options    []string `json:"options"`
	Selected   string   `json:"selected"`
}

// SelectedCategoryResponse echoes the stored selection.
type SelectedCategoryResponse struct {
	Selected string `json:"selected"`
}

// ImportResponse reports the outcome of an import.
type ImportResponse struct {
	Imported int    `json:"imported"`
	Total    int    `json:"total"`
	Message  string `json:"message"`
}

// SyncResponse reports a completed sync.
type SyncResponse struct {
	Fetched int       `json:"fetched"`
	Dropped int       `json:"dropped"`
	Added   int       `json:"added"`
	Total   int       `json:"total"`
	At      time.Time `json:"at"`
}

// StatusResponse lists the transient status messages.
type StatusResponse struct {
	Messages []ports.StatusMessage `json:"messages"`
}
