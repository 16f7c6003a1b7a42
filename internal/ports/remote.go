package ports

import (
	"context"

	"github.com/jsamuelsen/quotebook/internal/domain"
)

// RemoteSync is the remote collaborator quotes are reconciled with.
//
// Implementations translate the remote representation into domain quotes;
// the mapping is lossy and tags every fetched quote with the sync marker category.
type RemoteSync interface {
	// FetchQuotes returns at most limit quotes from the remote source.
	// Returns domain.ErrUnavailable on network or decoding failures.
	FetchQuotes(ctx context.Context, limit int) ([]domain.Quote, error)

	// PushQuote sends a single quote to the remote source.
	// The returned receipt is informational only.
	PushQuote(ctx context.Context, quote domain.Quote) (*PushReceipt, error)
}

// PushReceipt is what the remote echoed back after a push.
type PushReceipt struct {
	// RemoteID is the identifier assigned by the remote, if any.
	RemoteID int

	// Status is the HTTP status code returned.
	Status int
}
