// Package ports defines interfaces for external dependencies.
// Ports are contracts that adapters implement, allowing the application layer
// to depend on abstractions rather than concrete implementations.
//
// Port Design Principles:
//   - Context as first parameter for anything that may block
//   - Return domain types, never external DTOs or infrastructure types
//   - Error returns use domain error types (ErrNotFound, ErrStorage, ErrUnavailable)
//   - Keep interfaces small and focused
package ports

import (
	"context"
	"time"
)

// Storage slot names shared by every KeyValueStore adapter.
const (
	// SlotQuotes holds the JSON-serialized quote collection.
	SlotQuotes = "quotes"

	// SlotSelectedCategory holds the last selected category filter as a plain string.
	SlotSelectedCategory = "selected_category"

	// SlotLastQuote holds the last displayed quote as JSON. Session scoped.
	SlotLastQuote = "last_quote"
)

// KeyValueStore is durable client-side storage made of named string slots.
// Values survive process restarts.
type KeyValueStore interface {
	// Get returns the value stored under key.
	// Returns domain.ErrNotFound if the slot has never been written.
	Get(ctx context.Context, key string) (string, error)

	// Set overwrites the value stored under key.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// SessionStore is storage scoped to a single client session.
// Slots expire after the configured TTL of inactivity.
type SessionStore interface {
	// Get returns the value stored under key for the session.
	// Returns domain.ErrNotFound if absent or expired.
	Get(ctx context.Context, sessionID, key string) (string, error)

	// Set stores value under key for the session and refreshes its expiry.
	Set(ctx context.Context, sessionID, key, value string) error

	// Clear drops every slot belonging to the session.
	Clear(ctx context.Context, sessionID string) error
}

// ChangeWatcher is implemented by stores that can report external modification of a slot,
// for example another process rewriting the same file.
type ChangeWatcher interface {
	// Watch calls onChange with the slot name whenever it changes outside this process.
	// It blocks until ctx is canceled.
	Watch(ctx context.Context, onChange func(key string)) error
}

// Clock abstracts time for components that expire data.
type Clock func() time.Time
