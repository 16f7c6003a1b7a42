package app

import (
	"slices"
	"sync"
	"time"

	"github.com/jsamuelsen/quotebook/internal/ports"
)

const (
	// DefaultStatusTTL is how long a status message stays visible.
	DefaultStatusTTL = 10 * time.Second

	// DefaultStatusCapacity bounds the number of retained messages.
	DefaultStatusCapacity = 20
)

// StatusBoard keeps recent transient notifications in memory.
// It implements ports.Notifier.
type StatusBoard struct {
	mu       sync.Mutex
	messages []ports.StatusMessage
	ttl      time.Duration
	capacity int
	now      ports.Clock
}

// StatusBoardConfig configures a StatusBoard. Zero values select the defaults.
type StatusBoardConfig struct {
	TTL      time.Duration
	Capacity int
	Clock    ports.Clock
}

// NewStatusBoard creates an empty board.
func NewStatusBoard(cfg StatusBoardConfig) *StatusBoard {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultStatusTTL
	}

	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultStatusCapacity
	}

	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	return &StatusBoard{
		ttl:      cfg.TTL,
		capacity: cfg.Capacity,
		now:      cfg.Clock,
	}
}

// Post records a message. The oldest message is evicted once capacity is reached.
func (b *StatusBoard) Post(level ports.StatusLevel, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.messages = append(b.messages, ports.StatusMessage{
		Level:   level,
		Message: message,
		At:      b.now(),
	})

	if over := len(b.messages) - b.capacity; over > 0 {
		b.messages = slices.Delete(b.messages, 0, over)
	}
}

// Recent returns unexpired messages, oldest first.
func (b *StatusBoard) Recent() []ports.StatusMessage {
	b.mu.Lock()
	defer b.mu.Unlock()

	cutoff := b.now().Add(-b.ttl)
	b.messages = slices.DeleteFunc(b.messages, func(m ports.StatusMessage) bool {
		return m.At.Before(cutoff)
	})

	return slices.Clone(b.messages)
}
