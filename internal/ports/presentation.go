package ports

import (
	"io"
	"time"

	"github.com/jsamuelsen/quotebook/internal/domain"
)

// Renderer presents a quote to the user.
// A nil quote means the pool was empty and the empty state must be shown.
type Renderer interface {
	Render(w io.Writer, quote *domain.Quote) error
}

// StatusLevel classifies a transient notification.
type StatusLevel string

const (
	StatusInfo    StatusLevel = "info"
	StatusWarning StatusLevel = "warning"
	StatusError   StatusLevel = "error"
)

// StatusMessage is a transient, non-blocking notification for the user.
type StatusMessage struct {
	Level   StatusLevel `json:"level"`
	Message string      `json:"message"`
	At      time.Time   `json:"at"`
}

// Notifier surfaces transient status messages to the presentation layer.
type Notifier interface {
	Post(level StatusLevel, message string)
}
