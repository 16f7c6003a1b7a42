package ports

import "time"

// Metrics receives store and sync events. Implementations must be safe for concurrent use.
type Metrics interface {
	// CollectionSize reports the number of quotes after a load or mutation.
	CollectionSize(n int)

	// QuotesAdded counts quotes appended by source ("add", "import", "sync").
	QuotesAdded(source string, n int)

	// StorageFailed counts failed storage operations.
	StorageFailed(op string)

	// SyncCompleted records a fetch cycle outcome ("success" or "failure").
	SyncCompleted(outcome string, elapsed time.Duration)

	// PushCompleted records a push outcome ("success" or "failure").
	PushCompleted(outcome string)
}

// NopMetrics discards every event.
type NopMetrics struct{}

func (NopMetrics) CollectionSize(int)                  {}
func (NopMetrics) QuotesAdded(string, int)             {}
func (NopMetrics) StorageFailed(string)                {}
func (NopMetrics) SyncCompleted(string, time.Duration) {}
func (NopMetrics) PushCompleted(string)                {}
