package audit

import (
	"context"
)

// Recorder persists audit events.
// Interface owned by domain per hexagonal architecture.
type Recorder interface {
	// Record writes one event. It is called before the decision is acted
	// on, so implementations should not block for long.
	Record(ctx context.Context, event Event) error
}

// Store is a Recorder that holds resources.
type Store interface {
	Recorder

	// Flush forces pending events to storage. Called during shutdown.
	Flush(ctx context.Context) error

	// Close releases resources.
	Close() error
}
