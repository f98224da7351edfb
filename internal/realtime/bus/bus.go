package bus

import (
	"context"

	"github.com/speechsmith/speechsmith-backend/internal/realtime"
)

// Bus fans SSE messages out across replicas: any process publishes, every
// process's forwarder delivers to its locally connected clients.
type Bus interface {
	Publish(ctx context.Context, msg realtime.SSEMessage) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error
	Close() error
}
