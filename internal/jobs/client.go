package jobs

import "context"

// Client sends index jobs to a queue backend.
type Client interface {
	Send(ctx context.Context, msg Message) error
}
