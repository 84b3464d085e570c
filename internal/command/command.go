package command

import "context"

type Client interface {
	// HandleCommand consumes bot updates until ctx ends or the update
	// channel closes.
	HandleCommand(ctx context.Context) error
}
