package llmwire

import "context"

// Streamer is the interface every provider backend implements.
type Streamer interface {
	// Name returns the provider identifier (e.g. "openai", "anthropic").
	Name() string

	// Stream sends a request and returns a channel of stream events. The
	// channel is closed after the terminal finish or error event. The call
	// may block for connection establishment; event delivery is incremental.
	Stream(ctx context.Context, req Request) (<-chan StreamEvent, error)
}

// Closer is implemented by streamers that hold resources.
type Closer interface {
	Close() error
}
