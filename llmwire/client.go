package llmwire

import (
	"context"
	"fmt"
	"os"
	"sync"
)

// StreamMiddleware wraps a streaming provider call. It receives the request
// and a next function that calls the downstream handler.
type StreamMiddleware func(ctx context.Context, req Request, next func(context.Context, Request) (<-chan StreamEvent, error)) (<-chan StreamEvent, error)

// Client routes requests to registered provider streamers and applies
// middleware. Registration happens at construction; a Client is safe for
// concurrent use once built.
type Client struct {
	providers       map[string]Streamer
	defaultProvider string
	middleware      []StreamMiddleware
	mu              sync.RWMutex
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithStreamer registers a provider streamer.
func WithStreamer(name string, s Streamer) ClientOption {
	return func(c *Client) {
		c.providers[name] = s
	}
}

// WithDefaultProvider sets the default provider name.
func WithDefaultProvider(name string) ClientOption {
	return func(c *Client) {
		c.defaultProvider = name
	}
}

// WithStreamMiddleware adds middleware to the client. Middleware runs in
// registration order on the way in.
func WithStreamMiddleware(mw ...StreamMiddleware) ClientOption {
	return func(c *Client) {
		c.middleware = append(c.middleware, mw...)
	}
}

// NewClient creates a new Client with the given options.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		providers: make(map[string]Streamer),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.defaultProvider == "" && len(c.providers) == 1 {
		for name := range c.providers {
			c.defaultProvider = name
		}
	}
	return c
}

// RegisterStreamer adds a provider streamer to the client.
func (c *Client) RegisterStreamer(name string, s Streamer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.providers[name] = s
	if c.defaultProvider == "" {
		c.defaultProvider = name
	}
}

// Providers returns the names of all registered streamers.
func (c *Client) Providers() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.providers))
	for name := range c.providers {
		names = append(names, name)
	}
	return names
}

func (c *Client) resolve(req Request) (Streamer, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	name := req.Provider
	if name == "" {
		name = c.defaultProvider
	}
	if name == "" {
		return nil, &ConfigurationError{WireError: WireError{
			Message: "no provider specified and no default provider configured",
		}}
	}
	s, ok := c.providers[name]
	if !ok {
		return nil, &ConfigurationError{WireError: WireError{
			Message: fmt.Sprintf("provider %q is not registered", name),
		}}
	}
	return s, nil
}

// Stream routes a streaming request through middleware to the resolved
// provider.
func (c *Client) Stream(ctx context.Context, req Request) (<-chan StreamEvent, error) {
	s, err := c.resolve(req)
	if err != nil {
		return nil, err
	}

	if req.Provider == "" {
		req.Provider = s.Name()
	}

	handler := func(ctx context.Context, r Request) (<-chan StreamEvent, error) {
		return s.Stream(ctx, r)
	}

	// Apply middleware in reverse order so first registered runs first.
	for i := len(c.middleware) - 1; i >= 0; i-- {
		mw := c.middleware[i]
		next := handler
		handler = func(ctx context.Context, r Request) (<-chan StreamEvent, error) {
			return mw(ctx, r, next)
		}
	}

	return handler(ctx, req)
}

// Close releases resources held by all registered streamers.
func (c *Client) Close() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var firstErr error
	for _, s := range c.providers {
		if closer, ok := s.(Closer); ok {
			if err := closer.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// NewClientFromEnv creates a Client by scanning environment variables for API
// keys. OPENAI_API_KEY registers the native OpenAI streamer (honoring
// OPENAI_BASE_URL); ANTHROPIC_API_KEY registers a gollm-backed streamer.
func NewClientFromEnv() *Client {
	c := NewClient()

	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.RegisterStreamer("openai", NewOpenAIStreamer(key, os.Getenv("OPENAI_BASE_URL")))
	}

	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		if s, err := NewGollmStreamer("anthropic", key); err == nil {
			c.RegisterStreamer("anthropic", s)
		}
	}

	return c
}
