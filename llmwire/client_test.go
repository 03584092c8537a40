package llmwire

import (
	"context"
	"errors"
	"testing"
)

type stubStreamer struct {
	name    string
	called  int
	lastReq Request
}

func (s *stubStreamer) Name() string { return s.name }

func (s *stubStreamer) Stream(ctx context.Context, req Request) (<-chan StreamEvent, error) {
	s.called++
	s.lastReq = req
	ch := make(chan StreamEvent, 2)
	ch <- StreamEvent{Type: StreamStart}
	ch <- StreamEvent{Type: StreamFinish, FinishReason: &FinishReason{Reason: "stop"}}
	close(ch)
	return ch, nil
}

func TestClientSingleProviderBecomesDefault(t *testing.T) {
	stub := &stubStreamer{name: "stub"}
	c := NewClient(WithStreamer("stub", stub))

	_, err := c.Stream(context.Background(), Request{Model: "m"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stub.called != 1 {
		t.Errorf("expected 1 call, got %d", stub.called)
	}
	if stub.lastReq.Provider != "stub" {
		t.Errorf("expected provider filled in, got %q", stub.lastReq.Provider)
	}
}

func TestClientRoutesByProvider(t *testing.T) {
	a := &stubStreamer{name: "a"}
	b := &stubStreamer{name: "b"}
	c := NewClient(WithStreamer("a", a), WithStreamer("b", b), WithDefaultProvider("a"))

	if _, err := c.Stream(context.Background(), Request{Provider: "b"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.called != 0 || b.called != 1 {
		t.Errorf("expected call routed to b, got a=%d b=%d", a.called, b.called)
	}
}

func TestClientUnknownProvider(t *testing.T) {
	c := NewClient(WithStreamer("a", &stubStreamer{name: "a"}))

	_, err := c.Stream(context.Background(), Request{Provider: "missing"})
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestClientNoDefault(t *testing.T) {
	c := NewClient(
		WithStreamer("a", &stubStreamer{name: "a"}),
		WithStreamer("b", &stubStreamer{name: "b"}),
	)

	_, err := c.Stream(context.Background(), Request{})
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError with two providers and no default, got %v", err)
	}
}

func TestClientMiddlewareOrder(t *testing.T) {
	var order []string
	mw := func(label string) StreamMiddleware {
		return func(ctx context.Context, req Request, next func(context.Context, Request) (<-chan StreamEvent, error)) (<-chan StreamEvent, error) {
			order = append(order, label)
			return next(ctx, req)
		}
	}

	c := NewClient(
		WithStreamer("stub", &stubStreamer{name: "stub"}),
		WithStreamMiddleware(mw("outer"), mw("inner")),
	)

	if _, err := c.Stream(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
		t.Errorf("expected registration order, got %v", order)
	}
}

func TestRegisterStreamerSetsFirstAsDefault(t *testing.T) {
	c := NewClient()
	stub := &stubStreamer{name: "late"}
	c.RegisterStreamer("late", stub)

	if _, err := c.Stream(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stub.called != 1 {
		t.Errorf("expected late-registered streamer to serve as default, got %d calls", stub.called)
	}
}
