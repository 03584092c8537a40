package llmwire

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/teilomillet/gollm"
)

// GollmStreamer wraps a gollm.LLM instance and implements Streamer. Providers
// gollm cannot token-stream fall back to a single-delta stream built from a
// blocking completion, retried under the configured policy.
type GollmStreamer struct {
	provider string
	llm      gollm.LLM
	retry    RetryPolicy
}

// GollmOption configures a GollmStreamer.
type GollmOption func(*gollmConfig)

type gollmConfig struct {
	model       string
	maxTokens   int
	temperature float64
	retry       RetryPolicy
	extraOpts   []gollm.ConfigOption
}

// WithGollmModel sets the default model for the streamer.
func WithGollmModel(model string) GollmOption {
	return func(c *gollmConfig) {
		c.model = model
	}
}

// WithGollmRetryPolicy overrides the retry policy for blocking fallback calls.
func WithGollmRetryPolicy(p RetryPolicy) GollmOption {
	return func(c *gollmConfig) {
		c.retry = p
	}
}

// WithGollmOptions adds extra gollm configuration options.
func WithGollmOptions(opts ...gollm.ConfigOption) GollmOption {
	return func(c *gollmConfig) {
		c.extraOpts = append(c.extraOpts, opts...)
	}
}

// NewGollmStreamer creates a streamer for the given provider. If apiKey is
// empty, gollm reads it from the provider's environment variable.
func NewGollmStreamer(provider, apiKey string, opts ...GollmOption) (*GollmStreamer, error) {
	cfg := &gollmConfig{
		maxTokens:   4096,
		temperature: 0.7,
		retry:       DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	model := cfg.model
	if model == "" {
		switch provider {
		case "anthropic":
			model = "claude-sonnet-4-5-20250514"
		default:
			model = "gpt-4o-mini"
		}
	}

	gollmOpts := []gollm.ConfigOption{
		gollm.SetProvider(provider),
		gollm.SetModel(model),
		gollm.SetMaxTokens(cfg.maxTokens),
		gollm.SetTemperature(cfg.temperature),
		gollm.SetMaxRetries(0), // retried here, under our own policy
		gollm.SetLogLevel(gollm.LogLevelWarn),
	}
	if apiKey != "" {
		gollmOpts = append(gollmOpts, gollm.SetAPIKey(apiKey))
	}
	gollmOpts = append(gollmOpts, cfg.extraOpts...)

	llm, err := gollm.NewLLM(gollmOpts...)
	if err != nil {
		return nil, &ConfigurationError{WireError: WireError{
			Message: fmt.Sprintf("creating gollm LLM for provider %s", provider), Cause: err,
		}}
	}

	return &GollmStreamer{provider: provider, llm: llm, retry: cfg.retry}, nil
}

// Name returns the provider identifier.
func (s *GollmStreamer) Name() string { return s.provider }

// Stream sends the request and emits events. Token streaming is used when the
// underlying provider supports it; otherwise the full completion is emitted
// as one text delta. Either way, tool calls embedded in the completion text
// are extracted and emitted as fragments before the finish event.
func (s *GollmStreamer) Stream(ctx context.Context, req Request) (<-chan StreamEvent, error) {
	prompt := s.translateRequest(req)
	s.applyRequestOptions(req)

	ch := make(chan StreamEvent, 64)

	if !s.llm.SupportsStreaming() {
		go func() {
			defer close(ch)
			ch <- StreamEvent{Type: StreamStart}

			text, err := Retry(ctx, s.retry, func(ctx context.Context) (string, error) {
				out, genErr := s.llm.Generate(ctx, prompt)
				if genErr != nil {
					return "", s.translateError(genErr)
				}
				return out, nil
			})
			if err != nil {
				ch <- StreamEvent{Type: StreamError, Err: err}
				return
			}

			s.emitCompletion(ch, text)
		}()
		return ch, nil
	}

	stream, err := s.llm.Stream(ctx, prompt)
	if err != nil {
		return nil, s.translateError(err)
	}

	go func() {
		defer close(ch)
		defer stream.Close()

		ch <- StreamEvent{Type: StreamStart}

		var fullText strings.Builder
		for {
			token, err := stream.Next(ctx)
			if err == io.EOF {
				break
			}
			if err != nil {
				ch <- StreamEvent{Type: StreamError, Err: s.translateError(err)}
				return
			}
			if token == nil {
				continue
			}
			ch <- StreamEvent{Type: TextDelta, Delta: token.Text}
			fullText.WriteString(token.Text)
		}

		// Text already went out as deltas; only the embedded tool calls and
		// the finish event remain.
		calls := parseEmbeddedToolCalls(fullText.String())
		finishToolCalls(ch, calls)
	}()

	return ch, nil
}

// emitCompletion turns one blocking completion into stream events.
func (s *GollmStreamer) emitCompletion(ch chan<- StreamEvent, text string) {
	calls := parseEmbeddedToolCalls(text)
	if cleaned := stripEmbeddedToolCalls(text, calls); cleaned != "" {
		ch <- StreamEvent{Type: TextDelta, Delta: cleaned}
	}
	finishToolCalls(ch, calls)
}

func finishToolCalls(ch chan<- StreamEvent, calls []ToolCall) {
	for i, tc := range calls {
		ch <- StreamEvent{Type: ToolCallDelta, ToolCall: &ToolCallFragment{
			Index:          i,
			ID:             tc.ID,
			Name:           tc.Name,
			ArgumentsDelta: tc.Arguments,
		}}
	}
	reason := "stop"
	if len(calls) > 0 {
		reason = "tool_calls"
	}
	ch <- StreamEvent{Type: StreamFinish, FinishReason: &FinishReason{Reason: reason}}
}

// translateRequest converts a Request into a gollm Prompt. gollm takes a
// single prompt string, so the conversation is flattened with role markers.
func (s *GollmStreamer) translateRequest(req Request) *gollm.Prompt {
	var systemPrompt string
	var parts []string

	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			systemPrompt += msg.Content + "\n"
		case RoleUser:
			parts = append(parts, msg.Content)
		case RoleAssistant:
			if msg.Content != "" {
				parts = append(parts, "[Assistant]: "+msg.Content)
			}
		case RoleTool:
			parts = append(parts, "[Tool Result]: "+msg.Content)
		}
	}

	promptText := strings.Join(parts, "\n")
	if promptText == "" {
		promptText = "Hello"
	}

	var promptOpts []gollm.PromptOption

	if systemPrompt != "" {
		promptOpts = append(promptOpts, gollm.WithSystemPrompt(strings.TrimSpace(systemPrompt), gollm.CacheTypeEphemeral))
	}
	if req.MaxTokens != nil {
		promptOpts = append(promptOpts, gollm.WithMaxLength(*req.MaxTokens))
	}

	if len(req.Tools) > 0 {
		tools := make([]gollm.Tool, 0, len(req.Tools))
		for _, t := range req.Tools {
			tools = append(tools, gollm.Tool{
				Type: "function",
				Function: gollm.Function{
					Name:        t.Name,
					Description: t.Description,
					Parameters:  t.Parameters,
				},
			})
		}
		promptOpts = append(promptOpts, gollm.WithTools(tools))
	}

	if req.ToolChoice != nil {
		promptOpts = append(promptOpts, gollm.WithToolChoice(req.ToolChoice.Mode))
	}

	return gollm.NewPrompt(promptText, promptOpts...)
}

// applyRequestOptions applies request-level parameters to the gollm LLM.
func (s *GollmStreamer) applyRequestOptions(req Request) {
	if req.Model != "" {
		s.llm.SetOption("model", req.Model)
	}
	if req.Temperature != nil {
		s.llm.SetOption("temperature", *req.Temperature)
	}
	if req.TopP != nil {
		s.llm.SetOption("top_p", *req.TopP)
	}
	if req.MaxTokens != nil {
		s.llm.SetOption("max_tokens", *req.MaxTokens)
	}
}

// parseEmbeddedToolCalls extracts tool calls that gollm providers return as
// JSON inside the completion text.
func parseEmbeddedToolCalls(text string) []ToolCall {
	start := strings.Index(text, `[{"name"`)
	if start == -1 {
		return nil
	}

	var rawCalls []struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal([]byte(text[start:]), &rawCalls); err != nil {
		return nil
	}

	var calls []ToolCall
	for _, rc := range rawCalls {
		calls = append(calls, ToolCall{
			ID:        "call_" + uuid.New().String()[:8],
			Name:      rc.Name,
			Arguments: string(rc.Arguments),
		})
	}
	return calls
}

// stripEmbeddedToolCalls removes parsed tool call JSON from the text.
func stripEmbeddedToolCalls(text string, calls []ToolCall) string {
	if len(calls) == 0 {
		return text
	}
	if idx := strings.Index(text, `[{"name"`); idx != -1 {
		return strings.TrimSpace(text[:idx])
	}
	return text
}

// translateError converts a gollm error into the llmwire error hierarchy.
// gollm surfaces provider failures as opaque strings, so classification is
// by message content.
func (s *GollmStreamer) translateError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "401") || strings.Contains(lower, "unauthorized") || strings.Contains(lower, "invalid api key"):
		return &AuthenticationError{ProviderError: ProviderError{
			WireError: WireError{Message: msg, Cause: err}, Provider: s.provider, StatusCode: 401,
		}}
	case strings.Contains(lower, "403") || strings.Contains(lower, "forbidden"):
		return &AccessDeniedError{ProviderError: ProviderError{
			WireError: WireError{Message: msg, Cause: err}, Provider: s.provider, StatusCode: 403,
		}}
	case strings.Contains(lower, "404") || strings.Contains(lower, "not found"):
		return &NotFoundError{ProviderError: ProviderError{
			WireError: WireError{Message: msg, Cause: err}, Provider: s.provider, StatusCode: 404,
		}}
	case strings.Contains(lower, "429") || strings.Contains(lower, "rate limit"):
		return &RateLimitError{ProviderError: ProviderError{
			WireError: WireError{Message: msg, Cause: err}, Provider: s.provider, StatusCode: 429, Retryable: true,
		}}
	case strings.Contains(lower, "context length") || strings.Contains(lower, "too many tokens"):
		return &ContextLengthError{ProviderError: ProviderError{
			WireError: WireError{Message: msg, Cause: err}, Provider: s.provider, StatusCode: 413,
		}}
	case strings.Contains(lower, "500") || strings.Contains(lower, "internal server"):
		return &ServerError{ProviderError: ProviderError{
			WireError: WireError{Message: msg, Cause: err}, Provider: s.provider, StatusCode: 500, Retryable: true,
		}}
	case strings.Contains(lower, "timeout"):
		return &RequestTimeoutError{WireError: WireError{Message: msg, Cause: err}}
	default:
		return &ProviderError{
			WireError: WireError{Message: msg, Cause: err},
			Provider:  s.provider,
			Retryable: true,
		}
	}
}
