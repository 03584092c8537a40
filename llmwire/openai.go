package llmwire

import (
	"context"
	"fmt"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"
)

// OpenAIStreamer implements Streamer over the OpenAI Responses API. With a
// custom base URL it also serves OpenAI-compatible endpoints.
type OpenAIStreamer struct {
	client *openai.Client
	name   string
}

// NewOpenAIStreamer creates a streamer for the OpenAI API. baseURL is
// optional; leave it empty for the default endpoint.
func NewOpenAIStreamer(apiKey, baseURL string) *OpenAIStreamer {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	return &OpenAIStreamer{client: &client, name: "openai"}
}

// Name returns the provider identifier.
func (s *OpenAIStreamer) Name() string { return s.name }

// Stream sends the request and emits incremental events. Tool-call argument
// deltas are forwarded as fragments keyed by the provider's item ID; the
// consumer reassembles them.
func (s *OpenAIStreamer) Stream(ctx context.Context, req Request) (<-chan StreamEvent, error) {
	params := responses.ResponseNewParams{
		Model: req.Model,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: convertMessages(req.Messages),
		},
	}

	if effort := reasoningEffort(req.ReasoningEffort); effort != "" {
		params.Reasoning = shared.ReasoningParam{Effort: effort}
	}

	if tools := convertTools(req.Tools); len(tools) > 0 {
		params.Tools = tools
	}

	var opts []option.RequestOption
	if req.Temperature != nil {
		opts = append(opts, option.WithJSONSet("temperature", *req.Temperature))
	}
	if req.TopP != nil {
		opts = append(opts, option.WithJSONSet("top_p", *req.TopP))
	}
	if req.MaxTokens != nil {
		opts = append(opts, option.WithJSONSet("max_output_tokens", *req.MaxTokens))
	}

	ch := make(chan StreamEvent, 64)

	go func() {
		defer close(ch)

		stream := s.client.Responses.NewStreaming(ctx, params, opts...)
		defer stream.Close()

		ch <- StreamEvent{Type: StreamStart}

		// Item ID -> fragment index, in order of first appearance.
		callIndex := make(map[string]int)
		indexFor := func(itemID string) int {
			if i, ok := callIndex[itemID]; ok {
				return i
			}
			i := len(callIndex)
			callIndex[itemID] = i
			return i
		}

		finish := FinishReason{Reason: "stop", Raw: ""}
		var usage *Usage

		for stream.Next() {
			event := stream.Current()

			switch variant := event.AsAny().(type) {
			case responses.ResponseTextDeltaEvent:
				ch <- StreamEvent{Type: TextDelta, Delta: variant.Delta}

			case responses.ResponseReasoningTextDeltaEvent:
				ch <- StreamEvent{Type: ReasoningDelta, Delta: variant.Delta}

			case responses.ResponseReasoningSummaryTextDeltaEvent:
				ch <- StreamEvent{Type: ReasoningDelta, Delta: variant.Delta}

			case responses.ResponseOutputItemAddedEvent:
				if variant.Item.Type == "function_call" {
					ch <- StreamEvent{Type: ToolCallDelta, ToolCall: &ToolCallFragment{
						Index: indexFor(variant.Item.ID),
						ID:    variant.Item.ID,
						Name:  variant.Item.Name,
					}}
				}

			case responses.ResponseFunctionCallArgumentsDeltaEvent:
				ch <- StreamEvent{Type: ToolCallDelta, ToolCall: &ToolCallFragment{
					Index:          indexFor(variant.ItemID),
					ID:             variant.ItemID,
					ArgumentsDelta: variant.Delta,
				}}

			case responses.ResponseFunctionCallArgumentsDoneEvent:
				// Name can arrive late; forward it so the reassembled call
				// is complete even when the added event lacked it.
				if variant.Name != "" {
					ch <- StreamEvent{Type: ToolCallDelta, ToolCall: &ToolCallFragment{
						Index: indexFor(variant.ItemID),
						ID:    variant.ItemID,
						Name:  variant.Name,
					}}
				}

			case responses.ResponseOutputItemDoneEvent:
				if variant.Item.Type == "function_call" && variant.Item.Name != "" {
					ch <- StreamEvent{Type: ToolCallDelta, ToolCall: &ToolCallFragment{
						Index: indexFor(variant.Item.ID),
						ID:    variant.Item.ID,
						Name:  variant.Item.Name,
					}}
				}

			case responses.ResponseCompletedEvent:
				if len(callIndex) > 0 {
					finish = FinishReason{Reason: "tool_calls", Raw: "completed"}
				} else {
					finish = FinishReason{Reason: "stop", Raw: "completed"}
				}
				if variant.Response.Usage.TotalTokens > 0 {
					usage = &Usage{
						InputTokens:  int(variant.Response.Usage.InputTokens),
						OutputTokens: int(variant.Response.Usage.OutputTokens),
						TotalTokens:  int(variant.Response.Usage.TotalTokens),
					}
				}

			case responses.ResponseIncompleteEvent:
				finish = FinishReason{Reason: "length", Raw: "incomplete"}

			case responses.ResponseFailedEvent:
				ch <- StreamEvent{Type: StreamError, Err: &StreamFailure{WireError: WireError{
					Message: "provider reported response failure",
				}}}
				return

			case responses.ResponseErrorEvent:
				ch <- StreamEvent{Type: StreamError, Err: &StreamFailure{WireError: WireError{
					Message: fmt.Sprintf("provider error: %s", variant.Message),
				}}}
				return
			}
		}

		if err := stream.Err(); err != nil {
			ch <- StreamEvent{Type: StreamError, Err: &NetworkError{WireError: WireError{
				Message: "stream interrupted", Cause: err,
			}}}
			return
		}

		ch <- StreamEvent{Type: StreamFinish, FinishReason: &finish, Usage: usage}
	}()

	return ch, nil
}

func reasoningEffort(effort string) shared.ReasoningEffort {
	switch effort {
	case "low":
		return shared.ReasoningEffortLow
	case "medium":
		return shared.ReasoningEffortMedium
	case "high":
		return shared.ReasoningEffortHigh
	default:
		return ""
	}
}

func convertMessages(messages []Message) []responses.ResponseInputItemUnionParam {
	items := make([]responses.ResponseInputItemUnionParam, 0, len(messages))

	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			items = append(items, responses.ResponseInputItemParamOfMessage(
				m.Content,
				responses.EasyInputMessageRoleSystem,
			))
		case RoleUser:
			items = append(items, responses.ResponseInputItemParamOfMessage(
				m.Content,
				responses.EasyInputMessageRoleUser,
			))
		case RoleAssistant:
			if m.Content != "" {
				items = append(items, responses.ResponseInputItemParamOfMessage(
					m.Content,
					responses.EasyInputMessageRoleAssistant,
				))
			}
			for _, tc := range m.ToolCalls {
				items = append(items, responses.ResponseInputItemParamOfFunctionCall(
					tc.Arguments,
					tc.ID,
					tc.Name,
				))
			}
		case RoleTool:
			items = append(items, responses.ResponseInputItemParamOfFunctionCallOutput(
				m.ToolCallID,
				m.Content,
			))
		}
	}

	return items
}

func convertTools(tools []ToolDefinition) []responses.ToolUnionParam {
	var out []responses.ToolUnionParam
	for _, t := range tools {
		out = append(out, responses.ToolUnionParam{
			OfFunction: &responses.FunctionToolParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  t.Parameters,
			},
		})
	}
	return out
}
