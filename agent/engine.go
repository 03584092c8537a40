package agent

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/martinemde/orchid/llmwire"
)

// RunState is the lifecycle phase of a run.
type RunState string

const (
	RunComposing        RunState = "composing"
	RunAwaitingModel    RunState = "awaiting_model"
	RunInterpreting     RunState = "interpreting"
	RunDispatchingTools RunState = "dispatching_tools"
	RunFinished         RunState = "finished"
	RunAborted          RunState = "aborted"
)

// Run is one execution of the agent loop. It owns its conversation and step
// counter, so concurrent runs of the same agent never interfere. Consume
// Chunks until it closes; to stop early, cancel the context passed to
// RunStream.
type Run struct {
	id     string
	agent  *Agent
	chunks chan Chunk

	mu    sync.Mutex
	state RunState
	conv  []llmwire.Message
	steps int
}

// ID returns the run's unique identifier.
func (r *Run) ID() string { return r.id }

// Chunks returns the run's output channel. It closes when the run reaches a
// terminal state.
func (r *Run) Chunks() <-chan Chunk { return r.chunks }

// State returns the current lifecycle phase.
func (r *Run) State() RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Steps returns the number of model calls made so far.
func (r *Run) Steps() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.steps
}

// Messages returns a copy of the run's conversation, system message
// included.
func (r *Run) Messages() []llmwire.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]llmwire.Message, len(r.conv))
	copy(out, r.conv)
	return out
}

// ExportMessages returns the conversation filtered for reuse: pass the
// result to WithHistory on a later run. includeSystem keeps the system
// message; includeToolTraffic keeps assistant tool calls and tool results.
func (r *Run) ExportMessages(includeSystem, includeToolTraffic bool) []llmwire.Message {
	var out []llmwire.Message
	for _, m := range r.Messages() {
		switch m.Role {
		case llmwire.RoleSystem:
			if !includeSystem {
				continue
			}
		case llmwire.RoleTool:
			if !includeToolTraffic {
				continue
			}
		case llmwire.RoleAssistant:
			if !includeToolTraffic {
				if len(m.ToolCalls) > 0 && m.Content == "" {
					continue
				}
				m.ToolCalls = nil
			}
		}
		out = append(out, m)
	}
	return out
}

func (r *Run) setState(s RunState) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

func (r *Run) appendMessage(m llmwire.Message) {
	r.mu.Lock()
	r.conv = append(r.conv, m)
	r.mu.Unlock()
}

func (r *Run) bumpStep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps++
	return r.steps
}

// emit delivers a chunk unless the context is done. Returns false when the
// consumer has gone away.
func (r *Run) emit(ctx context.Context, c Chunk) bool {
	c.Origin = r.agent.name
	select {
	case r.chunks <- c:
		return true
	case <-ctx.Done():
		return false
	}
}

// RunStream starts a run and returns immediately. The loop executes on its
// own goroutine; output arrives on the run's chunk channel. Cancel ctx to
// abandon the run.
func (a *Agent) RunStream(ctx context.Context, prompt string, opts ...RunOption) *Run {
	var o runOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxSteps <= 0 {
		o.maxSteps = a.config.MaxSteps
	}

	r := &Run{
		id:     uuid.New().String(),
		agent:  a,
		chunks: make(chan Chunk, a.config.ChunkBuffer),
		state:  RunComposing,
	}

	go a.run(ctx, r, prompt, o)
	return r
}

func (a *Agent) run(ctx context.Context, r *Run, prompt string, o runOptions) {
	defer close(r.chunks)

	logger := a.logger.With("run_id", r.id)
	logger.Info("run started", "prompt_len", len(prompt), "max_steps", o.maxSteps)

	if a.client == nil {
		r.setState(RunAborted)
		r.emit(ctx, errorChunk(&ModelServiceError{Cause: errNoClient}, true))
		return
	}

	// COMPOSING: system prompt, seeded history, then the user prompt.
	system, hookErrs := a.composeSystemPrompt(o.dep)
	a.reportHookErrors(ctx, r, logger, hookErrs)

	if system != "" {
		r.appendMessage(llmwire.SystemMessage(system))
	}
	for _, m := range o.history {
		if m.Role == llmwire.RoleSystem {
			continue
		}
		r.appendMessage(m)
	}
	r.appendMessage(llmwire.UserMessage(prompt))

	_, hookErrs = a.hooks.fire(HookPromptSubmitted, o.dep, map[string]any{
		"run_id": r.id,
		"prompt": prompt,
	})
	a.reportHookErrors(ctx, r, logger, hookErrs)

	for step := 0; step < o.maxSteps; step++ {
		r.bumpStep()
		logger.Debug("step started", "step", step)
		_, hookErrs = a.hooks.fire(HookStepStarted, o.dep, map[string]any{
			"run_id": r.id,
			"step":   step,
		})
		a.reportHookErrors(ctx, r, logger, hookErrs)

		r.setState(RunAwaitingModel)
		events, err := a.client.Stream(ctx, llmwire.Request{
			Model:           a.model,
			Provider:        a.provider,
			Messages:        r.Messages(),
			Tools:           a.toolDefinitions(),
			Temperature:     a.config.Temperature,
			TopP:            a.config.TopP,
			MaxTokens:       a.config.MaxTokens,
			ReasoningEffort: a.config.ReasoningEffort,
		})
		if err != nil {
			logger.Error("model call failed", "error", err)
			r.setState(RunAborted)
			r.emit(ctx, errorChunk(&ModelServiceError{Cause: err}, true))
			return
		}

		r.setState(RunInterpreting)
		text, calls, streamErr := a.interpret(ctx, r, events)
		if streamErr != nil {
			logger.Error("stream failed", "error", streamErr)
			r.setState(RunAborted)
			r.emit(ctx, errorChunk(&ModelServiceError{Cause: streamErr}, true))
			return
		}
		if ctx.Err() != nil {
			r.setState(RunAborted)
			return
		}

		if len(calls) == 0 {
			r.appendMessage(llmwire.AssistantMessage(text))
			_, hookErrs = a.hooks.fire(HookFinalAnswer, o.dep, map[string]any{
				"run_id": r.id,
				"step":   step,
				"text":   text,
			})
			a.reportHookErrors(ctx, r, logger, hookErrs)
			r.setState(RunFinished)
			logger.Info("run finished", "steps", step+1)
			return
		}

		// An assistant turn that requests tools carries the calls, not a
		// final answer; any preamble text already streamed out as chunks.
		r.appendMessage(llmwire.Message{
			Role:      llmwire.RoleAssistant,
			ToolCalls: calls,
		})

		r.setState(RunDispatchingTools)
		for _, tc := range calls {
			a.dispatchOne(ctx, r, logger, tc, o.dep)
			if ctx.Err() != nil {
				r.setState(RunAborted)
				return
			}
		}
	}

	logger.Warn("step limit reached", "max_steps", o.maxSteps)
	r.setState(RunAborted)
	r.emit(ctx, errorChunk(&StepLimitError{Steps: o.maxSteps}, true))
}

// interpret consumes one model stream, forwarding text as chunks and
// assembling tool-call fragments into complete calls in provider order.
func (a *Agent) interpret(ctx context.Context, r *Run, events <-chan llmwire.StreamEvent) (string, []llmwire.ToolCall, error) {
	var text strings.Builder
	acc := newToolCallAccumulator()

	for ev := range events {
		switch ev.Type {
		case llmwire.ReasoningDelta:
			if !r.emit(ctx, Chunk{Type: ChunkReasoning, Content: ev.Delta}) {
				return text.String(), nil, nil
			}
		case llmwire.TextDelta:
			text.WriteString(ev.Delta)
			if !r.emit(ctx, Chunk{Type: ChunkResponse, Content: ev.Delta}) {
				return text.String(), nil, nil
			}
		case llmwire.ToolCallDelta:
			acc.add(ev.ToolCall)
		case llmwire.StreamError:
			return text.String(), nil, ev.Err
		}
	}

	return text.String(), acc.calls(), nil
}

// dispatchOne runs a single tool invocation: hooks, chunks, dispatch, and
// the tool message that feeds the result back to the model. Dispatch
// failures become textual results; the loop continues.
func (a *Agent) dispatchOne(ctx context.Context, r *Run, logger *slog.Logger, tc llmwire.ToolCall, dep any) {
	logger.Debug("dispatching tool", "tool", tc.Name, "call_id", tc.ID)

	_, hookErrs := a.hooks.fire(HookToolCallStarting, dep, map[string]any{
		"run_id":    r.id,
		"tool_name": tc.Name,
		"tool_args": tc.Arguments,
	})
	a.reportHookErrors(ctx, r, logger, hookErrs)

	r.emit(ctx, Chunk{
		Type:    ChunkToolCall,
		Content: tc.Name,
		Metadata: map[string]any{
			"tool_id":   tc.ID,
			"tool_name": tc.Name,
			"tool_args": tc.Arguments,
		},
	})

	result, err := a.dispatch(tc.Name, tc.Arguments, dep)
	if err != nil {
		logger.Warn("tool dispatch failed", "tool", tc.Name, "error", err)
		result = dispatchErrorText(err)
	}

	_, hookErrs = a.hooks.fire(HookToolCallCompleted, dep, map[string]any{
		"run_id":    r.id,
		"tool_name": tc.Name,
		"result":    result,
	})
	a.reportHookErrors(ctx, r, logger, hookErrs)

	r.emit(ctx, Chunk{
		Type:    ChunkToolResult,
		Content: result,
		Metadata: map[string]any{
			"tool_id":   tc.ID,
			"tool_name": tc.Name,
		},
	})

	r.appendMessage(llmwire.ToolResultMessage(tc.ID, tc.Name, result))
}

// reportHookErrors logs each hook failure and surfaces it as a non-terminal
// error chunk.
func (a *Agent) reportHookErrors(ctx context.Context, r *Run, logger *slog.Logger, errs []error) {
	for _, err := range errs {
		logger.Warn("hook failed", "error", err)
		r.emit(ctx, errorChunk(err, false))
	}
}

func errorChunk(err error, terminal bool) Chunk {
	return Chunk{
		Type:    ChunkError,
		Content: err.Error(),
		Metadata: map[string]any{
			"terminal": terminal,
		},
	}
}

// dispatchErrorText renders a dispatch failure as the textual tool result
// the model sees, so it can correct course instead of the run aborting.
func dispatchErrorText(err error) string {
	switch e := err.(type) {
	case *ToolNotFoundError:
		return "Error: tool " + e.Name + " is not registered."
	case *ArgumentParseError:
		return "Error: arguments for tool " + e.Tool + " were not valid JSON."
	case *MissingDependencyError:
		return "Error: required parameter " + e.Param + " was not provided."
	default:
		return "Error: " + err.Error()
	}
}

// toolCallAccumulator reassembles streamed tool-call fragments into complete
// calls, preserving the order fragments first appeared.
type toolCallAccumulator struct {
	byKey map[string]*pendingCall
	order []string
}

type pendingCall struct {
	id   string
	name string
	args strings.Builder
}

func newToolCallAccumulator() *toolCallAccumulator {
	return &toolCallAccumulator{byKey: make(map[string]*pendingCall)}
}

func (a *toolCallAccumulator) add(f *llmwire.ToolCallFragment) {
	if f == nil {
		return
	}
	key := f.Key()
	p, ok := a.byKey[key]
	if !ok {
		p = &pendingCall{}
		a.byKey[key] = p
		a.order = append(a.order, key)
	}
	if f.ID != "" {
		p.id = f.ID
	}
	if f.Name != "" {
		p.name = f.Name
	}
	p.args.WriteString(f.ArgumentsDelta)
}

func (a *toolCallAccumulator) calls() []llmwire.ToolCall {
	if len(a.order) == 0 {
		return nil
	}
	out := make([]llmwire.ToolCall, 0, len(a.order))
	for _, key := range a.order {
		p := a.byKey[key]
		id := p.id
		if id == "" {
			id = key
		}
		out = append(out, llmwire.ToolCall{
			ID:        id,
			Name:      p.name,
			Arguments: p.args.String(),
		})
	}
	return out
}

var errNoClient = &configError{"no llmwire client configured; call SetClient before RunStream"}

type configError struct{ msg string }

func (e *configError) Error() string { return e.msg }
