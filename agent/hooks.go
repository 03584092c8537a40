package agent

import "sync"

// HookKind identifies a lifecycle event hooks can attach to.
type HookKind string

const (
	// HookPromptSubmitted fires once per run, after the user prompt joins
	// the conversation.
	HookPromptSubmitted HookKind = "prompt_submitted"

	// HookStepStarted fires at the top of each loop iteration, before the
	// model call.
	HookStepStarted HookKind = "step_started"

	// HookToolCallStarting fires before each tool dispatch.
	HookToolCallStarting HookKind = "tool_call_starting"

	// HookToolCallCompleted fires after each tool dispatch, successful or
	// not.
	HookToolCallCompleted HookKind = "tool_call_completed"

	// HookFinalAnswer fires when the model responds without tool calls.
	HookFinalAnswer HookKind = "final_answer"

	// HookSystemPrompt fires during prompt composition. String results are
	// appended to the system prompt; results of other types are ignored.
	HookSystemPrompt HookKind = "system_prompt"
)

// MetadataParam is the pool name carrying event metadata into hook
// listeners.
const MetadataParam = "metadata"

// hookSet stores listeners per event kind, in registration order.
type hookSet struct {
	mu        sync.RWMutex
	listeners map[HookKind][]*boundCallable
}

func newHookSet() *hookSet {
	return &hookSet{listeners: make(map[HookKind][]*boundCallable)}
}

func (h *hookSet) add(kind HookKind, fn any, bindings []Binding) error {
	callable, err := bindCallable(fn, bindings)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners[kind] = append(h.listeners[kind], callable)
	return nil
}

func (h *hookSet) count(kind HookKind) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners[kind])
}

// fire invokes every listener for kind, in registration order, each
// receiving only its declared subset of the pool. One listener's failure
// never stops the others. Non-empty string results are collected; for
// HookSystemPrompt these are the prompt fragments.
func (h *hookSet) fire(kind HookKind, contextValue any, metadata map[string]any) (fragments []string, errs []error) {
	h.mu.RLock()
	listeners := h.listeners[kind]
	h.mu.RUnlock()

	if len(listeners) == 0 {
		return nil, nil
	}

	if metadata == nil {
		metadata = map[string]any{}
	}
	pool := map[string]any{
		ContextParam:  contextValue,
		MetadataParam: metadata,
	}

	for _, l := range listeners {
		result, err := l.call(pool)
		if err != nil {
			errs = append(errs, &HookExecutionError{Kind: kind, Cause: err})
			continue
		}
		if s, ok := result.(string); ok && s != "" {
			fragments = append(fragments, s)
		}
	}
	return fragments, errs
}
