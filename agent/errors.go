package agent

import "fmt"

// MissingDependencyError indicates a callable declared a parameter that was
// not present in the value pool for the invocation.
type MissingDependencyError struct {
	Param string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("no value available for declared parameter %q", e.Param)
}

// DuplicateToolNameError indicates a tool registration collided with an
// already registered name. Registration fails; the registry is unchanged.
type DuplicateToolNameError struct {
	Name string
}

func (e *DuplicateToolNameError) Error() string {
	return fmt.Sprintf("tool %q is already registered", e.Name)
}

// ToolNotFoundError indicates the model requested a tool name that is not in
// the registry.
type ToolNotFoundError struct {
	Name string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("tool %q is not registered", e.Name)
}

// ArgumentParseError indicates the model-provided argument payload was not a
// valid JSON object.
type ArgumentParseError struct {
	Tool  string
	Cause error
}

func (e *ArgumentParseError) Error() string {
	return fmt.Sprintf("parsing arguments for tool %q: %v", e.Tool, e.Cause)
}

func (e *ArgumentParseError) Unwrap() error { return e.Cause }

// ToolExecutionError wraps a failure raised by a tool handler.
type ToolExecutionError struct {
	Tool  string
	Cause error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("executing tool %q: %v", e.Tool, e.Cause)
}

func (e *ToolExecutionError) Unwrap() error { return e.Cause }

// HookExecutionError wraps a failure raised by a hook listener. Hook failures
// never terminate a run; they are logged and surfaced as error chunks.
type HookExecutionError struct {
	Kind  HookKind
	Cause error
}

func (e *HookExecutionError) Error() string {
	return fmt.Sprintf("hook %s: %v", e.Kind, e.Cause)
}

func (e *HookExecutionError) Unwrap() error { return e.Cause }

// StepLimitError indicates a run reached its step bound without the model
// producing a final answer.
type StepLimitError struct {
	Steps int
}

func (e *StepLimitError) Error() string {
	return fmt.Sprintf("run reached the maximum of %d steps without a final answer", e.Steps)
}

// ModelServiceError wraps a transport or provider failure that terminated a
// run.
type ModelServiceError struct {
	Cause error
}

func (e *ModelServiceError) Error() string {
	return fmt.Sprintf("model service: %v", e.Cause)
}

func (e *ModelServiceError) Unwrap() error { return e.Cause }
